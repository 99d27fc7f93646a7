package sheetsync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"

	"github.com/ideamans/go-sheetsync/logging"
)

// DynamoDBAPI is the part of the DynamoDB client used by the Updater.
// *dynamodb.Client satisfies it.
type DynamoDBAPI interface {
	ListTables(ctx context.Context, params *dynamodb.ListTablesInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ListTablesOutput, error)
	CreateTable(ctx context.Context, params *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
	BatchWriteItem(ctx context.Context, params *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
}

// UpdaterConfig holds the table defaults and batch settings of an Updater
type UpdaterConfig struct {
	ReadCapacity     int64         // Provisioned read capacity for new tables (default: 1)
	WriteCapacity    int64         // Provisioned write capacity for new tables (default: 1)
	TableWaitTimeout time.Duration // Maximum wait for a new table to become active (default: 5m)
	MaxRetries       int           // Resubmissions of unprocessed batch items (default: 10, NoRetries for none)
	RetryInterval    time.Duration // Base interval for exponential backoff (default: 100ms)
}

// TableHandle identifies a destination table that exists and is usable
type TableHandle struct {
	Name    string
	Created bool // true when the table was created by this call
}

// Updater ensures the destination table exists and upserts rows into it
type Updater struct {
	client DynamoDBAPI
	config UpdaterConfig
	logger *slog.Logger
}

// NewUpdater creates an Updater. Zero config values are replaced by defaults.
func NewUpdater(client DynamoDBAPI, config UpdaterConfig, logger *slog.Logger) *Updater {
	if config.ReadCapacity <= 0 {
		config.ReadCapacity = DefaultReadCapacity
	}
	if config.WriteCapacity <= 0 {
		config.WriteCapacity = DefaultWriteCapacity
	}
	if config.TableWaitTimeout <= 0 {
		config.TableWaitTimeout = DefaultTableWaitTimeout
	}
	if config.MaxRetries == 0 {
		config.MaxRetries = DefaultMaxRetries
	}
	if config.MaxRetries < 0 {
		config.MaxRetries = 0
	}
	if config.RetryInterval <= 0 {
		config.RetryInterval = DefaultRetryInterval
	}

	return &Updater{
		client: client,
		config: config,
		logger: logging.Named(logger, "sheetsync.updater"),
	}
}

// CreateTable creates a table keyed on a single string partition key "id"
// and blocks until DynamoDB reports it active.
func (u *Updater) CreateTable(ctx context.Context, tableName string, readCapacity, writeCapacity int64) (*TableHandle, error) {
	if tableName == "" {
		return nil, fmt.Errorf("%w: table name must not be empty", ErrInvalidArgument)
	}
	if readCapacity < 1 {
		return nil, fmt.Errorf("%w: read capacity must be at least 1, got %d", ErrInvalidArgument, readCapacity)
	}
	if writeCapacity < 1 {
		return nil, fmt.Errorf("%w: write capacity must be at least 1, got %d", ErrInvalidArgument, writeCapacity)
	}

	u.logger.Info("Creating a new DynamoDB table", "table", tableName,
		"read_capacity", readCapacity, "write_capacity", writeCapacity)
	startTime := time.Now()

	_, err := u.client.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName: aws.String(tableName),
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String(KeyAttribute), KeyType: types.KeyTypeHash},
		},
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String(KeyAttribute), AttributeType: types.ScalarAttributeTypeS},
		},
		ProvisionedThroughput: &types.ProvisionedThroughput{
			ReadCapacityUnits:  aws.Int64(readCapacity),
			WriteCapacityUnits: aws.Int64(writeCapacity),
		},
	})
	if err != nil {
		return nil, u.upstream(fmt.Sprintf("create table %s", tableName), err)
	}

	// Writes issued before the table is ACTIVE would fail
	waiter := dynamodb.NewTableExistsWaiter(u.client, func(o *dynamodb.TableExistsWaiterOptions) {
		o.MinDelay = 2 * time.Second
		o.MaxDelay = 20 * time.Second
	})
	err = waiter.Wait(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(tableName)}, u.config.TableWaitTimeout)
	if err != nil {
		return nil, u.upstream(fmt.Sprintf("wait for table %s", tableName), err)
	}

	u.logger.Info("Table is active", "table", tableName, "took", time.Since(startTime))
	return &TableHandle{Name: tableName, Created: true}, nil
}

// GetTable returns a handle to an existing table, creating the table with
// the default capacities when it does not exist.
func (u *Updater) GetTable(ctx context.Context, tableName string) (*TableHandle, error) {
	u.logger.Info("Getting the DynamoDB table", "table", tableName)
	if tableName == "" {
		return nil, fmt.Errorf("%w: table name must not be empty", ErrInvalidArgument)
	}

	exists, err := u.tableExists(ctx, tableName)
	if err != nil {
		return nil, err
	}
	if exists {
		return &TableHandle{Name: tableName}, nil
	}

	u.logger.Info("Table not found", "table", tableName)
	return u.CreateTable(ctx, tableName, u.config.ReadCapacity, u.config.WriteCapacity)
}

func (u *Updater) tableExists(ctx context.Context, tableName string) (bool, error) {
	paginator := dynamodb.NewListTablesPaginator(u.client, &dynamodb.ListTablesInput{})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return false, u.upstream("list tables", err)
		}
		for _, name := range page.TableNames {
			if name == tableName {
				return true, nil
			}
		}
	}
	return false, nil
}

// UpdateTable upserts every row of data into the named table, creating the
// table if needed. Items already in the table but absent from data are left
// untouched. It returns the number of items written.
func (u *Updater) UpdateTable(ctx context.Context, tableName string, data *Table) (int, error) {
	if data == nil {
		return 0, fmt.Errorf("%w: table data is required", ErrInvalidArgument)
	}

	handle, err := u.GetTable(ctx, tableName)
	if err != nil {
		return 0, err
	}

	u.logger.Info("Begin batch table update", "table", handle.Name, "rows", data.NumRows())
	batch := newBatchWriter(u.client, handle.Name, u.config.MaxRetries, u.config.RetryInterval, u.logger)

	for _, row := range data.Rows() {
		item, err := attributevalue.MarshalMap(row.Item())
		if err != nil {
			return batch.written, fmt.Errorf("%w: marshal row %s: %w", ErrInvalidArgument, row.ID(), err)
		}
		u.logger.Debug("Adding item", "id", row.ID())
		if err := batch.Put(ctx, item); err != nil {
			return batch.written, err
		}
	}
	if err := batch.Flush(ctx); err != nil {
		return batch.written, err
	}

	u.logger.Info("Batch table update complete", "table", handle.Name, "written", batch.written)
	return batch.written, nil
}

// upstream wraps a store failure in ErrUpstream, logging the API error details
func (u *Updater) upstream(op string, err error) error {
	var ae smithy.APIError
	if errors.As(err, &ae) {
		u.logger.Error("DynamoDB request failed", "op", op,
			"code", ae.ErrorCode(), "message", ae.ErrorMessage(), "fault", ae.ErrorFault().String())
	}
	return fmt.Errorf("%w: %s: %w", ErrUpstream, op, err)
}
