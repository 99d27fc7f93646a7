package sheetsync

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// fakeDynamoDB is an in-memory DynamoDBAPI keyed on the "id" attribute
type fakeDynamoDB struct {
	mu       sync.Mutex
	tables   map[string]map[string]map[string]types.AttributeValue
	created  []*dynamodb.CreateTableInput
	pageSize int

	// unprocessed makes the next N BatchWriteItem calls return their last
	// item as unprocessed
	unprocessed int
	createErr   error
	batchErr    error

	listCalls     int
	describeCalls int
	batchCalls    int
	batchSizes    []int
}

func newFakeDynamoDB(existing ...string) *fakeDynamoDB {
	db := &fakeDynamoDB{tables: make(map[string]map[string]map[string]types.AttributeValue)}
	for _, name := range existing {
		db.tables[name] = make(map[string]map[string]types.AttributeValue)
	}
	return db
}

func (db *fakeDynamoDB) ListTables(ctx context.Context, params *dynamodb.ListTablesInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ListTablesOutput, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.listCalls++

	names := make([]string, 0, len(db.tables))
	for name := range db.tables {
		names = append(names, name)
	}
	sort.Strings(names)

	start := 0
	if params.ExclusiveStartTableName != nil {
		start = sort.SearchStrings(names, *params.ExclusiveStartTableName) + 1
	}
	names = names[min(start, len(names)):]

	out := &dynamodb.ListTablesOutput{TableNames: names}
	if db.pageSize > 0 && len(names) > db.pageSize {
		out.TableNames = names[:db.pageSize]
		out.LastEvaluatedTableName = aws.String(names[db.pageSize-1])
	}
	return out, nil
}

func (db *fakeDynamoDB) CreateTable(ctx context.Context, params *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if db.createErr != nil {
		return nil, db.createErr
	}
	name := aws.ToString(params.TableName)
	if _, exists := db.tables[name]; exists {
		return nil, &types.ResourceInUseException{Message: aws.String("Table already exists: " + name)}
	}
	db.tables[name] = make(map[string]map[string]types.AttributeValue)
	db.created = append(db.created, params)

	return &dynamodb.CreateTableOutput{
		TableDescription: &types.TableDescription{
			TableName:   params.TableName,
			TableStatus: types.TableStatusCreating,
		},
	}, nil
}

func (db *fakeDynamoDB) DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.describeCalls++

	name := aws.ToString(params.TableName)
	if _, exists := db.tables[name]; !exists {
		return nil, &types.ResourceNotFoundException{Message: aws.String("Requested resource not found")}
	}
	return &dynamodb.DescribeTableOutput{
		Table: &types.TableDescription{
			TableName:   params.TableName,
			TableStatus: types.TableStatusActive,
		},
	}, nil
}

func (db *fakeDynamoDB) BatchWriteItem(ctx context.Context, params *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.batchCalls++

	if db.batchErr != nil {
		return nil, db.batchErr
	}

	out := &dynamodb.BatchWriteItemOutput{UnprocessedItems: map[string][]types.WriteRequest{}}
	for name, requests := range params.RequestItems {
		table, exists := db.tables[name]
		if !exists {
			return nil, &types.ResourceNotFoundException{Message: aws.String("Requested resource not found")}
		}
		if len(requests) > maxBatchSize {
			return nil, errors.New("ValidationException: too many items requested for the BatchWriteItem call")
		}
		db.batchSizes = append(db.batchSizes, len(requests))

		if db.unprocessed > 0 && len(requests) > 0 {
			db.unprocessed--
			out.UnprocessedItems[name] = requests[len(requests)-1:]
			requests = requests[:len(requests)-1]
		}

		seen := make(map[string]bool)
		for _, r := range requests {
			key := r.PutRequest.Item[KeyAttribute].(*types.AttributeValueMemberS).Value
			if seen[key] {
				return nil, errors.New("ValidationException: Provided list of item keys contains duplicates")
			}
			seen[key] = true
			table[key] = r.PutRequest.Item
		}
	}
	return out, nil
}

func (db *fakeDynamoDB) items(table string) map[string]map[string]types.AttributeValue {
	db.mu.Lock()
	defer db.mu.Unlock()

	out := make(map[string]map[string]types.AttributeValue)
	for k, v := range db.tables[table] {
		out[k] = v
	}
	return out
}
