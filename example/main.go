package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"github.com/ideamans/go-sheetsync"
	"github.com/ideamans/go-sheetsync/adapters/excel"
	"github.com/ideamans/go-sheetsync/logging"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	ctx := context.Background()

	// Human readable logs on the console
	logger := logging.Setup(os.Stderr, logging.Options{Level: slog.LevelInfo, Console: true})

	// Excel source (no authentication required). The first row of the
	// "users" worksheet holds the column titles; "email" identifies a row.
	source, err := excel.New(&excel.Config{
		FilePath:      "./example_data.xlsx",
		PrimaryColumn: "email",
	})
	if err != nil {
		return fmt.Errorf("failed to create source: %w", err)
	}

	// The extractor checks the source before anything else
	extractor, err := sheetsync.NewExtractor(ctx, source, logger)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}

	// DynamoDB client; set DYNAMODB_ENDPOINT to use DynamoDB Local
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return fmt.Errorf("failed to load AWS config: %w", err)
	}
	client := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if endpoint := os.Getenv("DYNAMODB_ENDPOINT"); endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})

	// Tables created on the first run get 5 read / 5 write units
	updater := sheetsync.NewUpdater(client, sheetsync.UpdaterConfig{
		ReadCapacity:  5,
		WriteCapacity: 5,
	}, logger)

	job := sheetsync.NewJob(extractor, updater, sheetsync.JobConfig{
		SheetID:   "users",
		TableName: "example-users",
	}, logger)

	result, err := job.Run(ctx)
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}

	fmt.Printf("Synced %d rows (%d columns) from sheet %s into table %s in %v\n",
		result.Rows, result.Columns, result.SheetID, result.TableName, result.Duration)
	return nil
}
