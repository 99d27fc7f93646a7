package main

import (
	"context"
	"fmt"
	"log/slog"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/kms"

	"github.com/ideamans/go-sheetsync"
	"github.com/ideamans/go-sheetsync/adapters/excel"
	"github.com/ideamans/go-sheetsync/adapters/googlesheets"
	"github.com/ideamans/go-sheetsync/adapters/smartsheet"
	"github.com/ideamans/go-sheetsync/secrets"
)

// buildJob wires the source, extractor, updater and job from config. The
// extractor's connection test runs here, so a rejected credential fails
// before any sync is attempted.
func buildJob(ctx context.Context, config *sheetsync.Config, logger *slog.Logger) (*sheetsync.Job, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: load AWS configuration: %w", sheetsync.ErrInvalidArgument, err)
	}

	credentials := config.Credentials
	if config.EncryptedCredentials != "" {
		decrypter := secrets.NewDecrypter(kms.NewFromConfig(awsCfg), nil, logger)
		if credentials, err = decrypter.DecryptString(ctx, config.EncryptedCredentials); err != nil {
			return nil, err
		}
	}

	source, err := newSource(ctx, config, credentials)
	if err != nil {
		return nil, err
	}

	extractor, err := sheetsync.NewExtractor(ctx, source, logger)
	if err != nil {
		return nil, err
	}

	updater := sheetsync.NewUpdater(dynamodb.NewFromConfig(awsCfg), config.UpdaterConfig(), logger)

	return sheetsync.NewJob(extractor, updater, sheetsync.JobConfig{
		SheetID:   config.SheetID,
		TableName: config.TableName,
	}, logger), nil
}

// newSource creates the spreadsheet source selected by config.SourceType
func newSource(ctx context.Context, config *sheetsync.Config, credentials string) (sheetsync.Source, error) {
	switch config.SourceType {
	case sheetsync.SourceSmartsheet:
		return smartsheet.New(ctx, smartsheet.Config{AccessToken: credentials})

	case sheetsync.SourceGoogleSheets:
		sheetsConfig := googlesheets.Config{
			SheetName:     config.SheetName,
			PrimaryColumn: config.PrimaryColumn,
		}
		if credentials != "" {
			return googlesheets.NewWithJSONKeyData(ctx, sheetsConfig, []byte(credentials))
		}
		return googlesheets.NewWithDefaultCredentials(ctx, sheetsConfig)

	case sheetsync.SourceExcel:
		return excel.New(&excel.Config{
			FilePath:      config.WorkbookPath,
			PrimaryColumn: config.PrimaryColumn,
		})
	}

	return nil, fmt.Errorf("%w: unknown source type %q", sheetsync.ErrInvalidArgument, config.SourceType)
}
