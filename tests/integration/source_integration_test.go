package integration

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/xuri/excelize/v2"

	"github.com/ideamans/go-sheetsync"
	"github.com/ideamans/go-sheetsync/adapters/excel"
	"github.com/ideamans/go-sheetsync/adapters/googlesheets"
	"github.com/ideamans/go-sheetsync/adapters/smartsheet"
	"github.com/ideamans/go-sheetsync/tests/common"
)

// writeFixtureWorkbook saves common.FixtureRows into a new workbook
func writeFixtureWorkbook(t *testing.T) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", "integration"); err != nil {
		t.Fatalf("Failed to rename sheet: %v", err)
	}
	for i, row := range common.FixtureRows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		values := row
		if err := f.SetSheetRow("integration", cell, &values); err != nil {
			t.Fatalf("Failed to write fixture row: %v", err)
		}
	}

	path := filepath.Join(t.TempDir(), "integration_test.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("Failed to save fixture workbook: %v", err)
	}
	return path
}

// getTestSources returns all sources to test
func getTestSources(t *testing.T) []common.SourceTestCase {
	// Load .env file if it exists
	envPath := filepath.Join("..", "..", ".env")
	if _, err := os.Stat(envPath); err == nil {
		if err := godotenv.Load(envPath); err != nil {
			t.Logf("⚠️  Failed to load %s: %v", envPath, err)
		}
	}

	var sources []common.SourceTestCase
	ctx := context.Background()

	// Always test Excel source
	excelFile := writeFixtureWorkbook(t)
	excelSource, err := excel.New(&excel.Config{FilePath: excelFile})
	if err != nil {
		t.Fatalf("Failed to create Excel source: %v", err)
	}
	sources = append(sources, common.SourceTestCase{
		Name:        "Excel",
		Source:      excelSource,
		SheetID:     "integration",
		Description: "Excel file: " + excelFile,
	})

	// Google Sheets if configured; the worksheet must hold common.FixtureRows
	spreadsheetID := os.Getenv("TEST_GOOGLE_SHEET_ID")
	if spreadsheetID == "" {
		t.Log("⚠️  Skipping Google Sheets tests: TEST_GOOGLE_SHEET_ID not set")
	} else {
		gsConfig := googlesheets.Config{SheetName: "integration"}
		source, err := googlesheets.NewWithJSONKeyFile(ctx, gsConfig, os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
		if err != nil {
			t.Logf("⚠️  Failed to create Google Sheets source: %v", err)
		} else {
			sources = append(sources, common.SourceTestCase{
				Name:        "GoogleSheets",
				Source:      source,
				SheetID:     spreadsheetID,
				Description: "Google Sheets with JSON file auth",
			})
		}
	}

	// Smartsheet if configured; the sheet must hold common.FixtureRows with "name" as primary column
	sheetID := os.Getenv("TEST_SMARTSHEET_SHEET_ID")
	token := os.Getenv("TEST_SMARTSHEET_ACCESS_TOKEN")
	if sheetID == "" || token == "" {
		t.Log("⚠️  Skipping Smartsheet tests: TEST_SMARTSHEET_SHEET_ID or TEST_SMARTSHEET_ACCESS_TOKEN not set")
	} else {
		source, err := smartsheet.New(ctx, smartsheet.Config{AccessToken: token})
		if err != nil {
			t.Logf("⚠️  Failed to create Smartsheet source: %v", err)
		} else {
			sources = append(sources, common.SourceTestCase{
				Name:        "Smartsheet",
				Source:      source,
				SheetID:     sheetID,
				Description: "Smartsheet sheet " + sheetID,
			})
		}
	}

	return sources
}

func TestSourceIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	for _, tc := range getTestSources(t) {
		t.Run(tc.Name, func(t *testing.T) {
			t.Logf("Testing with %s", tc.Description)

			data := common.ExtractFixture(t, tc)
			common.CheckFixture(t, data)
		})
	}
}

// TestSyncToDynamoDB runs a full sync of the Excel fixture against a
// DynamoDB endpoint such as DynamoDB Local (TEST_DYNAMODB_ENDPOINT).
func TestSyncToDynamoDB(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	endpoint := os.Getenv("TEST_DYNAMODB_ENDPOINT")
	if endpoint == "" {
		t.Skip("⚠️  Skipping DynamoDB test: TEST_DYNAMODB_ENDPOINT not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion("us-east-1"),
		awsconfig.WithCredentialsProvider(aws.CredentialsProviderFunc(func(context.Context) (aws.Credentials, error) {
			return aws.Credentials{AccessKeyID: "local", SecretAccessKey: "local", Source: "test"}, nil
		})),
	)
	if err != nil {
		t.Fatalf("Failed to load AWS config: %v", err)
	}
	client := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		o.BaseEndpoint = aws.String(endpoint)
	})

	source, err := excel.New(&excel.Config{FilePath: writeFixtureWorkbook(t)})
	if err != nil {
		t.Fatalf("Failed to create Excel source: %v", err)
	}
	extractor, err := sheetsync.NewExtractor(ctx, source, common.DiscardLogger())
	if err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}

	tableName := "sheetsync-it-" + uuid.NewString()
	updater := sheetsync.NewUpdater(client, sheetsync.UpdaterConfig{TableWaitTimeout: time.Minute}, common.DiscardLogger())
	job := sheetsync.NewJob(extractor, updater, sheetsync.JobConfig{SheetID: "integration", TableName: tableName}, common.DiscardLogger())
	t.Cleanup(func() {
		_, _ = client.DeleteTable(context.Background(), &dynamodb.DeleteTableInput{TableName: aws.String(tableName)})
	})

	// Twice: the second run must find the table and overwrite the same items
	for i := 0; i < 2; i++ {
		result, err := job.Run(ctx)
		if err != nil {
			t.Fatalf("Run %d failed: %v", i+1, err)
		}
		if result.Written != 2 {
			t.Errorf("Run %d wrote %d items, want 2", i+1, result.Written)
		}
	}

	out, err := client.Scan(ctx, &dynamodb.ScanInput{TableName: aws.String(tableName)})
	if err != nil {
		t.Fatalf("Failed to scan table: %v", err)
	}

	var items []map[string]interface{}
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &items); err != nil {
		t.Fatalf("Failed to unmarshal items: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("Table holds %d items, want 2", len(items))
	}

	byID := make(map[string]map[string]interface{})
	for _, item := range items {
		id, _ := item[sheetsync.KeyAttribute].(string)
		byID[id] = item
	}
	// Excel row ids are row numbers and column ids are letters
	if alice := byID["2"]; alice == nil || alice["A"] != "Alice" || alice["B"] != float64(30) || alice["C"] != true {
		t.Errorf("Item 2 = %v, want Alice", alice)
	}
	if _, ok := byID["3"]; ok {
		t.Error("Row 3 has an empty primary cell and must not be written")
	}
}
