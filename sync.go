package sheetsync

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ideamans/go-sheetsync/logging"
)

// Result summarizes one completed sync run
type Result struct {
	RunID     string
	SheetID   string
	TableName string
	Columns   int
	Rows      int
	Written   int
	Duration  time.Duration
}

// JobConfig identifies the source sheet and the destination table
type JobConfig struct {
	SheetID   string
	TableName string // default: SheetID
}

// Job performs one full sync: extract the sheet, then upsert it into the table
type Job struct {
	extractor *Extractor
	updater   *Updater
	config    JobConfig
	logger    *slog.Logger
}

// NewJob creates a sync job from its injected components
func NewJob(extractor *Extractor, updater *Updater, config JobConfig, logger *slog.Logger) *Job {
	if config.TableName == "" {
		config.TableName = config.SheetID
	}

	return &Job{
		extractor: extractor,
		updater:   updater,
		config:    config,
		logger:    logging.Named(logger, "sheetsync.job"),
	}
}

// Run performs the sync. The run either completes the whole batch
// submission or fails; on failure some items may already be written.
func (j *Job) Run(ctx context.Context) (*Result, error) {
	runID := uuid.NewString()
	logger := j.logger.With("run_id", runID, "sheet", j.config.SheetID, "table", j.config.TableName)
	startTime := time.Now()

	logger.Info("Starting sync")

	result, err := j.run(ctx)
	if err != nil {
		logger.Log(ctx, logging.LevelCritical, "Sync FAILED", "error", err, "took", time.Since(startTime))
		return nil, err
	}

	result.RunID = runID
	result.Duration = time.Since(startTime)
	logger.Info("Sync complete", "rows", result.Rows, "written", result.Written, "took", result.Duration)
	return result, nil
}

func (j *Job) run(ctx context.Context) (*Result, error) {
	if j.config.SheetID == "" {
		return nil, fmt.Errorf("%w: sheet id is required", ErrInvalidArgument)
	}

	data, err := j.extractor.ExtractData(ctx, j.config.SheetID)
	if err != nil {
		return nil, err
	}

	written, err := j.updater.UpdateTable(ctx, j.config.TableName, data)
	if err != nil {
		return nil, err
	}

	return &Result{
		SheetID:   j.config.SheetID,
		TableName: j.config.TableName,
		Columns:   data.NumColumns(),
		Rows:      data.NumRows(),
		Written:   written,
	}, nil
}
