// Command sheetsync copies a hosted spreadsheet into a DynamoDB table.
//
// Under AWS Lambda it serves every invocation with one full sync and reports
// {"statusCode": 200} or {"statusCode": 500}. Run standalone it syncs once and
// exits 0 or 1, or keeps syncing on an interval with -every.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/joho/godotenv"

	"github.com/ideamans/go-sheetsync"
	"github.com/ideamans/go-sheetsync/logging"
)

func main() {
	if inLambda() {
		runLambda()
		return
	}

	os.Exit(exitCode(runStandalone(os.Args[1:])))
}

func inLambda() bool {
	return os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != ""
}

// runLambda initializes the job once per container, like a cold start, and
// serves invocations until the runtime shuts the process down.
func runLambda() {
	ctx := context.Background()
	logger := logging.Setup(os.Stdout, logging.Options{Level: slog.LevelWarn})

	h := &handler{logger: logging.Named(logger, "sheetsync.lambda")}
	config, err := sheetsync.ConfigFromEnv(os.LookupEnv)
	if err == nil {
		logger = logging.Setup(os.Stdout, logging.Options{Level: config.Level()})
		h.logger = logging.Named(logger, "sheetsync.lambda")
		h.job, err = buildJob(ctx, config, logger)
	}
	if err != nil {
		h.initErr = err
		h.logger.Log(ctx, logging.LevelCritical, "Initialization FAILED", "error", err)
	}

	lambda.Start(h.Handle)
}

func runStandalone(args []string) error {
	flags := flag.NewFlagSet("sheetsync", flag.ContinueOnError)
	envFile := flags.String("env", "", "load environment variables from this file (default: .env if present)")
	every := flags.Duration("every", 0, "sync periodically at this interval until interrupted")
	consoleLevel := flags.String("console-level", "", "console log level: DEBUG, INFO, WARNING, ERROR or CRITICAL (default: LOG_LEVEL)")
	if err := flags.Parse(args); err != nil {
		return fmt.Errorf("%w: %w", sheetsync.ErrInvalidArgument, err)
	}

	logger := logging.Setup(os.Stderr, logging.Options{Level: slog.LevelWarn, Console: true})

	if err := loadEnv(*envFile); err != nil {
		logger.Log(context.Background(), logging.LevelCritical, "Failed to load environment file", "error", err)
		return err
	}

	config, err := sheetsync.ConfigFromEnv(os.LookupEnv)
	if err != nil {
		logger.Log(context.Background(), logging.LevelCritical, "Invalid configuration", "error", err)
		return err
	}

	level := config.Level()
	if *consoleLevel != "" {
		if level, err = logging.ParseLevel(*consoleLevel); err != nil {
			err = fmt.Errorf("%w: -console-level: %w", sheetsync.ErrInvalidArgument, err)
			logger.Log(context.Background(), logging.LevelCritical, "Invalid flag", "error", err)
			return err
		}
	}
	logger = logging.Setup(os.Stderr, logging.Options{Level: level, Console: true})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	job, err := buildJob(ctx, config, logger)
	if err != nil {
		logger.Log(ctx, logging.LevelCritical, "Initialization FAILED", "error", err)
		return err
	}

	if *every > 0 {
		return runEvery(ctx, job, *every, logger)
	}

	_, err = job.Run(ctx)
	return err
}

// runEvery syncs on an interval until ctx is cancelled by a signal. It
// returns an error wrapping the latest failure if any run failed.
func runEvery(ctx context.Context, job sheetsync.Runner, interval time.Duration, logger *slog.Logger) error {
	scheduler := sheetsync.NewScheduler(job, interval, logger)
	scheduler.Start(ctx)

	<-ctx.Done()
	scheduler.Stop()

	runs, skipped, failed := scheduler.Stats()
	logging.Named(logger, "sheetsync.cli").Info("Stopped", "runs", runs, "skipped", skipped, "failed", failed)
	if failed > 0 {
		return fmt.Errorf("%d of %d scheduled runs failed: %w", failed, runs, scheduler.Err())
	}
	return nil
}

// loadEnv loads path into the environment without overriding variables that
// are already set. With no path, a missing .env file is not an error.
func loadEnv(path string) error {
	if path != "" {
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("%w: env file %s: %w", sheetsync.ErrInvalidArgument, path, err)
		}
		return nil
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: .env: %w", sheetsync.ErrInvalidArgument, err)
	}
	return nil
}

// exitCode maps the outcome of a standalone run to the process exit code
func exitCode(err error) int {
	if err != nil {
		return 1
	}
	return 0
}
