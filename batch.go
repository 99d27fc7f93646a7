package sheetsync

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// maxBatchSize is the BatchWriteItem limit on requests per call
const maxBatchSize = 25

// batchWriter buffers put requests for one table and sends them in
// BatchWriteItem calls of at most 25 items. Unprocessed items are
// resubmitted with exponential backoff.
type batchWriter struct {
	client        DynamoDBAPI
	table         string
	pending       []types.WriteRequest
	maxRetries    int
	retryInterval time.Duration
	sleep         func(ctx context.Context, d time.Duration) error
	logger        *slog.Logger
	written       int
}

func newBatchWriter(client DynamoDBAPI, table string, maxRetries int, retryInterval time.Duration, logger *slog.Logger) *batchWriter {
	return &batchWriter{
		client:        client,
		table:         table,
		maxRetries:    maxRetries,
		retryInterval: retryInterval,
		sleep:         sleepContext,
		logger:        logger,
	}
}

// Put queues an item, flushing a full batch. A pending item with the same
// key is replaced, since a batch may not contain duplicate keys.
func (w *batchWriter) Put(ctx context.Context, item map[string]types.AttributeValue) error {
	request := types.WriteRequest{PutRequest: &types.PutRequest{Item: item}}

	if key, ok := itemKey(item); ok {
		for i, p := range w.pending {
			if k, ok := itemKey(p.PutRequest.Item); ok && k == key {
				w.logger.Debug("Replacing pending item with duplicate key", "id", key)
				w.pending[i] = request
				return nil
			}
		}
	}

	w.pending = append(w.pending, request)
	if len(w.pending) >= maxBatchSize {
		return w.flush(ctx)
	}
	return nil
}

// Flush sends everything still pending
func (w *batchWriter) Flush(ctx context.Context) error {
	for len(w.pending) > 0 {
		if err := w.flush(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (w *batchWriter) flush(ctx context.Context) error {
	n := len(w.pending)
	if n > maxBatchSize {
		n = maxBatchSize
	}
	batch := w.pending[:n]
	w.pending = w.pending[n:]

	requestItems := map[string][]types.WriteRequest{w.table: batch}
	for attempt := 0; ; attempt++ {
		res, err := w.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{RequestItems: requestItems})
		if err != nil {
			return fmt.Errorf("%w: batch write to %s: %w", ErrUpstream, w.table, err)
		}

		unprocessed := res.UnprocessedItems[w.table]
		w.written += len(requestItems[w.table]) - len(unprocessed)
		if len(unprocessed) == 0 {
			return nil
		}

		if attempt >= w.maxRetries {
			return fmt.Errorf("%w: batch write to %s: %d items still unprocessed after %d retries",
				ErrUpstream, w.table, len(unprocessed), w.maxRetries)
		}

		w.logger.Debug("Resubmitting unprocessed items", "table", w.table, "items", len(unprocessed), "attempt", attempt+1)
		if err := w.sleep(ctx, w.backoff(attempt)); err != nil {
			return fmt.Errorf("%w: batch write to %s: %w", ErrUpstream, w.table, err)
		}
		requestItems = map[string][]types.WriteRequest{w.table: unprocessed}
	}
}

// backoff doubles the retry interval per attempt, capped at 2s
func (w *batchWriter) backoff(attempt int) time.Duration {
	backoff := time.Duration(1<<uint(attempt)) * w.retryInterval
	if backoff > 2*time.Second || backoff <= 0 {
		backoff = 2 * time.Second
	}
	return backoff
}

func itemKey(item map[string]types.AttributeValue) (string, bool) {
	v, ok := item[KeyAttribute].(*types.AttributeValueMemberS)
	if !ok {
		return "", false
	}
	return v.Value, true
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
