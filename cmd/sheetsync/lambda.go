package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/ideamans/go-sheetsync"
)

// Response is returned to the Lambda runtime
type Response struct {
	StatusCode int `json:"statusCode"`
}

// handler serves Lambda invocations. A failed initialization is reported on
// every invocation.
type handler struct {
	job     sheetsync.Runner
	initErr error
	logger  *slog.Logger
}

// Handle runs one sync. The event payload is ignored.
func (h *handler) Handle(ctx context.Context, event json.RawMessage) (Response, error) {
	if h.initErr != nil || h.job == nil {
		h.logger.Error("Sync skipped; initialization failed", "error", h.initErr)
		return Response{StatusCode: http.StatusInternalServerError}, nil
	}

	_, err := h.job.Run(ctx)
	return Response{StatusCode: statusFor(err)}, nil
}

// statusFor maps the outcome of a run to the reported status code
func statusFor(err error) int {
	if err != nil {
		return http.StatusInternalServerError
	}
	return http.StatusOK
}
