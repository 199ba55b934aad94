package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/kantine/kantine-web/internal/backend"
	jobmetrics "github.com/kantine/kantine-web/internal/jobs"
)

// RolloverAPI is the batch endpoint of the canteen API.
type RolloverAPI interface {
	TriggerOrderRollover(ctx context.Context) (backend.Message, error)
}

// OrderRolloverJob asks the API to roll pre-orders over into daily orders.
type OrderRolloverJob struct {
	API     RolloverAPI
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewOrderRolloverJob initialises the rollover handler.
func NewOrderRolloverJob(api RolloverAPI, logger *slog.Logger, metrics *jobmetrics.Metrics) *OrderRolloverJob {
	return &OrderRolloverJob{API: api, Logger: logger, Metrics: metrics}
}

// Handle executes one rollover. Client errors from the API are not retried.
func (j *OrderRolloverJob) Handle(ctx context.Context, t *asynq.Task) (err error) {
	if j == nil || j.API == nil {
		return errors.New("order rollover: handler not configured")
	}
	var payload RolloverPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("order rollover: decode payload: %v: %w", err, asynq.SkipRetry)
	}

	tracker := j.Metrics.Track(TaskOrderRollover)
	defer func() { err = tracker.End(err) }()

	logger := j.logger().With(slog.String("reason", payload.Reason), slog.Time("requested_at", payload.RequestedAt))
	msg, err := j.API.TriggerOrderRollover(ctx)
	if err != nil {
		logger.Error("order rollover failed", slog.Any("error", err))
		if retryable(err) {
			return fmt.Errorf("order rollover: %w", err)
		}
		return fmt.Errorf("order rollover: %v: %w", err, asynq.SkipRetry)
	}
	logger.Info("order rollover done", slog.String("message", msg.Message))
	return nil
}

func retryable(err error) bool {
	var apiErr *backend.APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode >= 500
	}
	return true
}

func (j *OrderRolloverJob) logger() *slog.Logger {
	if j.Logger == nil {
		return slog.Default()
	}
	return j.Logger
}
