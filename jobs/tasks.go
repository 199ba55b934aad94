package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskOrderRollover moves pre-orders to daily orders and archives old ones.
	TaskOrderRollover = "orders:rollover"
)

// Rollover triggers.
const (
	ReasonCron   = "cron"
	ReasonManual = "manual"
)

// RolloverPayload describes one rollover request.
type RolloverPayload struct {
	Reason      string    `json:"reason"`
	RequestedAt time.Time `json:"requested_at"`
}

// NewOrderRolloverTask constructs an Asynq task.
func NewOrderRolloverTask(reason string) (*asynq.Task, error) {
	if reason == "" {
		reason = ReasonManual
	}
	data, err := json.Marshal(RolloverPayload{Reason: reason, RequestedAt: time.Now().UTC()})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOrderRollover, data, asynq.MaxRetry(3), asynq.Timeout(2*time.Minute)), nil
}
