// Package cli implements the operator subcommands of the kantine binary.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/hibiken/asynq"

	"github.com/kantine/kantine-web/jobs"
)

// Enqueuer submits manual job runs.
type Enqueuer interface {
	EnqueueOrderRollover(ctx context.Context) (*asynq.TaskInfo, error)
}

// Inspector reads queue state.
type Inspector interface {
	GetQueueInfo(queue string) (*asynq.QueueInfo, error)
}

// JobsCLI wraps manual management helpers for queued jobs.
type JobsCLI struct {
	client    Enqueuer
	inspector Inspector
	out       io.Writer
}

// NewJobsCLI builds the helpers. out receives human readable results.
func NewJobsCLI(client Enqueuer, inspector Inspector, out io.Writer) *JobsCLI {
	return &JobsCLI{client: client, inspector: inspector, out: out}
}

// Run dispatches one subcommand: "trigger <job>" or "stats".
func (c *JobsCLI) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("usage: kantine jobs trigger <job> | kantine jobs stats")
	}
	switch args[0] {
	case "trigger":
		if len(args) != 2 {
			return errors.New("usage: kantine jobs trigger <job>")
		}
		info, err := c.Trigger(ctx, args[1])
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(c.out, "enqueued %s as %s on queue %s\n", info.Type, info.ID, info.Queue)
		return nil
	case "stats":
		stats, err := c.InspectQueue()
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(c.out, "queue=%s pending=%d active=%d scheduled=%d retry=%d\n",
			stats.Queue, stats.Pending, stats.Active, stats.Scheduled, stats.Retry)
		return nil
	}
	return fmt.Errorf("jobs cli: unknown command %q", args[0])
}

// Trigger enqueues a supported job by name.
func (c *JobsCLI) Trigger(ctx context.Context, name string) (*asynq.TaskInfo, error) {
	if c == nil || c.client == nil {
		return nil, errors.New("jobs cli: client not configured")
	}
	switch name {
	case jobs.TaskOrderRollover:
		return c.client.EnqueueOrderRollover(ctx)
	}
	return nil, fmt.Errorf("jobs cli: unsupported job %s", name)
}

// QueueStats summarises the current queue state.
type QueueStats struct {
	Queue     string
	Pending   int
	Active    int
	Scheduled int
	Retry     int
}

// InspectQueue reports the metrics of the default queue.
func (c *JobsCLI) InspectQueue() (QueueStats, error) {
	if c == nil || c.inspector == nil {
		return QueueStats{}, errors.New("jobs cli: inspector not configured")
	}
	stats := QueueStats{Queue: jobs.QueueDefault}
	info, err := c.inspector.GetQueueInfo(jobs.QueueDefault)
	if errors.Is(err, asynq.ErrQueueNotFound) {
		return stats, nil
	}
	if err != nil {
		return QueueStats{}, err
	}
	if info != nil {
		stats.Pending = info.Pending
		stats.Active = info.Active
		stats.Scheduled = info.Scheduled
		stats.Retry = info.Retry
	}
	return stats, nil
}
