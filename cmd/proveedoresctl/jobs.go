package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/spf13/cobra"

	"github.com/tdr/proveedores/jobs"
)

// JobsCLI wraps manual management helpers for Asynq jobs.
type JobsCLI struct {
	client    *jobs.Client
	inspector *asynq.Inspector
}

// NewJobsCLI initialises the helpers against the given Redis address.
func NewJobsCLI(redisAddr string) *JobsCLI {
	opts := asynq.RedisClientOpt{Addr: redisAddr}
	return &JobsCLI{client: jobs.NewClient(opts), inspector: asynq.NewInspector(opts)}
}

// Close releases underlying resources.
func (c *JobsCLI) Close() error {
	var err error
	if c.inspector != nil {
		err = errors.Join(err, c.inspector.Close())
	}
	if c.client != nil {
		err = errors.Join(err, c.client.Close())
	}
	return err
}

// Reseed enqueues a supplier reseed.
func (c *JobsCLI) Reseed(ctx context.Context, reason string) (*asynq.TaskInfo, error) {
	if c == nil || c.client == nil {
		return nil, errors.New("jobs cli: client not configured")
	}
	return c.client.EnqueueReseed(ctx, reason)
}

// QueueStats summarises the current queue state.
type QueueStats struct {
	Queue     string
	Pending   int
	Active    int
	Scheduled int
	Retry     int
	Archived  int
}

// InspectQueue reports the default queue counters.
func (c *JobsCLI) InspectQueue() (QueueStats, error) {
	if c == nil || c.inspector == nil {
		return QueueStats{}, errors.New("jobs cli: inspector not configured")
	}
	info, err := c.inspector.GetQueueInfo(jobs.QueueDefault)
	if err != nil {
		return QueueStats{}, err
	}
	return QueueStats{
		Queue:     info.Queue,
		Pending:   info.Pending,
		Active:    info.Active,
		Scheduled: info.Scheduled,
		Retry:     info.Retry,
		Archived:  info.Archived,
	}, nil
}

func newJobsCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "Inspect and trigger background jobs",
	}

	var reason string
	reseed := &cobra.Command{
		Use:   "reseed",
		Short: "Queue a reseed of the supplier list",
		Long: `Queue a suppliers:reseed task. A server running with JOBS_ENABLED=true
clears the stored list and loads the remote seed (or the bundled fallback).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := opts.context(cmd)
			defer cancel()
			cli := NewJobsCLI(opts.redisAddr)
			defer func() { _ = cli.Close() }()
			info, err := cli.Reseed(ctx, reason)
			if err != nil {
				return fmt.Errorf("enqueue reseed: %w", err)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "queued %s id=%s queue=%s\n", info.Type, info.ID, info.Queue)
			return nil
		},
	}
	reseed.Flags().StringVar(&reason, "reason", "manual", "reason recorded in the job log")

	stats := &cobra.Command{
		Use:   "stats",
		Short: "Show the default queue counters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cli := NewJobsCLI(opts.redisAddr)
			defer func() { _ = cli.Close() }()
			s, err := cli.InspectQueue()
			if err != nil {
				return fmt.Errorf("inspect queue: %w", err)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "queue=%s pending=%d active=%d scheduled=%d retry=%d archived=%d\n",
				s.Queue, s.Pending, s.Active, s.Scheduled, s.Retry, s.Archived)
			return nil
		},
	}

	cmd.AddCommand(reseed, stats)
	return cmd
}
