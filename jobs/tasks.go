// Package jobs defines the background task surface of the engine:
// durable role-wide snapshot reconciliation and the nightly sweep.
package jobs

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/meridian-erp/authz/internal/authz/events"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskRoleReconcile repairs snapshots for every actor on a role.
	TaskRoleReconcile = "authz:reconcile_role"
	// TaskReconcileSweep re-reconciles all roles on a schedule.
	TaskReconcileSweep = "authz:reconcile_sweep"
)

// RoleReconcilePayload names the role whose actors need repair.
type RoleReconcilePayload struct {
	RoleID string `json:"role_id"`
}

// NewRoleReconcileTask constructs an Asynq task.
func NewRoleReconcileTask(payload RoleReconcilePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskRoleReconcile, data), nil
}

// NewReconcileSweepTask constructs the periodic sweep task.
func NewReconcileSweepTask() *asynq.Task {
	return asynq.NewTask(TaskReconcileSweep, nil)
}

// Client submits jobs to the queue.
type Client struct {
	client *asynq.Client
}

// NewClient constructs an Asynq client.
func NewClient(redisOpts asynq.RedisClientOpt) *Client {
	return &Client{client: asynq.NewClient(redisOpts)}
}

// PublishRoleChanged implements events.Publisher by enqueueing a
// durable role-wide reconcile. The pub/sub channel handles the fast
// path; the queue guarantees the repair happens even if every
// subscriber was down at publish time.
func (c *Client) PublishRoleChanged(ctx context.Context, ev events.RoleChanged) error {
	task, err := NewRoleReconcileTask(RoleReconcilePayload{RoleID: ev.RoleID})
	if err != nil {
		return err
	}
	if _, err := c.client.EnqueueContext(ctx, task, asynq.Queue(QueueDefault)); err != nil {
		return fmt.Errorf("jobs: enqueue role reconcile: %w", err)
	}
	return nil
}

// Close releases client resources.
func (c *Client) Close() error {
	return c.client.Close()
}
