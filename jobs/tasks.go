package jobs

import (
	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskIntegritySweep counts dangling cross-entity references. The
	// cascades make orphans impossible; the sweep proves it nightly.
	TaskIntegritySweep = "integrity:sweep"
	// TaskRegistryReseed re-runs the permission-registry seed so a restored
	// database converges on the current catalog.
	TaskRegistryReseed = "registry:reseed"
)

// NewIntegritySweepTask constructs the integrity sweep task.
func NewIntegritySweepTask() *asynq.Task {
	return asynq.NewTask(TaskIntegritySweep, nil)
}

// NewRegistryReseedTask constructs the registry reseed task.
func NewRegistryReseedTask() *asynq.Task {
	return asynq.NewTask(TaskRegistryReseed, nil)
}
