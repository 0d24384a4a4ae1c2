package jobs

import "github.com/hibiken/asynq"

// TaskReplenishScan is the minute tick that drives auto-replenishment. The
// handler reads the wall clock itself, so the task carries no payload.
const TaskReplenishScan = "replenish:scan"

// NewReplenishScanTask constructs the scheduler tick task.
func NewReplenishScanTask() *asynq.Task {
	return asynq.NewTask(TaskReplenishScan, nil, asynq.Queue(QueueDefault))
}
