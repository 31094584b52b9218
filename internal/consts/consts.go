package consts

// Observer events published by the dispatcher.
const (
	EventAttempt = "dispatch.attempt"
	EventOutcome = "dispatch.outcome"
)

type TaskStatus string

const (
	TaskStatusQueued  TaskStatus = "queued"
	TaskStatusRunning TaskStatus = "running"
	TaskStatusSucceed TaskStatus = "succeed"
	TaskStatusFailed  TaskStatus = "failed"
	TaskStatusPartial TaskStatus = "partial"
)

func (s TaskStatus) String() string {
	return string(s)
}

func (s TaskStatus) Done() bool {
	return s == TaskStatusSucceed || s == TaskStatusFailed || s == TaskStatusPartial
}
