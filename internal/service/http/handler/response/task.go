package response

type CreateTask struct {
	TaskId string `json:"task_id"`
	Slots  int    `json:"slots"`
}
