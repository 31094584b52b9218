package response

import "github.com/reusedev/draw-studio/internal/modules/model"

type DispatchHistory struct {
	DispatchId string                `json:"dispatch_id"`
	Attempts   []model.InvokeHistory `json:"attempts"`
}
