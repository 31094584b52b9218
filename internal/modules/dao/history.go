package dao

import (
	"github.com/reusedev/draw-studio/internal/consts"
	"github.com/reusedev/draw-studio/internal/modules/ai/image"
	"github.com/reusedev/draw-studio/internal/modules/logs"
	"github.com/reusedev/draw-studio/internal/modules/model"
	"gorm.io/gorm"
)

// Recorder writes dispatch attempts and outcomes to the database.
type Recorder struct {
	DB *gorm.DB
}

func NewRecorder(db *gorm.DB) *Recorder {
	return &Recorder{DB: db}
}

func (r *Recorder) Update(event string, data interface{}) {
	var err error
	switch event {
	case consts.EventAttempt:
		if e, ok := data.(image.AttemptEvent); ok {
			h := InvokeHistoryFromAttempt(e)
			err = r.DB.Model(&model.InvokeHistory{}).Create(&h).Error
		}
	case consts.EventOutcome:
		if e, ok := data.(image.OutcomeEvent); ok {
			d := DispatchFromOutcome(e)
			err = r.DB.Model(&model.Dispatch{}).Create(&d).Error
		}
	}
	if err != nil {
		logs.Logger.Err(err).Str("event", event).Msg("record dispatch history failed")
	}
}

func InvokeHistoryFromAttempt(e image.AttemptEvent) model.InvokeHistory {
	return model.InvokeHistory{
		DispatchId: e.DispatchID,
		Attempt:    e.Attempt.Index,
		Credential: e.Attempt.Credential,
		ModelName:  e.Model,
		Kind:       e.Attempt.Kind.String(),
		StatusCode: e.Attempt.StatusCode,
		Message:    clip(e.Attempt.Message, 2000),
		DurationMs: e.Attempt.Duration.Milliseconds(),
		DelayMs:    e.Attempt.Delay.Milliseconds(),
	}
}

func DispatchFromOutcome(e image.OutcomeEvent) model.Dispatch {
	d := model.Dispatch{
		Id:        e.Outcome.ID,
		ModelName: e.Model,
		Succeed:   e.Outcome.Succeed(),
		Attempts:  len(e.Outcome.Attempts),
		Kind:      image.KindSuccess.String(),
	}
	if e.Outcome.Result != nil {
		d.MimeType = e.Outcome.Result.MimeType
		d.ImageBytes = len(e.Outcome.Result.Data)
	}
	if f := e.Outcome.Failure; f != nil {
		d.Kind = f.Kind.String()
		d.Message = clip(f.Message, 2000)
	}
	return d
}

func InvokeHistoryByDispatch(db *gorm.DB, dispatchId string) ([]model.InvokeHistory, error) {
	var ret []model.InvokeHistory
	err := db.Model(&model.InvokeHistory{}).Where("dispatch_id = ?", dispatchId).Order("attempt").Find(&ret).Error
	return ret, err
}

func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
