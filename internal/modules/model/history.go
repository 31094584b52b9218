package model

import "time"

// InvokeHistory is one remote call made while dispatching.
type InvokeHistory struct {
	Id         int       `json:"id" gorm:"primaryKey"`
	DispatchId string    `json:"dispatch_id" gorm:"column:dispatch_id;type:varchar(36);index"`
	Attempt    int       `json:"attempt" gorm:"column:attempt;type:int"`
	Credential string    `json:"credential" gorm:"column:credential;type:varchar(20)"` // redacted key
	ModelName  string    `json:"model_name" gorm:"column:model_name;type:varchar(50)"`
	Kind       string    `json:"kind" gorm:"column:kind;type:varchar(30)"`
	StatusCode int       `json:"status_code" gorm:"column:status_code;type:int"`
	Message    string    `json:"message" gorm:"column:message;type:varchar(2000)"`
	DurationMs int64     `json:"duration_ms" gorm:"column:duration_ms;type:int"`
	DelayMs    int64     `json:"delay_ms" gorm:"column:delay_ms;type:int"`
	CreatedAt  time.Time `json:"created_at" gorm:"column:created_at;type:datetime;not null;default:CURRENT_TIMESTAMP"`
}

func (InvokeHistory) TableName() string {
	return "invoke_history"
}

// Dispatch is the final outcome of one dispatch.
type Dispatch struct {
	Id         string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	ModelName  string    `json:"model_name" gorm:"column:model_name;type:varchar(50)"`
	Succeed    bool      `json:"succeed" gorm:"column:succeed"`
	Kind       string    `json:"kind" gorm:"column:kind;type:varchar(30)"`
	Message    string    `json:"message" gorm:"column:message;type:varchar(2000)"`
	Attempts   int       `json:"attempts" gorm:"column:attempts;type:int"`
	MimeType   string    `json:"mime_type" gorm:"column:mime_type;type:varchar(30)"`
	ImageBytes int       `json:"image_bytes" gorm:"column:image_bytes;type:int"`
	CreatedAt  time.Time `json:"created_at" gorm:"column:created_at;type:datetime;not null;default:CURRENT_TIMESTAMP"`
}

func (Dispatch) TableName() string {
	return "dispatch"
}
