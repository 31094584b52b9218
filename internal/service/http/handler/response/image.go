package response

type Generate struct {
	Image      string `json:"image"` // data URI
	MimeType   string `json:"mime_type"`
	URL        string `json:"url,omitempty"`
	DispatchId string `json:"dispatch_id"`
	Attempts   int    `json:"attempts"`
}
