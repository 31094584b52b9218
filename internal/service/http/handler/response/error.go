package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/reusedev/draw-studio/internal/modules/ai/image"
)

var (
	ParamError            = gin.H{"code": 10001, "message": "param error"}
	ParamErrorWithMessage = func(message string) gin.H {
		return gin.H{"code": 10001, "message": message}
	}

	InternalError = gin.H{"code": 10002, "message": "internal error"}
	QueueFull     = gin.H{"code": 10003, "message": "too many pending tasks, retry later"}
	NotFound      = gin.H{"code": 10004, "message": "not found"}
	TooMany       = gin.H{"code": 10005, "message": "too many requests"}

	// mysql 未开启时没有调用记录
	HistoryDisabled = gin.H{"code": 10006, "message": "invocation history is disabled"}

	SuccessWithData = func(data interface{}) gin.H {
		return gin.H{"code": 0, "data": data}
	}
)

type kindView struct {
	code    int
	status  int
	message string
}

var kinds = map[image.Kind]kindView{
	image.KindConfiguration: {20001, http.StatusServiceUnavailable, "no API key is configured, set API_KEY and retry"},
	image.KindQuotaExceeded: {20002, http.StatusTooManyRequests, "every API key is over its quota, retry later"},
	image.KindRefusal:       {20003, http.StatusUnprocessableEntity, "the request was refused by the safety filter, change the prompt or images"},
	image.KindTransient:     {20004, http.StatusServiceUnavailable, "the image service is temporarily unavailable, retry later"},
	image.KindFatal:         {20005, http.StatusBadGateway, "the request was rejected by the image service"},
}

// Failure renders a failed dispatch. The returned status is the HTTP status
// to answer with.
func Failure(f *image.Failure, attempts int) (int, gin.H) {
	v, ok := kinds[f.Kind]
	if !ok {
		v = kinds[image.KindFatal]
	}
	return v.status, gin.H{
		"code":     v.code,
		"kind":     f.Kind.String(),
		"message":  v.message,
		"detail":   f.Message,
		"attempts": attempts,
	}
}
