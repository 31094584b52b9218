package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/reusedev/draw-studio/internal/modules/dao"
	"github.com/reusedev/draw-studio/internal/modules/logs"
	"github.com/reusedev/draw-studio/internal/service/http/handler/request"
	"github.com/reusedev/draw-studio/internal/service/http/handler/response"
)

// DispatchHistory lists the recorded attempts of one dispatch. It needs the
// MySQL history to be enabled.
func DispatchHistory(c *gin.Context) {
	if historyDB == nil {
		c.JSON(http.StatusServiceUnavailable, response.HistoryDisabled)
		return
	}
	form := request.DispatchQuery{}
	if err := c.ShouldBindQuery(&form); err != nil {
		c.JSON(http.StatusBadRequest, response.ParamError)
		return
	}
	if err := form.Valid(); err != nil {
		c.JSON(http.StatusBadRequest, response.ParamErrorWithMessage(err.Error()))
		return
	}
	attempts, err := dao.InvokeHistoryByDispatch(historyDB, form.Id)
	if err != nil {
		logs.Logger.Err(err).Str("dispatch_id", form.Id).Msg("query invoke history failed")
		c.JSON(http.StatusInternalServerError, response.InternalError)
		return
	}
	if len(attempts) == 0 {
		c.JSON(http.StatusNotFound, response.NotFound)
		return
	}
	c.JSON(http.StatusOK, response.SuccessWithData(response.DispatchHistory{DispatchId: form.Id, Attempts: attempts}))
}
