package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/reusedev/draw-studio/config"
	"github.com/reusedev/draw-studio/internal/modules/ai/image"
	"github.com/reusedev/draw-studio/internal/modules/draw"
	"github.com/reusedev/draw-studio/internal/modules/logs"
	"github.com/reusedev/draw-studio/internal/modules/queue"
	"github.com/reusedev/draw-studio/internal/service/http/handler/request"
	"github.com/reusedev/draw-studio/internal/service/http/handler/response"
)

func CreateTask(c *gin.Context) {
	form := request.CreateTask{}
	if err := c.ShouldBind(&form); err != nil {
		c.JSON(http.StatusBadRequest, response.ParamError)
		return
	}
	conf := config.Get()
	if err := form.Valid(conf.Batch.Slots); err != nil {
		c.JSON(http.StatusBadRequest, response.ParamErrorWithMessage(err.Error()))
		return
	}
	images, err := form.Images(conf.HTTP.MaxUploadMB << 20)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.ParamErrorWithMessage(err.Error()))
		return
	}
	prompts := form.SlotPrompts(conf.Batch.Slots)
	payloads := make([]image.Payload, 0, len(prompts))
	for _, p := range prompts {
		payload, err := image.NewPayload(p, images...)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.ParamErrorWithMessage(err.Error()))
			return
		}
		payloads = append(payloads, payload)
	}

	task := draw.NewTask(prompts)
	if err := tasks.Put(task); err != nil {
		logs.Logger.Err(err).Msg("save task failed")
		c.JSON(http.StatusInternalServerError, response.InternalError)
		return
	}
	expire, _ := time.ParseDuration(conf.URLExpires)
	err = taskQ.Push(&draw.BatchTask{
		Task:       task,
		Payloads:   payloads,
		Dispatcher: newDispatcher(conf),
		Options:    image.BatchOptionsFromConfig(conf.Batch),
		Store:      tasks,
		Uploader:   uploader,
		URLExpires: expire,
	})
	if err != nil {
		if errors.Is(err, queue.ErrQueueFull) {
			c.JSON(http.StatusServiceUnavailable, response.QueueFull)
			return
		}
		logs.Logger.Err(err).Str("task_id", task.Id()).Msg("push task failed")
		c.JSON(http.StatusInternalServerError, response.InternalError)
		return
	}
	logs.Logger.Info().Str("task_id", task.Id()).Int("slots", len(prompts)).Msg("task queued")
	c.JSON(http.StatusOK, response.SuccessWithData(response.CreateTask{TaskId: task.Id(), Slots: len(prompts)}))
}

func TaskQuery(c *gin.Context) {
	form := request.TaskQuery{}
	if err := c.ShouldBindQuery(&form); err != nil {
		c.JSON(http.StatusBadRequest, response.ParamError)
		return
	}
	if err := form.Valid(); err != nil {
		c.JSON(http.StatusBadRequest, response.ParamErrorWithMessage(err.Error()))
		return
	}
	task, ok, err := tasks.Get(form.Id)
	if err != nil {
		logs.Logger.Err(err).Str("task_id", form.Id).Msg("get task failed")
		c.JSON(http.StatusInternalServerError, response.InternalError)
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, response.NotFound)
		return
	}
	c.JSON(http.StatusOK, response.SuccessWithData(task.View()))
}
