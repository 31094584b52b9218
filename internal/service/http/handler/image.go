package handler

import (
	"bytes"
	"io"
	"net/http"
	"time"

	"github.com/disintegration/imaging"
	"github.com/gin-gonic/gin"
	"github.com/reusedev/draw-studio/config"
	"github.com/reusedev/draw-studio/internal/modules/ai/image"
	"github.com/reusedev/draw-studio/internal/modules/draw"
	"github.com/reusedev/draw-studio/internal/modules/logs"
	"github.com/reusedev/draw-studio/internal/service/http/handler/request"
	"github.com/reusedev/draw-studio/internal/service/http/handler/response"
	"github.com/reusedev/draw-studio/tools"
)

const jpegQuality = 85

func Generate(c *gin.Context) {
	form := request.Generate{}
	if err := c.ShouldBind(&form); err != nil {
		c.JSON(http.StatusBadRequest, response.ParamError)
		return
	}
	if err := form.Valid(); err != nil {
		c.JSON(http.StatusBadRequest, response.ParamErrorWithMessage(err.Error()))
		return
	}
	conf := config.Get()
	images, err := form.Images(conf.HTTP.MaxUploadMB << 20)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.ParamErrorWithMessage(err.Error()))
		return
	}
	payload, err := image.NewPayload(form.Prompt, images...)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.ParamErrorWithMessage(err.Error()))
		return
	}

	out := newDispatcher(conf).Dispatch(c.Request.Context(), payload)
	if !out.Succeed() {
		c.JSON(response.Failure(out.Failure, len(out.Attempts)))
		return
	}
	expire, _ := time.ParseDuration(conf.URLExpires)
	c.JSON(http.StatusOK, response.SuccessWithData(response.Generate{
		Image:      out.Result.DataURI(),
		MimeType:   out.Result.MimeType,
		URL:        draw.Persist(c.Request.Context(), uploader, out, expire),
		DispatchId: out.ID,
		Attempts:   len(out.Attempts),
	}))
}

// GetImage serves the bytes of a finished task slot.
func GetImage(c *gin.Context) {
	form := request.GetImage{}
	if err := c.ShouldBindQuery(&form); err != nil {
		c.JSON(http.StatusBadRequest, response.ParamError)
		return
	}
	if err := form.Valid(); err != nil {
		c.JSON(http.StatusBadRequest, response.ParamErrorWithMessage(err.Error()))
		return
	}
	form.FullWithDefault()

	if v, ok, err := imageCache.Lookup(form.CacheKey()); err == nil && ok {
		c.Data(http.StatusOK, v.MimeType, v.Data)
		return
	}
	task, ok, err := tasks.Get(form.Task)
	if err != nil {
		logs.Logger.Err(err).Str("task_id", form.Task).Msg("get task failed")
		c.JSON(http.StatusInternalServerError, response.InternalError)
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, response.NotFound)
		return
	}
	result := task.Result(form.Slot)
	if result == nil {
		c.JSON(http.StatusNotFound, response.NotFound)
		return
	}

	img := cachedImage{Data: result.Data, MimeType: result.MimeType}
	if form.Format == request.FormatJPEG {
		img.Data, err = tools.ConvertAndCompressToJPEG(img.Data, jpegQuality)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.ParamErrorWithMessage(err.Error()))
			return
		}
		img.MimeType = tools.ImageTypeJPEG.MimeType()
	}
	if form.Thumbnail {
		img, err = thumbnail(img, form.Ratio)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.ParamErrorWithMessage(err.Error()))
			return
		}
	}
	if err := imageCache.SetWithExpiration(form.CacheKey(), img, 10*time.Minute); err != nil {
		logs.Logger.Warn().Err(err).Msg("cache image failed")
	}
	c.Data(http.StatusOK, img.MimeType, img.Data)
}

func thumbnail(img cachedImage, ratio float64) (cachedImage, error) {
	format, t := imaging.PNG, tools.ImageTypePNG
	switch tools.DetectImageType(img.Data) {
	case tools.ImageTypeJPEG:
		format, t = imaging.JPEG, tools.ImageTypeJPEG
	case tools.ImageTypeGIF:
		format, t = imaging.GIF, tools.ImageTypeGIF
	}
	r, err := tools.Thumbnail(bytes.NewReader(img.Data), ratio, format)
	if err != nil {
		return img, err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return img, err
	}
	return cachedImage{Data: data, MimeType: t.MimeType()}, nil
}
