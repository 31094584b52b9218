package handler

import (
	"bytes"
	"context"
	"fmt"
	"image/color"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/gin-gonic/gin"
	"github.com/reusedev/draw-studio/config"
	"github.com/reusedev/draw-studio/internal/modules/ai/image"
	"github.com/reusedev/draw-studio/internal/modules/draw"
	"github.com/reusedev/draw-studio/internal/modules/queue"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// fakeDispatch answers by prompt: "refuse" is refused, anything else succeeds
// with pngImage.
type fakeDispatch struct {
	mu      sync.Mutex
	prompts []string
	images  int
}

func (f *fakeDispatch) Dispatch(_ context.Context, p image.Payload) image.Outcome {
	f.mu.Lock()
	f.prompts = append(f.prompts, p.Prompt)
	f.images = len(p.Images)
	f.mu.Unlock()
	if p.Prompt == "refuse" {
		return image.Outcome{
			ID:       "d-refused",
			Failure:  &image.Failure{Kind: image.KindRefusal, Message: "I can't draw that"},
			Attempts: make([]image.Attempt, 1),
		}
	}
	return image.Outcome{
		ID:       "d-ok",
		Result:   &image.Result{Data: pngImage, MimeType: "image/png"},
		Attempts: make([]image.Attempt, 2),
	}
}

var pngImage = func() []byte {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, imaging.New(40, 20, color.NRGBA{R: 200, A: 255}), imaging.PNG); err != nil {
		panic(err)
	}
	return buf.Bytes()
}()

func setup(t *testing.T) (*gin.Engine, *fakeDispatch) {
	gin.SetMode(gin.TestMode)
	c, err := config.Parse([]byte("batch:\n  slots: 3\n"))
	require.NoError(t, err)
	config.Set(c)

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	q := queue.NewTaskQueue(4)
	q.Run(ctx, &wg)
	t.Cleanup(func() {
		cancel()
		wg.Wait()
	})
	Init(draw.NewStore(time.Minute), q, nil, nil)

	fake := &fakeDispatch{}
	prev := newDispatcher
	newDispatcher = func(*config.Config) image.Dispatch { return fake }
	t.Cleanup(func() { newDispatcher = prev })

	e := gin.New()
	e.POST("/v1/images/generate", Generate)
	e.GET("/v1/images", GetImage)
	e.POST("/v1/task", CreateTask)
	e.GET("/v1/task", TaskQuery)
	e.GET("/v1/dispatch", DispatchHistory)
	return e, fake
}

type field struct {
	name, value string
	file        []byte
}

func multipartRequest(t *testing.T, path string, fields ...field) *http.Request {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for _, f := range fields {
		if f.file == nil {
			require.NoError(t, w.WriteField(f.name, f.value))
			continue
		}
		fw, err := w.CreateFormFile(f.name, f.name+".png")
		require.NoError(t, err)
		_, err = fw.Write(f.file)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func serve(e *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	e.ServeHTTP(w, req)
	return w
}

func TestGenerateRequiresProduct(t *testing.T) {
	e, fake := setup(t)
	w := serve(e, multipartRequest(t, "/v1/images/generate", field{name: "prompt", value: "a shoe"}))
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, int64(10001), gjson.Get(w.Body.String(), "code").Int())
	require.Contains(t, gjson.Get(w.Body.String(), "message").String(), "product")
	require.Empty(t, fake.prompts)
}

func TestGenerateIgnoresImageLinks(t *testing.T) {
	e, fake := setup(t)
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		_, _ = w.Write(pngImage)
	}))
	defer srv.Close()

	w := serve(e, multipartRequest(t, "/v1/images/generate",
		field{name: "prompt", value: "a shoe"},
		field{name: "product_url", value: srv.URL + "/latest/meta-data"},
	))
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Zero(t, hits)
	require.Empty(t, fake.prompts)
}

func TestGenerateRejectsNonImage(t *testing.T) {
	e, _ := setup(t)
	w := serve(e, multipartRequest(t, "/v1/images/generate",
		field{name: "prompt", value: "a shoe"},
		field{name: "product", file: []byte("plain text")},
	))
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGenerateSuccess(t *testing.T) {
	e, fake := setup(t)
	w := serve(e, multipartRequest(t, "/v1/images/generate",
		field{name: "prompt", value: "a shoe on a beach"},
		field{name: "product", file: pngImage},
		field{name: "logo", file: pngImage},
	))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := w.Body.String()
	require.Equal(t, int64(0), gjson.Get(body, "code").Int())
	require.True(t, strings.HasPrefix(gjson.Get(body, "data.image").String(), "data:image/png;base64,"))
	require.Equal(t, int64(2), gjson.Get(body, "data.attempts").Int())
	require.False(t, gjson.Get(body, "data.url").Exists())
	require.Equal(t, []string{"a shoe on a beach"}, fake.prompts)
	require.Equal(t, 2, fake.images)
}

func TestGenerateRefusal(t *testing.T) {
	e, _ := setup(t)
	w := serve(e, multipartRequest(t, "/v1/images/generate",
		field{name: "prompt", value: "refuse"},
		field{name: "product", file: pngImage},
	))
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	body := w.Body.String()
	require.Equal(t, "refusal", gjson.Get(body, "kind").String())
	require.Equal(t, "I can't draw that", gjson.Get(body, "detail").String())
	require.Contains(t, gjson.Get(body, "message").String(), "safety filter")
}

func TestTaskLifecycle(t *testing.T) {
	e, fake := setup(t)
	w := serve(e, multipartRequest(t, "/v1/task",
		field{name: "prompts", value: "first"},
		field{name: "prompts", value: "refuse"},
		field{name: "product", file: pngImage},
	))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	id := gjson.Get(w.Body.String(), "data.task_id").String()
	require.NotEmpty(t, id)
	require.Equal(t, int64(2), gjson.Get(w.Body.String(), "data.slots").Int())

	require.Eventually(t, func() bool {
		w := serve(e, httptest.NewRequest(http.MethodGet, "/v1/task?id="+id, nil))
		return gjson.Get(w.Body.String(), "data.status").String() == "partial"
	}, 2*time.Second, 10*time.Millisecond)
	require.ElementsMatch(t, []string{"first", "refuse"}, fake.prompts)

	w = serve(e, httptest.NewRequest(http.MethodGet, "/v1/task?id="+id, nil))
	body := w.Body.String()
	require.Equal(t, "succeed", gjson.Get(body, "data.slots.0.status").String())
	require.Equal(t, "refusal", gjson.Get(body, "data.slots.1.kind").String())

	w = serve(e, httptest.NewRequest(http.MethodGet, fmt.Sprintf("/v1/images?task=%s&slot=0", id), nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, pngImage, w.Body.Bytes())

	w = serve(e, httptest.NewRequest(http.MethodGet, fmt.Sprintf("/v1/images?task=%s&slot=0&thumbnail=true&ratio=0.5", id), nil))
	require.Equal(t, http.StatusOK, w.Code)
	thumb, err := imaging.Decode(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	require.Equal(t, 20, thumb.Bounds().Dx())
	require.Equal(t, 10, thumb.Bounds().Dy())

	w = serve(e, httptest.NewRequest(http.MethodGet, fmt.Sprintf("/v1/images?task=%s&slot=0&format=jpeg", id), nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "image/jpeg", w.Header().Get("Content-Type"))

	w = serve(e, httptest.NewRequest(http.MethodGet, fmt.Sprintf("/v1/images?task=%s&slot=1", id), nil))
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestTaskRepeatsSinglePrompt(t *testing.T) {
	e, fake := setup(t)
	w := serve(e, multipartRequest(t, "/v1/task",
		field{name: "prompt", value: "same"},
		field{name: "product", file: pngImage},
	))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.Equal(t, int64(3), gjson.Get(w.Body.String(), "data.slots").Int())
	require.Eventually(t, func() bool {
		fake.mu.Lock()
		defer fake.mu.Unlock()
		return len(fake.prompts) == 3
	}, 2*time.Second, 10*time.Millisecond)
}

func TestTaskTooManyPrompts(t *testing.T) {
	e, _ := setup(t)
	w := serve(e, multipartRequest(t, "/v1/task",
		field{name: "prompts", value: "1"},
		field{name: "prompts", value: "2"},
		field{name: "prompts", value: "3"},
		field{name: "prompts", value: "4"},
		field{name: "product", file: pngImage},
	))
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTaskQueryNotFound(t *testing.T) {
	e, _ := setup(t)
	w := serve(e, httptest.NewRequest(http.MethodGet, "/v1/task?id=missing", nil))
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Equal(t, int64(10004), gjson.Get(w.Body.String(), "code").Int())

	w = serve(e, httptest.NewRequest(http.MethodGet, "/v1/images?task=missing&format=gif", nil))
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDispatchHistory(t *testing.T) {
	e, _ := setup(t)
	w := serve(e, httptest.NewRequest(http.MethodGet, "/v1/dispatch?id=d-1", nil))
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	require.Equal(t, int64(10006), gjson.Get(w.Body.String(), "code").Int())

	db, err := gorm.Open(mysql.New(mysql.Config{
		DSN:                       "u:p@tcp(127.0.0.1:1)/draw?parseTime=True",
		SkipInitializeWithVersion: true,
	}), &gorm.Config{DryRun: true, DisableAutomaticPing: true})
	require.NoError(t, err)
	historyDB = db

	w = serve(e, httptest.NewRequest(http.MethodGet, "/v1/dispatch", nil))
	require.Equal(t, http.StatusBadRequest, w.Code)
	// a dry run reads no rows
	w = serve(e, httptest.NewRequest(http.MethodGet, "/v1/dispatch?id=d-1", nil))
	require.Equal(t, http.StatusNotFound, w.Code)
}
