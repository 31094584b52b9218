package draw

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/reusedev/draw-studio/internal/consts"
	"github.com/reusedev/draw-studio/internal/modules/ai/image"
	"github.com/reusedev/draw-studio/internal/modules/cache"
)

type Slot struct {
	Index      int               `json:"index"`
	Prompt     string            `json:"prompt"`
	Status     consts.TaskStatus `json:"status"`
	Kind       string            `json:"kind,omitempty"`
	Message    string            `json:"message,omitempty"`
	Attempts   int               `json:"attempts"`
	DispatchId string            `json:"dispatch_id,omitempty"`
	MimeType   string            `json:"mime_type,omitempty"`
	ImageURL   string            `json:"image_url,omitempty"`
}

// Task is an asynchronous batch. All fields are guarded by mu; read them
// through View.
type Task struct {
	mu        sync.RWMutex
	id        string
	status    consts.TaskStatus
	slots     []Slot
	results   []*image.Result
	createdAt time.Time
	updatedAt time.Time
}

type TaskView struct {
	Id        string            `json:"id"`
	Status    consts.TaskStatus `json:"status"`
	Slots     []Slot            `json:"slots"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

func NewTask(prompts []string) *Task {
	now := time.Now()
	t := &Task{
		id:        uuid.NewString(),
		status:    consts.TaskStatusQueued,
		slots:     make([]Slot, len(prompts)),
		results:   make([]*image.Result, len(prompts)),
		createdAt: now,
		updatedAt: now,
	}
	for i, p := range prompts {
		t.slots[i] = Slot{Index: i, Prompt: p, Status: consts.TaskStatusQueued}
	}
	return t
}

func (t *Task) Id() string {
	return t.id
}

func (t *Task) View() TaskView {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return TaskView{
		Id:        t.id,
		Status:    t.status,
		Slots:     append([]Slot(nil), t.slots...),
		CreatedAt: t.createdAt,
		UpdatedAt: t.updatedAt,
	}
}

// Result returns the image of a finished slot, nil otherwise.
func (t *Task) Result(slot int) *image.Result {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if slot < 0 || slot >= len(t.results) {
		return nil
	}
	return t.results[slot]
}

func (t *Task) start() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status = consts.TaskStatusRunning
	for i := range t.slots {
		t.slots[i].Status = consts.TaskStatusRunning
	}
	t.updatedAt = time.Now()
}

func (t *Task) finishSlot(i int, o image.Outcome, imageURL string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s := &t.slots[i]
	s.DispatchId = o.ID
	s.Attempts = len(o.Attempts)
	if o.Succeed() {
		s.Status = consts.TaskStatusSucceed
		s.Kind = image.KindSuccess.String()
		s.MimeType = o.Result.MimeType
		s.ImageURL = imageURL
		t.results[i] = o.Result
	} else {
		s.Status = consts.TaskStatusFailed
		s.Kind = o.Failure.Kind.String()
		s.Message = o.Failure.Message
	}
	t.updatedAt = time.Now()
}

// finish derives the task status from its slots.
func (t *Task) finish() {
	t.mu.Lock()
	defer t.mu.Unlock()
	var ok, failed int
	for _, s := range t.slots {
		switch s.Status {
		case consts.TaskStatusSucceed:
			ok++
		default:
			failed++
		}
	}
	switch {
	case failed == 0:
		t.status = consts.TaskStatusSucceed
	case ok == 0:
		t.status = consts.TaskStatusFailed
	default:
		t.status = consts.TaskStatusPartial
	}
	t.updatedAt = time.Now()
}

// Store keeps tasks in memory until their TTL passes.
type Store struct {
	cache *cache.Manager[*Task]
	ttl   time.Duration
}

func NewStore(ttl time.Duration) *Store {
	return &Store{cache: cache.NewManager[*Task](ttl, ttl), ttl: ttl}
}

func (s *Store) Put(t *Task) error {
	return s.cache.SetWithExpiration(t.id, t, s.ttl)
}

func (s *Store) Get(id string) (*Task, bool, error) {
	return s.cache.Lookup(id)
}
