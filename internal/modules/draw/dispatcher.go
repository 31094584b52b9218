package draw

import (
	"sync"

	"github.com/reusedev/draw-studio/config"
	"github.com/reusedev/draw-studio/internal/modules/ai"
	"github.com/reusedev/draw-studio/internal/modules/ai/image"
	"github.com/reusedev/draw-studio/internal/modules/ai/image/gemini"
	"github.com/reusedev/draw-studio/internal/modules/ai/image/sdk"
	"github.com/reusedev/draw-studio/internal/modules/observer"
)

var (
	mu        sync.RWMutex
	observers observer.Observers
)

// RegisterObserver adds o to every dispatcher built afterwards.
func RegisterObserver(o ...observer.Observer) {
	mu.Lock()
	defer mu.Unlock()
	observers = append(observers, o...)
}

func registered() []observer.Observer {
	mu.RLock()
	defer mu.RUnlock()
	return append([]observer.Observer(nil), observers...)
}

func NewGenerator(c config.Gemini) image.Generator {
	if c.Backend == config.BackendSDK {
		return sdk.NewFromConfig(c)
	}
	return gemini.NewFromConfig(c)
}

// NewDispatcher builds a dispatcher from the given config snapshot. Keys are
// still resolved on every dispatch through the live config.
func NewDispatcher(c *config.Config, opts ...image.Option) *image.Dispatcher {
	base := []image.Option{
		image.WithPolicy(image.PolicyFromConfig(c.Retry)),
		image.WithAttemptTimeout(c.Gemini.Timeout),
		image.WithModel(c.Gemini.Model),
		image.WithObservers(registered()...),
	}
	return image.NewDispatcher(ai.ConfigSource{}, NewGenerator(c.Gemini), append(base, opts...)...)
}
