package request

import (
	"fmt"
	"strings"
)

// CreateTask starts an async batch. Each entry of Prompts is one slot; a
// single Prompt is repeated slots times instead.
type CreateTask struct {
	Generate
	Prompts []string `form:"prompts"`
}

func (t *CreateTask) Valid(maxSlots int) error {
	n := 0
	for _, p := range t.Prompts {
		if strings.TrimSpace(p) != "" {
			n++
		}
	}
	if n == 0 && strings.TrimSpace(t.Prompt) == "" {
		return fmt.Errorf("prompts or prompt is required")
	}
	if n > maxSlots {
		return fmt.Errorf("too many prompts: %d, at most %d", n, maxSlots)
	}
	return t.validImages()
}

// SlotPrompts returns one prompt per slot.
func (t *CreateTask) SlotPrompts(slots int) []string {
	ret := make([]string, 0, slots)
	for _, p := range t.Prompts {
		if p = strings.TrimSpace(p); p != "" {
			ret = append(ret, p)
		}
	}
	if len(ret) > 0 {
		return ret
	}
	for i := 0; i < slots; i++ {
		ret = append(ret, strings.TrimSpace(t.Prompt))
	}
	return ret
}

type TaskQuery struct {
	Id string `form:"id"`
}

func (t *TaskQuery) Valid() error {
	if t.Id == "" {
		return fmt.Errorf("id is required")
	}
	return nil
}

type DispatchQuery struct {
	Id string `form:"id"`
}

func (d *DispatchQuery) Valid() error {
	if d.Id == "" {
		return fmt.Errorf("id is required")
	}
	return nil
}
