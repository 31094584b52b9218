package image

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"strings"

	"github.com/reusedev/draw-studio/internal/modules/ai"
)

var (
	ErrEmptyPrompt = errors.New("prompt is empty")
	ErrEmptyImage  = errors.New("image has no data")
)

// Role says what an attached image is for. The model reads image parts in the
// order given relative to the instruction text, so roles fix that order.
type Role string

const (
	RoleProduct   Role = "product"
	RoleReference Role = "reference"
	RoleLogo      Role = "logo"
	RoleFace      Role = "face"
)

var roleOrder = map[Role]int{
	RoleProduct:   0,
	RoleReference: 1,
	RoleLogo:      2,
	RoleFace:      3,
}

func (r Role) String() string {
	return string(r)
}

type Image struct {
	Data     []byte
	MimeType string
	Role     Role
}

// Part is one element of the request sent to the model: inline data or text.
type Part struct {
	Data     []byte
	MimeType string
	Text     string
}

func (p Part) IsText() bool {
	return len(p.Data) == 0
}

// Payload is everything one dispatch sends. It is never modified once built;
// every attempt sends the same parts.
type Payload struct {
	Images []Image
	Prompt string
}

// NewPayload orders images product, reference, logo, face (keeping the
// relative order within a role) and fills missing media types by sniffing.
func NewPayload(prompt string, images ...Image) (Payload, error) {
	p := Payload{Prompt: strings.TrimSpace(prompt)}
	if p.Prompt == "" {
		return Payload{}, ErrEmptyPrompt
	}
	p.Images = make([]Image, 0, len(images))
	for _, img := range images {
		if len(img.Data) == 0 {
			return Payload{}, ErrEmptyImage
		}
		if img.Role == "" {
			img.Role = RoleProduct
		}
		img.MimeType = normalizeMimeType(img.MimeType, img.Data)
		p.Images = append(p.Images, img)
	}
	sort.SliceStable(p.Images, func(i, j int) bool {
		return rank(p.Images[i].Role) < rank(p.Images[j].Role)
	})
	return p, nil
}

func (p Payload) Validate() error {
	if strings.TrimSpace(p.Prompt) == "" {
		return ErrEmptyPrompt
	}
	for _, img := range p.Images {
		if len(img.Data) == 0 {
			return ErrEmptyImage
		}
	}
	return nil
}

// Parts returns the images followed by exactly one text part.
func (p Payload) Parts() []Part {
	parts := make([]Part, 0, len(p.Images)+1)
	for _, img := range p.Images {
		parts = append(parts, Part{Data: img.Data, MimeType: img.MimeType})
	}
	return append(parts, Part{Text: p.Prompt})
}

func rank(r Role) int {
	if v, ok := roleOrder[r]; ok {
		return v
	}
	return len(roleOrder)
}

func normalizeMimeType(mimeType string, data []byte) string {
	mimeType = strings.TrimSpace(mimeType)
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = strings.TrimSpace(mimeType[:i])
	}
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = http.DetectContentType(data)
		if i := strings.IndexByte(mimeType, ';'); i >= 0 {
			mimeType = strings.TrimSpace(mimeType[:i])
		}
	}
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = "image/jpeg"
	}
	return mimeType
}

// Reply is what a backend got back from one successful HTTP exchange.
type Reply struct {
	Images       []Part
	Text         string
	BlockReason  string
	FinishReason string
}

// Generator performs one remote call with one credential.
type Generator interface {
	Generate(ctx context.Context, token ai.Token, payload Payload) (*Reply, error)
}

type GeneratorFunc func(ctx context.Context, token ai.Token, payload Payload) (*Reply, error)

func (f GeneratorFunc) Generate(ctx context.Context, token ai.Token, payload Payload) (*Reply, error) {
	return f(ctx, token, payload)
}
