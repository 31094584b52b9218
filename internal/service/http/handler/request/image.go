package request

import (
	"fmt"
	"io"
	"mime/multipart"
	"strings"

	"github.com/reusedev/draw-studio/internal/modules/ai/image"
	"github.com/reusedev/draw-studio/tools"
)

// Generate is the multipart form of a single generation.
type Generate struct {
	Prompt     string                  `form:"prompt"`
	Product   []*multipart.FileHeader `form:"product"` // at least one
	Reference *multipart.FileHeader   `form:"reference"`
	Logo      *multipart.FileHeader   `form:"logo"`
	Face      *multipart.FileHeader   `form:"face"`
}

func (g *Generate) Valid() error {
	if strings.TrimSpace(g.Prompt) == "" {
		return fmt.Errorf("prompt is required")
	}
	return g.validImages()
}

func (g *Generate) validImages() error {
	if len(g.Product) == 0 {
		return fmt.Errorf("at least one product image is required")
	}
	return nil
}

// Images reads every uploaded image, each at most limit bytes.
func (g *Generate) Images(limit int64) ([]image.Image, error) {
	ret := make([]image.Image, 0, len(g.Product)+3)
	for _, fh := range g.Product {
		img, err := readFile(fh, image.RoleProduct, limit)
		if err != nil {
			return nil, err
		}
		ret = append(ret, img)
	}
	optional := []struct {
		fh   *multipart.FileHeader
		role image.Role
	}{
		{g.Reference, image.RoleReference},
		{g.Logo, image.RoleLogo},
		{g.Face, image.RoleFace},
	}
	for _, o := range optional {
		if o.fh == nil {
			continue
		}
		img, err := readFile(o.fh, o.role, limit)
		if err != nil {
			return nil, err
		}
		ret = append(ret, img)
	}
	return ret, nil
}

func readFile(fh *multipart.FileHeader, role image.Role, limit int64) (image.Image, error) {
	if fh.Size > limit {
		return image.Image{}, fmt.Errorf("%s: %s larger than %d bytes", role, fh.Filename, limit)
	}
	f, err := fh.Open()
	if err != nil {
		return image.Image{}, err
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, limit))
	if err != nil {
		return image.Image{}, err
	}
	if tools.DetectImageType(data) == tools.ImageTypeUnknown {
		return image.Image{}, fmt.Errorf("%s: %s is not a png, jpeg, webp or gif image", role, fh.Filename)
	}
	return image.Image{Data: data, MimeType: fh.Header.Get("Content-Type"), Role: role}, nil
}

type GetImage struct {
	Task      string  `form:"task"`
	Slot      int     `form:"slot"`
	Thumbnail bool    `form:"thumbnail"`
	Ratio     float64 `form:"ratio"`  // thumbnail scale, default 0.25
	Format    string  `form:"format"` // "" keeps the original, jpeg re-encodes
}

const (
	FormatJPEG   = "jpeg"
	DefaultRatio = 0.25
)

func (g *GetImage) CacheKey() string {
	return fmt.Sprintf("image_get_%s_%d_%v_%g_%s", g.Task, g.Slot, g.Thumbnail, g.Ratio, g.Format)
}

func (g *GetImage) Valid() error {
	if g.Task == "" {
		return fmt.Errorf("task is required")
	}
	if g.Slot < 0 {
		return fmt.Errorf("invalid slot: %d, must not be negative", g.Slot)
	}
	if g.Format != "" && g.Format != FormatJPEG {
		return fmt.Errorf("invalid format: %s, must be '%s'", g.Format, FormatJPEG)
	}
	if g.Ratio < 0 || g.Ratio > 1 {
		return fmt.Errorf("invalid ratio: %g, must be within (0, 1]", g.Ratio)
	}
	if g.Ratio != 0 && !g.Thumbnail {
		return fmt.Errorf("ratio is only valid with thumbnail")
	}
	return nil
}

func (g *GetImage) FullWithDefault() {
	if g.Thumbnail && g.Ratio == 0 {
		g.Ratio = DefaultRatio
	}
}
