// Package imageio implements the alternate "load initial height from a
// source image" recipe (spec.md 4.K scenario 6): green channel encodes
// land elevation, blue channel encodes ocean depth, following
// load_height.rs's load_from_img channel mapping.
package imageio

import (
	"context"
	"image"
	_ "image/png"
	"os"

	"github.com/pedrogalvao/worldgen/config"
	"github.com/pedrogalvao/worldgen/grid"
	"github.com/pedrogalvao/worldgen/shape"
	"github.com/pedrogalvao/worldgen/world"
)

// LoadFromImage decodes the PNG at path into a height PartialMap bound to
// a Flat shape sized to the image's pixel dimensions: a pixel with
// green > blue is land, scaled to maxHeight by its green channel; any
// other pixel is ocean, scaled to minHeight by 255-blue (load_from_img's
// exact per-pixel rule).
func LoadFromImage(path string, minHeight, maxHeight int32) (*grid.PartialMap[int32], shape.Shape, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, &config.ResourceError{Op: "open source image", Err: err}
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, nil, &config.ResourceError{Op: "decode source image", Err: err}
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	sh := shape.New(shape.KindFlat, width, height)
	h := grid.New[int32](sh)

	for y := 0; y < height; y++ {
		row := h.Row(y)
		for x := 0; x < width; x++ {
			_, g, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			green, blue := int32(g>>8), int32(b>>8)
			if green > blue {
				row[x] = maxHeight * green / 254
			} else {
				row[x] = minHeight * (255 - blue) / 255
			}
		}
	}
	return h, sh, nil
}

// LoadHeight builds the world.Stage a RecipeFromImage run starts with:
// it ignores whatever World it's given (there is no prior stage to chain
// from) and returns a fresh World whose Height/Shape come from the
// source image, matching load_height.rs's LoadHeight step.
func LoadHeight(path string, months int) world.Stage {
	return world.StageFunc("load_height", func(_ context.Context, _ *world.World) (*world.World, error) {
		h, sh, err := LoadFromImage(path, -5000, 6400)
		if err != nil {
			return nil, err
		}
		out := world.New(sh, months)
		out.Height = h
		return out, nil
	})
}
