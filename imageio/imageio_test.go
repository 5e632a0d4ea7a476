package imageio

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestPNG(t *testing.T, pixels [][]color.RGBA) string {
	t.Helper()
	height := len(pixels)
	width := len(pixels[0])
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y, row := range pixels {
		for x, c := range row {
			img.Set(x, y, c)
		}
	}
	path := filepath.Join(t.TempDir(), "height.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
	return path
}

func TestLoadFromImageMapsLandAndOcean(t *testing.T) {
	path := writeTestPNG(t, [][]color.RGBA{
		{{R: 0, G: 254, B: 0, A: 255}, {R: 0, G: 0, B: 255, A: 255}},
		{{R: 0, G: 127, B: 0, A: 255}, {R: 0, G: 0, B: 128, A: 255}},
	})

	h, sh, err := LoadFromImage(path, -5000, 6400)
	require.NoError(t, err)
	assert.Equal(t, 2, sh.Circumference())
	assert.Equal(t, 2, sh.Height())

	assert.Equal(t, int32(6400), h.At(0, 0))
	assert.Equal(t, int32(0), h.At(0, 1))
	assert.InDelta(t, 3200, h.At(1, 0), 60)
	assert.Less(t, h.At(1, 1), int32(0))
}

func TestLoadFromImageRejectsMissingFile(t *testing.T) {
	_, _, err := LoadFromImage(filepath.Join(t.TempDir(), "missing.png"), -5000, 6400)
	assert.Error(t, err)
}

func TestLoadHeightStageIgnoresInputWorld(t *testing.T) {
	path := writeTestPNG(t, [][]color.RGBA{
		{{R: 0, G: 254, B: 0, A: 255}},
	})
	stage := LoadHeight(path, 12)
	assert.Equal(t, "load_height", stage.Name())

	out, err := stage.Apply(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, out.Shape.Circumference())
	assert.Equal(t, int32(6400), out.Height.At(0, 0))
}
