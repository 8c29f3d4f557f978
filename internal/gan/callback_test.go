package gan

import (
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// fixedSampler returns the same samples every time.
type fixedSampler struct {
	samples *mat.Dense
}

func (s fixedSampler) Sample(int) *mat.Dense { return s.samples }

func TestImagesCallback(t *testing.T) {
	t.Parallel()

	const width, height = 2, 2
	samples := mat.NewDense(2, width*height, []float64{
		-1, -1, 1, 1,
		0, 0, 0, 0,
	})

	runDir := filepath.Join(t.TempDir(), "run", "images")
	cb, err := NewImagesCallback(fixedSampler{samples}, 2, width, height, runDir)
	require.NoError(t, err)

	require.NoError(t, cb.OnEpochEnd(4, nil))

	first := filepath.Join(runDir, "image-004-00.png")
	f, err := os.Open(first)
	require.NoError(t, err)
	defer f.Close()

	img, err := png.Decode(f)
	require.NoError(t, err)
	require.Equal(t, width, img.Bounds().Dx())
	require.Equal(t, height, img.Bounds().Dy())

	// -1 renders white, +1 renders black (inverted grayscale).
	r, _, _, _ := img.At(0, 0).RGBA()
	require.Equal(t, uint32(0xffff), r)
	r, _, _, _ = img.At(0, 1).RGBA()
	require.Equal(t, uint32(0), r)

	require.FileExists(t, filepath.Join(runDir, "image-004-01.png"))
}

func TestImagesCallbackShapeMismatch(t *testing.T) {
	t.Parallel()

	samples := mat.NewDense(1, 3, []float64{0, 0, 0})
	cb, err := NewImagesCallback(fixedSampler{samples}, 1, 2, 2, t.TempDir())
	require.NoError(t, err)

	err = cb.OnEpochEnd(0, nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "expected 2x2")
}
