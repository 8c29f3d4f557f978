package gan

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/mat"
)

// Sampler produces n generated samples, one per row.
type Sampler interface {
	Sample(n int) *mat.Dense
}

// ImagesCallback samples the generator at the end of every epoch and writes
// the results as PNG files under a run directory, so training progress can
// be eyeballed.
type ImagesCallback struct {
	Sampler   Sampler
	NumImages int
	Width     int
	Height    int
	RunDir    string

	// Pattern receives the epoch and the image index.
	Pattern string
}

// NewImagesCallback creates the callback and its run directory.
func NewImagesCallback(s Sampler, numImages, width, height int, runDir string) (*ImagesCallback, error) {
	if err := os.MkdirAll(runDir, 0o750); err != nil {
		return nil, fmt.Errorf("creating run directory: %w", err)
	}
	return &ImagesCallback{
		Sampler:   s,
		NumImages: numImages,
		Width:     width,
		Height:    height,
		RunDir:    runDir,
		Pattern:   "image-%03d-%02d.png",
	}, nil
}

// OnEpochEnd implements Callback.
func (c *ImagesCallback) OnEpochEnd(epoch int, _ map[string]float64) error {
	images := c.Sampler.Sample(c.NumImages)
	rows, cols := images.Dims()
	if cols != c.Width*c.Height {
		return fmt.Errorf("generator produces %d values per sample, expected %dx%d", cols, c.Width, c.Height)
	}

	for i := 0; i < rows; i++ {
		path := filepath.Join(c.RunDir, fmt.Sprintf(c.Pattern, epoch, i))
		if err := savePNG(path, images.RawRowView(i), c.Width, c.Height); err != nil {
			return err
		}
	}
	return nil
}

// savePNG renders one generated sample as an inverted grayscale image.
// Sample values are in [-1, 1] (tanh generator output); higher values render
// darker, matching the plots of the course material.
func savePNG(path string, pixels []float64, width, height int) error {
	img := image.NewGray(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			v := (pixels[y*width+x] + 1) / 2
			if v < 0 {
				v = 0
			} else if v > 1 {
				v = 1
			}
			img.Pix[y*img.Stride+x] = uint8(255 - v*255)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating image %s: %w", path, err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("encoding image %s: %w", path, err)
	}
	return nil
}
