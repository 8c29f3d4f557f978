package traincfg

import (
	"compress/gzip"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// idxImagesMagic is the IDX header magic for unsigned-byte 3D tensors, the
// format of the MNIST-style image files the course trains on.
const idxImagesMagic = 0x00000803

// Dataset holds a loaded image set, one flattened image per row, pixels
// scaled to [-1, 1].
type Dataset struct {
	Images *mat.Dense
	Width  int
	Height int
}

// LoadIDXImages reads an IDX unsigned-byte image file, gzipped or not.
func LoadIDXImages(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening dataset %s: %w", path, err)
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("decompressing dataset %s: %w", path, err)
		}
		defer gz.Close()
		r = gz
	}

	var header [4]uint32
	if err := binary.Read(r, binary.BigEndian, &header); err != nil {
		return nil, fmt.Errorf("reading dataset header %s: %w", path, err)
	}
	if header[0] != idxImagesMagic {
		return nil, fmt.Errorf("dataset %s: bad magic 0x%08x, want 0x%08x", path, header[0], idxImagesMagic)
	}
	count := int(header[1])
	height := int(header[2])
	width := int(header[3])
	if count <= 0 || height <= 0 || width <= 0 {
		return nil, fmt.Errorf("dataset %s: implausible dimensions %dx%dx%d", path, count, height, width)
	}

	raw := make([]byte, count*height*width)
	if _, err := io.ReadFull(r, raw); err != nil {
		return nil, fmt.Errorf("reading dataset pixels %s: %w", path, err)
	}

	data := make([]float64, len(raw))
	for i, b := range raw {
		data[i] = float64(b)/127.5 - 1
	}
	return &Dataset{
		Images: mat.NewDense(count, height*width, data),
		Width:  width,
		Height: height,
	}, nil
}
