package imaging

import (
	"bytes"
	"image"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/nfnt/resize"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"

	apperrors "go-hallnav/internal/errors"
	"go-hallnav/pkg/models"
)

// DefaultInputSize is the square resolution the hall classifier was trained on
const DefaultInputSize = 224

// Preprocessor turns uploaded bytes into classifier input
type Preprocessor interface {
	// DecodeConfig reads only the header to learn the dimensions and format
	DecodeConfig(data []byte) (image.Config, string, error)

	// Decode parses the full image
	Decode(data []byte) (image.Image, string, error)

	// Preprocess forces RGB, resizes to InputSize x InputSize and scales to [0,1]
	Preprocess(img image.Image) models.ImageTensor

	// PreprocessBytes decodes and preprocesses in one step
	PreprocessBytes(data []byte) (models.ImageTensor, error)

	InputSize() int
}

type preprocessor struct {
	size uint
}

// NewPreprocessor creates a preprocessor for the given square input size
func NewPreprocessor(inputSize int) Preprocessor {
	if inputSize <= 0 {
		inputSize = DefaultInputSize
	}
	return &preprocessor{size: uint(inputSize)}
}

func (p *preprocessor) InputSize() int {
	return int(p.size)
}

func (p *preprocessor) DecodeConfig(data []byte) (image.Config, string, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return image.Config{}, "", apperrors.NewValidationError(apperrors.KindDecodeError,
			"Invalid or corrupted image file", err)
	}
	return cfg, format, nil
}

func (p *preprocessor) Decode(data []byte) (image.Image, string, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", apperrors.NewValidationError(apperrors.KindDecodeError,
			"Invalid or corrupted image file", err)
	}
	return img, format, nil
}

func (p *preprocessor) Preprocess(img image.Image) models.ImageTensor {
	// Aspect ratio is intentionally not preserved
	resized := toNRGBA(resize.Resize(p.size, p.size, toNRGBA(img), resize.Bilinear))

	size := int(p.size)
	plane := size * size
	data := make([]float32, 3*plane)

	for y := 0; y < size; y++ {
		row := resized.Pix[y*resized.Stride:]
		for x := 0; x < size; x++ {
			px := row[x*4 : x*4+4]
			i := y*size + x
			data[i] = float32(px[0]) / 255.0
			data[plane+i] = float32(px[1]) / 255.0
			data[2*plane+i] = float32(px[2]) / 255.0
		}
	}

	return models.ImageTensor{Size: size, Data: data}
}

func (p *preprocessor) PreprocessBytes(data []byte) (models.ImageTensor, error) {
	img, _, err := p.Decode(data)
	if err != nil {
		return models.ImageTensor{}, err
	}
	return p.Preprocess(img), nil
}

// toNRGBA returns img as a zero-origin *image.NRGBA, dropping nothing but the
// premultiplication. Alpha is ignored by Preprocess, which matches an RGB convert.
func toNRGBA(img image.Image) *image.NRGBA {
	if n, ok := img.(*image.NRGBA); ok && n.Rect.Min == (image.Point{}) {
		return n
	}
	bounds := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(dst, dst.Bounds(), img, bounds.Min, draw.Src)
	return dst
}
