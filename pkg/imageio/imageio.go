// Package imageio converts rendered buffers to 8-bit images and reads and
// writes them in the supported file formats.
package imageio

import (
	"image"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/lmittmann/ppm"
	"github.com/pkg/errors"
	"github.com/xfmoulet/qoi"

	"github.com/df07/go-bvh-tracer/pkg/core"
	"github.com/df07/go-bvh-tracer/pkg/renderer"
)

// Extensions lists the file extensions Save and Load accept
var Extensions = []string{".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tif", ".tiff", ".ppm", ".qoi"}

// ToByte maps a channel value to 8 bits. Values are clamped to [0, 1] and
// then truncated, so only exactly 1.0 maps to 255.
func ToByte(c float64) uint8 {
	if c != c || c <= 0 { // NaN counts as black
		return 0
	}
	if c >= 1 {
		return 255
	}
	return uint8(c * 255)
}

// ToImage converts a rendered buffer to an opaque 8-bit image. A gamma other
// than 1 is applied to the clamped channels before quantizing.
func ToImage(src *renderer.Image, gamma float64) *image.NRGBA {
	dst := image.NewNRGBA(image.Rect(0, 0, src.Width, src.Height))
	for y := 0; y < src.Height; y++ {
		for x := 0; x < src.Width; x++ {
			c := src.At(x, y).Clamp(0, 1)
			if gamma > 0 && gamma != 1 {
				c = c.GammaCorrect(gamma)
			}
			dst.SetNRGBA(x, y, color.NRGBA{R: ToByte(c.X), G: ToByte(c.Y), B: ToByte(c.Z), A: 255})
		}
	}
	return dst
}

// FromImage converts a decoded image back to a linear [0, 1] buffer
func FromImage(img image.Image) *renderer.Image {
	bounds := img.Bounds()
	dst := renderer.NewImage(bounds.Dx(), bounds.Dy())
	for y := 0; y < dst.Height; y++ {
		for x := 0; x < dst.Width; x++ {
			r, g, b, _ := img.At(x+bounds.Min.X, y+bounds.Min.Y).RGBA()
			// RGBA returns 16-bit channels
			dst.Set(x, y, core.NewVec3(float64(r)/65535, float64(g)/65535, float64(b)/65535))
		}
	}
	return dst
}

// Supported reports whether path has an extension Save can write
func Supported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, known := range Extensions {
		if ext == known {
			return true
		}
	}
	return false
}

// Save writes img to path, choosing the encoder from the file extension.
// Missing parent directories are created.
func Save(path string, img image.Image) error {
	if !Supported(path) {
		return errors.Errorf("unsupported image format %q (want one of %v)", filepath.Ext(path), Extensions)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "creating output directory")
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".ppm":
		return writeWith(path, img, ppm.Encode)
	case ".qoi":
		return writeWith(path, img, qoi.Encode)
	default:
		return errors.Wrapf(imaging.Save(img, path), "saving %s", path)
	}
}

func writeWith(path string, img image.Image, encode func(io.Writer, image.Image) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "creating %s", path)
	}
	defer func() {
		if closeErr := f.Close(); err == nil && closeErr != nil {
			err = errors.Wrapf(closeErr, "closing %s", path)
		}
	}()
	return errors.Wrapf(encode(f, img), "encoding %s", path)
}

// Load reads an image file in any format Save can write
func Load(path string) (image.Image, error) {
	var decode func(io.Reader) (image.Image, error)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ppm":
		decode = ppm.Decode
	case ".qoi":
		decode = qoi.Decode
	default:
		img, err := imaging.Open(path)
		return img, errors.Wrapf(err, "opening %s", path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", path)
	}
	defer f.Close()

	img, err := decode(f)
	return img, errors.Wrapf(err, "decoding %s", path)
}
