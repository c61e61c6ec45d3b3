package renderer

import (
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/disintegration/imaging"
)

// Bitmap is a monochrome raster in the driver's input format: a row-major
// bit sequence, MSB-first, bit index y*Width+x, packed into
// ceil(Width*Height/8) bytes. Rows are not byte-aligned; the driver's
// chunker handles repacking to device rows.
type Bitmap struct {
	Width  int
	Height int
	Bits   []byte
}

// ToBitmap converts an image to a Bitmap, resizing to targetWidth dots
// first when targetWidth is non-zero. Pixels darker than 50% gray become
// set (burned) dots.
func ToBitmap(img image.Image, targetWidth int) *Bitmap {
	if targetWidth > 0 && img.Bounds().Dx() != targetWidth {
		img = imaging.Resize(img, targetWidth, 0, imaging.Lanczos)
	}
	gray := imaging.Grayscale(img)

	bounds := gray.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	bits := make([]byte, (w*h+7)/8)
	i := 0
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, _, _, _ := gray.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			if r < 0x8000 {
				bits[i/8] |= 1 << (7 - i%8)
			}
			i++
		}
	}

	return &Bitmap{Width: w, Height: h, Bits: bits}
}

// LoadImage reads and decodes an image file.
func LoadImage(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	return img, err
}
