package texture

import (
	"errors"
	"fmt"
	"image"
	"io"
	"math"

	"github.com/echoflaresat/tiff"
	"golang.org/x/exp/mmap"

	"github.com/echoflaresat/globeview/colors"
	"github.com/echoflaresat/globeview/geo"
	"github.com/echoflaresat/globeview/vectors"

	_ "image/jpeg" // register JPEG format with image.Decode
	_ "image/png"  // register PNG format with image.Decode
)

// Texture is an equirectangular RGB(A) map sampled by direction on a sphere
// or by UV.
type Texture struct {
	Width  int
	Height int
	img    image.Image
}

// Load decodes the image at path. TIFF is tried first, then the registered
// image codecs (JPEG, PNG).
func Load(path string) (Texture, error) {
	img, err := LoadImage(path)
	if err != nil {
		return Texture{}, err
	}
	return FromImage(img), nil
}

// FromImage wraps an already decoded image.
func FromImage(img image.Image) Texture {
	b := img.Bounds()
	return Texture{
		Width:  b.Dx(),
		Height: b.Dy(),
		img:    img,
	}
}

// Solid is a 1×1 texture of color c, used when an asset is missing.
func Solid(c colors.Color4) Texture {
	img := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	img.SetNRGBA(0, 0, c.ToNRGBA())
	return FromImage(img)
}

// LoadImage decodes an image file.
func LoadImage(path string) (image.Image, error) {
	r, err := mmap.Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	section := func() *io.SectionReader { return io.NewSectionReader(r, 0, int64(r.Len())) }

	img, tiffErr := tiff.Decode(section())
	if tiffErr == nil {
		return img, nil
	}

	// fallback to image codecs
	img, _, err = image.Decode(section())
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, errors.Join(err, tiffErr))
	}
	return img, nil
}

// Image returns the underlying image.
func (t Texture) Image() image.Image {
	return t.img
}

// Sample returns the texel under the direction P, using the same
// longitude/latitude convention as geo.Project. No interpolation.
func (t Texture) Sample(P vectors.Vec3) colors.Color4 {
	u, v := geo.UV(P)
	return t.SampleUV(u, v)
}

// SampleUV returns the texel at (u, v) in [0,1]², u wrapping around and v
// clamped.
func (t Texture) SampleUV(u, v float64) colors.Color4 {
	if t.img == nil || t.Width == 0 || t.Height == 0 {
		return colors.Black()
	}
	u -= math.Floor(u)
	x := int(u * float64(t.Width))
	y := int(v * float64(t.Height))

	if x < 0 {
		x = 0
	} else if x >= t.Width {
		x = t.Width - 1
	}
	if y < 0 {
		y = 0
	} else if y >= t.Height {
		y = t.Height - 1
	}

	origin := t.img.Bounds().Min
	return colors.FromStandardColor(t.img.At(origin.X+x, origin.Y+y))
}
