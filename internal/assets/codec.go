// Package assets decodes, normalizes, resizes and stores character images.
package assets

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"io"

	"github.com/disintegration/imaging"

	// CDN renditions are sometimes served as WebP.
	_ "golang.org/x/image/webp"
)

// CodecError is returned when image bytes cannot be decoded or encoded.
type CodecError struct {
	Op  string // "decode" or "encode"
	Err error
}

func (e *CodecError) Error() string {
	return fmt.Sprintf("%s image: %v", e.Op, e.Err)
}

func (e *CodecError) Unwrap() error { return e.Err }

// Decoded is an image together with the colour model it was stored in.
type Decoded struct {
	Image      image.Image
	ColorModel color.Model
	// Mode is the channel layout of the stored file. For PNG it comes from
	// the IHDR colour type, since the decoded model cannot tell grey+alpha
	// from RGBA.
	Mode Mode
}

// PNG colour type 6 is truecolour with alpha.
const pngColorTypeRGBA = 6

var pngSignature = []byte("\x89PNG\r\n\x1a\n")

// PNGColorType returns the colour type byte from a PNG's IHDR chunk.
func PNGColorType(data []byte) (byte, bool) {
	// signature (8) + chunk length (4) + "IHDR" (4) + width, height (8) + bit depth (1)
	const offset = 25
	if len(data) <= offset || !bytes.HasPrefix(data, pngSignature) || string(data[12:16]) != "IHDR" {
		return 0, false
	}
	return data[offset], true
}

// storedMode reports the channel layout data was stored in. Only PNG
// truecolour+alpha keeps its alpha; grey+alpha and palette files do not.
func storedMode(data []byte, m color.Model) Mode {
	if ct, ok := PNGColorType(data); ok {
		if ct == pngColorTypeRGBA {
			return ModeRGBA
		}
		return ModeRGB
	}
	return ModeOf(m)
}

// Decode decodes PNG, JPEG, GIF, BMP, TIFF or WebP bytes.
func Decode(data []byte) (*Decoded, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, &CodecError{Op: "decode", Err: err}
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, &CodecError{Op: "decode", Err: fmt.Errorf("empty image %dx%d", b.Dx(), b.Dy())}
	}
	return &Decoded{
		Image:      img,
		ColorModel: img.ColorModel(),
		Mode:       storedMode(data, img.ColorModel()),
	}, nil
}

func asNRGBA(img image.Image) *image.NRGBA {
	if n, ok := img.(*image.NRGBA); ok {
		return n
	}
	return ToNRGBA(img)
}

// ToNRGBA promotes any image to a 4-channel, non-premultiplied buffer
// anchored at the origin. Palette, grey and RGB sources all end up here.
func ToNRGBA(img image.Image) *image.NRGBA {
	return imaging.Clone(img)
}

// rgbaImage reports itself as non-opaque so the PNG encoder always writes
// colour type 6, even when every pixel happens to be opaque.
type rgbaImage struct {
	*image.NRGBA
}

func (rgbaImage) Opaque() bool { return false }

// EncodePNG writes img as an 8-bit PNG in the given mode: ModeRGBA always
// produces a 4-channel file, ModeRGB a 3-channel one with alpha discarded.
func EncodePNG(w io.Writer, img image.Image, mode Mode) error {
	var out image.Image
	switch mode {
	case ModeRGBA:
		out = rgbaImage{asNRGBA(img)}
	default:
		rgb := ToNRGBA(img)
		dropAlpha(rgb)
		out = rgb
	}
	if err := imaging.Encode(w, out, imaging.PNG); err != nil {
		return &CodecError{Op: "encode", Err: err}
	}
	return nil
}
