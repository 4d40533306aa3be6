package assets

import (
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// Mode is the channel layout a rescaled image is written in.
type Mode int

const (
	// ModeRGB drops any alpha channel; every pixel becomes opaque.
	ModeRGB Mode = iota
	// ModeRGBA keeps the alpha channel.
	ModeRGBA
)

func (m Mode) String() string {
	if m == ModeRGBA {
		return "RGBA"
	}
	return "RGB"
}

// ModeOf picks the output mode from a decoded colour model. It is the
// fallback for non-PNG sources; PNG files are judged by their header.
func ModeOf(m color.Model) Mode {
	switch m {
	case color.NRGBAModel, color.NRGBA64Model:
		return ModeRGBA
	}
	return ModeRGB
}

// ScaledHeight returns the height that keeps the w:h aspect ratio at the
// target width, truncated toward zero. A result of zero is an error.
func ScaledHeight(w, h, target int) (int, error) {
	if w <= 0 || h <= 0 {
		return 0, fmt.Errorf("invalid source size %dx%d", w, h)
	}
	if target <= 0 {
		return 0, fmt.Errorf("invalid target width %d", target)
	}
	nh := int(int64(target) * int64(h) / int64(w))
	if nh == 0 {
		return 0, fmt.Errorf("%dx%d scaled to width %d has zero height", w, h, target)
	}
	return nh, nil
}

// Rescale resizes img to the target width with Lanczos resampling, keeping
// the aspect ratio and converting to mode.
func Rescale(img image.Image, mode Mode, width int) (*image.NRGBA, error) {
	b := img.Bounds()
	height, err := ScaledHeight(b.Dx(), b.Dy(), width)
	if err != nil {
		return nil, err
	}

	src := imaging.Clone(img)
	if mode == ModeRGB {
		dropAlpha(src)
	}
	return imaging.Resize(src, width, height, imaging.Lanczos), nil
}

// dropAlpha makes every pixel opaque without compositing, keeping the stored
// colour values.
func dropAlpha(img *image.NRGBA) {
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 0xff
	}
}
