package assets

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solidRGBA(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func pngBytes(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// greyAlphaPNG hand-assembles an 8-bit grey+alpha (colour type 4) PNG, which
// image/png cannot produce.
func greyAlphaPNG(t *testing.T, w, h int, grey, alpha uint8) []byte {
	t.Helper()

	var raw bytes.Buffer
	for y := 0; y < h; y++ {
		raw.WriteByte(0) // filter: none
		for x := 0; x < w; x++ {
			raw.Write([]byte{grey, alpha})
		}
	}
	var idat bytes.Buffer
	zw := zlib.NewWriter(&idat)
	_, err := zw.Write(raw.Bytes())
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:4], uint32(w))
	binary.BigEndian.PutUint32(ihdr[4:8], uint32(h))
	ihdr[8] = 8 // bit depth
	ihdr[9] = 4 // grey + alpha

	var out bytes.Buffer
	out.Write(pngSignature)
	for _, c := range []struct {
		typ  string
		data []byte
	}{{"IHDR", ihdr}, {"IDAT", idat.Bytes()}, {"IEND", nil}} {
		var length [4]byte
		binary.BigEndian.PutUint32(length[:], uint32(len(c.data)))
		out.Write(length[:])
		body := append([]byte(c.typ), c.data...)
		out.Write(body)
		var sum [4]byte
		binary.BigEndian.PutUint32(sum[:], crc32.ChecksumIEEE(body))
		out.Write(sum[:])
	}
	return out.Bytes()
}

func colorType(t *testing.T, data []byte) byte {
	t.Helper()
	ct, ok := PNGColorType(data)
	require.True(t, ok, "not a PNG")
	return ct
}

func decodeFile(t *testing.T, path string) image.Image {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	return img
}

func TestDecodeInvalid(t *testing.T) {
	_, err := Decode([]byte("not an image"))
	require.Error(t, err)

	var ce *CodecError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "decode", ce.Op)
}

func TestToNRGBA(t *testing.T) {
	gray := image.NewGray(image.Rect(0, 0, 3, 2))
	gray.SetGray(1, 1, color.Gray{Y: 200})

	pal := image.NewPaletted(image.Rect(0, 0, 3, 2), color.Palette{
		color.NRGBA{R: 255, A: 255},
		color.NRGBA{G: 255, A: 0},
	})
	pal.SetColorIndex(0, 0, 1)

	rgb := solidRGBA(3, 2, color.RGBA{R: 10, G: 20, B: 30, A: 255})

	for name, src := range map[string]image.Image{"gray": gray, "paletted": pal, "rgb": rgb} {
		t.Run(name, func(t *testing.T) {
			out := ToNRGBA(src)
			assert.Equal(t, image.Rect(0, 0, 3, 2), out.Bounds())
			assert.Len(t, out.Pix, 3*2*4)
		})
	}

	out := ToNRGBA(pal)
	assert.Equal(t, uint8(0), out.NRGBAAt(0, 0).A, "transparency survives promotion")
	assert.Equal(t, uint8(255), out.NRGBAAt(1, 0).A)
	assert.Equal(t, uint8(200), ToNRGBA(gray).NRGBAAt(1, 1).R)
}

func TestEncodePNGColourType(t *testing.T) {
	opaque := ToNRGBA(solidRGBA(3, 3, color.RGBA{R: 10, G: 20, B: 30, A: 255}))

	var rgba bytes.Buffer
	require.NoError(t, EncodePNG(&rgba, opaque, ModeRGBA))
	assert.Equal(t, byte(6), colorType(t, rgba.Bytes()), "opaque RGBA stays 4-channel")

	decoded, err := Decode(rgba.Bytes())
	require.NoError(t, err)
	assert.Equal(t, ModeRGBA, decoded.Mode)
	assert.Equal(t, color.NRGBA{R: 10, G: 20, B: 30, A: 255}, ToNRGBA(decoded.Image).NRGBAAt(2, 2))

	translucent := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	translucent.SetNRGBA(0, 0, color.NRGBA{R: 50, A: 10})

	var rgb bytes.Buffer
	require.NoError(t, EncodePNG(&rgb, translucent, ModeRGB))
	assert.Equal(t, byte(2), colorType(t, rgb.Bytes()))

	decoded, err = Decode(rgb.Bytes())
	require.NoError(t, err)
	assert.Equal(t, ModeRGB, decoded.Mode)
	assert.Equal(t, color.NRGBA{R: 50, A: 255}, ToNRGBA(decoded.Image).NRGBAAt(0, 0),
		"alpha is dropped, not composited")
	assert.Equal(t, uint8(10), translucent.NRGBAAt(0, 0).A, "source is not modified")
}

func TestPNGColorType(t *testing.T) {
	_, ok := PNGColorType([]byte("GIF89a"))
	assert.False(t, ok)
	_, ok = PNGColorType(pngSignature)
	assert.False(t, ok, "truncated header")

	assert.Equal(t, byte(4), colorType(t, greyAlphaPNG(t, 2, 2, 0, 0)))
	assert.Equal(t, byte(3), colorType(t, pngBytes(t, image.NewPaletted(image.Rect(0, 0, 1, 1), color.Palette{color.Black}))))
}

func TestEncodePNGInvalid(t *testing.T) {
	err := EncodePNG(&bytes.Buffer{}, image.NewNRGBA(image.Rect(0, 0, 0, 0)), ModeRGBA)
	var ce *CodecError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "encode", ce.Op)
}

func TestStorePutBackup(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(filepath.Join(dir, "characters"))
	require.NoError(t, err)

	old := pngBytes(t, solidRGBA(4, 4, color.RGBA{B: 255, A: 255}))
	require.NoError(t, os.WriteFile(s.Path("shelly.png"), old, 0o644))

	res, err := s.Put("shelly.png", ToNRGBA(solidRGBA(10, 20, color.RGBA{R: 255, A: 255})), true)
	require.NoError(t, err)
	assert.Equal(t, s.Path("shelly.png"), res.Path)
	assert.Equal(t, s.Path("shelly.png.bak"), res.BackupPath)

	bak, err := os.ReadFile(res.BackupPath)
	require.NoError(t, err)
	assert.Equal(t, old, bak, "backup is byte-identical to the previous file")

	img := decodeFile(t, res.Path)
	assert.Equal(t, image.Rect(0, 0, 10, 20), img.Bounds())
	assert.Equal(t, byte(6), colorType(t, mustRead(t, res.Path)), "stored as RGBA even when opaque")
}

func TestStoreReplaceKeepsMode(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	img := ToNRGBA(solidRGBA(4, 4, color.RGBA{G: 255, A: 255}))

	require.NoError(t, s.Replace("rgba.png", img, ModeRGBA))
	assert.Equal(t, byte(6), colorType(t, mustRead(t, s.Path("rgba.png"))))

	require.NoError(t, s.Replace("rgb.png", img, ModeRGB))
	assert.Equal(t, byte(2), colorType(t, mustRead(t, s.Path("rgb.png"))))
	assert.NoFileExists(t, s.Path("rgb.png.bak"))
}

func TestStorePutBackupNotCumulative(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)

	_, err = s.Put("colt.png", ToNRGBA(solidRGBA(1, 1, color.RGBA{A: 255})), true)
	require.NoError(t, err)
	first, err := s.Read("colt.png")
	require.NoError(t, err)

	_, err = s.Put("colt.png", ToNRGBA(solidRGBA(2, 2, color.RGBA{A: 255})), true)
	require.NoError(t, err)
	_, err = s.Put("colt.png", ToNRGBA(solidRGBA(3, 3, color.RGBA{A: 255})), true)
	require.NoError(t, err)

	bak := decodeFile(t, s.Path("colt.png.bak"))
	assert.Equal(t, image.Rect(0, 0, 2, 2), bak.Bounds(), "only the latest previous version is kept")
	assert.NotEqual(t, first, mustRead(t, s.Path("colt.png.bak")))

	entries, err := os.ReadDir(s.Dir())
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestStorePutNoBackup(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(s.Path("pam.png"), []byte("old"), 0o644))

	res, err := s.Put("pam.png", ToNRGBA(solidRGBA(2, 2, color.RGBA{A: 255})), false)
	require.NoError(t, err)
	assert.Empty(t, res.BackupPath)
	assert.NoFileExists(t, s.Path("pam.png.bak"))
	assert.Equal(t, image.Rect(0, 0, 2, 2), decodeFile(t, res.Path).Bounds())
}

func TestStorePutEncodeFailureKeepsExisting(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	old := pngBytes(t, solidRGBA(4, 4, color.RGBA{A: 255}))
	require.NoError(t, os.WriteFile(s.Path("bea.png"), old, 0o644))

	_, err = s.Put("bea.png", image.NewNRGBA(image.Rect(0, 0, 0, 0)), true)
	var ce *CodecError
	require.ErrorAs(t, err, &ce)

	assert.Equal(t, old, mustRead(t, s.Path("bea.png")))
	assert.NoFileExists(t, s.Path("bea.png.bak"))

	entries, err := os.ReadDir(s.Dir())
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no staged temp file is left behind")
}

func TestStoreListPNG(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"nita.png", "Brock.PNG", "amber.png", "shelly.png.bak", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "dir.png"), 0o755))

	s, err := OpenExisting(dir)
	require.NoError(t, err)

	names, err := s.ListPNG()
	require.NoError(t, err)
	assert.Equal(t, []string{"Brock.PNG", "amber.png", "nita.png"}, names)
}

func TestOpenExistingMissing(t *testing.T) {
	_, err := OpenExisting(filepath.Join(t.TempDir(), "nope"))
	assert.ErrorIs(t, err, ErrNoDirectory)

	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, nil, 0o644))
	_, err = OpenExisting(file)
	assert.ErrorIs(t, err, ErrNoDirectory)
}

func TestScaledHeight(t *testing.T) {
	tests := []struct {
		w, h, target, want int
	}{
		{10, 20, 5, 10},
		{376, 400, 376, 400},
		{500, 333, 376, 250}, // 250.4 truncated
		{3, 2, 2, 1},         // 1.33 truncated
		{100, 199, 50, 99},   // 99.5 truncated, not rounded
		{1, 1, 376, 376},
	}
	for _, tt := range tests {
		got, err := ScaledHeight(tt.w, tt.h, tt.target)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "%dx%d -> %d", tt.w, tt.h, tt.target)
	}

	_, err := ScaledHeight(1000, 1, 10)
	assert.Error(t, err, "zero height is rejected")
	_, err = ScaledHeight(0, 10, 10)
	assert.Error(t, err)
	_, err = ScaledHeight(10, 10, 0)
	assert.Error(t, err)
}

func TestScaledHeightProperties(t *testing.T) {
	for w := 1; w <= 40; w++ {
		for h := 1; h <= 40; h++ {
			// Idempotent at the source width.
			got, err := ScaledHeight(w, h, w)
			require.NoError(t, err)
			assert.Equal(t, h, got)

			for target := 1; target <= 40; target++ {
				want := target * h / w
				got, err := ScaledHeight(w, h, target)
				if want == 0 {
					assert.Error(t, err)
					continue
				}
				require.NoError(t, err)
				assert.Equal(t, want, got)
			}
		}
	}
}

func TestRescaleDimensions(t *testing.T) {
	src := solidRGBA(10, 20, color.RGBA{R: 100, G: 150, B: 200, A: 255})

	out, err := Rescale(src, ModeRGB, 5)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 5, 10), out.Bounds())

	same, err := Rescale(src, ModeRGB, 10)
	require.NoError(t, err)
	assert.Equal(t, src.Bounds(), same.Bounds(), "rescaling to the current width keeps dimensions")
}

func TestRescaleKeepsAlphaForRGBA(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	for i := range src.Pix {
		src.Pix[i] = 0
	}

	decoded, err := Decode(pngBytes(t, src))
	require.NoError(t, err)
	mode := decoded.Mode
	assert.Equal(t, ModeRGBA, mode)

	out, err := Rescale(decoded.Image, mode, 4)
	require.NoError(t, err)
	assert.Equal(t, uint8(0), out.NRGBAAt(1, 1).A)
}

func TestRescaleCoercesPaletteToRGB(t *testing.T) {
	pal := image.NewPaletted(image.Rect(0, 0, 8, 8), color.Palette{
		color.NRGBA{R: 255, A: 255},
		color.NRGBA{G: 255, A: 0},
	})
	for i := range pal.Pix {
		pal.Pix[i] = 1
	}

	decoded, err := Decode(pngBytes(t, pal))
	require.NoError(t, err)
	mode := decoded.Mode
	assert.Equal(t, ModeRGB, mode)

	out, err := Rescale(decoded.Image, mode, 4)
	require.NoError(t, err)
	for i := 3; i < len(out.Pix); i += 4 {
		require.Equal(t, uint8(0xff), out.Pix[i], "every pixel is opaque")
	}
}

func TestRescaleCoercesGreyAlphaToRGB(t *testing.T) {
	decoded, err := Decode(greyAlphaPNG(t, 4, 2, 120, 0))
	require.NoError(t, err)
	assert.Equal(t, color.NRGBAModel, decoded.ColorModel, "decoded model alone looks like RGBA")
	assert.Equal(t, ModeRGB, decoded.Mode)

	out, err := Rescale(decoded.Image, decoded.Mode, 2)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 2, 1), out.Bounds())
	for i := 3; i < len(out.Pix); i += 4 {
		require.Equal(t, uint8(0xff), out.Pix[i], "alpha is dropped")
	}

	var buf bytes.Buffer
	require.NoError(t, EncodePNG(&buf, out, decoded.Mode))
	assert.Equal(t, byte(2), colorType(t, buf.Bytes()))
}

func TestModeOf(t *testing.T) {
	assert.Equal(t, ModeRGBA, ModeOf(color.NRGBAModel))
	assert.Equal(t, ModeRGBA, ModeOf(color.NRGBA64Model))
	assert.Equal(t, ModeRGB, ModeOf(color.RGBAModel))
	assert.Equal(t, ModeRGB, ModeOf(color.GrayModel))
	assert.Equal(t, ModeRGB, ModeOf(color.YCbCrModel))
	assert.Equal(t, "RGBA", ModeRGBA.String())
	assert.Equal(t, "RGB", ModeRGB.String())
}

func mustRead(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return data
}
