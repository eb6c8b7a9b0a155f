package imgutil

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// DecodeBase64 は base64 文字列を画像としてデコードします。
// 空白などアルファベット外の文字は読み飛ばします。
func DecodeBase64(b64 string) (*Image, error) {
	data, err := base64.StdEncoding.DecodeString(stripNonAlphabet(b64))
	if err != nil {
		return nil, fmt.Errorf("base64 decode: %w", err)
	}
	return Decode(data)
}

func stripNonAlphabet(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case 'A' <= r && r <= 'Z', 'a' <= r && r <= 'z', '0' <= r && r <= '9', r == '+', r == '/', r == '=':
			return r
		}
		return -1
	}, s)
}

// Decode は画像バイト列 (PNG, JPEG, GIF, WebP, BMP, TIFF) を RGB の Image に変換します。
func Decode(data []byte) (*Image, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("image decode: %w", err)
	}
	b := img.Bounds()
	if b.Empty() {
		return nil, fmt.Errorf("image decode: empty %s image", format)
	}
	return FromImage(img), nil
}

// FromImage は任意のカラーモデルの画像を RGB に正規化して取り込みます。
// アルファは合成せずに捨てます。
func FromImage(img image.Image) *Image {
	src := toNRGBA(img)
	b := src.Bounds()
	out := NewImage(b.Dy(), b.Dx())

	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		off := src.PixOffset(b.Min.X, y)
		for x := 0; x < b.Dx(); x++ {
			p := src.Pix[off+x*4 : off+x*4+3 : off+x*4+3]
			out.Pix[i+0] = float32(p[0]) / 255
			out.Pix[i+1] = float32(p[1]) / 255
			out.Pix[i+2] = float32(p[2]) / 255
			i += Channels
		}
	}
	return out
}

func toNRGBA(img image.Image) *image.NRGBA {
	if n, ok := img.(*image.NRGBA); ok {
		return n
	}
	b := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}
