package imgutil

import (
	"fmt"
	"image"
	"math"
	"strings"

	"github.com/comrender/ComfyUI-Imagen-Gemini/pkg/domain"
	"golang.org/x/image/draw"
)

// Channels は出力テンソルのチャンネル数 (RGB) です。
const Channels = 3

// Image は (H, W, 3) の float32 画素バッファです。値域は [0, 1] です。
type Image struct {
	Height int
	Width  int
	Pix    []float32 // 行優先 HWC
}

// NewImage はゼロ埋めされた Image を作ります。
func NewImage(height, width int) *Image {
	return &Image{
		Height: height,
		Width:  width,
		Pix:    make([]float32, height*width*Channels),
	}
}

// Shape は (H, W, 3) を返します。
func (im *Image) Shape() [3]int {
	return [3]int{im.Height, im.Width, Channels}
}

// At は (y, x) のチャンネル c の値を返します。
func (im *Image) At(y, x, c int) float32 {
	return im.Pix[(y*im.Width+x)*Channels+c]
}

// NRGBA は 8bit の不透明画像に戻します。PNG 書き出しやリサイズに使います。
func (im *Image) NRGBA() *image.NRGBA {
	dst := image.NewNRGBA(image.Rect(0, 0, im.Width, im.Height))
	for y := 0; y < im.Height; y++ {
		for x := 0; x < im.Width; x++ {
			src := (y*im.Width + x) * Channels
			off := dst.PixOffset(x, y)
			dst.Pix[off+0] = toByte(im.Pix[src+0])
			dst.Pix[off+1] = toByte(im.Pix[src+1])
			dst.Pix[off+2] = toByte(im.Pix[src+2])
			dst.Pix[off+3] = 0xff
		}
	}
	return dst
}

func toByte(v float32) uint8 {
	return uint8(math.Round(float64(min(max(v, 0), 1)) * 255))
}

// Batch は (N, H, W, 3) の画像スタックです。ホストの IMAGE 型にそのまま渡せる並びです。
type Batch struct {
	Count  int
	Height int
	Width  int
	Data   []float32
}

// Shape は (N, H, W, 3) を返します。
func (b *Batch) Shape() [4]int {
	return [4]int{b.Count, b.Height, b.Width, Channels}
}

// Len はバッチ内の画像枚数です。
func (b *Batch) Len() int {
	return b.Count
}

// At は n 枚目の画像の (y, x) のチャンネル c の値を返します。
func (b *Batch) At(n, y, x, c int) float32 {
	return b.Data[((n*b.Height+y)*b.Width+x)*Channels+c]
}

// Frame は n 枚目の画像を返します。Pix は Data と領域を共有します。
func (b *Batch) Frame(n int) *Image {
	size := b.Height * b.Width * Channels
	return &Image{
		Height: b.Height,
		Width:  b.Width,
		Pix:    b.Data[n*size : (n+1)*size : (n+1)*size],
	}
}

// SizePolicy は解像度の異なる画像をスタックするときの扱いです。
type SizePolicy int

const (
	// SizePolicyStrict は DimensionMismatch で失敗させます。
	SizePolicyStrict SizePolicy = iota
	// SizePolicyResize は先頭画像のサイズに揃えます。
	SizePolicyResize
)

// String は設定値として使う名前を返します。
func (p SizePolicy) String() string {
	if p == SizePolicyResize {
		return "resize"
	}
	return "strict"
}

// ParseSizePolicy は設定文字列を SizePolicy に変換します。
func ParseSizePolicy(s string) (SizePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "strict":
		return SizePolicyStrict, nil
	case "resize":
		return SizePolicyResize, nil
	}
	return SizePolicyStrict, fmt.Errorf("unknown size policy: %q", s)
}

// Stack は画像を先頭次元で連結します。順序は引数の順です。
func Stack(images []*Image, policy SizePolicy) (*Batch, error) {
	if len(images) == 0 {
		return nil, &domain.Error{Kind: domain.KindNoDecodableImages, Message: "no images to stack"}
	}

	first := images[0]
	size := first.Height * first.Width * Channels
	batch := &Batch{
		Count:  len(images),
		Height: first.Height,
		Width:  first.Width,
		Data:   make([]float32, 0, size*len(images)),
	}

	for i, im := range images {
		if im.Height != first.Height || im.Width != first.Width {
			if policy != SizePolicyResize {
				return nil, &domain.Error{
					Kind: domain.KindDimensionMismatch,
					Message: fmt.Sprintf("image %d has shape %v, expected %v as in image 0",
						i, im.Shape(), first.Shape()),
				}
			}
			im = Resize(im, first.Height, first.Width)
		}
		batch.Data = append(batch.Data, im.Pix...)
	}
	return batch, nil
}

// Resize は Catmull-Rom 補間で指定サイズに拡縮します。
func Resize(im *Image, height, width int) *Image {
	src := im.NRGBA()
	dst := image.NewNRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return FromImage(dst)
}
