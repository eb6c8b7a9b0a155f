package imgutil

import (
	"bytes"
	"fmt"
	"image/jpeg"
	"image/png"
	"strings"
)

// Encode は Image を指定フォーマット (png, jpeg) のバイト列に書き出します。
// quality は jpeg のときだけ使います。
func Encode(im *Image, format string, quality int) ([]byte, error) {
	buf := new(bytes.Buffer)
	switch strings.ToLower(format) {
	case "png":
		if err := png.Encode(buf, im.NRGBA()); err != nil {
			return nil, err
		}
	case "jpg", "jpeg":
		if err := jpeg.Encode(buf, im.NRGBA(), &jpeg.Options{Quality: quality}); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
	return buf.Bytes(), nil
}
