package utils

import "strings"

// FirstNonBlank は前後の空白を除いた最初の空でない値を返します。
// すべて空白の場合は空文字を返します。
func FirstNonBlank(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
