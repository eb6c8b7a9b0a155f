package guidance

import _ "embed"

//go:embed guidance.md
var text string

// Text は Imagen 向けのプロンプト作成ガイドを返します。入力に関係なく常に同じ内容です。
func Text() string {
	return text
}
