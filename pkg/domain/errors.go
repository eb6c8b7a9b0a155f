package domain

import (
	"errors"
	"fmt"
)

// ErrorKind はノード実行の失敗種別です。
type ErrorKind string

const (
	KindMissingCredential ErrorKind = "MISSING_CREDENTIAL"
	KindInvalidParameter  ErrorKind = "INVALID_PARAMETER"
	KindTransportTimeout  ErrorKind = "TRANSPORT_TIMEOUT"
	KindTransport         ErrorKind = "TRANSPORT"
	KindAPIHTTP           ErrorKind = "API_HTTP"
	KindMalformedResponse ErrorKind = "MALFORMED_RESPONSE"
	KindEmptyResult       ErrorKind = "EMPTY_RESULT"
	KindNoDecodableImages ErrorKind = "NO_DECODABLE_IMAGES"
	KindDimensionMismatch ErrorKind = "DIMENSION_MISMATCH"
)

// errors.Is で種別判定するための番兵です。
var (
	ErrMissingCredential = &Error{Kind: KindMissingCredential}
	ErrInvalidParameter  = &Error{Kind: KindInvalidParameter}
	ErrTransportTimeout  = &Error{Kind: KindTransportTimeout}
	ErrTransport         = &Error{Kind: KindTransport}
	ErrAPIHTTP           = &Error{Kind: KindAPIHTTP}
	ErrMalformedResponse = &Error{Kind: KindMalformedResponse}
	ErrEmptyResult       = &Error{Kind: KindEmptyResult}
	ErrNoDecodableImages = &Error{Kind: KindNoDecodableImages}
	ErrDimensionMismatch = &Error{Kind: KindDimensionMismatch}
)

// Error はノード実行を打ち切るエラーです。どの種別もリトライされません。
type Error struct {
	Kind       ErrorKind
	Message    string
	StatusCode int    // KindAPIHTTP のみ
	Body       string // API のエラーボディ、または診断用の生レスポンス
	Cause      error
}

// Error は [KIND] message: body: cause の形式で返します。
func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Body != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Body)
	}
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, msg, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, msg)
}

// Unwrap は原因のエラーを返します。
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is は種別が一致すれば true を返します。
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf はエラーチェーンから種別を取り出します。該当しなければ空文字です。
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
