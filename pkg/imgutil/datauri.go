package imgutil

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrNotDataURI は文字列が data URI 形式ではないことを示します。
var ErrNotDataURI = errors.New("not a data URI")

// IsDataURI は文字列が data URI かどうかを判定します。
func IsDataURI(s string) bool {
	return strings.HasPrefix(s, "data:")
}

// DecodeDataURI は base64 の data URI をバイト列と MIME タイプに分解します。
func DecodeDataURI(uri string) ([]byte, string, error) {
	if !IsDataURI(uri) {
		return nil, "", ErrNotDataURI
	}
	header, payload, ok := strings.Cut(strings.TrimPrefix(uri, "data:"), ",")
	if !ok {
		return nil, "", fmt.Errorf("data URI にデータ部がありません")
	}
	mimeType, _, _ := strings.Cut(header, ";")
	if !strings.HasSuffix(header, ";base64") {
		return nil, "", fmt.Errorf("base64 以外の data URI には対応していません: %s", header)
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", fmt.Errorf("data URI のデコードに失敗しました: %w", err)
	}
	return data, mimeType, nil
}

// EncodeDataURI はバイト列を base64 の data URI に変換します。
// mimeType が空の場合は内容から判定します。
func EncodeDataURI(data []byte, mimeType string) string {
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}
