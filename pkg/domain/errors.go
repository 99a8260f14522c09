package domain

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/shouni/go-http-kit/pkg/httpkit"
)

// ErrEmptyResponse は上流のモデルが空の応答を返したことを示します。
var ErrEmptyResponse = errors.New("モデルの応答が空です")

// UpstreamKind は上流呼び出し失敗の分類です。
type UpstreamKind string

const (
	UpstreamTimeout  UpstreamKind = "timeout"
	UpstreamDNS      UpstreamKind = "dns"
	UpstreamTLS      UpstreamKind = "tls"
	UpstreamNetwork  UpstreamKind = "network"
	UpstreamStatus   UpstreamKind = "status"
	UpstreamResponse UpstreamKind = "response"
	UpstreamCanceled UpstreamKind = "canceled"
)

// UpstreamError は画像生成やテキスト生成などの外部呼び出しの失敗を表します。
type UpstreamError struct {
	Kind       UpstreamKind
	StatusCode int
	Message    string
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// NewStatusError は上流が非2xxを返したことを表すエラーを作成します。
func NewStatusError(code int, body string) *UpstreamError {
	return &UpstreamError{
		Kind:       UpstreamStatus,
		StatusCode: code,
		Message:    fmt.Sprintf("upstream returned status %d: %s", code, strings.TrimSpace(body)),
	}
}

// ClassifyResponse は httpkit.HandleResponse の失敗を UpstreamError に変換します。
// status は受信したレスポンスのステータスコードです。
func ClassifyResponse(status int, err error) *UpstreamError {
	if err == nil {
		return nil
	}
	var nr *httpkit.NonRetryableHTTPError
	if errors.As(err, &nr) {
		return NewStatusError(nr.StatusCode, string(nr.Body))
	}
	if status < 200 || status > 299 {
		return NewStatusError(status, err.Error())
	}
	// 本文の読み込み失敗やサイズ超過
	return &UpstreamError{Kind: UpstreamResponse, Message: "upstream response could not be read", Err: err}
}

// ClassifyUpstream は任意のエラーを UpstreamError に分類します。
// すでに UpstreamError の場合はそのまま返し、nil には nil を返します。
func ClassifyUpstream(err error) *UpstreamError {
	if err == nil {
		return nil
	}
	var ue *UpstreamError
	if errors.As(err, &ue) {
		return ue
	}

	var dnsErr *net.DNSError
	var certErr *tls.CertificateVerificationError
	var unknownAuth x509.UnknownAuthorityError
	var hostnameErr x509.HostnameError
	var invalidCert x509.CertificateInvalidError
	var netErr net.Error

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return &UpstreamError{Kind: UpstreamTimeout, Message: "Request timeout - the image service took too long to respond", Err: err}
	case errors.Is(err, context.Canceled):
		return &UpstreamError{Kind: UpstreamCanceled, Message: "Request canceled", Err: err}
	case errors.As(err, &dnsErr):
		return &UpstreamError{Kind: UpstreamDNS, Message: "DNS resolution failed - could not resolve the service host", Err: err}
	case errors.As(err, &certErr), errors.As(err, &unknownAuth), errors.As(err, &hostnameErr), errors.As(err, &invalidCert):
		return &UpstreamError{Kind: UpstreamTLS, Message: "SSL/TLS certificate error while connecting to the service", Err: err}
	case errors.As(err, &netErr) && netErr.Timeout():
		return &UpstreamError{Kind: UpstreamTimeout, Message: "Request timeout - the image service took too long to respond", Err: err}
	case errors.As(err, &netErr):
		return &UpstreamError{Kind: UpstreamNetwork, Message: "Network error", Err: err}
	}

	lower := strings.ToLower(err.Error())
	switch {
	case strings.Contains(lower, "certificate") || strings.Contains(lower, "tls") || strings.Contains(lower, "ssl"):
		return &UpstreamError{Kind: UpstreamTLS, Message: "SSL/TLS certificate error while connecting to the service", Err: err}
	case strings.Contains(lower, "no such host"):
		return &UpstreamError{Kind: UpstreamDNS, Message: "DNS resolution failed - could not resolve the service host", Err: err}
	}
	return &UpstreamError{Kind: UpstreamResponse, Message: "upstream call failed", Err: err}
}

// IsInputError は利用者の入力に起因するエラー（4xx相当）かどうかを返します。
func IsInputError(err error) bool {
	var ie *InputError
	return errors.As(err, &ie)
}

// InputError は利用者の入力が不正であることを表します。
type InputError struct {
	Message string
}

func (e *InputError) Error() string { return e.Message }

// NewInputError は InputError を作成します。
func NewInputError(format string, args ...any) error {
	return &InputError{Message: fmt.Sprintf(format, args...)}
}
