package domain

// FallbackReason は縮退動作に切り替わった理由です。
type FallbackReason string

const (
	// ReasonNoCredential は認証情報が無いためデモ動作になったことを示します。
	ReasonNoCredential FallbackReason = "no_credential"
	// ReasonUpstream は上流サービスの呼び出しに失敗したことを示します。
	ReasonUpstream FallbackReason = "upstream_error"
	// ReasonParse は上流の応答を解釈できなかったことを示します。
	ReasonParse FallbackReason = "parse_error"
	// ReasonEmpty は上流の応答が空だったことを示します。
	ReasonEmpty FallbackReason = "empty_response"
)

// Outcome は Ok か Fallback のどちらかを表す結果型です。
// Fallback の場合も Value は常に利用可能な値を持ちます。
type Outcome[T any] struct {
	Value    T
	Fallback bool
	Reason   FallbackReason
	Detail   string
	Warnings []string
}

// Ok は上流の結果をそのまま使えたことを表す Outcome を作成します。
func Ok[T any](v T) Outcome[T] {
	return Outcome[T]{Value: v}
}

// Fallback は縮退した値と理由を持つ Outcome を作成します。
func Fallback[T any](v T, reason FallbackReason, detail string) Outcome[T] {
	return Outcome[T]{Value: v, Fallback: true, Reason: reason, Detail: detail}
}

// IsOk は縮退せずに得られた結果かどうかを返します。
func (o Outcome[T]) IsOk() bool {
	return !o.Fallback
}

// Status は API 応答用の短い状態文字列を返します。
func (o Outcome[T]) Status() string {
	if o.Fallback {
		return "fallback:" + string(o.Reason)
	}
	return "ok"
}
