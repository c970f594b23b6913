package controller

import (
	"errors"
	"fmt"

	"github.com/aws/smithy-go"
)

// DefaultAlreadyInStateCodes は「既に要求された状態にある」ことを示すEC2のエラーコード
// 起動中のインスタンスへの start、停止済みへの stop などで返される
var DefaultAlreadyInStateCodes = []string{
	"IncorrectInstanceState",
	"IncorrectState",
}

// ProviderError はコンピュートプロバイダーが返した構造化エラー
type ProviderError struct {
	Code    string
	Message string
	Err     error
}

func (e *ProviderError) Error() string {
	if e.Message == "" {
		return e.Code
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// errorCode はプロバイダーのエラーコードを取り出す
// ProviderError を優先し、次に smithy.APIError を確認する
func errorCode(err error) (string, bool) {
	var providerErr *ProviderError
	if errors.As(err, &providerErr) {
		return providerErr.Code, true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode(), true
	}
	return "", false
}

// providerDetail はオペレーター向けにプロバイダーのエラー文言をそのまま返す
func providerDetail(err error) string {
	var providerErr *ProviderError
	if errors.As(err, &providerErr) {
		return providerErr.Error()
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Error()
	}
	return err.Error()
}
