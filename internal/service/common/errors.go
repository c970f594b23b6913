package common

// エラーメッセージの絵文字定数
const (
	ErrorIcon   = "❌"
	SuccessIcon = "✅"
	WarningIcon = "⚠️"
	InfoIcon    = "📋"
	StartIcon   = "🚀"
	StopIcon    = "🛑"
)

// エラーメッセージフォーマット定数
const (
	// 一覧取得エラー
	ListErrorFormat = "%s %s一覧の取得に失敗: %w"

	// リソース操作エラー
	EnableErrorFormat  = "%s %s の有効化に失敗: %w"
	DisableErrorFormat = "%s %s の無効化に失敗: %w"
	StartErrorFormat   = "%s %s の起動に失敗: %s"
	StopErrorFormat    = "%s %s の停止に失敗: %s"

	// 成功メッセージ
	EnableSuccessFormat  = "%s %s を有効化しました"
	DisableSuccessFormat = "%s %s を無効化しました"
)
