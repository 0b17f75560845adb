package domain

import "errors"

// エラーは設定・検証・サービスの3分類に対応します。サービス障害は
// この sentinel を直接返すのではなく、発生個所で %w ラップして文脈を
// 付けて返すのが流儀です。
var (
	// ErrNotConfigured は API キー未設定のまま生成を試みた場合のエラー。
	ErrNotConfigured = errors.New("gemini api key is not configured")

	// ErrEmptyPrompt は空プロンプトの送信。ネットワーク呼び出し前に弾きます。
	ErrEmptyPrompt = errors.New("prompt is required")

	// ErrInvalidAspectRatio は許容セット外のアスペクト比。
	ErrInvalidAspectRatio = errors.New("aspect ratio is not supported")

	// ErrInvalidMode は未定義の操作モード指定。
	ErrInvalidMode = errors.New("mode must be generate or edit")

	// ErrNoCurrentImage は画像が無い状態での編集・マスク操作。
	ErrNoCurrentImage = errors.New("no current image to edit")

	// ErrNoImageData はリモート応答が成功しつつ画像を含まなかった場合。
	ErrNoImageData = errors.New("no image data in response")

	// ErrBusy は既に処理中のセッションへの二重送信。
	ErrBusy = errors.New("another request is already in flight")

	// ErrSuperseded は完了前に新しい操作で状態が進み、結果を破棄した場合。
	ErrSuperseded = errors.New("stale result discarded")
)
