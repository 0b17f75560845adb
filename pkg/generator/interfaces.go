package generator

import (
	"context"

	"github.com/shouni/gemini-canvas-kit/pkg/domain"
	"github.com/shouni/go-gemini-client/pkg/gemini"
	"google.golang.org/genai"
)

// ImageGenerator はセッション層が利用する統合窓口です。
type ImageGenerator interface {
	// Generate はプロンプトから新規画像を生成します。
	Generate(ctx context.Context, req domain.GenerateRequest) (*domain.ImageResult, error)
	// EditWithMask は合成画像のハイライトを手掛かりに既存画像を編集します。
	EditWithMask(ctx context.Context, req domain.EditRequest) (*domain.ImageResult, error)
}

// ImageFetcher は、外部 URI から編集の種になる画像を取り込むためのインターフェースです。
type ImageFetcher interface {
	// FetchImage は画像バイト列と MIME タイプを返します。画像以外のコンテンツはエラーになります。
	FetchImage(ctx context.Context, rawURL string) ([]byte, string, error)
}

// ImageGeneratorCore は、リクエスト実行と応答解析の基盤メソッドを定義する内部インターフェースです。
type ImageGeneratorCore interface {
	// executeRequest は、指定されたパーツ列で生成リクエストを実行し、解析結果を返します。
	executeRequest(ctx context.Context, model string, parts []*genai.Part, opts gemini.GenerateOptions) (*ImageOutput, error)
	// toPart は画像バイト列をインラインデータパーツへ変換します。画像以外は nil を返します。
	toPart(data []byte) *genai.Part
	// maybeCompress は設定に応じて送信ペイロードを JPEG へ再圧縮します。
	maybeCompress(data []byte) []byte
}
