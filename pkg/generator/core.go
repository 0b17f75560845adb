package generator

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/shouni/gemini-canvas-kit/pkg/imgutil"

	"github.com/shouni/go-gemini-client/pkg/gemini"
	"github.com/shouni/go-http-kit/pkg/httpkit"
	"github.com/shouni/go-remote-io/pkg/remoteio"
)

// GeminiImageCore は画像取り込みとリクエスト実行の両方の責務を担う基盤クラスです。
type GeminiImageCore struct {
	aiClient   gemini.GenerativeModel
	reader     remoteio.InputReader
	httpClient httpkit.ClientInterface
	compress   bool
	quality    int
}

// NewGeminiImageCore は依存関係を注入して GeminiImageCore を初期化します。
// compress を有効にすると、送信前の画像ペイロードを JPEG へ再圧縮します。
func NewGeminiImageCore(aiClient gemini.GenerativeModel, reader remoteio.InputReader, httpClient httpkit.ClientInterface, compress bool, quality int) (*GeminiImageCore, error) {
	// どの依存関係が不足しているか具体的に示す
	if aiClient == nil {
		return nil, fmt.Errorf("aiClient is required")
	}
	if reader == nil {
		return nil, fmt.Errorf("reader is required")
	}
	if httpClient == nil {
		return nil, fmt.Errorf("httpClient is required")
	}
	if quality <= 0 || quality > 100 {
		quality = DefaultCompressionQuality
	}

	return &GeminiImageCore{
		aiClient:   aiClient,
		reader:     reader,
		httpClient: httpClient,
		compress:   compress,
		quality:    quality,
	}, nil
}

var _ ImageFetcher = (*GeminiImageCore)(nil)

// FetchImage は http(s) または file スキームの URI から画像を取り込みます。
// 画像以外のコンテンツはエラーになります。
func (c *GeminiImageCore) FetchImage(ctx context.Context, rawURL string) ([]byte, string, error) {
	data, err := c.fetchImageData(ctx, rawURL)
	if err != nil {
		return nil, "", fmt.Errorf("画像データの取得に失敗しました (URI: %s): %w", rawURL, err)
	}

	mimeType := imgutil.DetectMime(data)
	if !strings.HasPrefix(mimeType, "image/") {
		return nil, "", fmt.Errorf("画像ではないコンテンツです (URI: %s, MIME: %s)", rawURL, mimeType)
	}
	return data, mimeType, nil
}

// fetchImageData は URI のスキームに応じて取得経路を切り替えます。
// リモート URL は SSRF 対策の検証を通過したものだけを取得します。
func (c *GeminiImageCore) fetchImageData(ctx context.Context, rawURL string) ([]byte, error) {
	if strings.HasPrefix(rawURL, "file://") {
		rc, err := c.reader.Open(ctx, rawURL)
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		return io.ReadAll(rc)
	}

	if safe, err := IsSafeURL(rawURL); err != nil || !safe {
		return nil, fmt.Errorf("安全ではないURLが指定されました: %w", err)
	}
	return c.httpClient.FetchBytes(ctx, rawURL)
}

// maybeCompress は設定に応じて送信ペイロードを JPEG へ再圧縮します。
// 圧縮に失敗した場合は元データをそのまま使います。
func (c *GeminiImageCore) maybeCompress(data []byte) []byte {
	if !c.compress {
		return data
	}
	if compressed, err := imgutil.CompressToJPEG(data, c.quality); err == nil {
		return compressed
	}
	return data
}
