package adapters

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shouni/go-http-kit/pkg/httpkit"
)

const (
	// DefaultFetchTimeout は外部画像取得の既定タイムアウトです。
	DefaultFetchTimeout = 30 * time.Second
	// DefaultMaxFetchBytes は1回の取得で受け入れる最大バイト数です。
	DefaultMaxFetchBytes = 20 << 20
)

// HTTPFetcher は httpkit.ClientInterface の具象実装です。
// 応答サイズに上限を設け、巨大なペイロードでメモリを食い潰さないようにします。
type HTTPFetcher struct {
	client   *http.Client
	maxBytes int64
}

var _ httpkit.ClientInterface = (*HTTPFetcher)(nil)

// NewHTTPFetcher は HTTPFetcher を初期化します。
// timeout と maxBytes が非正の場合は既定値を使います。
func NewHTTPFetcher(timeout time.Duration, maxBytes int64) *HTTPFetcher {
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxFetchBytes
	}
	return &HTTPFetcher{
		client:   &http.Client{Timeout: timeout},
		maxBytes: maxBytes,
	}
}

// FetchBytes は URL の内容を取得して返します。
func (f *HTTPFetcher) FetchBytes(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("リクエスト構築エラー: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("取得エラー (URL: %s): %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("予期しないステータスコード %d (URL: %s)", resp.StatusCode, url)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("応答読み取りエラー: %w", err)
	}
	if int64(len(data)) > f.maxBytes {
		return nil, fmt.Errorf("応答サイズが上限 %d バイトを超えました (URL: %s)", f.maxBytes, url)
	}
	return data, nil
}
