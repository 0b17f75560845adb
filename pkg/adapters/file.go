package adapters

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/shouni/go-remote-io/pkg/remoteio"
)

// LocalFileReader は file スキームの URI をローカルファイルとして開く
// remoteio.InputReader の具象実装です。読み取りは root 配下に限定され、
// root が空の場合は全操作を拒否します。
type LocalFileReader struct {
	root string
}

var _ remoteio.InputReader = (*LocalFileReader)(nil)

// NewLocalFileReader は読み取りを root 配下に限定した LocalFileReader を生成します。
func NewLocalFileReader(root string) *LocalFileReader {
	return &LocalFileReader{root: root}
}

// resolve は URI を検証済みのローカルパスへ変換します。
func (r *LocalFileReader) resolve(uri string) (string, error) {
	if r.root == "" {
		return "", fmt.Errorf("ファイル取り込みは無効です (読み取りルートが未設定)")
	}

	u, err := url.Parse(uri)
	if err != nil {
		return "", fmt.Errorf("URIパース失敗: %w", err)
	}
	if u.Scheme != "file" {
		return "", fmt.Errorf("不許可スキーム: %s", u.Scheme)
	}

	path := filepath.Clean(u.Path)
	root := filepath.Clean(r.root)
	if path != root && !strings.HasPrefix(path, root+string(filepath.Separator)) {
		return "", fmt.Errorf("読み取りルート外のパスは開けません: %s", path)
	}
	return path, nil
}

// Open は URI が指すファイルを開きます。
func (r *LocalFileReader) Open(ctx context.Context, uri string) (io.ReadCloser, error) {
	path, err := r.resolve(uri)
	if err != nil {
		return nil, err
	}
	return os.Open(path)
}

// List は URI が指すディレクトリ直下のファイルパスを列挙し、1件ずつ fn に渡します。
// fn がエラーを返した時点で列挙を打ち切ります。
func (r *LocalFileReader) List(ctx context.Context, uri string, fn func(string) error) error {
	path, err := r.resolve(uri)
	if err != nil {
		return err
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return fmt.Errorf("ディレクトリ読み取りエラー: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(filepath.Join(path, entry.Name())); err != nil {
			return err
		}
	}
	return nil
}
