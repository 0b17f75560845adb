package imgutil

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	"image/png"
	"net/http"
	"strings"
)

// StripDataURI は data URI 文字列（例: "data:image/png;base64,...."）から
// 生のバイナリと MIME タイプを取り出します。プレフィックスを持たない
// 素の base64 文字列も受け付けます。ブラウザ側のキャンバスは常に data URI
// で画像を渡してくるため、送信前に必ずこの関数で剥がします。
func StripDataURI(s string) ([]byte, string, error) {
	mimeType := ""
	payload := s

	if strings.HasPrefix(s, "data:") {
		header, rest, found := strings.Cut(s, ",")
		if !found {
			return nil, "", fmt.Errorf("data URIにカンマ区切りがありません")
		}
		payload = rest

		// "data:image/png;base64" からMIMEタイプ部分だけを抜き出す
		header = strings.TrimPrefix(header, "data:")
		if i := strings.IndexByte(header, ';'); i >= 0 {
			header = header[:i]
		}
		mimeType = header
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", fmt.Errorf("base64デコードに失敗しました: %w", err)
	}
	if mimeType == "" {
		mimeType = DetectMime(data)
	}
	return data, mimeType, nil
}

// ToDataURI はバイナリ画像データをブラウザでそのまま表示できる
// data URI 文字列に変換します。
func ToDataURI(data []byte, mimeType string) string {
	if mimeType == "" {
		mimeType = DetectMime(data)
	}
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// DetectMime はデータ先頭のシグネチャから MIME タイプを推定します。
func DetectMime(data []byte) string {
	return http.DetectContentType(data)
}

// DecodeBounds は画像全体をデコードせずに幅と高さだけを読み取ります。
// ストローク座標のスケール計算で毎回呼ばれるため、DecodeConfig で
// ヘッダのみを解析します。
func DecodeBounds(data []byte) (width, height int, err error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, fmt.Errorf("画像サイズの読み取りに失敗しました: %w", err)
	}
	return cfg.Width, cfg.Height, nil
}

// CompressToJPEG は画像データ（PNG, GIF, JPEG等）をJPEG形式に圧縮します。
// 編集リクエストの送信ペイロード削減用で、image.Decode がサポートする
// フォーマットに対応しています。
func CompressToJPEG(data []byte, quality int) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	buf := new(bytes.Buffer)
	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// EncodeToPNG は画像データを PNG 形式へ再符号化します。
// JPEG 等で保持している画像を PNG 固定の出力に揃えるために使います。
func EncodeToPNG(data []byte) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	buf := new(bytes.Buffer)
	if err := png.Encode(buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
