package generator

import (
	"bytes"
	"context"
	"fmt"

	"github.com/shouni/gemini-canvas-kit/pkg/domain"
	"github.com/shouni/go-gemini-client/pkg/gemini"
	"google.golang.org/genai"
)

// Client は公式 genai SDK を gemini.GenerativeModel として扱うための薄いアダプタです。
// 具象型を参照するのは cmd 層だけで、他の層はインターフェース越しに利用します。
type Client struct {
	client *genai.Client
}

var _ gemini.GenerativeModel = (*Client)(nil)

// NewClient は Gemini API キーで認証した Client を生成します。
// キーが空の場合は domain.ErrNotConfigured を返します。
func NewClient(ctx context.Context, apiKey string) (*Client, error) {
	if apiKey == "" {
		return nil, domain.ErrNotConfigured
	}

	inner, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("Geminiクライアント初期化エラー: %w", err)
	}
	return &Client{client: inner}, nil
}

// ready はゼロ値のまま使われた場合に備えた防護です。
func (c *Client) ready() error {
	if c == nil || c.client == nil {
		return domain.ErrNotConfigured
	}
	return nil
}

// GenerateContent はテキストのみのプロンプトで生成を行います。
func (c *Client) GenerateContent(ctx context.Context, model string, prompt string) (*gemini.Response, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}

	contents := []*genai.Content{{Parts: []*genai.Part{{Text: prompt}}}}
	resp, err := c.client.Models.GenerateContent(ctx, model, contents, nil)
	if err != nil {
		return nil, err
	}
	return &gemini.Response{RawResponse: resp}, nil
}

// GenerateWithParts はテキストと画像が混在するパーツ列で生成を行います。
// 画像を応答に含められるよう ResponseModalities は常に TEXT と IMAGE の両方です。
func (c *Client) GenerateWithParts(ctx context.Context, model string, parts []*genai.Part, opts gemini.GenerateOptions) (*gemini.Response, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}

	cfg := &genai.GenerateContentConfig{
		ResponseModalities: []string{"TEXT", "IMAGE"},
	}
	if opts.AspectRatio != "" {
		cfg.ImageConfig = &genai.ImageConfig{AspectRatio: opts.AspectRatio}
	}
	if opts.Seed != nil {
		cfg.Seed = seedToPtrInt32(opts.Seed)
	}
	if opts.SystemPrompt != "" {
		cfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: opts.SystemPrompt}}}
	}

	resp, err := c.client.Models.GenerateContent(ctx, model, []*genai.Content{{Parts: parts}}, cfg)
	if err != nil {
		return nil, err
	}
	return &gemini.Response{RawResponse: resp}, nil
}

// UploadFile は File API へデータをアップロードし、参照用 URI と管理名を返します。
func (c *Client) UploadFile(ctx context.Context, data []byte, mimeType, displayName string) (string, string, error) {
	if err := c.ready(); err != nil {
		return "", "", err
	}

	file, err := c.client.Files.Upload(ctx, bytes.NewReader(data), &genai.UploadFileConfig{
		MIMEType:    mimeType,
		DisplayName: displayName,
	})
	if err != nil {
		return "", "", fmt.Errorf("File APIアップロードエラー: %w", err)
	}
	return file.URI, file.Name, nil
}

// DeleteFile は File API から管理名 (files/xxxx) でファイルを削除します。
func (c *Client) DeleteFile(ctx context.Context, name string) error {
	if err := c.ready(); err != nil {
		return err
	}

	if _, err := c.client.Files.Delete(ctx, name, nil); err != nil {
		return fmt.Errorf("File API削除エラー: %w", err)
	}
	return nil
}

// GetFile は File API のファイルメタデータを取得します。
func (c *Client) GetFile(ctx context.Context, name string) (*genai.File, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	return c.client.Files.Get(ctx, name, nil)
}
