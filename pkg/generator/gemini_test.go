package generator

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"testing"

	"github.com/shouni/gemini-canvas-kit/pkg/domain"
	"github.com/shouni/go-gemini-client/pkg/gemini"
	"google.golang.org/genai"
)

func TestGeminiGenerator_Generate(t *testing.T) {
	ctx := context.Background()
	modelName := "gemini-2.5-flash-image"

	t.Run("成功: プロンプトとシードとアスペクト比が透過されるのだ", func(t *testing.T) {
		var seedVal int64 = 777
		req := domain.GenerateRequest{
			Prompt:      "夕焼けの富士山",
			AspectRatio: domain.AspectWide,
			Seed:        &seedVal,
		}

		core := &mockImageCore{
			executeFunc: func(ctx context.Context, model string, parts []*genai.Part, opts gemini.GenerateOptions) (*ImageOutput, error) {
				if model != modelName {
					t.Errorf("model mismatch: got %s", model)
				}
				if len(parts) != 1 || parts[0].Text != req.Prompt {
					t.Errorf("prompt part mismatch: %+v", parts)
				}
				if opts.AspectRatio != "16:9" {
					t.Errorf("aspect ratio mismatch: got %s", opts.AspectRatio)
				}
				if opts.Seed == nil || *opts.Seed != seedVal {
					t.Errorf("seed mismatch: got %v", opts.Seed)
				}
				return &ImageOutput{Data: []byte("fake-png"), MimeType: "image/png", UsedSeed: seedVal}, nil
			},
		}

		gen, err := NewGeminiGenerator(core, modelName)
		if err != nil {
			t.Fatalf("constructor failed: %v", err)
		}

		res, err := gen.Generate(ctx, req)
		if err != nil {
			t.Fatalf("error should be nil: %v", err)
		}
		if res.UsedSeed != seedVal {
			t.Errorf("expected seed %d, got %d", seedVal, res.UsedSeed)
		}
		if res.Image.MimeType != "image/png" {
			t.Errorf("unexpected mime type: %s", res.Image.MimeType)
		}
	})

	t.Run("空白プロンプトはリモート呼び出し前に弾かれるのだ", func(t *testing.T) {
		core := &mockImageCore{}
		gen, _ := NewGeminiGenerator(core, modelName)

		_, err := gen.Generate(ctx, domain.GenerateRequest{Prompt: "   "})

		if !errors.Is(err, domain.ErrEmptyPrompt) {
			t.Errorf("expected ErrEmptyPrompt, got %v", err)
		}
		if core.executeCalled {
			t.Error("remote call should not happen for empty prompt")
		}
	})

	t.Run("不正なアスペクト比は弾かれるのだ", func(t *testing.T) {
		core := &mockImageCore{}
		gen, _ := NewGeminiGenerator(core, modelName)

		_, err := gen.Generate(ctx, domain.GenerateRequest{Prompt: "猫", AspectRatio: "2:1"})

		if !errors.Is(err, domain.ErrInvalidAspectRatio) {
			t.Errorf("expected ErrInvalidAspectRatio, got %v", err)
		}
		if core.executeCalled {
			t.Error("remote call should not happen for invalid ratio")
		}
	})

	t.Run("アスペクト比未指定は既定値で送信されるのだ", func(t *testing.T) {
		core := &mockImageCore{
			executeFunc: func(ctx context.Context, model string, parts []*genai.Part, opts gemini.GenerateOptions) (*ImageOutput, error) {
				if opts.AspectRatio != string(domain.DefaultAspectRatio) {
					t.Errorf("expected default ratio, got %s", opts.AspectRatio)
				}
				return &ImageOutput{Data: []byte("x"), MimeType: "image/png"}, nil
			},
		}
		gen, _ := NewGeminiGenerator(core, modelName)

		if _, err := gen.Generate(ctx, domain.GenerateRequest{Prompt: "犬"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("失敗: リモートエラーがラップされて返るのだ", func(t *testing.T) {
		expectedErr := errors.New("ai error")
		core := &mockImageCore{
			executeFunc: func(ctx context.Context, model string, parts []*genai.Part, opts gemini.GenerateOptions) (*ImageOutput, error) {
				return nil, expectedErr
			},
		}
		gen, _ := NewGeminiGenerator(core, modelName)

		_, err := gen.Generate(ctx, domain.GenerateRequest{Prompt: "鳥"})

		if err == nil || !strings.Contains(err.Error(), "Gemini画像生成エラー") {
			t.Errorf("error should contain context message: %v", err)
		}
		if !errors.Is(err, expectedErr) {
			t.Errorf("wrapped error should be unwrappable: %v", err)
		}
	})
}

func TestGeminiGenerator_EditWithMask(t *testing.T) {
	ctx := context.Background()
	modelName := "gemini-2.5-flash-image"
	source := domain.Image{Data: []byte("source-bytes"), MimeType: "image/png"}
	composite := domain.Image{Data: []byte("composite-bytes"), MimeType: "image/png"}

	t.Run("マスクありは指示文+元画像+合成画像の3パーツなのだ", func(t *testing.T) {
		core := &mockImageCore{
			executeFunc: func(ctx context.Context, model string, parts []*genai.Part, opts gemini.GenerateOptions) (*ImageOutput, error) {
				if len(parts) != 3 {
					t.Fatalf("expected 3 parts, got %d", len(parts))
				}
				if !strings.Contains(parts[0].Text, "highlighted area") {
					t.Errorf("instruction should reference the highlighted area: %s", parts[0].Text)
				}
				if parts[1].InlineData == nil || parts[2].InlineData == nil {
					t.Error("image parts should carry inline data")
				}
				return &ImageOutput{Data: []byte("edited"), MimeType: "image/png"}, nil
			},
		}
		gen, _ := NewGeminiGenerator(core, modelName)

		req := domain.EditRequest{Prompt: "帽子を赤にして", Source: source, Composite: composite, MaskedRegion: true}
		if _, err := gen.EditWithMask(ctx, req); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("マスクなしは全体編集の2パーツなのだ", func(t *testing.T) {
		core := &mockImageCore{
			executeFunc: func(ctx context.Context, model string, parts []*genai.Part, opts gemini.GenerateOptions) (*ImageOutput, error) {
				if len(parts) != 2 {
					t.Fatalf("expected 2 parts, got %d", len(parts))
				}
				if !strings.Contains(parts[0].Text, "whole image") {
					t.Errorf("instruction should request a whole-image edit: %s", parts[0].Text)
				}
				return &ImageOutput{Data: []byte("edited"), MimeType: "image/png"}, nil
			},
		}
		gen, _ := NewGeminiGenerator(core, modelName)

		req := domain.EditRequest{Prompt: "全体を水彩風に", Source: source, MaskedRegion: false}
		if _, err := gen.EditWithMask(ctx, req); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("data URI形式のペイロードは生バイト列に戻されるのだ", func(t *testing.T) {
		raw := createTestImageData(t)
		dataURI := "data:image/png;base64," + base64.StdEncoding.EncodeToString(raw)

		var received [][]byte
		core := &mockImageCore{
			toPartFunc: func(data []byte) *genai.Part {
				received = append(received, data)
				return &genai.Part{InlineData: &genai.Blob{MIMEType: "image/png", Data: data}}
			},
		}
		gen, _ := NewGeminiGenerator(core, modelName)

		req := domain.EditRequest{
			Prompt:       "背景を夜空に",
			Source:       domain.Image{Data: []byte(dataURI), MimeType: "image/png"},
			Composite:    composite,
			MaskedRegion: true,
		}
		if _, err := gen.EditWithMask(ctx, req); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(received) != 2 {
			t.Fatalf("expected 2 payloads, got %d", len(received))
		}
		if strings.HasPrefix(string(received[0]), "data:") {
			t.Error("data URI prefix should be stripped before sending")
		}
		if string(received[0]) != string(raw) {
			t.Error("stripped payload should match the original bytes")
		}
	})

	t.Run("空白プロンプトはErrEmptyPromptなのだ", func(t *testing.T) {
		core := &mockImageCore{}
		gen, _ := NewGeminiGenerator(core, modelName)

		_, err := gen.EditWithMask(ctx, domain.EditRequest{Prompt: " ", Source: source})
		if !errors.Is(err, domain.ErrEmptyPrompt) {
			t.Errorf("expected ErrEmptyPrompt, got %v", err)
		}
	})

	t.Run("元画像が無ければErrNoImageDataなのだ", func(t *testing.T) {
		core := &mockImageCore{}
		gen, _ := NewGeminiGenerator(core, modelName)

		_, err := gen.EditWithMask(ctx, domain.EditRequest{Prompt: "編集して"})
		if !errors.Is(err, domain.ErrNoImageData) {
			t.Errorf("expected ErrNoImageData, got %v", err)
		}
		if core.executeCalled {
			t.Error("remote call should not happen without a source image")
		}
	})

	t.Run("失敗: リモートエラーがラップされて返るのだ", func(t *testing.T) {
		expectedErr := errors.New("ai error")
		core := &mockImageCore{
			executeFunc: func(ctx context.Context, model string, parts []*genai.Part, opts gemini.GenerateOptions) (*ImageOutput, error) {
				return nil, expectedErr
			},
		}
		gen, _ := NewGeminiGenerator(core, modelName)

		_, err := gen.EditWithMask(ctx, domain.EditRequest{Prompt: "編集", Source: source, MaskedRegion: false})
		if err == nil || !strings.Contains(err.Error(), "Geminiマスク編集エラー") {
			t.Errorf("error should contain context message: %v", err)
		}
	})
}

func TestNewGeminiGenerator(t *testing.T) {
	t.Run("nilチェック: 依存関係が足りない場合はエラーを返すのだ", func(t *testing.T) {
		if _, err := NewGeminiGenerator(nil, "model"); err == nil {
			t.Error("expected error for nil core")
		}
		if _, err := NewGeminiGenerator(&mockImageCore{}, ""); err == nil {
			t.Error("expected error for empty model name")
		}
	})
}
