package generator

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shouni/gemini-canvas-kit/pkg/domain"
	"github.com/shouni/gemini-canvas-kit/pkg/imgutil"
	"github.com/shouni/go-gemini-client/pkg/gemini"
	"google.golang.org/genai"
)

// GeminiGenerator は、テキストからの新規生成 (Generate) と
// マスク付き編集 (EditWithMask) の両方を担当する統合ジェネレーターです。
type GeminiGenerator struct {
	imgCore ImageGeneratorCore
	model   string
}

// NewGeminiGenerator は GeminiGenerator を初期化するのだ。
func NewGeminiGenerator(core ImageGeneratorCore, model string) (*GeminiGenerator, error) {
	if core == nil {
		return nil, fmt.Errorf("core (ImageGeneratorCore) is required")
	}
	if model == "" {
		return nil, fmt.Errorf("model name is required")
	}

	return &GeminiGenerator{
		imgCore: core,
		model:   model,
	}, nil
}

var _ ImageGenerator = (*GeminiGenerator)(nil)

// Generate はプロンプトから新規画像を1枚生成するのだ。
// 入力検証はリモート呼び出しの前に完結させます。
func (g *GeminiGenerator) Generate(ctx context.Context, req domain.GenerateRequest) (*domain.ImageResult, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, domain.ErrEmptyPrompt
	}

	ratio := req.AspectRatio
	if ratio == "" {
		ratio = domain.DefaultAspectRatio
	}
	if !ratio.Valid() {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidAspectRatio, ratio)
	}

	slog.Info("Gemini画像生成リクエスト送信", "model", g.model, "aspect_ratio", ratio, "seeded", req.Seed != nil)

	parts := []*genai.Part{{Text: req.Prompt}}
	opts := gemini.GenerateOptions{
		AspectRatio: string(ratio),
		Seed:        req.Seed,
	}

	out, err := g.imgCore.executeRequest(ctx, g.model, parts, opts)
	if err != nil {
		return nil, fmt.Errorf("Gemini画像生成エラー: %w", err)
	}
	return toResult(out), nil
}

// EditWithMask は合成画像に焼き込まれたハイライトを手掛かりに部分編集を行うのだ。
// ハイライトが無い場合は画像全体への編集指示として送信します。
func (g *GeminiGenerator) EditWithMask(ctx context.Context, req domain.EditRequest) (*domain.ImageResult, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, domain.ErrEmptyPrompt
	}
	if req.Source.Empty() {
		return nil, fmt.Errorf("source: %w", domain.ErrNoImageData)
	}
	if req.MaskedRegion && req.Composite.Empty() {
		return nil, fmt.Errorf("composite: %w", domain.ErrNoImageData)
	}

	srcPart, err := g.preparePayload(req.Source.Data)
	if err != nil {
		return nil, fmt.Errorf("source: %w", err)
	}

	parts := []*genai.Part{{Text: buildEditInstruction(req.Prompt, req.MaskedRegion)}, srcPart}
	if req.MaskedRegion {
		compPart, err := g.preparePayload(req.Composite.Data)
		if err != nil {
			return nil, fmt.Errorf("composite: %w", err)
		}
		parts = append(parts, compPart)
	}

	slog.Info("Geminiマスク編集リクエスト送信", "model", g.model, "masked", req.MaskedRegion, "parts", len(parts))

	out, err := g.imgCore.executeRequest(ctx, g.model, parts, gemini.GenerateOptions{})
	if err != nil {
		return nil, fmt.Errorf("Geminiマスク編集エラー: %w", err)
	}
	return toResult(out), nil
}

// preparePayload は data URI 形式を生バイト列へ戻し、圧縮設定を適用した上で
// インラインデータパーツへ変換します。
func (g *GeminiGenerator) preparePayload(data []byte) (*genai.Part, error) {
	raw := data
	if bytes.HasPrefix(data, []byte("data:")) {
		stripped, _, err := imgutil.StripDataURI(string(data))
		if err != nil {
			return nil, err
		}
		raw = stripped
	}

	part := g.imgCore.toPart(g.imgCore.maybeCompress(raw))
	if part == nil {
		return nil, fmt.Errorf("送信ペイロードが画像ではありません")
	}
	return part, nil
}

// buildEditInstruction は編集指示文を組み立てます。ハイライト付きの場合、
// モデルには2枚目の画像で半透明の赤に塗られた領域だけを編集させます。
func buildEditInstruction(prompt string, masked bool) string {
	if masked {
		return fmt.Sprintf("You are given two images: the first is the original, the second is the same image with the area to edit highlighted in translucent red. Apply the following change ONLY to the highlighted area and keep everything else untouched. Return the edited image. Change: %s", prompt)
	}
	return fmt.Sprintf("Apply the following change to the whole image and return the edited image. Change: %s", prompt)
}

func toResult(out *ImageOutput) *domain.ImageResult {
	return &domain.ImageResult{
		Image:    domain.Image{Data: out.Data, MimeType: out.MimeType},
		UsedSeed: out.UsedSeed,
	}
}
