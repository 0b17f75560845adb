package web

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/shouni/gemini-canvas-kit/pkg/domain"
	"github.com/shouni/gemini-canvas-kit/pkg/generator"
)

// テスト用の単色PNG画像を生成するヘルパー
func createTestPNG(t *testing.T, width, height int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: 180, G: 200, B: 220, A: 255})
		}
	}

	buf := new(bytes.Buffer)
	if err := png.Encode(buf, img); err != nil {
		t.Fatalf("failed to encode test png: %v", err)
	}
	return buf.Bytes()
}

// テスト用のJPEG画像を生成するヘルパー
func createTestJPEG(t *testing.T, width, height int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	buf := new(bytes.Buffer)
	if err := jpeg.Encode(buf, img, nil); err != nil {
		t.Fatalf("failed to encode test jpeg: %v", err)
	}
	return buf.Bytes()
}

// generator.ImageGenerator を満たす関数フィールド式のモック。
// 既定ではエラーを返すため、リモート呼び出しを伴うテストは
// 必ず明示的に関数を設定します。
type mockGenerator struct {
	generateFunc func(ctx context.Context, req domain.GenerateRequest) (*domain.ImageResult, error)
	editFunc     func(ctx context.Context, req domain.EditRequest) (*domain.ImageResult, error)

	generateCalls int
	editCalls     int
	lastGenerate  domain.GenerateRequest
	lastEdit      domain.EditRequest
}

var _ generator.ImageGenerator = (*mockGenerator)(nil)

func (m *mockGenerator) Generate(ctx context.Context, req domain.GenerateRequest) (*domain.ImageResult, error) {
	m.generateCalls++
	m.lastGenerate = req
	if m.generateFunc != nil {
		return m.generateFunc(ctx, req)
	}
	return nil, fmt.Errorf("mock: generate not implemented")
}

func (m *mockGenerator) EditWithMask(ctx context.Context, req domain.EditRequest) (*domain.ImageResult, error) {
	m.editCalls++
	m.lastEdit = req
	if m.editFunc != nil {
		return m.editFunc(ctx, req)
	}
	return nil, fmt.Errorf("mock: edit not implemented")
}

// pngGenerator は常に有効なPNGを返すモックを組み立てるヘルパー
func pngGenerator(t *testing.T) *mockGenerator {
	t.Helper()

	data := createTestPNG(t, 16, 16)
	return &mockGenerator{
		generateFunc: func(_ context.Context, _ domain.GenerateRequest) (*domain.ImageResult, error) {
			return &domain.ImageResult{
				Image:    domain.Image{Data: data, MimeType: "image/png"},
				UsedSeed: 42,
			}, nil
		},
		editFunc: func(_ context.Context, _ domain.EditRequest) (*domain.ImageResult, error) {
			return &domain.ImageResult{
				Image: domain.Image{Data: data, MimeType: "image/png"},
			}, nil
		},
	}
}

// generator.ImageFetcher を満たすモック
type mockFetcher struct {
	fetchFunc func(ctx context.Context, rawURL string) ([]byte, string, error)
	lastURL   string
}

var _ generator.ImageFetcher = (*mockFetcher)(nil)

func (m *mockFetcher) FetchImage(ctx context.Context, rawURL string) ([]byte, string, error) {
	m.lastURL = rawURL
	if m.fetchFunc != nil {
		return m.fetchFunc(ctx, rawURL)
	}
	return nil, "", fmt.Errorf("mock: fetch not implemented")
}
