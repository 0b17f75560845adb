package session

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/shouni/gemini-canvas-kit/pkg/domain"
)

// createTestImage はテスト用に白一色の PNG 画像を生成します。
func createTestImage(t *testing.T, width, height int) domain.Image {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img), "テスト画像のエンコードに失敗")
	return domain.Image{Data: buf.Bytes(), MimeType: "image/png"}
}

// --- Mocks ---

type mockGenerator struct {
	generateFunc func(ctx context.Context, req domain.GenerateRequest) (*domain.ImageResult, error)
	editFunc     func(ctx context.Context, req domain.EditRequest) (*domain.ImageResult, error)

	generateCalls int
	editCalls     int
	lastEdit      domain.EditRequest
}

func (m *mockGenerator) Generate(ctx context.Context, req domain.GenerateRequest) (*domain.ImageResult, error) {
	m.generateCalls++
	if m.generateFunc != nil {
		return m.generateFunc(ctx, req)
	}
	return &domain.ImageResult{Image: domain.Image{Data: []byte("generated"), MimeType: "image/png"}}, nil
}

func (m *mockGenerator) EditWithMask(ctx context.Context, req domain.EditRequest) (*domain.ImageResult, error) {
	m.editCalls++
	m.lastEdit = req
	if m.editFunc != nil {
		return m.editFunc(ctx, req)
	}
	return &domain.ImageResult{Image: domain.Image{Data: []byte("edited"), MimeType: "image/png"}}, nil
}
