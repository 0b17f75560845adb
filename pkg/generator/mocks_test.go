package generator

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"testing"

	"github.com/shouni/go-gemini-client/pkg/gemini"
	"google.golang.org/genai"
)

// createTestImageData はテスト用の小さな PNG バイト列を生成します。
func createTestImageData(t *testing.T) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 30), G: uint8(y * 30), B: 120, A: 255})
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode test image: %v", err)
	}
	return buf.Bytes()
}

// --- Mocks ---

type mockAIClient struct {
	generateWithPartsFunc func(ctx context.Context, model string, parts []*genai.Part, opts gemini.GenerateOptions) (*gemini.Response, error)

	uploadCalled bool
	deleteCalled bool
	lastFileName string
}

func (m *mockAIClient) UploadFile(ctx context.Context, data []byte, mimeType, displayName string) (string, string, error) {
	m.uploadCalled = true
	return "https://gemini.api/files/new-file-id", "files/new-file-id", nil
}

func (m *mockAIClient) DeleteFile(ctx context.Context, name string) error {
	m.deleteCalled = true
	m.lastFileName = name
	return nil
}

func (m *mockAIClient) GenerateContent(ctx context.Context, model string, prompt string) (*gemini.Response, error) {
	return nil, nil
}

func (m *mockAIClient) GenerateWithParts(ctx context.Context, model string, parts []*genai.Part, opts gemini.GenerateOptions) (*gemini.Response, error) {
	if m.generateWithPartsFunc != nil {
		return m.generateWithPartsFunc(ctx, model, parts, opts)
	}
	return &gemini.Response{
		RawResponse: &genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{{
				Content: &genai.Content{
					Parts: []*genai.Part{{InlineData: &genai.Blob{MIMEType: "image/png", Data: []byte("fake")}}},
				},
			}},
		},
	}, nil
}

func (m *mockAIClient) GetFile(ctx context.Context, name string) (*genai.File, error) {
	return nil, nil
}

type mockReader struct {
	data map[string][]byte
	err  error
}

func (m *mockReader) Open(ctx context.Context, uri string) (io.ReadCloser, error) {
	if m.err != nil {
		return nil, m.err
	}
	return io.NopCloser(bytes.NewReader(m.data[uri])), nil
}

func (m *mockReader) List(ctx context.Context, uri string, fn func(string) error) error {
	return nil
}

type mockHTTPClient struct {
	data    []byte
	err     error
	lastURL string
}

func (m *mockHTTPClient) FetchBytes(ctx context.Context, url string) ([]byte, error) {
	m.lastURL = url
	return m.data, m.err
}

// mockImageCore は ImageGeneratorCore のファサード側テスト用モックです。
type mockImageCore struct {
	executeFunc  func(ctx context.Context, model string, parts []*genai.Part, opts gemini.GenerateOptions) (*ImageOutput, error)
	toPartFunc   func(data []byte) *genai.Part
	compressFunc func(data []byte) []byte

	executeCalled bool
}

func (m *mockImageCore) executeRequest(ctx context.Context, model string, parts []*genai.Part, opts gemini.GenerateOptions) (*ImageOutput, error) {
	m.executeCalled = true
	if m.executeFunc != nil {
		return m.executeFunc(ctx, model, parts, opts)
	}
	return &ImageOutput{Data: []byte("fake-png"), MimeType: "image/png", UsedSeed: dereferenceSeed(opts.Seed)}, nil
}

func (m *mockImageCore) toPart(data []byte) *genai.Part {
	if m.toPartFunc != nil {
		return m.toPartFunc(data)
	}
	return &genai.Part{InlineData: &genai.Blob{MIMEType: "image/png", Data: data}}
}

func (m *mockImageCore) maybeCompress(data []byte) []byte {
	if m.compressFunc != nil {
		return m.compressFunc(data)
	}
	return data
}
