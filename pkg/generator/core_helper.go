package generator

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/shouni/go-gemini-client/pkg/gemini"
	"google.golang.org/genai"
)

func (c *GeminiImageCore) executeRequest(ctx context.Context, model string, parts []*genai.Part, opts gemini.GenerateOptions) (*ImageOutput, error) {
	resp, err := c.aiClient.GenerateWithParts(ctx, model, parts, opts)
	if err != nil {
		return nil, err
	}
	return c.parseToResponse(resp, dereferenceSeed(opts.Seed))
}

func (c *GeminiImageCore) toPart(data []byte) *genai.Part {
	mimeType := http.DetectContentType(data)
	if !strings.HasPrefix(mimeType, "image/") {
		return nil
	}
	return &genai.Part{InlineData: &genai.Blob{MIMEType: mimeType, Data: data}}
}

// parseToResponse は応答の先頭候補から最初のインライン画像を取り出します。
// 画像が無くテキストだけが返った場合は、その内容をエラーに含めます。
func (c *GeminiImageCore) parseToResponse(resp *gemini.Response, seed int64) (*ImageOutput, error) {
	if resp == nil || resp.RawResponse == nil || len(resp.RawResponse.Candidates) == 0 {
		return nil, fmt.Errorf("invalid response")
	}

	candidate := resp.RawResponse.Candidates[0]
	if reason := candidate.FinishReason; reason != "" && reason != genai.FinishReasonStop && reason != genai.FinishReasonUnspecified {
		return nil, fmt.Errorf("生成が完了しませんでした (finish_reason: %s)", reason)
	}
	if candidate.Content == nil {
		return nil, fmt.Errorf("no image data")
	}

	var texts []string
	for _, part := range candidate.Content.Parts {
		if part.InlineData != nil {
			return &ImageOutput{Data: part.InlineData.Data, MimeType: part.InlineData.MIMEType, UsedSeed: seed}, nil
		}
		if part.Text != "" {
			texts = append(texts, part.Text)
		}
	}

	if len(texts) > 0 {
		return nil, fmt.Errorf("画像の代わりにテキスト応答が返されました: %s", strings.Join(texts, " "))
	}
	return nil, fmt.Errorf("no image data")
}
