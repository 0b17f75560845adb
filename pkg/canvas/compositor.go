package canvas

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/gogpu/gg"

	"github.com/shouni/gemini-canvas-kit/pkg/domain"
)

// Compose は元画像の上へマスクレイヤーを等倍で重ね、PNG として
// 符号化した合成画像を返します。出力寸法は常に元画像と同一で、
// 同じ入力からは常に同じバイト列が得られます。
func Compose(src domain.Image, ov *Overlay) (domain.Image, error) {
	if src.Empty() {
		return domain.Image{}, domain.ErrNoImageData
	}
	if ov == nil {
		return domain.Image{}, fmt.Errorf("overlay is required")
	}

	img, _, err := image.Decode(bytes.NewReader(src.Data))
	if err != nil {
		return domain.Image{}, fmt.Errorf("元画像のデコードエラー: %w", err)
	}

	bounds := img.Bounds()
	if ov.Width() != bounds.Dx() || ov.Height() != bounds.Dy() {
		return domain.Image{}, fmt.Errorf("オーバーレイ寸法が元画像と一致しません: %dx%d vs %dx%d",
			ov.Width(), ov.Height(), bounds.Dx(), bounds.Dy())
	}

	dc := gg.NewContextForImage(img)
	if !ov.Empty() {
		raster, err := ov.Render()
		if err != nil {
			return domain.Image{}, err
		}
		dc.DrawImage(gg.ImageBufFromImage(raster), 0, 0)
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return domain.Image{}, fmt.Errorf("合成画像のPNG符号化エラー: %w", err)
	}
	return domain.Image{Data: buf.Bytes(), MimeType: "image/png"}, nil
}
