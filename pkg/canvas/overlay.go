package canvas

import (
	"fmt"
	"image"

	"github.com/gogpu/gg"

	"github.com/shouni/gemini-canvas-kit/pkg/domain"
)

// ブラシは常に半透明の赤で固定です。マスクの視認性と合成結果の
// 安定性を両立させるため、色や透明度はユーザーに開放していません。
const (
	brushRed   = 1.0
	brushGreen = 0.0
	brushBlue  = 0.0

	// BrushAlpha はブラシ描画時の不透明度です。
	BrushAlpha = 0.5
)

// Scale は画像のネイティブ寸法と表示寸法から座標変換係数を算出します。
// 表示寸法が不正な場合は等倍 (1.0) を返すのだ。
func Scale(native, display int) float64 {
	if native <= 0 || display <= 0 {
		return 1.0
	}
	return float64(native) / float64(display)
}

// MapPoint は表示座標系の点をネイティブ座標系へ写像します。
func MapPoint(p domain.Point, sx, sy float64) domain.Point {
	return domain.Point{X: p.X * sx, Y: p.Y * sy}
}

// MapStroke はストローク全体をネイティブ座標系へ写像します。
// 線幅も同じ係数で拡大し、画面上の見た目と合成結果を一致させます。
func MapStroke(s domain.Stroke, sx, sy float64) domain.Stroke {
	mapped := domain.Stroke{
		Width:  s.Width * sx,
		Points: make([]domain.Point, 0, len(s.Points)),
	}
	for _, p := range s.Points {
		mapped.Points = append(mapped.Points, MapPoint(p, sx, sy))
	}
	return mapped
}

// Overlay は編集対象画像と同寸のマスクレイヤーです。ストロークを
// ベクタ形式のまま保持し、ラスタライズは Render 時に行います。
// 並行アクセスの制御は呼び出し側 (セッション層) の責務です。
type Overlay struct {
	width   int
	height  int
	strokes []domain.Stroke
}

// NewOverlay は指定寸法のマスクレイヤーを生成します。
func NewOverlay(width, height int) (*Overlay, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("overlay dimensions must be positive: %dx%d", width, height)
	}
	return &Overlay{width: width, height: height}, nil
}

// Width はレイヤーの幅を返します。
func (o *Overlay) Width() int { return o.width }

// Height はレイヤーの高さを返します。
func (o *Overlay) Height() int { return o.height }

// Empty はストロークが一つも無いかどうかを返します。
func (o *Overlay) Empty() bool { return len(o.strokes) == 0 }

// StrokeCount は保持しているストローク数を返します。
func (o *Overlay) StrokeCount() int { return len(o.strokes) }

// Add はストロークを追記します。点を持たないストロークは無視します。
func (o *Overlay) Add(s domain.Stroke) {
	if s.Empty() {
		return
	}
	o.strokes = append(o.strokes, s)
}

// Clear は全ストロークを破棄します。寸法は維持されます。
func (o *Overlay) Clear() {
	o.strokes = nil
}

// Strokes は保持中のストロークのコピーを返します。
func (o *Overlay) Strokes() []domain.Stroke {
	out := make([]domain.Stroke, len(o.strokes))
	copy(out, o.strokes)
	return out
}

// Render はストロークを透明背景のラスタ画像へ描画して返します。
// 同じストローク列からは常に同じピクセルが得られます。
func (o *Overlay) Render() (image.Image, error) {
	dc := gg.NewContext(o.width, o.height)
	if err := paintStrokes(dc, o.strokes); err != nil {
		return nil, err
	}
	return dc.Image(), nil
}

// paintStrokes はストローク列を 1 本ずつ独立したパスとして描画します。
// 線の端点と折れ目は丸めます。点が 1 つだけのストロークは
// 線幅の半分を半径とする塗り潰し円として扱うのだ。
func paintStrokes(dc *gg.Context, strokes []domain.Stroke) error {
	dc.SetRGBA(brushRed, brushGreen, brushBlue, BrushAlpha)
	dc.SetLineCap(gg.LineCapRound)
	dc.SetLineJoin(gg.LineJoinRound)

	for _, s := range strokes {
		if s.Empty() {
			continue
		}
		if len(s.Points) == 1 {
			p := s.Points[0]
			dc.DrawCircle(p.X, p.Y, s.Width/2)
			if err := dc.Fill(); err != nil {
				return fmt.Errorf("マスク点の描画エラー: %w", err)
			}
			continue
		}
		dc.SetLineWidth(s.Width)
		dc.MoveTo(s.Points[0].X, s.Points[0].Y)
		for _, p := range s.Points[1:] {
			dc.LineTo(p.X, p.Y)
		}
		if err := dc.Stroke(); err != nil {
			return fmt.Errorf("マスクストロークの描画エラー: %w", err)
		}
	}
	return nil
}
