package domain

// Mode はセッションの操作モードです。
type Mode string

const (
	// ModeGenerate はプロンプトのみから新規画像を生成するモード。
	ModeGenerate Mode = "generate"
	// ModeEdit は表示中の画像にマスクを描いて部分編集するモード。
	ModeEdit Mode = "edit"
)

// Valid は定義済みモードかどうかを返します。
func (m Mode) Valid() bool {
	return m == ModeGenerate || m == ModeEdit
}

// Point はキャンバス上の座標です。単位はセッションに取り込まれた時点で
// 画像のネイティブピクセルに統一されます。
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Stroke はブラシによるひと筆分の軌跡です。Points が 1 点のみの場合は
// 直径 Width の点として描画されます。
type Stroke struct {
	Width  float64 `json:"width"`
	Points []Point `json:"points"`
}

// Empty は描画すべき点を持たない場合に true を返します。
func (s Stroke) Empty() bool {
	return len(s.Points) == 0
}
