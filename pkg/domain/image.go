package domain

// Image は生成・編集で受け渡される単一のラスタ画像です。
// 一度生成された Image の Data を書き換えてはいけません（イミュータブル扱い）。
type Image struct {
	Data     []byte `json:"data"`
	MimeType string `json:"mime_type"`
}

// Empty は画像データを持たない場合に true を返します。
func (i Image) Empty() bool {
	return len(i.Data) == 0
}

// AspectRatio は生成時に指定できるアスペクト比です。
// Gemini 画像モデルが受け付ける固定セットのみを許容します。
type AspectRatio string

const (
	AspectSquare    AspectRatio = "1:1"
	AspectWide      AspectRatio = "16:9"
	AspectTall      AspectRatio = "9:16"
	AspectLandscape AspectRatio = "4:3"
	AspectPortrait  AspectRatio = "3:4"

	// DefaultAspectRatio は未指定時に使うアスペクト比なのだ。
	DefaultAspectRatio = AspectSquare
)

// AspectRatios は許容されるアスペクト比の一覧を UI 表示順で返します。
func AspectRatios() []AspectRatio {
	return []AspectRatio{AspectSquare, AspectWide, AspectTall, AspectLandscape, AspectPortrait}
}

// Valid は許容セットに含まれるアスペクト比かどうかを返します。
func (r AspectRatio) Valid() bool {
	switch r {
	case AspectSquare, AspectWide, AspectTall, AspectLandscape, AspectPortrait:
		return true
	}
	return false
}

// GenerateRequest は新規の画像生成要求です。
// Seed は nil でランダム、値指定で固定。SDK 側が int32 を期待するため
// 変換は generator 層で行います。
type GenerateRequest struct {
	Prompt      string
	AspectRatio AspectRatio
	Seed        *int64
}

// ImageResult はリモート生成・編集の成果物です。UsedSeed には実際に
// 適用されたシード値が入ります（未指定時は 0）。
type ImageResult struct {
	Image    Image
	UsedSeed int64
}

// EditRequest はマスク編集要求です。Source は編集前のオリジナル画像、
// Composite はオリジナルに半透明のハイライトを焼き込んだ合成画像です。
// リモートモデルは構造化マスクではなく、Composite に埋め込まれた視覚的な
// ハイライトを手掛かりに編集範囲を決定します。
type EditRequest struct {
	Prompt    string
	Source    Image
	Composite Image

	// MaskedRegion は Composite にハイライトが含まれるかどうか。
	// false の場合は画像全体への編集指示として送信します。
	MaskedRegion bool
}
