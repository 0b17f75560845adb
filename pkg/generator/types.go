package generator

// DefaultCompressionQuality は送信ペイロードを JPEG 再圧縮する際の既定品質です。
const DefaultCompressionQuality = 75

// ImageOutput は Core の内部解析結果
type ImageOutput struct {
	Data     []byte
	MimeType string
	UsedSeed int64
}
