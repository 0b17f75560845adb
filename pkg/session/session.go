package session

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/shouni/gemini-canvas-kit/pkg/canvas"
	"github.com/shouni/gemini-canvas-kit/pkg/domain"
	"github.com/shouni/gemini-canvas-kit/pkg/generator"
	"github.com/shouni/gemini-canvas-kit/pkg/imgutil"
)

// Session は1ユーザー分のキャンバス状態を保持するコントローラです。
// 画像・履歴・マスク・モードの全ての遷移はこの型のメソッド経由で行い、
// 外部から状態を直接書き換えることはできません。
//
// リモート操作は二相で進みます。開始時に実行中フラグとエポックを取得し、
// ロックを持たずにリモート呼び出しを行い、確定時にエポックが進んでいたら
// 結果を破棄します。Undo や新規開始の後に届いた古い応答が状態を
// 上書きしないための防護なのだ。
type Session struct {
	id  string
	gen generator.ImageGenerator

	mu        sync.Mutex
	mode      domain.Mode
	current   *domain.Image
	imgWidth  int
	imgHeight int
	history   []domain.Image
	overlay   *canvas.Overlay
	prompt    string
	lastSeed  int64
	inFlight  bool
	lastError string
	epoch     uint64
	revision  uint64
	updatedAt time.Time
}

func newSession(id string, gen generator.ImageGenerator) *Session {
	return &Session{
		id:        id,
		gen:       gen,
		mode:      domain.ModeGenerate,
		updatedAt: time.Now(),
	}
}

// ID はセッション識別子を返します。
func (s *Session) ID() string { return s.id }

// Snapshot は UI に返すためのセッション状態の読み取り専用コピーです。
type Snapshot struct {
	Mode        domain.Mode `json:"mode"`
	HasImage    bool        `json:"has_image"`
	ImageWidth  int         `json:"image_width"`
	ImageHeight int         `json:"image_height"`
	HistoryLen  int         `json:"history_len"`
	CanUndo     bool        `json:"can_undo"`
	MaskStrokes int         `json:"mask_strokes"`
	Prompt      string      `json:"prompt"`
	LastSeed    int64       `json:"last_seed"`
	InFlight    bool        `json:"in_flight"`
	LastError   string      `json:"last_error,omitempty"`
	Revision    uint64      `json:"revision"`
}

// Snapshot は現在の状態を返します。
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		Mode:        s.mode,
		HasImage:    s.current != nil,
		ImageWidth:  s.imgWidth,
		ImageHeight: s.imgHeight,
		HistoryLen:  len(s.history),
		CanUndo:     len(s.history) > 1,
		Prompt:      s.prompt,
		LastSeed:    s.lastSeed,
		InFlight:    s.inFlight,
		LastError:   s.lastError,
		Revision:    s.revision,
	}
	if s.overlay != nil {
		snap.MaskStrokes = s.overlay.StrokeCount()
	}
	return snap
}

// CurrentImage は表示中の画像を返します。
func (s *Session) CurrentImage() (domain.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return domain.Image{}, domain.ErrNoCurrentImage
	}
	return *s.current, nil
}

// StartGeneration はプロンプトから新規画像を生成し、履歴をその1枚に
// 置き換えます。失敗時は lastError に記録するだけで既存の状態は守られます。
// 空白プロンプトは実行中フラグを立てる前に弾き、状態には一切触れません。
func (s *Session) StartGeneration(ctx context.Context, req domain.GenerateRequest) error {
	if strings.TrimSpace(req.Prompt) == "" {
		return domain.ErrEmptyPrompt
	}

	epoch, err := s.beginRemote()
	if err != nil {
		return err
	}

	result, err := s.gen.Generate(ctx, req)
	if err != nil {
		s.finishWithError(err)
		return err
	}

	return s.commit(epoch, func() {
		img := result.Image
		s.history = []domain.Image{img}
		s.setCurrent(&s.history[0])
		s.overlay = nil
		s.mode = domain.ModeGenerate
		s.prompt = req.Prompt
		s.lastSeed = result.UsedSeed
	})
}

// SubmitEdit は現在の画像とマスクから編集リクエストを送り、結果を履歴へ
// 追記します。マスクが空の場合は画像全体への編集として扱います。
func (s *Session) SubmitEdit(ctx context.Context, prompt string) error {
	epoch, src, overlay, err := s.beginEdit(prompt)
	if err != nil {
		return err
	}

	masked := overlay != nil && !overlay.Empty()
	ereq := domain.EditRequest{
		Prompt:       prompt,
		Source:       src,
		MaskedRegion: masked,
	}
	if masked {
		composite, err := canvas.Compose(src, overlay)
		if err != nil {
			err = fmt.Errorf("マスク合成エラー: %w", err)
			s.finishWithError(err)
			return err
		}
		ereq.Composite = composite
	}

	result, err := s.gen.EditWithMask(ctx, ereq)
	if err != nil {
		s.finishWithError(err)
		return err
	}

	return s.commit(epoch, func() {
		s.history = append(s.history, result.Image)
		s.setCurrent(&s.history[len(s.history)-1])
		s.overlay = nil
		s.prompt = prompt
		s.lastSeed = result.UsedSeed
	})
}

// AddStrokes は表示座標系のストロークをネイティブ座標系へ写像して
// マスクへ追記します。リモート操作の実行中は受け付けません。
func (s *Session) AddStrokes(displayW, displayH int, strokes []domain.Stroke) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.inFlight {
		return domain.ErrBusy
	}
	if s.current == nil {
		return domain.ErrNoCurrentImage
	}

	if s.overlay == nil {
		ov, err := canvas.NewOverlay(s.imgWidth, s.imgHeight)
		if err != nil {
			return fmt.Errorf("マスクレイヤー生成エラー: %w", err)
		}
		s.overlay = ov
	}

	sx := canvas.Scale(s.imgWidth, displayW)
	sy := canvas.Scale(s.imgHeight, displayH)
	for _, stroke := range strokes {
		s.overlay.Add(canvas.MapStroke(stroke, sx, sy))
	}

	s.touch()
	return nil
}

// ClearMask はマスクのストロークを全て消します。
func (s *Session) ClearMask() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.inFlight {
		return domain.ErrBusy
	}
	if s.overlay != nil {
		s.overlay.Clear()
	}
	s.touch()
	return nil
}

// Undo は履歴を1段戻します。履歴が1枚以下なら何もしません。
// エポックが進むため、実行中のリモート結果は届いても破棄されます。
func (s *Session) Undo() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.history) <= 1 {
		return nil
	}
	s.history = s.history[:len(s.history)-1]
	s.setCurrent(&s.history[len(s.history)-1])
	s.overlay = nil
	s.epoch++
	s.touch()
	return nil
}

// ResetToOriginal は履歴を最初の1枚まで巻き戻します。冪等です。
func (s *Session) ResetToOriginal() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.history) == 0 {
		return nil
	}
	if len(s.history) > 1 {
		s.history = s.history[:1]
		s.setCurrent(&s.history[0])
	}
	s.overlay = nil
	s.epoch++
	s.touch()
	return nil
}

// StartNew はセッションを初期状態へ戻します。
func (s *Session) StartNew() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = nil
	s.imgWidth = 0
	s.imgHeight = 0
	s.history = nil
	s.overlay = nil
	s.prompt = ""
	s.lastSeed = 0
	s.lastError = ""
	s.mode = domain.ModeGenerate
	s.epoch++
	s.revision++
	s.touch()
	return nil
}

// SetMode は操作モードを切り替えます。編集モードは画像がある時だけ有効です。
func (s *Session) SetMode(mode domain.Mode) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !mode.Valid() {
		return fmt.Errorf("%w: %s", domain.ErrInvalidMode, mode)
	}
	if mode == domain.ModeEdit && s.current == nil {
		return domain.ErrNoCurrentImage
	}
	s.mode = mode
	s.touch()
	return nil
}

// ImportImage は外部から取得した画像で編集セッションを開始します。
// 履歴はその1枚に置き換わり、モードは編集に切り替わります。
func (s *Session) ImportImage(data []byte, mimeType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.inFlight {
		return domain.ErrBusy
	}
	if len(data) == 0 {
		return domain.ErrNoImageData
	}
	if _, _, err := imgutil.DecodeBounds(data); err != nil {
		return fmt.Errorf("取り込み画像のデコードエラー: %w", err)
	}

	s.history = []domain.Image{{Data: data, MimeType: mimeType}}
	s.setCurrent(&s.history[0])
	s.overlay = nil
	s.prompt = ""
	s.lastError = ""
	s.mode = domain.ModeEdit
	s.epoch++
	s.touch()
	return nil
}

// --- 内部ヘルパー (すべて呼び出し側でロック済みであることが前提) ---

// setCurrent は表示画像と付随する寸法・リビジョンを更新します。
func (s *Session) setCurrent(img *domain.Image) {
	s.current = img
	s.revision++
	s.imgWidth = 0
	s.imgHeight = 0
	if img != nil {
		if w, h, err := imgutil.DecodeBounds(img.Data); err == nil {
			s.imgWidth = w
			s.imgHeight = h
		}
	}
}

func (s *Session) touch() {
	s.updatedAt = time.Now()
}

func (s *Session) lastTouched() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updatedAt
}

func (s *Session) busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inFlight
}

// beginRemote はリモート操作の開始を予約し、現在のエポックを返します。
func (s *Session) beginRemote() (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.inFlight {
		return 0, domain.ErrBusy
	}
	s.inFlight = true
	s.touch()
	return s.epoch, nil
}

// beginEdit は編集操作の前提条件を検証した上で開始を予約し、
// リモート呼び出しに必要な状態のスナップショットを返します。
func (s *Session) beginEdit(prompt string) (uint64, domain.Image, *canvas.Overlay, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.inFlight {
		return 0, domain.Image{}, nil, domain.ErrBusy
	}
	if s.current == nil {
		s.lastError = domain.ErrNoCurrentImage.Error()
		return 0, domain.Image{}, nil, domain.ErrNoCurrentImage
	}
	if strings.TrimSpace(prompt) == "" {
		s.lastError = domain.ErrEmptyPrompt.Error()
		return 0, domain.Image{}, nil, domain.ErrEmptyPrompt
	}

	s.inFlight = true
	s.touch()
	return s.epoch, *s.current, s.overlay, nil
}

// finishWithError はリモート操作の失敗を記録します。既存の画像・履歴は
// 一切変更しません。
func (s *Session) finishWithError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.inFlight = false
	s.lastError = err.Error()
	s.touch()
}

// commit はエポックが進んでいなければ apply を適用し、進んでいた場合は
// 結果を破棄して ErrSuperseded を返します。
func (s *Session) commit(epoch uint64, apply func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.inFlight = false
	s.touch()

	if s.epoch != epoch {
		s.lastError = domain.ErrSuperseded.Error()
		return domain.ErrSuperseded
	}

	apply()
	s.lastError = ""
	return nil
}
