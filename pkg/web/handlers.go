package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/shouni/gemini-canvas-kit/pkg/domain"
	"github.com/shouni/gemini-canvas-kit/pkg/imgutil"
	"github.com/shouni/gemini-canvas-kit/pkg/session"
)

type generateRequest struct {
	Prompt      string `json:"prompt"`
	AspectRatio string `json:"aspect_ratio"`
	Seed        *int64 `json:"seed,omitempty"`
}

type editRequest struct {
	Prompt string `json:"prompt"`
}

type strokesRequest struct {
	DisplayWidth  int             `json:"display_width"`
	DisplayHeight int             `json:"display_height"`
	Strokes       []domain.Stroke `json:"strokes"`
}

type modeRequest struct {
	Mode string `json:"mode"`
}

type importRequest struct {
	URL string `json:"url"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// sessionFor は現在のリクエストに紐づくセッションを返します。
// セッション ID はミドルウェアが必ず設定しています。
func (s *Server) sessionFor(r *http.Request) *session.Session {
	return s.manager.GetOrCreate(GetSessionID(r.Context()))
}

func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBodySize)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("リクエストボディの解析エラー: %w", err)
	}
	return nil
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("JSON応答の書き込みエラー", "error", err)
	}
}

// writeError はエラーを JSON エンベロープで返し、サーバー側にも記録します。
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	slog.Warn("APIリクエストが失敗しました",
		"method", r.Method, "path", r.URL.Path, "status", status, "error", err)
	s.writeJSON(w, status, errorResponse{Error: err.Error()})
}

func (s *Server) writeMappedError(w http.ResponseWriter, r *http.Request, err error) {
	s.writeError(w, r, statusForError(err), err)
}

// statusForError はドメインの番兵エラーを HTTP ステータスへ対応付けます。
// 入力の不備は 400、進行中リクエストとの競合は 409、資格情報の未設定は
// 503、それ以外はリモート呼び出し起因として 502 に倒します。
func statusForError(err error) int {
	switch {
	case errors.Is(err, domain.ErrEmptyPrompt),
		errors.Is(err, domain.ErrInvalidAspectRatio),
		errors.Is(err, domain.ErrInvalidMode),
		errors.Is(err, domain.ErrNoCurrentImage),
		errors.Is(err, domain.ErrNoImageData):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrBusy), errors.Is(err, domain.ErrSuperseded):
		return http.StatusConflict
	case errors.Is(err, domain.ErrNotConfigured):
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}

// disableWriteDeadline はこのリクエストの書き込み期限を解除します。
// リモート生成はサーバー全体の WriteTimeout を超えることがあります。
func disableWriteDeadline(w http.ResponseWriter) {
	rc := http.NewResponseController(w)
	_ = rc.SetWriteDeadline(time.Time{})
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.sessionFor(r).Snapshot())
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	}
	disableWriteDeadline(w)

	sess := s.sessionFor(r)
	err := sess.StartGeneration(r.Context(), domain.GenerateRequest{
		Prompt:      req.Prompt,
		AspectRatio: domain.AspectRatio(req.AspectRatio),
		Seed:        req.Seed,
	})
	if err != nil {
		s.writeMappedError(w, r, err)
		return
	}

	snap := sess.Snapshot()
	slog.Info("画像生成が完了しました", "session", sess.ID(), "revision", snap.Revision)
	s.writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleEdit(w http.ResponseWriter, r *http.Request) {
	var req editRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	}
	disableWriteDeadline(w)

	sess := s.sessionFor(r)
	if err := sess.SubmitEdit(r.Context(), req.Prompt); err != nil {
		s.writeMappedError(w, r, err)
		return
	}

	snap := sess.Snapshot()
	slog.Info("マスク編集が完了しました",
		"session", sess.ID(), "revision", snap.Revision, "history_len", snap.HistoryLen)
	s.writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleStrokes(w http.ResponseWriter, r *http.Request) {
	var req strokesRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	}

	sess := s.sessionFor(r)
	if err := sess.AddStrokes(req.DisplayWidth, req.DisplayHeight, req.Strokes); err != nil {
		s.writeMappedError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, sess.Snapshot())
}

func (s *Server) handleClearStrokes(w http.ResponseWriter, r *http.Request) {
	sess := s.sessionFor(r)
	if err := sess.ClearMask(); err != nil {
		s.writeMappedError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, sess.Snapshot())
}

func (s *Server) handleUndo(w http.ResponseWriter, r *http.Request) {
	sess := s.sessionFor(r)
	if err := sess.Undo(); err != nil {
		s.writeMappedError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, sess.Snapshot())
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	sess := s.sessionFor(r)
	if err := sess.ResetToOriginal(); err != nil {
		s.writeMappedError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, sess.Snapshot())
}

func (s *Server) handleNew(w http.ResponseWriter, r *http.Request) {
	sess := s.sessionFor(r)
	if err := sess.StartNew(); err != nil {
		s.writeMappedError(w, r, err)
		return
	}
	slog.Info("セッションを初期状態に戻しました", "session", sess.ID())
	s.writeJSON(w, http.StatusOK, sess.Snapshot())
}

func (s *Server) handleMode(w http.ResponseWriter, r *http.Request) {
	var req modeRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	}

	sess := s.sessionFor(r)
	if err := sess.SetMode(domain.Mode(req.Mode)); err != nil {
		s.writeMappedError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, sess.Snapshot())
}

func (s *Server) handleImage(w http.ResponseWriter, r *http.Request) {
	img, err := s.sessionFor(r).CurrentImage()
	if err != nil {
		s.writeError(w, r, http.StatusNotFound, err)
		return
	}

	w.Header().Set("Content-Type", img.MimeType)
	w.Header().Set("Cache-Control", "no-store")
	if _, err := w.Write(img.Data); err != nil {
		slog.Warn("画像応答の書き込みエラー", "error", err)
	}
}

// handleExport は現在の画像を PNG の添付ファイルとして返します。
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	img, err := s.sessionFor(r).CurrentImage()
	if err != nil {
		s.writeError(w, r, http.StatusNotFound, err)
		return
	}

	data := img.Data
	if img.MimeType != "image/png" {
		data, err = imgutil.EncodeToPNG(img.Data)
		if err != nil {
			s.writeError(w, r, http.StatusInternalServerError,
				fmt.Errorf("エクスポート画像のPNG変換エラー: %w", err))
			return
		}
	}

	filename := "gemini-canvas-" + time.Now().Format("20060102-150405") + ".png"
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if _, err := w.Write(data); err != nil {
		slog.Warn("エクスポート応答の書き込みエラー", "error", err)
	}
}

// handleImport は URL から参照画像を取得し、編集セッションの起点にします。
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	var req importRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	}
	if strings.TrimSpace(req.URL) == "" {
		s.writeError(w, r, http.StatusBadRequest, fmt.Errorf("url is required"))
		return
	}
	if s.fetcher == nil {
		s.writeError(w, r, http.StatusServiceUnavailable,
			fmt.Errorf("画像取り込みは無効です: %w", domain.ErrNotConfigured))
		return
	}
	disableWriteDeadline(w)

	data, mimeType, err := s.fetcher.FetchImage(r.Context(), req.URL)
	if err != nil {
		s.writeError(w, r, http.StatusBadGateway, err)
		return
	}

	sess := s.sessionFor(r)
	if err := sess.ImportImage(data, mimeType); err != nil {
		status := statusForError(err)
		if status == http.StatusBadGateway {
			// 取り込みの失敗はリモート起因ではなく入力データの問題
			status = http.StatusBadRequest
		}
		s.writeError(w, r, status, err)
		return
	}

	snap := sess.Snapshot()
	slog.Info("参照画像を取り込みました",
		"session", sess.ID(), "mime_type", mimeType, "bytes", len(data), "revision", snap.Revision)
	s.writeJSON(w, http.StatusOK, snap)
}
