package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/shouni/gemini-canvas-kit/pkg/domain"
	"github.com/shouni/gemini-canvas-kit/pkg/generator"
	"github.com/shouni/gemini-canvas-kit/pkg/session"
)

//go:embed templates/* static/*
var embeddedFS embed.FS

const (
	// DefaultAddr は待ち受けアドレスの既定値です。
	DefaultAddr = "localhost:8080"

	// ReadTimeout はリクエスト読み取りの上限時間です。
	ReadTimeout = 15 * time.Second

	// WriteTimeout は応答書き込みの上限時間です。生成・編集ハンドラは
	// リモート呼び出しが長引くため、個別に期限を解除します。
	WriteTimeout = 15 * time.Second

	// IdleTimeout は Keep-Alive 接続の維持時間です。
	IdleTimeout = 60 * time.Second

	// ShutdownTimeout はグレースフルシャットダウンの待機上限です。
	ShutdownTimeout = 30 * time.Second

	// MaxRequestBodySize は JSON リクエストボディの上限サイズです。
	MaxRequestBodySize = 1 << 20
)

// Server はキャンバス UI と API を提供する HTTP サーバーです。
// セッションごとの状態遷移はすべて session.Manager 配下で行い、
// このレイヤーは入出力の変換と HTTP ステータスへの写像だけを担います。
type Server struct {
	addr      string
	server    *http.Server
	templates *template.Template
	manager   *session.Manager
	fetcher   generator.ImageFetcher
}

// indexData はトップページのテンプレートへ渡す初期値です。
type indexData struct {
	AspectRatios []domain.AspectRatio
	DefaultRatio domain.AspectRatio
}

// NewServer は依存を注入して Server を構築します。
// fetcher は nil を許容し、その場合 URL 取り込み API は無効になります。
func NewServer(addr string, manager *session.Manager, fetcher generator.ImageFetcher) (*Server, error) {
	if manager == nil {
		return nil, fmt.Errorf("manager (*session.Manager) is required")
	}
	if addr == "" {
		addr = DefaultAddr
	}

	tmpl, err := template.ParseFS(embeddedFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("テンプレートの解析エラー: %w", err)
	}

	s := &Server{
		addr:      addr,
		templates: tmpl,
		manager:   manager,
		fetcher:   fetcher,
	}

	mux := http.NewServeMux()
	s.registerRoutes(mux)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      SessionMiddleware(mux),
		ReadTimeout:  ReadTimeout,
		WriteTimeout: WriteTimeout,
		IdleTimeout:  IdleTimeout,
	}

	return s, nil
}

func (s *Server) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.Handle("GET /static/", http.FileServer(http.FS(embeddedFS)))

	mux.HandleFunc("GET /api/state", s.handleState)
	mux.HandleFunc("POST /api/generate", s.handleGenerate)
	mux.HandleFunc("POST /api/edit", s.handleEdit)
	mux.HandleFunc("POST /api/strokes", s.handleStrokes)
	mux.HandleFunc("POST /api/strokes/clear", s.handleClearStrokes)
	mux.HandleFunc("POST /api/undo", s.handleUndo)
	mux.HandleFunc("POST /api/reset", s.handleReset)
	mux.HandleFunc("POST /api/new", s.handleNew)
	mux.HandleFunc("POST /api/mode", s.handleMode)
	mux.HandleFunc("GET /api/image", s.handleImage)
	mux.HandleFunc("GET /api/export", s.handleExport)
	mux.HandleFunc("POST /api/import", s.handleImport)
}

// ListenAndServe はサーバーを起動し、ctx の取り消しでグレースフルに停止します。
func (s *Server) ListenAndServe(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		slog.Info("Webサーバーを起動します", "addr", s.addr)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()

		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("サーバー停止エラー: %w", err)
		}
		slog.Info("Webサーバーを停止しました")
		return nil

	case err := <-errCh:
		return fmt.Errorf("サーバーエラー: %w", err)
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	data := indexData{
		AspectRatios: domain.AspectRatios(),
		DefaultRatio: domain.DefaultAspectRatio,
	}
	if err := s.templates.ExecuteTemplate(w, "index.html", data); err != nil {
		slog.Error("テンプレートの実行エラー", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}
