package web

import (
	"context"
	"net/http"
	"time"

	"github.com/shouni/gemini-canvas-kit/pkg/session"
)

const (
	// SessionCookieName はセッション ID を保持するクッキー名です。
	SessionCookieName = "canvas_session"

	// SessionExpiry はセッションクッキーの有効期間です。
	SessionExpiry = 24 * time.Hour
)

// contextKey はコンテキストキーの衝突を避けるための非公開型です。
type contextKey int

const sessionIDKey contextKey = iota

// GetSessionID はリクエストコンテキストからセッション ID を取り出します。
// 未設定の場合は空文字列を返します。
func GetSessionID(ctx context.Context) string {
	if id, ok := ctx.Value(sessionIDKey).(string); ok {
		return id
	}
	return ""
}

func setSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionIDKey, id)
}

// SessionMiddleware は全リクエストにセッション ID を割り当てます。
// 有効なクッキーがあればその ID を使い、無ければ新規発行してクッキーを
// 設定します。ID はコンテキスト経由で各ハンドラへ渡されます。
func SessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var id string

		if cookie, err := r.Cookie(SessionCookieName); err == nil && session.ValidID(cookie.Value) {
			id = cookie.Value
		}

		if id == "" {
			id = session.NewID()
			http.SetCookie(w, &http.Cookie{
				Name:     SessionCookieName,
				Value:    id,
				Path:     "/",
				MaxAge:   int(SessionExpiry.Seconds()),
				HttpOnly: true,
				SameSite: http.SameSiteStrictMode,
			})
		}

		next.ServeHTTP(w, r.WithContext(setSessionID(r.Context(), id)))
	})
}
