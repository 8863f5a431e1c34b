package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/plantcare/internal/metrics"
	"github.com/hitoshi/plantcare/internal/model"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	// Login は認証に成功した場合にアクセストークンを発行する。
	Login(ctx context.Context, email, password string) (string, error)
}

// AuthHandler は認証のHTTPハンドラー。
type AuthHandler struct {
	service   AuthServiceInterface
	collector metrics.MetricsCollector
}

// NewAuthHandler はAuthHandlerを生成する。collectorはnil可。
func NewAuthHandler(service AuthServiceInterface, collector metrics.MetricsCollector) *AuthHandler {
	return &AuthHandler{
		service:   service,
		collector: collector,
	}
}

// tokenResponse はトークン発行のAPIレスポンス。
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Token はパスワードログインを処理する。
// POST /token
//
// OAuth2のパスワードフローと互換のフォームエンコードを受け付ける。
// usernameフィールドにはemailを指定する。
func (h *AuthHandler) Token(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest,
			model.NewInvalidRequestError("フォームの解析に失敗しました"))
		return
	}

	email := r.PostFormValue("username")
	password := r.PostFormValue("password")
	if email == "" || password == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest,
			model.NewInvalidRequestError("usernameとpasswordは必須です"))
		return
	}

	token, err := h.service.Login(r.Context(), email, password)
	if err != nil {
		if h.collector != nil {
			h.collector.RecordAuthFailure()
		}
		handleServiceError(w, err)
		return
	}

	if h.collector != nil {
		h.collector.RecordLogin()
	}

	writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
	})
}
