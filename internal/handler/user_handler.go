package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/plantcare/internal/auth"
	"github.com/hitoshi/plantcare/internal/metrics"
	"github.com/hitoshi/plantcare/internal/middleware"
	"github.com/hitoshi/plantcare/internal/model"
	"github.com/hitoshi/plantcare/internal/user"
)

// RegisterServiceInterface はユーザー登録に必要なサービスインターフェース。
type RegisterServiceInterface interface {
	Register(ctx context.Context, input auth.RegisterInput) (*model.User, error)
}

// UserServiceInterface はユーザー管理ハンドラーが必要とするサービスインターフェース。
type UserServiceInterface interface {
	Get(ctx context.Context, id string) (*model.User, error)
	Update(ctx context.Context, callerID, targetID string, input user.UpdateInput) (*model.User, error)
	Delete(ctx context.Context, callerID, targetID string) error
}

// UserHandler はユーザー管理のHTTPハンドラー。
type UserHandler struct {
	register  RegisterServiceInterface
	service   UserServiceInterface
	collector metrics.MetricsCollector
}

// NewUserHandler はUserHandlerを生成する。collectorはnil可。
func NewUserHandler(register RegisterServiceInterface, service UserServiceInterface, collector metrics.MetricsCollector) *UserHandler {
	return &UserHandler{
		register:  register,
		service:   service,
		collector: collector,
	}
}

// registerRequest はユーザー登録リクエストのボディ。
type registerRequest struct {
	Email      string `json:"email"`
	Username   string `json:"username"`
	Phone      string `json:"phone"`
	Password   string `json:"password"`
	IsBotanist bool   `json:"is_botanist"`
}

// updateUserRequest はプロフィール更新リクエストのボディ。
// nilのフィールドは変更しない。
type updateUserRequest struct {
	Email      *string `json:"email"`
	Username   *string `json:"username"`
	Phone      *string `json:"phone"`
	IsBotanist *bool   `json:"is_botanist"`
}

// Register は新規ユーザー登録を処理する。
// POST /users/
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBody(w)
		return
	}

	created, err := h.register.Register(r.Context(), auth.RegisterInput{
		Email:      req.Email,
		Username:   req.Username,
		Phone:      req.Phone,
		Password:   req.Password,
		IsBotanist: req.IsBotanist,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if h.collector != nil {
		h.collector.RecordRegistration(created.IsBotanist)
	}

	writeJSON(w, http.StatusCreated, created.View())
}

// Me は現在のユーザー情報を返す。
// GET /users/me/
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	u, err := h.service.Get(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, u.View())
}

// Update はプロフィールの部分更新を処理する。本人のみ実行できる。
// PUT /users/{id}
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	callerID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}
	targetID := chi.URLParam(r, "id")

	var req updateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBody(w)
		return
	}

	updated, err := h.service.Update(r.Context(), callerID, targetID, user.UpdateInput{
		Email:      req.Email,
		Username:   req.Username,
		Phone:      req.Phone,
		IsBotanist: req.IsBotanist,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, updated.View())
}

// Delete は自分自身のアカウント削除を処理する。
// DELETE /users/
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	if err := h.service.Delete(r.Context(), userID, userID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
