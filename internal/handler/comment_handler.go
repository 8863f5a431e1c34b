package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/plantcare/internal/metrics"
	"github.com/hitoshi/plantcare/internal/middleware"
	"github.com/hitoshi/plantcare/internal/model"
)

// CommentServiceInterface はコメントハンドラーが必要とするサービスインターフェース。
type CommentServiceInterface interface {
	Create(ctx context.Context, userID, plantID, text string) (*model.Comment, error)
	ListByPlant(ctx context.Context, plantID string) ([]*model.Comment, error)
	ListByUser(ctx context.Context, userID string) ([]*model.Comment, error)
	Update(ctx context.Context, callerID, commentID, text string) (*model.Comment, error)
	Delete(ctx context.Context, callerID, commentID string) error
}

// CommentHandler はコメント管理のHTTPハンドラー。
type CommentHandler struct {
	service   CommentServiceInterface
	collector metrics.MetricsCollector
}

// NewCommentHandler はCommentHandlerを生成する。collectorはnil可。
func NewCommentHandler(service CommentServiceInterface, collector metrics.MetricsCollector) *CommentHandler {
	return &CommentHandler{
		service:   service,
		collector: collector,
	}
}

// createCommentRequest はコメント投稿リクエストのボディ。
type createCommentRequest struct {
	PlantID string `json:"plant_id"`
	Comment string `json:"comment"`
}

// updateCommentRequest はコメント編集リクエストのボディ。
type updateCommentRequest struct {
	Comment string `json:"comment"`
}

// commentResponse はコメント情報のAPIレスポンス。
type commentResponse struct {
	ID        string    `json:"id"`
	PlantID   string    `json:"plant_id"`
	UserID    string    `json:"user_id"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// toCommentResponse はmodel.CommentからAPIレスポンスに変換する。
func toCommentResponse(c *model.Comment) commentResponse {
	return commentResponse{
		ID:        c.ID,
		PlantID:   c.PlantID,
		UserID:    c.UserID,
		Comment:   c.Comment,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

// toCommentListResponse はレスポンス用のスライスに変換する。空リストはnullではなく[]で返す。
func toCommentListResponse(comments []*model.Comment) []commentResponse {
	result := make([]commentResponse, 0, len(comments))
	for _, c := range comments {
		result = append(result, toCommentResponse(c))
	}
	return result
}

// Create はコメントの投稿を処理する。
// POST /comments/
func (h *CommentHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	var req createCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBody(w)
		return
	}
	if req.PlantID == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest,
			model.NewInvalidRequestError("plant_idは必須です"))
		return
	}

	created, err := h.service.Create(r.Context(), userID, req.PlantID, req.Comment)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if h.collector != nil {
		h.collector.RecordCommentCreated()
	}

	writeJSON(w, http.StatusCreated, toCommentResponse(created))
}

// ListByPlant は植物のコメント一覧を返す。
// GET /plants/{id}/comments/
func (h *CommentHandler) ListByPlant(w http.ResponseWriter, r *http.Request) {
	plantID := chi.URLParam(r, "id")

	comments, err := h.service.ListByPlant(r.Context(), plantID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toCommentListResponse(comments))
}

// ListByUser はユーザーが投稿したコメント一覧を返す。
// GET /users/{id}/comments/
func (h *CommentHandler) ListByUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")

	comments, err := h.service.ListByUser(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toCommentListResponse(comments))
}

// Update はコメントの編集を処理する。投稿者のみ実行できる。
// PUT /comments/{id}
func (h *CommentHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}
	commentID := chi.URLParam(r, "id")

	var req updateCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBody(w)
		return
	}

	updated, err := h.service.Update(r.Context(), userID, commentID, req.Comment)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toCommentResponse(updated))
}

// Delete はコメントの削除を処理する。投稿者または植物のオーナーが実行できる。
// DELETE /comments/{id}
func (h *CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}
	commentID := chi.URLParam(r, "id")

	if err := h.service.Delete(r.Context(), userID, commentID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
