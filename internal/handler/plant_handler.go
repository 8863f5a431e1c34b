package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/plantcare/internal/metrics"
	"github.com/hitoshi/plantcare/internal/middleware"
	"github.com/hitoshi/plantcare/internal/model"
	"github.com/hitoshi/plantcare/internal/plant"
)

// maxMultipartMemory はmultipartフォーム解析時にメモリへ保持する上限。
// 超過分は一時ファイルに退避される。
const maxMultipartMemory = 8 << 20

// PlantServiceInterface は植物ハンドラーが必要とするサービスインターフェース。
type PlantServiceInterface interface {
	Create(ctx context.Context, ownerID string, input plant.CreateInput) (*model.Plant, error)
	Update(ctx context.Context, callerID, plantID string, input plant.UpdateInput) (*model.Plant, error)
	Delete(ctx context.Context, callerID, plantID string) error
	Get(ctx context.Context, plantID string) (*model.Plant, error)
	ListMine(ctx context.Context, callerID string) ([]*model.Plant, error)
	ListOthers(ctx context.Context, callerID string) ([]*model.Plant, error)
	ListCareRequests(ctx context.Context, callerID string) ([]*model.Plant, error)
	StartCare(ctx context.Context, callerID, plantID string) (*model.Plant, error)
	EndCare(ctx context.Context, callerID, plantID string) (*model.Plant, error)
}

// PhotoStore は写真ファイルの保存・削除のインターフェース。
type PhotoStore interface {
	Save(ownerID, filename string, r io.Reader) (string, error)
	Remove(photoURL string) error
}

// PlantHandler は植物管理のHTTPハンドラー。
type PlantHandler struct {
	service   PlantServiceInterface
	photos    PhotoStore
	collector metrics.MetricsCollector
}

// NewPlantHandler はPlantHandlerを生成する。collectorはnil可。
func NewPlantHandler(service PlantServiceInterface, photos PhotoStore, collector metrics.MetricsCollector) *PlantHandler {
	return &PlantHandler{
		service:   service,
		photos:    photos,
		collector: collector,
	}
}

// plantResponse は植物情報のAPIレスポンス。
type plantResponse struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Location         string `json:"location"`
	CareInstructions string `json:"care_instructions,omitempty"`
	PhotoURL         string `json:"photo_url,omitempty"`
	OwnerID          string `json:"owner_id"`
	CaretakerID      string `json:"caretaker_id,omitempty"`
	InCare           bool   `json:"in_care"`
}

// toPlantResponse はmodel.PlantからAPIレスポンスに変換する。
func toPlantResponse(p *model.Plant) plantResponse {
	return plantResponse{
		ID:               p.ID,
		Name:             p.Name,
		Location:         p.Location,
		CareInstructions: p.CareInstructions,
		PhotoURL:         p.PhotoURL,
		OwnerID:          p.OwnerID,
		CaretakerID:      p.CaretakerID,
		InCare:           p.InCare(),
	}
}

// toPlantListResponse はレスポンス用のスライスに変換する。空リストはnullではなく[]で返す。
func toPlantListResponse(plants []*model.Plant) []plantResponse {
	result := make([]plantResponse, 0, len(plants))
	for _, p := range plants {
		result = append(result, toPlantResponse(p))
	}
	return result
}

// savePhotoIfPresent はmultipartフォームのphotoフィールドを保存し、URLを返す。
// photoフィールドが無い場合は空文字列とfalseを返す。
func (h *PlantHandler) savePhotoIfPresent(r *http.Request, ownerID string) (string, bool, error) {
	file, header, err := r.FormFile("photo")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return "", false, nil
		}
		return "", false, model.NewInvalidRequestError("photoフィールドの読み取りに失敗しました")
	}
	defer file.Close()

	url, err := h.photos.Save(ownerID, header.Filename, file)
	if err != nil {
		return "", false, err
	}
	return url, true, nil
}

// Create は植物の登録を処理する。multipart/form-dataを受け付ける。
// POST /plants/
func (h *PlantHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest,
			model.NewInvalidRequestError("multipartフォームの解析に失敗しました"))
		return
	}
	defer cleanupMultipart(r.MultipartForm)

	photoURL, _, err := h.savePhotoIfPresent(r, userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	created, err := h.service.Create(r.Context(), userID, plant.CreateInput{
		Name:             r.PostFormValue("name"),
		Location:         r.PostFormValue("location"),
		CareInstructions: r.PostFormValue("care_instructions"),
		PhotoURL:         photoURL,
	})
	if err != nil {
		// 植物の登録に失敗した場合、保存済みの写真は孤児となるため削除する
		if photoURL != "" {
			if rmErr := h.photos.Remove(photoURL); rmErr != nil {
				slog.Warn("failed to remove orphaned photo", slog.String("error", rmErr.Error()))
			}
		}
		handleServiceError(w, err)
		return
	}

	if h.collector != nil {
		h.collector.RecordPlantCreated()
	}

	writeJSON(w, http.StatusCreated, toPlantResponse(created))
}

// Update は植物情報の更新を処理する。所有者のみ実行できる。
// 新しい写真が添付された場合は古いファイルを置き換える。
// PUT /plants/{id}
func (h *PlantHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}
	plantID := chi.URLParam(r, "id")

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest,
			model.NewInvalidRequestError("multipartフォームの解析に失敗しました"))
		return
	}
	defer cleanupMultipart(r.MultipartForm)

	input := plant.UpdateInput{}
	if v, ok := formValue(r, "name"); ok {
		input.Name = &v
	}
	if v, ok := formValue(r, "location"); ok {
		input.Location = &v
	}
	if v, ok := formValue(r, "care_instructions"); ok {
		input.CareInstructions = &v
	}

	// 写真の差し替えは所有権確認の後に行いたいため、先に現状を取得する
	current, err := h.service.Get(r.Context(), plantID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	photoURL, hasPhoto, err := h.savePhotoIfPresent(r, userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if hasPhoto {
		input.PhotoURL = &photoURL
	}

	updated, err := h.service.Update(r.Context(), userID, plantID, input)
	if err != nil {
		if hasPhoto {
			if rmErr := h.photos.Remove(photoURL); rmErr != nil {
				slog.Warn("failed to remove orphaned photo", slog.String("error", rmErr.Error()))
			}
		}
		handleServiceError(w, err)
		return
	}

	// 旧ファイルの掃除はベストエフォート
	if hasPhoto && current.PhotoURL != "" && current.PhotoURL != photoURL {
		if rmErr := h.photos.Remove(current.PhotoURL); rmErr != nil {
			slog.Warn("failed to remove replaced photo", slog.String("error", rmErr.Error()))
		}
	}

	writeJSON(w, http.StatusOK, toPlantResponse(updated))
}

// Delete は植物の削除を処理する。所有者のみ実行できる。
// DELETE /plants/{id}
func (h *PlantHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}
	plantID := chi.URLParam(r, "id")

	if err := h.service.Delete(r.Context(), userID, plantID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListMine は自分が所有する植物の一覧を返す。
// GET /my_plants/
func (h *PlantHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	plants, err := h.service.ListMine(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toPlantListResponse(plants))
}

// ListOthers は自分以外のユーザーが所有する植物の一覧を返す。
// GET /all_plants/
func (h *PlantHandler) ListOthers(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	plants, err := h.service.ListOthers(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toPlantListResponse(plants))
}

// ListCareRequests はケア中かつ自分以外の植物の一覧を返す。
// GET /care-requests/
func (h *PlantHandler) ListCareRequests(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	plants, err := h.service.ListCareRequests(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toPlantListResponse(plants))
}

// StartCare は植物のケア開始を処理する。
// PUT /plants/{id}/start-care
func (h *PlantHandler) StartCare(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}
	plantID := chi.URLParam(r, "id")

	updated, err := h.service.StartCare(r.Context(), userID, plantID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if h.collector != nil {
		h.collector.RecordCareStarted()
	}

	writeJSON(w, http.StatusOK, toPlantResponse(updated))
}

// EndCare は植物のケア終了を処理する。現在の担当者のみ実行できる。
// PUT /plants/{id}/end-care
func (h *PlantHandler) EndCare(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}
	plantID := chi.URLParam(r, "id")

	updated, err := h.service.EndCare(r.Context(), userID, plantID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if h.collector != nil {
		h.collector.RecordCareEnded()
	}

	writeJSON(w, http.StatusOK, toPlantResponse(updated))
}

// formValue はフォームフィールドの値と存在有無を返す。
func formValue(r *http.Request, key string) (string, bool) {
	if r.MultipartForm == nil {
		return "", false
	}
	values, ok := r.MultipartForm.Value[key]
	if !ok || len(values) == 0 {
		return "", false
	}
	return values[0], true
}

// cleanupMultipart はmultipart解析時の一時ファイルを削除する。
func cleanupMultipart(form *multipart.Form) {
	if form != nil {
		form.RemoveAll()
	}
}
