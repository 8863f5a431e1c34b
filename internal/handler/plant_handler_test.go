package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/plantcare/internal/model"
	"github.com/hitoshi/plantcare/internal/plant"
)

// fakePlantService はテスト用のPlantServiceInterface実装。
type fakePlantService struct {
	createFn    func(ctx context.Context, ownerID string, input plant.CreateInput) (*model.Plant, error)
	updateFn    func(ctx context.Context, callerID, plantID string, input plant.UpdateInput) (*model.Plant, error)
	deleteFn    func(ctx context.Context, callerID, plantID string) error
	getFn       func(ctx context.Context, plantID string) (*model.Plant, error)
	listFn      func(ctx context.Context, callerID string) ([]*model.Plant, error)
	startCareFn func(ctx context.Context, callerID, plantID string) (*model.Plant, error)
	endCareFn   func(ctx context.Context, callerID, plantID string) (*model.Plant, error)
}

func (f *fakePlantService) Create(ctx context.Context, ownerID string, input plant.CreateInput) (*model.Plant, error) {
	return f.createFn(ctx, ownerID, input)
}

func (f *fakePlantService) Update(ctx context.Context, callerID, plantID string, input plant.UpdateInput) (*model.Plant, error) {
	return f.updateFn(ctx, callerID, plantID, input)
}

func (f *fakePlantService) Delete(ctx context.Context, callerID, plantID string) error {
	return f.deleteFn(ctx, callerID, plantID)
}

func (f *fakePlantService) Get(ctx context.Context, plantID string) (*model.Plant, error) {
	return f.getFn(ctx, plantID)
}

func (f *fakePlantService) ListMine(ctx context.Context, callerID string) ([]*model.Plant, error) {
	return f.listFn(ctx, callerID)
}

func (f *fakePlantService) ListOthers(ctx context.Context, callerID string) ([]*model.Plant, error) {
	return f.listFn(ctx, callerID)
}

func (f *fakePlantService) ListCareRequests(ctx context.Context, callerID string) ([]*model.Plant, error) {
	return f.listFn(ctx, callerID)
}

func (f *fakePlantService) StartCare(ctx context.Context, callerID, plantID string) (*model.Plant, error) {
	return f.startCareFn(ctx, callerID, plantID)
}

func (f *fakePlantService) EndCare(ctx context.Context, callerID, plantID string) (*model.Plant, error) {
	return f.endCareFn(ctx, callerID, plantID)
}

var _ PlantServiceInterface = (*fakePlantService)(nil)

// fakePhotoStore はテスト用のPhotoStore実装。
type fakePhotoStore struct {
	saved   []string
	removed []string
	saveErr error
}

func (f *fakePhotoStore) Save(ownerID, filename string, r io.Reader) (string, error) {
	if f.saveErr != nil {
		return "", f.saveErr
	}
	url := "/photos/" + ownerID + "_" + filename
	f.saved = append(f.saved, url)
	return url, nil
}

func (f *fakePhotoStore) Remove(photoURL string) error {
	f.removed = append(f.removed, photoURL)
	return nil
}

var _ PhotoStore = (*fakePhotoStore)(nil)

// multipartBody はテスト用のmultipartボディを組み立てる。
func multipartBody(t *testing.T, fields map[string]string, photoName string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("WriteField() error = %v", err)
		}
	}
	if photoName != "" {
		fw, err := mw.CreateFormFile("photo", photoName)
		if err != nil {
			t.Fatalf("CreateFormFile() error = %v", err)
		}
		fw.Write([]byte("fake image bytes"))
	}
	mw.Close()
	return &buf, mw.FormDataContentType()
}

func testPlant(id, ownerID string) *model.Plant {
	return &model.Plant{ID: id, Name: "モンステラ", Location: "リビング", OwnerID: ownerID}
}

func TestPlantCreate_WithPhoto(t *testing.T) {
	store := &fakePhotoStore{}
	svc := &fakePlantService{
		createFn: func(_ context.Context, ownerID string, input plant.CreateInput) (*model.Plant, error) {
			if input.Name != "モンステラ" || input.Location != "リビング" {
				t.Errorf("unexpected input: %+v", input)
			}
			if input.PhotoURL != "/photos/user-1_m.jpg" {
				t.Errorf("photo_url = %q", input.PhotoURL)
			}
			p := testPlant("plant-1", ownerID)
			p.PhotoURL = input.PhotoURL
			return p, nil
		},
	}
	h := NewPlantHandler(svc, store, nil)

	body, contentType := multipartBody(t, map[string]string{
		"name":     "モンステラ",
		"location": "リビング",
	}, "m.jpg")
	req := httptest.NewRequest(http.MethodPost, "/plants/", body)
	req.Header.Set("Content-Type", contentType)
	req = withUserID(req, "user-1")
	rec := httptest.NewRecorder()
	h.Create(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusCreated, rec.Body.String())
	}
	var got plantResponse
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if got.OwnerID != "user-1" || got.PhotoURL != "/photos/user-1_m.jpg" {
		t.Errorf("unexpected body: %+v", got)
	}
}

func TestPlantCreate_WithoutPhoto(t *testing.T) {
	svc := &fakePlantService{
		createFn: func(_ context.Context, ownerID string, input plant.CreateInput) (*model.Plant, error) {
			if input.PhotoURL != "" {
				t.Errorf("photo_url = %q, want empty", input.PhotoURL)
			}
			return testPlant("plant-1", ownerID), nil
		},
	}
	h := NewPlantHandler(svc, &fakePhotoStore{}, nil)

	body, contentType := multipartBody(t, map[string]string{
		"name":     "モンステラ",
		"location": "リビング",
	}, "")
	req := httptest.NewRequest(http.MethodPost, "/plants/", body)
	req.Header.Set("Content-Type", contentType)
	req = withUserID(req, "user-1")
	rec := httptest.NewRecorder()
	h.Create(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusCreated)
	}
}

func TestPlantCreate_ServiceErrorRemovesPhoto(t *testing.T) {
	store := &fakePhotoStore{}
	svc := &fakePlantService{
		createFn: func(_ context.Context, _ string, _ plant.CreateInput) (*model.Plant, error) {
			return nil, model.NewInvalidRequestError("nameは必須です")
		},
	}
	h := NewPlantHandler(svc, store, nil)

	body, contentType := multipartBody(t, map[string]string{"location": "窓際"}, "m.jpg")
	req := httptest.NewRequest(http.MethodPost, "/plants/", body)
	req.Header.Set("Content-Type", contentType)
	req = withUserID(req, "user-1")
	rec := httptest.NewRecorder()
	h.Create(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	if len(store.removed) != 1 {
		t.Errorf("orphaned photo should be removed, removed = %v", store.removed)
	}
}

func TestPlantUpdate_NonOwnerConflatedTo404(t *testing.T) {
	svc := &fakePlantService{
		getFn: func(_ context.Context, plantID string) (*model.Plant, error) {
			return testPlant(plantID, "someone-else"), nil
		},
		updateFn: func(_ context.Context, _, _ string, _ plant.UpdateInput) (*model.Plant, error) {
			return nil, model.NewPlantNotFoundError()
		},
	}
	h := NewPlantHandler(svc, &fakePhotoStore{}, nil)

	body, contentType := multipartBody(t, map[string]string{"name": "乗っ取り"}, "")
	req := httptest.NewRequest(http.MethodPut, "/plants/plant-1", body)
	req.Header.Set("Content-Type", contentType)
	req = withUserID(req, "intruder")
	req = withURLParam(req, "id", "plant-1")
	rec := httptest.NewRecorder()
	h.Update(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestPlantUpdate_ReplacesPhoto(t *testing.T) {
	store := &fakePhotoStore{}
	svc := &fakePlantService{
		getFn: func(_ context.Context, plantID string) (*model.Plant, error) {
			p := testPlant(plantID, "user-1")
			p.PhotoURL = "/photos/user-1_old.jpg"
			return p, nil
		},
		updateFn: func(_ context.Context, _, plantID string, input plant.UpdateInput) (*model.Plant, error) {
			p := testPlant(plantID, "user-1")
			if input.PhotoURL != nil {
				p.PhotoURL = *input.PhotoURL
			}
			return p, nil
		},
	}
	h := NewPlantHandler(svc, store, nil)

	body, contentType := multipartBody(t, nil, "new.jpg")
	req := httptest.NewRequest(http.MethodPut, "/plants/plant-1", body)
	req.Header.Set("Content-Type", contentType)
	req = withUserID(req, "user-1")
	req = withURLParam(req, "id", "plant-1")
	rec := httptest.NewRecorder()
	h.Update(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	if len(store.removed) != 1 || store.removed[0] != "/photos/user-1_old.jpg" {
		t.Errorf("old photo should be removed, removed = %v", store.removed)
	}
}

func TestPlantDelete(t *testing.T) {
	svc := &fakePlantService{
		deleteFn: func(_ context.Context, callerID, plantID string) error {
			if callerID != "user-1" || plantID != "plant-1" {
				t.Errorf("callerID = %q, plantID = %q", callerID, plantID)
			}
			return nil
		},
	}
	h := NewPlantHandler(svc, &fakePhotoStore{}, nil)

	req := withURLParam(withUserID(httptest.NewRequest(http.MethodDelete, "/plants/plant-1", nil), "user-1"), "id", "plant-1")
	rec := httptest.NewRecorder()
	h.Delete(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNoContent)
	}
}

func TestPlantList_EmptyIsJSONArray(t *testing.T) {
	svc := &fakePlantService{
		listFn: func(_ context.Context, _ string) ([]*model.Plant, error) {
			return nil, nil
		},
	}
	h := NewPlantHandler(svc, &fakePhotoStore{}, nil)

	req := withUserID(httptest.NewRequest(http.MethodGet, "/my_plants/", nil), "user-1")
	rec := httptest.NewRecorder()
	h.ListMine(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if got := rec.Body.String(); got != "[]\n" {
		t.Errorf("body = %q, want empty JSON array", got)
	}
}

func TestStartCareHandler(t *testing.T) {
	svc := &fakePlantService{
		startCareFn: func(_ context.Context, callerID, plantID string) (*model.Plant, error) {
			p := testPlant(plantID, "owner-1")
			p.CaretakerID = callerID
			return p, nil
		},
	}
	h := NewPlantHandler(svc, &fakePhotoStore{}, nil)

	req := withURLParam(withUserID(httptest.NewRequest(http.MethodPut, "/plants/plant-1/start-care", nil), "helper-1"), "id", "plant-1")
	rec := httptest.NewRecorder()
	h.StartCare(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	var got plantResponse
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if got.CaretakerID != "helper-1" || !got.InCare {
		t.Errorf("unexpected body: %+v", got)
	}
}

func TestEndCareHandler_NonCaretaker(t *testing.T) {
	svc := &fakePlantService{
		endCareFn: func(_ context.Context, _, _ string) (*model.Plant, error) {
			return nil, model.NewNotAuthorizedError()
		},
	}
	h := NewPlantHandler(svc, &fakePhotoStore{}, nil)

	req := withURLParam(withUserID(httptest.NewRequest(http.MethodPut, "/plants/plant-1/end-care", nil), "owner-1"), "id", "plant-1")
	rec := httptest.NewRecorder()
	h.EndCare(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusForbidden)
	}
}
