package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hitoshi/plantcare/internal/model"
)

// fakeCommentService はテスト用のCommentServiceInterface実装。
type fakeCommentService struct {
	createFn      func(ctx context.Context, userID, plantID, text string) (*model.Comment, error)
	listByPlantFn func(ctx context.Context, plantID string) ([]*model.Comment, error)
	listByUserFn  func(ctx context.Context, userID string) ([]*model.Comment, error)
	updateFn      func(ctx context.Context, callerID, commentID, text string) (*model.Comment, error)
	deleteFn      func(ctx context.Context, callerID, commentID string) error
}

func (f *fakeCommentService) Create(ctx context.Context, userID, plantID, text string) (*model.Comment, error) {
	return f.createFn(ctx, userID, plantID, text)
}

func (f *fakeCommentService) ListByPlant(ctx context.Context, plantID string) ([]*model.Comment, error) {
	return f.listByPlantFn(ctx, plantID)
}

func (f *fakeCommentService) ListByUser(ctx context.Context, userID string) ([]*model.Comment, error) {
	return f.listByUserFn(ctx, userID)
}

func (f *fakeCommentService) Update(ctx context.Context, callerID, commentID, text string) (*model.Comment, error) {
	return f.updateFn(ctx, callerID, commentID, text)
}

func (f *fakeCommentService) Delete(ctx context.Context, callerID, commentID string) error {
	return f.deleteFn(ctx, callerID, commentID)
}

var _ CommentServiceInterface = (*fakeCommentService)(nil)

func TestCommentCreate(t *testing.T) {
	svc := &fakeCommentService{
		createFn: func(_ context.Context, userID, plantID, text string) (*model.Comment, error) {
			if userID != "user-1" || plantID != "plant-1" {
				t.Errorf("userID = %q, plantID = %q", userID, plantID)
			}
			return &model.Comment{ID: "comment-1", PlantID: plantID, UserID: userID, Comment: text}, nil
		},
	}
	h := NewCommentHandler(svc, nil)

	req := httptest.NewRequest(http.MethodPost, "/comments/",
		strings.NewReader(`{"plant_id":"plant-1","comment":"元気ですね"}`))
	req = withUserID(req, "user-1")
	rec := httptest.NewRecorder()
	h.Create(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusCreated)
	}
	var got commentResponse
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if got.Comment != "元気ですね" {
		t.Errorf("comment = %q", got.Comment)
	}
}

func TestCommentCreate_MissingPlantID(t *testing.T) {
	h := NewCommentHandler(&fakeCommentService{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/comments/",
		strings.NewReader(`{"comment":"テスト"}`))
	req = withUserID(req, "user-1")
	rec := httptest.NewRecorder()
	h.Create(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestCommentUpdate_NonAuthor(t *testing.T) {
	svc := &fakeCommentService{
		updateFn: func(_ context.Context, _, _, _ string) (*model.Comment, error) {
			return nil, model.NewNotAuthorizedError()
		},
	}
	h := NewCommentHandler(svc, nil)

	req := httptest.NewRequest(http.MethodPut, "/comments/comment-1",
		strings.NewReader(`{"comment":"書き換え"}`))
	req = withUserID(req, "intruder")
	req = withURLParam(req, "id", "comment-1")
	rec := httptest.NewRecorder()
	h.Update(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusForbidden)
	}
}

func TestCommentDelete(t *testing.T) {
	svc := &fakeCommentService{
		deleteFn: func(_ context.Context, callerID, commentID string) error {
			if callerID != "user-1" || commentID != "comment-1" {
				t.Errorf("callerID = %q, commentID = %q", callerID, commentID)
			}
			return nil
		},
	}
	h := NewCommentHandler(svc, nil)

	req := withURLParam(withUserID(httptest.NewRequest(http.MethodDelete, "/comments/comment-1", nil), "user-1"), "id", "comment-1")
	rec := httptest.NewRecorder()
	h.Delete(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNoContent)
	}
}

func TestCommentListByPlant_NotFound(t *testing.T) {
	svc := &fakeCommentService{
		listByPlantFn: func(_ context.Context, _ string) ([]*model.Comment, error) {
			return nil, model.NewPlantNotFoundError()
		},
	}
	h := NewCommentHandler(svc, nil)

	req := withURLParam(httptest.NewRequest(http.MethodGet, "/plants/ghost/comments/", nil), "id", "ghost")
	rec := httptest.NewRecorder()
	h.ListByPlant(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestCommentListByUser_Empty(t *testing.T) {
	svc := &fakeCommentService{
		listByUserFn: func(_ context.Context, _ string) ([]*model.Comment, error) {
			return nil, nil
		},
	}
	h := NewCommentHandler(svc, nil)

	req := withURLParam(httptest.NewRequest(http.MethodGet, "/users/user-1/comments/", nil), "id", "user-1")
	rec := httptest.NewRecorder()
	h.ListByUser(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if got := rec.Body.String(); got != "[]\n" {
		t.Errorf("body = %q, want empty JSON array", got)
	}
}
