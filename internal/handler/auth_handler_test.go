package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/hitoshi/plantcare/internal/model"
)

// fakeAuthService はテスト用のAuthServiceInterface実装。
type fakeAuthService struct {
	loginFn func(ctx context.Context, email, password string) (string, error)
}

func (f *fakeAuthService) Login(ctx context.Context, email, password string) (string, error) {
	return f.loginFn(ctx, email, password)
}

var _ AuthServiceInterface = (*fakeAuthService)(nil)

func postForm(t *testing.T, handler http.HandlerFunc, values url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/token", strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestToken_Success(t *testing.T) {
	svc := &fakeAuthService{
		loginFn: func(_ context.Context, email, password string) (string, error) {
			if email == "a@x.com" && password == "pw" {
				return "issued-token", nil
			}
			return "", model.NewAuthFailedError()
		},
	}
	h := NewAuthHandler(svc, nil)

	rec := postForm(t, h.Token, url.Values{"username": {"a@x.com"}, "password": {"pw"}})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	var body tokenResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body.AccessToken != "issued-token" {
		t.Errorf("access_token = %q", body.AccessToken)
	}
	if body.TokenType != "bearer" {
		t.Errorf("token_type = %q, want bearer", body.TokenType)
	}
}

func TestToken_AuthFailure(t *testing.T) {
	svc := &fakeAuthService{
		loginFn: func(_ context.Context, _, _ string) (string, error) {
			return "", model.NewAuthFailedError()
		},
	}
	h := NewAuthHandler(svc, nil)

	rec := postForm(t, h.Token, url.Values{"username": {"a@x.com"}, "password": {"wrong"}})

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
	var body apiErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body.Code != model.ErrCodeAuthFailed {
		t.Errorf("code = %q, want %q", body.Code, model.ErrCodeAuthFailed)
	}
}

func TestToken_MissingFields(t *testing.T) {
	h := NewAuthHandler(&fakeAuthService{
		loginFn: func(_ context.Context, _, _ string) (string, error) {
			t.Error("service should not be called")
			return "", nil
		},
	}, nil)

	tests := []struct {
		name   string
		values url.Values
	}{
		{name: "username欠落", values: url.Values{"password": {"pw"}}},
		{name: "password欠落", values: url.Values{"username": {"a@x.com"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postForm(t, h.Token, tt.values)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
			}
		})
	}
}
