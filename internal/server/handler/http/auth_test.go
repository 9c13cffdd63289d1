package http

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/spektr-im/spektr/internal/models"
	"github.com/spektr-im/spektr/internal/service"
)

// fakeIdentity implements IdentityService for testing.
type fakeIdentity struct {
	registerUser models.User
	registerErr  error
	loginUser    models.User
	loginErr     error
	currentUser  models.User
	currentErr   error
	changeErr    error
	searchUsers  []models.User
	searchErr    error
	lookupUser   models.User
	lookupErr    error
}

func (f *fakeIdentity) Register(ctx context.Context, username, name, password string) (models.User, error) {
	return f.registerUser, f.registerErr
}

func (f *fakeIdentity) Login(ctx context.Context, username, password string) (models.User, error) {
	return f.loginUser, f.loginErr
}

func (f *fakeIdentity) Logout(ctx context.Context) error { return nil }

func (f *fakeIdentity) CurrentUser(ctx context.Context) (models.User, error) {
	return f.currentUser, f.currentErr
}

func (f *fakeIdentity) UpdateProfile(ctx context.Context, upd models.ProfileUpdate) (models.User, error) {
	return f.currentUser, f.currentErr
}

func (f *fakeIdentity) ChangePassword(ctx context.Context, oldPassword, newPassword string) error {
	return f.changeErr
}

func (f *fakeIdentity) LookupUser(ctx context.Context, userID string) (models.User, error) {
	return f.lookupUser, f.lookupErr
}

func (f *fakeIdentity) SearchUsers(ctx context.Context, query string) ([]models.User, error) {
	return f.searchUsers, f.searchErr
}

func TestAuthHandler_Register(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		identity       *fakeIdentity
		expectedCode   int
		expectedSubstr string
	}{
		{
			name:           "invalid JSON",
			body:           `not a json`,
			identity:       &fakeIdentity{},
			expectedCode:   http.StatusBadRequest,
			expectedSubstr: "invalid request",
		},
		{
			name:           "empty username",
			body:           `{"username":"","password":"pw"}`,
			identity:       &fakeIdentity{},
			expectedCode:   http.StatusBadRequest,
			expectedSubstr: "invalid request",
		},
		{
			name:           "empty password",
			body:           `{"username":"alice","password":""}`,
			identity:       &fakeIdentity{},
			expectedCode:   http.StatusBadRequest,
			expectedSubstr: "invalid request",
		},
		{
			name:           "duplicate username",
			body:           `{"username":"alice","name":"Alice","password":"pw"}`,
			identity:       &fakeIdentity{registerErr: service.ErrDuplicateUsername},
			expectedCode:   http.StatusConflict,
			expectedSubstr: "username already taken",
		},
		{
			name:           "success",
			body:           `{"username":"alice","name":"Alice","password":"pw"}`,
			identity:       &fakeIdentity{registerUser: models.User{ID: "u1", Username: "alice"}},
			expectedCode:   http.StatusCreated,
			expectedSubstr: `"username":"alice"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest("POST", "/api/register", bytes.NewBufferString(tt.body))
			h := &AuthHandler{Identity: tt.identity}
			h.Register(rec, req)
			res := rec.Result()
			defer res.Body.Close()

			if res.StatusCode != tt.expectedCode {
				t.Fatalf("expected status %d, got %d", tt.expectedCode, res.StatusCode)
			}

			buf := new(bytes.Buffer)
			if _, err := buf.ReadFrom(res.Body); err != nil {
				t.Fatalf("failed to read body: %v", err)
			}
			if !bytes.Contains(buf.Bytes(), []byte(tt.expectedSubstr)) {
				t.Errorf("expected body to contain %q, got %q", tt.expectedSubstr, buf.String())
			}
		})
	}
}

func TestAuthHandler_Login(t *testing.T) {
	tests := []struct {
		name         string
		body         string
		identity     *fakeIdentity
		expectedCode int
	}{
		{
			name:         "invalid JSON",
			body:         `{`,
			identity:     &fakeIdentity{},
			expectedCode: http.StatusBadRequest,
		},
		{
			name:         "bad credentials",
			body:         `{"username":"alice","password":"wrong"}`,
			identity:     &fakeIdentity{loginErr: service.ErrInvalidCredentials},
			expectedCode: http.StatusUnauthorized,
		},
		{
			name:         "success",
			body:         `{"username":"alice","password":"pw"}`,
			identity:     &fakeIdentity{loginUser: models.User{ID: "u1", Username: "alice"}},
			expectedCode: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest("POST", "/api/login", bytes.NewBufferString(tt.body))
			h := &AuthHandler{Identity: tt.identity}
			h.Login(rec, req)

			if rec.Code != tt.expectedCode {
				t.Fatalf("expected status %d, got %d", tt.expectedCode, rec.Code)
			}
		})
	}
}

func TestAuthHandler_Me(t *testing.T) {
	tests := []struct {
		name         string
		identity     *fakeIdentity
		expectedCode int
	}{
		{
			name:         "no session",
			identity:     &fakeIdentity{currentErr: service.ErrNoCurrentUser},
			expectedCode: http.StatusUnauthorized,
		},
		{
			name:         "success",
			identity:     &fakeIdentity{currentUser: models.User{ID: "u1", Username: "alice"}},
			expectedCode: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest("GET", "/api/me", nil)
			h := &AuthHandler{Identity: tt.identity}
			h.Me(rec, req)

			if rec.Code != tt.expectedCode {
				t.Fatalf("expected status %d, got %d", tt.expectedCode, rec.Code)
			}
		})
	}
}

func TestAuthHandler_ChangePassword(t *testing.T) {
	tests := []struct {
		name         string
		body         string
		identity     *fakeIdentity
		expectedCode int
	}{
		{
			name:         "empty new password",
			body:         `{"oldPassword":"a","newPassword":""}`,
			identity:     &fakeIdentity{},
			expectedCode: http.StatusBadRequest,
		},
		{
			name:         "wrong old password",
			body:         `{"oldPassword":"bad","newPassword":"pw2"}`,
			identity:     &fakeIdentity{changeErr: service.ErrWrongOldPassword},
			expectedCode: http.StatusForbidden,
		},
		{
			name:         "success",
			body:         `{"oldPassword":"pw1","newPassword":"pw2"}`,
			identity:     &fakeIdentity{},
			expectedCode: http.StatusNoContent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest("POST", "/api/me/password", bytes.NewBufferString(tt.body))
			h := &AuthHandler{Identity: tt.identity}
			h.ChangePassword(rec, req)

			if rec.Code != tt.expectedCode {
				t.Fatalf("expected status %d, got %d", tt.expectedCode, rec.Code)
			}
		})
	}
}
