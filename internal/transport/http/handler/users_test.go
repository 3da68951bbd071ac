package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-notify-nosql/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- mock ---

type mockUserSvc struct{ mock.Mock }

func (m *mockUserSvc) Create(ctx context.Context, actorID string, req domain.CreateUserRequest) (*domain.User, error) {
	args := m.Called(ctx, actorID, req)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUserSvc) List(ctx context.Context, limit int, cursor string) ([]domain.User, string, error) {
	args := m.Called(ctx, limit, cursor)
	users, _ := args.Get(0).([]domain.User)
	return users, args.String(1), args.Error(2)
}

func (m *mockUserSvc) Get(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUserSvc) Update(ctx context.Context, actorID, userID string, req domain.UpdateUserRequest) (*domain.User, error) {
	args := m.Called(ctx, actorID, userID, req)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUserSvc) Delete(ctx context.Context, actorID, userID string) error {
	return m.Called(ctx, actorID, userID).Error(0)
}

// --- Create tests ---

func TestCreateUser_InvalidBody(t *testing.T) {
	h := NewUserHandler(&mockUserSvc{})
	r := asUser(httptest.NewRequest(http.MethodPost, "/v1/users", bytes.NewBufferString("not-json")), "admin1", domain.RoleAdmin)
	rr := httptest.NewRecorder()
	h.Create(rr, r)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "Invalid request body.", jsonBody(t, rr)["error"])
}

func TestCreateUser_Conflict(t *testing.T) {
	svc := &mockUserSvc{}
	svc.On("Create", mock.Anything, "admin1", mock.Anything).Return(nil, domain.Conflict("Username already taken."))
	h := NewUserHandler(svc)
	body, _ := json.Marshal(domain.CreateUserRequest{Username: "alice", Password: "secret123"})
	r := asUser(httptest.NewRequest(http.MethodPost, "/v1/users", bytes.NewReader(body)), "admin1", domain.RoleAdmin)
	rr := httptest.NewRecorder()
	h.Create(rr, r)
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, "Username already taken.", jsonBody(t, rr)["error"])
	svc.AssertExpectations(t)
}

func TestCreateUser_HappyPath_HidesHash(t *testing.T) {
	svc := &mockUserSvc{}
	svc.On("Create", mock.Anything, "admin1", mock.Anything).
		Return(&domain.User{UserID: "u1", Username: "alice", PasswordHash: "$2a$hash", Role: domain.RoleUser}, nil)
	h := NewUserHandler(svc)
	body, _ := json.Marshal(domain.CreateUserRequest{Username: "alice", Password: "secret123"})
	r := asUser(httptest.NewRequest(http.MethodPost, "/v1/users", bytes.NewReader(body)), "admin1", domain.RoleAdmin)
	rr := httptest.NewRecorder()
	h.Create(rr, r)

	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.NotContains(t, rr.Body.String(), "$2a$hash")
	svc.AssertExpectations(t)
}

// --- List tests ---

func TestListUsers_PassesCursor(t *testing.T) {
	svc := &mockUserSvc{}
	svc.On("List", mock.Anything, 5, "abc").Return([]domain.User{{UserID: "u1"}}, "next", nil)
	h := NewUserHandler(svc)
	rr := httptest.NewRecorder()
	h.List(rr, httptest.NewRequest(http.MethodGet, "/v1/users?limit=5&cursor=abc", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	var resp UserPageEnvelope
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Len(t, resp.Data, 1)
	assert.Equal(t, "next", resp.NextCursor)
	svc.AssertExpectations(t)
}

// --- Get tests ---

func TestGet_MissingClaims(t *testing.T) {
	h := NewUserHandler(&mockUserSvc{})
	r := withChiID(httptest.NewRequest(http.MethodGet, "/v1/users/u1", nil), "u1")
	rr := httptest.NewRecorder()
	h.Get(rr, r) // called directly, no claims in context
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestGet_Owner(t *testing.T) {
	p := newTestJWTProvider(t)
	svc := &mockUserSvc{}
	svc.On("Get", mock.Anything, "u1").Return(&domain.User{UserID: "u1", Username: "alice"}, nil)
	h := NewUserHandler(svc)

	r := withChiID(bearerReq(t, p, http.MethodGet, "/v1/users/u1", "u1", domain.RoleUser, nil), "u1")
	rr := httptest.NewRecorder()
	serveAuthed(p, http.HandlerFunc(h.Get), rr, r)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "alice", jsonBody(t, rr)["username"])
	svc.AssertExpectations(t)
}

func TestGet_MeResolvesToCaller(t *testing.T) {
	svc := &mockUserSvc{}
	svc.On("Get", mock.Anything, "u7").Return(&domain.User{UserID: "u7", Username: "gina"}, nil)

	r := asUser(withChiID(httptest.NewRequest(http.MethodGet, "/v1/users/me", nil), "me"), "u7", domain.RoleUser)
	rr := httptest.NewRecorder()
	NewUserHandler(svc).Get(rr, r)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "gina", jsonBody(t, rr)["username"])
	svc.AssertExpectations(t)
}

func TestGet_OtherUserForbidden(t *testing.T) {
	p := newTestJWTProvider(t)
	svc := &mockUserSvc{}
	h := NewUserHandler(svc)

	r := withChiID(bearerReq(t, p, http.MethodGet, "/v1/users/u2", "u1", domain.RoleUser, nil), "u2")
	rr := httptest.NewRecorder()
	serveAuthed(p, http.HandlerFunc(h.Get), rr, r)

	assert.Equal(t, http.StatusForbidden, rr.Code)
	svc.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
}

func TestGet_NotFound(t *testing.T) {
	svc := &mockUserSvc{}
	svc.On("Get", mock.Anything, "u2").Return(nil, domain.NotFound("User not found"))
	h := NewUserHandler(svc)
	r := withChiID(asUser(httptest.NewRequest(http.MethodGet, "/v1/users/u2", nil), "admin1", domain.RoleAdmin), "u2")
	rr := httptest.NewRecorder()
	h.Get(rr, r)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "User not found", jsonBody(t, rr)["error"])
}

// --- Update tests ---

func TestUpdate_NotOwnerOrAdmin(t *testing.T) {
	p := newTestJWTProvider(t)
	h := NewUserHandler(&mockUserSvc{})

	r := withChiID(bearerReq(t, p, http.MethodPut, "/v1/users/u2", "u1", domain.RoleUser, []byte(`{}`)), "u2")
	rr := httptest.NewRecorder()
	serveAuthed(p, http.HandlerFunc(h.Update), rr, r)

	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestUpdate_NonAdmin_CannotSetRole(t *testing.T) {
	p := newTestJWTProvider(t)
	h := NewUserHandler(&mockUserSvc{})
	role := domain.RoleAdmin
	body, _ := json.Marshal(domain.UpdateUserRequest{Role: &role})

	r := withChiID(bearerReq(t, p, http.MethodPut, "/v1/users/u1", "u1", domain.RoleUser, body), "u1")
	rr := httptest.NewRecorder()
	serveAuthed(p, http.HandlerFunc(h.Update), rr, r)

	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestUpdate_SelfUpdate(t *testing.T) {
	p := newTestJWTProvider(t)
	svc := &mockUserSvc{}
	name := "Alice A."
	svc.On("Update", mock.Anything, "u1", "u1", domain.UpdateUserRequest{DisplayName: &name}).
		Return(&domain.User{UserID: "u1", Username: "alice", DisplayName: &name}, nil)
	h := NewUserHandler(svc)
	body, _ := json.Marshal(domain.UpdateUserRequest{DisplayName: &name})

	r := withChiID(bearerReq(t, p, http.MethodPut, "/v1/users/u1", "u1", domain.RoleUser, body), "u1")
	rr := httptest.NewRecorder()
	serveAuthed(p, http.HandlerFunc(h.Update), rr, r)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Alice A.", jsonBody(t, rr)["displayName"])
	svc.AssertExpectations(t)
}

func TestUpdate_Admin_CanSetRole(t *testing.T) {
	svc := &mockUserSvc{}
	svc.On("Update", mock.Anything, "admin1", "u2", mock.Anything).
		Return(&domain.User{UserID: "u2", Role: domain.RoleAdmin}, nil)
	h := NewUserHandler(svc)
	role := domain.RoleAdmin
	body, _ := json.Marshal(domain.UpdateUserRequest{Role: &role})

	r := withChiID(asUser(httptest.NewRequest(http.MethodPut, "/v1/users/u2", bytes.NewReader(body)), "admin1", domain.RoleAdmin), "u2")
	rr := httptest.NewRecorder()
	h.Update(rr, r)

	assert.Equal(t, http.StatusOK, rr.Code)
	svc.AssertExpectations(t)
}

// --- Delete tests ---

func TestDelete_SelfIsRejectedByService(t *testing.T) {
	svc := &mockUserSvc{}
	svc.On("Delete", mock.Anything, "admin1", "admin1").Return(domain.Validation("You cannot delete your own account."))
	h := NewUserHandler(svc)
	r := withChiID(asUser(httptest.NewRequest(http.MethodDelete, "/v1/users/admin1", nil), "admin1", domain.RoleAdmin), "admin1")
	rr := httptest.NewRecorder()
	h.Delete(rr, r)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "You cannot delete your own account.", jsonBody(t, rr)["error"])
}

func TestDelete_Admin_DeletesOtherUser(t *testing.T) {
	svc := &mockUserSvc{}
	svc.On("Delete", mock.Anything, "admin1", "u2").Return(nil)
	h := NewUserHandler(svc)
	r := withChiID(asUser(httptest.NewRequest(http.MethodDelete, "/v1/users/u2", nil), "admin1", domain.RoleAdmin), "u2")
	rr := httptest.NewRecorder()
	h.Delete(rr, r)

	assert.Equal(t, http.StatusOK, rr.Code)
	svc.AssertExpectations(t)
}
