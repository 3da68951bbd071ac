package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-notify-nosql/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockAudienceSvc struct{ mock.Mock }

func (m *mockAudienceSvc) Get(ctx context.Context, id string) (*domain.Audience, error) {
	args := m.Called(ctx, id)
	a, _ := args.Get(0).(*domain.Audience)
	return a, args.Error(1)
}
func (m *mockAudienceSvc) GetMembers(ctx context.Context, id string) ([]domain.Recipient, error) {
	args := m.Called(ctx, id)
	rs, _ := args.Get(0).([]domain.Recipient)
	return rs, args.Error(1)
}
func (m *mockAudienceSvc) GetByIDs(ctx context.Context, ids []string) ([]domain.Recipient, error) {
	args := m.Called(ctx, ids)
	rs, _ := args.Get(0).([]domain.Recipient)
	return rs, args.Error(1)
}
func (m *mockAudienceSvc) Create(ctx context.Context, userID string, in domain.AudienceInput) (*domain.Audience, error) {
	args := m.Called(ctx, userID, in)
	a, _ := args.Get(0).(*domain.Audience)
	return a, args.Error(1)
}
func (m *mockAudienceSvc) List(ctx context.Context, f domain.AudienceFilter) (domain.Page[domain.Audience], error) {
	args := m.Called(ctx, f)
	p, _ := args.Get(0).(domain.Page[domain.Audience])
	return p, args.Error(1)
}
func (m *mockAudienceSvc) Update(ctx context.Context, userID, id string, in domain.AudienceInput) (*domain.Audience, error) {
	args := m.Called(ctx, userID, id, in)
	a, _ := args.Get(0).(*domain.Audience)
	return a, args.Error(1)
}
func (m *mockAudienceSvc) Delete(ctx context.Context, userID, id string) error {
	return m.Called(ctx, userID, id).Error(0)
}

func TestAudienceGet_IncludesMembers(t *testing.T) {
	svc := &mockAudienceSvc{}
	svc.On("Get", mock.Anything, "a1").Return(&domain.Audience{AudienceID: "a1", Name: "Night shift", Scope: "Employee"}, nil)
	svc.On("GetMembers", mock.Anything, "a1").Return([]domain.Recipient{{RecipientID: "r1"}, {RecipientID: "r2"}}, nil)

	rr := httptest.NewRecorder()
	req := withChiID(httptest.NewRequest(http.MethodGet, "/v1/audiences/a1", nil), "a1")
	NewAudienceHandler(svc).Get(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	body := jsonBody(t, rr)
	assert.Equal(t, "Night shift", body["audience"].(map[string]interface{})["name"])
	assert.Len(t, body["members"], 2)
}

func TestAudienceGet_NotFound(t *testing.T) {
	svc := &mockAudienceSvc{}
	svc.On("Get", mock.Anything, "nope").Return(nil, domain.NotFound("Audience not found"))

	rr := httptest.NewRecorder()
	req := withChiID(httptest.NewRequest(http.MethodGet, "/v1/audiences/nope", nil), "nope")
	NewAudienceHandler(svc).Get(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
	svc.AssertNotCalled(t, "GetMembers", mock.Anything, mock.Anything)
}
