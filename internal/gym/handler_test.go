package gym

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/pesto-students/backend-repo-titans/internal/api"
	"github.com/pesto-students/backend-repo-titans/internal/apperr"
	"github.com/pesto-students/backend-repo-titans/internal/auth"
	"github.com/pesto-students/backend-repo-titans/internal/schedule"
)

type MockService struct{ mock.Mock }

func (m *MockService) Onboard(ctx context.Context, p auth.Principal, form GymForm, images []Image) (*Gym, error) {
	args := m.Called(ctx, p, form, images)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Gym), args.Error(1)
}

func (m *MockService) UpdateGym(ctx context.Context, p auth.Principal, form GymForm, images []Image) (*Gym, error) {
	args := m.Called(ctx, p, form, images)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Gym), args.Error(1)
}

func (m *MockService) Resubmit(ctx context.Context, p auth.Principal, form GymForm, images []Image) (*Gym, error) {
	args := m.Called(ctx, p, form, images)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Gym), args.Error(1)
}

func (m *MockService) UpdateSchedule(ctx context.Context, p auth.Principal, req UpdateScheduleRequest) (*Gym, error) {
	args := m.Called(ctx, p, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Gym), args.Error(1)
}

func (m *MockService) ListPending(ctx context.Context, p auth.Principal, q ListQuery) (*api.Page[PendingGym], error) {
	args := m.Called(ctx, p, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*api.Page[PendingGym]), args.Error(1)
}

func (m *MockService) Respond(ctx context.Context, p auth.Principal, gymID int, req RespondRequest) (*Gym, error) {
	args := m.Called(ctx, p, gymID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Gym), args.Error(1)
}

func (m *MockService) Search(ctx context.Context, q SearchQuery) (*api.Page[Gym], error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*api.Page[Gym]), args.Error(1)
}

func (m *MockService) GetGym(ctx context.Context, id int) (*Gym, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Gym), args.Error(1)
}

func (m *MockService) UpcomingBookings(ctx context.Context, p auth.Principal) ([]UpcomingBooking, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]UpcomingBooking), args.Error(1)
}

func (m *MockService) OwnerStats(ctx context.Context, p auth.Principal) (*OwnerStats, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*OwnerStats), args.Error(1)
}

func newRouter(h *Handler, p *auth.Principal) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if p != nil {
			auth.SetPrincipal(c, *p)
		}
		c.Next()
	})
	r.GET("/gyms", h.Search)
	r.GET("/gyms/:gymID", h.GetGym)
	r.POST("/gyms", h.Onboard)
	r.POST("/gyms/schedule", h.UpdateSchedule)
	r.GET("/gyms/owners/stats", h.OwnerStats)
	r.PATCH("/admin/gyms/:gymID/status", h.Respond)
	return r
}

func multipartBody(t *testing.T, fields map[string]string, files map[string][]byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	for name, data := range files {
		fw, err := w.CreateFormFile("images", name)
		require.NoError(t, err)
		_, err = fw.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

func TestOnboard_Handler(t *testing.T) {
	svc := new(MockService)
	r := newRouter(NewHandler(svc), &owner)

	svc.On("Onboard", mock.Anything, owner, mock.MatchedBy(func(f GymForm) bool {
		return f.Name == "Iron Temple" && f.Pincode == 560001 && f.Price == 250
	}), mock.MatchedBy(func(imgs []Image) bool {
		return len(imgs) == 1 && imgs[0].Filename == "front.png" && string(imgs[0].Data) == "img"
	})).Return(&Gym{ID: 11, Name: "Iron Temple", Status: StatusInactive}, nil)

	body, contentType := multipartBody(t, map[string]string{
		"gym_name":       "Iron Temple",
		"address_line_1": "12 MG Road",
		"pincode":        "560001",
		"price":          "250",
	}, map[string][]byte{"front.png": []byte("img")})

	req := httptest.NewRequest(http.MethodPost, "/gyms", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"inactive"`)
	svc.AssertExpectations(t)
}

func TestOnboard_Handler_ValidationFailure(t *testing.T) {
	svc := new(MockService)
	r := newRouter(NewHandler(svc), &owner)

	body, contentType := multipartBody(t, map[string]string{"address_line_1": "12 MG Road", "pincode": "12"}, nil)
	req := httptest.NewRequest(http.MethodPost, "/gyms", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "validation failed")
	svc.AssertNotCalled(t, "Onboard", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestOnboard_Handler_Unauthenticated(t *testing.T) {
	r := newRouter(NewHandler(new(MockService)), nil)

	req := httptest.NewRequest(http.MethodPost, "/gyms", strings.NewReader(""))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUpdateSchedule_Handler_InvalidSlots(t *testing.T) {
	svc := new(MockService)
	r := newRouter(NewHandler(svc), &owner)

	svc.On("UpdateSchedule", mock.Anything, owner, mock.Anything).Return(nil, &apperr.Error{
		Kind: apperr.KindValidation,
		Code: "invalid_slots",
		Err: &InvalidScheduleError{Days: []schedule.DayErrors{{
			Day:    "Monday",
			Errors: []schedule.SlotError{{Index: 0, Message: schedule.MsgTooShort}},
		}}},
	})

	req := httptest.NewRequest(http.MethodPost, "/gyms/schedule",
		strings.NewReader(`{"frequency":"weekly","slots":{"Monday":[{"from":"06:00","to":"06:30"}]}}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "invalid_slots", resp["code"])
	assert.Len(t, resp["days"], 1)
}

func TestUpdateSchedule_Handler_Success(t *testing.T) {
	svc := new(MockService)
	r := newRouter(NewHandler(svc), &owner)

	saved := schedule.Schedule{
		Frequency: schedule.FrequencyWeekly,
		Slots:     map[string][]schedule.Interval{"Monday": {{From: "06:00", To: "08:00"}}},
	}
	svc.On("UpdateSchedule", mock.Anything, owner, mock.Anything).Return(&Gym{ID: 11, Schedule: saved}, nil)

	req := httptest.NewRequest(http.MethodPost, "/gyms/schedule",
		strings.NewReader(`{"frequency":"weekly","slots":{"Monday":[{"from":"06:00","to":"08:00"}]}}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"Monday"`)
}

func TestGetGym_Handler(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		setup    func(*MockService)
		expected int
	}{
		{"invalid id", "/gyms/abc", func(*MockService) {}, http.StatusBadRequest},
		{"not found", "/gyms/9", func(m *MockService) {
			m.On("GetGym", mock.Anything, 9).Return(nil, apperr.NotFound("gym not found"))
		}, http.StatusNotFound},
		{"found", "/gyms/1", func(m *MockService) {
			m.On("GetGym", mock.Anything, 1).Return(&Gym{ID: 1, Status: StatusActive}, nil)
		}, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			tt.setup(svc)
			r := newRouter(NewHandler(svc), nil)

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))

			assert.Equal(t, tt.expected, w.Code)
		})
	}
}

func TestSearch_Handler(t *testing.T) {
	svc := new(MockService)
	r := newRouter(NewHandler(svc), nil)

	q := SearchQuery{City: "Pune", SortBy: "price", Order: "desc", Page: 2, Limit: 5}
	svc.On("Search", mock.Anything, q).Return(&api.Page[Gym]{Items: []Gym{{ID: 1}}, Total: 6, Page: 2, Limit: 5}, nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/gyms?city=Pune&sort_by=price&order=desc&page=2&limit=5", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total":6`)
	svc.AssertExpectations(t)
}

func TestSearch_Handler_BadSort(t *testing.T) {
	r := newRouter(NewHandler(new(MockService)), nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/gyms?sort_by=distance", nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRespond_Handler(t *testing.T) {
	svc := new(MockService)
	r := newRouter(NewHandler(svc), &admin)

	svc.On("Respond", mock.Anything, admin, 11, RespondRequest{Decision: DecisionApprove}).
		Return(&Gym{ID: 11, Status: StatusActive}, nil)

	req := httptest.NewRequest(http.MethodPatch, "/admin/gyms/11/status", strings.NewReader(`{"decision":"approve"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"active"`)
}

func TestOwnerStats_Handler_Forbidden(t *testing.T) {
	svc := new(MockService)
	r := newRouter(NewHandler(svc), &customer)

	svc.On("OwnerStats", mock.Anything, customer).Return(nil, apperr.Forbidden("only gym owners can manage a gym"))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/gyms/owners/stats", nil))

	assert.Equal(t, http.StatusForbidden, w.Code)
}
