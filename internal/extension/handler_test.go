package extension

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/pesto-students/backend-repo-titans/internal/apperr"
	"github.com/pesto-students/backend-repo-titans/internal/auth"
)

type MockService struct{ mock.Mock }

func (m *MockService) RequestExtension(ctx context.Context, p auth.Principal, in RequestExtensionInput) (*Extension, error) {
	args := m.Called(ctx, p, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Extension), args.Error(1)
}

func (m *MockService) RespondToExtension(ctx context.Context, p auth.Principal, extensionID int, decision Status) (*Resolution, error) {
	args := m.Called(ctx, p, extensionID, decision)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Resolution), args.Error(1)
}

func (m *MockService) ListOwnerPendingExtensions(ctx context.Context, p auth.Principal) ([]Pending, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Pending), args.Error(1)
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
	r.POST("/bookings/extends", h.RequestExtension)
	r.PATCH("/bookings/extends", h.RespondToExtension)
	r.GET("/gyms/extensions", h.ListOwnerPending)
	return r
}

func serve(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequestExtension_Handler(t *testing.T) {
	svc := new(MockService)
	r := newRouter(NewHandler(svc), &customer)
	svc.On("RequestExtension", mock.Anything, customer, RequestExtensionInput{BookingID: 21, DurationMinutes: 20}).
		Return(&Extension{ID: 4, BookingID: 21, DurationMinutes: 20, Status: StatusPending, OwnerID: 2}, nil)

	w := serve(r, http.MethodPost, "/bookings/extends", `{"booking_id":21,"duration":20}`)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"pending"`)
}

func TestRequestExtension_Handler_Duplicate(t *testing.T) {
	svc := new(MockService)
	r := newRouter(NewHandler(svc), &customer)
	svc.On("RequestExtension", mock.Anything, customer, mock.Anything).
		Return(nil, apperr.Conflict("extension_exists", "an extension has already been requested for this booking"))

	w := serve(r, http.MethodPost, "/bookings/extends", `{"booking_id":21,"duration":20}`)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "extension_exists")
}

func TestRequestExtension_Handler_MissingBooking(t *testing.T) {
	svc := new(MockService)
	r := newRouter(NewHandler(svc), &customer)

	w := serve(r, http.MethodPost, "/bookings/extends", `{"duration":20}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	svc.AssertNotCalled(t, "RequestExtension", mock.Anything, mock.Anything, mock.Anything)
}

func TestRespondToExtension_Handler(t *testing.T) {
	svc := new(MockService)
	r := newRouter(NewHandler(svc), &gymOwner)
	svc.On("RespondToExtension", mock.Anything, gymOwner, 4, StatusApproved).Return(&Resolution{
		Extension:      &Extension{ID: 4, Status: StatusApproved},
		ExtensionPrice: "300.00",
		TotalPrice:     "550.00",
	}, nil)

	w := serve(r, http.MethodPatch, "/bookings/extends", `{"extension_id":4,"status":"approved"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"extension_price":"300.00"`)
}

func TestRespondToExtension_Handler_WrongOwner(t *testing.T) {
	svc := new(MockService)
	r := newRouter(NewHandler(svc), &otherOwner)
	svc.On("RespondToExtension", mock.Anything, otherOwner, 4, StatusApproved).
		Return(nil, apperr.Forbidden("this extension belongs to another gym"))

	w := serve(r, http.MethodPatch, "/bookings/extends", `{"extension_id":4,"status":"approved"}`)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestListOwnerPending_Handler(t *testing.T) {
	svc := new(MockService)
	r := newRouter(NewHandler(svc), &gymOwner)
	svc.On("ListOwnerPendingExtensions", mock.Anything, gymOwner).Return([]Pending{{
		Extension: Extension{ID: 4, Status: StatusPending}, DisplayDate: "10/03/2025", CustomerName: "Asha",
	}}, nil)

	w := serve(r, http.MethodGet, "/gyms/extensions", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"customer_name":"Asha"`)
	assert.Contains(t, w.Body.String(), `"date":"10/03/2025"`)
}

func TestListOwnerPending_Handler_Unauthenticated(t *testing.T) {
	r := newRouter(NewHandler(new(MockService)), nil)

	w := serve(r, http.MethodGet, "/gyms/extensions", "")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
