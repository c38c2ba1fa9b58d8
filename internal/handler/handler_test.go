package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/snehachy12/campus-event-system-sub002/internal/catalog"
	"github.com/snehachy12/campus-event-system-sub002/internal/domain"
	"github.com/snehachy12/campus-event-system-sub002/internal/gateway"
	"github.com/snehachy12/campus-event-system-sub002/internal/middleware"
	"github.com/snehachy12/campus-event-system-sub002/internal/repository"
	"github.com/snehachy12/campus-event-system-sub002/internal/service"
)

const testSecret = "test-webhook-secret"

type testServer struct {
	router  *gin.Engine
	repo    *repository.MemoryReservationRepository
	guard   *repository.MemoryCapacityGuard
	catalog *catalog.MemoryCatalog
	gateway *gateway.MockGateway
	userID  string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ts := &testServer{
		repo:    repository.NewMemoryReservationRepository(),
		guard:   repository.NewMemoryCapacityGuard(),
		catalog: catalog.NewMemoryCatalog(),
		gateway: gateway.NewMockGateway(),
		userID:  "user-1",
	}
	ts.catalog.Seed(&domain.Resource{
		ID: "venue-1", Type: domain.ResourceVenue, Name: "Auditorium",
		Capacity: 2, UnitPrice: 50000, Currency: "INR", RequiresApproval: true,
	})

	svc := service.NewReservationService(ts.repo, ts.guard, ts.catalog, ts.gateway, service.NoOpNotifier{})
	recon := service.NewReconciliationService(ts.repo, ts.guard, service.NoOpNotifier{}, testSecret)

	resHandler := NewReservationHandler(svc)
	payHandler := NewPaymentHandler(recon)

	router := gin.New()
	// Stand-in for the JWT middleware: inject the test user directly
	router.Use(func(c *gin.Context) {
		c.Set(middleware.UserIDKey, ts.userID)
	})

	v1 := router.Group("/api/v1")
	{
		v1.POST("/reservations", resHandler.Submit)
		v1.GET("/reservations", resHandler.List)
		v1.GET("/reservations/:id", resHandler.Get)
		v1.PUT("/reservations/:id/approve", resHandler.Approve)
		v1.PUT("/reservations/:id/reject", resHandler.Reject)
		v1.PUT("/reservations/:id/cancel", resHandler.Cancel)
		v1.POST("/reservations/:id/payment", resHandler.RequestPayment)
		v1.POST("/payments/confirm", payHandler.Confirm)
		v1.POST("/payments/webhook", payHandler.Webhook)
	}
	ts.router = router
	return ts
}

func (ts *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("Encoding request body failed: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("Decoding envelope failed: %v (body %s)", err, w.Body.String())
	}
	return env
}

type reservationData struct {
	ID               string `json:"id"`
	HumanID          string `json:"humanId"`
	Status           string `json:"status"`
	Amount           int64  `json:"amount"`
	PaymentIntentRef string `json:"paymentIntentRef"`
}

func decodeReservation(t *testing.T, w *httptest.ResponseRecorder) reservationData {
	t.Helper()
	env := decodeEnvelope(t, w)
	var data reservationData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("Decoding reservation failed: %v", err)
	}
	return data
}

func (ts *testServer) submit(t *testing.T) reservationData {
	t.Helper()
	w := ts.do(t, http.MethodPost, "/api/v1/reservations", gin.H{
		"resourceType":  "venue",
		"resourceId":    "venue-1",
		"capacityUnits": 1,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("Submit returned %d: %s", w.Code, w.Body.String())
	}
	return decodeReservation(t, w)
}
