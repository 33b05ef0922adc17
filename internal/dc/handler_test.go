package dc

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keystone-crm/keystone-crm/internal/shared"
)

func newTestRouter(svc *Service) http.Handler {
	h := NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), svc, nil)
	r := chi.NewRouter()
	r.Route("/api/dc-orders", func(r chi.Router) {
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				ctx := shared.ContextWithActor(req.Context(), shared.Actor{ID: 7, Name: "Asha Pillai", Role: shared.RoleAdmin})
				next.ServeHTTP(w, req.WithContext(ctx))
			})
		})
		h.MountRoutes(r)
	})
	return r
}

func doJSON(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestMissingOrderReturns404WithMessage(t *testing.T) {
	svc, _ := newTestService()
	router := newTestRouter(svc)

	cases := []struct {
		method, path, body string
	}{
		{http.MethodGet, "/api/dc-orders/999", ""},
		{http.MethodPut, "/api/dc-orders/999", "{}"},
		{http.MethodPut, "/api/dc-orders/999/submit", ""},
		{http.MethodPut, "/api/dc-orders/999/in-transit", ""},
		{http.MethodPut, "/api/dc-orders/999/complete", ""},
		{http.MethodPut, "/api/dc-orders/999/hold", `{"hold_notes":"missing"}`},
	}
	for _, tc := range cases {
		rec := doJSON(t, router, tc.method, tc.path, tc.body)
		require.Equal(t, http.StatusNotFound, rec.Code, "%s %s", tc.method, tc.path)

		var msg map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &msg))
		assert.Equal(t, "DC not found", msg["message"])
	}
}

func TestGetByCodeLooksUpChallanIdentifier(t *testing.T) {
	svc, _ := newTestService()
	router := newTestRouter(svc)

	order := createOrder(t, svc, CreateRequest{SchoolName: "Green Valley School"})

	rec := doJSON(t, router, http.MethodGet, "/api/dc-orders/code/"+order.DCCode, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var got Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, order.ID, got.ID)
	assert.Equal(t, order.DCCode, got.DCCode)

	rec = doJSON(t, router, http.MethodGet, "/api/dc-orders/code/DC-NOPE", "")
	require.Equal(t, http.StatusNotFound, rec.Code)

	var msg map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &msg))
	assert.Equal(t, "DC not found", msg["message"])
}

func TestCreateEndpointForcesCreator(t *testing.T) {
	svc, _ := newTestService()
	router := newTestRouter(svc)

	// created_by in the payload is ignored; the session actor wins.
	rec := doJSON(t, router, http.MethodPost, "/api/dc-orders/create",
		`{"school_name":"Green Valley School","created_by":99}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var order Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &order))
	assert.Equal(t, int64(7), order.CreatedBy)
	assert.NotEmpty(t, order.DCCode)
}

func TestIllegalTransitionReturnsConflict(t *testing.T) {
	svc, _ := newTestService()
	router := newTestRouter(svc)

	rec := doJSON(t, router, http.MethodPost, "/api/dc-orders/create", `{"school_name":"Green Valley School"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var order Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &order))

	// Completing a pending order skips in_transit.
	rec = doJSON(t, router, http.MethodPut, "/api/dc-orders/"+strconv.FormatInt(order.ID, 10)+"/complete", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestListRejectsMalformedDates(t *testing.T) {
	svc, _ := newTestService()
	router := newTestRouter(svc)

	rec := doJSON(t, router, http.MethodGet, "/api/dc-orders?from=not-a-date", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/dc-orders?to=31-01-2024", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListReturnsEmptyArrayForZeroMatches(t *testing.T) {
	svc, _ := newTestService()
	router := newTestRouter(svc)

	rec := doJSON(t, router, http.MethodGet, "/api/dc-orders?q=nothing-matches", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotNil(t, resp.Orders)
	assert.Empty(t, resp.Orders)
	assert.Equal(t, 0, resp.Total)
}
