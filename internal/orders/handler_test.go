package orders

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aquamarinepk/aqm"
	"github.com/go-chi/chi/v5"
)

func newTestHandler(cache *CategoryCache, repo OrderRepo) http.Handler {
	h := NewHandler(HandlerDeps{Cache: cache, Repo: repo}, aqm.NewConfig(), nil)
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r
}

func TestNewHandler(t *testing.T) {
	h := NewHandler(HandlerDeps{}, aqm.NewConfig(), nil)

	if h == nil {
		t.Fatal("NewHandler() returned nil")
	}
	if h.logger == nil {
		t.Error("NewHandler() should set noop logger when nil")
	}
}

func TestHandlerListOrders(t *testing.T) {
	scope := GlobalScope()
	cache := newTestCache(scope)
	done := pendingOrder("GL-2")
	done.Status = StatusCompleted
	cache.Save(CategoryPending, scope, []*Order{pendingOrder("GL-1")})
	cache.Save(CategoryCompleted, scope, []*Order{done})

	router := newTestHandler(cache, nil)

	tests := []struct {
		name           string
		target         string
		expectedStatus int
		expectedBody   string
	}{
		{
			name:           "defaultCategoryIsPending",
			target:         "/orders",
			expectedStatus: http.StatusOK,
			expectedBody:   "GL-1",
		},
		{
			name:           "completedCategory",
			target:         "/orders?category=completed",
			expectedStatus: http.StatusOK,
			expectedBody:   "GL-2",
		},
		{
			name:           "unknownCategory",
			target:         "/orders?category=archived",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "teamScopeIsEmpty",
			target:         "/orders?team=glass&owner=lena",
			expectedStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != tt.expectedStatus {
				t.Fatalf("ListOrders() status = %d, want %d", w.Code, tt.expectedStatus)
			}
			if tt.expectedBody != "" && !strings.Contains(w.Body.String(), tt.expectedBody) {
				t.Errorf("ListOrders() body = %s, want it to contain %q", w.Body.String(), tt.expectedBody)
			}
		})
	}
}

func TestHandlerGetOrder(t *testing.T) {
	scope := GlobalScope()
	cache := newTestCache(scope)
	cache.Save(CategoryPending, scope, []*Order{pendingOrder("GL-1")})

	repo := NewMockOrderRepo(pendingOrder("GL-9"))
	router := newTestHandler(cache, repo)

	tests := []struct {
		name           string
		target         string
		expectedStatus int
	}{
		{
			name:           "fromCache",
			target:         "/orders/GL-1",
			expectedStatus: http.StatusOK,
		},
		{
			name:           "cacheMissFallsBackToRepo",
			target:         "/orders/GL-9",
			expectedStatus: http.StatusOK,
		},
		{
			name:           "notFound",
			target:         "/orders/GL-404",
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != tt.expectedStatus {
				t.Errorf("GetOrder() status = %d, want %d", w.Code, tt.expectedStatus)
			}
		})
	}
}

func TestHandlerGetOrderProgress(t *testing.T) {
	scope := GlobalScope()
	cache := newTestCache(scope)
	cache.Save(CategoryPending, scope, []*Order{
		pendingOrder("GL-1",
			glassItem("i1", glassAssignment("a1", 10, 10)),
			glassItem("i2", glassAssignment("a2", 10, 0)),
		),
	})

	router := newTestHandler(cache, nil)

	req := httptest.NewRequest(http.MethodGet, "/orders/GL-1/progress", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("GetOrderProgress() status = %d, want %d", w.Code, http.StatusOK)
	}

	body := w.Body.String()
	if !strings.Contains(body, "completion_percentage") {
		t.Errorf("GetOrderProgress() body = %s, want a completion_percentage field", body)
	}
	if !strings.Contains(body, StatusPending) {
		t.Errorf("GetOrderProgress() body = %s, want Pending status", body)
	}
}
