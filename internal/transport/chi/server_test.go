package chi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	searchcore "github.com/arenahq/searchcore"
	"github.com/arenahq/searchcore/internal/store"
	"github.com/arenahq/searchcore/internal/store/memory"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	s := memory.New()
	s.Add("users", store.RawRecord{
		"id": "u1", "displayName": "John Doe", "email": "john@example.com",
		"role": "athlete", "status": "active", "createdAt": int64(1700000000),
	})
	s.Add("videos", store.RawRecord{
		"id": "v1", "title": "Basketball Highlights", "description": "Best plays",
		"category": "highlights", "status": "published", "uploadedAt": int64(1700300000),
	})
	engine, err := searchcore.New(context.Background(), s, s, zap.NewNop(), searchcore.DefaultOptions())
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	return NewServer(engine, zap.NewNop()).Router(nil)
}

func TestHandleSearch(t *testing.T) {
	router := newTestRouter(t)

	body := `{"term":"basketball","searchType":"videos"}`
	req := httptest.NewRequest("POST", "/api/v1/search", strings.NewReader(body))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rr.Code, rr.Body.String())
	}
	var res searchcore.Results
	if err := json.NewDecoder(rr.Body).Decode(&res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.TotalCount != 1 {
		t.Errorf("total = %d, want 1", res.TotalCount)
	}
}

func TestHandleSearch_InvalidQuery400(t *testing.T) {
	router := newTestRouter(t)

	body := `{"term":"x","searchType":"bogus"}`
	req := httptest.NewRequest("POST", "/api/v1/search", strings.NewReader(body))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
	var errResp errorResponse
	if err := json.NewDecoder(rr.Body).Decode(&errResp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if errResp.Code != codeInvalidQuery {
		t.Errorf("code = %s, want %s", errResp.Code, codeInvalidQuery)
	}
	if len(errResp.Details) == 0 {
		t.Error("expected violation details")
	}
}

func TestHandleSearch_BadBody400(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest("POST", "/api/v1/search", strings.NewReader("{"))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
}

func TestHandleSuggest(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest("GET", "/api/v1/suggest?q=jo&type=users", http.NoBody)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rr.Code, rr.Body.String())
	}
	var resp map[string][]string
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	found := false
	for _, s := range resp["suggestions"] {
		if s == "John Doe" {
			found = true
		}
	}
	if !found {
		t.Errorf("suggestions = %v, want to contain John Doe", resp["suggestions"])
	}
}

func TestSavedSearchLifecycle(t *testing.T) {
	router := newTestRouter(t)

	body := `{"name":"my videos","query":{"term":"basketball","searchType":"videos"}}`
	req := httptest.NewRequest("POST", "/api/v1/saved-searches/", strings.NewReader(body))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create status = %d, want 201: %s", rr.Code, rr.Body.String())
	}
	var saved searchcore.SavedSearch
	if err := json.NewDecoder(rr.Body).Decode(&saved); err != nil {
		t.Fatalf("decode: %v", err)
	}

	req = httptest.NewRequest("POST", "/api/v1/saved-searches/"+saved.ID+"/run", http.NoBody)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("run status = %d, want 200: %s", rr.Code, rr.Body.String())
	}

	req = httptest.NewRequest("DELETE", "/api/v1/saved-searches/"+saved.ID, http.NoBody)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d, want 204", rr.Code)
	}

	req = httptest.NewRequest("DELETE", "/api/v1/saved-searches/"+saved.ID, http.NoBody)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", rr.Code)
	}
}

func TestHandleHealth(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest("GET", "/health", http.NoBody)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	var status struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&status); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if status.Status != "healthy" {
		t.Errorf("status = %q, want healthy", status.Status)
	}
}

func TestHandleClearCaches(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest("POST", "/api/v1/caches/clear", http.NoBody)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rr.Code)
	}

	req = httptest.NewRequest("POST", "/api/v1/caches/clear?pattern=[", http.NoBody)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("bad pattern status = %d, want 400", rr.Code)
	}
}
