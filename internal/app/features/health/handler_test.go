package health_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/coverhub/internal/app/features/health"
	"github.com/dalemusser/coverhub/internal/testutil"
	"go.uber.org/zap"
)

func TestServe(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := health.NewHandler(db.Client(), "1.0.0", zap.NewNop())

	rec := httptest.NewRecorder()
	h.Serve(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	testutil.AssertStatus(t, rec, http.StatusOK)

	var resp struct {
		Message   string                       `json:"message"`
		Version   string                       `json:"version"`
		Status    string                       `json:"status"`
		Timestamp string                       `json:"timestamp"`
		Routes    map[string]map[string]string `json:"routes"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad response JSON: %v", err)
	}
	if resp.Status != "healthy" {
		t.Errorf("status = %q", resp.Status)
	}
	if resp.Version != "1.0.0" {
		t.Errorf("version = %q", resp.Version)
	}
	if resp.Timestamp == "" {
		t.Error("expected a timestamp")
	}
	if _, ok := resp.Routes["policies"]; !ok {
		t.Error("route table missing policies section")
	}
}
