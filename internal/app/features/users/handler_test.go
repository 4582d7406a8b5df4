package users_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/coverhub/internal/app/features/users"
	userstore "github.com/dalemusser/coverhub/internal/app/store/users"
	"github.com/dalemusser/coverhub/internal/testutil"
	"go.uber.org/zap"
)

func newHandler(t *testing.T) (*users.Handler, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	return users.NewHandler(userstore.New(db), zap.NewNop()), testutil.NewFixtures(t, db)
}

func TestList(t *testing.T) {
	h, fixtures := newHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fixtures.CreateUser(ctx, "one@example.com", "secret123")
	fixtures.CreateUser(ctx, "two@example.com", "secret123")

	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/api/users", nil))

	testutil.AssertStatus(t, rec, http.StatusOK)

	var got []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("expected a bare array, got: %s", rec.Body.String())
	}
	if len(got) != 2 {
		t.Errorf("got %d users, want 2", len(got))
	}
}

func TestList_Empty(t *testing.T) {
	h, _ := newHandler(t)

	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/api/users", nil))

	testutil.AssertStatus(t, rec, http.StatusOK)
	if body := rec.Body.String(); body != "[]\n" {
		t.Errorf("empty list body = %q, want []", body)
	}
}

func TestCreate(t *testing.T) {
	h, _ := newHandler(t)

	body := `{"firstName":"New","lastName":"User","email":"new@example.com","password":"secret123"}`
	rec := httptest.NewRecorder()
	h.Create(rec, testutil.NewJSONRequest(http.MethodPost, "/api/users", body))

	testutil.AssertStatus(t, rec, http.StatusCreated)
	testutil.AssertBodyContains(t, rec, "new@example.com")
}

func TestCreate_MissingFields(t *testing.T) {
	h, _ := newHandler(t)

	rec := httptest.NewRecorder()
	h.Create(rec, testutil.NewJSONRequest(http.MethodPost, "/api/users",
		`{"firstName":"New","email":"new@example.com"}`))

	testutil.AssertStatus(t, rec, http.StatusBadRequest)
	testutil.AssertBodyContains(t, rec, "First name, last name, email, and password are required")
}

func TestCreate_Duplicate(t *testing.T) {
	h, fixtures := newHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fixtures.CreateUser(ctx, "taken@example.com", "secret123")

	body := `{"firstName":"New","lastName":"User","email":"taken@example.com","password":"secret123"}`
	rec := httptest.NewRecorder()
	h.Create(rec, testutil.NewJSONRequest(http.MethodPost, "/api/users", body))

	testutil.AssertStatus(t, rec, http.StatusConflict)
	testutil.AssertBodyContains(t, rec, "A user with this email already exists")
}
