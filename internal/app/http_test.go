package app

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"verdantplate/api/internal/auth"
	"verdantplate/api/internal/catalog"
	"verdantplate/api/internal/store"
)

func newTestServer(fs *fakeStore) *HTTPServer {
	return NewHTTPServer(newTestService(fs), "*")
}

func bearerFor(t *testing.T, service *Service, userID string) string {
	t.Helper()
	token, err := auth.IssueToken([]byte(service.cfg.JWTSecret), auth.Claims{
		Sub:  userID,
		Name: "Priya",
		JTI:  "jti_test",
		Exp:  time.Now().Add(time.Hour).Unix(),
	})
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return token
}

func decodeResponse(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return body
}

func TestHealthEndpoint(t *testing.T) {
	server := newTestServer(&fakeStore{})

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if body := decodeResponse(t, rr); body["ok"] != true {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestReadyEndpointReportsDatabaseFailure(t *testing.T) {
	server := newTestServer(&fakeStore{
		pingFn: func(context.Context) error { return errors.New("connection refused") },
	})

	req := httptest.NewRequest(http.MethodGet, "/api/ready", nil)
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}
	if body := decodeResponse(t, rr); body["status"] != "not_ready" {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestPreflightRequest(t *testing.T) {
	server := newTestServer(&fakeStore{})

	req := httptest.NewRequest(http.MethodOptions, "/api/recipes", nil)
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rr.Code)
	}
	if origin := rr.Header().Get("Access-Control-Allow-Origin"); origin != "*" {
		t.Fatalf("missing CORS origin header, got %q", origin)
	}
}

func TestListRecipesWithCategoryAndTerm(t *testing.T) {
	fs := &fakeStore{
		listItemsByCategoryFn: func(_ context.Context, category catalog.Category) ([]catalog.Item, error) {
			if category != catalog.CategoryBreakfast {
				t.Fatalf("unexpected category %q", category)
			}
			return []catalog.Item{sampleRecipe(), {ID: "rcp_2", Name: "Omelette", Category: catalog.CategoryBreakfast}}, nil
		},
	}
	server := newTestServer(fs)

	req := httptest.NewRequest(http.MethodGet, "/api/recipes?category=breakfast&q=pancake", nil)
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	body := decodeResponse(t, rr)
	recipes := body["recipes"].([]any)
	if len(recipes) != 1 {
		t.Fatalf("expected one match, got %+v", recipes)
	}
	first := recipes[0].(map[string]any)
	if first["name"] != "Vegan Pancakes" {
		t.Fatalf("unexpected recipe: %+v", first)
	}
}

func TestListRecipesRejectsUnknownCategory(t *testing.T) {
	server := newTestServer(&fakeStore{})

	req := httptest.NewRequest(http.MethodGet, "/api/recipes?category=brunch", nil)
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rr.Code)
	}
	if body := decodeResponse(t, rr); body["code"] != "VALIDATION_ERROR" {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestRecipeDetailGateOverHTTP(t *testing.T) {
	fs := &fakeStore{
		getRecipeFn: func(context.Context, string) (catalog.Item, error) {
			return sampleRecipe(), nil
		},
		listItemsByCategoryFn: func(context.Context, catalog.Category) ([]catalog.Item, error) {
			return []catalog.Item{sampleRecipe()}, nil
		},
	}
	server := newTestServer(fs)

	// Anonymous request gets the locked summary.
	req := httptest.NewRequest(http.MethodGet, "/api/recipes/rcp_1", nil)
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	locked := decodeResponse(t, rr)
	if locked["locked"] != true {
		t.Fatalf("expected locked detail, got %+v", locked)
	}
	if _, ok := locked["ingredients"]; ok {
		t.Fatal("ingredients leaked to anonymous caller")
	}

	// The same route with a valid bearer token returns everything.
	req = httptest.NewRequest(http.MethodGet, "/api/recipes/rcp_1", nil)
	req.Header.Set("Authorization", "Bearer "+bearerFor(t, server.service, "usr_1"))
	rr = httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	full := decodeResponse(t, rr)
	if full["locked"] != false {
		t.Fatalf("expected unlocked detail, got %+v", full)
	}
	if _, ok := full["ingredients"]; !ok {
		t.Fatal("ingredients missing from unlocked detail")
	}
}

func TestRecipeDetailGateIgnoresGarbageToken(t *testing.T) {
	fs := &fakeStore{
		getRecipeFn: func(context.Context, string) (catalog.Item, error) {
			return sampleRecipe(), nil
		},
	}
	server := newTestServer(fs)

	req := httptest.NewRequest(http.MethodGet, "/api/recipes/rcp_1", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if body := decodeResponse(t, rr); body["locked"] != true {
		t.Fatalf("a garbage token must still get the locked view, got %+v", body)
	}
}

func TestRecipeDetailNotFound(t *testing.T) {
	server := newTestServer(&fakeStore{})

	req := httptest.NewRequest(http.MethodGet, "/api/recipes/rcp_missing", nil)
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestPostCommentOverHTTPRequiresLogin(t *testing.T) {
	var inserted bool
	fs := &fakeStore{
		getRecipeFn: func(context.Context, string) (catalog.Item, error) {
			return sampleRecipe(), nil
		},
		insertCommentFn: func(context.Context, store.Comment) error {
			inserted = true
			return nil
		},
	}
	server := newTestServer(fs)

	req := httptest.NewRequest(http.MethodPost, "/api/recipes/rcp_1/comments", strings.NewReader(`{"text":"Great!"}`))
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
	if body := decodeResponse(t, rr); body["code"] != "AUTH_REQUIRED" {
		t.Fatalf("unexpected body: %+v", body)
	}
	if inserted {
		t.Fatal("anonymous comment must not reach the store")
	}
}

func TestPostCommentOverHTTPReturnsThread(t *testing.T) {
	var stored []store.Comment
	fs := &fakeStore{
		getRecipeFn: func(context.Context, string) (catalog.Item, error) {
			return sampleRecipe(), nil
		},
		insertCommentFn: func(_ context.Context, comment store.Comment) error {
			stored = append(stored, comment)
			return nil
		},
		listCommentsFn: func(context.Context, string) ([]store.Comment, error) {
			return stored, nil
		},
	}
	server := newTestServer(fs)

	req := httptest.NewRequest(http.MethodPost, "/api/recipes/rcp_1/comments", strings.NewReader(`{"text":"Great!"}`))
	req.Header.Set("Authorization", "Bearer "+bearerFor(t, server.service, "usr_1"))
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	body := decodeResponse(t, rr)
	comments := body["comments"].([]any)
	if len(comments) != 1 {
		t.Fatalf("expected the re-read thread, got %+v", comments)
	}
	first := comments[0].(map[string]any)
	if first["author"] != "Priya" || first["text"] != "Great!" {
		t.Fatalf("unexpected comment: %+v", first)
	}
}

func TestCreateRecipeOverHTTP(t *testing.T) {
	var inserted catalog.Item
	fs := &fakeStore{
		insertRecipeFn: func(_ context.Context, item catalog.Item) error {
			inserted = item
			return nil
		},
	}
	server := newTestServer(fs)

	payload := `{"name":"Lentil Stew","category":"dinner","description":"Hearty.","ingredients":["lentils","carrots"],"steps":["Chop.","Simmer."]}`

	// Without a token the route refuses outright.
	req := httptest.NewRequest(http.MethodPost, "/api/recipes", strings.NewReader(payload))
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/recipes", strings.NewReader(payload))
	req.Header.Set("Authorization", "Bearer "+bearerFor(t, server.service, "usr_1"))
	rr = httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	body := decodeResponse(t, rr)
	if body["id"] != inserted.ID {
		t.Fatalf("response id %v does not match stored %q", body["id"], inserted.ID)
	}
	if inserted.Author != "Priya" {
		t.Fatalf("author must come from the session, got %q", inserted.Author)
	}
}

func TestRecommendationsRoute(t *testing.T) {
	fs := &fakeStore{
		getRecipeFn: func(context.Context, string) (catalog.Item, error) {
			return sampleRecipe(), nil
		},
		listItemsByCategoryFn: func(context.Context, catalog.Category) ([]catalog.Item, error) {
			return []catalog.Item{sampleRecipe(), {ID: "rcp_9", Name: "Granola", Category: catalog.CategoryBreakfast}}, nil
		},
	}
	server := newTestServer(fs)

	req := httptest.NewRequest(http.MethodGet, "/api/recipes/rcp_1/recommendations", nil)
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	body := decodeResponse(t, rr)
	recommendations := body["recommendations"].([]any)
	if len(recommendations) != 1 {
		t.Fatalf("expected one recommendation, got %+v", recommendations)
	}
	if recommendations[0].(map[string]any)["id"] != "rcp_9" {
		t.Fatalf("the recipe itself must be excluded, got %+v", recommendations)
	}
}

func TestSessionProbe(t *testing.T) {
	server := newTestServer(&fakeStore{})

	req := httptest.NewRequest(http.MethodGet, "/api/session", nil)
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if body := decodeResponse(t, rr); body["authenticated"] != false {
		t.Fatalf("unexpected body: %+v", body)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/session", nil)
	req.Header.Set("Authorization", "Bearer "+bearerFor(t, server.service, "usr_1"))
	rr = httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)

	body := decodeResponse(t, rr)
	if body["authenticated"] != true || body["userName"] != "Priya" {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestUnknownRoute(t *testing.T) {
	server := newTestServer(&fakeStore{})

	req := httptest.NewRequest(http.MethodGet, "/api/nope", nil)
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}
