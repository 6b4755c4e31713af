package testutil_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/zee-sandev/outscope"
	"github.com/zee-sandev/outscope/testutil"
)

// Example types for testing
type CreateUserRequest struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required,email"`
}

type CreateUserResponse struct {
	Message string `json:"message"`
	ID      int    `json:"id"`
}

type SearchParams struct {
	Query string `json:"query" schema:"query"`
	Limit int    `json:"limit" schema:"limit"`
}

func createUser(ctx context.Context, req *CreateUserRequest) (*CreateUserResponse, error) {
	return &CreateUserResponse{
		Message: "Hello, " + req.Name,
		ID:      42,
	}, nil
}

func searchUsers(ctx context.Context, req *SearchParams) (map[string]any, error) {
	return map[string]any{
		"query": req.Query,
		"limit": req.Limit,
	}, nil
}

func newUserApp(t *testing.T) *outscope.App {
	t.Helper()

	contract := outscope.Group().
		Add("user", outscope.Group().
			Add("create", outscope.Route(http.MethodPost, "/users")).
			Add("search", outscope.Route(http.MethodGet, "/users")))

	app := outscope.NewApp().WithContract(contract)

	user := app.Contract().Child("user")
	ctrl := outscope.NewController("user").
		Handle("create", user.Child("create"), outscope.Unary(createUser)).
		Handle("search", user.Child("search"), outscope.Unary(searchUsers))

	app.MustRegister(ctrl)
	return app
}

func TestRequestBuilderWithApp(t *testing.T) {
	app := newUserApp(t)

	w := testutil.NewRequest().
		POST("/api/users").
		WithJSON(CreateUserRequest{Name: "Alice", Email: "alice@example.com"}).
		Do(app.Handler())

	testutil.AssertStatus(t, w, http.StatusOK)
	testutil.AssertJSONResponse(t, w, CreateUserResponse{
		Message: "Hello, Alice",
		ID:      42,
	})
}

func TestRequestBuilderQueryParams(t *testing.T) {
	app := newUserApp(t)

	w := testutil.NewRequest().
		GET("/api/users").
		WithQuery("query", "alice").
		WithQuery("limit", "10").
		Do(app.Handler())

	testutil.AssertStatus(t, w, http.StatusOK)

	var result map[string]any
	testutil.DecodeJSON(t, w, &result)
	if result["query"] != "alice" {
		t.Errorf("expected query=alice, got %v", result["query"])
	}
	if result["limit"] != float64(10) {
		t.Errorf("expected limit=10, got %v", result["limit"])
	}
}

func TestRequestBuilderEnvelope(t *testing.T) {
	app := newUserApp(t)

	// RPC-style clients wrap the payload in a {"json": ...} envelope.
	// The app unwraps it before decoding.
	w := testutil.NewRequest().
		POST("/api/user/create").
		WithEnvelope(CreateUserRequest{Name: "Bob", Email: "bob@example.com"}).
		Do(app.Handler())

	testutil.AssertStatus(t, w, http.StatusOK)
	testutil.AssertJSONResponse(t, w, CreateUserResponse{
		Message: "Hello, Bob",
		ID:      42,
	})
}

func TestErrorAssertions(t *testing.T) {
	app := newUserApp(t)

	// Missing required fields fail validation.
	w := testutil.NewRequest().
		POST("/api/users").
		WithJSON(map[string]any{"name": ""}).
		Do(app.Handler())

	testutil.AssertStatus(t, w, http.StatusUnprocessableEntity)
	errResp := testutil.AssertJSONError(t, w, "UNPROCESSABLE_CONTENT")
	if errResp.Details == nil {
		t.Error("expected validation details in error response")
	}
}

func TestUnknownRoute(t *testing.T) {
	app := newUserApp(t)

	w := testutil.NewRequest().
		GET("/api/nope").
		Do(app.Handler())

	testutil.AssertStatus(t, w, http.StatusNotFound)
	testutil.AssertJSONError(t, w, "NOT_FOUND")
}

func TestCustomHeaders(t *testing.T) {
	app := newUserApp(t)

	w := testutil.NewRequest().
		POST("/api/users").
		WithJSON(CreateUserRequest{Name: "Carol", Email: "carol@example.com"}).
		WithHeader("X-Request-ID", "test-123").
		Do(app.Handler())

	testutil.AssertStatus(t, w, http.StatusOK)
	testutil.AssertHeader(t, w, "Content-Type", "application/json")
}

func TestRawBody(t *testing.T) {
	app := newUserApp(t)

	w := testutil.NewRequest().
		POST("/api/users").
		WithBody(`{"name":"Dave","email":"dave@example.com"}`).
		WithHeader("Content-Type", "application/json").
		Do(app.Handler())

	testutil.AssertStatus(t, w, http.StatusOK)
}
