package testutil

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/legacy"
)

// BankingAuthSpec is the OpenAPI document of the banking API auth endpoints,
// relative to the module root.
const BankingAuthSpec = "api/openapi/banking-auth.yaml"

// OpenAPIValidator checks HTTP traffic against an OpenAPI document.
type OpenAPIValidator struct {
	doc    *openapi3.T
	router routers.Router
}

// NewOpenAPIValidator loads specPath, failing the test on error.
func NewOpenAPIValidator(t *testing.T, specPath string) *OpenAPIValidator {
	t.Helper()

	v, err := LoadOpenAPIValidator(specPath)
	if err != nil {
		t.Fatalf("load OpenAPI validator: %v", err)
	}
	return v
}

// LoadOpenAPIValidator loads and validates the document at specPath.
func LoadOpenAPIValidator(specPath string) (*OpenAPIValidator, error) {
	loader := openapi3.NewLoader()

	doc, err := loader.LoadFromFile(specPath)
	if err != nil {
		return nil, fmt.Errorf("load OpenAPI spec from %s: %w", specPath, err)
	}
	if err := doc.Validate(context.Background()); err != nil {
		return nil, fmt.Errorf("validate OpenAPI spec: %w", err)
	}

	router, err := legacy.NewRouter(doc)
	if err != nil {
		return nil, fmt.Errorf("create OpenAPI router: %w", err)
	}
	return &OpenAPIValidator{doc: doc, router: router}, nil
}

// ModulePath resolves rel against the module root, found by walking up from the
// test's working directory to the nearest go.mod.
func ModulePath(t *testing.T, rel string) string {
	t.Helper()

	dir, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return filepath.Join(dir, rel)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatalf("go.mod not found above working directory")
		}
		dir = parent
	}
}

func (v *OpenAPIValidator) findRoute(t *testing.T, method, path string) (*routers.Route, map[string]string, bool) {
	t.Helper()

	// The router matches on path only; scheme and host of test servers vary.
	routeReq, err := http.NewRequest(method, path, nil)
	if err != nil {
		t.Errorf("create route request: %v", err)
		return nil, nil, false
	}
	route, params, err := v.router.FindRoute(routeReq)
	if err != nil {
		t.Errorf("OpenAPI: no route for %s %s: %v", method, path, err)
		return nil, nil, false
	}
	return route, params, true
}

// ValidateRequest checks req, including its body. The body is restored.
func (v *OpenAPIValidator) ValidateRequest(t *testing.T, req *http.Request) {
	t.Helper()

	route, params, ok := v.findRoute(t, req.Method, req.URL.Path)
	if !ok {
		return
	}

	body, err := restoreBody(&req.Body)
	if err != nil {
		t.Errorf("read request body: %v", err)
		return
	}

	input := &openapi3filter.RequestValidationInput{
		Request:    req,
		PathParams: params,
		Route:      route,
		Options:    &openapi3filter.Options{MultiError: true},
	}
	if err := openapi3filter.ValidateRequest(context.Background(), input); err != nil {
		t.Errorf("OpenAPI request validation failed for %s %s: %v\nRequest body: %s",
			req.Method, req.URL.Path, err, truncateBody(body))
	}
	req.Body = io.NopCloser(bytes.NewReader(body))
}

// ValidateResponse checks resp as the answer to req. The body is restored.
func (v *OpenAPIValidator) ValidateResponse(t *testing.T, req *http.Request, resp *http.Response) {
	t.Helper()

	route, params, ok := v.findRoute(t, req.Method, req.URL.Path)
	if !ok {
		return
	}

	body, err := restoreBody(&resp.Body)
	if err != nil {
		t.Errorf("read response body: %v", err)
		return
	}

	input := &openapi3filter.ResponseValidationInput{
		RequestValidationInput: &openapi3filter.RequestValidationInput{
			Request:    req,
			PathParams: params,
			Route:      route,
		},
		Status: resp.StatusCode,
		Header: resp.Header,
		Body:   io.NopCloser(bytes.NewReader(body)),
		Options: &openapi3filter.Options{
			MultiError:            true,
			IncludeResponseStatus: true,
		},
	}
	if err := openapi3filter.ValidateResponse(context.Background(), input); err != nil {
		t.Errorf("OpenAPI response validation failed for %s %s (status %d): %v\nResponse body: %s",
			req.Method, req.URL.Path, resp.StatusCode, err, truncateBody(body))
	}
}

// restoreBody drains *rc and replaces it with an in-memory copy.
func restoreBody(rc *io.ReadCloser) ([]byte, error) {
	if *rc == nil || *rc == http.NoBody {
		return nil, nil
	}
	body, err := io.ReadAll(*rc)
	_ = (*rc).Close()
	*rc = io.NopCloser(bytes.NewReader(body))
	return body, err
}

func truncateBody(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > 200 {
		return s[:200] + "..."
	}
	return s
}
