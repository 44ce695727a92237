package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/GE3O/fence-catalog/internal/model"
)

// mockCatalog implements Catalog for testing.
// Each verb can be configured via function fields.
type mockCatalog struct {
	ReadFunc   func(ctx context.Context, path string, params url.Values) (json.RawMessage, error)
	CreateFunc func(ctx context.Context, path string, body any) (json.RawMessage, error)
	UpdateFunc func(ctx context.Context, path string, body any) (json.RawMessage, error)
	DeleteFunc func(ctx context.Context, path string, params url.Values) (json.RawMessage, error)
}

func (m *mockCatalog) Read(ctx context.Context, path string, params url.Values) (json.RawMessage, error) {
	if m.ReadFunc != nil {
		return m.ReadFunc(ctx, path, params)
	}
	return json.RawMessage(`[]`), nil
}

func (m *mockCatalog) Create(ctx context.Context, path string, body any) (json.RawMessage, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, path, body)
	}
	return json.RawMessage(`{}`), nil
}

func (m *mockCatalog) Update(ctx context.Context, path string, body any) (json.RawMessage, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, path, body)
	}
	return json.RawMessage(`{}`), nil
}

func (m *mockCatalog) Delete(ctx context.Context, path string, params url.Values) (json.RawMessage, error) {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, path, params)
	}
	return json.RawMessage(`{}`), nil
}

var _ Catalog = (*mockCatalog)(nil)

func newTestServer(mock *mockCatalog) *httptest.Server {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := New(mock, logger)
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)
	return httptest.NewServer(mux)
}

func TestReadPassesPathAndParams(t *testing.T) {
	var gotPath string
	var gotParams url.Values
	mock := &mockCatalog{
		ReadFunc: func(ctx context.Context, path string, params url.Values) (json.RawMessage, error) {
			gotPath = path
			gotParams = params
			return json.RawMessage(`[{"id":53}]`), nil
		},
	}
	srv := newTestServer(mock)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/catalog/products/categories?per_page=100")
	if err != nil {
		t.Fatalf("GET error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Status = %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %s, want application/json", ct)
	}
	if gotPath != "products/categories" {
		t.Errorf("path = %q, want products/categories", gotPath)
	}
	if gotParams.Get("per_page") != "100" {
		t.Errorf("per_page = %q, want 100", gotParams.Get("per_page"))
	}

	body, _ := io.ReadAll(resp.Body)
	if string(body) != `[{"id":53}]` {
		t.Errorf("body = %s, want raw payload untouched", body)
	}
}

func TestCreateDecodesBody(t *testing.T) {
	var gotBody any
	mock := &mockCatalog{
		CreateFunc: func(ctx context.Context, path string, body any) (json.RawMessage, error) {
			gotBody = body
			return json.RawMessage(`{"id":201}`), nil
		},
	}
	srv := newTestServer(mock)
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/catalog/products", "application/json",
		strings.NewReader(`{"name":"Corner Post"}`))
	if err != nil {
		t.Fatalf("POST error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Errorf("Status = %d, want 201", resp.StatusCode)
	}
	m, ok := gotBody.(map[string]any)
	if !ok || m["name"] != "Corner Post" {
		t.Errorf("body = %v, want decoded map", gotBody)
	}
}

func TestCreateRejectsInvalidJSON(t *testing.T) {
	srv := newTestServer(&mockCatalog{})
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/catalog/products", "application/json",
		strings.NewReader("{not json"))
	if err != nil {
		t.Fatalf("POST error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Status = %d, want 400", resp.StatusCode)
	}

	var errResp struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&errResp); err != nil {
		t.Fatalf("decoding error body: %v", err)
	}
	if errResp.Error.Code != "VALIDATION_ERROR" {
		t.Errorf("code = %s, want VALIDATION_ERROR", errResp.Error.Code)
	}
}

func TestUpdateAndDeleteVerbs(t *testing.T) {
	var updatePath, deletePath string
	mock := &mockCatalog{
		UpdateFunc: func(ctx context.Context, path string, body any) (json.RawMessage, error) {
			updatePath = path
			return json.RawMessage(`{"id":201}`), nil
		},
		DeleteFunc: func(ctx context.Context, path string, params url.Values) (json.RawMessage, error) {
			deletePath = path
			return json.RawMessage(`{"id":201,"deleted":true}`), nil
		},
	}
	srv := newTestServer(mock)
	defer srv.Close()

	put, _ := http.NewRequest(http.MethodPut, srv.URL+"/catalog/products/201",
		strings.NewReader(`{"price":"29.99"}`))
	resp, err := http.DefaultClient.Do(put)
	if err != nil {
		t.Fatalf("PUT error: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("PUT status = %d, want 200", resp.StatusCode)
	}
	if updatePath != "products/201" {
		t.Errorf("update path = %q, want products/201", updatePath)
	}

	del, _ := http.NewRequest(http.MethodDelete, srv.URL+"/catalog/products/201?force=true", nil)
	resp, err = http.DefaultClient.Do(del)
	if err != nil {
		t.Fatalf("DELETE error: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("DELETE status = %d, want 200", resp.StatusCode)
	}
	if deletePath != "products/201" {
		t.Errorf("delete path = %q, want products/201", deletePath)
	}
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "upstream status",
			err:        model.NewStatusError("https://x", 503),
			wantStatus: http.StatusBadGateway,
			wantCode:   "UPSTREAM_STATUS",
		},
		{
			name:       "timeout",
			err:        model.NewTimeoutError("https://x", context.DeadlineExceeded),
			wantStatus: http.StatusGatewayTimeout,
			wantCode:   "TIMEOUT",
		},
		{
			name:       "decode",
			err:        model.NewDecodeError("https://x", errors.New("bad json")),
			wantStatus: http.StatusBadGateway,
			wantCode:   "DECODE_ERROR",
		},
		{
			name:       "unexpected",
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   "INTERNAL_ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &mockCatalog{
				ReadFunc: func(ctx context.Context, path string, params url.Values) (json.RawMessage, error) {
					return nil, tt.err
				},
			}
			srv := newTestServer(mock)
			defer srv.Close()

			resp, err := http.Get(srv.URL + "/catalog/products")
			if err != nil {
				t.Fatalf("GET error: %v", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != tt.wantStatus {
				t.Errorf("Status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}

			var errResp struct {
				Error struct {
					Code    string `json:"code"`
					Message string `json:"message"`
				} `json:"error"`
			}
			if err := json.NewDecoder(resp.Body).Decode(&errResp); err != nil {
				t.Fatalf("decoding error body: %v", err)
			}
			if errResp.Error.Code != tt.wantCode {
				t.Errorf("code = %s, want %s", errResp.Error.Code, tt.wantCode)
			}
			// The UI renders one generic message regardless of cause.
			if errResp.Error.Message != "could not load catalog data" {
				t.Errorf("message = %q", errResp.Error.Message)
			}
		})
	}
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(&mockCatalog{})
	defer srv.Close()

	for _, path := range []string{"/health", "/healthz"} {
		resp, err := http.Get(srv.URL + path)
		if err != nil {
			t.Fatalf("GET %s error: %v", path, err)
		}
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Errorf("%s status = %d, want 200", path, resp.StatusCode)
		}
		if !strings.Contains(string(body), `"ok"`) {
			t.Errorf("%s body = %s", path, body)
		}
	}
}

func TestMethodNotAllowed(t *testing.T) {
	srv := newTestServer(&mockCatalog{})
	defer srv.Close()

	req, _ := http.NewRequest(http.MethodPatch, srv.URL+"/catalog/products", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("PATCH error: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("Status = %d, want 405", resp.StatusCode)
	}
}
