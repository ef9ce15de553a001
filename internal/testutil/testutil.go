// Package testutil provides HTTP testing helpers for the finanzas server.
package testutil

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

// ProjectRoot is the directory holding go.mod
func ProjectRoot() string {
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		panic("could not get caller info")
	}
	for dir := filepath.Dir(filename); ; {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			panic("could not find project root (go.mod)")
		}
		dir = parent
	}
}

func TemplatesDir() string { return filepath.Join(ProjectRoot(), "web", "templates") }

func StaticDir() string { return filepath.Join(ProjectRoot(), "web", "static") }

// TestConfig returns FINANZAS_* variables for a server that keeps its data in
// a fresh temp dir and runs its timers fast.
func TestConfig(t *testing.T) map[string]string {
	t.Helper()
	return map[string]string{
		"FINANZAS_DATA_DIR":       t.TempDir(),
		"FINANZAS_TEMPLATES_DIR":  TemplatesDir(),
		"FINANZAS_STATIC_DIR":     StaticDir(),
		"FINANZAS_STORAGE":        "file",
		"FINANZAS_DEBUG":          "true",
		"FINANZAS_LISTEN_ADDR":    ":0",
		"FINANZAS_ADVISOR_DELAY":  "10ms",
		"FINANZAS_CONFIRM_WINDOW": "500ms",
		"FINANZAS_LOG_LEVEL":      "error",
	}
}

// SetTestEnv applies TestConfig for the duration of t
func SetTestEnv(t *testing.T) {
	t.Helper()
	for k, v := range TestConfig(t) {
		t.Setenv(k, v)
	}
}

// TestServer wraps httptest.Server. Requests fail the test on transport errors.
type TestServer struct {
	Server  *httptest.Server
	BaseURL string
	t       *testing.T
	htmx    bool
}

func NewTestServer(t *testing.T, router http.Handler) *TestServer {
	t.Helper()
	server := httptest.NewServer(router)
	return &TestServer{Server: server, BaseURL: server.URL, t: t}
}

// HTMX returns a client for the same server that sends HX-Request, as the
// dashboard's htmx attributes do.
func (ts *TestServer) HTMX() *TestServer {
	c := *ts
	c.htmx = true
	return &c
}

func (ts *TestServer) do(method, path, contentType string, body io.Reader) *http.Response {
	ts.t.Helper()

	req, err := http.NewRequest(method, ts.BaseURL+path, body)
	if err != nil {
		ts.t.Fatalf("build %s %s: %v", method, path, err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if ts.htmx {
		req.Header.Set("HX-Request", "true")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		ts.t.Fatalf("%s %s failed: %v", method, path, err)
	}
	return resp
}

func (ts *TestServer) GET(path string) *http.Response {
	ts.t.Helper()
	return ts.do(http.MethodGet, path, "", nil)
}

func (ts *TestServer) GETWithQuery(path string, query map[string]string) *http.Response {
	ts.t.Helper()
	values := url.Values{}
	for k, v := range query {
		values.Set(k, v)
	}
	if len(values) > 0 {
		path += "?" + values.Encode()
	}
	return ts.do(http.MethodGet, path, "", nil)
}

func (ts *TestServer) POST(path string, contentType string, body io.Reader) *http.Response {
	ts.t.Helper()
	return ts.do(http.MethodPost, path, contentType, body)
}

// PostForm submits values url-encoded, like the transaction form
func (ts *TestServer) PostForm(path string, values url.Values) *http.Response {
	ts.t.Helper()
	return ts.POST(path, "application/x-www-form-urlencoded", strings.NewReader(values.Encode()))
}

// PostFile uploads content as the multipart field "file"
func (ts *TestServer) PostFile(path, filename string, content []byte) *http.Response {
	ts.t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err == nil {
		_, err = part.Write(content)
	}
	if err == nil {
		err = mw.Close()
	}
	if err != nil {
		ts.t.Fatalf("build upload %s: %v", filename, err)
	}
	return ts.POST(path, mw.FormDataContentType(), &buf)
}

func (ts *TestServer) DELETE(path string) *http.Response {
	ts.t.Helper()
	return ts.do(http.MethodDelete, path, "", nil)
}

func (ts *TestServer) Close() {
	ts.Server.Close()
}

// ReadBody reads and closes the response body
func ReadBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return string(body)
}
