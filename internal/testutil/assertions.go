package testutil

import (
	"io"
	"net/http"
	"strings"
	"testing"
)

// ResponseAssertion chains checks on one HTTP response. The body is read once,
// on the first check that needs it.
type ResponseAssertion struct {
	t    *testing.T
	resp *http.Response
	body *string
}

// AssertResponse starts a chain of checks on resp
func AssertResponse(t *testing.T, resp *http.Response) *ResponseAssertion {
	t.Helper()
	return &ResponseAssertion{t: t, resp: resp}
}

// Body returns the response body
func (ra *ResponseAssertion) Body() string {
	ra.t.Helper()
	if ra.body == nil {
		defer ra.resp.Body.Close()
		data, err := io.ReadAll(ra.resp.Body)
		if err != nil {
			ra.t.Fatalf("read body: %v", err)
		}
		s := string(data)
		ra.body = &s
	}
	return *ra.body
}

func (ra *ResponseAssertion) Status(code int) *ResponseAssertion {
	ra.t.Helper()
	if ra.resp.StatusCode != code {
		ra.t.Errorf("status = %d, want %d", ra.resp.StatusCode, code)
	}
	return ra
}

func (ra *ResponseAssertion) StatusOK() *ResponseAssertion {
	ra.t.Helper()
	return ra.Status(http.StatusOK)
}

// NoContent asserts a 204 with an empty body, the answer to an ignored submit
func (ra *ResponseAssertion) NoContent() *ResponseAssertion {
	ra.t.Helper()
	ra.Status(http.StatusNoContent)
	if body := ra.Body(); body != "" {
		ra.t.Errorf("expected empty body, got %q", truncate(body, 200))
	}
	return ra
}

// Redirect asserts a 3xx pointing at location
func (ra *ResponseAssertion) Redirect(location string) *ResponseAssertion {
	ra.t.Helper()
	if ra.resp.StatusCode < 300 || ra.resp.StatusCode >= 400 {
		ra.t.Errorf("status = %d, want a redirect", ra.resp.StatusCode)
	}
	if got := ra.resp.Header.Get("Location"); got != location {
		ra.t.Errorf("Location = %q, want %q", got, location)
	}
	return ra
}

// Header asserts that header name contains want
func (ra *ResponseAssertion) Header(name, want string) *ResponseAssertion {
	ra.t.Helper()
	if got := ra.resp.Header.Get(name); !strings.Contains(got, want) {
		ra.t.Errorf("%s = %q, want it to contain %q", name, got, want)
	}
	return ra
}

func (ra *ResponseAssertion) ContentType(want string) *ResponseAssertion {
	ra.t.Helper()
	return ra.Header("Content-Type", want)
}

func (ra *ResponseAssertion) IsHTML() *ResponseAssertion {
	ra.t.Helper()
	return ra.ContentType("text/html")
}

func (ra *ResponseAssertion) IsJSON() *ResponseAssertion {
	ra.t.Helper()
	return ra.ContentType("application/json")
}

// Triggers asserts the HX-Trigger header names every event
func (ra *ResponseAssertion) Triggers(events ...string) *ResponseAssertion {
	ra.t.Helper()
	got := ra.resp.Header.Get("HX-Trigger")
	for _, ev := range events {
		if !strings.Contains(got, `"`+ev+`"`) {
			ra.t.Errorf("HX-Trigger = %q, missing event %q", got, ev)
		}
	}
	return ra
}

// Attachment asserts a download whose file name starts with prefix
func (ra *ResponseAssertion) Attachment(prefix string) *ResponseAssertion {
	ra.t.Helper()
	cd := ra.resp.Header.Get("Content-Disposition")
	if !strings.HasPrefix(cd, "attachment") || !strings.Contains(cd, "filename="+prefix) {
		ra.t.Errorf("Content-Disposition = %q, want an attachment named %s*", cd, prefix)
	}
	return ra
}

// Contains asserts the body contains every substring
func (ra *ResponseAssertion) Contains(substrs ...string) *ResponseAssertion {
	ra.t.Helper()
	body := ra.Body()
	for _, s := range substrs {
		if !strings.Contains(body, s) {
			ra.t.Errorf("body is missing %q\nbody: %s", s, truncate(body, 500))
		}
	}
	return ra
}

func (ra *ResponseAssertion) NotContains(substrs ...string) *ResponseAssertion {
	ra.t.Helper()
	body := ra.Body()
	for _, s := range substrs {
		if strings.Contains(body, s) {
			ra.t.Errorf("body unexpectedly contains %q", s)
		}
	}
	return ra
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
