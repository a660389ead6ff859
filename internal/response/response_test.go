package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestOutcomeEnvelope(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		success   bool
		message   string
		diag      string
		wantCode  ErrCode
		wantError bool
	}{
		{name: "ok", status: http.StatusOK, success: true},
		{name: "not found", status: http.StatusNotFound, message: "Survey session not found", wantCode: ErrNotFound},
		{name: "rejected", status: http.StatusBadRequest, message: "already completed", wantCode: ErrSurveyRejected},
		{name: "fault", status: http.StatusInternalServerError, message: "Error", diag: "connection refused", wantCode: ErrInternal, wantError: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Set(ContextKeyRequestID, "req-1")

			Outcome(c, tt.status, tt.success, nil, tt.message, tt.diag)

			if w.Code != tt.status {
				t.Errorf("status = %d, want %d", w.Code, tt.status)
			}
			var body map[string]any
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatal(err)
			}
			if body["success"] != tt.success {
				t.Errorf("success = %v", body["success"])
			}
			if _, has := body["error"]; has != tt.wantError {
				t.Errorf("error key present = %v, want %v", has, tt.wantError)
			}
			if got, _ := body["code"].(string); ErrCode(got) != tt.wantCode {
				t.Errorf("code = %q, want %q", got, tt.wantCode)
			}
			if md := body["metadata"].(map[string]any); md["request_id"] != "req-1" {
				t.Errorf("metadata = %v", md)
			}
		})
	}
}

func TestRequestIDMiddlewareEchoesHeader(t *testing.T) {
	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/", func(c *gin.Context) { Success(c, http.StatusOK, "ok") })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "abc")
	r.ServeHTTP(w, req)

	if got := w.Header().Get("X-Request-ID"); got != "abc" {
		t.Errorf("X-Request-ID = %q", got)
	}
}

func TestRequestIDMiddlewareReplacesUnsafeHeader(t *testing.T) {
	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/", func(c *gin.Context) { Success(c, http.StatusOK, "ok") })

	for _, bad := range []string{"has space", "line\nbreak", strings.Repeat("a", maxRequestIDLen+1)} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(HeaderRequestID, bad)
		r.ServeHTTP(w, req)

		got := w.Header().Get(HeaderRequestID)
		if _, err := uuid.Parse(got); err != nil {
			t.Errorf("%q: X-Request-ID = %q, want generated uuid", bad, got)
		}
	}
}
