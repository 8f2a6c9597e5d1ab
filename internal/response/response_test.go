package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(h gin.HandlerFunc, reqID string) (*httptest.ResponseRecorder, Response) {
	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/", h)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if reqID != "" {
		req.Header.Set("X-Request-ID", reqID)
	}
	r.ServeHTTP(w, req)

	var body Response
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return w, body
}

func TestSuccessEnvelope(t *testing.T) {
	w, body := serve(func(c *gin.Context) {
		Success(c, http.StatusOK, gin.H{"ok": true})
	}, "req-1")

	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	if !body.Success || body.Error != nil {
		t.Fatalf("unexpected envelope: %+v", body)
	}
	if body.Metadata.RequestID != "req-1" || w.Header().Get("X-Request-ID") != "req-1" {
		t.Fatalf("request id not propagated: %+v", body.Metadata)
	}
}

func TestFailWithFieldsEnvelope(t *testing.T) {
	w, body := serve(func(c *gin.Context) {
		FailWithFields(c, http.StatusBadRequest, ErrValidation, map[string]string{"points": "must be 3"})
	}, "")

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status=%d", w.Code)
	}
	if body.Success || body.Error == nil || body.Error.Code != ErrValidation {
		t.Fatalf("unexpected envelope: %+v", body)
	}
	if body.Error.Fields["points"] != "must be 3" {
		t.Fatalf("fields=%v", body.Error.Fields)
	}
	if body.Metadata.RequestID == "" {
		t.Fatal("request id should be generated")
	}
}

func TestNewPagination(t *testing.T) {
	p := NewPagination(0, 500, 250)
	if p.Page != 1 || p.PerPage != 100 || p.TotalPages != 3 {
		t.Fatalf("pagination=%+v", p)
	}
}

func TestRequestIDRejectsUnsafeHeader(t *testing.T) {
	w, body := serve(func(c *gin.Context) {
		Success(c, http.StatusOK, nil)
	}, "bad id\twith spaces")

	got := w.Header().Get("X-Request-ID")
	if got == "bad id\twith spaces" || got == "" {
		t.Fatalf("X-Request-ID=%q", got)
	}
	if body.Metadata.RequestID != got {
		t.Fatalf("metadata id %q != header %q", body.Metadata.RequestID, got)
	}
}
