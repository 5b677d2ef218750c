package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/geocoder89/triple/internal/domain/destination"
	"github.com/geocoder89/triple/internal/domain/trip"
	"github.com/geocoder89/triple/internal/http/handlers"
	"github.com/gin-gonic/gin"
)

type validationResponse struct {
	Error  string                `json:"error"`
	Errors []handlers.FieldError `json:"errors"`
}

func bindRouter() *gin.Engine {
	r := gin.New()

	r.POST("/register", func(ctx *gin.Context) {
		var req handlers.SignUpRequest
		if !handlers.BindJSON(ctx, &req) {
			return
		}
		ctx.Status(http.StatusCreated)
	})

	r.POST("/trips", func(ctx *gin.Context) {
		var req trip.CreateTripRequest
		if !handlers.BindJSON(ctx, &req) {
			return
		}
		ctx.Status(http.StatusCreated)
	})

	r.GET("/destinations", func(ctx *gin.Context) {
		var q destination.ListQuery
		if !handlers.BindQuery(ctx, &q) {
			return
		}
		ctx.Status(http.StatusOK)
	})

	return r
}

func postJSON(r http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	return w
}

func decodeValidation(t *testing.T, w *httptest.ResponseRecorder) validationResponse {
	t.Helper()

	var resp validationResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal error response: %v body=%s", err, w.Body.String())
	}

	return resp
}

func TestBindJSON_ValidationErrorsUseJSONFieldNames(t *testing.T) {
	w := postJSON(bindRouter(), "/register", `{"email":"not-an-email","password":"123"}`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, want %d, body=%s", w.Code, http.StatusBadRequest, w.Body.String())
	}

	resp := decodeValidation(t, w)

	want := map[string]struct{ rule, message string }{
		"email":    {"email", "Valid email required"},
		"password": {"min", "Password must be at least 6 characters"},
		"name":     {"required", "Name is required"},
	}

	found := map[string]handlers.FieldError{}
	for _, fieldErr := range resp.Errors {
		found[fieldErr.Field] = fieldErr
	}

	for field, w := range want {
		fieldErr, ok := found[field]
		if !ok {
			t.Fatalf("missing field error for %q: %+v", field, resp.Errors)
		}
		if fieldErr.Rule != w.rule {
			t.Fatalf("field %q rule mismatch: got %q want %q", field, fieldErr.Rule, w.rule)
		}
		if fieldErr.Message != w.message {
			t.Fatalf("field %q message mismatch: got %q want %q", field, fieldErr.Message, w.message)
		}
	}
}

func TestBindJSON_BlankNameIsRejected(t *testing.T) {
	w := postJSON(bindRouter(), "/register", `{"email":"a@b.co","password":"secret1","name":"   "}`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, want %d", w.Code, http.StatusBadRequest)
	}

	resp := decodeValidation(t, w)
	if len(resp.Errors) != 1 || resp.Errors[0].Field != "name" || resp.Errors[0].Rule != "notblank" {
		t.Fatalf("unexpected errors: %+v", resp.Errors)
	}
}

func TestBindJSON_CalendarDates(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantCode  int
		wantField string
	}{
		{
			name:     "plain_dates",
			body:     `{"title":"Seoul","start_date":"2025-05-01","end_date":"2025-05-03"}`,
			wantCode: http.StatusCreated,
		},
		{
			name:     "iso_timestamps",
			body:     `{"title":"Seoul","start_date":"2025-05-01T00:00:00.000Z","end_date":"2025-05-03T00:00:00Z"}`,
			wantCode: http.StatusCreated,
		},
		{
			name:      "impossible_date",
			body:      `{"title":"Seoul","start_date":"2025-02-30","end_date":"2025-05-03"}`,
			wantCode:  http.StatusBadRequest,
			wantField: "start_date",
		},
		{
			name:      "missing_end",
			body:      `{"title":"Seoul","start_date":"2025-05-01"}`,
			wantCode:  http.StatusBadRequest,
			wantField: "end_date",
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			w := postJSON(bindRouter(), "/trips", tt.body)

			if w.Code != tt.wantCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantCode, w.Body.String())
			}

			if tt.wantField == "" {
				return
			}

			resp := decodeValidation(t, w)
			if len(resp.Errors) == 0 || resp.Errors[0].Field != tt.wantField {
				t.Fatalf("expected error on %q, got %+v", tt.wantField, resp.Errors)
			}
		})
	}
}

func TestBindJSON_TypeMismatchUsesJSONFieldNames(t *testing.T) {
	w := postJSON(bindRouter(), "/trips", `{"title":42,"start_date":"2025-05-01","end_date":"2025-05-03"}`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, want %d, body=%s", w.Code, http.StatusBadRequest, w.Body.String())
	}

	resp := decodeValidation(t, w)
	if len(resp.Errors) == 0 {
		t.Fatalf("expected at least one field error")
	}

	fieldErr := resp.Errors[0]
	if fieldErr.Field != "title" {
		t.Fatalf("expected field=title, got %q", fieldErr.Field)
	}
	if fieldErr.Rule != "type" {
		t.Fatalf("expected rule=type, got %q", fieldErr.Rule)
	}
}

func TestBindJSON_BodyProblems(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{name: "empty", body: ``, wantErr: "Request body is required"},
		{name: "truncated", body: `{"email":`, wantErr: "Invalid JSON body"},
		{name: "garbage", body: `{"email" "x"}`, wantErr: "Invalid JSON body"},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			w := postJSON(bindRouter(), "/register", tt.body)

			if w.Code != http.StatusBadRequest {
				t.Fatalf("got status %d, want %d", w.Code, http.StatusBadRequest)
			}

			resp := decodeValidation(t, w)
			if resp.Error != tt.wantErr {
				t.Fatalf("got error %q, want %q", resp.Error, tt.wantErr)
			}
		})
	}
}

func TestBindQuery_PaginationBounds(t *testing.T) {
	tests := []struct {
		url      string
		wantCode int
	}{
		{"/destinations", http.StatusOK},
		{"/destinations?limit=100&offset=0", http.StatusOK},
		{"/destinations?limit=0", http.StatusBadRequest},
		{"/destinations?limit=101", http.StatusBadRequest},
		{"/destinations?offset=-1", http.StatusBadRequest},
		{"/destinations?limit=abc", http.StatusBadRequest},
	}

	r := bindRouter()

	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, tt.url, nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != tt.wantCode {
			t.Fatalf("%s: got status %d, want %d, body=%s", tt.url, w.Code, tt.wantCode, w.Body.String())
		}
	}
}
