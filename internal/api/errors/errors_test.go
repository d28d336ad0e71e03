package errors

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestConstructors(t *testing.T) {
	tests := []struct {
		name       string
		write      func(http.ResponseWriter, string)
		wantStatus int
		wantCode   string
	}{
		{"validation", ValidationError, http.StatusBadRequest, CodeValidationError},
		{"not found", NotFound, http.StatusNotFound, CodeNotFound},
		{"conflict", Conflict, http.StatusConflict, CodeConflict},
		{"extraction", ExtractionError, http.StatusUnprocessableEntity, CodeExtractionError},
		{"internal", InternalError, http.StatusInternalServerError, CodeInternalError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			tt.write(rec, "сообщение")

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, ожидался %d", rec.Code, tt.wantStatus)
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type = %q", ct)
			}

			var body envelope
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("некорректный JSON: %v", err)
			}
			if body.Error == nil {
				t.Fatal("поле error отсутствует")
			}
			if body.Error.Code != tt.wantCode || body.Error.Message != "сообщение" {
				t.Errorf("тело = %+v", body)
			}
		})
	}
}

func TestError_UnknownCode(t *testing.T) {
	e := &Error{Code: "TEAPOT", Message: "x"}
	if e.Status() != http.StatusInternalServerError {
		t.Errorf("Status() = %d, ожидался 500", e.Status())
	}
	if e.Error() != "TEAPOT: x" {
		t.Errorf("Error() = %q", e.Error())
	}
}
