package http

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHTMXResponseTriggers(t *testing.T) {
	rec := httptest.NewRecorder()
	NewHTMXResponse().
		TriggerRowCreated("expense", 7).
		TriggerFormReset().
		TriggerSuccessNotification("Expense created").
		Write(rec)

	if rec.Code != 200 {
		t.Fatalf("status = %d", rec.Code)
	}

	header := rec.Header().Get("HX-Trigger")
	var triggers map[string]json.RawMessage
	if err := json.Unmarshal([]byte(header), &triggers); err != nil {
		t.Fatalf("HX-Trigger is not valid JSON: %v", err)
	}
	for _, name := range []string{"expense:created", "form:reset", "show-notification"} {
		if _, ok := triggers[name]; !ok {
			t.Errorf("missing trigger %q in %s", name, header)
		}
	}
}

func TestErrorResponseEscapesMessage(t *testing.T) {
	rec := httptest.NewRecorder()
	ConflictError(`<script>alert("x")</script>`).Write(rec)

	if rec.Code != 409 {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	if strings.Contains(body, "<script>") {
		t.Errorf("body not escaped: %s", body)
	}
	if !strings.Contains(body, `class="error"`) {
		t.Errorf("missing error wrapper: %s", body)
	}
}

func TestMethodNotAllowedSetsAllowHeader(t *testing.T) {
	rec := httptest.NewRecorder()
	MethodNotAllowedError("GET, POST").Write(rec)

	if rec.Code != 405 {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := rec.Header().Get("Allow"); got != "GET, POST" {
		t.Errorf("Allow = %q", got)
	}
}
