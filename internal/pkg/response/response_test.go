package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNewMeta(t *testing.T) {
	meta := NewMeta(45, 2, 20)
	if meta.Pages != 3 || !meta.HasNext || !meta.HasPrev {
		t.Fatalf("unexpected meta: %+v", meta)
	}

	empty := NewMeta(0, 1, 20)
	if empty.Pages != 0 || empty.HasNext || empty.HasPrev {
		t.Fatalf("unexpected meta for empty listing: %+v", empty)
	}
}

func TestInvalidStateEnvelope(t *testing.T) {
	rr := httptest.NewRecorder()
	InvalidState(rr, "booking is not completed")

	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rr.Code)
	}

	var resp Response
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Success || resp.Error == nil || resp.Error.Code != "INVALID_STATE" {
		t.Fatalf("unexpected envelope: %+v", resp)
	}
}

func TestWithMetaEnvelope(t *testing.T) {
	rr := httptest.NewRecorder()
	WithMeta(rr, []string{"a"}, NewMeta(1, 1, 10))

	var resp Response
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Success || resp.Meta == nil || resp.Meta.Total != 1 {
		t.Fatalf("unexpected envelope: %+v", resp)
	}
}
