package sync

import (
	"testing"
	"time"

	"github.com/gripfin/grip/internal/domain"
)

func TestFingerprint(t *testing.T) {
	delivered := time.Date(2026, time.August, 10, 9, 30, 0, 0, time.UTC)
	msg := domain.RawMessage{ID: "msg-1", Delivered: delivered}

	fp := Fingerprint(msg)
	if len(fp) != 64 {
		t.Fatalf("fingerprint length = %d, want 64 hex chars", len(fp))
	}
	if fp != Fingerprint(msg) {
		t.Error("fingerprint not deterministic")
	}

	// Either field changing must change the fingerprint.
	if fp == Fingerprint(domain.RawMessage{ID: "msg-2", Delivered: delivered}) {
		t.Error("different message IDs collided")
	}
	if fp == Fingerprint(domain.RawMessage{ID: "msg-1", Delivered: delivered.Add(time.Millisecond)}) {
		t.Error("different delivery times collided")
	}

	// Body changes must NOT change it; re-fetches can differ in decoding.
	withBody := domain.RawMessage{ID: "msg-1", Delivered: delivered, Body: "text"}
	if fp != Fingerprint(withBody) {
		t.Error("fingerprint depends on message body")
	}
}
