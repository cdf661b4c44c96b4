package testfixtures

import "testing"

func TestIDGeneratorProducesSequentialIDs(t *testing.T) {
	gen := NewIDGenerator("meeting")
	next := gen.NextFunc()

	first := next()
	second := gen.Next()

	if first != "meeting-001" || second != "meeting-002" {
		t.Fatalf("unexpected identifiers: %q, %q", first, second)
	}
	if gen.Issued() != 2 {
		t.Fatalf("expected 2 issued, got %d", gen.Issued())
	}
}
