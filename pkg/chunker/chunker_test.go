package chunker

import (
	"strings"
	"testing"
)

func TestChunkDropsShortElements(t *testing.T) {
	long := strings.Repeat("Quarterly revenue grew across all segments. ", 4)
	elements := []string{"Page 3", long, "2024"}

	chunks, err := New().Chunk(elements, "report.pdf", "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Text != long {
		t.Fatalf("unexpected chunk text: %q", chunks[0].Text)
	}
	if chunks[0].SourceDocument != "report.pdf" || chunks[0].OwnerID != "user-1" {
		t.Fatalf("metadata not propagated: %+v", chunks[0])
	}
}

func TestChunkIndicesAreContiguous(t *testing.T) {
	el := strings.Repeat("The bond portfolio held steady through the quarter. ", 3)
	elements := []string{el, el, el}

	chunks, err := New().Chunk(elements, "report.txt", "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if c.Index != i {
			t.Fatalf("chunk %d has index %d", i, c.Index)
		}
	}
}

func TestChunkResplitsOversizedElements(t *testing.T) {
	oversized := strings.Repeat("Sustained inflation pressures weighed on fixed income markets. ", 50)
	if len(oversized) <= ResplitThreshold {
		t.Fatalf("fixture too short: %d", len(oversized))
	}

	chunks, err := New().Chunk([]string{oversized}, "report.txt", "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) < 2 {
		t.Fatalf("expected oversized element to be re-split, got %d chunks", len(chunks))
	}
	for i, c := range chunks {
		if len(c.Text) > ResplitThreshold {
			t.Fatalf("chunk %d still oversized: %d chars", i, len(c.Text))
		}
		if c.Index != i {
			t.Fatalf("chunk %d has index %d", i, c.Index)
		}
	}
}

func TestChunkEmptyDocument(t *testing.T) {
	chunks, err := New().Chunk([]string{"short", "tiny"}, "empty.txt", "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 0 {
		t.Fatalf("expected no chunks, got %d", len(chunks))
	}
}
