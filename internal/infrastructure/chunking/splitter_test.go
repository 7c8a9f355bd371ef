package chunking

import (
	"strings"
	"testing"
)

func TestSplitEmptyText(t *testing.T) {
	s := NewSplitter(100, 20)
	if got := s.Split(""); got != nil {
		t.Fatalf("expected nil for empty text, got %v", got)
	}
}

func TestSplitShortTextSingleChunk(t *testing.T) {
	s := NewSplitter(100, 20)
	got := s.Split("Mastitis is an inflammation of the udder.")
	if len(got) != 1 {
		t.Fatalf("expected single chunk, got %d", len(got))
	}
}

func TestSplitPrefersSentenceBoundaries(t *testing.T) {
	text := strings.Repeat("Cattle graze in open pasture. ", 20)
	s := NewSplitter(100, 10)
	chunks := s.Split(text)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, chunk := range chunks[:len(chunks)-1] {
		if !strings.HasSuffix(chunk, ".") {
			t.Fatalf("chunk %d does not end at a sentence boundary: %q", i, chunk)
		}
	}
}

func TestSplitCoversWholeText(t *testing.T) {
	text := strings.Repeat("abcdefghij", 50)
	s := NewSplitter(120, 30)
	chunks := s.Split(text)
	if len(chunks) == 0 {
		t.Fatalf("expected chunks")
	}
	if !strings.HasSuffix(chunks[len(chunks)-1], "abcdefghij") {
		t.Fatalf("tail of text missing from last chunk")
	}
	for _, chunk := range chunks {
		if len([]rune(chunk)) > 120 {
			t.Fatalf("chunk exceeds size limit: %d runes", len([]rune(chunk)))
		}
	}
}

func TestNewSplitterNormalizesBadInputs(t *testing.T) {
	s := NewSplitter(0, -5)
	if s.ChunkSize != 900 || s.Overlap != 0 {
		t.Fatalf("unexpected defaults: %+v", s)
	}
	s = NewSplitter(100, 100)
	if s.Overlap != 25 {
		t.Fatalf("expected overlap clamp to quarter size, got %d", s.Overlap)
	}
}
