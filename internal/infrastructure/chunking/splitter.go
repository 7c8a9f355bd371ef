package chunking

import "strings"

// Splitter cuts extracted text into overlapping fixed-size windows. The
// window end is pulled back to the nearest sentence boundary when one falls
// in the last quarter of the window, so chunks rarely cut a sentence in
// half.
type Splitter struct {
	ChunkSize int
	Overlap   int
}

func NewSplitter(chunkSize, overlap int) *Splitter {
	if chunkSize <= 0 {
		chunkSize = 900
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= chunkSize {
		overlap = chunkSize / 4
	}
	return &Splitter{
		ChunkSize: chunkSize,
		Overlap:   overlap,
	}
}

func (s *Splitter) Split(text string) []string {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}

	step := s.ChunkSize - s.Overlap
	if step <= 0 {
		step = s.ChunkSize
	}

	out := make([]string, 0, len(runes)/step+1)
	for start := 0; start < len(runes); {
		end := start + s.ChunkSize
		last := false
		if end >= len(runes) {
			end = len(runes)
			last = true
		} else if cut := sentenceCut(runes, start, end); cut > 0 {
			end = cut
		}

		chunk := strings.TrimSpace(string(runes[start:end]))
		if chunk != "" {
			out = append(out, chunk)
		}
		if last {
			break
		}

		next := end - s.Overlap
		if next <= start {
			next = start + step
		}
		start = next
	}
	return out
}

// sentenceCut finds the last sentence terminator in the final quarter of
// the window. Returns 0 when none is found there.
func sentenceCut(runes []rune, start, end int) int {
	limit := end - (end-start)/4
	for i := end - 1; i >= limit; i-- {
		switch runes[i] {
		case '.', '!', '?', '\n':
			return i + 1
		}
	}
	return 0
}
