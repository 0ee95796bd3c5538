package chunker

import "strings"

// WindowChunker splits text into overlapping fixed-size windows measured in
// runes.
type WindowChunker struct {
	size    int
	overlap int
}

func NewWindowChunker(size, overlap int) *WindowChunker {
	if size < 1 {
		size = 1
	}
	if overlap < 0 {
		overlap = 0
	}
	return &WindowChunker{
		size:    size,
		overlap: overlap,
	}
}

// Chunk returns the trimmed windows of text in order. Windows start at
// multiples of the step until the start passes the end of the text; the last
// window is not aligned to the end.
func (c *WindowChunker) Chunk(text string) []string {
	text = strings.TrimSpace(strings.ReplaceAll(text, "\r\n", "\n"))
	if text == "" {
		return nil
	}

	runes := []rune(text)
	if len(runes) <= c.size {
		return []string{text}
	}

	step := c.Step()
	chunks := make([]string, 0, len(runes)/step+1)
	for start := 0; start < len(runes); start += step {
		end := min(start+c.size, len(runes))
		chunk := strings.TrimSpace(string(runes[start:end]))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
	}
	return chunks
}

// Step is the distance between consecutive window starts.
func (c *WindowChunker) Step() int {
	return max(1, c.size-c.overlap)
}
