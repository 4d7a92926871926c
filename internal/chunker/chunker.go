package chunker

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"quiz-rag/internal/domain"
)

// Config controls chunking behavior. Sizes are measured in runes.
type Config struct {
	ChunkSize    int    // Upper bound on a chunk's length.
	ChunkOverlap int    // Upper bound on the text shared with the previous chunk.
	Separator    string // Inserted between consecutive segments.
}

// DefaultConfig returns the sizes used for quiz generation.
func DefaultConfig() Config {
	return Config{
		ChunkSize:    2000,
		ChunkOverlap: 200,
		Separator:    "\n\n",
	}
}

// Validate checks that the window can always advance.
func (c Config) Validate() error {
	if c.ChunkSize <= 0 {
		return domain.NewInvalidInputError(fmt.Sprintf("chunk size must be positive, got %d", c.ChunkSize))
	}
	// Overlap below half the size keeps each chunk overlapping only its
	// direct neighbours.
	if c.ChunkOverlap < 0 || 2*c.ChunkOverlap >= c.ChunkSize {
		return domain.NewInvalidInputError(fmt.Sprintf("chunk overlap must be in [0, %d/2), got %d", c.ChunkSize, c.ChunkOverlap))
	}
	return nil
}

// lookback is how far before the hard window edge a natural break is searched.
// With a valid overlap it stays small enough that the next window starts after
// the previous chunk ends.
func (c Config) lookback() int {
	lb := c.ChunkSize / 10
	if limit := c.ChunkSize - 2*c.ChunkOverlap; lb > limit {
		lb = limit
	}
	if lb < 0 {
		return 0
	}
	return lb
}

// Split concatenates the segments in order and cuts the text into
// overlapping windows. The same input always yields the same chunks.
func Split(segments []domain.Segment, cfg Config) ([]domain.Chunk, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	text, starts := concat(segments, cfg.Separator)
	n := len(text)
	if n == 0 {
		return nil, nil
	}

	var chunks []domain.Chunk
	lookback := cfg.lookback()
	start, prevEnd := 0, 0

	for {
		end := start + cfg.ChunkSize
		if end >= n {
			end = n
		} else {
			end = findCut(text, start, end, lookback)
		}

		if !isBlank(text[start:end]) {
			overlap := 0
			if len(chunks) > 0 && prevEnd > start {
				overlap = prevEnd - start
			}
			chunks = append(chunks, domain.Chunk{
				Ordinal:  len(chunks),
				Text:     string(text[start:end]),
				Start:    start,
				End:      end,
				Overlap:  overlap,
				Position: positionAt(segments, starts, start),
			})
			prevEnd = end
		}

		if end == n {
			break
		}
		next := end - cfg.ChunkOverlap
		if next <= start {
			next = end
		}
		start = next
	}

	return chunks, nil
}

// concat joins segment texts and records the rune offset where each begins.
func concat(segments []domain.Segment, sep string) ([]rune, []int) {
	var b strings.Builder
	starts := make([]int, len(segments))
	offset := 0
	sepLen := len([]rune(sep))
	for i, s := range segments {
		if i > 0 {
			b.WriteString(sep)
			offset += sepLen
		}
		starts[i] = offset
		b.WriteString(s.Text)
		offset += len([]rune(s.Text))
	}
	return []rune(b.String()), starts
}

// findCut returns the preferred end of the window [start, end). It looks back
// at most lookback runes for a paragraph break, then a line break, then a
// sentence end, and falls back to the exact offset.
func findCut(text []rune, start, end, lookback int) int {
	if lookback == 0 {
		return end
	}
	floor := end - lookback
	if floor <= start {
		floor = start + 1
	}

	// Paragraph break: cut after "\n\n".
	for i := end; i >= floor+1; i-- {
		if text[i-1] == '\n' && text[i-2] == '\n' {
			return i
		}
	}
	// Line break.
	for i := end; i >= floor; i-- {
		if text[i-1] == '\n' {
			return i
		}
	}
	// Sentence end followed by whitespace; the whitespace goes to this chunk.
	for i := end; i >= floor+1; i-- {
		if unicode.IsSpace(text[i-1]) && isSentenceEnd(text[i-2]) {
			return i
		}
	}
	return end
}

func isSentenceEnd(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

func isBlank(rs []rune) bool {
	for _, r := range rs {
		if !unicode.IsSpace(r) {
			return false
		}
	}
	return true
}

// positionAt returns the Position of the segment containing offset.
func positionAt(segments []domain.Segment, starts []int, offset int) int {
	if len(segments) == 0 {
		return 0
	}
	i := sort.Search(len(starts), func(i int) bool { return starts[i] > offset }) - 1
	if i < 0 {
		i = 0
	}
	return segments[i].Position
}
