package domain

import (
	"context"
	"strings"
	"time"
)

// SourceType identifies where a document came from.
type SourceType string

const (
	SourceTypePDF   SourceType = "pdf"
	SourceTypeVideo SourceType = "video"
)

// Source names the single input of an ingestion. Exactly one of Path and URL is set.
type Source struct {
	Path string
	URL  string
}

// Type reports which kind of source this is. Validate must succeed first.
func (s Source) Type() SourceType {
	if s.Path != "" {
		return SourceTypePDF
	}
	return SourceTypeVideo
}

// Validate enforces that exactly one location is given.
func (s Source) Validate() error {
	hasPath := strings.TrimSpace(s.Path) != ""
	hasURL := strings.TrimSpace(s.URL) != ""
	switch {
	case hasPath && hasURL:
		return NewInvalidInputError("exactly one source is allowed, got both a file and a video URL")
	case !hasPath && !hasURL:
		return NewInvalidInputError("a PDF file or a video URL is required")
	}
	return nil
}

// Segment is a unit of extracted text. Position is the page number for PDFs
// and the caption ordinal for transcripts.
type Segment struct {
	SourceID string
	Text     string
	Position int
	Start    time.Duration
	Duration time.Duration
}

// Document is the ordered text of one source.
type Document struct {
	SourceType SourceType
	Title      string
	Segments   []Segment
}

// HasText reports whether any segment carries non-blank text.
func (d *Document) HasText() bool {
	for _, s := range d.Segments {
		if strings.TrimSpace(s.Text) != "" {
			return true
		}
	}
	return false
}

// Loader turns a Source into a Document.
type Loader interface {
	Load(ctx context.Context, src Source) (*Document, error)
}

// Chunk is a bounded window of document text. Start and End are rune offsets
// into the concatenated document, Overlap is the number of runes shared with
// the previous chunk.
type Chunk struct {
	Ordinal  int
	Text     string
	Start    int
	End      int
	Overlap  int
	Position int
}
