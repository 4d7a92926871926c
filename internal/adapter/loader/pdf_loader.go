package loader

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"quiz-rag/internal/domain"
	"quiz-rag/internal/logger"

	pdflib "github.com/ledongthuc/pdf"
	"go.uber.org/zap"
)

// PDFLoader extracts one segment per page from a PDF on disk.
type PDFLoader struct{}

// NewPDFLoader creates a new PDFLoader.
func NewPDFLoader() *PDFLoader {
	return &PDFLoader{}
}

// Load reads every page of the file at src.Path. Pages without a content
// stream are skipped.
func (l *PDFLoader) Load(ctx context.Context, src domain.Source) (doc *domain.Document, err error) {
	// The parser panics on some malformed cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			doc = nil
			err = domain.NewSourceUnavailableError("failed to parse PDF", fmt.Errorf("%v", r))
		}
	}()

	f, reader, err := pdflib.Open(src.Path)
	if err != nil {
		return nil, domain.NewSourceUnavailableError("failed to open PDF", err)
	}
	defer f.Close()

	sourceID := filepath.Base(src.Path)
	doc = &domain.Document{
		SourceType: domain.SourceTypePDF,
		Title:      sourceID,
	}

	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			logger.Get().Warn("Skipping unreadable PDF page",
				zap.String("source", sourceID),
				zap.Int("page", i),
				zap.Error(err),
			)
			continue
		}
		doc.Segments = append(doc.Segments, domain.Segment{
			SourceID: sourceID,
			Text:     strings.TrimRight(text, " \t"),
			Position: i,
		})
	}

	return doc, nil
}
