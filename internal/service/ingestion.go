package service

import (
	"context"
	"strings"
	"time"

	"quiz-rag/internal/chunker"
	"quiz-rag/internal/domain"
	"quiz-rag/internal/logger"
	"quiz-rag/internal/util"
	"quiz-rag/internal/vectorindex"

	"go.uber.org/zap"
)

// captionSeparator joins transcript snippets, which are fragments of running
// speech rather than paragraphs.
const captionSeparator = " "

// IngestResult describes the resource that became active in a session.
type IngestResult struct {
	ResourceID   string `json:"resource_id,omitempty"`
	ResourceName string `json:"resource_name"`
	ChunkCount   int    `json:"chunk_count"`
	Dimensions   int    `json:"dimensions"`
}

// IngestionService turns a source into the searchable index of a session.
type IngestionService interface {
	Ingest(ctx context.Context, sess *Session, src domain.Source, displayName string) (*IngestResult, error)
}

type ingestionService struct {
	loader    domain.Loader
	chunkCfg  chunker.Config
	resources domain.ResourceRepository
}

// NewIngestionService creates a new IngestionService. resources may be nil
// when persistence is disabled.
func NewIngestionService(loader domain.Loader, chunkCfg chunker.Config, resources domain.ResourceRepository) IngestionService {
	return &ingestionService{
		loader:    loader,
		chunkCfg:  chunkCfg,
		resources: resources,
	}
}

// Ingest loads, chunks and indexes src. The session only changes once every
// step succeeded; it then drops any quiz built from the previous resource.
func (s *ingestionService) Ingest(ctx context.Context, sess *Session, src domain.Source, displayName string) (*IngestResult, error) {
	l := logger.Get()
	started := time.Now()

	sess.mu.Lock()
	defer sess.mu.Unlock()

	doc, err := s.loader.Load(ctx, src)
	if err != nil {
		l.Warn("Failed to load source", zap.Error(err), zap.String("sessionID", sess.ID))
		return nil, err
	}

	cfg := s.chunkCfg
	if doc.SourceType == domain.SourceTypeVideo {
		cfg.Separator = captionSeparator
	}
	chunks, err := chunker.Split(doc.Segments, cfg)
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		return nil, domain.NewSourceUnavailableError("source produced no text to index", nil)
	}

	idx, err := vectorindex.Build(ctx, sess.embedder, chunks)
	if err != nil {
		l.Error("Failed to build vector index", zap.Error(err), zap.String("sessionID", sess.ID))
		return nil, err
	}

	name := strings.TrimSpace(displayName)
	if name == "" {
		name = resourceName(src, doc)
	}
	resourceID := s.register(ctx, name, doc.SourceType)

	sess.index = idx
	sess.resource = name
	sess.resourceID = resourceID
	sess.quiz = nil
	sess.selections = nil

	l.Info("Resource ingested",
		zap.String("sessionID", sess.ID),
		zap.String("resource", name),
		zap.String("type", string(doc.SourceType)),
		zap.Int("chunks", idx.Size()),
		zap.Int("dimensions", idx.Dimensions()),
		zap.Duration("duration", time.Since(started)),
	)
	return &IngestResult{
		ResourceID:   resourceID,
		ResourceName: name,
		ChunkCount:   idx.Size(),
		Dimensions:   idx.Dimensions(),
	}, nil
}

// register stores the resource so attempts can reference it by id. A failure
// leaves the id empty and attempts fall back to a title lookup.
func (s *ingestionService) register(ctx context.Context, name string, sourceType domain.SourceType) string {
	if s.resources == nil {
		return ""
	}
	res := &domain.Resource{
		ID:         util.NewULID(),
		Title:      name,
		SourceType: sourceType,
		CreatedAt:  time.Now(),
	}
	if err := s.resources.Create(ctx, res); err != nil {
		logger.Get().Warn("Failed to register resource", zap.Error(err), zap.String("title", name))
		return ""
	}
	return res.ID
}

func resourceName(src domain.Source, doc *domain.Document) string {
	if src.Type() == domain.SourceTypeVideo {
		return strings.TrimSpace(src.URL)
	}
	if doc.Title != "" {
		return doc.Title
	}
	return src.Path
}
