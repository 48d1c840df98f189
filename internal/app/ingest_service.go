package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"avidoc/internal/ai"
	"avidoc/internal/config"
	"avidoc/internal/graph"
	"avidoc/internal/model"
	"avidoc/internal/pkg/chunker"
	"avidoc/internal/pkg/parser"
	"avidoc/internal/platform/rabbitmq"
	"avidoc/internal/repository"
	"avidoc/internal/vectorstore"
)

var (
	ErrDocumentNotFound = errors.New("document not found")
	ErrFileTooLarge     = errors.New("file exceeds size limit")
)

// IngestService runs the upload pipeline: parse, chunk, persist, embed,
// index. Ingestions for the same document are serialized; different
// documents proceed concurrently.
type IngestService struct {
	cfg       config.IngestConfig
	docRepo   *repository.DocumentRepository
	chunkRepo *repository.ChunkRepository
	paramRepo *repository.ParameterRepository
	linkRepo  *repository.LinkRepository
	embedder  ai.EmbeddingProvider
	store     vectorstore.Store
	kg        *graph.KnowledgeGraph
	publisher *rabbitmq.IngestPublisher

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// IngestResult reports what one file ingestion accomplished. EmbeddedChunks
// may be lower than ChunkCount when the embedding provider failed part way
// through; the persisted chunks are kept so the upload can be retried.
type IngestResult struct {
	DocID          string `json:"doc_id"`
	Title          string `json:"title"`
	Type           string `json:"type"`
	Version        int    `json:"version"`
	ChunkCount     int    `json:"chunk_count"`
	EmbeddedChunks int    `json:"embedded_chunks"`
	Parameters     int    `json:"parameters"`
}

func NewIngestService(
	cfg config.IngestConfig,
	docRepo *repository.DocumentRepository,
	chunkRepo *repository.ChunkRepository,
	paramRepo *repository.ParameterRepository,
	linkRepo *repository.LinkRepository,
	embedder ai.EmbeddingProvider,
	store vectorstore.Store,
	kg *graph.KnowledgeGraph,
	publisher *rabbitmq.IngestPublisher,
) *IngestService {
	return &IngestService{
		cfg:       cfg,
		docRepo:   docRepo,
		chunkRepo: chunkRepo,
		paramRepo: paramRepo,
		linkRepo:  linkRepo,
		embedder:  embedder,
		store:     store,
		kg:        kg,
		publisher: publisher,
		locks:     make(map[string]*sync.Mutex),
	}
}

// IngestFile processes one uploaded file. docID overrides the identifier
// parsed from the document; when both are empty the filename is used.
// Re-uploading an existing document bumps its version and replaces the
// chunk set, extracted parameters and vectors.
func (s *IngestService) IngestFile(ctx context.Context, filename, docID string, data []byte) (*IngestResult, error) {
	if s.cfg.MaxFileSizeMB > 0 && len(data) > s.cfg.MaxFileSizeMB<<20 {
		return nil, fmt.Errorf("%w: %s is %d bytes, limit %d MB", ErrFileTooLarge, filename, len(data), s.cfg.MaxFileSizeMB)
	}

	parsed, err := parser.Parse(filename, data)
	if err != nil {
		return nil, err
	}

	docID = strings.TrimSpace(docID)
	if docID == "" {
		docID = parsed.DocNumber
	}
	if docID == "" {
		docID = slugify(strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename)))
	}

	lock := s.docLock(docID)
	lock.Lock()
	defer lock.Unlock()

	spans, err := chunker.Split(parsed.Text, s.cfg.ChunkSize, s.cfg.ChunkOverlap)
	if err != nil {
		return nil, err
	}

	doc, err := s.persistDocument(docID, parsed)
	if err != nil {
		return nil, err
	}

	chunks := make([]model.Chunk, len(spans))
	for i, span := range spans {
		chunks[i] = model.Chunk{
			DocID:   docID,
			Ordinal: span.Ordinal,
			Content: span.Text,
			Chapter: parser.ChapterAt(parsed.Chapters, span.Start),
		}
	}
	if err := s.chunkRepo.CreateBatch(chunks); err != nil {
		return nil, err
	}

	if err := s.persistParameters(docID, parsed.Parameters); err != nil {
		return nil, err
	}

	result := &IngestResult{
		DocID:      docID,
		Title:      doc.Title,
		Type:       doc.Type,
		Version:    doc.Version,
		ChunkCount: len(chunks),
		Parameters: len(parsed.Parameters),
	}

	embedded, embedErr := s.embedChunks(ctx, chunks)
	result.EmbeddedChunks = embedded

	s.kg.AddNode(graph.Node{DocID: docID, Title: doc.Title, Type: doc.Type, Status: doc.Status})

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, rabbitmq.IngestedEvent{DocID: docID}); err != nil {
			log.Printf("publish ingested event for %s failed: %v", docID, err)
		}
	}

	if embedErr != nil {
		// Chunks are committed; only indexing is incomplete. The caller
		// reports partial success and the upload can be retried safely
		// because re-ingestion replaces the chunk set.
		return result, embedErr
	}
	return result, nil
}

// DeleteDocument removes a document together with its chunks, parameters,
// vectors, links and graph node.
func (s *IngestService) DeleteDocument(ctx context.Context, docID string) error {
	lock := s.docLock(docID)
	lock.Lock()
	defer lock.Unlock()

	doc, err := s.docRepo.GetByDocID(docID)
	if err != nil {
		return err
	}
	if doc == nil {
		return ErrDocumentNotFound
	}

	if err := s.store.DeleteByDocID(ctx, docID); err != nil {
		return err
	}
	if err := s.chunkRepo.DeleteByDocID(docID); err != nil {
		return err
	}
	if err := s.paramRepo.DeleteByDocID(docID); err != nil {
		return err
	}
	if err := s.linkRepo.DeleteByDocID(docID); err != nil {
		return err
	}
	if err := s.docRepo.DeleteByDocID(docID); err != nil {
		return err
	}
	s.kg.RemoveNode(docID)
	return nil
}

func (s *IngestService) persistDocument(docID string, parsed *parser.Parsed) (*model.Document, error) {
	existing, err := s.docRepo.GetByDocID(docID)
	if err != nil {
		return nil, err
	}

	if existing != nil {
		// Replace, never mutate in place: the old chunk set is dropped
		// atomically with respect to this document's lock.
		if err := s.store.DeleteByDocID(context.Background(), docID); err != nil {
			return nil, err
		}
		if err := s.chunkRepo.DeleteByDocID(docID); err != nil {
			return nil, err
		}
		if err := s.paramRepo.DeleteByDocID(docID); err != nil {
			return nil, err
		}

		existing.Title = parsed.Title
		existing.Type = parsed.Type
		existing.Status = parsed.Status
		existing.IssueDate = parsed.IssueDate
		existing.Content = parsed.Text
		existing.Version++
		existing.SetMetadata(parsed.Metadata)
		if err := s.docRepo.Save(existing); err != nil {
			return nil, err
		}
		return existing, nil
	}

	doc := &model.Document{
		DocID:     docID,
		Title:     parsed.Title,
		Type:      parsed.Type,
		Version:   1,
		Status:    parsed.Status,
		IssueDate: parsed.IssueDate,
		Content:   parsed.Text,
	}
	if parsed.Version > 0 {
		doc.Version = parsed.Version
	}
	doc.SetMetadata(parsed.Metadata)
	if err := s.docRepo.Create(doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *IngestService) persistParameters(docID string, values []parser.NamedValue) error {
	if len(values) == 0 {
		return nil
	}
	params := make([]model.Parameter, len(values))
	for i, v := range values {
		params[i] = model.Parameter{
			DocID: docID,
			Name:  v.Name,
			Value: v.Value,
			Unit:  v.Unit,
			Raw:   v.Raw,
		}
	}
	return s.paramRepo.CreateBatch(params)
}

// embedChunks embeds and indexes chunks in batches, returning how many made
// it into the vector store before any failure.
func (s *IngestService) embedChunks(ctx context.Context, chunks []model.Chunk) (int, error) {
	batchSize := s.cfg.EmbedBatchSize
	if batchSize <= 0 {
		batchSize = 10
	}

	embedded := 0
	for start := 0; start < len(chunks); start += batchSize {
		end := start + batchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		texts := make([]string, len(batch))
		for i, c := range batch {
			texts[i] = c.Content
		}
		vectors, err := s.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return embedded, err
		}

		points := make([]vectorstore.Point, len(batch))
		for i, c := range batch {
			points[i] = vectorstore.Point{
				ChunkID: c.ID,
				DocID:   c.DocID,
				Chapter: c.Chapter,
				Ordinal: c.Ordinal,
				Content: c.Content,
				Vector:  vectors[i],
			}
		}
		if err := s.store.Upsert(ctx, points); err != nil {
			return embedded, err
		}
		embedded += len(batch)
	}
	return embedded, nil
}

func (s *IngestService) docLock(docID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[docID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[docID] = lock
	}
	return lock
}

var slugRe = regexp.MustCompile(`[^a-zA-Z0-9а-яА-ЯёЁ._\-]+`)

func slugify(name string) string {
	slug := slugRe.ReplaceAllString(strings.TrimSpace(name), "-")
	slug = strings.Trim(slug, "-")
	if slug == "" {
		return "document"
	}
	return slug
}
