package app

import (
	"errors"
	"strings"

	"avidoc/internal/config"
	"avidoc/internal/graph"
	"avidoc/internal/model"
	"avidoc/internal/repository"
)

var (
	ErrInvalidRelation = errors.New("invalid relation")
	ErrSelfLink        = errors.New("source and target must differ")
	ErrLinkExists      = errors.New("link already exists")
)

// GraphService maintains the document relationship graph: persistent links
// in MySQL mirrored by the in-memory graph used for traversal.
type GraphService struct {
	cfg      config.GraphConfig
	docRepo  *repository.DocumentRepository
	linkRepo *repository.LinkRepository
	kg       *graph.KnowledgeGraph
}

type LinkInput struct {
	Source      string
	Target      string
	Relation    string
	Weight      float64
	Description string
}

func NewGraphService(
	cfg config.GraphConfig,
	docRepo *repository.DocumentRepository,
	linkRepo *repository.LinkRepository,
	kg *graph.KnowledgeGraph,
) *GraphService {
	return &GraphService{
		cfg:      cfg,
		docRepo:  docRepo,
		linkRepo: linkRepo,
		kg:       kg,
	}
}

// Hydrate rebuilds the in-memory graph from persistent state. Called once
// at startup, before the HTTP server accepts traffic.
func (s *GraphService) Hydrate() error {
	docs, err := s.docRepo.ListAll()
	if err != nil {
		return err
	}
	for _, d := range docs {
		s.kg.AddNode(graph.Node{DocID: d.DocID, Title: d.Title, Type: d.Type, Status: d.Status})
	}

	links, err := s.linkRepo.ListAll()
	if err != nil {
		return err
	}
	for _, l := range links {
		s.kg.AddEdge(graph.Edge{
			Source:      l.Source,
			Target:      l.Target,
			Relation:    l.Relation,
			Weight:      l.Weight,
			Description: l.Description,
		})
	}
	return nil
}

// AddLink validates and persists a relation between two existing documents,
// then mirrors it into the in-memory graph.
func (s *GraphService) AddLink(input LinkInput) (*model.DocumentLink, error) {
	source := strings.TrimSpace(input.Source)
	target := strings.TrimSpace(input.Target)
	if source == "" || target == "" {
		return nil, ErrInvalidInput
	}
	if source == target {
		return nil, ErrSelfLink
	}
	if !model.ValidRelation(input.Relation) {
		return nil, ErrInvalidRelation
	}

	for _, docID := range []string{source, target} {
		doc, err := s.docRepo.GetByDocID(docID)
		if err != nil {
			return nil, err
		}
		if doc == nil {
			return nil, ErrDocumentNotFound
		}
	}

	weight := input.Weight
	if weight <= 0 || weight > 1 {
		weight = 1
	}

	link := &model.DocumentLink{
		Source:      source,
		Target:      target,
		Relation:    input.Relation,
		Weight:      weight,
		Description: strings.TrimSpace(input.Description),
	}
	if err := s.linkRepo.Create(link); err != nil {
		if errors.Is(err, repository.ErrDuplicateLink) {
			return nil, ErrLinkExists
		}
		return nil, err
	}

	s.kg.AddEdge(graph.Edge{
		Source:      link.Source,
		Target:      link.Target,
		Relation:    link.Relation,
		Weight:      link.Weight,
		Description: link.Description,
	})
	return link, nil
}

// RemoveLink deletes every relation between source and target.
func (s *GraphService) RemoveLink(source, target string) error {
	source = strings.TrimSpace(source)
	target = strings.TrimSpace(target)
	if source == "" || target == "" {
		return ErrInvalidInput
	}
	if err := s.linkRepo.DeleteBetween(source, target); err != nil {
		return err
	}
	s.kg.RemoveEdge(source, target, "")
	return nil
}

// ListLinks returns every persisted link.
func (s *GraphService) ListLinks() ([]model.DocumentLink, error) {
	return s.linkRepo.ListAll()
}

// DocumentGraph returns the neighborhood of one document. Depth is clamped
// into [0, max_depth]; negative depth means "use the maximum".
func (s *GraphService) DocumentGraph(docID string, depth int) (*graph.View, error) {
	docID = strings.TrimSpace(docID)
	if docID == "" {
		return nil, ErrInvalidInput
	}
	if depth < 0 || depth > s.cfg.MaxDepth {
		depth = s.cfg.MaxDepth
	}

	view, ok := s.kg.Subgraph(docID, depth)
	if !ok {
		return nil, ErrDocumentNotFound
	}
	return &view, nil
}

// FullGraph returns the whole graph capped at the configured node limit.
func (s *GraphService) FullGraph() *graph.View {
	view := s.kg.FullGraph(s.cfg.MaxNodes)
	return &view
}
