package app

import (
	"math"
	"sort"
	"time"

	"avidoc/internal/config"
	"avidoc/internal/graph"
	"avidoc/internal/model"
	"avidoc/internal/repository"
)

const (
	SeverityHigh   = "high"
	SeverityMedium = "medium"
)

// ValidationService runs corpus-wide consistency checks: obsolete documents,
// conflicting parameter values, references to superseded documents and
// staleness by issue date.
type ValidationService struct {
	cfg       config.ValidationConfig
	docRepo   *repository.DocumentRepository
	paramRepo *repository.ParameterRepository
	kg        *graph.KnowledgeGraph

	// now is swappable in tests.
	now func() time.Time
}

type ObsoleteDocument struct {
	DocID      string `json:"doc_id"`
	Title      string `json:"title"`
	Status     string `json:"status"`
	Reason     string `json:"reason"`
	ReplacedBy string `json:"replaced_by,omitempty"`
}

type ParameterConflict struct {
	Parameter     string  `json:"parameter"`
	DocA          string  `json:"doc_a"`
	ValueA        float64 `json:"value_a"`
	UnitA         string  `json:"unit_a,omitempty"`
	DocB          string  `json:"doc_b"`
	ValueB        float64 `json:"value_b"`
	UnitB         string  `json:"unit_b,omitempty"`
	RelativeDelta float64 `json:"relative_delta"`
	Severity      string  `json:"severity"`
}

type OutdatedReference struct {
	Source       string `json:"source"`
	Target       string `json:"target"`
	TargetStatus string `json:"target_status"`
}

type StaleDocument struct {
	DocID     string `json:"doc_id"`
	IssueDate string `json:"issue_date"`
	AgeDays   int    `json:"age_days"`
}

type FreshnessSummary struct {
	StaleAfterDays  int             `json:"stale_after_days"`
	LatestIssueDate string          `json:"latest_issue_date,omitempty"`
	Stale           []StaleDocument `json:"stale_documents"`
	NoIssueDate     []string        `json:"no_issue_date"`
}

// ValidationReport is the full consistency check output. InsufficientData
// lists documents with no extracted parameters: their absence from the
// conflict list means "nothing to compare", not "consistent".
type ValidationReport struct {
	CheckedDocuments   int                 `json:"checked_documents"`
	Obsolete           []ObsoleteDocument  `json:"obsolete_documents"`
	Conflicts          []ParameterConflict `json:"conflicts"`
	OutdatedReferences []OutdatedReference `json:"outdated_references"`
	InsufficientData   []string            `json:"insufficient_data"`
	Freshness          FreshnessSummary    `json:"freshness_check"`
}

func NewValidationService(
	cfg config.ValidationConfig,
	docRepo *repository.DocumentRepository,
	paramRepo *repository.ParameterRepository,
	kg *graph.KnowledgeGraph,
) *ValidationService {
	return &ValidationService{
		cfg:       cfg,
		docRepo:   docRepo,
		paramRepo: paramRepo,
		kg:        kg,
		now:       time.Now,
	}
}

// Validate checks the documents named by docIDs, or the whole corpus when
// docIDs is empty. The report ordering is deterministic.
func (s *ValidationService) Validate(docIDs []string) (*ValidationReport, error) {
	var (
		docs []model.Document
		err  error
	)
	if len(docIDs) == 0 {
		docs, err = s.docRepo.ListAll()
	} else {
		docs, err = s.docRepo.ListByDocIDs(docIDs)
	}
	if err != nil {
		return nil, err
	}

	sort.Slice(docs, func(i, j int) bool { return docs[i].DocID < docs[j].DocID })

	report := &ValidationReport{
		CheckedDocuments:   len(docs),
		Obsolete:           []ObsoleteDocument{},
		Conflicts:          []ParameterConflict{},
		OutdatedReferences: []OutdatedReference{},
		InsufficientData:   []string{},
	}

	obsolete := s.checkObsolete(docs, report)
	if err := s.checkConflicts(docs, report); err != nil {
		return nil, err
	}
	s.checkOutdatedReferences(docs, obsolete, report)
	s.checkFreshness(docs, report)
	return report, nil
}

// checkObsolete flags documents that are archived or deprecated, or that
// have an incoming replaces edge. Returns the obsolete set for reuse by the
// reference check.
func (s *ValidationService) checkObsolete(docs []model.Document, report *ValidationReport) map[string]string {
	obsolete := make(map[string]string)
	for _, d := range docs {
		switch {
		case d.IsObsoleteStatus():
			obsolete[d.DocID] = d.Status
			report.Obsolete = append(report.Obsolete, ObsoleteDocument{
				DocID:  d.DocID,
				Title:  d.Title,
				Status: d.Status,
				Reason: "status is " + d.Status,
			})
		default:
			replacers := s.kg.Predecessors(d.DocID, model.RelationReplaces)
			if len(replacers) == 0 {
				continue
			}
			obsolete[d.DocID] = d.Status
			report.Obsolete = append(report.Obsolete, ObsoleteDocument{
				DocID:      d.DocID,
				Title:      d.Title,
				Status:     d.Status,
				Reason:     "superseded by " + replacers[0].Source,
				ReplacedBy: replacers[0].Source,
			})
		}
	}
	return obsolete
}

// checkConflicts loads the extracted parameters and delegates to the pure
// comparison.
func (s *ValidationService) checkConflicts(docs []model.Document, report *ValidationReport) error {
	ids := make([]string, len(docs))
	for i, d := range docs {
		ids[i] = d.DocID
	}

	params, err := s.paramRepo.ListByDocIDs(ids)
	if err != nil {
		return err
	}
	s.compareParameters(docs, params, report)
	return nil
}

// compareParameters compares parameter values with the same normalized name
// across document pairs. Each unordered pair contributes at most one
// conflict per parameter name.
func (s *ValidationService) compareParameters(docs []model.Document, params []model.Parameter, report *ValidationReport) {
	// byName maps a parameter name to its one value per document.
	type holding struct {
		docID string
		value float64
		unit  string
	}
	byName := make(map[string][]holding)
	hasParams := make(map[string]bool)
	for _, p := range params {
		hasParams[p.DocID] = true
		holders := byName[p.Name]
		duplicate := false
		for _, h := range holders {
			if h.docID == p.DocID {
				duplicate = true
				break
			}
		}
		if duplicate {
			continue
		}
		byName[p.Name] = append(holders, holding{docID: p.DocID, value: p.Value, unit: p.Unit})
	}

	for _, d := range docs {
		if !hasParams[d.DocID] {
			report.InsufficientData = append(report.InsufficientData, d.DocID)
		}
	}

	names := make([]string, 0, len(byName))
	for name := range byName {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		holders := byName[name]
		sort.Slice(holders, func(i, j int) bool { return holders[i].docID < holders[j].docID })
		for i := 0; i < len(holders); i++ {
			for j := i + 1; j < len(holders); j++ {
				a, b := holders[i], holders[j]
				if a.value == b.value && a.unit == b.unit {
					continue
				}
				delta := relativeDelta(a.value, b.value)
				severity := SeverityMedium
				if delta > s.cfg.ConflictHighRelDelta || a.unit != b.unit {
					severity = SeverityHigh
				}
				report.Conflicts = append(report.Conflicts, ParameterConflict{
					Parameter:     name,
					DocA:          a.docID,
					ValueA:        a.value,
					UnitA:         a.unit,
					DocB:          b.docID,
					ValueB:        b.value,
					UnitB:         b.unit,
					RelativeDelta: delta,
					Severity:      severity,
				})
			}
		}
	}
}

// checkOutdatedReferences flags references edges pointing at obsolete
// documents.
func (s *ValidationService) checkOutdatedReferences(docs []model.Document, obsolete map[string]string, report *ValidationReport) {
	status := make(map[string]string, len(docs))
	for _, d := range docs {
		status[d.DocID] = d.Status
	}

	for _, d := range docs {
		for _, e := range s.kg.Successors(d.DocID, model.RelationReferences) {
			if _, isObsolete := obsolete[e.Target]; !isObsolete {
				continue
			}
			report.OutdatedReferences = append(report.OutdatedReferences, OutdatedReference{
				Source:       e.Source,
				Target:       e.Target,
				TargetStatus: status[e.Target],
			})
		}
	}
}

func (s *ValidationService) checkFreshness(docs []model.Document, report *ValidationReport) {
	summary := FreshnessSummary{
		StaleAfterDays: s.cfg.StaleAfterDays,
		Stale:          []StaleDocument{},
		NoIssueDate:    []string{},
	}

	now := s.now()
	for _, d := range docs {
		if d.IssueDate == "" {
			summary.NoIssueDate = append(summary.NoIssueDate, d.DocID)
			continue
		}
		issued, err := time.Parse("2006-01-02", d.IssueDate)
		if err != nil {
			summary.NoIssueDate = append(summary.NoIssueDate, d.DocID)
			continue
		}
		if d.IssueDate > summary.LatestIssueDate {
			summary.LatestIssueDate = d.IssueDate
		}
		ageDays := int(now.Sub(issued).Hours() / 24)
		if s.cfg.StaleAfterDays > 0 && ageDays > s.cfg.StaleAfterDays {
			summary.Stale = append(summary.Stale, StaleDocument{
				DocID:     d.DocID,
				IssueDate: d.IssueDate,
				AgeDays:   ageDays,
			})
		}
	}
	report.Freshness = summary
}

// relativeDelta is |a-b| scaled by the larger magnitude, 1 when only one
// side is zero.
func relativeDelta(a, b float64) float64 {
	if a == b {
		return 0
	}
	denom := math.Max(math.Abs(a), math.Abs(b))
	if denom == 0 {
		return 0
	}
	return math.Abs(a-b) / denom
}
