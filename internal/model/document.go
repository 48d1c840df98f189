package model

import (
	"encoding/json"
	"time"
)

// Document types used across the aviation documentation set.
const (
	DocTypeSpecification = "specification"
	DocTypeStandard      = "standard"
	DocTypeDrawing       = "drawing"
	DocTypeManual        = "manual"
	DocTypeReport        = "report"
	DocTypeTechProcess   = "tech_process"
)

const (
	DocStatusActive     = "active"
	DocStatusArchived   = "archived"
	DocStatusDeprecated = "deprecated"
)

// Document is the metadata record for one ingested technical document.
// Content is immutable once chunked; re-uploading the same DocID bumps
// Version and replaces the chunk set, it never mutates chunks in place.
type Document struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	DocID     string    `gorm:"size:128;not null;uniqueIndex" json:"doc_id"`
	Title     string    `gorm:"size:256;not null" json:"title"`
	Type      string    `gorm:"size:32;not null;index" json:"type"`
	Version   int       `gorm:"not null;default:1" json:"version"`
	Status    string    `gorm:"size:32;not null;default:active;index" json:"status"`
	IssueDate string    `gorm:"size:10" json:"issue_date"` // YYYY-MM-DD, may be empty
	Content   string    `gorm:"type:longtext;not null" json:"-"`
	Metadata  string    `gorm:"type:text" json:"-"` // JSON object
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsObsoleteStatus reports whether the declared status alone marks the
// document obsolete, independent of any superseding edge.
func (d *Document) IsObsoleteStatus() bool {
	return d.Status == DocStatusArchived || d.Status == DocStatusDeprecated
}

// MetadataMap returns the parsed metadata mapping; empty on parse error.
func (d *Document) MetadataMap() map[string]any {
	if d.Metadata == "" {
		return map[string]any{}
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(d.Metadata), &m); err != nil {
		return map[string]any{}
	}
	return m
}

// SetMetadata stores the mapping as JSON.
func (d *Document) SetMetadata(m map[string]any) {
	if len(m) == 0 {
		d.Metadata = ""
		return
	}
	b, _ := json.Marshal(m)
	d.Metadata = string(b)
}

// ValidDocType reports whether t is one of the enumerated document types.
func ValidDocType(t string) bool {
	switch t {
	case DocTypeSpecification, DocTypeStandard, DocTypeDrawing,
		DocTypeManual, DocTypeReport, DocTypeTechProcess:
		return true
	}
	return false
}
