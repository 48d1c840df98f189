package model

import "time"

// Relation labels carried by graph edges.
const (
	RelationReferences  = "references"
	RelationReplaces    = "replaces"
	RelationContradicts = "contradicts"
	RelationRelated     = "related"
)

// DocumentLink is a directed, typed relation between two documents. Both
// endpoints must reference existing documents; the service layer enforces
// that before insert.
type DocumentLink struct {
	ID          uint      `gorm:"primaryKey" json:"-"`
	Source      string    `gorm:"size:128;not null;index;uniqueIndex:idx_link,priority:1" json:"source"`
	Target      string    `gorm:"size:128;not null;index;uniqueIndex:idx_link,priority:2" json:"target"`
	Relation    string    `gorm:"size:32;not null;uniqueIndex:idx_link,priority:3" json:"relation"`
	Weight      float64   `gorm:"not null;default:1" json:"weight"`
	Description string    `gorm:"size:512" json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// ValidRelation reports whether r is one of the known relation labels.
func ValidRelation(r string) bool {
	switch r {
	case RelationReferences, RelationReplaces, RelationContradicts, RelationRelated:
		return true
	}
	return false
}
