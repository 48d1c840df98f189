package model

import "time"

// Parameter is a named numeric value extracted from a document during
// ingestion ("m10 bolt torque" = 50 Nm). The consistency checker compares
// parameters with the same normalized name across documents.
type Parameter struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	DocID     string    `gorm:"size:128;not null;index" json:"doc_id"`
	Name      string    `gorm:"size:256;not null;index" json:"name"`
	Value     float64   `gorm:"not null" json:"value"`
	Unit      string    `gorm:"size:32" json:"unit"`
	Raw       string    `gorm:"size:512" json:"raw"`
	CreatedAt time.Time `json:"-"`
}
