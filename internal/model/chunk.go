package model

import "time"

// Chunk is one bounded text span of a document, the unit of embedding and
// retrieval. The embedding vector itself lives in the vector store payload
// keyed by the chunk ID; MySQL keeps the text and position so citations can
// always be traced back.
type Chunk struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	DocID     string    `gorm:"size:128;not null;index" json:"doc_id"`
	Ordinal   int       `gorm:"not null" json:"ordinal"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	Chapter   string    `gorm:"size:256" json:"chapter"`
	CreatedAt time.Time `json:"created_at"`
}
