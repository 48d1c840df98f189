package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"avidoc/internal/model"
)

var ErrDuplicateLink = errors.New("link already exists")

type LinkRepository struct {
	db *gorm.DB
}

func NewLinkRepository(db *gorm.DB) *LinkRepository {
	return &LinkRepository{db: db}
}

func (r *LinkRepository) Create(link *model.DocumentLink) error {
	var existing model.DocumentLink
	err := r.db.Where("source = ? AND target = ? AND relation = ?",
		link.Source, link.Target, link.Relation).First(&existing).Error
	if err == nil {
		return ErrDuplicateLink
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("check link failed: %w", err)
	}
	if err := r.db.Create(link).Error; err != nil {
		return fmt.Errorf("create link failed: %w", err)
	}
	return nil
}

func (r *LinkRepository) ListAll() ([]model.DocumentLink, error) {
	var links []model.DocumentLink
	if err := r.db.Order("created_at").Find(&links).Error; err != nil {
		return nil, fmt.Errorf("list links failed: %w", err)
	}
	return links, nil
}

// DeleteBetween removes every relation from source to target.
func (r *LinkRepository) DeleteBetween(source, target string) error {
	if err := r.db.Where("source = ? AND target = ?", source, target).
		Delete(&model.DocumentLink{}).Error; err != nil {
		return fmt.Errorf("delete link failed: %w", err)
	}
	return nil
}

// DeleteByDocID removes every link touching the document, for cascade delete.
func (r *LinkRepository) DeleteByDocID(docID string) error {
	if err := r.db.Where("source = ? OR target = ?", docID, docID).
		Delete(&model.DocumentLink{}).Error; err != nil {
		return fmt.Errorf("delete links by document failed: %w", err)
	}
	return nil
}
