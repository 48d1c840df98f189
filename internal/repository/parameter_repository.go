package repository

import (
	"fmt"

	"gorm.io/gorm"

	"avidoc/internal/model"
)

type ParameterRepository struct {
	db *gorm.DB
}

func NewParameterRepository(db *gorm.DB) *ParameterRepository {
	return &ParameterRepository{db: db}
}

func (r *ParameterRepository) CreateBatch(params []model.Parameter) error {
	if len(params) == 0 {
		return nil
	}
	if err := r.db.Create(&params).Error; err != nil {
		return fmt.Errorf("create parameters batch failed: %w", err)
	}
	return nil
}

func (r *ParameterRepository) ListByDocIDs(docIDs []string) ([]model.Parameter, error) {
	if len(docIDs) == 0 {
		return nil, nil
	}
	var params []model.Parameter
	if err := r.db.Where("doc_id IN ?", docIDs).Order("doc_id, name").Find(&params).Error; err != nil {
		return nil, fmt.Errorf("list parameters by documents failed: %w", err)
	}
	return params, nil
}

func (r *ParameterRepository) DeleteByDocID(docID string) error {
	if err := r.db.Where("doc_id = ?", docID).Delete(&model.Parameter{}).Error; err != nil {
		return fmt.Errorf("delete parameters by document failed: %w", err)
	}
	return nil
}
