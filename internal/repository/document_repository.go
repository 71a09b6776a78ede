package repository

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"raterocket/internal/model"
)

type DocumentRepository struct {
	db *gorm.DB
}

func NewDocumentRepository(db *gorm.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

func (r *DocumentRepository) Insert(doc *model.LoanDocument) error {
	if err := r.db.Create(doc).Error; err != nil {
		return fmt.Errorf("insert loan document failed: %w", err)
	}
	return nil
}

// Update rewrites the extractable attributes of an existing record.
// The document id is stable; this never inserts.
func (r *DocumentRepository) Update(doc *model.LoanDocument) error {
	now := time.Now()
	doc.UpdatedAt = &now
	result := r.db.Model(&model.LoanDocument{}).
		Where("document_id = ?", doc.DocumentID).
		Updates(map[string]interface{}{
			"borrower_name":    doc.BorrowerName,
			"loan_amount":      doc.LoanAmount,
			"interest_rate":    doc.InterestRate,
			"loan_term":        doc.LoanTerm,
			"property_address": doc.PropertyAddress,
			"property_type":    doc.PropertyType,
			"lender_name":      doc.LenderName,
			"loan_type":        doc.LoanType,
			"loan_purpose":     doc.LoanPurpose,
			"updated_at":       doc.UpdatedAt,
		})
	if result.Error != nil {
		return fmt.Errorf("update loan document failed: %w", result.Error)
	}
	return nil
}

func (r *DocumentRepository) GetByDocumentID(documentID string) (*model.LoanDocument, error) {
	var doc model.LoanDocument
	if err := r.db.Where("document_id = ?", documentID).First(&doc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get loan document failed: %w", err)
	}
	return &doc, nil
}

// FindSimilar returns active records matching the candidate on
// borrower name, property address, or loan amount together with lender
// name. Exact equality only; absent candidate fields never match.
func (r *DocumentRepository) FindSimilar(fields *model.LoanFields) ([]model.LoanDocument, error) {
	if fields == nil {
		return nil, nil
	}

	var predicates []string
	var args []interface{}
	if fields.BorrowerName != nil {
		predicates = append(predicates, "borrower_name = ?")
		args = append(args, *fields.BorrowerName)
	}
	if fields.PropertyAddress != nil {
		predicates = append(predicates, "property_address = ?")
		args = append(args, *fields.PropertyAddress)
	}
	if fields.LoanAmount != nil && fields.LenderName != nil {
		predicates = append(predicates, "(loan_amount = ? AND lender_name = ?)")
		args = append(args, *fields.LoanAmount, *fields.LenderName)
	}
	if len(predicates) == 0 {
		return nil, nil
	}

	var docs []model.LoanDocument
	if err := r.db.Where("status = ?", model.DocumentStatusActive).
		Where(strings.Join(predicates, " OR "), args...).
		Find(&docs).Error; err != nil {
		return nil, fmt.Errorf("find similar documents failed: %w", err)
	}
	return docs, nil
}

// Search runs a keyword lookup over active records and renders the
// hits as plain text for prompt context. An empty result is valid.
func (r *DocumentRepository) Search(query string) (string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", nil
	}

	pattern := "%" + query + "%"
	var docs []model.LoanDocument
	if err := r.db.Where("status = ?", model.DocumentStatusActive).
		Where("lender_name LIKE ? OR loan_type LIKE ? OR property_type LIKE ? OR loan_purpose LIKE ?",
			pattern, pattern, pattern, pattern).
		Limit(20).
		Find(&docs).Error; err != nil {
		return "", fmt.Errorf("search loan documents failed: %w", err)
	}

	var buf strings.Builder
	for _, doc := range docs {
		buf.WriteString(renderDocumentLine(&doc))
		buf.WriteString("\n")
	}
	return strings.TrimSpace(buf.String()), nil
}

func (r *DocumentRepository) SoftDelete(documentID string) error {
	result := r.db.Model(&model.LoanDocument{}).
		Where("document_id = ?", documentID).
		Updates(map[string]interface{}{
			"status":     model.DocumentStatusDeleted,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return fmt.Errorf("delete loan document failed: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func renderDocumentLine(doc *model.LoanDocument) string {
	parts := []string{}
	appendPart := func(label string, value *string) {
		if value != nil {
			parts = append(parts, fmt.Sprintf("%s: %s", label, *value))
		}
	}
	appendPart("lender", doc.LenderName)
	appendPart("loan type", doc.LoanType)
	appendPart("purpose", doc.LoanPurpose)
	appendPart("property type", doc.PropertyType)
	if doc.LoanAmount != nil {
		parts = append(parts, fmt.Sprintf("amount: %.2f", *doc.LoanAmount))
	}
	if doc.InterestRate != nil {
		parts = append(parts, fmt.Sprintf("rate: %.3f", *doc.InterestRate))
	}
	return strings.Join(parts, ", ")
}
