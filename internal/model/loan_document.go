package model

import (
	"encoding/json"
	"time"
)

const (
	DocumentStatusActive  = "active"
	DocumentStatusDeleted = "deleted"
)

// LoanFields is the set of extractable loan attributes. Extraction may
// be partial, so every field is optional.
type LoanFields struct {
	BorrowerName    *string  `json:"borrower_name,omitempty"`
	LoanAmount      *float64 `json:"loan_amount,omitempty"`
	InterestRate    *float64 `json:"interest_rate,omitempty"`
	LoanTerm        *int     `json:"loan_term,omitempty"`
	PropertyAddress *string  `json:"property_address,omitempty"`
	PropertyType    *string  `json:"property_type,omitempty"`
	LenderName      *string  `json:"lender_name,omitempty"`
	LoanType        *string  `json:"loan_type,omitempty"`
	LoanPurpose     *string  `json:"loan_purpose,omitempty"`
}

// Empty reports whether no field was extracted at all.
func (f *LoanFields) Empty() bool {
	if f == nil {
		return true
	}
	return f.BorrowerName == nil && f.LoanAmount == nil && f.InterestRate == nil &&
		f.LoanTerm == nil && f.PropertyAddress == nil && f.PropertyType == nil &&
		f.LenderName == nil && f.LoanType == nil && f.LoanPurpose == nil
}

// LoanDocument is a confirmed ledger record. DocumentID is assigned
// once on commit and never changes; deletion is a status flip.
type LoanDocument struct {
	DocumentID      string     `gorm:"primaryKey;size:36" json:"document_id"`
	BorrowerName    *string    `gorm:"size:256" json:"borrower_name,omitempty"`
	LoanAmount      *float64   `json:"loan_amount,omitempty"`
	InterestRate    *float64   `json:"interest_rate,omitempty"`
	LoanTerm        *int       `json:"loan_term,omitempty"`
	PropertyAddress *string    `gorm:"size:512" json:"property_address,omitempty"`
	PropertyType    *string    `gorm:"size:128" json:"property_type,omitempty"`
	LenderName      *string    `gorm:"size:256" json:"lender_name,omitempty"`
	LoanType        *string    `gorm:"size:128" json:"loan_type,omitempty"`
	LoanPurpose     *string    `gorm:"size:256" json:"loan_purpose,omitempty"`
	DocumentType    string     `gorm:"size:64" json:"document_type,omitempty"`
	CreatedBy       uint       `gorm:"index" json:"created_by"`
	Status          string     `gorm:"size:16;not null;default:active;index" json:"status"`
	Metadata        string     `gorm:"type:text" json:"-"` // JSON map
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       *time.Time `json:"updated_at,omitempty"`
}

// NewLoanDocument builds an active ledger record from extracted fields.
func NewLoanDocument(documentID string, createdBy uint, fields *LoanFields) *LoanDocument {
	doc := &LoanDocument{
		DocumentID: documentID,
		CreatedBy:  createdBy,
		Status:     DocumentStatusActive,
	}
	doc.ApplyFields(fields)
	return doc
}

// ApplyFields overwrites the extractable attributes with a new snapshot.
func (d *LoanDocument) ApplyFields(fields *LoanFields) {
	if fields == nil {
		return
	}
	d.BorrowerName = fields.BorrowerName
	d.LoanAmount = fields.LoanAmount
	d.InterestRate = fields.InterestRate
	d.LoanTerm = fields.LoanTerm
	d.PropertyAddress = fields.PropertyAddress
	d.PropertyType = fields.PropertyType
	d.LenderName = fields.LenderName
	d.LoanType = fields.LoanType
	d.LoanPurpose = fields.LoanPurpose
}

// Fields returns the extractable attributes as a snapshot value.
func (d *LoanDocument) Fields() *LoanFields {
	return &LoanFields{
		BorrowerName:    d.BorrowerName,
		LoanAmount:      d.LoanAmount,
		InterestRate:    d.InterestRate,
		LoanTerm:        d.LoanTerm,
		PropertyAddress: d.PropertyAddress,
		PropertyType:    d.PropertyType,
		LenderName:      d.LenderName,
		LoanType:        d.LoanType,
		LoanPurpose:     d.LoanPurpose,
	}
}

// MetadataMap returns the parsed metadata; empty map on parse error.
func (d *LoanDocument) MetadataMap() map[string]any {
	out := map[string]any{}
	if d.Metadata == "" {
		return out
	}
	_ = json.Unmarshal([]byte(d.Metadata), &out)
	return out
}

// SetMetadata stores the metadata map as JSON.
func (d *LoanDocument) SetMetadata(meta map[string]any) {
	if len(meta) == 0 {
		d.Metadata = ""
		return
	}
	b, _ := json.Marshal(meta)
	d.Metadata = string(b)
}
