package repository

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"raterocket/internal/model"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.Session{}, &model.Message{}, &model.LoanDocument{}))
	return db
}

func strPtr(s string) *string   { return &s }
func f64Ptr(f float64) *float64 { return &f }

func seedDocuments(t *testing.T, repo *DocumentRepository) {
	t.Helper()

	active := model.NewLoanDocument("doc-active", 1, &model.LoanFields{
		BorrowerName:    strPtr("Jane Roe"),
		LoanAmount:      f64Ptr(250000),
		PropertyAddress: strPtr("1 Main St"),
		LenderName:      strPtr("Acme Mortgage"),
		LoanType:        strPtr("fixed"),
	})
	require.NoError(t, repo.Insert(active))

	// Same lender, different amount: must not satisfy the conjunction.
	other := model.NewLoanDocument("doc-other", 2, &model.LoanFields{
		BorrowerName: strPtr("John Doe"),
		LoanAmount:   f64Ptr(100000),
		LenderName:   strPtr("Acme Mortgage"),
	})
	require.NoError(t, repo.Insert(other))

	// No borrower at all; only reachable through amount+lender.
	anonymous := model.NewLoanDocument("doc-anon", 3, &model.LoanFields{
		LoanAmount: f64Ptr(500000),
		LenderName: strPtr("Beta Bank"),
	})
	require.NoError(t, repo.Insert(anonymous))
}

func TestFindSimilarBorrowerNameMatch(t *testing.T) {
	repo := NewDocumentRepository(openTestDB(t))
	seedDocuments(t, repo)

	docs, err := repo.FindSimilar(&model.LoanFields{BorrowerName: strPtr("Jane Roe")})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "doc-active", docs[0].DocumentID)
}

func TestFindSimilarPropertyAddressMatch(t *testing.T) {
	repo := NewDocumentRepository(openTestDB(t))
	seedDocuments(t, repo)

	docs, err := repo.FindSimilar(&model.LoanFields{PropertyAddress: strPtr("1 Main St")})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "doc-active", docs[0].DocumentID)
}

func TestFindSimilarAmountLenderConjunction(t *testing.T) {
	repo := NewDocumentRepository(openTestDB(t))
	seedDocuments(t, repo)

	// Both halves must hold against the same row.
	docs, err := repo.FindSimilar(&model.LoanFields{
		LoanAmount: f64Ptr(250000),
		LenderName: strPtr("Acme Mortgage"),
	})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "doc-active", docs[0].DocumentID)

	// Amount matching one row and lender another is no match.
	docs, err = repo.FindSimilar(&model.LoanFields{
		LoanAmount: f64Ptr(100000),
		LenderName: strPtr("Beta Bank"),
	})
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestFindSimilarAmountAloneNeverMatches(t *testing.T) {
	repo := NewDocumentRepository(openTestDB(t))
	seedDocuments(t, repo)

	docs, err := repo.FindSimilar(&model.LoanFields{LoanAmount: f64Ptr(250000)})
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestFindSimilarDisjunctionCollectsAllMatches(t *testing.T) {
	repo := NewDocumentRepository(openTestDB(t))
	seedDocuments(t, repo)

	docs, err := repo.FindSimilar(&model.LoanFields{
		BorrowerName: strPtr("John Doe"),
		LoanAmount:   f64Ptr(500000),
		LenderName:   strPtr("Beta Bank"),
	})
	require.NoError(t, err)
	assert.Len(t, docs, 2)
}

func TestFindSimilarExcludesDeletedRows(t *testing.T) {
	repo := NewDocumentRepository(openTestDB(t))
	seedDocuments(t, repo)
	require.NoError(t, repo.SoftDelete("doc-active"))

	docs, err := repo.FindSimilar(&model.LoanFields{BorrowerName: strPtr("Jane Roe")})
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestFindSimilarNilCandidateFieldsNeverMatch(t *testing.T) {
	repo := NewDocumentRepository(openTestDB(t))
	seedDocuments(t, repo)

	// doc-anon has a NULL borrower name; a candidate without one must
	// not pair up with it.
	docs, err := repo.FindSimilar(&model.LoanFields{})
	require.NoError(t, err)
	assert.Empty(t, docs)

	docs, err = repo.FindSimilar(nil)
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestSearchActiveRowsOnly(t *testing.T) {
	repo := NewDocumentRepository(openTestDB(t))
	seedDocuments(t, repo)

	out, err := repo.Search("Acme")
	require.NoError(t, err)
	assert.Contains(t, out, "Acme Mortgage")

	require.NoError(t, repo.SoftDelete("doc-active"))
	require.NoError(t, repo.SoftDelete("doc-other"))

	out, err = repo.Search("Acme")
	require.NoError(t, err)
	assert.Empty(t, out)
}
