// backend/src/services/interfaces.go
package services

import (
	"errors"
	"io"

	"github.com/username/smsledger/backend/src/models"
)

// UploadResult reports what happened to a single uploaded backup document.
type UploadResult struct {
	ParsedCount   int `json:"parsed_count"`
	InsertedCount int `json:"inserted_count"`
}

// Define common service errors
var (
	ErrParsingFailed = errors.New("backup document parsing failed")
	ErrInvalidFilter = errors.New("invalid transaction filter")
	ErrCommitFailed  = errors.New("batch commit failed")
)

// TransactionStore is the persistence boundary for SMS transactions. Every
// method is scoped to a single owning user; implementations must never let
// one user's rows leak into another user's results.
type TransactionStore interface {
	// InsertBatch stores the records in one atomic commit. A record that
	// cannot be stored is skipped without aborting the batch, but a failed
	// final commit discards the whole batch and reports zero inserted.
	InsertBatch(userID int64, txs []models.Transaction) (int, error)

	// Query returns the user's transactions matching the resolved query,
	// ordered by date, most recent first.
	Query(userID int64, q models.TransactionQuery) ([]models.Transaction, error)

	// GetByID returns the transaction matching both ids, or sql.ErrNoRows.
	GetByID(userID int64, txID int64) (*models.Transaction, error)

	// CountByType returns the user's total row count and per-type counts.
	CountByType(userID int64) (int64, map[string]int64, error)

	// AmountRows returns one row per transaction with a non-null amount, in
	// insertion order.
	AmountRows(userID int64) ([]models.AmountRow, error)

	// SumAmountForType sums the non-null amounts of the given type code.
	SumAmountForType(userID int64, txType string) (float64, error)
}

// UploadService defines the interface for the core upload processing logic.
type UploadService interface {
	ProcessUpload(fileReader io.Reader, userID int64) (*UploadResult, error)
}

// DashboardService is the aggregation engine behind the dashboard. All
// operations take an explicit user identifier; there is no ambient
// "current user" state.
type DashboardService interface {
	ListTransactions(userID int64, filter models.TransactionFilter) ([]models.Transaction, error)
	GetTransaction(userID int64, txID int64) (*models.Transaction, error)
	GetTypeSummary(userID int64) (*models.TypeSummary, error)
	GetVolumeByType(userID int64) (*models.AggregateView, error)
	GetMonthlyVolume(userID int64) (*models.AggregateView, error)
	GetAmountDistribution(userID int64) (*models.AggregateView, error)
	InvalidateUserCache(userID int64)
}
