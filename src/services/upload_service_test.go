package services

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/username/smsledger/backend/src/logger"
	"github.com/username/smsledger/backend/src/models"
)

func TestMain(m *testing.M) {
	logger.InitLogger("error")
	os.Exit(m.Run())
}

// fakeTransactionStore records inserted batches and lets tests inject
// per-row skips and commit failures.
type fakeTransactionStore struct {
	inserted    []models.Transaction
	failBodies  map[string]bool
	commitErr   error
	queryResult []models.Transaction
	amountRows  []models.AmountRow
	total       int64
	byType      map[string]int64
	sums        map[string]float64
}

func (f *fakeTransactionStore) InsertBatch(userID int64, txs []models.Transaction) (int, error) {
	if f.commitErr != nil {
		return 0, fmt.Errorf("%w: %v", ErrCommitFailed, f.commitErr)
	}
	count := 0
	for _, tx := range txs {
		if tx.Body != nil && f.failBodies[*tx.Body] {
			continue
		}
		f.inserted = append(f.inserted, tx)
		count++
	}
	return count, nil
}

func (f *fakeTransactionStore) Query(userID int64, q models.TransactionQuery) ([]models.Transaction, error) {
	return f.queryResult, nil
}

func (f *fakeTransactionStore) GetByID(userID int64, txID int64) (*models.Transaction, error) {
	for i := range f.inserted {
		if f.inserted[i].ID == txID && f.inserted[i].UserID == userID {
			return &f.inserted[i], nil
		}
	}
	return nil, errors.New("no rows")
}

func (f *fakeTransactionStore) CountByType(userID int64) (int64, map[string]int64, error) {
	return f.total, f.byType, nil
}

func (f *fakeTransactionStore) AmountRows(userID int64) ([]models.AmountRow, error) {
	return f.amountRows, nil
}

func (f *fakeTransactionStore) SumAmountForType(userID int64, txType string) (float64, error) {
	return f.sums[txType], nil
}

// fakeDashboard tracks cache invalidations.
type fakeDashboard struct {
	invalidated []int64
}

func (f *fakeDashboard) ListTransactions(userID int64, filter models.TransactionFilter) ([]models.Transaction, error) {
	return nil, nil
}
func (f *fakeDashboard) GetTransaction(userID int64, txID int64) (*models.Transaction, error) {
	return nil, nil
}
func (f *fakeDashboard) GetTypeSummary(userID int64) (*models.TypeSummary, error) { return nil, nil }
func (f *fakeDashboard) GetVolumeByType(userID int64) (*models.AggregateView, error) {
	return nil, nil
}
func (f *fakeDashboard) GetMonthlyVolume(userID int64) (*models.AggregateView, error) {
	return nil, nil
}
func (f *fakeDashboard) GetAmountDistribution(userID int64) (*models.AggregateView, error) {
	return nil, nil
}
func (f *fakeDashboard) InvalidateUserCache(userID int64) {
	f.invalidated = append(f.invalidated, userID)
}

const sampleBackup = `<?xml version="1.0" encoding="UTF-8"?>
<smses count="3">
  <sms address="M-Money" date="1715000000000" type="1" body="You have received 27,000 RWF" />
  <sms address="M-Money" date="1715100000000" type="2" body="Your payment of 1,500 RWF is complete" />
  <sms address="InfoSMS" date="bad-date" body="Welcome to the service." />
</smses>`

func TestProcessUploadStoresEnrichedBatch(t *testing.T) {
	store := &fakeTransactionStore{}
	dashboard := &fakeDashboard{}
	svc := NewUploadService(store, dashboard)

	result, err := svc.ProcessUpload(strings.NewReader(sampleBackup), 42)
	if err != nil {
		t.Fatalf("ProcessUpload() unexpected error: %v", err)
	}
	if result.ParsedCount != 3 {
		t.Errorf("ParsedCount = %d, want 3", result.ParsedCount)
	}
	if result.InsertedCount != 3 {
		t.Errorf("InsertedCount = %d, want 3", result.InsertedCount)
	}

	first := store.inserted[0]
	if first.UserID != 42 {
		t.Errorf("first transaction userID = %d, want 42", first.UserID)
	}
	if first.Date == nil || *first.Date != 1715000000000 {
		t.Errorf("first transaction date = %v, want 1715000000000", first.Date)
	}
	if first.Amount == nil || *first.Amount != 27000 {
		t.Errorf("first transaction amount = %v, want 27000", first.Amount)
	}

	// Unparseable date attribute becomes nil rather than failing the record.
	third := store.inserted[2]
	if third.Date != nil {
		t.Errorf("third transaction date = %v, want nil for bad-date", *third.Date)
	}
	if third.Amount != nil {
		t.Errorf("third transaction amount = %v, want nil for bodiless amount", *third.Amount)
	}

	if len(dashboard.invalidated) != 1 || dashboard.invalidated[0] != 42 {
		t.Errorf("cache invalidations = %v, want [42]", dashboard.invalidated)
	}
}

func TestProcessUploadSkipsUnstorableRecords(t *testing.T) {
	store := &fakeTransactionStore{
		failBodies: map[string]bool{"Welcome to the service.": true},
	}
	dashboard := &fakeDashboard{}
	svc := NewUploadService(store, dashboard)

	result, err := svc.ProcessUpload(strings.NewReader(sampleBackup), 7)
	if err != nil {
		t.Fatalf("ProcessUpload() unexpected error: %v", err)
	}
	if result.ParsedCount != 3 {
		t.Errorf("ParsedCount = %d, want 3", result.ParsedCount)
	}
	if result.InsertedCount != 2 {
		t.Errorf("InsertedCount = %d, want 2", result.InsertedCount)
	}
}

func TestProcessUploadCommitFailure(t *testing.T) {
	store := &fakeTransactionStore{commitErr: errors.New("disk full")}
	dashboard := &fakeDashboard{}
	svc := NewUploadService(store, dashboard)

	result, err := svc.ProcessUpload(strings.NewReader(sampleBackup), 7)
	if err == nil {
		t.Fatal("ProcessUpload() expected error on commit failure")
	}
	if !errors.Is(err, ErrCommitFailed) {
		t.Errorf("ProcessUpload() error = %v, want wrapped ErrCommitFailed", err)
	}
	if result.InsertedCount != 0 {
		t.Errorf("InsertedCount = %d, want 0 after failed commit", result.InsertedCount)
	}
	if len(dashboard.invalidated) != 0 {
		t.Errorf("cache invalidated after failed commit: %v", dashboard.invalidated)
	}
}

func TestProcessUploadParseFailure(t *testing.T) {
	store := &fakeTransactionStore{}
	svc := NewUploadService(store, &fakeDashboard{})

	result, err := svc.ProcessUpload(strings.NewReader("<smses><sms"), 7)
	if err == nil {
		t.Fatal("ProcessUpload() expected error for malformed document")
	}
	if !errors.Is(err, ErrParsingFailed) {
		t.Errorf("ProcessUpload() error = %v, want wrapped ErrParsingFailed", err)
	}
	if result != nil {
		t.Errorf("ProcessUpload() result = %+v, want nil", result)
	}
	if len(store.inserted) != 0 {
		t.Errorf("records persisted despite parse failure: %d", len(store.inserted))
	}
}

func TestProcessUploadEmptyDocument(t *testing.T) {
	store := &fakeTransactionStore{}
	dashboard := &fakeDashboard{}
	svc := NewUploadService(store, dashboard)

	result, err := svc.ProcessUpload(strings.NewReader(`<smses count="0"></smses>`), 7)
	if err != nil {
		t.Fatalf("ProcessUpload() unexpected error: %v", err)
	}
	if result.ParsedCount != 0 || result.InsertedCount != 0 {
		t.Errorf("result = %+v, want zero counts", result)
	}
	if len(dashboard.invalidated) != 0 {
		t.Errorf("cache invalidated on empty upload: %v", dashboard.invalidated)
	}
}
