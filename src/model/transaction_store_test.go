package model

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/username/smsledger/backend/src/logger"
	"github.com/username/smsledger/backend/src/models"
	"github.com/username/smsledger/backend/src/services"
	_ "modernc.org/sqlite"
)

func TestMain(m *testing.M) {
	logger.InitLogger("error")
	os.Exit(m.Run())
}

const transactionsTableDDL = `
CREATE TABLE transactions (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id INTEGER NOT NULL,
    protocol TEXT,
    address TEXT,
    date INTEGER,
    type TEXT,
    subject TEXT,
    body TEXT,
    toa TEXT,
    sc_toa TEXT,
    service_center TEXT,
    read TEXT,
    status TEXT,
    locked TEXT,
    date_sent INTEGER,
    sub_id TEXT,
    readable_date TEXT,
    contact_name TEXT,
    amount REAL,
    FOREIGN KEY (user_id) REFERENCES users (id) ON DELETE CASCADE %s
);`

const usersTableDDL = `
CREATE TABLE users (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    username TEXT NOT NULL UNIQUE,
    password TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL
);`

// newTestDB opens an in-memory database with the same pragmas as InitDB and
// the migration schema. With deferredFK the user_id constraint is only
// checked at commit time, which lets tests force a commit failure.
func newTestDB(t *testing.T, deferredFK bool) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", "file::memory:?_pragma=foreign_keys(on)")
	if err != nil {
		t.Fatalf("opening in-memory database: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	fkSuffix := ""
	if deferredFK {
		fkSuffix = "DEFERRABLE INITIALLY DEFERRED"
	}
	ddl := usersTableDDL + "\n" + fmt.Sprintf(transactionsTableDDL, fkSuffix)
	if _, err := db.Exec(ddl); err != nil {
		t.Fatalf("creating schema: %v", err)
	}

	for _, username := range []string{"alice", "bob"} {
		if _, err := db.Exec(
			`INSERT INTO users (username, password, created_at, updated_at)
			 VALUES (?, 'x', datetime('now'), datetime('now'))`, username); err != nil {
			t.Fatalf("seeding user %s: %v", username, err)
		}
	}
	return db
}

func sPtr(s string) *string   { return &s }
func iPtr(v int64) *int64     { return &v }
func fPtr(f float64) *float64 { return &f }

func testTx(date int64, txType string, amount *float64, body string) models.Transaction {
	return models.Transaction{
		Date:   iPtr(date),
		Type:   sPtr(txType),
		Amount: amount,
		Body:   sPtr(body),
	}
}

func TestGetByIDScopedToOwner(t *testing.T) {
	db := newTestDB(t, false)
	store := NewSQLTransactionStore(db)

	if _, err := store.InsertBatch(1, []models.Transaction{testTx(100, "1", fPtr(500), "alice row")}); err != nil {
		t.Fatalf("InsertBatch(1) unexpected error: %v", err)
	}
	if _, err := store.InsertBatch(2, []models.Transaction{testTx(200, "1", fPtr(900), "bob row")}); err != nil {
		t.Fatalf("InsertBatch(2) unexpected error: %v", err)
	}

	bobRows, err := store.Query(2, models.TransactionQuery{})
	if err != nil {
		t.Fatalf("Query(2) unexpected error: %v", err)
	}
	if len(bobRows) != 1 {
		t.Fatalf("Query(2) returned %d rows, want 1", len(bobRows))
	}
	bobID := bobRows[0].ID

	// A row owned by another user must be indistinguishable from a missing one.
	if _, err := store.GetByID(1, bobID); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("GetByID(1, %d) error = %v, want sql.ErrNoRows", bobID, err)
	}

	got, err := store.GetByID(2, bobID)
	if err != nil {
		t.Fatalf("GetByID(2, %d) unexpected error: %v", bobID, err)
	}
	if got.Body == nil || *got.Body != "bob row" {
		t.Errorf("GetByID(2, %d) body = %v, want bob row", bobID, got.Body)
	}

	if _, err := store.GetByID(1, 99999); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("GetByID(1, 99999) error = %v, want sql.ErrNoRows", err)
	}
}

func TestQueryOrderingAndFilters(t *testing.T) {
	db := newTestDB(t, false)
	store := NewSQLTransactionStore(db)

	batch := []models.Transaction{
		testTx(100, "1", fPtr(50), "oldest"),
		testTx(300, "2", nil, "newest, no amount"),
		testTx(200, "1", fPtr(500), "middle"),
	}
	if _, err := store.InsertBatch(1, batch); err != nil {
		t.Fatalf("InsertBatch() unexpected error: %v", err)
	}

	rows, err := store.Query(1, models.TransactionQuery{})
	if err != nil {
		t.Fatalf("Query() unexpected error: %v", err)
	}
	wantDates := []int64{300, 200, 100}
	if len(rows) != len(wantDates) {
		t.Fatalf("Query() returned %d rows, want %d", len(rows), len(wantDates))
	}
	for i, want := range wantDates {
		if rows[i].Date == nil || *rows[i].Date != want {
			t.Errorf("rows[%d].Date = %v, want %d", i, rows[i].Date, want)
		}
	}

	// Amount bounds compare stored amounts; null-amount rows never match.
	minAmount := 100.0
	rows, err = store.Query(1, models.TransactionQuery{MinAmount: &minAmount})
	if err != nil {
		t.Fatalf("Query(min) unexpected error: %v", err)
	}
	if len(rows) != 1 || rows[0].Amount == nil || *rows[0].Amount != 500 {
		t.Errorf("Query(min=100) = %d rows, want only the 500 row", len(rows))
	}

	start := int64(150)
	end := int64(250)
	rows, err = store.Query(1, models.TransactionQuery{Type: "1", StartMillis: &start, EndMillis: &end})
	if err != nil {
		t.Fatalf("Query(type+range) unexpected error: %v", err)
	}
	if len(rows) != 1 || *rows[0].Date != 200 {
		t.Errorf("Query(type=1, 150..250) = %d rows, want the date-200 row", len(rows))
	}

	rows, err = store.Query(1, models.TransactionQuery{Limit: 2})
	if err != nil {
		t.Fatalf("Query(limit) unexpected error: %v", err)
	}
	if len(rows) != 2 {
		t.Errorf("Query(limit=2) = %d rows, want 2", len(rows))
	}
}

func TestInsertBatchSkipsUnstorableRows(t *testing.T) {
	db := newTestDB(t, false)
	if _, err := db.Exec(`
		CREATE TRIGGER block_flagged BEFORE INSERT ON transactions
		WHEN NEW.body = 'blocked'
		BEGIN SELECT RAISE(ABORT, 'row not storable'); END`); err != nil {
		t.Fatalf("creating trigger: %v", err)
	}
	store := NewSQLTransactionStore(db)

	batch := []models.Transaction{
		testTx(1, "1", fPtr(10), "ok-1"),
		testTx(2, "1", fPtr(20), "blocked"),
		testTx(3, "1", fPtr(30), "ok-2"),
		testTx(4, "2", fPtr(40), "ok-3"),
		testTx(5, "2", fPtr(50), "ok-4"),
	}
	inserted, err := store.InsertBatch(1, batch)
	if err != nil {
		t.Fatalf("InsertBatch() unexpected error: %v", err)
	}
	if inserted != 4 {
		t.Errorf("InsertBatch() inserted = %d, want 4", inserted)
	}

	rows, err := store.Query(1, models.TransactionQuery{})
	if err != nil {
		t.Fatalf("Query() unexpected error: %v", err)
	}
	if len(rows) != 4 {
		t.Errorf("Query() = %d rows, want 4 after one skip", len(rows))
	}
	for _, row := range rows {
		if row.Body != nil && *row.Body == "blocked" {
			t.Error("skipped row is visible after commit")
		}
	}
}

func TestInsertBatchCommitFailureLeavesNoRows(t *testing.T) {
	// Deferred foreign key: every per-row Exec succeeds, the violation only
	// surfaces at COMMIT, exercising the rollback path.
	db := newTestDB(t, true)
	store := NewSQLTransactionStore(db)

	batch := []models.Transaction{
		testTx(1, "1", fPtr(10), "a"),
		testTx(2, "2", fPtr(20), "b"),
	}
	inserted, err := store.InsertBatch(99, batch)
	if err == nil {
		t.Fatal("InsertBatch() expected commit failure for unknown user")
	}
	if !errors.Is(err, services.ErrCommitFailed) {
		t.Errorf("InsertBatch() error = %v, want wrapped ErrCommitFailed", err)
	}
	if inserted != 0 {
		t.Errorf("InsertBatch() inserted = %d, want 0 after failed commit", inserted)
	}

	rows, err := store.Query(99, models.TransactionQuery{})
	if err != nil {
		t.Fatalf("Query() unexpected error: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("Query() = %d rows visible after failed commit, want 0", len(rows))
	}

	total, _, err := store.CountByType(99)
	if err != nil {
		t.Fatalf("CountByType() unexpected error: %v", err)
	}
	if total != 0 {
		t.Errorf("CountByType() total = %d, want 0 after failed commit", total)
	}
}

func TestAggregateQueries(t *testing.T) {
	db := newTestDB(t, false)
	store := NewSQLTransactionStore(db)

	batch := []models.Transaction{
		testTx(100, "2", fPtr(500), "sent first"),
		testTx(200, "1", fPtr(27000), "received"),
		testTx(300, "2", nil, "sent, no amount"),
		{Date: iPtr(400), Amount: fPtr(3)}, // no type code
	}
	if _, err := store.InsertBatch(1, batch); err != nil {
		t.Fatalf("InsertBatch() unexpected error: %v", err)
	}

	total, byType, err := store.CountByType(1)
	if err != nil {
		t.Fatalf("CountByType() unexpected error: %v", err)
	}
	if total != 4 {
		t.Errorf("total = %d, want 4", total)
	}
	if byType["1"] != 1 || byType["2"] != 2 || byType[""] != 1 {
		t.Errorf("byType = %v, want map[1:1 2:2 :1]", byType)
	}

	amountRows, err := store.AmountRows(1)
	if err != nil {
		t.Fatalf("AmountRows() unexpected error: %v", err)
	}
	// Null-amount rows excluded; the rest in insertion order.
	if len(amountRows) != 3 {
		t.Fatalf("AmountRows() = %d rows, want 3", len(amountRows))
	}
	if amountRows[0].Amount != 500 || amountRows[1].Amount != 27000 || amountRows[2].Amount != 3 {
		t.Errorf("AmountRows() amounts = %v %v %v, want 500 27000 3",
			amountRows[0].Amount, amountRows[1].Amount, amountRows[2].Amount)
	}
	if amountRows[2].Type != nil {
		t.Errorf("AmountRows()[2].Type = %v, want nil", *amountRows[2].Type)
	}

	sent, err := store.SumAmountForType(1, "2")
	if err != nil {
		t.Fatalf("SumAmountForType() unexpected error: %v", err)
	}
	if sent != 500 {
		t.Errorf("SumAmountForType(2) = %v, want 500", sent)
	}

	none, err := store.SumAmountForType(1, "77")
	if err != nil {
		t.Fatalf("SumAmountForType() unexpected error: %v", err)
	}
	if none != 0 {
		t.Errorf("SumAmountForType(77) = %v, want 0", none)
	}
}
