// backend/src/services/upload_service.go
package services

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/username/smsledger/backend/src/logger"
	"github.com/username/smsledger/backend/src/models"
	"github.com/username/smsledger/backend/src/parsers/smsbackup"
)

type uploadServiceImpl struct {
	store     TransactionStore
	dashboard DashboardService
}

func NewUploadService(store TransactionStore, dashboard DashboardService) UploadService {
	return &uploadServiceImpl{
		store:     store,
		dashboard: dashboard,
	}
}

// ProcessUpload parses a backup document, enriches every record with the
// extracted amount, and stores the batch for the given user. A parse failure
// aborts the upload with nothing persisted. A commit failure reports zero
// inserted; per-record storage failures are skipped inside the store.
func (s *uploadServiceImpl) ProcessUpload(fileReader io.Reader, userID int64) (*UploadResult, error) {
	overallStartTime := time.Now()
	logger.L.Info("ProcessUpload START", "userID", userID)

	records, err := smsbackup.Parse(fileReader)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParsingFailed, err)
	}

	result := &UploadResult{ParsedCount: len(records)}
	if len(records) == 0 {
		logger.L.Info("ProcessUpload END: no message records in document", "userID", userID)
		return result, nil
	}

	txs := make([]models.Transaction, 0, len(records))
	for _, rec := range records {
		txs = append(txs, buildTransaction(userID, rec))
	}

	inserted, err := s.store.InsertBatch(userID, txs)
	result.InsertedCount = inserted
	if err != nil {
		logger.L.Error("Failed to commit uploaded batch", "userID", userID, "error", err)
		return result, err
	}

	if inserted > 0 {
		s.dashboard.InvalidateUserCache(userID)
	}

	logger.L.Info("ProcessUpload END", "userID", userID, "parsed", result.ParsedCount,
		"inserted", result.InsertedCount, "duration", time.Since(overallStartTime))
	return result, nil
}

// buildTransaction turns a raw message into a persistable transaction for
// one user. Attribute values carry over verbatim; only the two date fields
// are converted to integers (nil when conversion fails) and the amount is
// extracted from the body.
func buildTransaction(userID int64, rec models.RawMessage) models.Transaction {
	return models.Transaction{
		UserID:        userID,
		Protocol:      rec.Protocol,
		Address:       rec.Address,
		Date:          epochMillis(rec.Date),
		Type:          rec.Type,
		Subject:       rec.Subject,
		Body:          rec.Body,
		TOA:           rec.TOA,
		SCTOA:         rec.SCTOA,
		ServiceCenter: rec.ServiceCenter,
		Read:          rec.Read,
		Status:        rec.Status,
		Locked:        rec.Locked,
		DateSent:      epochMillis(rec.DateSent),
		SubID:         rec.SubID,
		ReadableDate:  rec.ReadableDate,
		ContactName:   rec.ContactName,
		Amount:        smsbackup.ExtractAmount(rec.Body),
	}
}

func epochMillis(raw *string) *int64 {
	if raw == nil {
		return nil
	}
	v, err := strconv.ParseInt(strings.TrimSpace(*raw), 10, 64)
	if err != nil {
		return nil
	}
	return &v
}
