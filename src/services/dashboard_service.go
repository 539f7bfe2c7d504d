// backend/src/services/dashboard_service.go
package services

import (
	"fmt"
	"sort"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/username/smsledger/backend/src/logger"
	"github.com/username/smsledger/backend/src/models"
)

const (
	ckTypeSummary          = "agg_type_summary_user_%d"
	ckVolumeByType         = "agg_volume_by_type_user_%d"
	ckMonthlyVolume        = "agg_monthly_volume_user_%d"
	ckAmountDistribution   = "agg_amount_distribution_user_%d"
	DefaultCacheExpiration = 15 * time.Minute
	CacheCleanupInterval   = 30 * time.Minute
)

const filterDateLayout = "2006-01-02"

// Type codes used by the backup format and their chart labels.
const (
	typeReceived = "1"
	typeSent     = "2"
)

type dashboardServiceImpl struct {
	store       TransactionStore
	reportCache *cache.Cache
}

func NewDashboardService(store TransactionStore, reportCache *cache.Cache) DashboardService {
	return &dashboardServiceImpl{
		store:       store,
		reportCache: reportCache,
	}
}

// ListTransactions validates the filter, resolves date strings to inclusive
// epoch-millisecond bounds and delegates to the store. A date that does not
// parse as YYYY-MM-DD fails with ErrInvalidFilter rather than silently
// returning unfiltered results.
func (s *dashboardServiceImpl) ListTransactions(userID int64, filter models.TransactionFilter) ([]models.Transaction, error) {
	q := models.TransactionQuery{
		Type:      filter.Type,
		MinAmount: filter.MinAmount,
		MaxAmount: filter.MaxAmount,
		Limit:     filter.Limit,
	}

	if filter.StartDate != "" {
		day, err := time.ParseInLocation(filterDateLayout, filter.StartDate, time.Local)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid start date format: %s", ErrInvalidFilter, filter.StartDate)
		}
		startMs := day.UnixMilli()
		q.StartMillis = &startMs
	}

	if filter.EndDate != "" {
		day, err := time.ParseInLocation(filterDateLayout, filter.EndDate, time.Local)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid end date format: %s", ErrInvalidFilter, filter.EndDate)
		}
		// Inclusive upper bound: last millisecond of the given day.
		endMs := day.AddDate(0, 0, 1).UnixMilli() - 1
		q.EndMillis = &endMs
	}

	return s.store.Query(userID, q)
}

// GetTransaction returns a single transaction scoped to both ids. A row that
// exists under another user is indistinguishable from a missing one.
func (s *dashboardServiceImpl) GetTransaction(userID int64, txID int64) (*models.Transaction, error) {
	return s.store.GetByID(userID, txID)
}

// GetTypeSummary counts the user's messages: total, received (type "1"),
// sent (type "2"), and one unknown bucket for every other code including
// absent types.
func (s *dashboardServiceImpl) GetTypeSummary(userID int64) (*models.TypeSummary, error) {
	cacheKey := fmt.Sprintf(ckTypeSummary, userID)
	if cached, found := s.reportCache.Get(cacheKey); found {
		return cached.(*models.TypeSummary), nil
	}

	total, byType, err := s.store.CountByType(userID)
	if err != nil {
		return nil, err
	}

	summary := &models.TypeSummary{
		Total:    total,
		Received: byType[typeReceived],
		Sent:     byType[typeSent],
	}
	summary.Unknown = summary.Total - summary.Received - summary.Sent

	s.reportCache.Set(cacheKey, summary, DefaultCacheExpiration)
	return summary, nil
}

// GetVolumeByType sums amounts per type code, restricted to rows with a
// non-null amount, labeling "1" as Received, "2" as Sent and anything else
// as Other. Buckets appear in the order their type code was first seen.
func (s *dashboardServiceImpl) GetVolumeByType(userID int64) (*models.AggregateView, error) {
	cacheKey := fmt.Sprintf(ckVolumeByType, userID)
	if cached, found := s.reportCache.Get(cacheKey); found {
		return cached.(*models.AggregateView), nil
	}

	rows, err := s.store.AmountRows(userID)
	if err != nil {
		return nil, err
	}

	// Sentinel key for rows without a type code; it still forms its own
	// "Other" bucket like any unrecognized code does.
	const absentType = "\x00"

	var order []string
	sums := make(map[string]float64)
	for _, row := range rows {
		key := absentType
		if row.Type != nil {
			key = *row.Type
		}
		if _, seen := sums[key]; !seen {
			order = append(order, key)
		}
		sums[key] += row.Amount
	}

	view := &models.AggregateView{Labels: []string{}, Data: []float64{}}
	for _, key := range order {
		label := "Other"
		switch key {
		case typeReceived:
			label = "Received"
		case typeSent:
			label = "Sent"
		}
		view.Labels = append(view.Labels, label)
		view.Data = append(view.Data, sums[key])
	}

	s.reportCache.Set(cacheKey, view, DefaultCacheExpiration)
	return view, nil
}

// GetMonthlyVolume sums amounts per local calendar month (YYYY-MM), skipping
// rows with no date or a date outside the representable calendar range, with
// labels sorted ascending.
func (s *dashboardServiceImpl) GetMonthlyVolume(userID int64) (*models.AggregateView, error) {
	cacheKey := fmt.Sprintf(ckMonthlyVolume, userID)
	if cached, found := s.reportCache.Get(cacheKey); found {
		return cached.(*models.AggregateView), nil
	}

	rows, err := s.store.AmountRows(userID)
	if err != nil {
		return nil, err
	}

	sums := make(map[string]float64)
	for _, row := range rows {
		if row.Date == nil {
			continue
		}
		ts := time.UnixMilli(*row.Date)
		// A mis-parsed timestamp outside years 1..9999 counts as missing
		// rather than forming a stray far-future or far-past bucket.
		if ts.Year() < 1 || ts.Year() > 9999 {
			continue
		}
		sums[ts.Format("2006-01")] += row.Amount
	}

	months := make([]string, 0, len(sums))
	for month := range sums {
		months = append(months, month)
	}
	sort.Strings(months)

	view := &models.AggregateView{Labels: []string{}, Data: []float64{}}
	for _, month := range months {
		view.Labels = append(view.Labels, month)
		view.Data = append(view.Data, sums[month])
	}

	s.reportCache.Set(cacheKey, view, DefaultCacheExpiration)
	return view, nil
}

// GetAmountDistribution returns the fixed two-entry Received/Sent totals
// view. A type with no amounts contributes 0.0.
func (s *dashboardServiceImpl) GetAmountDistribution(userID int64) (*models.AggregateView, error) {
	cacheKey := fmt.Sprintf(ckAmountDistribution, userID)
	if cached, found := s.reportCache.Get(cacheKey); found {
		return cached.(*models.AggregateView), nil
	}

	totalReceived, err := s.store.SumAmountForType(userID, typeReceived)
	if err != nil {
		return nil, err
	}
	totalSent, err := s.store.SumAmountForType(userID, typeSent)
	if err != nil {
		return nil, err
	}

	view := &models.AggregateView{
		Labels: []string{"Received", "Sent"},
		Data:   []float64{totalReceived, totalSent},
	}

	s.reportCache.Set(cacheKey, view, DefaultCacheExpiration)
	return view, nil
}

func (s *dashboardServiceImpl) InvalidateUserCache(userID int64) {
	keysToDelete := []string{
		fmt.Sprintf(ckTypeSummary, userID),
		fmt.Sprintf(ckVolumeByType, userID),
		fmt.Sprintf(ckMonthlyVolume, userID),
		fmt.Sprintf(ckAmountDistribution, userID),
	}
	for _, key := range keysToDelete {
		s.reportCache.Delete(key)
	}
	logger.L.Debug("Dashboard cache invalidated", "userID", userID)
}
