package revenue

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const summaryMonths = 6

// Service implements revenue reporting
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates revenue service
func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
		now:  time.Now,
	}
}

// Summary builds the artist's revenue report: lifetime total and count, a
// per-source breakdown, and a monthly series covering the last six calendar
// months. Months without revenue appear with a zero total.
func (s *Service) Summary(ctx context.Context, artistID uuid.UUID) (*Summary, error) {
	total, count, err := s.repo.CompletedTotals(ctx, artistID)
	if err != nil {
		return nil, err
	}

	bySource, err := s.repo.CompletedBySource(ctx, artistID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	windowStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -(summaryMonths - 1), 0)
	windowEnd := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)

	byMonth, err := s.repo.CompletedByMonth(ctx, artistID, windowStart, windowEnd)
	if err != nil {
		return nil, err
	}

	monthly := make([]MonthTotal, 0, summaryMonths)
	for i := 0; i < summaryMonths; i++ {
		key := windowStart.AddDate(0, i, 0).Format("2006-01")
		monthTotal, ok := byMonth[key]
		if !ok {
			monthTotal = decimal.Zero
		}
		monthly = append(monthly, MonthTotal{Month: key, Total: monthTotal})
	}

	return &Summary{
		ArtistID: artistID,
		Total:    total,
		Count:    count,
		BySource: bySource,
		Monthly:  monthly,
	}, nil
}

// TopFans ranks an artist's supporters by completed spend.
func (s *Service) TopFans(ctx context.Context, artistID uuid.UUID, limit int) ([]*TopFan, error) {
	if limit <= 0 {
		limit = 10
	}
	if limit > 50 {
		limit = 50
	}
	return s.repo.TopPayers(ctx, artistID, limit)
}
