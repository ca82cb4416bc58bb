package revenue

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type fakeRevenueRepo struct {
	total    decimal.Decimal
	count    int64
	bySource map[string]decimal.Decimal
	byMonth  map[string]decimal.Decimal

	gotFrom, gotTo time.Time
	gotLimit       int
	fans           []*TopFan
}

func (r *fakeRevenueRepo) CompletedTotals(ctx context.Context, artistID uuid.UUID) (decimal.Decimal, int64, error) {
	return r.total, r.count, nil
}

func (r *fakeRevenueRepo) CompletedBySource(ctx context.Context, artistID uuid.UUID) (map[string]decimal.Decimal, error) {
	return r.bySource, nil
}

func (r *fakeRevenueRepo) CompletedByMonth(ctx context.Context, artistID uuid.UUID, from, to time.Time) (map[string]decimal.Decimal, error) {
	r.gotFrom, r.gotTo = from, to
	return r.byMonth, nil
}

func (r *fakeRevenueRepo) TopPayers(ctx context.Context, artistID uuid.UUID, limit int) ([]*TopFan, error) {
	r.gotLimit = limit
	return r.fans, nil
}

func TestSummaryWindow(t *testing.T) {
	repo := &fakeRevenueRepo{
		total: decimal.RequireFromString("750.50"),
		count: 12,
		bySource: map[string]decimal.Decimal{
			"event_ticket": decimal.RequireFromString("500"),
			"donation":     decimal.RequireFromString("250.50"),
		},
		byMonth: map[string]decimal.Decimal{
			"2025-11": decimal.RequireFromString("200"),
			"2026-02": decimal.RequireFromString("550.50"),
		},
	}
	svc := NewService(repo)
	// Mid-February: the window must span September through February,
	// crossing the year boundary.
	svc.now = func() time.Time { return time.Date(2026, time.February, 14, 12, 0, 0, 0, time.UTC) }

	summary, err := svc.Summary(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("summary failed: %v", err)
	}

	if !summary.Total.Equal(decimal.RequireFromString("750.50")) {
		t.Fatalf("expected total 750.50, got %s", summary.Total)
	}
	if summary.Count != 12 {
		t.Fatalf("expected count 12, got %d", summary.Count)
	}

	wantMonths := []string{"2025-09", "2025-10", "2025-11", "2025-12", "2026-01", "2026-02"}
	if len(summary.Monthly) != len(wantMonths) {
		t.Fatalf("expected %d months, got %d", len(wantMonths), len(summary.Monthly))
	}
	for i, want := range wantMonths {
		if summary.Monthly[i].Month != want {
			t.Fatalf("month %d: expected %s, got %s", i, want, summary.Monthly[i].Month)
		}
	}

	// Months without revenue are present with a zero total.
	if !summary.Monthly[0].Total.IsZero() {
		t.Fatalf("expected zero for empty month, got %s", summary.Monthly[0].Total)
	}
	if !summary.Monthly[2].Total.Equal(decimal.RequireFromString("200")) {
		t.Fatalf("expected 200 for 2025-11, got %s", summary.Monthly[2].Total)
	}
	if !summary.Monthly[5].Total.Equal(decimal.RequireFromString("550.50")) {
		t.Fatalf("expected 550.50 for 2026-02, got %s", summary.Monthly[5].Total)
	}

	// The query window covers exactly the reported months.
	if got := repo.gotFrom.Format("2006-01-02"); got != "2025-09-01" {
		t.Fatalf("expected window start 2025-09-01, got %s", got)
	}
	if got := repo.gotTo.Format("2006-01-02"); got != "2026-03-01" {
		t.Fatalf("expected window end 2026-03-01, got %s", got)
	}
}

func TestTopFansLimitClamp(t *testing.T) {
	repo := &fakeRevenueRepo{fans: []*TopFan{}}
	svc := NewService(repo)

	cases := []struct {
		in   int
		want int
	}{
		{0, 10},
		{-3, 10},
		{25, 25},
		{500, 50},
	}

	for _, tc := range cases {
		if _, err := svc.TopFans(context.Background(), uuid.New(), tc.in); err != nil {
			t.Fatalf("top fans failed: %v", err)
		}
		if repo.gotLimit != tc.want {
			t.Fatalf("limit %d: expected clamp to %d, got %d", tc.in, tc.want, repo.gotLimit)
		}
	}
}
