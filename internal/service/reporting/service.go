package reporting

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/safwanm/biztrack-backend/internal/domain"
	"github.com/safwanm/biztrack-backend/internal/logging"
)

type receivableRepo interface {
	ListOutstanding(ctx context.Context, segment domain.Segment) ([]domain.AgingItem, error)
}

type payableRepo interface {
	ListOutstanding(ctx context.Context, segment domain.Segment) ([]domain.AgingItem, error)
}

type accountRepo interface {
	List(ctx context.Context) ([]domain.Account, error)
}

// Service produces read-only reports. Everything here works off committed
// snapshots, so results may trail in-flight settlements by a moment; no
// report ever mutates state.
type Service struct {
	receivables receivableRepo
	payables    payableRepo
	accounts    accountRepo
	cache       *redis.Client
	cacheTTL    time.Duration
}

// NewService accepts a nil cache client, in which case every call hits
// postgres directly.
func NewService(receivables receivableRepo, payables payableRepo, accounts accountRepo, cache *redis.Client, cacheTTL time.Duration) *Service {
	return &Service{
		receivables: receivables,
		payables:    payables,
		accounts:    accounts,
		cache:       cache,
		cacheTTL:    cacheTTL,
	}
}

// AgingReceivables buckets every open receivable in the segment by days past
// due as of now.
func (s *Service) AgingReceivables(ctx context.Context, segment domain.Segment) (*domain.AgingReport, error) {
	key := fmt.Sprintf("report:aging:receivables:%s", segment)
	if report, ok := s.cached(ctx, key); ok {
		return report, nil
	}

	items, err := s.receivables.ListOutstanding(ctx, segment)
	if err != nil {
		return nil, fmt.Errorf("AgingReceivables: %w", err)
	}

	report := domain.BucketAging(items, time.Now().UTC())
	s.store(ctx, key, &report)
	return &report, nil
}

// AgingPayables is the vendor-side mirror of AgingReceivables.
func (s *Service) AgingPayables(ctx context.Context, segment domain.Segment) (*domain.AgingReport, error) {
	key := fmt.Sprintf("report:aging:payables:%s", segment)
	if report, ok := s.cached(ctx, key); ok {
		return report, nil
	}

	items, err := s.payables.ListOutstanding(ctx, segment)
	if err != nil {
		return nil, fmt.Errorf("AgingPayables: %w", err)
	}

	report := domain.BucketAging(items, time.Now().UTC())
	s.store(ctx, key, &report)
	return &report, nil
}

type Summary struct {
	Segment         domain.Segment `json:"segment"`
	AsOf            time.Time      `json:"asOf"`
	CashOnHand      domain.Minor   `json:"cashOnHand"`
	ReceivablesDue  domain.Minor   `json:"receivablesDue"`
	PayablesDue     domain.Minor   `json:"payablesDue"`
	OpenReceivables int            `json:"openReceivables"`
	OpenPayables    int            `json:"openPayables"`
	NetPosition     domain.Minor   `json:"netPosition"`
}

// BuildSummary is the dashboard headline: cash across all accounts, what is
// still owed to us and what we still owe, and the net of the three.
func (s *Service) BuildSummary(ctx context.Context, segment domain.Segment) (*Summary, error) {
	accounts, err := s.accounts.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("BuildSummary: %w", err)
	}

	sum := &Summary{Segment: segment, AsOf: time.Now().UTC()}
	for _, a := range accounts {
		if a.Segment == segment {
			sum.CashOnHand += a.Balance
		}
	}

	recs, err := s.receivables.ListOutstanding(ctx, segment)
	if err != nil {
		return nil, fmt.Errorf("BuildSummary: %w", err)
	}
	for _, it := range recs {
		sum.ReceivablesDue += it.Remaining
	}
	sum.OpenReceivables = len(recs)

	pays, err := s.payables.ListOutstanding(ctx, segment)
	if err != nil {
		return nil, fmt.Errorf("BuildSummary: %w", err)
	}
	for _, it := range pays {
		sum.PayablesDue += it.Remaining
	}
	sum.OpenPayables = len(pays)

	sum.NetPosition = sum.CashOnHand + sum.ReceivablesDue - sum.PayablesDue
	return sum, nil
}

// cached returns a hit from redis; any cache failure is logged and treated
// as a miss.
func (s *Service) cached(ctx context.Context, key string) (*domain.AgingReport, bool) {
	if s.cache == nil {
		return nil, false
	}
	raw, err := s.cache.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			logging.FromContext(ctx).Warn("report cache read failed", "key", key, "error", err)
		}
		return nil, false
	}
	var report domain.AgingReport
	if err := json.Unmarshal(raw, &report); err != nil {
		logging.FromContext(ctx).Warn("report cache decode failed", "key", key, "error", err)
		return nil, false
	}
	return &report, true
}

func (s *Service) store(ctx context.Context, key string, report *domain.AgingReport) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(report)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, raw, s.cacheTTL).Err(); err != nil {
		logging.FromContext(ctx).Warn("report cache write failed", "key", key, "error", err)
	}
}
