// Package service implements the analytics core: trend score calculation
// and alert evaluation.
package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/trend-scanner/internal/analytics"
	"github.com/trend-scanner/internal/job"
	"github.com/trend-scanner/internal/logging"
	"github.com/trend-scanner/internal/models"
	"golang.org/x/time/rate"
)

// ErrInsufficientData marks a dApp with fewer than 2 metric snapshots in
// the window. It is a no-op signal, not a failure: the pass logs it and
// moves on without producing a score.
var ErrInsufficientData = errors.New("insufficient metric history")

// MetricReader provides raw metric snapshots for a dApp
type MetricReader interface {
	ListSince(ctx context.Context, dappID uuid.UUID, since time.Time) ([]*models.DappMetric, error)
}

// ScoreWriter persists computed trend scores, upserting on (dappId, date)
type ScoreWriter interface {
	Upsert(ctx context.Context, score *models.TrendScore) error
}

// DappDirectory provides the universe of active dApps
type DappDirectory interface {
	ListActive(ctx context.Context) ([]*models.Dapp, error)
}

// ScoreCache caches latest scores and owns leaderboard invalidation
type ScoreCache interface {
	SetLatest(ctx context.Context, score *models.TrendScore) error
	InvalidateLeaderboards(ctx context.Context) error
}

// TrendScoreService computes daily trend scores for tracked dApps
type TrendScoreService struct {
	metricRepo MetricReader
	scoreRepo  ScoreWriter
	dappRepo   DappDirectory
	cache      ScoreCache
	limiter    *rate.Limiter
	guard      *job.Guard
	logger     *logging.Logger
	windowDays int
	now        func() time.Time
}

// TrendScoreServiceConfig holds configuration for the trend score service
type TrendScoreServiceConfig struct {
	MetricRepo MetricReader
	ScoreRepo  ScoreWriter
	DappRepo   DappDirectory
	Cache      ScoreCache // optional
	Logger     *logging.Logger
	// RatePerSecond caps how many dApps per second a full pass scores;
	// zero or negative means unlimited
	RatePerSecond int
	// WindowDays is how far back raw metrics are fetched (default: 30)
	WindowDays int
}

// NewTrendScoreService creates a new trend score service
func NewTrendScoreService(cfg *TrendScoreServiceConfig) (*TrendScoreService, error) {
	if cfg.MetricRepo == nil {
		return nil, fmt.Errorf("metric repository cannot be nil")
	}
	if cfg.ScoreRepo == nil {
		return nil, fmt.Errorf("score repository cannot be nil")
	}
	if cfg.DappRepo == nil {
		return nil, fmt.Errorf("dapp repository cannot be nil")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}

	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}

	windowDays := cfg.WindowDays
	if windowDays <= 0 {
		windowDays = 30
	}

	return &TrendScoreService{
		metricRepo: cfg.MetricRepo,
		scoreRepo:  cfg.ScoreRepo,
		dappRepo:   cfg.DappRepo,
		cache:      cfg.Cache,
		limiter:    rate.NewLimiter(limit, 1),
		guard:      job.NewGuard(job.KindTrendScore),
		logger:     logger.WithField("job", string(job.KindTrendScore)),
		windowDays: windowDays,
		now:        time.Now,
	}, nil
}

// Guard exposes the overlap guard for this job kind
func (s *TrendScoreService) Guard() *job.Guard {
	return s.guard
}

// midnightUTC truncates a timestamp to its UTC calendar day
func midnightUTC(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// CalculateAll runs one scoring pass over every active dApp. A second
// invocation while a pass is in flight is a no-op. Per-dApp failures are
// logged and do not stop the pass; a failure to list the universe
// propagates to the caller.
func (s *TrendScoreService) CalculateAll(ctx context.Context) error {
	if !s.guard.TryStart() {
		s.logger.Info("Trend score pass already running, skipping")
		return nil
	}
	defer s.guard.Done()

	s.logger.Info("Starting trend score calculation for all dApps")

	dapps, err := s.dappRepo.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("failed to list active dapps: %w", err)
	}
	s.logger.Infof("Found %d active dApps", len(dapps))

	today := midnightUTC(s.now())
	scored := 0
	skipped := 0
	failed := 0

	for _, dapp := range dapps {
		if err := s.limiter.Wait(ctx); err != nil {
			// Cancelled mid-batch: stop here, already-written scores stand.
			return err
		}

		err := s.CalculateForDapp(ctx, dapp.ID, today)
		switch {
		case err == nil:
			scored++
		case errors.Is(err, ErrInsufficientData):
			s.logger.WithField("dappId", dapp.ID.String()).Info("Insufficient metrics, skipping dApp")
			skipped++
		default:
			s.logger.WithField("dappId", dapp.ID.String()).ErrorWithErr("Failed to calculate trend score", err)
			failed++
		}
	}

	if s.cache != nil {
		if err := s.cache.InvalidateLeaderboards(ctx); err != nil {
			s.logger.WithError(err).Warn("Failed to invalidate leaderboard cache")
		}
	}

	s.logger.WithFields(map[string]interface{}{
		"scored":  scored,
		"skipped": skipped,
		"failed":  failed,
	}).Info("Trend score calculation completed")
	return nil
}

// CalculateForDapp computes and upserts the trend score for one dApp as of
// the given day. Re-running with unchanged inputs rewrites an identical
// record; the (dappId, date) upsert never duplicates rows.
func (s *TrendScoreService) CalculateForDapp(ctx context.Context, dappID uuid.UUID, asOf time.Time) error {
	today := midnightUTC(asOf)
	since := today.AddDate(0, 0, -s.windowDays)

	metrics, err := s.metricRepo.ListSince(ctx, dappID, since)
	if err != nil {
		return fmt.Errorf("failed to fetch metrics: %w", err)
	}
	if len(metrics) < 2 {
		return ErrInsufficientData
	}

	aggregates := aggregateDaily(metrics)

	week := aggregates
	if len(week) > 7 {
		week = week[:7]
	}
	month := aggregates
	if len(month) > 30 {
		month = month[:30]
	}

	walletGrowth7d := windowGrowth(week, func(a analytics.DailyAggregate) float64 { return float64(a.Wallets) })
	walletGrowth30d := windowGrowth(month, func(a analytics.DailyAggregate) float64 { return float64(a.Wallets) })
	txGrowth7d := windowGrowth(week, func(a analytics.DailyAggregate) float64 { return float64(a.Txs) })
	txGrowth30d := windowGrowth(month, func(a analytics.DailyAggregate) float64 { return float64(a.Txs) })

	volumes := make([]float64, len(week))
	for i, a := range week {
		volumes[i] = a.Volume
	}
	volumeAcceleration := analytics.Acceleration(volumes)

	// Social growth only counts once the gauge was actually set at the
	// start of the window; the oldest-point guard is deliberate.
	socialGrowth := 0.0
	if len(week) >= 2 && week[len(week)-1].Followers > 0 {
		socialGrowth = analytics.GrowthRate(float64(week[0].Followers), float64(week[len(week)-1].Followers))
	}

	raw := analytics.CompositeScore(walletGrowth7d, txGrowth7d, volumeAcceleration, socialGrowth)
	trendScore := analytics.NormalizeScore(raw)

	signal := analytics.Classify(analytics.SignalInputs{
		WalletGrowth7d:     walletGrowth7d,
		TxGrowth7d:         txGrowth7d,
		VolumeAcceleration: volumeAcceleration,
		LatestDailyVolume:  week[0].Volume,
		Window:             week,
	})

	score := &models.TrendScore{
		DappID:             dappID,
		Date:               today,
		WalletGrowth7d:     walletGrowth7d,
		WalletGrowth30d:    walletGrowth30d,
		TxGrowth7d:         txGrowth7d,
		TxGrowth30d:        txGrowth30d,
		VolumeAcceleration: volumeAcceleration,
		SocialGrowth:       socialGrowth,
		TrendScore:         trendScore,
		Signal:             signal,
	}

	if err := s.scoreRepo.Upsert(ctx, score); err != nil {
		return fmt.Errorf("failed to upsert trend score: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.SetLatest(ctx, score); err != nil {
			s.logger.WithField("dappId", dappID.String()).WithError(err).Warn("Failed to cache trend score")
		}
	}

	s.logger.WithFields(map[string]interface{}{
		"dappId":     dappID.String(),
		"trendScore": fmt.Sprintf("%.2f", trendScore),
		"signal":     string(signal),
	}).Debug("Updated trend score")
	return nil
}

// aggregateDaily collapses per-chain snapshots into one aggregate per
// calendar day: wallets/txs/volume are summed, followers takes the day's
// maximum. Result is sorted most recent first.
func aggregateDaily(metrics []*models.DappMetric) []analytics.DailyAggregate {
	byDay := make(map[time.Time]*analytics.DailyAggregate)
	for _, m := range metrics {
		day := midnightUTC(m.Date)
		agg, ok := byDay[day]
		if !ok {
			agg = &analytics.DailyAggregate{Date: day}
			byDay[day] = agg
		}
		agg.Wallets += m.DailyActiveWallets
		agg.Txs += m.DailyTxCount
		agg.Volume += m.VolumeUSD
		if m.TwitterFollowers > agg.Followers {
			agg.Followers = m.TwitterFollowers
		}
	}

	aggregates := make([]analytics.DailyAggregate, 0, len(byDay))
	for _, agg := range byDay {
		aggregates = append(aggregates, *agg)
	}
	sort.Slice(aggregates, func(i, j int) bool {
		return aggregates[i].Date.After(aggregates[j].Date)
	})
	return aggregates
}

// windowGrowth computes newest-vs-oldest growth over a window, requiring
// at least 2 points
func windowGrowth(window []analytics.DailyAggregate, value func(analytics.DailyAggregate) float64) float64 {
	if len(window) < 2 {
		return 0
	}
	return analytics.GrowthRate(value(window[0]), value(window[len(window)-1]))
}
