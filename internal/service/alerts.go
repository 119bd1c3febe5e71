package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/trend-scanner/internal/job"
	"github.com/trend-scanner/internal/logging"
	"github.com/trend-scanner/internal/models"
	"github.com/trend-scanner/internal/types"
)

// maxNamedMatches bounds how many dApps an alert message names; matches
// beyond it are counted but not listed
const maxNamedMatches = 5

// AlertReader provides active alerts and records trigger timestamps
type AlertReader interface {
	ListActive(ctx context.Context) ([]*models.Alert, error)
	UpdateLastTriggered(ctx context.Context, id uuid.UUID, triggeredAt time.Time) error
}

// LatestScoreReader provides the latest trend score per dApp
type LatestScoreReader interface {
	LatestPerDapp(ctx context.Context) (map[uuid.UUID]*models.TrendScore, error)
}

// NotificationSink accepts notification events. Persistence/delivery
// failures are the sink's concern beyond the returned error.
type NotificationSink interface {
	Create(ctx context.Context, n *models.Notification) error
}

// AlertMatch is one dApp matching an alert's conditions
type AlertMatch struct {
	Name           string
	TrendScore     float64
	Signal         types.Signal
	WalletGrowth7d float64
}

// AlertService evaluates active alerts against the latest score universe
type AlertService struct {
	alertRepo AlertReader
	dappRepo  DappDirectory
	scoreRepo LatestScoreReader
	sink      NotificationSink
	guard     *job.Guard
	logger    *logging.Logger
	now       func() time.Time
}

// AlertServiceConfig holds configuration for the alert service
type AlertServiceConfig struct {
	AlertRepo AlertReader
	DappRepo  DappDirectory
	ScoreRepo LatestScoreReader
	Sink      NotificationSink
	Logger    *logging.Logger
}

// NewAlertService creates a new alert service
func NewAlertService(cfg *AlertServiceConfig) (*AlertService, error) {
	if cfg.AlertRepo == nil {
		return nil, fmt.Errorf("alert repository cannot be nil")
	}
	if cfg.DappRepo == nil {
		return nil, fmt.Errorf("dapp repository cannot be nil")
	}
	if cfg.ScoreRepo == nil {
		return nil, fmt.Errorf("score repository cannot be nil")
	}
	if cfg.Sink == nil {
		return nil, fmt.Errorf("notification sink cannot be nil")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}

	return &AlertService{
		alertRepo: cfg.AlertRepo,
		dappRepo:  cfg.DappRepo,
		scoreRepo: cfg.ScoreRepo,
		sink:      cfg.Sink,
		guard:     job.NewGuard(job.KindAlertEvaluation),
		logger:    logger.WithField("job", string(job.KindAlertEvaluation)),
		now:       time.Now,
	}, nil
}

// Guard exposes the overlap guard for this job kind
func (s *AlertService) Guard() *job.Guard {
	return s.guard
}

// EvaluateAll runs one evaluation pass over every active alert. A second
// invocation while a pass is in flight is a no-op. Per-alert failures are
// logged and do not stop the pass; a failure to load the alert list or the
// dApp/score universe propagates to the caller.
func (s *AlertService) EvaluateAll(ctx context.Context) error {
	if !s.guard.TryStart() {
		s.logger.Info("Alert evaluation already running, skipping")
		return nil
	}
	defer s.guard.Done()

	s.logger.Info("Starting alert evaluation")

	alerts, err := s.alertRepo.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("failed to list active alerts: %w", err)
	}
	s.logger.Infof("Found %d active alerts", len(alerts))

	// The universe is fetched once per pass; each alert filters it.
	dapps, err := s.dappRepo.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("failed to list active dapps: %w", err)
	}
	latest, err := s.scoreRepo.LatestPerDapp(ctx)
	if err != nil {
		return fmt.Errorf("failed to load latest trend scores: %w", err)
	}

	today := midnightUTC(s.now())
	triggered := 0

	for _, alert := range alerts {
		if ctx.Err() != nil {
			// Cancelled mid-batch: stop here, emitted notifications stand.
			return ctx.Err()
		}

		fired, err := s.evaluateAlert(ctx, alert, dapps, latest, today)
		if err != nil {
			s.logger.WithField("alertId", alert.ID.String()).ErrorWithErr("Failed to evaluate alert", err)
			continue
		}
		if fired {
			triggered++
		}
	}

	s.logger.WithFields(map[string]interface{}{
		"alerts":    len(alerts),
		"triggered": triggered,
	}).Info("Alert evaluation completed")
	return nil
}

// evaluateAlert matches one alert and emits at most one notification per
// calendar day
func (s *AlertService) evaluateAlert(
	ctx context.Context,
	alert *models.Alert,
	dapps []*models.Dapp,
	latest map[uuid.UUID]*models.TrendScore,
	today time.Time,
) (bool, error) {
	matches := MatchDapps(alert.Conditions, dapps, latest)
	if len(matches) == 0 {
		return false, nil
	}

	if triggeredSameDay(alert.LastTriggered, today) {
		s.logger.WithField("alertId", alert.ID.String()).Debug("Alert already triggered today, skipping")
		return false, nil
	}

	notification := &models.Notification{
		UserID:  alert.UserID,
		AlertID: alert.ID,
		Title:   fmt.Sprintf("Alert: %s", alert.Name),
		Message: FormatAlertMessage(alert.Type, matches),
	}

	// The sink write comes first: if it fails, lastTriggered stays unset
	// and a later pass the same day retries the alert.
	if err := s.sink.Create(ctx, notification); err != nil {
		return false, fmt.Errorf("failed to emit notification: %w", err)
	}
	if err := s.alertRepo.UpdateLastTriggered(ctx, alert.ID, s.now().UTC()); err != nil {
		return false, fmt.Errorf("failed to update last triggered: %w", err)
	}

	s.logger.WithFields(map[string]interface{}{
		"alertId": alert.ID.String(),
		"matches": len(matches),
	}).Info("Alert triggered")
	return true, nil
}

// MatchDapps selects dApps satisfying every set condition of an alert.
// Unset (nil) conditions are skipped; a dApp without a latest score never
// matches. Result order follows the dApp iteration order.
func MatchDapps(
	conditions models.AlertConditions,
	dapps []*models.Dapp,
	latest map[uuid.UUID]*models.TrendScore,
) []AlertMatch {
	var matches []AlertMatch
	for _, dapp := range dapps {
		if conditions.Chain != nil && !dapp.OnChain(*conditions.Chain) {
			continue
		}
		if conditions.Category != nil && dapp.Category != *conditions.Category {
			continue
		}

		score, ok := latest[dapp.ID]
		if !ok {
			continue
		}

		if conditions.Signal != nil && score.Signal != *conditions.Signal {
			continue
		}
		if conditions.GrowthThreshold != nil && score.WalletGrowth7d < *conditions.GrowthThreshold {
			continue
		}
		if conditions.ScoreThreshold != nil && score.TrendScore < *conditions.ScoreThreshold {
			continue
		}

		matches = append(matches, AlertMatch{
			Name:           dapp.Name,
			TrendScore:     score.TrendScore,
			Signal:         score.Signal,
			WalletGrowth7d: score.WalletGrowth7d,
		})
	}
	return matches
}

// triggeredSameDay compares calendar days, not timestamp proximity
func triggeredSameDay(last *time.Time, today time.Time) bool {
	if last == nil {
		return false
	}
	return midnightUTC(*last).Equal(midnightUTC(today))
}

// FormatAlertMessage renders the notification message for an alert type.
// Each type has its own template; at most the first five matches are named.
func FormatAlertMessage(alertType types.AlertType, matches []AlertMatch) string {
	count := len(matches)
	top := matches
	if len(top) > maxNamedMatches {
		top = top[:maxNamedMatches]
	}

	names := make([]string, len(top))
	switch alertType {
	case types.AlertTypeBreakout:
		for i, m := range top {
			names[i] = m.Name
		}
		verb := "s have"
		if count == 1 {
			verb = " has"
		}
		return fmt.Sprintf("%d dApp%s reached BREAKOUT status: %s", count, verb, strings.Join(names, ", "))

	case types.AlertTypeGrowthThreshold:
		for i, m := range top {
			names[i] = fmt.Sprintf("%s (+%.1f%%)", m.Name, m.WalletGrowth7d)
		}
		return fmt.Sprintf("%d dApp%s matched your growth threshold: %s", count, plural(count), strings.Join(names, ", "))

	case types.AlertTypeCategorySignal:
		for i, m := range top {
			names[i] = fmt.Sprintf("%s (%s)", m.Name, m.Signal)
		}
		return fmt.Sprintf("%d dApp%s in your watched category: %s", count, plural(count), strings.Join(names, ", "))

	case types.AlertTypeCustom:
		fallthrough
	default:
		for i, m := range top {
			names[i] = m.Name
		}
		return fmt.Sprintf("%d dApp%s matched your alert conditions: %s", count, plural(count), strings.Join(names, ", "))
	}
}

func plural(count int) string {
	if count == 1 {
		return ""
	}
	return "s"
}
