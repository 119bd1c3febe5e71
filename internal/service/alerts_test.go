package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trend-scanner/internal/models"
	"github.com/trend-scanner/internal/types"
)

func ptr[T any](v T) *T { return &v }

type fakeAlertRepo struct {
	alerts  []*models.Alert
	listErr error
}

func (f *fakeAlertRepo) ListActive(ctx context.Context) ([]*models.Alert, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var active []*models.Alert
	for _, a := range f.alerts {
		if a.IsActive {
			active = append(active, a)
		}
	}
	return active, nil
}

func (f *fakeAlertRepo) UpdateLastTriggered(ctx context.Context, id uuid.UUID, triggeredAt time.Time) error {
	for _, a := range f.alerts {
		if a.ID == id {
			ts := triggeredAt
			a.LastTriggered = &ts
			return nil
		}
	}
	return fmt.Errorf("alert %s not found", id)
}

type fakeLatestScores struct {
	latest map[uuid.UUID]*models.TrendScore
	err    error
}

func (f *fakeLatestScores) LatestPerDapp(ctx context.Context) (map[uuid.UUID]*models.TrendScore, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.latest, nil
}

type fakeSink struct {
	notifications []*models.Notification
	failForAlert  uuid.UUID
}

func (f *fakeSink) Create(ctx context.Context, n *models.Notification) error {
	if n.AlertID == f.failForAlert {
		return errors.New("notification store unavailable")
	}
	f.notifications = append(f.notifications, n)
	return nil
}

type alertFixture struct {
	svc       *AlertService
	alertRepo *fakeAlertRepo
	sink      *fakeSink
}

func newAlertFixture(t *testing.T, alerts []*models.Alert, dapps []*models.Dapp, latest map[uuid.UUID]*models.TrendScore) *alertFixture {
	t.Helper()

	alertRepo := &fakeAlertRepo{alerts: alerts}
	sink := &fakeSink{}
	svc, err := NewAlertService(&AlertServiceConfig{
		AlertRepo: alertRepo,
		DappRepo:  &fakeDappDir{dapps: dapps},
		ScoreRepo: &fakeLatestScores{latest: latest},
		Sink:      sink,
	})
	require.NoError(t, err)
	svc.now = func() time.Time { return testToday.Add(9 * time.Hour) }

	return &alertFixture{svc: svc, alertRepo: alertRepo, sink: sink}
}

func scoredDapp(name string, category types.Category, chains []types.ChainID, score *models.TrendScore) (*models.Dapp, *models.TrendScore) {
	d := &models.Dapp{
		ID:       uuid.New(),
		Name:     name,
		Slug:     strings.ToLower(name),
		Category: category,
		Chains:   chains,
		IsActive: true,
	}
	if score != nil {
		score.DappID = d.ID
		score.Date = testToday
	}
	return d, score
}

func TestMatchDappsConjunctiveConditions(t *testing.T) {
	dex1, s1 := scoredDapp("Uniswap", types.CategoryDEX, []types.ChainID{types.ChainEthereum},
		&models.TrendScore{WalletGrowth7d: 75, TrendScore: 80, Signal: types.SignalBreakout})
	dex2, s2 := scoredDapp("Curve", types.CategoryDEX, []types.ChainID{types.ChainEthereum},
		&models.TrendScore{WalletGrowth7d: 50, TrendScore: 60, Signal: types.SignalRising})
	dex3, s3 := scoredDapp("Sushi", types.CategoryDEX, []types.ChainID{types.ChainEthereum},
		&models.TrendScore{WalletGrowth7d: 49.9, TrendScore: 55, Signal: types.SignalRising})
	lending, s4 := scoredDapp("Aave", types.CategoryLending, []types.ChainID{types.ChainEthereum},
		&models.TrendScore{WalletGrowth7d: 90, TrendScore: 85, Signal: types.SignalBreakout})

	dapps := []*models.Dapp{dex1, dex2, dex3, lending}
	latest := map[uuid.UUID]*models.TrendScore{
		dex1.ID: s1, dex2.ID: s2, dex3.ID: s3, lending.ID: s4,
	}

	conditions := models.AlertConditions{
		Category:        ptr(types.CategoryDEX),
		GrowthThreshold: ptr(50.0),
	}

	matches := MatchDapps(conditions, dapps, latest)
	require.Len(t, matches, 2)
	// Thresholds are inclusive: exactly 50 matches, 49.9 does not.
	assert.Equal(t, "Uniswap", matches[0].Name)
	assert.Equal(t, "Curve", matches[1].Name)
}

func TestMatchDappsChainCondition(t *testing.T) {
	eth, s1 := scoredDapp("Uniswap", types.CategoryDEX, []types.ChainID{types.ChainEthereum, types.ChainBase},
		&models.TrendScore{TrendScore: 70})
	sol, s2 := scoredDapp("Jupiter", types.CategoryDEX, []types.ChainID{types.ChainSolana},
		&models.TrendScore{TrendScore: 70})

	dapps := []*models.Dapp{eth, sol}
	latest := map[uuid.UUID]*models.TrendScore{eth.ID: s1, sol.ID: s2}

	matches := MatchDapps(models.AlertConditions{Chain: ptr(types.ChainBase)}, dapps, latest)
	require.Len(t, matches, 1)
	assert.Equal(t, "Uniswap", matches[0].Name)
}

func TestMatchDappsRequiresLatestScore(t *testing.T) {
	scored, s1 := scoredDapp("Uniswap", types.CategoryDEX, []types.ChainID{types.ChainEthereum},
		&models.TrendScore{TrendScore: 70})
	unscored, _ := scoredDapp("Brand New", types.CategoryDEX, []types.ChainID{types.ChainEthereum}, nil)

	dapps := []*models.Dapp{scored, unscored}
	latest := map[uuid.UUID]*models.TrendScore{scored.ID: s1}

	// Even with no conditions set, a dApp without a score never matches.
	matches := MatchDapps(models.AlertConditions{}, dapps, latest)
	require.Len(t, matches, 1)
	assert.Equal(t, "Uniswap", matches[0].Name)
}

func TestMatchDappsSignalCondition(t *testing.T) {
	rising, s1 := scoredDapp("Uniswap", types.CategoryDEX, []types.ChainID{types.ChainEthereum},
		&models.TrendScore{Signal: types.SignalRising})
	dormant, s2 := scoredDapp("Ghost", types.CategoryDEX, []types.ChainID{types.ChainEthereum},
		&models.TrendScore{Signal: types.SignalDormant})

	dapps := []*models.Dapp{rising, dormant}
	latest := map[uuid.UUID]*models.TrendScore{rising.ID: s1, dormant.ID: s2}

	matches := MatchDapps(models.AlertConditions{Signal: ptr(types.SignalRising)}, dapps, latest)
	require.Len(t, matches, 1)
	assert.Equal(t, "Uniswap", matches[0].Name)
}

func TestMatchDappsZeroThresholdApplies(t *testing.T) {
	growing, s1 := scoredDapp("Uniswap", types.CategoryDEX, []types.ChainID{types.ChainEthereum},
		&models.TrendScore{WalletGrowth7d: 5})
	shrinking, s2 := scoredDapp("Fading", types.CategoryDEX, []types.ChainID{types.ChainEthereum},
		&models.TrendScore{WalletGrowth7d: -5})

	dapps := []*models.Dapp{growing, shrinking}
	latest := map[uuid.UUID]*models.TrendScore{growing.ID: s1, shrinking.ID: s2}

	// An explicitly set zero threshold filters negative growth; a nil
	// threshold does not filter at all.
	matches := MatchDapps(models.AlertConditions{GrowthThreshold: ptr(0.0)}, dapps, latest)
	require.Len(t, matches, 1)
	assert.Equal(t, "Uniswap", matches[0].Name)

	matches = MatchDapps(models.AlertConditions{}, dapps, latest)
	assert.Len(t, matches, 2)
}

func TestEvaluateAllTriggersOncePerDay(t *testing.T) {
	dapp, score := scoredDapp("Uniswap", types.CategoryDEX, []types.ChainID{types.ChainEthereum},
		&models.TrendScore{WalletGrowth7d: 60, TrendScore: 80, Signal: types.SignalBreakout})
	alert := &models.Alert{
		ID:       uuid.New(),
		UserID:   uuid.New(),
		Name:     "Breakout watch",
		Type:     types.AlertTypeBreakout,
		IsActive: true,
		Conditions: models.AlertConditions{
			Signal: ptr(types.SignalBreakout),
		},
	}

	fx := newAlertFixture(t, []*models.Alert{alert},
		[]*models.Dapp{dapp}, map[uuid.UUID]*models.TrendScore{dapp.ID: score})

	require.NoError(t, fx.svc.EvaluateAll(context.Background()))
	require.Len(t, fx.sink.notifications, 1)
	require.NotNil(t, alert.LastTriggered)
	assert.Equal(t, "Alert: Breakout watch", fx.sink.notifications[0].Title)
	assert.Equal(t, alert.UserID, fx.sink.notifications[0].UserID)

	// Second pass the same day: conditions still hold, no second notification.
	require.NoError(t, fx.svc.EvaluateAll(context.Background()))
	assert.Len(t, fx.sink.notifications, 1)
}

func TestEvaluateAllRetriggersNextDay(t *testing.T) {
	dapp, score := scoredDapp("Uniswap", types.CategoryDEX, []types.ChainID{types.ChainEthereum},
		&models.TrendScore{WalletGrowth7d: 60, TrendScore: 80, Signal: types.SignalBreakout})
	yesterday := testToday.AddDate(0, 0, -1).Add(23 * time.Hour)
	alert := &models.Alert{
		ID:            uuid.New(),
		UserID:        uuid.New(),
		Name:          "Breakout watch",
		Type:          types.AlertTypeBreakout,
		IsActive:      true,
		LastTriggered: &yesterday,
	}

	fx := newAlertFixture(t, []*models.Alert{alert},
		[]*models.Dapp{dapp}, map[uuid.UUID]*models.TrendScore{dapp.ID: score})

	// Triggered yesterday at 23:00, evaluated today at 09:00: the calendar
	// day changed, so the alert fires again.
	require.NoError(t, fx.svc.EvaluateAll(context.Background()))
	require.Len(t, fx.sink.notifications, 1)
	assert.True(t, alert.LastTriggered.After(yesterday))
}

func TestEvaluateAllNoMatchesNoTrigger(t *testing.T) {
	dapp, score := scoredDapp("Uniswap", types.CategoryDEX, []types.ChainID{types.ChainEthereum},
		&models.TrendScore{Signal: types.SignalDormant})
	alert := &models.Alert{
		ID:       uuid.New(),
		UserID:   uuid.New(),
		Name:     "Breakout watch",
		Type:     types.AlertTypeBreakout,
		IsActive: true,
		Conditions: models.AlertConditions{
			Signal: ptr(types.SignalBreakout),
		},
	}

	fx := newAlertFixture(t, []*models.Alert{alert},
		[]*models.Dapp{dapp}, map[uuid.UUID]*models.TrendScore{dapp.ID: score})

	require.NoError(t, fx.svc.EvaluateAll(context.Background()))
	assert.Empty(t, fx.sink.notifications)
	assert.Nil(t, alert.LastTriggered)
}

func TestEvaluateAllIsolatesSinkFailures(t *testing.T) {
	dapp, score := scoredDapp("Uniswap", types.CategoryDEX, []types.ChainID{types.ChainEthereum},
		&models.TrendScore{WalletGrowth7d: 60, TrendScore: 80, Signal: types.SignalBreakout})

	broken := &models.Alert{ID: uuid.New(), UserID: uuid.New(), Name: "Broken", Type: types.AlertTypeCustom, IsActive: true}
	healthy := &models.Alert{ID: uuid.New(), UserID: uuid.New(), Name: "Healthy", Type: types.AlertTypeCustom, IsActive: true}

	fx := newAlertFixture(t, []*models.Alert{broken, healthy},
		[]*models.Dapp{dapp}, map[uuid.UUID]*models.TrendScore{dapp.ID: score})
	fx.sink.failForAlert = broken.ID

	require.NoError(t, fx.svc.EvaluateAll(context.Background()))

	// The healthy alert fires despite the broken one.
	require.Len(t, fx.sink.notifications, 1)
	assert.Equal(t, healthy.ID, fx.sink.notifications[0].AlertID)

	// The failed alert keeps lastTriggered unset so a later pass the same
	// day can retry it.
	assert.Nil(t, broken.LastTriggered)
	assert.NotNil(t, healthy.LastTriggered)
}

func TestEvaluateAllPropagatesListFailure(t *testing.T) {
	listErr := errors.New("postgres unreachable")
	alertRepo := &fakeAlertRepo{listErr: listErr}
	svc, err := NewAlertService(&AlertServiceConfig{
		AlertRepo: alertRepo,
		DappRepo:  &fakeDappDir{},
		ScoreRepo: &fakeLatestScores{},
		Sink:      &fakeSink{},
	})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.EvaluateAll(context.Background()), listErr)
}

func TestEvaluateAllSkipsWhenAlreadyRunning(t *testing.T) {
	dapp, score := scoredDapp("Uniswap", types.CategoryDEX, []types.ChainID{types.ChainEthereum},
		&models.TrendScore{Signal: types.SignalBreakout})
	alert := &models.Alert{ID: uuid.New(), UserID: uuid.New(), Name: "Watch", Type: types.AlertTypeCustom, IsActive: true}

	fx := newAlertFixture(t, []*models.Alert{alert},
		[]*models.Dapp{dapp}, map[uuid.UUID]*models.TrendScore{dapp.ID: score})

	require.True(t, fx.svc.Guard().TryStart())
	require.NoError(t, fx.svc.EvaluateAll(context.Background()))
	assert.Empty(t, fx.sink.notifications)

	fx.svc.Guard().Done()
	require.NoError(t, fx.svc.EvaluateAll(context.Background()))
	assert.Len(t, fx.sink.notifications, 1)
}

func TestFormatAlertMessageBreakout(t *testing.T) {
	msg := FormatAlertMessage(types.AlertTypeBreakout, []AlertMatch{{Name: "Uniswap"}})
	assert.Equal(t, "1 dApp has reached BREAKOUT status: Uniswap", msg)

	msg = FormatAlertMessage(types.AlertTypeBreakout, []AlertMatch{{Name: "Uniswap"}, {Name: "Curve"}})
	assert.Equal(t, "2 dApps have reached BREAKOUT status: Uniswap, Curve", msg)
}

func TestFormatAlertMessageGrowthThreshold(t *testing.T) {
	msg := FormatAlertMessage(types.AlertTypeGrowthThreshold, []AlertMatch{
		{Name: "Uniswap", WalletGrowth7d: 42.5},
	})
	assert.Equal(t, "1 dApp matched your growth threshold: Uniswap (+42.5%)", msg)
}

func TestFormatAlertMessageCategorySignal(t *testing.T) {
	msg := FormatAlertMessage(types.AlertTypeCategorySignal, []AlertMatch{
		{Name: "Uniswap", Signal: types.SignalRising},
	})
	assert.Equal(t, "1 dApp in your watched category: Uniswap (RISING)", msg)
}

func TestFormatAlertMessageCapsNamedMatches(t *testing.T) {
	matches := make([]AlertMatch, 7)
	for i := range matches {
		matches[i] = AlertMatch{Name: fmt.Sprintf("Dapp%d", i+1)}
	}

	msg := FormatAlertMessage(types.AlertTypeCustom, matches)
	assert.True(t, strings.HasPrefix(msg, "7 dApps matched your alert conditions: "))
	assert.Contains(t, msg, "Dapp5")
	assert.NotContains(t, msg, "Dapp6")
	assert.NotContains(t, msg, "Dapp7")
}
