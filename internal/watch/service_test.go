package watch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alias1177/MarketRegime/internal/metrics"
	"github.com/Alias1177/MarketRegime/internal/regime"
	"github.com/Alias1177/MarketRegime/models"
)

type fakeSource struct {
	err     error
	tickers []string
	bars    int
}

func (f *fakeSource) FetchDataset(_ context.Context, tickers []string, bars int) (models.IndexDataset, error) {
	f.tickers, f.bars = tickers, bars
	if f.err != nil {
		return nil, f.err
	}
	return models.IndexDataset{models.SPY: {{Datetime: "2024-03-01", Close: 100}}}, nil
}

// scriptedClassifier returns the listed regimes in order
type scriptedClassifier struct {
	regimes []regime.Code
	calls   int
}

func (s *scriptedClassifier) Evaluate(models.IndexDataset) (*regime.Evaluation, error) {
	code := s.regimes[s.calls%len(s.regimes)]
	s.calls++
	ev := &regime.Evaluation{Regime: code, Qualified: []regime.Code{}, AsOf: "2024-03-01"}
	if code != regime.None {
		ev.Qualified = []regime.Code{code}
	}
	return ev, nil
}

type fakeStore struct {
	latest    regime.Code
	hasLatest bool
	saved     []*regime.Evaluation
	saveErr   error
}

func (f *fakeStore) SaveEvaluation(_ context.Context, ev *regime.Evaluation) (int64, error) {
	if f.saveErr != nil {
		return 0, f.saveErr
	}
	f.saved = append(f.saved, ev)
	return int64(len(f.saved)), nil
}

func (f *fakeStore) LatestRegime(context.Context) (regime.Code, bool, error) {
	return f.latest, f.hasLatest, nil
}

type change struct {
	from, to regime.Code
}

type fakeNotifier struct {
	changes []change
	err     error
}

func (f *fakeNotifier) NotifyChange(_ context.Context, previous regime.Code, ev *regime.Evaluation) error {
	f.changes = append(f.changes, change{previous, ev.Regime})
	return f.err
}

func TestRunOnce_AlertsOnlyOnChange(t *testing.T) {
	notifier := &fakeNotifier{}
	rec := metrics.NewRecorder(nil)
	source := &fakeSource{}
	svc, err := NewService(Options{
		Source:     source,
		Classifier: &scriptedClassifier{regimes: []regime.Code{regime.Bull, regime.Correction, regime.Correction}},
		Notifier:   notifier,
		Metrics:    rec,
	})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := svc.RunOnce(context.Background())
		require.NoError(t, err)
	}

	assert.Equal(t, []change{{regime.Bull, regime.Correction}}, notifier.changes, "first observation does not alert")
	assert.Equal(t, models.DefaultTickers, source.tickers)
	assert.Equal(t, 286, source.bars)
	assert.Equal(t, 1.0, testutil.ToFloat64(rec.Switches.WithLabelValues("bull", "correction")))
	assert.Equal(t, 2.0, testutil.ToFloat64(rec.Evaluations.WithLabelValues("correction")))
}

func TestRunOnce_UsesStoredRegime(t *testing.T) {
	store := &fakeStore{latest: regime.Bull, hasLatest: true}
	notifier := &fakeNotifier{}
	svc, err := NewService(Options{
		Source:     &fakeSource{},
		Classifier: &scriptedClassifier{regimes: []regime.Code{regime.None}},
		Store:      store,
		Notifier:   notifier,
	})
	require.NoError(t, err)

	ev, err := svc.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, regime.None, ev.Regime)

	require.Len(t, store.saved, 1)
	assert.Equal(t, []change{{regime.Bull, regime.None}}, notifier.changes)
}

func TestRunOnce_FetchFailure(t *testing.T) {
	rec := metrics.NewRecorder(nil)
	svc, err := NewService(Options{
		Source:     &fakeSource{err: errors.New("rate limited")},
		Classifier: &scriptedClassifier{regimes: []regime.Code{regime.Bull}},
		Metrics:    rec,
	})
	require.NoError(t, err)

	_, err = svc.RunOnce(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limited")
	assert.Equal(t, 1.0, testutil.ToFloat64(rec.Failures))
}

func TestRunOnce_PersistFailureSkipsAlert(t *testing.T) {
	notifier := &fakeNotifier{}
	svc, err := NewService(Options{
		Source:     &fakeSource{},
		Classifier: &scriptedClassifier{regimes: []regime.Code{regime.Bear}},
		Store:      &fakeStore{latest: regime.Bull, hasLatest: true, saveErr: errors.New("disk full")},
		Notifier:   notifier,
	})
	require.NoError(t, err)

	ev, err := svc.RunOnce(context.Background())
	require.Error(t, err)
	require.NotNil(t, ev)
	assert.Empty(t, notifier.changes)
}

func TestRunOnce_NotifierError(t *testing.T) {
	store := &fakeStore{latest: regime.Bull, hasLatest: true}
	svc, err := NewService(Options{
		Source:     &fakeSource{},
		Classifier: &scriptedClassifier{regimes: []regime.Code{regime.Bear}},
		Store:      store,
		Notifier:   &fakeNotifier{err: errors.New("blocked")},
	})
	require.NoError(t, err)

	_, err = svc.RunOnce(context.Background())
	require.Error(t, err)
	assert.Len(t, store.saved, 1, "evaluation is stored before alerting")
}

func TestNewService_RequiresCollaborators(t *testing.T) {
	_, err := NewService(Options{})
	assert.Error(t, err)
}

func TestStart(t *testing.T) {
	svc, err := NewService(Options{
		Source:     &fakeSource{},
		Classifier: &scriptedClassifier{regimes: []regime.Code{regime.Bull}},
	})
	require.NoError(t, err)

	assert.Error(t, svc.Start(context.Background(), "not a schedule"))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Start(ctx, DefaultSchedule) }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch loop did not stop")
	}
}

func TestRunOnce_DefaultFetchSize(t *testing.T) {
	src := &fakeSource{}
	svc, err := NewService(Options{Source: src, Classifier: &scriptedClassifier{regimes: []regime.Code{regime.Bull}}})
	require.NoError(t, err)

	_, err = svc.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 286, src.bars, "long average plus the drawdown window")
	assert.Equal(t, models.DefaultTickers, src.tickers)
}
