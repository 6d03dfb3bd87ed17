package ringtimer

import (
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ringtimer/internal/core/model"
	"ringtimer/internal/core/schedule"
	"ringtimer/internal/core/timeunit"
)

var epoch = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

const interval = 20 * time.Millisecond

func testConfig() model.RingTimerConfig {
	return model.RingTimerConfig{
		CountdownFor:   15 * time.Second,
		WarmUpFor:      3 * time.Second,
		WarningFor:     time.Second,
		UpdateInterval: interval,
	}
}

func newTestEngine(t *testing.T, config model.RingTimerConfig) (*Engine, *schedule.Manual, *logtest.Hook) {
	t.Helper()
	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	clock := schedule.NewManual(epoch)
	engine := New(config, Options{Clock: clock, Logger: logrus.NewEntry(logger)})
	t.Cleanup(engine.Close)
	return engine, clock, hook
}

type recorder struct {
	events []Event
}

func record(engine *Engine) *recorder {
	rec := &recorder{}
	for _, eventType := range []EventType{
		EventTimeDataChanged, EventPhaseChanged, EventInitialized,
		EventPauseTick, EventFinished, EventError,
	} {
		engine.notifier.Listen(eventType, func(event Event) {
			rec.events = append(rec.events, event)
		})
	}
	return rec
}

func (rec *recorder) types() []EventType {
	types := make([]EventType, 0, len(rec.events))
	for _, event := range rec.events {
		types = append(types, event.Type)
	}
	return types
}

func (rec *recorder) count(eventType EventType) int {
	n := 0
	for _, event := range rec.events {
		if event.Type == eventType {
			n++
		}
	}
	return n
}

func (rec *recorder) reset() {
	rec.events = nil
}

func TestInitTimer_BuildsReadyState(t *testing.T) {
	engine, _, _ := newTestEngine(t, testConfig())
	rec := record(engine)

	require.NoError(t, engine.InitTimer())

	assert.Equal(t, []EventType{EventInitialized, EventTimeDataChanged}, rec.types())
	assert.Equal(t, PhaseReady, engine.Phase())
	assert.Equal(t, 2, engine.TimeUnitCount())
	assert.Equal(t, 18*time.Second, engine.CountdownRemaining())
	assert.Equal(t, 3*time.Second, engine.WarmUpRemaining())
	assert.Equal(t, epoch.Add(18*time.Second), engine.RunState().CountdownToTime)
	assert.NotEmpty(t, engine.RunState().RunID)

	units := engine.TimeData()
	assert.Equal(t, int64(15), units[1].Value)
	assert.Equal(t, int64(0), units[0].Value)
	assert.Equal(t, 15*time.Second, units.Sum())
}

func TestInitTimer_UnitCountIgnoresWarmUp(t *testing.T) {
	config := testConfig()
	config.CountdownFor = 50 * time.Second
	config.WarmUpFor = 15 * time.Second
	engine, clock, _ := newTestEngine(t, config)

	require.NoError(t, engine.InitTimer())
	assert.Equal(t, 65*time.Second, engine.CountdownRemaining())
	assert.Equal(t, 2, engine.TimeUnitCount())

	require.True(t, engine.StartTimer())
	clock.Advance(time.Second)
	require.Equal(t, PhaseWarmUp, engine.Phase())
	assert.Equal(t, 2, engine.TimeUnitCount())
	assert.Equal(t, 50*time.Second, engine.TimeData().Sum())
}

func TestInitTimer_AppliesPendingSetters(t *testing.T) {
	engine, _, _ := newTestEngine(t, testConfig())
	engine.SetCountdownFor(125678 * time.Millisecond)
	engine.SetWarmUpFor(0)
	engine.SetWarningFor(5 * time.Second)

	assert.Equal(t, 15*time.Second, engine.Config().CountdownFor, "setters apply on next init")
	require.NoError(t, engine.InitTimer())

	config := engine.Config()
	assert.Equal(t, 125678*time.Millisecond, config.CountdownFor)
	assert.Equal(t, time.Duration(0), config.WarmUpFor)
	assert.Equal(t, 5*time.Second, config.WarningFor)
	assert.Equal(t, interval, config.UpdateInterval)

	units := engine.TimeData()
	require.Len(t, units, 3)
	assert.Equal(t, int64(2), units[2].Value)
	assert.Equal(t, int64(5), units[1].Value)
	assert.Equal(t, int64(678), units[0].Value)
}

func TestInitTimer_RejectsInvalidConfig(t *testing.T) {
	engine, _, _ := newTestEngine(t, testConfig())
	require.NoError(t, engine.InitTimer())
	before := engine.RunState()

	engine.SetWarningFor(-time.Second)
	err := engine.InitTimer()

	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrInvalidConfig))
	assert.Equal(t, before, engine.RunState())
	assert.Equal(t, time.Second, engine.Config().WarningFor)
}

func TestNew_ZeroIntervalFallsBackToDefault(t *testing.T) {
	config := testConfig()
	config.UpdateInterval = 0
	engine, _, _ := newTestEngine(t, config)
	require.NoError(t, engine.InitTimer())
	assert.Equal(t, model.DefaultUpdateInterval, engine.Config().UpdateInterval)
}

func TestNew_NegativeIntervalRejectedAtInit(t *testing.T) {
	config := testConfig()
	config.UpdateInterval = -time.Millisecond
	engine, _, _ := newTestEngine(t, config)
	require.ErrorIs(t, engine.InitTimer(), model.ErrInvalidConfig)
	assert.False(t, engine.StartTimer())
}

func TestStartTimer_RequiresInit(t *testing.T) {
	engine, clock, _ := newTestEngine(t, testConfig())
	assert.False(t, engine.StartTimer())
	assert.Equal(t, PhaseReady, engine.Phase())
	assert.Zero(t, clock.Pending())
}

func TestRun_PhaseOrdering(t *testing.T) {
	engine, clock, _ := newTestEngine(t, testConfig())
	require.NoError(t, engine.InitTimer())
	require.True(t, engine.StartTimer())
	assert.Equal(t, PhaseWarmUp, engine.Phase())

	var observed []Phase
	for elapsed := interval; elapsed < 18*time.Second; elapsed += interval {
		clock.Advance(interval)
		remaining := 18*time.Second - elapsed
		require.Equal(t, remaining, engine.CountdownRemaining())

		phase := engine.Phase()
		switch {
		case remaining > 15*time.Second:
			require.Equal(t, PhaseWarmUp, phase, remaining)
		case remaining > time.Second:
			require.Equal(t, PhaseCountdown, phase, remaining)
		case remaining > interval:
			require.Equal(t, PhaseWarning, phase, remaining)
		default:
			require.Equal(t, PhaseFinished, phase, remaining)
		}
		if len(observed) == 0 || observed[len(observed)-1] != phase {
			observed = append(observed, phase)
		}
	}

	assert.Equal(t, []Phase{PhaseWarmUp, PhaseCountdown, PhaseWarning, PhaseFinished}, observed)
}

func TestRun_WarmUpClampsDisplay(t *testing.T) {
	engine, clock, _ := newTestEngine(t, testConfig())
	require.NoError(t, engine.InitTimer())
	require.True(t, engine.StartTimer())

	clock.Advance(1000 * time.Millisecond)

	assert.Equal(t, PhaseWarmUp, engine.Phase())
	assert.Equal(t, 17*time.Second, engine.CountdownRemaining())
	assert.Equal(t, 2*time.Second, engine.WarmUpRemaining())
	assert.Equal(t, 15*time.Second, engine.TimeData().Sum())

	clock.Advance(2500 * time.Millisecond)

	assert.Equal(t, PhaseCountdown, engine.Phase())
	assert.Equal(t, time.Duration(0), engine.WarmUpRemaining())
	assert.Equal(t, 14500*time.Millisecond, engine.TimeData().Sum())
}

func TestRun_NaturalExpiryResetsAndFinishes(t *testing.T) {
	engine, clock, _ := newTestEngine(t, testConfig())
	require.NoError(t, engine.InitTimer())
	firstRun := engine.RunState().RunID
	rec := record(engine)
	var finishedPhase Phase
	engine.OnFinished(func() { finishedPhase = engine.Phase() })

	require.True(t, engine.StartTimer())
	clock.Advance(18*time.Second - interval)
	assert.Equal(t, PhaseFinished, engine.Phase())
	assert.Zero(t, rec.count(EventFinished))
	for _, unit := range engine.TimeData() {
		assert.Zero(t, unit.Value)
	}

	clock.Advance(interval)

	assert.Equal(t, 1, rec.count(EventFinished))
	assert.Equal(t, PhaseReady, finishedPhase)
	assert.Equal(t, PhaseReady, engine.Phase())
	assert.NotEqual(t, firstRun, engine.RunState().RunID)
	assert.Zero(t, clock.Pending())

	clock.Advance(time.Second)
	assert.Equal(t, 1, rec.count(EventFinished), "loop stays halted after reset")
}

func TestRun_ResetMatchesFreshInit(t *testing.T) {
	engine, clock, _ := newTestEngine(t, testConfig())
	require.NoError(t, engine.InitTimer())
	require.True(t, engine.StartTimer())
	clock.Advance(20 * time.Second)
	require.Equal(t, PhaseReady, engine.Phase())

	fresh, _, _ := newTestEngine(t, testConfig())
	require.NoError(t, fresh.InitTimer())

	assert.Equal(t, fresh.TimeData(), engine.TimeData())
	assert.Equal(t, fresh.TimeUnitCount(), engine.TimeUnitCount())
	assert.Equal(t, fresh.CountdownRemaining(), engine.CountdownRemaining())
	assert.Equal(t, fresh.WarmUpRemaining(), engine.WarmUpRemaining())
}

func TestPause_ResumePreservesRemaining(t *testing.T) {
	engine, clock, _ := newTestEngine(t, testConfig())
	require.NoError(t, engine.InitTimer())
	require.True(t, engine.StartTimer())
	clock.Advance(5010 * time.Millisecond)

	require.True(t, engine.PauseTimer())
	atPause := engine.CountdownRemaining()
	assert.Equal(t, 12990*time.Millisecond, atPause)
	require.True(t, engine.UnPauseTimer())
	clock.Advance(interval)

	assert.Equal(t, PhaseCountdown, engine.Phase())
	assert.InDelta(t, float64(atPause), float64(engine.CountdownRemaining()), float64(interval))
}

func TestPause_FreezesTimeAndPings(t *testing.T) {
	engine, clock, _ := newTestEngine(t, testConfig())
	require.NoError(t, engine.InitTimer())
	require.True(t, engine.StartTimer())
	clock.Advance(5 * time.Second)
	rec := record(engine)

	require.True(t, engine.PauseTimer())
	assert.Equal(t, PhasePaused, engine.Phase())
	assert.Equal(t, PhaseCountdown, engine.PreviousPhase())
	frozen := engine.TimeData()

	clock.Advance(time.Second)

	assert.Equal(t, 50, rec.count(EventPauseTick))
	assert.Zero(t, rec.count(EventTimeDataChanged))
	assert.Equal(t, frozen, engine.TimeData())
	assert.Equal(t, 13*time.Second, engine.CountdownRemaining())

	require.True(t, engine.UnPauseTimer())
	assert.Equal(t, PhaseCountdown, engine.Phase())
	clock.Advance(time.Second)
	assert.Equal(t, 12*time.Second, engine.CountdownRemaining())
	assert.Equal(t, epoch.Add(19*time.Second), engine.RunState().CountdownToTime)
}

func TestPause_RestoresWarmUp(t *testing.T) {
	engine, clock, _ := newTestEngine(t, testConfig())
	require.NoError(t, engine.InitTimer())
	require.True(t, engine.StartTimer())
	clock.Advance(time.Second)

	require.True(t, engine.PauseTimer())
	clock.Advance(10 * time.Second)
	require.True(t, engine.UnPauseTimer())

	assert.Equal(t, PhaseWarmUp, engine.Phase())
	clock.Advance(interval)
	assert.Equal(t, 17*time.Second-interval, engine.CountdownRemaining())
}

func TestCommands_NoOpInWrongPhase(t *testing.T) {
	engine, clock, _ := newTestEngine(t, testConfig())
	require.NoError(t, engine.InitTimer())

	assert.False(t, engine.PauseTimer())
	assert.False(t, engine.UnPauseTimer())
	assert.False(t, engine.StopTimer())
	assert.Equal(t, PhaseReady, engine.Phase())

	require.True(t, engine.StartTimer())
	clock.Advance(4 * time.Second)
	require.Equal(t, PhaseCountdown, engine.Phase())
	deadline := engine.RunState().CountdownToTime
	units := engine.TimeUnitCount()
	rec := record(engine)

	assert.False(t, engine.StartTimer())
	assert.False(t, engine.UnPauseTimer())

	assert.Equal(t, PhaseCountdown, engine.Phase())
	assert.Equal(t, deadline, engine.RunState().CountdownToTime)
	assert.Equal(t, units, engine.TimeUnitCount())
	assert.Zero(t, rec.count(EventPhaseChanged))
	assert.Equal(t, 1, clock.Pending())
}

func TestStop_ZeroesThenResets(t *testing.T) {
	engine, clock, _ := newTestEngine(t, testConfig())
	require.NoError(t, engine.InitTimer())
	require.True(t, engine.StartTimer())
	clock.Advance(6 * time.Second)

	var seen []Phase
	var zeroed bool
	engine.OnTimeDataChanged(func() {
		phase := engine.Phase()
		seen = append(seen, phase)
		if phase == PhaseStopped {
			zeroed = engine.TimeData().Sum() == 0 && engine.CountdownRemaining() == 0
		}
	})
	rec := record(engine)

	require.True(t, engine.StopTimer())
	assert.Equal(t, PhaseStopped, engine.Phase())
	clock.Advance(interval)

	assert.Equal(t, []EventType{
		EventPhaseChanged,
		EventTimeDataChanged,
		EventPhaseChanged,
		EventTimeDataChanged,
		EventFinished,
	}, rec.types())
	assert.Equal(t, []Phase{PhaseStopped, PhaseReady}, seen)
	assert.True(t, zeroed)
	assert.Equal(t, PhaseReady, engine.Phase())
	assert.Equal(t, 15*time.Second, engine.TimeData().Sum())
}

func TestStop_WhilePaused(t *testing.T) {
	engine, clock, _ := newTestEngine(t, testConfig())
	require.NoError(t, engine.InitTimer())
	require.True(t, engine.StartTimer())
	clock.Advance(time.Second)
	require.True(t, engine.PauseTimer())

	finished := 0
	engine.OnFinished(func() { finished++ })
	require.True(t, engine.StopTimer())
	clock.Advance(interval)

	assert.Equal(t, 1, finished)
	assert.Equal(t, PhaseReady, engine.Phase())
}

func TestInitTimer_DuringRunCancelsLoop(t *testing.T) {
	engine, clock, _ := newTestEngine(t, testConfig())
	require.NoError(t, engine.InitTimer())
	require.True(t, engine.StartTimer())
	clock.Advance(time.Second)
	rec := record(engine)

	require.NoError(t, engine.InitTimer())

	assert.Equal(t, []EventType{EventInitialized, EventPhaseChanged, EventTimeDataChanged}, rec.types())
	assert.Equal(t, PhaseReady, engine.Phase())
	assert.Zero(t, clock.Pending())
}

func TestTick_UnknownPhaseHalts(t *testing.T) {
	engine, clock, hook := newTestEngine(t, testConfig())
	require.NoError(t, engine.InitTimer())
	require.True(t, engine.StartTimer())

	var reported error
	engine.OnError(func(err error) { reported = err })

	engine.mu.Lock()
	engine.phase = Phase("drifting")
	engine.mu.Unlock()
	clock.Advance(interval)

	require.Error(t, engine.Err())
	assert.True(t, errors.Is(engine.Err(), ErrUnknownPhase))
	assert.Equal(t, engine.Err(), reported)
	assert.Zero(t, clock.Pending())
	assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)

	require.NoError(t, engine.InitTimer())
	assert.NoError(t, engine.Err())
}

func TestDispatch(t *testing.T) {
	engine, clock, _ := newTestEngine(t, testConfig())
	require.NoError(t, engine.InitTimer())

	changed, err := engine.Dispatch("init")
	require.NoError(t, err)
	assert.False(t, changed)

	changed, err = engine.Dispatch("start")
	require.NoError(t, err)
	assert.True(t, changed)
	clock.Advance(4 * time.Second)

	changed, err = engine.Dispatch("pause")
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, PhasePaused, engine.Phase())

	changed, err = engine.Dispatch("unPause")
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = engine.Dispatch("stop")
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = engine.Dispatch("stopped")
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, PhaseStopped, engine.Phase())

	_, err = engine.Dispatch("unpause")
	assert.ErrorIs(t, err, ErrUnknownAction)
}

func TestSubscribe_ReceivesEventsAndCloses(t *testing.T) {
	engine, clock, _ := newTestEngine(t, testConfig())
	events := engine.Subscribe(16)

	require.NoError(t, engine.InitTimer())
	require.True(t, engine.StartTimer())
	clock.Advance(interval)

	var types []EventType
	for len(events) > 0 {
		event := <-events
		types = append(types, event.Type)
		assert.NotEmpty(t, event.RunID)
	}
	assert.Equal(t, []EventType{EventInitialized, EventTimeDataChanged, EventPhaseChanged, EventTimeDataChanged}, types)

	engine.Close()
	_, open := <-events
	assert.False(t, open)
	assert.Zero(t, clock.Pending())
	assert.False(t, engine.StartTimer())
}

func TestUnsubscribe(t *testing.T) {
	engine, _, _ := newTestEngine(t, testConfig())
	calls := 0
	unsubscribe := engine.OnInitialized(func() { calls++ })

	require.NoError(t, engine.InitTimer())
	unsubscribe()
	unsubscribe()
	require.NoError(t, engine.InitTimer())

	assert.Equal(t, 1, calls)
	assert.Zero(t, engine.notifier.ListenerCount(EventInitialized))
}

func TestTimeData_IsSnapshot(t *testing.T) {
	engine, _, _ := newTestEngine(t, testConfig())
	require.NoError(t, engine.InitTimer())

	units := engine.TimeData()
	units[1].Value = 99

	assert.Equal(t, int64(15), engine.TimeData()[1].Value)
}

func TestRealClock_ShortRunFinishes(t *testing.T) {
	logger, _ := logtest.NewNullLogger()
	engine := New(model.RingTimerConfig{
		CountdownFor:   60 * time.Millisecond,
		WarningFor:     20 * time.Millisecond,
		UpdateInterval: 5 * time.Millisecond,
	}, Options{Logger: logrus.NewEntry(logger)})
	defer engine.Close()

	finished := make(chan struct{}, 1)
	engine.OnFinished(func() { finished <- struct{}{} })
	require.NoError(t, engine.InitTimer())
	require.True(t, engine.StartTimer())

	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("run did not finish")
	}
	assert.Equal(t, PhaseReady, engine.Phase())
	assert.Equal(t, timeunit.NewTable().Prune(1)[0].Label, engine.TimeData()[0].Label)
}
