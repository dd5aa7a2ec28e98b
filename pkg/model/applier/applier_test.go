package applier

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gohornet/agora/pkg/model/consensus"
	"github.com/gohornet/agora/pkg/model/history"
	"github.com/gohornet/agora/pkg/model/parameter"
	"github.com/gohornet/agora/pkg/model/poll"
	"github.com/gohornet/agora/pkg/model/weight"
	"github.com/iotaledger/hive.go/events"
	"github.com/iotaledger/hive.go/kvstore"
	"github.com/iotaledger/hive.go/kvstore/mapdb"
)

const testPreviewDuration = 50 * time.Millisecond

type testEnv struct {
	store    kvstore.KVStore
	registry *parameter.Registry
	polls    *poll.Store
	ledger   *history.Ledger
	applier  *Applier
}

func newTestEnv(t *testing.T) *testEnv {
	store := mapdb.NewMapDB()

	registry, err := parameter.NewRegistry(store)
	require.NoError(t, err)

	polls := poll.NewStore(store)
	ledger := history.NewLedger(store)

	return &testEnv{
		store:    store,
		registry: registry,
		polls:    polls,
		ledger:   ledger,
		applier:  New(registry, polls, ledger, WithPreviewDuration(testPreviewDuration)),
	}
}

func (env *testEnv) addPoll(t *testing.T, category string, name string, options ...*poll.Option) *poll.Poll {
	p, err := env.polls.Add(&poll.Poll{
		Title:             "Parameter poll: " + name,
		Options:           options,
		EndDate:           time.Now().Add(time.Hour),
		IsParameterPoll:   true,
		ParameterCategory: category,
		ParameterName:     name,
	})
	require.NoError(t, err)
	return p
}

func (env *testEnv) current(t *testing.T, category string, name string) string {
	value, err := env.registry.Current(category, name)
	require.NoError(t, err)
	return value
}

func TestApplyColorScheme(t *testing.T) {
	env := newTestEnv(t)

	var changes []*Change
	closure := events.NewClosure(func(change *Change) { changes = append(changes, change) })
	env.applier.Events.ParameterChanged.Attach(closure)
	defer env.applier.Events.ParameterChanged.Detach(closure)

	p := env.addPoll(t, parameter.CategoryUI, parameter.NameColorScheme, &poll.Option{Text: "Blue", Votes: 3}, &poll.Option{Text: "Green", Votes: 7})

	result := consensus.Resolve(p, weight.SchemeEqual, consensus.AlgorithmMajority)
	require.Equal(t, "Green", result.LeadingOption)
	require.True(t, result.ConsensusReached)

	applied, err := env.applier.Apply(p, result)
	require.NoError(t, err)
	require.True(t, applied)

	require.Equal(t, "green", env.current(t, parameter.CategoryUI, parameter.NameColorScheme))

	records := env.ledger.List()
	require.Len(t, records, 1)
	require.Equal(t, "blue", records[0].OldValue)
	require.Equal(t, "green", records[0].NewValue)
	require.Equal(t, p.ID, records[0].PollID)
	require.Equal(t, "Color Scheme", records[0].DisplayName)

	stored, err := env.polls.Poll(p.ID)
	require.NoError(t, err)
	require.True(t, stored.Executed)

	require.Len(t, changes, 1)

	// every further pass is a no-op, also with the stale poll copy
	for i := 0; i < 3; i++ {
		applied, err = env.applier.Apply(p, result)
		require.NoError(t, err)
		require.False(t, applied)
		applied, err = env.applier.Apply(stored, result)
		require.NoError(t, err)
		require.False(t, applied)
	}
	require.Len(t, env.ledger.List(), 1)
	require.Len(t, changes, 1)

	// the new value was persisted
	reloaded, err := parameter.NewRegistry(env.store)
	require.NoError(t, err)
	value, err := reloaded.Current(parameter.CategoryUI, parameter.NameColorScheme)
	require.NoError(t, err)
	require.Equal(t, "green", value)
}

func TestApplyTie(t *testing.T) {
	env := newTestEnv(t)

	p := env.addPoll(t, parameter.CategoryUI, parameter.NameColorScheme, &poll.Option{Text: "Blue", Votes: 5}, &poll.Option{Text: "Green", Votes: 5})
	result := consensus.Resolve(p, weight.SchemeEqual, consensus.AlgorithmMajority)
	require.True(t, result.IsTie)

	applied, err := env.applier.Apply(p, result)
	require.NoError(t, err)
	require.False(t, applied)

	require.Equal(t, "blue", env.current(t, parameter.CategoryUI, parameter.NameColorScheme))
	require.Empty(t, env.ledger.List())

	stored, err := env.polls.Poll(p.ID)
	require.NoError(t, err)
	require.False(t, stored.Executed)
}

func TestApplyNoOps(t *testing.T) {
	env := newTestEnv(t)

	// unknown parameter
	p := env.addPoll(t, parameter.CategoryUI, "unknown", &poll.Option{Text: "A", Votes: 1}, &poll.Option{Text: "B"})
	applied, err := env.applier.Apply(p, consensus.Resolve(p, weight.SchemeEqual, consensus.AlgorithmMajority))
	require.NoError(t, err)
	require.False(t, applied)

	// unmapped label that is not an option
	p = env.addPoll(t, parameter.CategoryUI, parameter.NameColorScheme, &poll.Option{Text: "Teal", Votes: 1}, &poll.Option{Text: "Blue"})
	applied, err = env.applier.Apply(p, consensus.Resolve(p, weight.SchemeEqual, consensus.AlgorithmMajority))
	require.NoError(t, err)
	require.False(t, applied)

	// value already current
	p = env.addPoll(t, parameter.CategoryUI, parameter.NameColorScheme, &poll.Option{Text: "Blue", Votes: 1}, &poll.Option{Text: "Green"})
	applied, err = env.applier.Apply(p, consensus.Resolve(p, weight.SchemeEqual, consensus.AlgorithmMajority))
	require.NoError(t, err)
	require.False(t, applied)

	require.Empty(t, env.ledger.List())
	require.Len(t, env.polls.PendingParameterPolls(), 3)

	// plain polls cannot be applied
	plain, err := env.polls.Add(&poll.Poll{Title: "plain", Options: []*poll.Option{{Text: "A", Votes: 1}, {Text: "B"}}, EndDate: time.Now().Add(time.Hour)})
	require.NoError(t, err)
	_, err = env.applier.Apply(plain, consensus.Resolve(plain, weight.SchemeEqual, consensus.AlgorithmMajority))
	require.ErrorIs(t, err, ErrNotParameterPoll)
}

func TestApplyHooks(t *testing.T) {
	env := newTestEnv(t)

	var hooked map[string]string
	env.applier.RegisterHook(parameter.CategoryUI, func(category string, values map[string]string) {
		require.Equal(t, parameter.CategoryUI, category)
		hooked = values
	})

	var fallbackCategories []string
	closure := events.NewClosure(func(category string, _ map[string]string) {
		fallbackCategories = append(fallbackCategories, category)
	})
	env.applier.Events.CategoryApplied.Attach(closure)
	defer env.applier.Events.CategoryApplied.Detach(closure)

	p := env.addPoll(t, parameter.CategoryUI, parameter.NameLayout, &poll.Option{Text: "Wide", Votes: 2}, &poll.Option{Text: "Compact", Votes: 1})
	applied, err := env.applier.Apply(p, consensus.Resolve(p, weight.SchemeEqual, consensus.AlgorithmMajority))
	require.NoError(t, err)
	require.True(t, applied)
	require.Equal(t, "wide", hooked[parameter.NameLayout])
	require.Empty(t, fallbackCategories)

	p = env.addPoll(t, parameter.CategoryAds, "frequency", &poll.Option{Text: "Low", Votes: 2}, &poll.Option{Text: "High", Votes: 1})
	applied, err = env.applier.Apply(p, consensus.Resolve(p, weight.SchemeEqual, consensus.AlgorithmMajority))
	require.NoError(t, err)
	require.True(t, applied)
	require.Equal(t, []string{parameter.CategoryAds}, fallbackCategories)

	hooked = nil
	fallbackCategories = nil
	env.applier.ApplyAll()
	require.NotNil(t, hooked)
	require.Len(t, fallbackCategories, len(env.registry.Categories())-1)
}

func TestPreviewRestores(t *testing.T) {
	env := newTestEnv(t)

	ended := make(chan *Preview, 1)
	closure := events.NewClosure(func(p *Preview) { ended <- p })
	env.applier.Events.PreviewEnded.Attach(closure)
	defer env.applier.Events.PreviewEnded.Detach(closure)

	preview, err := env.applier.Preview(parameter.CategoryUI, parameter.NameColorScheme, "green", "")
	require.NoError(t, err)
	require.Equal(t, "blue", preview.Original)
	require.Equal(t, "green", env.current(t, parameter.CategoryUI, parameter.NameColorScheme))

	active, exists := env.applier.ActivePreview()
	require.True(t, exists)
	require.Equal(t, "green", active.Value)

	// previews are not persisted
	require.Equal(t, "blue", env.applier.CommittedSnapshot()[parameter.CategoryUI][parameter.NameColorScheme])

	select {
	case p := <-ended:
		require.Equal(t, "green", p.Value)
	case <-time.After(5 * time.Second):
		t.Fatal("preview did not expire")
	}

	require.Equal(t, "blue", env.current(t, parameter.CategoryUI, parameter.NameColorScheme))
	_, exists = env.applier.ActivePreview()
	require.False(t, exists)
	require.Empty(t, env.ledger.List())
}

func TestPreviewSupersede(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.applier.Preview(parameter.CategoryUI, parameter.NameColorScheme, "green", "")
	require.NoError(t, err)
	_, err = env.applier.Preview(parameter.CategoryUI, parameter.NameColorScheme, "purple", "")
	require.NoError(t, err)

	// the original is the committed value, not the first preview
	active, exists := env.applier.ActivePreview()
	require.True(t, exists)
	require.Equal(t, "blue", active.Original)

	_, err = env.applier.Preview(parameter.CategoryUI, parameter.NameLayout, "wide", "")
	require.NoError(t, err)
	require.Equal(t, "blue", env.current(t, parameter.CategoryUI, parameter.NameColorScheme))
	require.Equal(t, "wide", env.current(t, parameter.CategoryUI, parameter.NameLayout))

	require.Eventually(t, func() bool {
		value, err := env.registry.Current(parameter.CategoryUI, parameter.NameLayout)
		return err == nil && value == "standard"
	}, 5*time.Second, 10*time.Millisecond)

	_, err = env.applier.Preview(parameter.CategoryUI, parameter.NameColorScheme, "pink", "")
	require.ErrorIs(t, err, parameter.ErrInvalidValue)
	_, err = env.applier.Preview(parameter.CategoryUI, "unknown", "x", "")
	require.ErrorIs(t, err, parameter.ErrParameterNotFound)
}

func TestApplyDuringPreview(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.applier.Preview(parameter.CategoryUI, parameter.NameColorScheme, "green", "")
	require.NoError(t, err)
	_, err = env.applier.Preview(parameter.CategoryUI, parameter.NameLayout, "wide", "")
	require.NoError(t, err)

	p := env.addPoll(t, parameter.CategoryUI, parameter.NameFontSize, &poll.Option{Text: "Large", Votes: 2}, &poll.Option{Text: "Small"})
	applied, err := env.applier.Apply(p, consensus.Resolve(p, weight.SchemeEqual, consensus.AlgorithmMajority))
	require.NoError(t, err)
	require.True(t, applied)

	// the running layout preview did not leak into the persisted values
	reloaded, err := parameter.NewRegistry(env.store)
	require.NoError(t, err)
	layout, err := reloaded.Current(parameter.CategoryUI, parameter.NameLayout)
	require.NoError(t, err)
	require.Equal(t, "standard", layout)

	// committing the previewed parameter ends the preview and keeps the value
	p = env.addPoll(t, parameter.CategoryUI, parameter.NameLayout, &poll.Option{Text: "Wide", Votes: 2}, &poll.Option{Text: "Compact"})
	applied, err = env.applier.Apply(p, consensus.Resolve(p, weight.SchemeEqual, consensus.AlgorithmMajority))
	require.NoError(t, err)
	require.True(t, applied)

	_, exists := env.applier.ActivePreview()
	require.False(t, exists)

	time.Sleep(2 * testPreviewDuration)
	require.Equal(t, "wide", env.current(t, parameter.CategoryUI, parameter.NameLayout))
	require.Equal(t, "blue", env.current(t, parameter.CategoryUI, parameter.NameColorScheme))

	records := env.ledger.List()
	require.Len(t, records, 2)
	require.Equal(t, "standard", records[0].OldValue)
	require.Equal(t, "wide", records[0].NewValue)
}

func TestShutdownRevertsPreview(t *testing.T) {
	env := newTestEnv(t)
	env.applier = New(env.registry, env.polls, env.ledger, WithPreviewDuration(time.Hour))

	_, err := env.applier.Preview(parameter.CategoryUI, parameter.NameColorScheme, "dark", "")
	require.NoError(t, err)

	env.applier.Shutdown()
	require.Equal(t, "blue", env.current(t, parameter.CategoryUI, parameter.NameColorScheme))
}

func TestCancelPollPreview(t *testing.T) {
	env := newTestEnv(t)
	env.applier = New(env.registry, env.polls, env.ledger, WithPreviewDuration(time.Hour))

	_, err := env.applier.Preview(parameter.CategoryUI, parameter.NameColorScheme, "green", "poll-a")
	require.NoError(t, err)

	require.False(t, env.applier.CancelPollPreview("poll-b"))
	require.Equal(t, "green", env.current(t, parameter.CategoryUI, parameter.NameColorScheme))

	require.True(t, env.applier.CancelPollPreview("poll-a"))
	require.Equal(t, "blue", env.current(t, parameter.CategoryUI, parameter.NameColorScheme))
	_, exists := env.applier.ActivePreview()
	require.False(t, exists)

	require.False(t, env.applier.CancelPollPreview("poll-a"))
}

func TestPreviewExpiresOnClock(t *testing.T) {
	env := newTestEnv(t)

	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	env.applier = New(env.registry, env.polls, env.ledger, WithPreviewDuration(time.Hour), WithClock(func() time.Time { return now }))

	var ended []*Preview
	closure := events.NewClosure(func(p *Preview) { ended = append(ended, p) })
	env.applier.Events.PreviewEnded.Attach(closure)
	defer env.applier.Events.PreviewEnded.Detach(closure)

	preview, err := env.applier.Preview(parameter.CategoryUI, parameter.NameLayout, "wide", "")
	require.NoError(t, err)
	require.Equal(t, now.Add(time.Hour), preview.ExpiresAt)

	now = now.Add(59 * time.Minute)
	require.False(t, env.applier.ExpirePreview())
	_, exists := env.applier.ActivePreview()
	require.True(t, exists)

	now = now.Add(time.Minute)
	_, exists = env.applier.ActivePreview()
	require.False(t, exists)
	require.Equal(t, "standard", env.current(t, parameter.CategoryUI, parameter.NameLayout))
	require.Len(t, ended, 1)

	_, err = env.applier.Preview(parameter.CategoryUI, parameter.NameLayout, "compact", "")
	require.NoError(t, err)
	now = now.Add(2 * time.Hour)
	require.True(t, env.applier.ExpirePreview())
	require.Equal(t, "standard", env.current(t, parameter.CategoryUI, parameter.NameLayout))
	require.Len(t, ended, 2)
}
