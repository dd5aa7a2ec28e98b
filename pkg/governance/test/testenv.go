package test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gohornet/agora/pkg/governance"
	"github.com/gohornet/agora/pkg/model/consensus"
	"github.com/gohornet/agora/pkg/model/poll"
	"github.com/iotaledger/hive.go/kvstore"
	"github.com/iotaledger/hive.go/kvstore/mapdb"
	"github.com/iotaledger/hive.go/syncutils"
)

const (
	PreviewDuration = 50 * time.Millisecond
)

var (
	GenesisTime = time.Date(2022, 3, 21, 12, 0, 0, 0, time.UTC)
)

// GovernanceTestEnv runs an engine on an in-memory store with a clock that only moves when told to.
type GovernanceTestEnv struct {
	t *testing.T

	clockLock syncutils.RWMutex
	now       time.Time

	store  kvstore.KVStore
	opts   []governance.Option
	engine *governance.Engine
}

func NewGovernanceTestEnv(t *testing.T, opts ...governance.Option) *GovernanceTestEnv {
	env := &GovernanceTestEnv{
		t:     t,
		now:   GenesisTime,
		store: mapdb.NewMapDB(),
		opts:  opts,
	}
	env.engine = env.newEngine()
	t.Cleanup(env.Cleanup)

	return env
}

func (env *GovernanceTestEnv) newEngine() *governance.Engine {
	opts := append([]governance.Option{
		governance.WithClock(env.Now),
		governance.WithPreviewDuration(PreviewDuration),
	}, env.opts...)

	engine, err := governance.NewEngine(env.store, opts...)
	require.NoError(env.t, err)
	return engine
}

// Restart creates a new engine on the same store.
func (env *GovernanceTestEnv) Restart() {
	env.engine.Shutdown()
	env.engine = env.newEngine()
}

func (env *GovernanceTestEnv) Cleanup() {
	env.engine.Shutdown()
}

func (env *GovernanceTestEnv) Engine() *governance.Engine {
	return env.engine
}

func (env *GovernanceTestEnv) Store() kvstore.KVStore {
	return env.store
}

func (env *GovernanceTestEnv) Now() time.Time {
	env.clockLock.RLock()
	defer env.clockLock.RUnlock()

	return env.now
}

// Advance moves the clock forward.
func (env *GovernanceTestEnv) Advance(d time.Duration) {
	env.clockLock.Lock()
	defer env.clockLock.Unlock()

	env.now = env.now.Add(d)
}

// SetParameter sets and persists a parameter value directly.
func (env *GovernanceTestEnv) SetParameter(category string, name string, value string) {
	_, err := env.engine.Registry().SetCurrent(category, name, value)
	require.NoError(env.t, err)
	require.NoError(env.t, env.engine.Registry().Persist())
}

// Current returns the current value of a parameter.
func (env *GovernanceTestEnv) Current(category string, name string) string {
	value, err := env.engine.Registry().Current(category, name)
	require.NoError(env.t, err)
	return value
}

// ParameterPoll opens a parameter poll with the given option labels, ending after the given duration.
func (env *GovernanceTestEnv) ParameterPoll(category string, name string, duration time.Duration, labels ...string) *poll.Poll {
	endDate := env.Now().Add(duration)
	p, err := env.engine.CreateParameterPoll(category, name, labels, &endDate, "")
	require.NoError(env.t, err)
	return p
}

// Vote lets every voter vote for the option and returns the poll and result after the last vote.
func (env *GovernanceTestEnv) Vote(pollID string, optionIndex int, voters ...string) (*poll.Poll, *consensus.Result) {
	var p *poll.Poll
	var result *consensus.Result
	for _, voter := range voters {
		var err error
		p, result, err = env.engine.SubmitVote(pollID, optionIndex, voter)
		require.NoError(env.t, err)
	}
	return p, result
}

// Poll returns the stored poll.
func (env *GovernanceTestEnv) Poll(pollID string) *poll.Poll {
	p, err := env.engine.Polls().Poll(pollID)
	require.NoError(env.t, err)
	return p
}
