package poll

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/iotaledger/hive.go/events"
	"github.com/iotaledger/hive.go/kvstore"
	"github.com/iotaledger/hive.go/kvstore/mapdb"
)

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time {
	return c.now
}

func newTestStore(t *testing.T) (*Store, kvstore.KVStore, *testClock) {
	clock := &testClock{now: time.Date(2022, 3, 1, 12, 0, 0, 0, time.UTC)}
	store := mapdb.NewMapDB()
	return NewStore(store, WithClock(clock.Now)), store, clock
}

func colorPoll(end time.Time) *Poll {
	return &Poll{
		Title:             "Parameter poll: Color Scheme",
		Options:           []*Option{{Text: "Blue"}, {Text: "Green"}},
		EndDate:           end,
		IsParameterPoll:   true,
		ParameterCategory: "ui",
		ParameterName:     "colorScheme",
		CreatedBy:         "alice",
	}
}

func TestStoreAdd(t *testing.T) {
	s, _, clock := newTestStore(t)

	created, err := s.Add(colorPoll(clock.now.Add(time.Hour)))
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	require.Equal(t, clock.now, created.CreatedAt)

	fetched, err := s.Poll(created.ID)
	require.NoError(t, err)
	require.Equal(t, created, fetched)

	_, err = s.Add(&Poll{Title: "one option", Options: []*Option{{Text: "A"}}})
	require.ErrorIs(t, err, ErrInvalidPoll)

	_, err = s.Add(&Poll{Title: "", Options: []*Option{{Text: "A"}, {Text: "B"}}})
	require.ErrorIs(t, err, ErrInvalidPoll)

	_, err = s.Add(&Poll{Title: "orphan", Options: []*Option{{Text: "A"}, {Text: "B"}}, IsParameterPoll: true})
	require.ErrorIs(t, err, ErrInvalidPoll)

	_, err = s.Add(&Poll{ID: created.ID, Title: "again", Options: []*Option{{Text: "A"}, {Text: "B"}}})
	require.ErrorIs(t, err, ErrDuplicatePoll)

	_, err = s.Poll("missing")
	require.ErrorIs(t, err, ErrPollNotFound)
}

func TestStoreSubmitVote(t *testing.T) {
	s, _, clock := newTestStore(t)

	p, err := s.Add(colorPoll(clock.now.Add(time.Hour)))
	require.NoError(t, err)

	var votes int
	closure := events.NewClosure(func(vote *Vote, updated *Poll) {
		votes++
		require.Equal(t, "alice", vote.Voter)
		require.Equal(t, 1, updated.Options[1].Votes)
	})
	s.Events.VoteSubmitted.Attach(closure)
	defer s.Events.VoteSubmitted.Detach(closure)

	updated, err := s.SubmitVote(p.ID, 1, "alice")
	require.NoError(t, err)
	require.Equal(t, 1, updated.Options[1].Votes)
	require.Equal(t, []string{"alice"}, updated.Voters)
	require.Equal(t, 1, updated.Ballots["alice"])
	require.Equal(t, 1, votes)

	// a second vote of the same identity is rejected and changes nothing
	_, err = s.SubmitVote(p.ID, 0, "alice")
	require.ErrorIs(t, err, ErrAlreadyVoted)

	after, err := s.Poll(p.ID)
	require.NoError(t, err)
	require.Equal(t, updated, after)
	require.Equal(t, 1, votes)

	_, err = s.SubmitVote(p.ID, 2, "bob")
	require.ErrorIs(t, err, ErrInvalidOption)

	_, err = s.SubmitVote(p.ID, -1, "bob")
	require.ErrorIs(t, err, ErrInvalidOption)

	_, err = s.SubmitVote(p.ID, 0, "")
	require.ErrorIs(t, err, ErrLoginRequired)

	_, err = s.SubmitVote("missing", 0, "bob")
	require.ErrorIs(t, err, ErrPollNotFound)

	clock.now = p.EndDate
	_, err = s.SubmitVote(p.ID, 0, "bob")
	require.ErrorIs(t, err, ErrPollEnded)
	require.Equal(t, 1, votes)
}

func TestStoreMarkExecuted(t *testing.T) {
	s, _, clock := newTestStore(t)

	p, err := s.Add(colorPoll(clock.now.Add(time.Hour)))
	require.NoError(t, err)
	require.Len(t, s.PendingParameterPolls(), 1)

	marked, err := s.MarkExecuted(p.ID)
	require.NoError(t, err)
	require.True(t, marked)

	marked, err = s.MarkExecuted(p.ID)
	require.NoError(t, err)
	require.False(t, marked)

	require.Empty(t, s.PendingParameterPolls())

	_, exists := s.ActiveParameterPoll("ui", "colorScheme")
	require.False(t, exists)
}

func TestStoreQueries(t *testing.T) {
	s, _, clock := newTestStore(t)

	running, err := s.Add(colorPoll(clock.now.Add(time.Hour)))
	require.NoError(t, err)

	_, err = s.Add(&Poll{
		Title:     "Favourite mascot",
		Options:   []*Option{{Text: "Cat"}, {Text: "Dog"}},
		EndDate:   clock.now.Add(-time.Hour),
		CreatedBy: "alice",
	})
	require.NoError(t, err)

	active, exists := s.ActiveParameterPoll("ui", "colorScheme")
	require.True(t, exists)
	require.Equal(t, running.ID, active.ID)

	_, exists = s.ActiveParameterPoll("ui", "layout")
	require.False(t, exists)

	require.Equal(t, 1, s.CountActiveByCreator("alice"))
	require.Equal(t, 0, s.CountActiveByCreator("bob"))

	found, err := s.FindByTitle("mascot")
	require.NoError(t, err)
	require.Equal(t, "Favourite mascot", found.Title)

	_, err = s.FindByTitle("unknown")
	require.ErrorIs(t, err, ErrPollNotFound)
}

func TestStoreDelete(t *testing.T) {
	s, _, clock := newTestStore(t)

	first, err := s.Add(colorPoll(clock.now.Add(time.Hour)))
	require.NoError(t, err)
	second, err := s.Add(colorPoll(clock.now.Add(2 * time.Hour)))
	require.NoError(t, err)

	require.NoError(t, s.Delete(first.ID))
	require.ErrorIs(t, s.Delete(first.ID), ErrPollNotFound)

	polls := s.Polls()
	require.Len(t, polls, 1)
	require.Equal(t, second.ID, polls[0].ID)
}

func TestStorePersistence(t *testing.T) {
	s, store, clock := newTestStore(t)

	p, err := s.Add(colorPoll(clock.now.Add(time.Hour)))
	require.NoError(t, err)
	_, err = s.SubmitVote(p.ID, 0, "alice")
	require.NoError(t, err)

	reloaded := NewStore(store, WithClock(clock.Now))
	fetched, err := reloaded.Poll(p.ID)
	require.NoError(t, err)
	require.Equal(t, 1, fetched.Options[0].Votes)
	require.True(t, fetched.HasVoted("alice"))
	require.True(t, fetched.EndDate.Equal(p.EndDate))

	// a corrupted value results in an empty store
	require.NoError(t, store.Set(s.slot.Key(), []byte("[{")))
	require.Empty(t, NewStore(store).Polls())
}

func TestStoreReplaceAll(t *testing.T) {
	s, _, clock := newTestStore(t)

	_, err := s.Add(colorPoll(clock.now.Add(time.Hour)))
	require.NoError(t, err)

	var replaced bool
	closure := events.NewClosure(func() { replaced = true })
	s.Events.PollsReplaced.Attach(closure)
	defer s.Events.PollsReplaced.Detach(closure)

	incoming := colorPoll(clock.now.Add(time.Hour))
	incoming.ID = "remote"
	s.ReplaceAll([]*Poll{incoming, nil, {ID: "remote"}, {ID: ""}})

	require.True(t, replaced)
	polls := s.Polls()
	require.Len(t, polls, 1)
	require.Equal(t, "remote", polls[0].ID)
}
