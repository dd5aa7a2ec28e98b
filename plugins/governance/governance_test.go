package governance

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/gohornet/agora/pkg/governance/test"
	"github.com/gohornet/agora/pkg/metrics"
	"github.com/gohornet/agora/pkg/model/parameter"
	"github.com/gohornet/agora/pkg/model/poll"
	"github.com/gohornet/agora/pkg/model/proposal"
	"github.com/gohornet/agora/pkg/restapi"
)

type apiTestEnv struct {
	t    *testing.T
	env  *test.GovernanceTestEnv
	echo *echo.Echo
}

func newAPITestEnv(t *testing.T, voteLimiter echo.MiddlewareFunc) *apiTestEnv {
	env := test.NewGovernanceTestEnv(t)

	e := echo.New()
	e.HTTPErrorHandler = restapi.ErrorHandler(nil)

	deps = dependencies{
		Engine:         env.Engine(),
		Echo:           e,
		RestAPIMetrics: &metrics.RestAPIMetrics{},
	}

	if voteLimiter == nil {
		voteLimiter = newVoteLimiter(0, 0)
	}
	setupRoutes(e.Group("/api/governance/v1"), voteLimiter)

	return &apiTestEnv{t: t, env: env, echo: e}
}

func (a *apiTestEnv) request(method string, route string, identity string, body interface{}, result interface{}) int {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(a.t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, "/api/governance/v1"+route, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if identity != "" {
		req.Header.Set(restapi.HeaderIdentity, identity)
	}

	rec := httptest.NewRecorder()
	a.echo.ServeHTTP(rec, req)

	if result != nil && rec.Code < http.StatusBadRequest {
		require.NoError(a.t, json.Unmarshal(rec.Body.Bytes(), result))
	}
	return rec.Code
}

func TestParameterRoutes(t *testing.T) {
	api := newAPITestEnv(t, nil)

	parameters := &ParametersResponse{}
	require.Equal(t, http.StatusOK, api.request(http.MethodGet, RouteParameters, "", nil, parameters))
	require.NotEmpty(t, parameters.Categories[parameter.CategoryUI])

	p := &parameter.Parameter{}
	require.Equal(t, http.StatusOK, api.request(http.MethodGet, "/parameters/ui/colorScheme", "", nil, p))
	require.Equal(t, "blue", p.Current)

	require.Equal(t, http.StatusNotFound, api.request(http.MethodGet, "/parameters/ui/missing", "", nil, nil))
}

func TestPollRoutes(t *testing.T) {
	api := newAPITestEnv(t, nil)

	created := &poll.Poll{}
	require.Equal(t, http.StatusCreated, api.request(http.MethodPost, RoutePolls, "alice", &CreatePollRequest{
		Category: parameter.CategoryUI,
		Name:     parameter.NameColorScheme,
		Options:  []string{"Blue", "Green"},
	}, created))
	require.True(t, created.IsParameterPoll)
	require.Equal(t, "alice", created.CreatedBy)

	voteRoute := "/polls/" + created.ID + "/votes"

	voted := &PollResultResponse{}
	require.Equal(t, http.StatusOK, api.request(http.MethodPost, voteRoute, "alice", &VoteRequest{OptionIndex: 1}, voted))
	require.Equal(t, 1, voted.Poll.Options[1].Votes)
	require.Equal(t, "Green", voted.Result.LeadingOption)

	// a single unanimous vote decides the poll right away
	require.True(t, voted.Poll.Executed)
	require.Equal(t, "green", api.env.Current(parameter.CategoryUI, parameter.NameColorScheme))

	require.Equal(t, http.StatusConflict, api.request(http.MethodPost, voteRoute, "alice", &VoteRequest{OptionIndex: 0}, nil))
	require.Equal(t, http.StatusForbidden, api.request(http.MethodPost, voteRoute, "", &VoteRequest{OptionIndex: 0}, nil))
	require.Equal(t, http.StatusBadRequest, api.request(http.MethodPost, voteRoute, "bob", &VoteRequest{OptionIndex: 5}, nil))
	require.Equal(t, http.StatusNotFound, api.request(http.MethodPost, "/polls/missing/votes", "bob", &VoteRequest{OptionIndex: 0}, nil))

	result := &PollResultResponse{}
	require.Equal(t, http.StatusOK, api.request(http.MethodGet, "/polls/"+created.ID+"/result", "", nil, result))
	require.True(t, result.Result.ConsensusReached)

	history := &HistoryResponse{}
	require.Equal(t, http.StatusOK, api.request(http.MethodGet, RouteHistory, "", nil, history))
	require.Len(t, history.Records, 1)
	require.Equal(t, "green", history.Records[0].NewValue)

	require.Equal(t, http.StatusNoContent, api.request(http.MethodDelete, RouteHistory, "", nil, nil))
	require.Empty(t, api.env.Engine().ChangeHistory())

	require.Equal(t, http.StatusConflict, api.request(http.MethodPost, "/polls/"+created.ID+"/execute", "", nil, nil))

	require.Equal(t, http.StatusNoContent, api.request(http.MethodDelete, "/polls/"+created.ID, "", nil, nil))
	require.Equal(t, http.StatusNotFound, api.request(http.MethodGet, "/polls/"+created.ID, "", nil, nil))
}

func TestPollCreationRoutes(t *testing.T) {
	api := newAPITestEnv(t, nil)

	created := &poll.Poll{}
	require.Equal(t, http.StatusCreated, api.request(http.MethodPost, RoutePolls, "alice", &CreatePollRequest{
		Title:   "Lunch",
		Options: []string{"Pizza", "Pasta"},
	}, created))
	require.False(t, created.IsParameterPoll)

	polls := &PollsResponse{}
	require.Equal(t, http.StatusOK, api.request(http.MethodGet, RoutePolls+"?title=Lunch", "", nil, polls))
	require.Len(t, polls.Polls, 1)
	require.Equal(t, created.ID, polls.Polls[0].ID)

	require.Equal(t, http.StatusNotFound, api.request(http.MethodPost, RoutePolls, "alice", &CreatePollRequest{
		Category: parameter.CategoryUI,
		Name:     "missing",
	}, nil))
}

func TestPreviewRoutes(t *testing.T) {
	api := newAPITestEnv(t, nil)

	p := api.env.ParameterPoll(parameter.CategoryUI, parameter.NameColorScheme, time.Hour, "Blue", "Dark")

	preview := &PreviewResponse{}
	require.Equal(t, http.StatusOK, api.request(http.MethodPost, "/polls/"+p.ID+"/preview", "", &VoteRequest{OptionIndex: 1}, preview))
	require.True(t, preview.Active)
	require.Equal(t, "dark", preview.Preview.Value)
	require.Equal(t, "blue", preview.Preview.Original)

	require.Equal(t, http.StatusNoContent, api.request(http.MethodDelete, RoutePreview, "", nil, nil))

	preview = &PreviewResponse{}
	require.Equal(t, http.StatusOK, api.request(http.MethodGet, RoutePreview, "", nil, preview))
	require.False(t, preview.Active)
	require.Equal(t, "blue", api.env.Current(parameter.CategoryUI, parameter.NameColorScheme))
}

func TestProposalRoutes(t *testing.T) {
	api := newAPITestEnv(t, nil)

	request := &SubmitProposalRequest{
		Title:    "Font",
		Category: parameter.CategoryUI,
		Param:    "lineHeight",
		Options:  []string{"serif", "sans"},
	}

	require.Equal(t, http.StatusForbidden, api.request(http.MethodPost, RouteProposals, "", request, nil))

	submitted := &proposal.Proposal{}
	require.Equal(t, http.StatusCreated, api.request(http.MethodPost, RouteProposals, "carol", request, submitted))
	require.Equal(t, proposal.StatusPending, submitted.Status)

	approveRoute := "/proposals/" + submitted.ID + "/approve"
	require.Equal(t, http.StatusForbidden, api.request(http.MethodPost, approveRoute, "carol", nil, nil))

	reviewed := &proposal.Proposal{}
	require.Equal(t, http.StatusOK, api.request(http.MethodPost, approveRoute, "admin", nil, reviewed))
	require.Equal(t, 1, reviewed.Approvals)

	proposals := &ProposalsResponse{}
	require.Equal(t, http.StatusOK, api.request(http.MethodGet, RouteProposals+"?creator=carol", "", nil, proposals))
	require.Len(t, proposals.Proposals, 1)

	require.Equal(t, http.StatusNotFound, api.request(http.MethodGet, "/proposals/missing", "", nil, nil))
}

func TestLoginRoutes(t *testing.T) {
	api := newAPITestEnv(t, nil)

	require.Equal(t, http.StatusForbidden, api.request(http.MethodPost, RouteLogin, "", nil, nil))

	loggedIn := &LoginResponse{}
	require.Equal(t, http.StatusOK, api.request(http.MethodPost, RouteLogin, "alice", nil, loggedIn))
	require.Equal(t, "alice", loggedIn.Identity)

	profile := &ProfileResponse{}
	require.Equal(t, http.StatusOK, api.request(http.MethodGet, RouteProfile, "alice", nil, profile))
	require.NotNil(t, profile.Profile)
	require.Greater(t, profile.Weight, 0.0)
}

func TestVoteLimiter(t *testing.T) {
	api := newAPITestEnv(t, newVoteLimiter(1, 1))

	p := api.env.ParameterPoll(parameter.CategoryUI, parameter.NameColorScheme, time.Hour, "Blue", "Dark", "Green")
	voteRoute := "/polls/" + p.ID + "/votes"

	require.Equal(t, http.StatusOK, api.request(http.MethodPost, voteRoute, "alice", &VoteRequest{OptionIndex: 0}, nil))
	require.Equal(t, http.StatusTooManyRequests, api.request(http.MethodPost, voteRoute, "bob", &VoteRequest{OptionIndex: 0}, nil))
	require.EqualValues(t, 1, deps.RestAPIMetrics.RateLimitedVotes.Load())
}
