package governance

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"go.uber.org/dig"
	"golang.org/x/time/rate"

	"github.com/gohornet/agora/pkg/governance"
	"github.com/gohornet/agora/pkg/metrics"
	"github.com/gohornet/agora/pkg/node"
	"github.com/gohornet/agora/pkg/restapi"
	restapiplugin "github.com/gohornet/agora/plugins/restapi"
	"github.com/iotaledger/hive.go/configuration"
)

const (
	// RouteParameters is the route to list all parameters.
	// GET returns the parameters grouped by category.
	RouteParameters = "/parameters"

	// RouteParameter is the route to access a single parameter.
	// GET returns the parameter with its current value.
	RouteParameter = "/parameters/:" + restapi.ParameterCategory + "/:" + restapi.ParameterName

	// RoutePolls is the route to list and create polls.
	// GET returns all polls.
	// POST creates a new poll, a parameter poll if category and name are given.
	RoutePolls = "/polls"

	// RoutePoll is the route to access a single poll.
	// GET returns the poll.
	// DELETE removes the poll.
	RoutePoll = "/polls/:" + restapi.ParameterPollID

	// RoutePollResult is the route to get the current result of a poll.
	// GET returns the poll and its result.
	RoutePollResult = "/polls/:" + restapi.ParameterPollID + "/result"

	// RoutePollVotes is the route to vote on a poll.
	// POST casts the vote of the caller identity.
	RoutePollVotes = "/polls/:" + restapi.ParameterPollID + "/votes"

	// RoutePollExecute is the route to commit the leader of a parameter poll.
	// POST applies the leading value regardless of the execution policy.
	RoutePollExecute = "/polls/:" + restapi.ParameterPollID + "/execute"

	// RoutePollPreview is the route to preview an option of a parameter poll.
	// POST temporarily applies the value the option stands for.
	RoutePollPreview = "/polls/:" + restapi.ParameterPollID + "/preview"

	// RoutePreview is the route to access the running preview.
	// GET returns the running preview.
	// DELETE reverts the running preview.
	RoutePreview = "/preview"

	// RouteProposals is the route to list and submit proposals.
	// GET returns all proposals.
	// POST submits a new proposal of the caller identity.
	RouteProposals = "/proposals"

	// RouteProposal is the route to access a single proposal.
	// GET returns the proposal.
	RouteProposal = "/proposals/:" + restapi.ParameterProposalID

	// RouteProposalApprove is the route to approve a proposal.
	// POST adds the approval of the caller identity, which must be an admin.
	RouteProposalApprove = "/proposals/:" + restapi.ParameterProposalID + "/approve"

	// RouteProposalReject is the route to reject a proposal.
	// POST adds the rejection of the caller identity, which must be an admin.
	RouteProposalReject = "/proposals/:" + restapi.ParameterProposalID + "/reject"

	// RouteHistory is the route to access the parameter change history.
	// GET returns the records, newest first.
	// DELETE clears the history.
	RouteHistory = "/history"

	// RouteLogin is the route to record a login of the caller identity.
	// POST returns the new activity weight.
	RouteLogin = "/login"

	// RouteProfile is the route to get the voting weights of the caller identity.
	// GET returns the weight profile.
	RouteProfile = "/profile"
)

func init() {
	Plugin = &node.Plugin{
		Status: node.StatusEnabled,
		Pluggable: node.Pluggable{
			Name:      "Governance API",
			DepsFunc:  func(cDeps dependencies) { deps = cDeps },
			Configure: configure,
		},
	}
}

var (
	Plugin *node.Plugin
	deps   dependencies
)

type dependencies struct {
	dig.In
	AppConfig      *configuration.Configuration `name:"appConfig"`
	Engine         *governance.Engine
	Echo           *echo.Echo
	RestAPIMetrics *metrics.RestAPIMetrics
}

func configure() {
	routeGroup := deps.Echo.Group("/api/governance/v1")

	voteLimiter := newVoteLimiter(deps.AppConfig.Int(restapiplugin.CfgRestAPIVotesPerMinute), deps.AppConfig.Int(restapiplugin.CfgRestAPIVotesBurst))
	setupRoutes(routeGroup, voteLimiter)
}

// newVoteLimiter returns a middleware that limits the votes per client IP.
func newVoteLimiter(votesPerMinute int, burst int) echo.MiddlewareFunc {
	if votesPerMinute <= 0 {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return next
		}
	}

	store := middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Every(time.Minute / time.Duration(votesPerMinute)),
		Burst:     burst,
		ExpiresIn: 10 * time.Minute,
	})

	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: store,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			deps.RestAPIMetrics.RateLimitedVotes.Inc()
			return errors.WithMessagef(restapi.ErrTooManyRequests, "vote limit reached for %s", identifier)
		},
	})
}

func setupRoutes(routeGroup *echo.Group, voteLimiter echo.MiddlewareFunc) {

	routeGroup.GET(RouteParameters, func(c echo.Context) error {
		return restapi.JSONResponse(c, http.StatusOK, getParameters())
	})

	routeGroup.GET(RouteParameter, func(c echo.Context) error {
		resp, err := getParameter(c)
		if err != nil {
			return err
		}
		return restapi.JSONResponse(c, http.StatusOK, resp)
	})

	routeGroup.GET(RoutePolls, func(c echo.Context) error {
		return restapi.JSONResponse(c, http.StatusOK, getPolls(c))
	})

	routeGroup.POST(RoutePolls, func(c echo.Context) error {
		resp, err := createPoll(c)
		if err != nil {
			return err
		}
		c.Response().Header().Set(echo.HeaderLocation, resp.ID)
		return restapi.JSONResponse(c, http.StatusCreated, resp)
	})

	routeGroup.GET(RoutePoll, func(c echo.Context) error {
		resp, err := getPoll(c)
		if err != nil {
			return err
		}
		return restapi.JSONResponse(c, http.StatusOK, resp)
	})

	routeGroup.DELETE(RoutePoll, func(c echo.Context) error {
		if err := deletePoll(c); err != nil {
			return err
		}
		return c.NoContent(http.StatusNoContent)
	})

	routeGroup.GET(RoutePollResult, func(c echo.Context) error {
		resp, err := getPollResult(c)
		if err != nil {
			return err
		}
		return restapi.JSONResponse(c, http.StatusOK, resp)
	})

	routeGroup.POST(RoutePollVotes, func(c echo.Context) error {
		resp, err := submitVote(c)
		if err != nil {
			return err
		}
		return restapi.JSONResponse(c, http.StatusOK, resp)
	}, voteLimiter)

	routeGroup.POST(RoutePollExecute, func(c echo.Context) error {
		resp, err := executePoll(c)
		if err != nil {
			return err
		}
		return restapi.JSONResponse(c, http.StatusOK, resp)
	})

	routeGroup.POST(RoutePollPreview, func(c echo.Context) error {
		resp, err := previewOption(c)
		if err != nil {
			return err
		}
		return restapi.JSONResponse(c, http.StatusOK, resp)
	})

	routeGroup.GET(RoutePreview, func(c echo.Context) error {
		return restapi.JSONResponse(c, http.StatusOK, getPreview())
	})

	routeGroup.DELETE(RoutePreview, func(c echo.Context) error {
		deps.Engine.Applier().CancelPreview()
		return c.NoContent(http.StatusNoContent)
	})

	routeGroup.GET(RouteProposals, func(c echo.Context) error {
		return restapi.JSONResponse(c, http.StatusOK, getProposals(c))
	})

	routeGroup.POST(RouteProposals, func(c echo.Context) error {
		resp, err := submitProposal(c)
		if err != nil {
			return err
		}
		c.Response().Header().Set(echo.HeaderLocation, resp.ID)
		return restapi.JSONResponse(c, http.StatusCreated, resp)
	})

	routeGroup.GET(RouteProposal, func(c echo.Context) error {
		resp, err := getProposal(c)
		if err != nil {
			return err
		}
		return restapi.JSONResponse(c, http.StatusOK, resp)
	})

	routeGroup.POST(RouteProposalApprove, func(c echo.Context) error {
		resp, err := reviewProposal(c, true)
		if err != nil {
			return err
		}
		return restapi.JSONResponse(c, http.StatusOK, resp)
	})

	routeGroup.POST(RouteProposalReject, func(c echo.Context) error {
		resp, err := reviewProposal(c, false)
		if err != nil {
			return err
		}
		return restapi.JSONResponse(c, http.StatusOK, resp)
	})

	routeGroup.GET(RouteHistory, func(c echo.Context) error {
		return restapi.JSONResponse(c, http.StatusOK, &HistoryResponse{Records: deps.Engine.ChangeHistory()})
	})

	routeGroup.DELETE(RouteHistory, func(c echo.Context) error {
		deps.Engine.ClearChangeHistory()
		return c.NoContent(http.StatusNoContent)
	})

	routeGroup.POST(RouteLogin, func(c echo.Context) error {
		resp, err := login(c)
		if err != nil {
			return err
		}
		return restapi.JSONResponse(c, http.StatusOK, resp)
	})

	routeGroup.GET(RouteProfile, func(c echo.Context) error {
		resp, err := getProfile(c)
		if err != nil {
			return err
		}
		return restapi.JSONResponse(c, http.StatusOK, resp)
	})
}
