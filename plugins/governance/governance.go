package governance

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/gohornet/agora/pkg/model/parameter"
	"github.com/gohornet/agora/pkg/model/poll"
	"github.com/gohornet/agora/pkg/model/proposal"
	"github.com/gohornet/agora/pkg/restapi"
)

func getParameters() *ParametersResponse {
	registry := deps.Engine.Registry()

	categories := make(map[string][]*parameter.Parameter)
	for _, category := range registry.Categories() {
		categories[category] = registry.Parameters(category)
	}

	return &ParametersResponse{Categories: categories}
}

func getParameter(c echo.Context) (*parameter.Parameter, error) {
	category, err := restapi.ParseRequiredParam(c, restapi.ParameterCategory)
	if err != nil {
		return nil, err
	}
	name, err := restapi.ParseRequiredParam(c, restapi.ParameterName)
	if err != nil {
		return nil, err
	}

	p, err := deps.Engine.Registry().Parameter(category, name)
	if err != nil {
		return nil, httpError(err)
	}
	return p, nil
}

func getPolls(c echo.Context) *PollsResponse {
	polls := deps.Engine.Polls().Polls()

	if title := c.QueryParam("title"); title != "" {
		found, err := deps.Engine.FindPollByTitle(title)
		if err != nil {
			return &PollsResponse{Polls: []*poll.Poll{}}
		}
		polls = []*poll.Poll{found}
	}

	return &PollsResponse{Polls: polls}
}

func parsePollID(c echo.Context) (string, error) {
	return restapi.ParseRequiredParam(c, restapi.ParameterPollID)
}

func getPoll(c echo.Context) (*poll.Poll, error) {
	pollID, err := parsePollID(c)
	if err != nil {
		return nil, err
	}

	p, err := deps.Engine.Polls().Poll(pollID)
	if err != nil {
		return nil, httpError(err)
	}
	return p, nil
}

func createPoll(c echo.Context) (*poll.Poll, error) {
	request := &CreatePollRequest{}
	if err := c.Bind(request); err != nil {
		return nil, errors.WithMessagef(restapi.ErrInvalidParameter, "invalid request, error: %s", err)
	}

	creator := restapi.Identity(c)

	if request.Category != "" || request.Name != "" {
		p, err := deps.Engine.CreateParameterPoll(request.Category, request.Name, request.Options, request.EndDate, creator)
		if err != nil {
			return nil, httpError(err)
		}
		return p, nil
	}

	p, err := deps.Engine.CreatePoll(request.Title, request.Options, request.EndDate, creator)
	if err != nil {
		return nil, httpError(err)
	}
	return p, nil
}

func deletePoll(c echo.Context) error {
	pollID, err := parsePollID(c)
	if err != nil {
		return err
	}
	return httpError(deps.Engine.DeletePoll(pollID))
}

func getPollResult(c echo.Context) (*PollResultResponse, error) {
	p, err := getPoll(c)
	if err != nil {
		return nil, err
	}

	return &PollResultResponse{
		Poll:   p,
		Result: deps.Engine.ResolvePoll(p),
	}, nil
}

func submitVote(c echo.Context) (*PollResultResponse, error) {
	pollID, err := parsePollID(c)
	if err != nil {
		return nil, err
	}

	request := &VoteRequest{}
	if err := c.Bind(request); err != nil {
		return nil, errors.WithMessagef(restapi.ErrInvalidParameter, "invalid request, error: %s", err)
	}

	p, result, err := deps.Engine.SubmitVote(pollID, request.OptionIndex, restapi.Identity(c))
	if err != nil {
		return nil, httpError(err)
	}

	return &PollResultResponse{Poll: p, Result: result}, nil
}

func executePoll(c echo.Context) (*ExecutePollResponse, error) {
	pollID, err := parsePollID(c)
	if err != nil {
		return nil, err
	}

	applied, err := deps.Engine.ExecutePoll(pollID)
	if err != nil {
		return nil, httpError(err)
	}

	p, err := deps.Engine.Polls().Poll(pollID)
	if err != nil {
		return nil, httpError(err)
	}

	return &ExecutePollResponse{Applied: applied, Poll: p}, nil
}

func previewOption(c echo.Context) (*PreviewResponse, error) {
	pollID, err := parsePollID(c)
	if err != nil {
		return nil, err
	}

	request := &VoteRequest{}
	if err := c.Bind(request); err != nil {
		return nil, errors.WithMessagef(restapi.ErrInvalidParameter, "invalid request, error: %s", err)
	}

	preview, err := deps.Engine.PreviewOption(pollID, request.OptionIndex)
	if err != nil {
		return nil, httpError(err)
	}

	return &PreviewResponse{Active: true, Preview: preview}, nil
}

func getPreview() *PreviewResponse {
	preview, active := deps.Engine.Applier().ActivePreview()
	if !active {
		return &PreviewResponse{}
	}
	return &PreviewResponse{Active: true, Preview: preview}
}

func getProposals(c echo.Context) *ProposalsResponse {
	if creator := c.QueryParam("creator"); creator != "" {
		return &ProposalsResponse{Proposals: deps.Engine.Proposals().ProposalsByCreator(creator)}
	}
	return &ProposalsResponse{Proposals: deps.Engine.Proposals().Proposals()}
}

func getProposal(c echo.Context) (*proposal.Proposal, error) {
	proposalID, err := restapi.ParseRequiredParam(c, restapi.ParameterProposalID)
	if err != nil {
		return nil, err
	}

	p, err := deps.Engine.Proposals().Proposal(proposalID)
	if err != nil {
		return nil, httpError(err)
	}
	return p, nil
}

func submitProposal(c echo.Context) (*proposal.Proposal, error) {
	request := &SubmitProposalRequest{}
	if err := c.Bind(request); err != nil {
		return nil, errors.WithMessagef(restapi.ErrInvalidParameter, "invalid request, error: %s", err)
	}

	p, err := deps.Engine.Proposals().Submit(request.Title, request.Category, request.Param, request.Description, request.Options, restapi.Identity(c))
	if err != nil {
		return nil, httpError(err)
	}
	return p, nil
}

func reviewProposal(c echo.Context, approve bool) (*proposal.Proposal, error) {
	proposalID, err := restapi.ParseRequiredParam(c, restapi.ParameterProposalID)
	if err != nil {
		return nil, err
	}

	review := deps.Engine.Proposals().Reject
	if approve {
		review = deps.Engine.Proposals().Approve
	}

	p, err := review(proposalID, restapi.Identity(c))
	if err != nil {
		return nil, httpError(err)
	}
	return p, nil
}

func login(c echo.Context) (*LoginResponse, error) {
	identity := restapi.Identity(c)

	activity, err := deps.Engine.RecordLogin(identity)
	if err != nil {
		return nil, httpError(err)
	}

	return &LoginResponse{Identity: identity, Activity: activity}, nil
}

func getProfile(c echo.Context) (*ProfileResponse, error) {
	identity := restapi.Identity(c)
	if identity == "" {
		return nil, httpError(poll.ErrLoginRequired)
	}

	scheme := deps.Engine.Scheme()

	return &ProfileResponse{
		Identity: identity,
		Scheme:   scheme,
		Weight:   deps.Engine.Weights().Weight(identity, scheme),
		Profile:  deps.Engine.Weights().Profile(identity),
	}, nil
}
