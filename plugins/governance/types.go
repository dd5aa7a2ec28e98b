package governance

import (
	"time"

	"github.com/gohornet/agora/pkg/model/applier"
	"github.com/gohornet/agora/pkg/model/consensus"
	"github.com/gohornet/agora/pkg/model/history"
	"github.com/gohornet/agora/pkg/model/parameter"
	"github.com/gohornet/agora/pkg/model/poll"
	"github.com/gohornet/agora/pkg/model/proposal"
	"github.com/gohornet/agora/pkg/model/weight"
)

// ParametersResponse defines the response of a GET RouteParameters REST API call.
type ParametersResponse struct {
	// The parameters per category.
	Categories map[string][]*parameter.Parameter `json:"categories"`
}

// PollsResponse defines the response of a GET RoutePolls REST API call.
type PollsResponse struct {
	Polls []*poll.Poll `json:"polls"`
}

// CreatePollRequest defines the request of a POST RoutePolls REST API call.
// Polls with a category and a name decide that parameter, the options are labels of its values then.
type CreatePollRequest struct {
	Title    string     `json:"title"`
	Options  []string   `json:"options"`
	EndDate  *time.Time `json:"endDate,omitempty"`
	Category string     `json:"category,omitempty"`
	Name     string     `json:"name,omitempty"`
}

// PollResultResponse defines the response of a GET RoutePollResult REST API call.
type PollResultResponse struct {
	Poll   *poll.Poll        `json:"poll"`
	Result *consensus.Result `json:"result"`
}

// VoteRequest defines the request of a POST RoutePollVotes or RoutePollPreview REST API call.
type VoteRequest struct {
	OptionIndex int `json:"optionIndex"`
}

// ExecutePollResponse defines the response of a POST RoutePollExecute REST API call.
type ExecutePollResponse struct {
	Applied bool       `json:"applied"`
	Poll    *poll.Poll `json:"poll"`
}

// PreviewResponse defines the response of the preview REST API calls.
type PreviewResponse struct {
	Active  bool             `json:"active"`
	Preview *applier.Preview `json:"preview,omitempty"`
}

// ProposalsResponse defines the response of a GET RouteProposals REST API call.
type ProposalsResponse struct {
	Proposals []*proposal.Proposal `json:"proposals"`
}

// SubmitProposalRequest defines the request of a POST RouteProposals REST API call.
type SubmitProposalRequest struct {
	Title       string   `json:"title"`
	Category    string   `json:"category"`
	Param       string   `json:"param"`
	Description string   `json:"description,omitempty"`
	Options     []string `json:"options"`
}

// HistoryResponse defines the response of a GET RouteHistory REST API call.
type HistoryResponse struct {
	Records []*history.ChangeRecord `json:"records"`
}

// LoginResponse defines the response of a POST RouteLogin REST API call.
type LoginResponse struct {
	Identity string  `json:"identity"`
	Activity float64 `json:"activity"`
}

// ProfileResponse defines the response of a GET RouteProfile REST API call.
type ProfileResponse struct {
	Identity string          `json:"identity"`
	Scheme   weight.Scheme   `json:"scheme"`
	Weight   float64         `json:"weight"`
	Profile  *weight.Profile `json:"profile"`
}
