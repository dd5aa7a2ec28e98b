package governance

import (
	"github.com/pkg/errors"

	"github.com/gohornet/agora/pkg/governance"
	"github.com/gohornet/agora/pkg/model/applier"
	"github.com/gohornet/agora/pkg/model/parameter"
	"github.com/gohornet/agora/pkg/model/poll"
	"github.com/gohornet/agora/pkg/model/proposal"
	"github.com/gohornet/agora/pkg/restapi"
)

// httpError attaches the HTTP status matching the domain error to err.
// Unknown errors are returned as they are and end up as internal server errors.
func httpError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, poll.ErrPollNotFound),
		errors.Is(err, parameter.ErrParameterNotFound),
		errors.Is(err, proposal.ErrProposalNotFound):
		return errors.WithMessage(restapi.ErrNotFound, err.Error())

	case errors.Is(err, proposal.ErrUnauthorized),
		errors.Is(err, poll.ErrLoginRequired):
		return errors.WithMessage(restapi.ErrForbidden, err.Error())

	case errors.Is(err, poll.ErrAlreadyVoted),
		errors.Is(err, poll.ErrPollEnded),
		errors.Is(err, poll.ErrPollExecuted),
		errors.Is(err, poll.ErrDuplicatePoll),
		errors.Is(err, proposal.ErrProposalNotPending),
		errors.Is(err, parameter.ErrParameterExists),
		errors.Is(err, governance.ErrTooManyPolls):
		return errors.WithMessage(restapi.ErrConflict, err.Error())

	case errors.Is(err, poll.ErrInvalidOption),
		errors.Is(err, poll.ErrInvalidPoll),
		errors.Is(err, poll.ErrInvalidDuration),
		errors.Is(err, parameter.ErrInvalidValue),
		errors.Is(err, parameter.ErrInvalidParameter),
		errors.Is(err, proposal.ErrInvalidProposal),
		errors.Is(err, applier.ErrNotParameterPoll):
		return errors.WithMessage(restapi.ErrInvalidParameter, err.Error())
	}

	return err
}
