package triage

import (
	"context"
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"

	"github.com/joshsymonds/inboxtriage/internal/gmail"
)

// Apply runs one disposition across req.EmailIDs in input order.
//
// Mutations are not transactional. By default the batch stops at the first
// failed identifier: earlier identifiers stay mutated, later ones are skipped.
// With ContinueOnError every identifier is attempted. On any failure the
// returned error wraps ErrActionPartialFailure and the result still carries
// per-identifier outcomes.
func (s *Service) Apply(ctx context.Context, req ActionRequest) (ActionResult, error) {
	action, err := ParseAction(req.Action)
	if err != nil {
		return ActionResult{}, err
	}

	n := len(req.EmailIDs)
	result := ActionResult{Action: action, AffectedEmails: req.EmailIDs}

	if action == ActionDryRun {
		result.Result = fmt.Sprintf("Dry-run: would apply '%s' to %d emails.", action, n)
		s.Logger.Info("dry-run", "count", n)
		return result, nil
	}

	client, err := s.Dial(ctx)
	if err != nil {
		return result, fmt.Errorf("open mailbox: %w", err)
	}

	mutate, verb := mutation(client, action)
	result.Result = fmt.Sprintf("%s %d emails.", verb, n)
	result.Outcomes = make([]Outcome, n)

	var (
		merr    *multierror.Error
		failed  int
		stopped bool
	)
	for i, id := range req.EmailIDs {
		if stopped {
			result.Outcomes[i] = Outcome{ID: id, Status: OutcomeSkipped}
			continue
		}
		err := s.Limiter.Wait(ctx)
		if err == nil {
			err = mutate(ctx, gmail.MessageID(id))
		}
		if err != nil {
			s.noteFailure(err)
			failed++
			result.Outcomes[i] = Outcome{ID: id, Status: OutcomeFailed, Reason: err.Error()}
			merr = multierror.Append(merr, fmt.Errorf("%s %s: %w", action, id, err))
			stopped = !req.ContinueOnError
			continue
		}
		result.Outcomes[i] = Outcome{ID: id, Status: OutcomeSucceeded}
	}

	if merr != nil {
		merr.ErrorFormat = joinErrors
		s.Logger.Error("action failed",
			"action", action,
			"count", n,
			"succeeded", result.Succeeded(),
			"failed", failed,
		)
		return result, fmt.Errorf(
			"%w: %s failed for %d of %d emails: %w",
			ErrActionPartialFailure, action, failed, n, merr.ErrorOrNil(),
		)
	}

	s.Logger.Info("action applied", "action", action, "count", n)
	return result, nil
}

func mutation(client gmail.Client, action Action) (func(context.Context, gmail.MessageID) error, string) {
	if action == ActionArchive {
		return func(ctx context.Context, id gmail.MessageID) error {
			return client.Modify(ctx, id, gmail.ArchiveOps())
		}, "Archived"
	}
	return client.Trash, "Trashed"
}

func joinErrors(errs []error) string {
	parts := make([]string, len(errs))
	for i, err := range errs {
		parts[i] = err.Error()
	}
	return strings.Join(parts, "; ")
}
