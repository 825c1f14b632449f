package triage

import "fmt"

// DefaultMaxResults bounds a search when the caller does not.
const DefaultMaxResults = 10

// EmailItem is one search hit. Missing headers are empty strings.
type EmailItem struct {
	ID      string `json:"id"`
	Sender  string `json:"sender"`
	Subject string `json:"subject"`
}

// SearchResult keeps the provider's ranking; results are never re-sorted.
type SearchResult struct {
	Keyword string      `json:"keyword"`
	Results []EmailItem `json:"results"`
}

type Action string

const (
	ActionTrash   Action = "trash"
	ActionArchive Action = "archive"
	ActionDryRun  Action = "dry-run"
)

// ParseAction rejects anything outside trash, archive and dry-run.
func ParseAction(s string) (Action, error) {
	switch a := Action(s); a {
	case ActionTrash, ActionArchive, ActionDryRun:
		return a, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedAction, s)
	}
}

// ActionRequest asks for one disposition across EmailIDs. Duplicates are kept.
type ActionRequest struct {
	EmailIDs        []string `json:"email_ids"`
	Action          string   `json:"action"`
	ContinueOnError bool     `json:"continue_on_error,omitempty"`
}

type OutcomeStatus string

const (
	OutcomeSucceeded OutcomeStatus = "succeeded"
	OutcomeFailed    OutcomeStatus = "failed"
	OutcomeSkipped   OutcomeStatus = "skipped"
)

// Outcome reports what happened to one identifier in a batch.
type Outcome struct {
	ID     string        `json:"id"`
	Status OutcomeStatus `json:"status"`
	Reason string        `json:"reason,omitempty"`
}

// ActionResult echoes the request's identifiers verbatim in AffectedEmails;
// use Outcomes, not AffectedEmails, to learn which mutations succeeded.
// Result is a summary built from the input count.
type ActionResult struct {
	Action         Action    `json:"action"`
	AffectedEmails []string  `json:"affected_emails"`
	Result         string    `json:"result"`
	Outcomes       []Outcome `json:"outcomes,omitempty"`
}

// Succeeded counts outcomes that completed.
func (r ActionResult) Succeeded() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Status == OutcomeSucceeded {
			n++
		}
	}
	return n
}
