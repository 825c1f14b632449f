package triage

import (
	"context"
	"fmt"

	"github.com/joshsymonds/inboxtriage/internal/gmail"
)

var searchHeaders = []string{gmail.HeaderFrom, gmail.HeaderSubject}

// Search returns up to maxResults messages whose subject contains keyword,
// from a single page of provider results. Any provider error aborts the whole
// search; partial results are never returned.
func (s *Service) Search(ctx context.Context, keyword string, maxResults int) (SearchResult, error) {
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}

	client, err := s.Dial(ctx)
	if err != nil {
		return SearchResult{}, fmt.Errorf("open mailbox: %w", err)
	}

	q := gmail.SubjectQuery(keyword)
	if err := s.Limiter.Wait(ctx); err != nil {
		return SearchResult{}, fmt.Errorf("%w: %w", ErrSearchFailed, err)
	}
	ids, err := client.List(ctx, q, maxResults)
	if err != nil {
		s.noteFailure(err)
		return SearchResult{}, fmt.Errorf("%w: list %q: %w", ErrSearchFailed, q.Raw, err)
	}

	items := make([]EmailItem, 0, len(ids))
	for _, id := range ids {
		if err := s.Limiter.Wait(ctx); err != nil {
			return SearchResult{}, fmt.Errorf("%w: %w", ErrSearchFailed, err)
		}
		meta, err := client.GetMetadata(ctx, id, searchHeaders)
		if err != nil {
			s.noteFailure(err)
			return SearchResult{}, fmt.Errorf("%w: get metadata %s: %w", ErrSearchFailed, id, err)
		}
		items = append(items, EmailItem{
			ID:      string(id),
			Sender:  meta.Header(gmail.HeaderFrom),
			Subject: meta.Header(gmail.HeaderSubject),
		})
	}

	s.Logger.Info("search complete", "query", q.Raw, "max", maxResults, "count", len(items))
	return SearchResult{Keyword: keyword, Results: items}, nil
}
