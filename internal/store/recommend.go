package store

import (
	"context"
	"errors"
	"strings"

	"github.com/rcliao/browser-memory/internal/model"
	"github.com/rcliao/browser-memory/internal/pattern"
)

// MaxContextRecommendations bounds results when no action is given.
const MaxContextRecommendations = 5

// Recommend returns scored actions for where. With an action it evaluates
// that exact pair and returns at most one result. Without one it returns the
// best patterns whose snapshot mentions where.
func (s *SQLiteStore) Recommend(ctx context.Context, where, action string) ([]model.Recommendation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if action != "" {
		return s.recommendExact(ctx, where, action)
	}
	return s.recommendForContext(ctx, where)
}

func (s *SQLiteStore) recommendExact(ctx context.Context, where, action string) ([]model.Recommendation, error) {
	p, err := s.lookupPattern(ctx, pattern.KeyFor(where, action))
	if errors.Is(err, ErrNotFound) {
		return []model.Recommendation{}, nil
	}
	if err != nil {
		return nil, err
	}
	data := p.Data
	return []model.Recommendation{{
		Action:             action,
		Confidence:         p.SuccessRate,
		BasedOnExperiences: p.Occurrences,
		TypicalResult:      data.TypicalResult,
		PatternKey:         p.Key,
		Data:               &data,
	}}, nil
}

func (s *SQLiteStore) recommendForContext(ctx context.Context, where string) ([]model.Recommendation, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+patternColumns+` FROM patterns ORDER BY success_rate DESC, occurrences DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	recs := []model.Recommendation{}
	for rows.Next() && len(recs) < MaxContextRecommendations {
		p, err := scanPattern(rows)
		if err != nil {
			return nil, err
		}
		if !snapshotMatches(p.Data, where) {
			continue
		}
		data := p.Data
		recs = append(recs, model.Recommendation{
			Action:             data.Action,
			Confidence:         p.SuccessRate,
			BasedOnExperiences: p.Occurrences,
			TypicalResult:      data.TypicalResult,
			PatternKey:         p.Key,
			Data:               &data,
		})
	}
	return recs, rows.Err()
}

// snapshotMatches reports whether where occurs in any snapshot field.
// Matching is on the decoded values, not on their JSON encoding.
func snapshotMatches(d model.PatternData, where string) bool {
	return strings.Contains(d.Context, where) ||
		strings.Contains(d.Action, where) ||
		strings.Contains(d.TypicalResult, where)
}

// Suggestions returns the actionable recommendations for where.
func (s *SQLiteStore) Suggestions(ctx context.Context, where string) ([]model.Suggestion, error) {
	recs, err := s.Recommend(ctx, where, "")
	if err != nil {
		return nil, err
	}
	return pattern.Suggest(recs), nil
}
