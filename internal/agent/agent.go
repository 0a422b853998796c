// Package agent records a browsing agent's navigation and actions in the
// memory store and turns user feedback into learned patterns. It never
// drives a real browser.
package agent

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"

	"github.com/oklog/ulid/v2"

	"github.com/rcliao/browser-memory/internal/model"
	"github.com/rcliao/browser-memory/internal/store"
)

// Importance levels assigned to agent-generated records.
const (
	NavigateImportance  = 3.0
	NewActionImportance = 5.0
	SuccessImportance   = 8.0
	FailureImportance   = 7.0
)

// RecentWindow is the number of recent records AnalyzeBehavior looks at.
const RecentWindow = 50

// UnknownContext is used when no page has been visited yet.
const UnknownContext = "unknown"

// Agent wraps a store with a session and the page currently visited.
type Agent struct {
	store   store.Store
	name    string
	session string
	log     *slog.Logger

	mu      sync.Mutex
	current string
}

// Option configures an Agent.
type Option func(*Agent)

// WithLogger sets the agent's logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *Agent) { a.log = l }
}

// New creates an agent with a fresh session ID.
func New(s store.Store, name string, opts ...Option) *Agent {
	a := &Agent{
		store:   s,
		name:    name,
		session: ulid.Make().String(),
		log:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.log = a.log.With("agent", name, "session_id", a.session)
	return a
}

// Session returns the session ID stamped into every record this agent writes.
func (a *Agent) Session() string { return a.session }

// Name returns the agent name.
func (a *Agent) Name() string { return a.name }

// CurrentContext returns the last visited URL or UnknownContext.
func (a *Agent) CurrentContext() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.current == "" {
		return UnknownContext
	}
	return a.current
}

// NavigateResult describes a recorded navigation.
type NavigateResult struct {
	Success         bool                   `json:"success"`
	URL             string                 `json:"url"`
	Timestamp       float64                `json:"timestamp"`
	Recommendations []model.Recommendation `json:"recommendations"`
	MemoryID        int64                  `json:"memory_id"`
}

// Navigate records a visit to url and returns what was learned about it.
func (a *Agent) Navigate(ctx context.Context, url string) (*NavigateResult, error) {
	a.mu.Lock()
	a.current = url
	a.mu.Unlock()

	recs, err := a.store.Recommend(ctx, url, "")
	if err != nil {
		return nil, fmt.Errorf("recommend for %s: %w", url, err)
	}

	res := &NavigateResult{
		Success:         true,
		URL:             url,
		Timestamp:       model.Now(),
		Recommendations: recs,
	}

	meta := a.metadata()
	meta.MustSet("success", res.Success)
	meta.MustSet("url", url)
	meta.MustSet("recommendations", len(recs))

	id, err := a.store.Insert(ctx, store.InsertParams{
		Timestamp:  &res.Timestamp,
		MemoryType: model.TypeInteraction,
		Context:    url,
		Action:     "navigate to " + url,
		Result:     "Successfully navigated to " + url,
		Importance: ptr(NavigateImportance),
		Tags:       []string{"navigation", "url"},
		Metadata:   meta,
	})
	if err != nil {
		return nil, fmt.Errorf("record navigation: %w", err)
	}
	res.MemoryID = id

	a.log.Info("navigate", "url", url, "memory_id", id, "recommendations", len(recs))
	return res, nil
}

// ActionParams describes an action on the current page.
type ActionParams struct {
	Action  string // click, type, scroll, ...
	Target  string // element or selector
	Value   string // text typed, option chosen, ...
	Context string // defaults to the current page
}

// ActionResult describes a recorded action.
type ActionResult struct {
	Success                  bool    `json:"success"`
	Action                   string  `json:"action"`
	Target                   string  `json:"target,omitempty"`
	Value                    string  `json:"value,omitempty"`
	Context                  string  `json:"context"`
	Timestamp                float64 `json:"timestamp"`
	RecommendationsConsulted bool    `json:"recommendations_consulted"`
	Importance               float64 `json:"importance"`
	MemoryID                 int64   `json:"memory_id"`
}

// PerformAction records an action. Actions with a known history get an
// importance between 3 and 8 scaled by past confidence; new ones get 5.
func (a *Agent) PerformAction(ctx context.Context, p ActionParams) (*ActionResult, error) {
	where := p.Context
	if where == "" {
		where = a.CurrentContext()
	}

	recs, err := a.store.Recommend(ctx, where, p.Action)
	if err != nil {
		return nil, fmt.Errorf("recommend for %s: %w", p.Action, err)
	}

	desc := p.Action
	if p.Target != "" {
		desc += " on " + p.Target
	}
	if p.Value != "" {
		desc += " with value: " + p.Value
	}

	importance := NewActionImportance
	if len(recs) > 0 {
		var sum float64
		for _, r := range recs {
			sum += r.Confidence
		}
		importance = 3.0 + (sum/float64(len(recs)))*5.0
	}

	res := &ActionResult{
		Success:                  true,
		Action:                   p.Action,
		Target:                   p.Target,
		Value:                    p.Value,
		Context:                  where,
		Timestamp:                model.Now(),
		RecommendationsConsulted: len(recs) > 0,
		Importance:               importance,
	}

	meta := a.metadata()
	meta.MustSet("success", res.Success)
	meta.MustSet("action", p.Action)
	if p.Target != "" {
		meta.MustSet("target", p.Target)
	}
	if p.Value != "" {
		meta.MustSet("value", p.Value)
	}
	meta.MustSet("recommendations_consulted", res.RecommendationsConsulted)

	// The pattern is keyed by the full description, so the lookup above
	// only hits when the bare action was recorded before.
	id, err := a.store.Insert(ctx, store.InsertParams{
		Timestamp:  &res.Timestamp,
		MemoryType: model.TypeInteraction,
		Context:    where,
		Action:     desc,
		Result:     fmt.Sprintf("Action '%s' executed successfully", p.Action),
		Importance: ptr(importance),
		Tags:       []string{"action", p.Action},
		Metadata:   meta,
	})
	if err != nil {
		return nil, fmt.Errorf("record action: %w", err)
	}
	res.MemoryID = id

	a.log.Info("action", "action", desc, "context", where, "memory_id", id, "importance", importance)
	return res, nil
}

// LearnFromSuccess marks a record as successful and raises its importance.
func (a *Agent) LearnFromSuccess(ctx context.Context, id int64) error {
	if err := a.store.AddFeedback(ctx, id, model.FeedbackPositive); err != nil {
		return fmt.Errorf("feedback for %d: %w", id, err)
	}
	if err := a.store.UpdateImportance(ctx, id, SuccessImportance); err != nil {
		return fmt.Errorf("importance for %d: %w", id, err)
	}
	a.log.Info("learned success", "memory_id", id)
	return nil
}

// LearnFromFailure marks a record as failed and stores an error record with
// msg. It returns the ID of the error record.
func (a *Agent) LearnFromFailure(ctx context.Context, id int64, msg string) (int64, error) {
	if err := a.store.AddFeedback(ctx, id, model.FeedbackNegative); err != nil {
		return 0, fmt.Errorf("feedback for %d: %w", id, err)
	}
	if err := a.store.UpdateImportance(ctx, id, FailureImportance); err != nil {
		return 0, fmt.Errorf("importance for %d: %w", id, err)
	}

	where := a.failureContext(ctx, id)
	meta := a.metadata()
	meta.MustSet("failed_memory_id", id)

	errID, err := a.store.Insert(ctx, store.InsertParams{
		MemoryType: model.TypeError,
		Context:    where,
		Action:     fmt.Sprintf("Failed action from memory #%d", id),
		Result:     msg,
		Importance: ptr(FailureImportance),
		Tags:       []string{"error", "failure"},
		Metadata:   meta,
	})
	if err != nil {
		return 0, fmt.Errorf("record failure: %w", err)
	}
	a.log.Info("learned failure", "memory_id", id, "error_memory_id", errID)
	return errID, nil
}

// failureContext is the current page, or the failed record's context when
// this agent has not navigated anywhere.
func (a *Agent) failureContext(ctx context.Context, id int64) string {
	a.mu.Lock()
	where := a.current
	a.mu.Unlock()
	if where != "" {
		return where
	}
	if rec, err := a.store.Get(ctx, id); err == nil && rec.Context != "" {
		return rec.Context
	}
	return UnknownContext
}

// SmartSuggestions returns high-confidence actions for where, or for the
// current page when where is empty.
func (a *Agent) SmartSuggestions(ctx context.Context, where string) ([]model.Suggestion, error) {
	if where == "" {
		a.mu.Lock()
		where = a.current
		a.mu.Unlock()
	}
	return a.store.Suggestions(ctx, where)
}

// SetPreference stores a preference with full confidence.
func (a *Agent) SetPreference(ctx context.Context, key string, value any) error {
	if err := a.store.SetPreference(ctx, key, value, model.DefaultConfidence); err != nil {
		return err
	}
	a.log.Info("preference set", "key", key)
	return nil
}

// Preference decodes the preference under key into dst, reporting false
// when it is not set.
func (a *Agent) Preference(ctx context.Context, key string, dst any) (bool, error) {
	return a.store.GetPreference(ctx, key, dst)
}

// SearchPastInteractions searches records with the agent's default limit.
func (a *Agent) SearchPastInteractions(ctx context.Context, query, where string, tags []string) ([]model.Record, error) {
	return a.store.Search(ctx, store.SearchParams{
		Query:   query,
		Context: where,
		Tags:    tags,
		Limit:   20,
	})
}

// ExportLearnedBehavior writes the full export document to w.
func (a *Agent) ExportLearnedBehavior(ctx context.Context, w io.Writer) error {
	return a.store.WriteExport(ctx, w)
}

// ActionCount is an action and how often it appeared.
type ActionCount struct {
	Action string `json:"action"`
	Count  int    `json:"count"`
}

// Behavior summarizes recent activity.
type Behavior struct {
	TotalMemories     int           `json:"total_memories"`
	RecentSuccesses   int           `json:"recent_successes"`
	RecentFailures    int           `json:"recent_failures"`
	SuccessRate       float64       `json:"success_rate"`
	MostCommonActions []ActionCount `json:"most_common_actions"`
	LearnedPatterns   int           `json:"learned_patterns"`
	PreferencesCount  int           `json:"preferences_count"`
}

// AnalyzeBehavior summarizes the most recent records and store statistics.
func (a *Agent) AnalyzeBehavior(ctx context.Context) (*Behavior, error) {
	recent, err := a.store.Recent(ctx, RecentWindow, "")
	if err != nil {
		return nil, fmt.Errorf("recent: %w", err)
	}

	counts := map[string]int{}
	var order []string
	b := &Behavior{}
	for _, r := range recent {
		if r.MemoryType == model.TypeInteraction {
			if counts[r.Action] == 0 {
				order = append(order, r.Action)
			}
			counts[r.Action]++
		}
		switch r.UserFeedback {
		case model.FeedbackPositive:
			b.RecentSuccesses++
		case model.FeedbackNegative:
			b.RecentFailures++
		}
	}

	top := make([]ActionCount, 0, len(order))
	for _, action := range order {
		top = append(top, ActionCount{Action: action, Count: counts[action]})
	}
	sort.SliceStable(top, func(i, j int) bool { return top[i].Count > top[j].Count })
	if len(top) > 5 {
		top = top[:5]
	}
	b.MostCommonActions = top

	b.SuccessRate = float64(b.RecentSuccesses) / float64(max(b.RecentSuccesses+b.RecentFailures, 1))

	stats, err := a.store.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("stats: %w", err)
	}
	b.TotalMemories = stats.TotalMemories
	b.LearnedPatterns = stats.SuccessfulPatterns
	b.PreferencesCount = stats.TotalPreferences
	return b, nil
}

func (a *Agent) metadata() model.Metadata {
	m := model.Metadata{}
	m.MustSet("session_id", a.session)
	m.MustSet("agent", a.name)
	return m
}

func ptr(v float64) *float64 { return &v }
