package httpapi

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/rcliao/browser-memory/internal/config"
	"github.com/rcliao/browser-memory/internal/model"
	"github.com/rcliao/browser-memory/internal/store"
)

// Handlers holds the dependencies of the HTTP handlers.
type Handlers struct {
	store   store.Store
	log     *slog.Logger
	cleanup config.Cleanup
}

// NewHandlers creates handlers backed by s. cleanup supplies the defaults for
// POST /cleanup when the request omits them.
func NewHandlers(s store.Store, log *slog.Logger, cleanup config.Cleanup) *Handlers {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Handlers{store: s, log: log, cleanup: cleanup}
}

func (h *Handlers) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type addMemoryRequest struct {
	Timestamp    *float64       `json:"timestamp"`
	MemoryType   string         `json:"memory_type"`
	Context      string         `json:"context"`
	Action       string         `json:"action"`
	Result       string         `json:"result"`
	UserFeedback model.Feedback `json:"user_feedback"`
	Importance   *float64       `json:"importance"`
	Tags         []string       `json:"tags"`
	Metadata     model.Metadata `json:"metadata"`
}

// AddMemory handles POST /api/v1/memories.
func (h *Handlers) AddMemory(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[addMemoryRequest](w, r)
	if !ok {
		return
	}
	if !requireField(w, req.MemoryType, "memory_type") {
		return
	}
	if req.UserFeedback != "" && !model.ValidFeedback[req.UserFeedback] {
		writeError(w, http.StatusBadRequest, "user_feedback must be positive, negative or neutral")
		return
	}

	id, err := h.store.Insert(r.Context(), store.InsertParams{
		Timestamp:  req.Timestamp,
		MemoryType: req.MemoryType,
		Context:    req.Context,
		Action:     req.Action,
		Result:     req.Result,
		Feedback:   req.UserFeedback,
		Importance: req.Importance,
		Tags:       req.Tags,
		Metadata:   req.Metadata,
	})
	if err != nil {
		h.writeStoreError(w, err, "")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

// SearchMemories handles GET /api/v1/memories.
func (h *Handlers) SearchMemories(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, ok := queryInt(w, r, "limit", store.DefaultSearchLimit)
	if !ok {
		return
	}
	minImp, ok := queryFloat(w, r, "min_importance", 0)
	if !ok {
		return
	}

	recs, err := h.store.Search(r.Context(), store.SearchParams{
		Query:         q.Get("q"),
		MemoryType:    q.Get("type"),
		Context:       q.Get("context"),
		Tags:          splitList(q.Get("tags")),
		MinImportance: minImp,
		Limit:         limit,
	})
	if err != nil {
		h.writeStoreError(w, err, "")
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

// RecentMemories handles GET /api/v1/memories/recent.
func (h *Handlers) RecentMemories(w http.ResponseWriter, r *http.Request) {
	count, ok := queryInt(w, r, "count", store.DefaultRecentCount)
	if !ok {
		return
	}
	recs, err := h.store.Recent(r.Context(), count, r.URL.Query().Get("type"))
	if err != nil {
		h.writeStoreError(w, err, "")
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

// GetMemory handles GET /api/v1/memories/{id}.
func (h *Handlers) GetMemory(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	rec, err := h.store.Get(r.Context(), id)
	if err != nil {
		h.writeStoreError(w, err, fmt.Sprintf("memory %d not found", id))
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// AddFeedback handles POST /api/v1/memories/{id}/feedback.
func (h *Handlers) AddFeedback(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	req, ok := readJSON[struct {
		Feedback model.Feedback `json:"feedback"`
	}](w, r)
	if !ok {
		return
	}
	if !model.ValidFeedback[req.Feedback] {
		writeError(w, http.StatusBadRequest, "feedback must be positive, negative or neutral")
		return
	}
	if err := h.store.AddFeedback(r.Context(), id, req.Feedback); err != nil {
		h.writeStoreError(w, err, "")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// UpdateImportance handles PUT /api/v1/memories/{id}/importance.
func (h *Handlers) UpdateImportance(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	req, ok := readJSON[struct {
		Importance *float64 `json:"importance"`
	}](w, r)
	if !ok {
		return
	}
	if req.Importance == nil {
		writeError(w, http.StatusBadRequest, "importance is required")
		return
	}
	if err := h.store.UpdateImportance(r.Context(), id, *req.Importance); err != nil {
		h.writeStoreError(w, err, "")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// ListPreferences handles GET /api/v1/preferences.
func (h *Handlers) ListPreferences(w http.ResponseWriter, r *http.Request) {
	prefs, err := h.store.Preferences(r.Context())
	if err != nil {
		h.writeStoreError(w, err, "")
		return
	}
	writeJSON(w, http.StatusOK, prefs)
}

// GetPreference handles GET /api/v1/preferences/{key}.
func (h *Handlers) GetPreference(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	p, err := h.store.Preference(r.Context(), key)
	if err != nil {
		h.writeStoreError(w, err, fmt.Sprintf("preference %q not found", key))
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// SetPreference handles PUT /api/v1/preferences/{key}.
func (h *Handlers) SetPreference(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	req, ok := readJSON[struct {
		Value      json.RawMessage `json:"value"`
		Confidence *float64        `json:"confidence"`
	}](w, r)
	if !ok {
		return
	}
	if len(req.Value) == 0 {
		writeError(w, http.StatusBadRequest, "value is required")
		return
	}
	confidence := model.DefaultConfidence
	if req.Confidence != nil {
		confidence = *req.Confidence
	}
	if err := h.store.SetPreference(r.Context(), key, req.Value, confidence); err != nil {
		h.writeStoreError(w, err, "")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// Recommendations handles GET /api/v1/recommendations?context=&action=.
func (h *Handlers) Recommendations(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	recs, err := h.store.Recommend(r.Context(), q.Get("context"), q.Get("action"))
	if err != nil {
		h.writeStoreError(w, err, "")
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

// Suggestions handles GET /api/v1/suggestions?context=.
func (h *Handlers) Suggestions(w http.ResponseWriter, r *http.Request) {
	sugg, err := h.store.Suggestions(r.Context(), r.URL.Query().Get("context"))
	if err != nil {
		h.writeStoreError(w, err, "")
		return
	}
	writeJSON(w, http.StatusOK, sugg)
}

// Stats handles GET /api/v1/stats.
func (h *Handlers) Stats(w http.ResponseWriter, r *http.Request) {
	st, err := h.store.Stats(r.Context())
	if err != nil {
		h.writeStoreError(w, err, "")
		return
	}
	writeJSON(w, http.StatusOK, st)
}

type cleanupRequest struct {
	Days          *float64 `json:"days"`
	MinImportance *float64 `json:"min_importance"`
}

// Cleanup handles POST /api/v1/cleanup. An empty body uses the configured defaults.
func (h *Handlers) Cleanup(w http.ResponseWriter, r *http.Request) {
	req, ok := readOptionalJSON[cleanupRequest](w, r)
	if !ok {
		return
	}

	olderThan := h.cleanup.OlderThan
	if req.Days != nil {
		olderThan = time.Duration(*req.Days * float64(24*time.Hour))
	}
	minImp := h.cleanup.MinImportance
	if req.MinImportance != nil {
		minImp = *req.MinImportance
	}

	n, err := h.store.Cleanup(r.Context(), olderThan, minImp)
	if err != nil {
		h.writeStoreError(w, err, "")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"deleted": n})
}

// Export handles GET /api/v1/export.
func (h *Handlers) Export(w http.ResponseWriter, r *http.Request) {
	doc, err := h.store.Export(r.Context())
	if err != nil {
		h.writeStoreError(w, err, "")
		return
	}
	writeJSON(w, http.StatusOK, doc)
}
