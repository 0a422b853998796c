// Package model defines the core memory data types.
package model

import (
	"encoding/json"
	"time"
)

// Conventional memory types. Any string is accepted as a memory type.
const (
	TypeInteraction     = "interaction"
	TypeError           = "error"
	TypeSuccess         = "success"
	TypePreference      = "preference"
	TypeLearnedBehavior = "learned_behavior"
)

// Feedback is the user's verdict on a record. The empty value means no feedback.
type Feedback string

const (
	FeedbackPositive Feedback = "positive"
	FeedbackNegative Feedback = "negative"
	FeedbackNeutral  Feedback = "neutral"
)

// ValidFeedback are the accepted feedback values.
var ValidFeedback = map[Feedback]bool{
	FeedbackPositive: true,
	FeedbackNegative: true,
	FeedbackNeutral:  true,
}

// DefaultImportance is assigned when a record is inserted without one.
const DefaultImportance = 1.0

// Record is a single memory entry.
type Record struct {
	ID           int64    `json:"id"`
	Timestamp    float64  `json:"timestamp"`
	MemoryType   string   `json:"memory_type"`
	Context      string   `json:"context"`
	Action       string   `json:"action"`
	Result       string   `json:"result"`
	UserFeedback Feedback `json:"user_feedback,omitempty"`
	Importance   float64  `json:"importance"`
	Tags         []string `json:"tags"`
	Metadata     Metadata `json:"metadata"`
}

// HasTag reports whether any of tags is present on the record.
func (r *Record) HasTag(tags ...string) bool {
	for _, want := range tags {
		for _, have := range r.Tags {
			if have == want {
				return true
			}
		}
	}
	return false
}

// Metadata holds caller-supplied structured data. Each value is kept as its
// JSON encoding so arbitrary nested values survive a store round trip; the
// whole map is persisted as one JSON object.
type Metadata map[string]json.RawMessage

// Set encodes v as JSON under key.
func (m Metadata) Set(key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	m[key] = b
	return nil
}

// MustSet is like Set but panics when v cannot be encoded. It is meant for
// values built by the caller whose encoding cannot fail.
func (m Metadata) MustSet(key string, v any) {
	if err := m.Set(key, v); err != nil {
		panic("metadata " + key + ": " + err.Error())
	}
}

// Get decodes the value under key into dst. It reports false when the key is absent.
func (m Metadata) Get(key string, dst any) (bool, error) {
	raw, ok := m[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dst)
}

// Now returns the current time as fractional seconds since the epoch.
func Now() float64 {
	return Timestamp(time.Now())
}

// Timestamp converts t to fractional seconds since the epoch.
func Timestamp(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}
