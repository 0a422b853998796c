package model

import "encoding/json"

// Preference is a user preference with a confidence score.
type Preference struct {
	Key        string          `json:"-"`
	Value      json.RawMessage `json:"value"`
	Confidence float64         `json:"confidence"`
	UpdatedAt  float64         `json:"updated_at"`
}

// DefaultConfidence is the confidence given to explicitly set preferences.
const DefaultConfidence = 1.0

// UnmarshalJSON decodes a preference, defaulting a missing confidence to
// DefaultConfidence.
func (p *Preference) UnmarshalJSON(b []byte) error {
	type plain Preference
	v := plain{Confidence: DefaultConfidence}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*p = Preference(v)
	return nil
}

// PatternData is the snapshot taken when a pattern is first observed.
type PatternData struct {
	Context       string `json:"context"`
	Action        string `json:"action"`
	TypicalResult string `json:"typical_result"`
}

// Pattern holds success statistics for one (context, action) pair.
type Pattern struct {
	Key         string      `json:"pattern_key"`
	Type        string      `json:"pattern_type"`
	Occurrences int         `json:"occurrences"`
	SuccessRate float64     `json:"success_rate"`
	LastSeen    float64     `json:"last_seen"`
	Data        PatternData `json:"data"`
}

// Recommendation is a scored candidate action derived from a pattern.
type Recommendation struct {
	Action             string       `json:"action"`
	Confidence         float64      `json:"confidence"`
	BasedOnExperiences int          `json:"based_on_experiences"`
	TypicalResult      string       `json:"typical_result,omitempty"`
	PatternKey         string       `json:"pattern_key"`
	Data               *PatternData `json:"data,omitempty"`
}

// Suggestion is an actionable, high-confidence recommendation.
type Suggestion struct {
	Action         string  `json:"action"`
	Confidence     float64 `json:"confidence"`
	Reason         string  `json:"reason"`
	ExpectedResult string  `json:"expected_result"`
}

// Stats summarizes the store contents.
type Stats struct {
	TotalMemories      int            `json:"total_memories"`
	ByType             map[string]int `json:"by_type"`
	TotalPatterns      int            `json:"total_patterns"`
	SuccessfulPatterns int            `json:"successful_patterns"`
	TotalPreferences   int            `json:"total_preferences"`
}

// Export is a full dump of the store for offline inspection.
type Export struct {
	ExportTimestamp float64               `json:"export_timestamp"`
	TotalMemories   int                   `json:"total_memories"`
	Memories        []Record              `json:"memories"`
	Preferences     map[string]Preference `json:"preferences"`
	Statistics      *Stats                `json:"statistics"`
}
