// Package pattern derives pattern keys and success statistics from memory records.
package pattern

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/rcliao/browser-memory/internal/model"
)

// separator joins context and action before hashing. The ASCII unit
// separator does not occur in URLs or action descriptions.
const separator = "\x1f"

// KeyFor returns the pattern key for a (context, action) pair.
// Distinct pairs that hash to the same key share one pattern.
func KeyFor(context, action string) string {
	sum := sha256.Sum256([]byte(context + separator + action))
	return hex.EncodeToString(sum[:])
}

// Signal is the outcome a record contributes to its pattern.
type Signal int

const (
	Neutral Signal = iota
	Success
	Failure
)

func (s Signal) String() string {
	switch s {
	case Success:
		return "success"
	case Failure:
		return "failure"
	default:
		return "neutral"
	}
}

// Classify maps a record's type and feedback to a signal. Success takes
// precedence when a record qualifies as both.
func Classify(memoryType string, feedback model.Feedback) Signal {
	switch {
	case feedback == model.FeedbackPositive || memoryType == model.TypeSuccess:
		return Success
	case feedback == model.FeedbackNegative || memoryType == model.TypeError:
		return Failure
	default:
		return Neutral
	}
}

// Initial is the success rate of a pattern created by sig.
func Initial(sig Signal) float64 {
	switch sig {
	case Success:
		return 1.0
	case Failure:
		return 0.0
	default:
		return 0.5
	}
}

// Update folds sig into rate with an exponential moving average.
func Update(rate float64, sig Signal) float64 {
	// The conversion keeps the product from being fused into an FMA, so the
	// result is identical on every architecture.
	switch sig {
	case Success:
		return float64(rate*0.9) + 0.1*1.0
	case Failure:
		return float64(rate*0.9) + 0.1*0.0
	default:
		return rate
	}
}

// Observe returns p after one more contributing record with signal sig.
// A nil p creates the pattern from r.
func Observe(p *model.Pattern, r *model.Record, sig Signal, now float64) model.Pattern {
	if p == nil {
		return model.Pattern{
			Key:         KeyFor(r.Context, r.Action),
			Type:        r.MemoryType,
			Occurrences: 1,
			SuccessRate: Initial(sig),
			LastSeen:    now,
			Data: model.PatternData{
				Context:       r.Context,
				Action:        r.Action,
				TypicalResult: r.Result,
			},
		}
	}
	next := *p
	next.Occurrences++
	next.SuccessRate = Update(p.SuccessRate, sig)
	next.LastSeen = now
	return next
}
