package ai

import (
	"context"

	"github.com/spigell/match-scorer/internal/compatibility"
)

// Review is a second opinion on a scored pair.
type Review struct {
	Fit   bool
	Score float64
	// Reason explains the verdict in one or two sentences.
	Reason string
	// Message is a suggested introduction note from the viewer to the candidate.
	Message string
	Raw     string
}

type Matcher interface {
	Evaluate(ctx context.Context, viewer, candidate *compatibility.Profile, match *compatibility.MatchScore) (*Review, error)
}
