package domain

// OutcomeProposal is the automated resolver's answer for an expired wager.
// A nil WinningSide or a confidence below the configured minimum must not
// auto-resolve anything; the wager is left for manual resolution.
type OutcomeProposal struct {
	WinningSide *Side
	Confidence  float64
	Reasoning   string
}

// Decisive reports whether the proposal is strong enough to act on.
func (p *OutcomeProposal) Decisive(minConfidence float64) bool {
	return p != nil && p.WinningSide != nil && p.WinningSide.Valid() && p.Confidence >= minConfidence
}
