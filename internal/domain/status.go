package domain

// StatusForLevel maps a confidence level to the claim status it implies.
// Medium and Low leave the claim pending manual review.
func StatusForLevel(level Level) Status {
	switch level {
	case LevelHigh:
		return StatusVerified
	case LevelVeryLow:
		return StatusRejected
	default:
		return StatusUnderVerification
	}
}

// NextStatus returns the status a claim currently in from moves to for level.
// Terminal statuses never change.
func NextStatus(from Status, level Level) Status {
	if from.Terminal() {
		return from
	}
	return StatusForLevel(level)
}

// Decision is the persisted outcome of one completion event.
type Decision struct {
	ClaimID    string     `json:"claim_id"`
	Assessment Assessment `json:"assessment"`
	From       Status     `json:"from"`
	To         Status     `json:"to"`
}

// Changed reports whether the decision moved the claim's status.
func (d Decision) Changed() bool {
	return d.From != d.To
}
