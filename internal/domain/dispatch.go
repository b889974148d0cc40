package domain

// DispatchTask asks one verifier to examine one claim. It carries only the
// fields that source needs.
type DispatchTask struct {
	ClaimID     string   `json:"claim_id"`
	Source      Source   `json:"source"`
	HazardType  string   `json:"hazard_type"`
	Latitude    *float64 `json:"latitude,omitempty"`
	Longitude   *float64 `json:"longitude,omitempty"`
	Description string   `json:"description,omitempty"`
}

// NewDispatchTask builds the task for source from claim. Weather and peer
// verifiers work from coordinates; nlp works from the free text.
func NewDispatchTask(claim Claim, source Source) DispatchTask {
	task := DispatchTask{
		ClaimID:    claim.ID,
		Source:     source,
		HazardType: claim.HazardType,
	}
	switch source {
	case SourceNLP:
		task.Description = claim.Description
	default:
		lat, lon := claim.Location.Latitude, claim.Location.Longitude
		task.Latitude = &lat
		task.Longitude = &lon
	}
	return task
}
