// Package domain models citizen hazard claims and the evidence gathered to
// corroborate them.
//
// # Claim Lifecycle
//
// A claim is submitted with a hazard type, a free-text description and a
// WGS-84 coordinate pair. It is persisted as:
//
//	status            under_verification
//	confidence_score  0.0
//
// One [DispatchTask] is emitted per required verification source. Each
// verifier eventually reports one [VerificationResult]. When every required
// source has reported, the claim is finalized exactly once: the results are
// aggregated into a score and a [Level], and the level decides the status:
//
//	High      →  verified            (terminal)
//	Very Low  →  rejected            (terminal)
//	Medium    →  under_verification  (manual review)
//	Low       →  under_verification  (manual review)
//
// There is no transition out of verified or rejected.
//
// # Sources and Payloads
//
// Each source reports a payload with its own schema, decoded into a closed
// set of variants by [DecodePayload]:
//
//	weather  {"match_status": "confirmed"|"unconfirmed"|..., "reason": ...}
//	nlp      {"urgency": "Low"|...|"Critical", "sentiment": "Calm"|...|"Panicked", "is_hazard": bool}
//	peer     {"corroborations": n, "contradictions": n}
//
// Any payload may carry an "error" key. Its presence, whatever its value,
// marks the verifier itself as failed. Failed results still count towards
// completion but are excluded from both sides of the weighted average, so an
// infrastructure failure never reads as evidence against the claim.
//
// # Scoring
//
//	weather:  confirmed 0.8 | unconfirmed 0.2 | anything else 0.5
//	nlp:      mean(urgency, sentiment), each through an ordinal table:
//	            urgency    Low 0.3 | Medium 0.5 | High 0.7 | Critical 0.9
//	            sentiment  Calm 0.3 | Informative 0.5 | Worried 0.7 | Panicked 0.9
//	          unknown ordinals score 0.5; is_hazard=false scores 0.2
//	peer:     0.5 until a corroboration rubric exists
//
// The final score is the weighted mean over non-failed sources, rounded to two
// decimals. Levels: ≥0.8 High, ≥0.6 Medium, ≥0.4 Low, otherwise Very Low.
package domain
