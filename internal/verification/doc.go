// Package verification runs the claim lifecycle: the Coordinator persists a
// submission and fans it out to verifiers, the Collector fans their results
// back in and fires completion exactly once, the StatusEngine applies the
// resulting confidence, and the Reconciler re-dispatches work that never
// came back.
//
// All completion state lives in the domain.ClaimStore, never in process
// memory, so any number of instances may consume the same topics.
package verification
