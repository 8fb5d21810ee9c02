// Package governance defines the data model shared by every stage of the
// data-quality investigation cycle: governed business terms, quality rules,
// tracked data elements, daily scores, lineage, pending remediation actions
// and the immutable events that form the audit trail.
//
// # Entities
//
//   - BusinessTerm: a governed semantic concept with a criticality weight
//   - Rule: a quality threshold attached to one business term
//   - TrackedDataElement: a measured column that realizes a business term
//   - DailyScore: the quality score of one element on one calendar day
//   - LineageMapping and Artifact: the transformation that produces an element
//   - PendingAction: a proposed remediation awaiting external application
//   - Event: one immutable step of an investigation
//
// # Storage
//
// The Storage interface groups three narrower contracts (ReferenceStore,
// EventStore, ActionStore) so that each component depends only on the part
// of the store it needs. Implementations live in the storage subpackage.
//
// # Errors
//
// Errors follow a small taxonomy. StorageError wraps persistence failures and
// is fatal for the current cycle. ContractError reports a programming or
// request error (an unknown event kind, a malformed review request, an
// out-of-range score) and is returned before anything is written.
// ErrNotFound marks a missing lookup. Conditions such as "no breach today"
// are not errors at all.
package governance
