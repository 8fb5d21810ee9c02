// Package investigation runs the daily governance cycle.
//
// One call to RunCycle performs, in order:
//
//  1. Outcome sweep: applied actions are checked against the previous
//     day's score, reinforced when the score improved, and removed.
//  2. Breach detection over the day's observations.
//  3. Risk scoring: criticality * (threshold - score) * TrendFactor.
//  4. Focus selection: the highest risk, ties to the first encountered.
//  5. Lineage trace to the producing artifact.
//  6. Risk scan of the artifact and semantic inference of the column.
//  7. Policy gap check of the rule description.
//  8. Remediation: suggestion, patch and a persisted pending action.
//
// Every step appends an event, so partial investigations leave a full
// audit trail. The orchestrator holds no state between calls: pending
// actions are the only thing carried from one day to the next.
package investigation
