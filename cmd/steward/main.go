// Steward is a data-quality governance agent.
//
// Each day it reads quality scores for tracked data elements, picks the
// riskiest rule breach, traces it to the transformation that produces the
// data, looks for risky SQL patterns and policy gaps, and proposes a
// remediation. Applied remediations are verified against later scores.
//
// Usage:
//
//	# Create the schema and load reference data
//	steward init
//
//	# Run the cycle for base_date + 3 days
//	steward run 3
//
//	# Simulate ten days, merging every proposal
//	steward simulate --days 10 --auto-apply
//
//	# Serve the playback API with scheduled cycles
//	steward serve --config steward.yaml
//
//	# Serve the changeset review tool on stdio
//	steward mcp
package main

func main() {
	Execute()
}
