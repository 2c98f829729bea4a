// Package export provides outbound integrations for scan results.
//
// Two surfaces are implemented:
//   - JSONLExporter writes the finding stream as JSON Lines, the
//     interchange format downstream tooling consumes
//   - SlackExporter posts high-priority highlights to an incoming
//     webhook so triage can start before anyone opens the full report
//
// Design decision: We export the raw Finding stream rather than the
// aggregated report because:
// 1. Fingerprints make the stream self-deduplicating for consumers
// 2. Line-oriented output supports appending across sessions
// 3. Consumers that want aggregates can fold the stream themselves
package export
