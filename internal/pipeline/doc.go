// Package pipeline provides a framework for executing scan steps in sequence.
//
// The pipeline pattern is used to process a scan session through multiple
// stages: scope enumeration, crawling, persistence, report rendering, and
// export. Each stage is implemented as a Step that receives the shared
// ScanReport and can modify it.
//
// Design decision: We use a pipeline pattern instead of direct function calls
// because:
// 1. It allows easy addition/removal of steps without modifying core logic
// 2. It provides consistent error handling and logging across steps
// 3. It supports cancellation via context for long-running scans
// 4. With continue-on-error, a persistence or export failure still leaves
//    the operator with a rendered report of the crawl that succeeded
package pipeline
