// Package pipeline provides a framework for executing analysis steps in sequence.
//
// A crawl export goes through import, duplicate analysis, persistence and
// session cleanup. Each stage is implemented as a Step that receives the
// current session report and can modify it.
//
// Design decision: We use a pipeline pattern instead of direct function calls
// because:
// 1. It allows easy addition/removal of steps without modifying core logic
// 2. It provides consistent error handling and logging across steps
// 3. It supports cancellation via context for long-running analyses
//
// Two levels of concurrency are provided, both bounded with errgroup:
// BatchProcessor runs one pipeline per crawl export, and PageBatch runs the
// engine over the pages of one session.
package pipeline
