// Package operations orchestrates the analysis pipeline: an eight-step
// run per uploaded file with a strict status state machine, partial
// failure isolation, and a durable job queue in front of it.
//
// A run moves its file pending -> processing -> completed or failed and
// never leaves it mid-flight: every fatal path lands on failed with a
// human-readable error list. Non-fatal problems (parse warnings, failed
// insight generation, failed metric batches) accumulate on the file
// record instead of aborting the run.
package operations
