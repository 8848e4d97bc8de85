// Package loadtest runs the accuracy-under-load sweep.
//
// # Overview
//
// An Evaluator classifies every (input, platform) pair once, with at most
// budget calls in flight, and scores each response against the expected
// labels. A Sweep repeats that evaluation for each configured load level
// and tags every record with the level it was produced under:
//
//	client := classifier.NewClient(classifier.DefaultConfig(), logger)
//	evaluator := loadtest.NewEvaluator(client, logger, loadtest.WithObserver(collector))
//	sweep := loadtest.NewSweep(evaluator, logger)
//
//	table, err := sweep.Run(ctx, items, platforms, []int{10, 50, 100})
//
// # Failures
//
// A failed classification never aborts a sweep. The classifier logs the
// failure and the evaluator records a degraded row (empty label set), so the
// table always holds inputs x platforms x levels rows. Only configuration
// errors (ErrInvalidConfig) and cancellation are returned as errors.
//
// # Cancellation
//
// Levels run strictly in sequence. The context is checked before each
// level; a cancelled sweep returns the records of the levels that finished
// together with ctx.Err().
//
// # Concurrency
//
// TaskPool bounds concurrency with a semaphore and collects results in
// completion order. Record order inside a level is therefore not stable;
// use SortRecords when a deterministic order is needed.
package loadtest
