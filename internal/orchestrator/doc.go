// Package orchestrator runs the tasks of a lesson session.
//
// The Executor walks a session's dependency graph and generates each task with
// an LLM provider. It provides:
//   - Sequential mode: tasks run one at a time in pipeline order
//   - Parallel mode: a coordinator goroutine feeds a fixed worker pool
//   - Retries: a failed attempt returns the task to pending until MaxRetries is reached
//   - Skip propagation: tasks whose dependencies failed or were skipped are skipped
//
// Only the coordinator mutates the session. Workers receive a self-contained job
// (prompt and parameters) and post an outcome back, so session state never needs
// a lock while a run is in progress.
//
// Example usage:
//
//	exec := orchestrator.New(manager, orchestrator.WithWorkers(3), orchestrator.WithSink(store))
//	err := exec.Run(ctx, sess, true, func(done, total int, status models.TaskStatus, msg string) {
//		fmt.Printf("%d/%d %s %s\n", done, total, status, msg)
//	})
package orchestrator
