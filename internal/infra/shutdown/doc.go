// Package shutdown coordinates graceful process termination.
//
// Hooks registered with OnShutdown run in reverse registration order once
// SIGINT or SIGTERM arrives or the parent context is cancelled. All hooks
// share one timeout.
//
//	h := shutdown.NewHandler(15*time.Second, log)
//	h.OnShutdown("store", func(ctx context.Context) error { return store.Close() })
//	err := h.Wait(ctx)
package shutdown
