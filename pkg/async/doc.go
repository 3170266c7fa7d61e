// Package async provides typed futures and a task group for background work.
//
// Async starts a computation and returns a Future:
//
//	f := async.Async(ctx, order, sendReceipt)
//	receipt, err := f.Await()
//
// Group runs fire-and-forget tasks that must survive the request that
// started them but still finish before the process exits:
//
//	g := async.NewGroup(30 * time.Second)
//	g.Go(r.Context(), notify)
//	...
//	_ = g.Wait(shutdownCtx)
package async
