// Package health aggregates component checks for the read API.
//
// GET /health reports liveness and the build version. GET /ready runs every
// registered check (storage reachability, ontology loaded, scheduler
// running) concurrently, each bounded by a timeout, and answers 503 when
// any of them fails.
//
//	checker := health.New(version, 2*time.Second)
//	checker.Register("storage", func(ctx context.Context) error {
//	    _, err := store.ListTDEs(ctx)
//	    return err
//	})
package health
