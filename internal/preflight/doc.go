// Package preflight checks that docsift can index a document root before a
// run starts: the root is readable, the data directory is writable and has
// free space, the process may open enough files, and the configured store
// backend opens.
//
//	checker := preflight.New()
//	results := checker.RunAll(ctx, cfg)
//	if checker.HasCriticalFailures(results) {
//	    // report and stop
//	}
package preflight
