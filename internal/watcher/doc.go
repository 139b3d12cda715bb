// Package watcher keeps the index current by reindexing after file changes.
//
// Events come from fsnotify, or from a polling walk where fsnotify is not
// available (network mounts, some container volumes). Only files the
// indexer would pick up are considered: supported extensions outside the
// excluded and hidden paths. Bursts are debounced and each quiet period
// triggers one full reindex.
//
// Usage:
//
//	w, err := watcher.NewHybridWatcher(opts)
//	if err != nil {
//	    return err
//	}
//	defer w.Stop()
//
//	go w.Start(ctx, root)
//	return watcher.NewAutoReindexer(w, ix.Reindex, logger).Run(ctx)
package watcher
