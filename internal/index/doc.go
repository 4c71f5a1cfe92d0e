// Package index maintains an in-memory, queryable index of the symbols,
// references, relations and files found under a set of root directories.
//
// # Basic Usage
//
//	ix := index.New(detector, parsers, &index.Options{Snippets: snippets})
//	defer ix.Shutdown()
//
//	if err := ix.Initialize([]string{"/path/to/project"}); err != nil {
//	    log.Fatal(err)
//	}
//	_ = ix.WaitIdle(ctx)
//
//	for _, res := range ix.Search("Parse", 20) {
//	    fmt.Println(res.FilePath, res.Line, res.Name)
//	}
//
// The detector and parser factory are collaborators described by the
// LanguageDetector and ParserFactory interfaces; the index never inspects
// source text itself.
//
// # Task Pipeline
//
// All mutations flow through a FIFO task queue consumed by a single worker
// goroutine:
//
//  1. index-directory: walk a root, queue one index-file task per file the detector keeps
//  2. index-file: read, detect language, parse, then merge the outcome under the data lock
//  3. update-file: drop the file's data, then index it again
//  4. remove-file: drop everything the file contributed
//
// Tasks are never reordered, merged or dropped. Shutdown lets the worker drain
// the queue before it exits. A panic while processing a task is recovered,
// logged and counted in Stats.
//
// # Consistency
//
// One RWMutex guards every store. The worker takes it only to merge or remove
// one file; parsing and disk reads happen outside it. Each query holds it for
// its own duration and returns deep copies in a deterministic order.
//
// A file's symbols are replaced as a unit: the FileRecord always lists exactly
// the ids of the most recent successful parse. Parent links survive only when
// the parent comes from the same file, and ChildIDs are derived from them.
//
// # Live Updates
//
// HandleFileChange turns filesystem events into tasks for paths under a
// registered root. Listeners registered with RegisterUpdateCallback are told
// about every file merged into the index:
//
//	id := ix.RegisterUpdateCallback(index.UpdateListenerFunc(func(u index.Update) {
//	    log.Printf("indexed %s: %d symbols", u.Path, u.Symbols)
//	}))
//	defer ix.UnregisterUpdateCallback(id)
package index
