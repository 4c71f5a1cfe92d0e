// Package watcher keeps an index in sync with the file system using fsnotify.
//
// A Watcher adds a watch for every non-ignored directory under each root,
// adds watches for directories created later, and forwards settled changes
// to a ChangeHandler such as *index.Indexer:
//
//	w, err := watcher.New(ix, detector, nil)
//	if err != nil {
//	    return err
//	}
//	defer w.Stop()
//
//	if err := w.AddRoot("/src/project"); err != nil {
//	    return err
//	}
//	if err := w.Start(ctx); err != nil {
//	    return err
//	}
//
// # Debouncing
//
// Events are collected per path until no new event has arrived for the
// debounce interval. A create followed by writes is still reported as a
// create; a final remove wins over everything before it. Files found in a
// newly created directory are reported as creates.
package watcher
