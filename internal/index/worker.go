package index

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/dshills/codeindex/pkg/types"
)

// run is the worker loop. It exits once shutdown was requested and the queue is empty.
func (ix *Indexer) run() {
	defer close(ix.workerDone)

	for {
		task, ok := ix.queue.pop()
		if !ok {
			return
		}
		ix.dispatch(task)
		ix.queue.done()
	}
}

// dispatch runs one task inside a recover boundary
func (ix *Indexer) dispatch(task Task) {
	defer func() {
		if r := recover(); r != nil {
			ix.logger.Printf("index: recovered panic in %s %s: %v", task.Kind, task.Path, r)
			ix.mu.Lock()
			ix.stats.PanicsRecovered++
			ix.mu.Unlock()
		}
		ix.mu.Lock()
		ix.stats.TasksProcessed++
		ix.mu.Unlock()
	}()

	switch task.Kind {
	case TaskIndexDirectory:
		ix.indexDirectory(task.Path)
	case TaskIndexFile:
		defer ix.fileTaskDone()
		ix.indexFile(task, false)
	case TaskUpdateFile:
		defer ix.fileTaskDone()
		ix.indexFile(task, true)
	case TaskRemoveFile:
		ix.removeFile(task.Path)
	default:
		ix.logger.Printf("index: unknown task %s for %s", task.Kind, task.Path)
	}
}

func (ix *Indexer) fileTaskDone() {
	ix.mu.Lock()
	ix.progress.fileDone()
	ix.mu.Unlock()
}

// covered reports whether path is still under a registered root. Tasks for
// roots removed after they were queued are skipped.
func (ix *Indexer) covered(path string) bool {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.coveredLocked(path)
}

// indexDirectory walks dir and queues an index-file task per file that the
// detector does not ignore. Unreadable entries are logged and skipped.
func (ix *Indexer) indexDirectory(dir string) {
	if !ix.covered(dir) {
		return
	}

	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			ix.logger.Printf("index: scan %s: %v", path, err)
			return nil
		}
		if d.IsDir() {
			if path != dir && ix.detector.ShouldIgnoreFile(path) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if ix.detector.ShouldIgnoreFile(path) {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		ix.logger.Printf("index: scan %s: %v", dir, err)
	}

	ix.mu.Lock()
	ix.progress.addTotal(len(files))
	ix.stats.FilesScanned += len(files)
	ix.mu.Unlock()

	for _, path := range files {
		ix.queue.push(Task{Kind: TaskIndexFile, Path: path})
	}
}

// indexFile parses one file and merges the outcome. With replace set the
// file's previous data is dropped before parsing, so a failed update leaves
// nothing behind; otherwise a failure keeps what was indexed before.
func (ix *Indexer) indexFile(task Task, replace bool) {
	path := task.Path
	if !ix.covered(path) {
		ix.countSkipped()
		return
	}

	if replace {
		ix.removeFile(path)
	}

	content := task.Content
	if content == nil {
		data, err := os.ReadFile(path)
		if err != nil {
			ix.logger.Printf("index: read %s: %v", path, err)
			ix.countFailed()
			return
		}
		content = data
	}

	lang, ok := ix.detector.DetectLanguageFromPath(path)
	if !ok {
		lang, ok = ix.detector.DetectLanguageFromContent(content, path)
	}
	if !ok {
		ix.countSkipped()
		return
	}

	parser, ok := ix.parsers.CreateParserForLanguage(lang.ID)
	if !ok {
		ix.countSkipped()
		return
	}

	outcome, err := parser.ParseFile(path, content)
	if err == nil && outcome == nil {
		err = fmt.Errorf("%w: parser returned no outcome", types.ErrParseFailed)
	}
	if err != nil {
		ix.logger.Printf("index: parse %s: %v", path, err)
		ix.countFailed()
		return
	}

	entry := fileEntry{
		path:      path,
		language:  lang.ID,
		sizeBytes: int64(len(content)),
		hash:      fmt.Sprintf("%016x", xxhash.Sum64(content)),
		indexedAt: time.Now(),
		outcome:   outcome,
	}

	ix.mu.Lock()
	if !ix.coveredLocked(path) {
		ix.stats.FilesSkipped++
		ix.mu.Unlock()
		return
	}
	res := ix.data.merge(entry)
	ix.stats.FilesIndexed++
	ix.touchLocked()
	ix.mu.Unlock()

	if len(res.dropped) > 0 {
		ix.logger.Printf("index: %s: dropped %d entries: %s", path, len(res.dropped), summarize(res.dropped, 3))
	}

	ix.invalidateSnippets(path)
	ix.callbacks.notify(Update{
		Path:       path,
		Language:   lang.ID,
		Symbols:    res.symbols,
		References: res.references,
		Relations:  res.relations,
	})
}

// removeFile drops path from the index. A path with no record of its own is
// treated as a removed directory and every file below it is dropped.
func (ix *Indexer) removeFile(path string) {
	gone := []string{path}

	ix.mu.Lock()
	if ix.data.removeFile(path) {
		ix.stats.FilesRemoved++
	} else {
		gone = gone[:0]
		for file := range ix.data.files {
			if isUnder(file, path) {
				gone = append(gone, file)
			}
		}
		for _, file := range gone {
			ix.data.removeFile(file)
			ix.stats.FilesRemoved++
		}
	}
	if len(gone) > 0 {
		ix.touchLocked()
	}
	ix.mu.Unlock()

	ix.invalidateSnippets(gone...)
}

func (ix *Indexer) countSkipped() {
	ix.mu.Lock()
	ix.stats.FilesSkipped++
	ix.mu.Unlock()
}

func (ix *Indexer) countFailed() {
	ix.mu.Lock()
	ix.stats.FilesFailed++
	ix.mu.Unlock()
}

func summarize(msgs []string, limit int) string {
	if len(msgs) <= limit {
		return strings.Join(msgs, "; ")
	}
	return strings.Join(msgs[:limit], "; ") + fmt.Sprintf("; and %d more", len(msgs)-limit)
}
