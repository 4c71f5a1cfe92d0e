package index

import (
	"bytes"
	"context"
	"errors"
	"log"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/dshills/codeindex/pkg/types"
)

// IndexerTestSuite runs the engine end to end against a temporary root
type IndexerTestSuite struct {
	suite.Suite
	root   string
	ix     *Indexer
	parser *lineParser
}

func TestIndexerSuite(t *testing.T) {
	suite.Run(t, new(IndexerTestSuite))
}

// SetupTest runs before each test
func (s *IndexerTestSuite) SetupTest() {
	root, err := filepath.Abs(s.T().TempDir())
	s.Require().NoError(err)
	s.root = root
	s.ix, s.parser = newTestIndexer(s.T())
}

func (s *IndexerTestSuite) write(name, content string) string {
	return createTestFile(s.T(), s.root, name, content)
}

func (s *IndexerTestSuite) index() {
	s.Require().NoError(s.ix.Initialize([]string{s.root}))
	waitIdle(s.T(), s.ix)
}

// TestThreeFileScenario tests a definition in one file referenced from another
func (s *IndexerTestSuite) TestThreeFileScenario() {
	s.write("a.cpp", "def Foo class\n")
	b := s.write("b.cpp", "\n\nref Foo\n")
	s.write("c.cpp", "def Bar\n")

	s.index()

	foos := s.ix.FindSymbolsByName("Foo", true)
	s.Require().Len(foos, 1)
	s.Equal(types.KindClass, foos[0].Kind)

	var inB []types.Reference
	for _, ref := range s.ix.GetSymbolReferences("Foo") {
		if ref.FilePath == b {
			inB = append(inB, ref)
		}
	}
	s.Require().Len(inB, 1)
	s.Equal(3, inB[0].Line)
	s.False(inB[0].IsDefinition)

	s.Len(s.ix.GetAllFiles(), 3)
	s.Equal(1.0, s.ix.GetIndexingProgress())
	s.Equal(StateIdle, s.ix.State())
}

// TestFindSymbolsByTypeAcrossFiles tests the kind index with several symbols per kind
func (s *IndexerTestSuite) TestFindSymbolsByTypeAcrossFiles() {
	s.write("a.cpp", "def Widget class\ndef render\n")
	b := s.write("b.cpp", "def Gadget class\ndef Config struct\n")
	s.index()

	s.Equal([]string{"Gadget", "Widget"}, symbolIDs(s.ix.FindSymbolsByType(types.KindClass)))
	s.Equal([]string{"Config"}, symbolIDs(s.ix.FindSymbolsByType(types.KindStruct)))
	s.Equal([]string{"render"}, symbolIDs(s.ix.FindSymbolsByType(types.KindFunction)))
	s.Empty(s.ix.FindSymbolsByType(types.KindEnum))

	s.True(s.ix.HandleFileChange(b, false, true))
	waitIdle(s.T(), s.ix)
	s.Equal([]string{"Widget"}, symbolIDs(s.ix.FindSymbolsByType(types.KindClass)))
	s.Empty(s.ix.FindSymbolsByType(types.KindStruct))
}

// TestFileRecordTracksOwnedSymbols tests the owned symbol set and metadata
func (s *IndexerTestSuite) TestFileRecordTracksOwnedSymbols() {
	a := s.write("a.cpp", "def One\ndef Two\n")
	s.index()

	rec, ok := s.ix.GetFileInfo(a)
	s.Require().True(ok)
	s.ElementsMatch([]string{"One", "Two"}, rec.Symbols)
	s.Equal("cpp", rec.Language)
	s.Equal("cpp", rec.Metadata[types.MetaLanguage])
	s.NotEmpty(rec.Metadata[types.MetaLastIndexed])
	s.NotEmpty(rec.Hash)
	s.EqualValues(len("def One\ndef Two\n"), rec.SizeBytes)

	// Rewrite with a different symbol set; the record must follow exactly
	s.Require().NoError(os.WriteFile(a, []byte("def Two\ndef Three\n"), 0644))
	s.True(s.ix.HandleFileChange(a, false, false))
	waitIdle(s.T(), s.ix)

	rec, ok = s.ix.GetFileInfo(a)
	s.Require().True(ok)
	s.ElementsMatch([]string{"Two", "Three"}, rec.Symbols)
	_, found := s.ix.GetSymbol("One")
	s.False(found)
}

// TestReindexUnchangedFileIsIdempotent tests that indexing the same content twice changes nothing
func (s *IndexerTestSuite) TestReindexUnchangedFileIsIdempotent() {
	a := s.write("a.cpp", "def Outer class\nchild Inner Outer\nref Other\ncall Inner Outer\n")
	s.write("b.cpp", "def Other\n")
	s.index()
	before := s.ix.Snapshot()

	s.True(s.ix.HandleFileChange(a, false, false))
	waitIdle(s.T(), s.ix)
	s.True(s.ix.HandleFileChange(a, true, false))
	waitIdle(s.T(), s.ix)
	after := s.ix.Snapshot()

	s.Equal(before.Symbols, after.Symbols)
	s.Equal(before.References, after.References)
	s.Equal(before.Relations, after.Relations)
}

// TestParentLinksStayInsideOneFile tests the parent/child invariant
func (s *IndexerTestSuite) TestParentLinksStayInsideOneFile() {
	s.write("a.cpp", "def Outer class\nchild Inner Outer\n")
	s.write("b.cpp", "child Stray Outer\n")
	s.index()

	outer, ok := s.ix.GetSymbol("Outer")
	s.Require().True(ok)
	s.Equal([]string{"Inner"}, outer.ChildIDs)

	inner, ok := s.ix.GetSymbol("Inner")
	s.Require().True(ok)
	s.Equal("Outer", inner.ParentID)

	stray, ok := s.ix.GetSymbol("Stray")
	s.Require().True(ok)
	s.Empty(stray.ParentID, "parent from another file must be dropped")

	for _, sym := range s.ix.Snapshot().Symbols {
		if sym.ParentID == "" {
			continue
		}
		parent, ok := s.ix.GetSymbol(sym.ParentID)
		if !ok {
			continue
		}
		s.Contains(symbolIDs(s.ix.FindSymbolsInFile(parent.FilePath)), sym.ID)
	}
}

// TestRelationsQueriedByDirection tests outbound and inbound relation lookups
func (s *IndexerTestSuite) TestRelationsQueriedByDirection() {
	s.write("a.cpp", "def Main\ndef Helper\ncall Main Helper\n")
	s.index()

	out := s.ix.GetSymbolRelations("Main", types.RelationAny, false)
	s.Require().Len(out, 1)
	s.Equal("Helper", out[0].TargetID)

	in := s.ix.GetSymbolRelations("Helper", types.RelationCalls, true)
	s.Require().Len(in, 1)
	s.Equal("Main", in[0].SourceID)

	s.Empty(s.ix.GetSymbolRelations("Main", types.RelationInheritsFrom, false))
	s.Empty(s.ix.GetSymbolRelations("Helper", types.RelationAny, false))
}

// TestRemovingFileSweepsRelationsFromOtherFiles tests relation cleanup by endpoint
func (s *IndexerTestSuite) TestRemovingFileSweepsRelationsFromOtherFiles() {
	a := s.write("a.cpp", "def Helper\n")
	s.write("b.cpp", "def Main\ncall Main Helper\n")
	s.index()
	s.Len(s.ix.GetSymbolRelations("Main", types.RelationAny, false), 1)

	s.True(s.ix.HandleFileChange(a, false, true))
	waitIdle(s.T(), s.ix)

	s.Empty(s.ix.GetSymbolRelations("Main", types.RelationAny, false))
	_, ok := s.ix.GetSymbol("Main")
	s.True(ok)
}

// TestCreateThenDelete tests an index-file followed by a remove-file for the same path
func (s *IndexerTestSuite) TestCreateThenDelete() {
	s.index()

	p := s.write("new.cpp", "def Fresh\n")
	s.True(s.ix.HandleFileChange(p, true, false))
	s.True(s.ix.HandleFileChange(p, false, true))
	waitIdle(s.T(), s.ix)

	_, ok := s.ix.GetFileInfo(p)
	s.False(ok)
	_, ok = s.ix.GetSymbol("Fresh")
	s.False(ok)
	s.Empty(s.ix.GetSymbolReferences("Fresh"))
}

// TestDeletedDirectoryDropsFilesBelowIt tests a delete event for a directory path
func (s *IndexerTestSuite) TestDeletedDirectoryDropsFilesBelowIt() {
	s.write("keep.cpp", "def Keep\n")
	s.write("gen/one.cpp", "def One\n")
	s.write("gen/deep/two.cpp", "def Two\n")
	s.write("generated.cpp", "def Generated\n")
	s.index()
	s.Len(s.ix.GetAllFiles(), 4)

	gen := filepath.Join(s.root, "gen")
	s.Require().NoError(os.RemoveAll(gen))
	s.True(s.ix.HandleFileChange(gen, false, true))
	waitIdle(s.T(), s.ix)

	var names []string
	for _, f := range s.ix.GetAllFiles() {
		names = append(names, filepath.Base(f.Path))
	}
	s.Equal([]string{"generated.cpp", "keep.cpp"}, names)
	_, ok := s.ix.GetSymbol("Two")
	s.False(ok)
	s.Equal(2, s.ix.Stats().FilesRemoved)
}

// TestHandleFileChangeOutsideRoots tests that unrelated paths are ignored
func (s *IndexerTestSuite) TestHandleFileChangeOutsideRoots() {
	s.index()

	other := createTestFile(s.T(), s.T().TempDir(), "x.cpp", "def X\n")
	s.False(s.ix.HandleFileChange(other, true, false))

	// A sibling directory sharing the root as a string prefix is not under it
	sibling := s.root + "-sibling"
	s.Require().NoError(os.MkdirAll(sibling, 0755))
	s.T().Cleanup(func() { _ = os.RemoveAll(sibling) })
	s.False(s.ix.HandleFileChange(filepath.Join(sibling, "y.cpp"), true, false))
}

// TestAddRemoveRoot tests that removing a root drops everything beneath it
func (s *IndexerTestSuite) TestAddRemoveRoot() {
	s.write("top.cpp", "def Top\n")
	s.write("sub/deep.cpp", "def Deep\nref Top\n")
	s.index()
	s.Len(s.ix.GetAllFiles(), 2)

	s.Require().NoError(s.ix.RemoveRootDirectory(s.root))

	s.Empty(s.ix.GetRootDirectories())
	s.Empty(s.ix.GetAllFiles())
	s.Empty(s.ix.FindSymbolsByName("", false))
	s.Empty(s.ix.GetSymbolReferences("Top"))
	s.Empty(s.ix.Snapshot().References)
}

// TestRemoveRootKeepsNestedRoot tests that files still covered by another root survive
func (s *IndexerTestSuite) TestRemoveRootKeepsNestedRoot() {
	s.write("top.cpp", "def Top\n")
	deep := s.write("sub/deep.cpp", "def Deep\n")
	s.index()
	s.Require().NoError(s.ix.AddRootDirectory(filepath.Join(s.root, "sub")))
	waitIdle(s.T(), s.ix)

	s.Require().NoError(s.ix.RemoveRootDirectory(s.root))

	files := s.ix.GetAllFiles()
	s.Require().Len(files, 1)
	s.Equal(deep, files[0].Path)
}

// TestRemoveUnknownRoot tests the error for an unregistered root
func (s *IndexerTestSuite) TestRemoveUnknownRoot() {
	err := s.ix.RemoveRootDirectory(s.root)
	s.ErrorIs(err, ErrRootNotFound)
}

// TestAddRootIsIdempotent tests that a root is registered once
func (s *IndexerTestSuite) TestAddRootIsIdempotent() {
	s.Require().NoError(s.ix.AddRootDirectory(s.root))
	s.Require().NoError(s.ix.AddRootDirectory(s.root + string(filepath.Separator)))
	s.Equal([]string{s.root}, s.ix.GetRootDirectories())
}

// TestInitializeRejectsInvalidRoot tests that nothing is registered when one root is bad
func (s *IndexerTestSuite) TestInitializeRejectsInvalidRoot() {
	file := s.write("plain.cpp", "def P\n")

	err := s.ix.Initialize([]string{s.root, filepath.Join(s.root, "missing")})
	s.ErrorIs(err, ErrInvalidRoot)
	s.Empty(s.ix.GetRootDirectories())

	err = s.ix.AddRootDirectory(file)
	s.ErrorIs(err, ErrInvalidRoot)
	s.Empty(s.ix.GetRootDirectories())
	s.False(s.ix.IsIndexing())
}

// TestIgnoredAndUnknownFiles tests detector driven skipping
func (s *IndexerTestSuite) TestIgnoredAndUnknownFiles() {
	s.write("kept.cpp", "def Kept\n")
	s.write(".hidden/secret.cpp", "def Secret\n")
	s.write("ignored/skip.cpp", "def Skip\n")
	s.write("build/out.o", "binary")
	s.write("README.md", "# nothing\n")
	s.write("notes.txt", "def Text\n")
	s.write("run", "#!/bin/sh\ndef Script\n")

	s.index()

	paths := make([]string, 0)
	for _, f := range s.ix.GetAllFiles() {
		paths = append(paths, filepath.Base(f.Path))
	}
	s.ElementsMatch([]string{"kept.cpp", "run"}, paths)

	scripts := s.ix.FindFilesByLanguage("bash")
	s.Require().Len(scripts, 1)
	s.Equal("run", filepath.Base(scripts[0].Path))

	stats := s.ix.Stats()
	s.Equal(4, stats.FilesScanned)
	s.Equal(2, stats.FilesIndexed)
	s.Equal(2, stats.FilesSkipped)
}

// TestParseFailure tests that a failing parse leaves earlier data alone
func (s *IndexerTestSuite) TestParseFailure() {
	good := s.write("good.cpp", "def Good\n")
	s.write("bad.cpp", "def Bad\nfail\n")
	s.index()

	_, ok := s.ix.GetSymbol("Bad")
	s.False(ok, "no partial insertion on failure")
	s.Equal(1, s.ix.Stats().FilesFailed)
	s.Equal(1.0, s.ix.GetIndexingProgress())

	// index-file keeps the previous data on failure
	s.Require().NoError(os.WriteFile(good, []byte("def Good\nfail\n"), 0644))
	s.True(s.ix.HandleFileChange(good, true, false))
	waitIdle(s.T(), s.ix)
	_, ok = s.ix.GetSymbol("Good")
	s.True(ok)

	// update-file removes first, so a failed update leaves nothing
	s.True(s.ix.HandleFileChange(good, false, false))
	waitIdle(s.T(), s.ix)
	_, ok = s.ix.GetSymbol("Good")
	s.False(ok)
}

// TestPanickingParserDoesNotKillWorker tests the recover boundary
func (s *IndexerTestSuite) TestPanickingParserDoesNotKillWorker() {
	s.write("boom.cpp", "panic\n")
	s.write("fine.cpp", "def Fine\n")
	s.index()

	_, ok := s.ix.GetSymbol("Fine")
	s.True(ok)
	s.Equal(1, s.ix.Stats().PanicsRecovered)
	s.Equal(1.0, s.ix.GetIndexingProgress())

	// The worker keeps serving tasks afterwards
	late := s.write("late.cpp", "def Late\n")
	s.True(s.ix.HandleFileChange(late, true, false))
	waitIdle(s.T(), s.ix)
	_, ok = s.ix.GetSymbol("Late")
	s.True(ok)
}

// TestFullReindexClearsImmediately tests that Reindex(false) empties the index before rescanning
func (s *IndexerTestSuite) TestFullReindexClearsImmediately() {
	s.write("a.cpp", "def Foo\n")
	s.index()
	_, ok := s.ix.GetSymbol("Foo")
	s.Require().True(ok)

	s.parser.hold()
	s.Require().NoError(s.ix.Reindex(false))

	_, ok = s.ix.GetSymbol("Foo")
	s.False(ok)
	s.Empty(s.ix.GetAllFiles())
	s.Equal(0.0, s.ix.GetIndexingProgress())

	s.parser.release()
	waitIdle(s.T(), s.ix)
	_, ok = s.ix.GetSymbol("Foo")
	s.True(ok)
}

// TestIncrementalReindexKeepsData tests that Reindex(true) does not clear
func (s *IndexerTestSuite) TestIncrementalReindexKeepsData() {
	s.write("a.cpp", "def Foo\n")
	s.index()

	s.parser.hold()
	s.Require().NoError(s.ix.Reindex(true))
	_, ok := s.ix.GetSymbol("Foo")
	s.True(ok)

	s.parser.release()
	waitIdle(s.T(), s.ix)
	_, ok = s.ix.GetSymbol("Foo")
	s.True(ok)
}

// TestReindexWhileBusy tests the in-progress guard
func (s *IndexerTestSuite) TestReindexWhileBusy() {
	s.write("a.cpp", "def Foo\n")
	s.parser.hold()
	s.Require().NoError(s.ix.Initialize([]string{s.root}))

	s.Eventually(func() bool { return s.parser.callCount() > 0 }, 5*time.Second, 5*time.Millisecond)
	s.True(s.ix.IsIndexing())
	s.Equal(StateIndexing, s.ix.State())
	s.ErrorIs(s.ix.Reindex(false), ErrIndexingInProgress)

	s.parser.release()
	waitIdle(s.T(), s.ix)
	s.NoError(s.ix.Reindex(true))
	waitIdle(s.T(), s.ix)
}

// TestCallbacks tests listener notification and removal
func (s *IndexerTestSuite) TestCallbacks() {
	var mu sync.Mutex
	var updates []Update
	id := s.ix.RegisterUpdateCallback(UpdateListenerFunc(func(u Update) {
		mu.Lock()
		defer mu.Unlock()
		updates = append(updates, u)
	}))

	a := s.write("a.cpp", "def A\nref B\ncall A B\n")
	s.index()

	mu.Lock()
	s.Require().Len(updates, 1)
	s.Equal(Update{Path: a, Language: "cpp", Symbols: 1, References: 2, Relations: 1}, updates[0])
	mu.Unlock()

	s.ix.UnregisterUpdateCallback(id)
	s.True(s.ix.HandleFileChange(a, false, false))
	waitIdle(s.T(), s.ix)

	mu.Lock()
	s.Len(updates, 1)
	mu.Unlock()
}

// TestSearchOrderAndCap tests that symbol hits precede file hits and the cap holds
func (s *IndexerTestSuite) TestSearchOrderAndCap() {
	s.write("alpha.cpp", "def alphaTwo\ndef alphaOne\n")
	s.write("beta.cpp", "def gamma\n")
	s.index()

	results := s.ix.Search("alpha", 10)
	s.Require().Len(results, 3)
	s.Equal(types.ResultSymbol, results[0].Type)
	s.Equal("alphaOne", results[0].Name)
	s.Equal("alphaTwo", results[1].Name)
	s.Equal(types.ResultFile, results[2].Type)
	s.Equal("alpha.cpp", results[2].Name)
	s.Equal("file", results[2].Kind)
	for _, r := range results {
		s.NoError(r.Validate())
	}

	s.Len(s.ix.Search("alpha", 2), 2)
	s.Equal(types.ResultSymbol, s.ix.Search("alpha", 1)[0].Type)
	s.Empty(s.ix.Search("alpha", 0))
	s.Empty(s.ix.Search("nothing-matches", 5))

	files := s.ix.Search("beta", 5)
	s.Require().Len(files, 1)
	s.Equal(types.ResultFile, files[0].Type)
}

// TestShutdownDrainsQueue tests that queued tasks are processed before the worker exits
func (s *IndexerTestSuite) TestShutdownDrainsQueue() {
	s.index()

	var notified atomic.Int32
	s.ix.RegisterUpdateCallback(UpdateListenerFunc(func(Update) { notified.Add(1) }))

	s.parser.hold()
	const n = 5
	for i := 0; i < n; i++ {
		p := s.write(filepath.Join("q", string(rune('a'+i))+".cpp"), "def Q\n")
		s.Require().True(s.ix.HandleFileChange(p, true, false))
	}

	done := make(chan struct{})
	go func() {
		s.ix.Shutdown()
		close(done)
	}()

	s.Eventually(func() bool { return s.ix.State() == StateShuttingDown }, 5*time.Second, 5*time.Millisecond)
	s.ErrorIs(s.ix.AddRootDirectory(s.root), ErrShutdown)
	s.False(s.ix.HandleFileChange(filepath.Join(s.root, "q", "z.cpp"), true, false))

	s.parser.release()
	<-done

	s.EqualValues(n, notified.Load())
	s.Equal(StateTerminated, s.ix.State())
	s.Empty(s.ix.GetAllFiles())
	s.ErrorIs(s.ix.Reindex(true), ErrShutdown)
}

// TestConcurrentReadersSeeWholeRecords tests that readers never observe partial file records
func TestConcurrentReadersSeeWholeRecords(t *testing.T) {
	root := t.TempDir()
	for i := 0; i < 40; i++ {
		createTestFile(t, root, filepath.Join("pkg", string(rune('a'+i%26))+string(rune('a'+i/26))+".cpp"),
			"def S"+string(rune('A'+i%26))+string(rune('a'+i/26))+"\nref Other\n")
	}

	ix, _ := newTestIndexer(t)
	require.NoError(t, ix.Initialize([]string{root}))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var wg sync.WaitGroup
	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for ix.IsIndexing() {
				for _, rec := range ix.GetAllFiles() {
					assert.Equal(t, "cpp", rec.Language)
					assert.Equal(t, rec.Language, rec.Metadata[types.MetaLanguage])
					assert.Len(t, rec.Symbols, 1)
				}
				p := ix.GetIndexingProgress()
				assert.GreaterOrEqual(t, p, 0.0)
				assert.LessOrEqual(t, p, 1.0)
			}
		}()
	}

	require.NoError(t, ix.WaitIdle(ctx))
	wg.Wait()
	assert.Len(t, ix.GetAllFiles(), 40)
}

// vanishingDetector deletes victim the first time the walk asks about trigger
type vanishingDetector struct {
	fakeDetector
	trigger string
	victim  string
	once    sync.Once
}

func (d *vanishingDetector) ShouldIgnoreFile(path string) bool {
	if path == d.trigger {
		d.once.Do(func() { _ = os.RemoveAll(d.victim) })
	}
	return d.fakeDetector.ShouldIgnoreFile(path)
}

// TestScanContinuesPastFailingDirectory tests that a directory that fails
// mid-walk is logged and its siblings are still indexed
func TestScanContinuesPastFailingDirectory(t *testing.T) {
	root, err := filepath.Abs(t.TempDir())
	require.NoError(t, err)
	one := createTestFile(t, root, filepath.Join("a", "one.cpp"), "def One\n")
	createTestFile(t, root, filepath.Join("b", "two.cpp"), "def Two\n")
	three := createTestFile(t, root, filepath.Join("c", "three.cpp"), "def Three\n")

	// Entries are walked in lexical order, so b is listed before it disappears
	detector := &vanishingDetector{
		trigger: filepath.Join(root, "a"),
		victim:  filepath.Join(root, "b"),
	}
	var logs bytes.Buffer
	ix := New(detector, fakeFactory{parser: &lineParser{}}, &Options{Logger: log.New(&logs, "", 0)})
	defer ix.Shutdown()

	require.NoError(t, ix.Initialize([]string{root}))
	waitIdle(t, ix)

	var paths []string
	for _, rec := range ix.GetAllFiles() {
		paths = append(paths, rec.Path)
	}
	assert.ElementsMatch(t, []string{one, three}, paths)
	_, ok := ix.GetSymbol("Three")
	assert.True(t, ok)
	_, ok = ix.GetSymbol("Two")
	assert.False(t, ok)
	assert.Contains(t, logs.String(), "index: scan "+filepath.Join(root, "b"))
}

// TestProgressBeforeWork tests the progress fraction of a fresh indexer
func TestProgressBeforeWork(t *testing.T) {
	ix, _ := newTestIndexer(t)

	assert.Equal(t, 0.0, ix.GetIndexingProgress())
	assert.Equal(t, StateCreated, ix.State())
	assert.False(t, ix.IsIndexing())
	assert.NoError(t, ix.WaitIdle(context.Background()))
}

// TestShutdownIsIdempotent tests repeated Shutdown calls
func TestShutdownIsIdempotent(t *testing.T) {
	ix, _ := newTestIndexer(t)
	ix.Shutdown()
	ix.Shutdown()
	assert.Equal(t, StateTerminated, ix.State())
	assert.True(t, errors.Is(ix.Initialize(nil), ErrShutdown))
}

// TestSnippetsInvalidatedOnChange tests that the snippet provider follows index changes
func TestSnippetsInvalidatedOnChange(t *testing.T) {
	root := t.TempDir()
	a := createTestFile(t, root, "a.cpp", "def Foo\n")

	snippets := &recordingSnippets{}
	p := &lineParser{}
	ix := New(fakeDetector{}, fakeFactory{parser: p}, &Options{Snippets: snippets})
	defer ix.Shutdown()

	require.NoError(t, ix.Initialize([]string{root}))
	waitIdle(t, ix)

	results := ix.Search("Foo", 1)
	require.Len(t, results, 1)
	assert.Equal(t, "a.cpp:#", results[0].Snippet)

	require.True(t, ix.HandleFileChange(a, false, true))
	waitIdle(t, ix)

	snippets.mu.Lock()
	assert.Contains(t, snippets.invalidated, a)
	snippets.mu.Unlock()

	require.NoError(t, ix.Reindex(false))
	waitIdle(t, ix)
	snippets.mu.Lock()
	assert.Equal(t, 1, snippets.purged)
	snippets.mu.Unlock()
}
