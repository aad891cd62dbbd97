package pipeline_test

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"

	"quark/internal/drive"
	"quark/internal/logging"
	"quark/internal/pipeline"
)

// fakeFS is an in-memory remote tree. Extract materializes a folder named
// after the archive (minus extension) unless the test overrides behavior.
type fakeFS struct {
	tree map[string][]drive.Node

	// extractFails maps archive id to how many Extract calls should fail
	// before succeeding.
	extractFails map[string]int
	moveErr      error
	deleteErr    error

	extractCalls map[string]int
	moveCalls    [][]string
	moveDests    []string
	deleteCalls  [][]string

	// extractCreates controls whether a successful Extract adds the derived
	// folder to the target listing.
	extractCreates bool
	// extractChildren seeds the children of a materialized folder.
	extractChildren map[string][]drive.Node

	nextID int
}

func newFakeFS(targetID string, archives ...drive.Node) *fakeFS {
	return &fakeFS{
		tree:            map[string][]drive.Node{targetID: archives},
		extractFails:    map[string]int{},
		extractCalls:    map[string]int{},
		extractCreates:  true,
		extractChildren: map[string][]drive.Node{},
	}
}

func (f *fakeFS) List(_ context.Context, parentID string) ([]drive.Node, error) {
	return append([]drive.Node{}, f.tree[parentID]...), nil
}

func (f *fakeFS) Move(_ context.Context, ids []string, destID string) error {
	if f.moveErr != nil {
		return f.moveErr
	}
	f.moveCalls = append(f.moveCalls, append([]string{}, ids...))
	f.moveDests = append(f.moveDests, destID)

	wanted := map[string]bool{}
	for _, id := range ids {
		wanted[id] = true
	}
	for parent, children := range f.tree {
		var kept, moved []drive.Node
		for _, child := range children {
			if wanted[child.ID] {
				moved = append(moved, child)
			} else {
				kept = append(kept, child)
			}
		}
		if len(moved) > 0 {
			f.tree[parent] = kept
			f.tree[destID] = append(f.tree[destID], moved...)
		}
	}
	return nil
}

func (f *fakeFS) Delete(_ context.Context, ids []string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleteCalls = append(f.deleteCalls, append([]string{}, ids...))
	wanted := map[string]bool{}
	for _, id := range ids {
		wanted[id] = true
	}
	for parent, children := range f.tree {
		var kept []drive.Node
		for _, child := range children {
			if !wanted[child.ID] {
				kept = append(kept, child)
			}
		}
		f.tree[parent] = kept
	}
	return nil
}

func (f *fakeFS) Extract(_ context.Context, archiveID, destID string) error {
	f.extractCalls[archiveID]++
	if remaining := f.extractFails[archiveID]; remaining > 0 {
		f.extractFails[archiveID] = remaining - 1
		return &drive.RemoteError{Kind: drive.KindBusiness, Op: "/archive/unarchive", Code: 41000, Message: "unarchive failed"}
	}
	if !f.extractCreates {
		return nil
	}

	var archive drive.Node
	for _, child := range f.tree[destID] {
		if child.ID == archiveID {
			archive = child
			break
		}
	}
	folderName := drive.FolderName(archive.Name)
	for _, child := range f.tree[destID] {
		if child.Dir && child.Name == folderName {
			return nil
		}
	}
	f.nextID++
	folderID := fmt.Sprintf("folder-%d", f.nextID)
	f.tree[destID] = append(f.tree[destID], drive.Node{ID: folderID, Name: folderName, Dir: true, ParentID: destID})
	f.tree[folderID] = f.extractChildren[archive.Name]
	return nil
}

func newTestPipeline(fs pipeline.RemoteFS) *pipeline.Pipeline {
	return pipeline.New(fs, pipeline.Timing{}, logging.NewNop(), nil)
}

const targetID = "dir-1"

func targetTree(fs *fakeFS) []string {
	var names []string
	for _, node := range fs.tree[targetID] {
		names = append(names, node.Name)
	}
	sort.Strings(names)
	return names
}

func TestRunNothingToDo(t *testing.T) {
	fs := newFakeFS(targetID, drive.Node{ID: "f1", Name: "readme.txt"})
	fs.tree[drive.RootID] = []drive.Node{{ID: targetID, Name: "downloads", Dir: true}}

	report, err := newTestPipeline(fs).Run(context.Background(), pipeline.RunConfig{TargetPath: "/downloads"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !report.NothingToDo {
		t.Fatal("expected nothing-to-do report")
	}
	if report.HasFailures() {
		t.Fatal("nothing-to-do must not be a failure")
	}
	if len(fs.extractCalls) != 0 {
		t.Fatalf("no extraction expected, got %v", fs.extractCalls)
	}
}

func TestRunAbortsOnUnresolvablePath(t *testing.T) {
	fs := newFakeFS(targetID)
	fs.tree[drive.RootID] = nil

	_, err := newTestPipeline(fs).Run(context.Background(), pipeline.RunConfig{TargetPath: "/missing"})
	var notFound *pipeline.PathNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected PathNotFoundError, got %v", err)
	}
	if len(fs.extractCalls) != 0 {
		t.Fatal("nothing may run after a failed resolve")
	}
}

func TestRunHappyPathOrganizesAndCleansUp(t *testing.T) {
	notes := drive.Node{ID: "arc-1", Name: "notes.zip", ParentID: targetID}
	fs := newFakeFS(targetID, notes)
	fs.tree[drive.RootID] = []drive.Node{{ID: targetID, Name: "downloads", Dir: true}}
	fs.extractChildren["notes.zip"] = []drive.Node{
		{ID: "c1", Name: "chapter1.txt"},
		{ID: "c2", Name: "chapter2.txt"},
	}

	report, err := newTestPipeline(fs).Run(context.Background(), pipeline.RunConfig{TargetPath: "/downloads"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.HasFailures() {
		t.Fatalf("unexpected failures: %+v", report.Failures)
	}

	if len(fs.moveCalls) != 1 {
		t.Fatalf("expected one batched move, got %v", fs.moveCalls)
	}
	if len(fs.moveCalls[0]) != 2 || fs.moveDests[0] != targetID {
		t.Fatalf("expected both children moved to target, got %v -> %v", fs.moveCalls[0], fs.moveDests[0])
	}
	if len(fs.deleteCalls) != 1 || fs.deleteCalls[0][0] != "folder-1" {
		t.Fatalf("expected organized folder deleted, got %v", fs.deleteCalls)
	}

	names := targetTree(fs)
	want := []string{"chapter1.txt", "chapter2.txt", "notes.zip"}
	if len(names) != len(want) {
		t.Fatalf("unexpected final tree: %v", names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("unexpected final tree: %v", names)
		}
	}

	if stage, ok := report.Stage(pipeline.StageCleanupSources); !ok || stage.Ran {
		t.Fatal("cleanup-sources must not run when the flag is unset")
	}
}

func TestRunExtractFailureIsolatedAndTerminalAfterRetry(t *testing.T) {
	notes := drive.Node{ID: "arc-1", Name: "notes.zip", ParentID: targetID}
	broken := drive.Node{ID: "arc-2", Name: "broken.rar", ParentID: targetID}
	fs := newFakeFS(targetID, notes, broken)
	fs.tree[drive.RootID] = []drive.Node{{ID: targetID, Name: "downloads", Dir: true}}
	fs.extractFails["arc-2"] = 2 // both passes fail

	report, err := newTestPipeline(fs).Run(context.Background(), pipeline.RunConfig{TargetPath: "/downloads"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if fs.extractCalls["arc-2"] != 2 {
		t.Fatalf("expected exactly one retry for broken.rar, got %d calls", fs.extractCalls["arc-2"])
	}
	if fs.extractCalls["arc-1"] != 1 {
		t.Fatalf("successful item must not be retried, got %d calls", fs.extractCalls["arc-1"])
	}

	stage, _ := report.Stage(pipeline.StageExtract)
	if stage.Succeeded != 1 || stage.Failed != 1 {
		t.Fatalf("unexpected extract stage report: %+v", stage)
	}
	if len(report.Failures) != 1 || report.Failures[0].Item != "broken.rar" || report.Failures[0].Stage != pipeline.StageExtract {
		t.Fatalf("unexpected failures: %+v", report.Failures)
	}

	// Organize ran only for notes.zip.
	organize, _ := report.Stage(pipeline.StageOrganize)
	if !organize.Ran || organize.Attempted != 1 {
		t.Fatalf("unexpected organize stage report: %+v", organize)
	}
}

func TestRunExtractRecoversOnRetryPass(t *testing.T) {
	notes := drive.Node{ID: "arc-1", Name: "notes.zip", ParentID: targetID}
	fs := newFakeFS(targetID, notes)
	fs.tree[drive.RootID] = []drive.Node{{ID: targetID, Name: "downloads", Dir: true}}
	fs.extractFails["arc-1"] = 1 // first pass fails, retry succeeds

	report, err := newTestPipeline(fs).Run(context.Background(), pipeline.RunConfig{TargetPath: "/downloads"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.HasFailures() {
		t.Fatalf("retry should have recovered: %+v", report.Failures)
	}
	if fs.extractCalls["arc-1"] != 2 {
		t.Fatalf("expected two extract calls, got %d", fs.extractCalls["arc-1"])
	}
	stage, _ := report.Stage(pipeline.StageExtract)
	if stage.Succeeded != 1 || stage.Failed != 0 {
		t.Fatalf("unexpected extract stage report: %+v", stage)
	}
}

func TestRunStopsWhenNothingExtracted(t *testing.T) {
	broken := drive.Node{ID: "arc-1", Name: "broken.rar", ParentID: targetID}
	fs := newFakeFS(targetID, broken)
	fs.tree[drive.RootID] = []drive.Node{{ID: targetID, Name: "downloads", Dir: true}}
	fs.extractFails["arc-1"] = 2

	report, err := newTestPipeline(fs).Run(context.Background(), pipeline.RunConfig{TargetPath: "/downloads", DeleteSources: true})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !report.HasFailures() {
		t.Fatal("expected terminal extract failure")
	}
	if _, ok := report.Stage(pipeline.StageOrganize); ok {
		t.Fatal("organize must not run when nothing was extracted")
	}
	if len(fs.deleteCalls) != 0 {
		t.Fatal("no cleanup may run when nothing was extracted")
	}
}

func TestRunOrganizeSkipsMissingFolder(t *testing.T) {
	notes := drive.Node{ID: "arc-1", Name: "notes.zip", ParentID: targetID}
	fs := newFakeFS(targetID, notes)
	fs.tree[drive.RootID] = []drive.Node{{ID: targetID, Name: "downloads", Dir: true}}
	fs.extractCreates = false // extraction succeeds but no folder appears

	report, err := newTestPipeline(fs).Run(context.Background(), pipeline.RunConfig{TargetPath: "/downloads"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.HasFailures() {
		t.Fatalf("a missing folder is not a failure: %+v", report.Failures)
	}
	if len(report.Skipped) != 1 || report.Skipped[0] != "notes.zip" {
		t.Fatalf("expected notes.zip skipped, got %v", report.Skipped)
	}
	if stage, ok := report.Stage(pipeline.StageCleanupFolders); !ok || stage.Ran {
		t.Fatal("cleanup-folders must not run without organized folders")
	}
	if len(fs.moveCalls) != 0 {
		t.Fatalf("no move expected, got %v", fs.moveCalls)
	}
}

func TestRunOrganizeEmptyFolderCountsAsOrganized(t *testing.T) {
	notes := drive.Node{ID: "arc-1", Name: "notes.zip", ParentID: targetID}
	fs := newFakeFS(targetID, notes)
	fs.tree[drive.RootID] = []drive.Node{{ID: targetID, Name: "downloads", Dir: true}}
	// extractChildren not seeded: folder materializes empty

	report, err := newTestPipeline(fs).Run(context.Background(), pipeline.RunConfig{TargetPath: "/downloads"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(fs.moveCalls) != 0 {
		t.Fatalf("empty folder needs no move, got %v", fs.moveCalls)
	}
	if len(fs.deleteCalls) != 1 {
		t.Fatalf("empty folder must still be cleaned up, got %v", fs.deleteCalls)
	}
	if report.HasFailures() {
		t.Fatalf("unexpected failures: %+v", report.Failures)
	}
}

func TestRunDeleteSourcesRemovesExtractedArchives(t *testing.T) {
	notes := drive.Node{ID: "arc-1", Name: "notes.zip", ParentID: targetID}
	broken := drive.Node{ID: "arc-2", Name: "broken.rar", ParentID: targetID}
	fs := newFakeFS(targetID, notes, broken)
	fs.tree[drive.RootID] = []drive.Node{{ID: targetID, Name: "downloads", Dir: true}}
	fs.extractFails["arc-2"] = 2

	report, err := newTestPipeline(fs).Run(context.Background(), pipeline.RunConfig{TargetPath: "/downloads", DeleteSources: true})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	stage, ok := report.Stage(pipeline.StageCleanupSources)
	if !ok || !stage.Ran {
		t.Fatal("cleanup-sources must run when the flag is set, even with earlier failures")
	}
	// Only the successfully-extracted archive is deleted.
	deleted := map[string]bool{}
	for _, call := range fs.deleteCalls {
		for _, id := range call {
			deleted[id] = true
		}
	}
	if !deleted["arc-1"] {
		t.Fatal("expected notes.zip deleted")
	}
	if deleted["arc-2"] {
		t.Fatal("failed archive must never be deleted")
	}
}

func TestRunMoveFailureGoesToFailedSet(t *testing.T) {
	notes := drive.Node{ID: "arc-1", Name: "notes.zip", ParentID: targetID}
	fs := newFakeFS(targetID, notes)
	fs.tree[drive.RootID] = []drive.Node{{ID: targetID, Name: "downloads", Dir: true}}
	fs.extractChildren["notes.zip"] = []drive.Node{{ID: "c1", Name: "chapter1.txt"}}
	fs.moveErr = &drive.RemoteError{Kind: drive.KindTransport, Op: "/file/move", HTTPStatus: 500, Message: "server error"}

	report, err := newTestPipeline(fs).Run(context.Background(), pipeline.RunConfig{TargetPath: "/downloads"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !report.HasFailures() {
		t.Fatal("expected organize failure")
	}
	found := false
	for _, failure := range report.Failures {
		if failure.Stage == pipeline.StageOrganize && failure.Item == "notes.zip" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected organize failure for notes.zip, got %+v", report.Failures)
	}
	if stage, ok := report.Stage(pipeline.StageCleanupFolders); !ok || stage.Ran {
		t.Fatal("cleanup-folders must not run when nothing was organized")
	}
}
