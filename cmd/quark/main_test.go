package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
)

type remoteNode struct {
	ID       string `json:"fid"`
	ParentID string `json:"pdir_fid"`
	Name     string `json:"file_name"`
	Dir      bool   `json:"dir"`
	Size     int64  `json:"size"`
	Updated  int64  `json:"updated_at"`
}

// fakeRemote emulates the drive API endpoints against an in-memory tree.
type fakeRemote struct {
	mu          sync.Mutex
	nodes       map[string]*remoteNode
	nextID      int
	extractFail map[string]int
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		nodes:       make(map[string]*remoteNode),
		extractFail: make(map[string]int),
	}
}

func (f *fakeRemote) add(parentID, name string, dir bool) *remoteNode {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	node := &remoteNode{
		ID:       "n" + strconv.Itoa(f.nextID),
		ParentID: parentID,
		Name:     name,
		Dir:      dir,
		Updated:  1700000000000,
	}
	f.nodes[node.ID] = node
	return node
}

func (f *fakeRemote) children(parentID string) []*remoteNode {
	var out []*remoteNode
	for _, node := range f.nodes {
		if node.ParentID == parentID {
			out = append(out, node)
		}
	}
	return out
}

func (f *fakeRemote) namesUnder(parentID string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var names []string
	for _, node := range f.children(parentID) {
		names = append(names, node.Name)
	}
	return names
}

func (f *fakeRemote) handler() http.Handler {
	writeOK := func(w http.ResponseWriter, extra map[string]any) {
		body := map[string]any{"status": 200, "code": 0}
		for key, value := range extra {
			body[key] = value
		}
		_ = json.NewEncoder(w).Encode(body)
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()

		switch r.URL.Path {
		case "/file/sort":
			parentID := r.URL.Query().Get("pdir_fid")
			list := make([]remoteNode, 0)
			for _, node := range f.children(parentID) {
				list = append(list, *node)
			}
			writeOK(w, map[string]any{"data": map[string]any{"list": list}})

		case "/file/move":
			var req struct {
				Filelist  []string `json:"filelist"`
				ToPdirFid string   `json:"to_pdir_fid"`
			}
			_ = json.NewDecoder(r.Body).Decode(&req)
			for _, id := range req.Filelist {
				if node, ok := f.nodes[id]; ok {
					node.ParentID = req.ToPdirFid
				}
			}
			writeOK(w, nil)

		case "/file/delete":
			var req struct {
				Filelist []string `json:"filelist"`
			}
			_ = json.NewDecoder(r.Body).Decode(&req)
			for _, id := range req.Filelist {
				delete(f.nodes, id)
			}
			writeOK(w, nil)

		case "/archive/unarchive":
			var req struct {
				Fid       string `json:"fid"`
				ToPdirFid string `json:"to_pdir_fid"`
			}
			_ = json.NewDecoder(r.Body).Decode(&req)
			if remaining := f.extractFail[req.Fid]; remaining > 0 {
				f.extractFail[req.Fid] = remaining - 1
				_ = json.NewEncoder(w).Encode(map[string]any{
					"status": 200, "code": 31001, "message": "capacity limit reached",
				})
				return
			}
			archive, ok := f.nodes[req.Fid]
			if !ok {
				_ = json.NewEncoder(w).Encode(map[string]any{
					"status": 200, "code": 404, "message": "file not found",
				})
				return
			}
			folderName := strings.TrimSuffix(archive.Name, filepath.Ext(archive.Name))
			f.nextID++
			folder := &remoteNode{
				ID:       "n" + strconv.Itoa(f.nextID),
				ParentID: req.ToPdirFid,
				Name:     folderName,
				Dir:      true,
				Updated:  1700000000000,
			}
			f.nodes[folder.ID] = folder
			f.nextID++
			content := &remoteNode{
				ID:       "n" + strconv.Itoa(f.nextID),
				ParentID: folder.ID,
				Name:     folderName + ".mkv",
				Size:     1024,
				Updated:  1700000000000,
			}
			f.nodes[content.ID] = content
			writeOK(w, nil)

		default:
			http.NotFound(w, r)
		}
	})
}

type cliTestEnv struct {
	remote     *fakeRemote
	server     *httptest.Server
	configPath string
	target     *remoteNode
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	remote := newFakeRemote()
	target := remote.add("0", "downloads", true)

	server := httptest.NewServer(remote.handler())
	t.Cleanup(server.Close)

	base := t.TempDir()
	configPath := filepath.Join(base, "config.toml")
	content := fmt.Sprintf(`[drive]
cookie = "session=cli-test"
base_url = %q
request_timeout = 5

[pipeline]
target_directory = "/downloads"
item_delay_ms = 0
retry_delay_ms = 0
settle_wait_seconds = 0

[paths]
log_dir = %q
data_dir = %q

[history]
enabled = true
keep = 10

[logging]
format = "json"
level = "error"
`, server.URL, filepath.Join(base, "logs"), filepath.Join(base, "data"))
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	return &cliTestEnv{
		remote:     remote,
		server:     server,
		configPath: configPath,
		target:     target,
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	if configPath != "" {
		args = append([]string{"--config", configPath}, args...)
	}
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, want string) {
	t.Helper()
	if !strings.Contains(output, want) {
		t.Fatalf("expected output to contain %q, got:\n%s", want, output)
	}
}

func TestConfigInitAndValidate(t *testing.T) {
	tmp := t.TempDir()
	// First-run shape: the config directory does not exist yet.
	target := filepath.Join(tmp, "quark", "config.toml")

	out, _, err := runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err == nil {
		t.Fatal("expected second init without --force to fail")
	}
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target, "--force"}, ""); err != nil {
		t.Fatalf("config init --force: %v", err)
	}

	env := setupCLITestEnv(t)
	out, _, err = runCLI(t, []string{"config", "validate"}, env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "is valid")
	requireContains(t, out, "/downloads")
}

func TestCLIUnzipEndToEnd(t *testing.T) {
	env := setupCLITestEnv(t)
	archive := env.remote.add(env.target.ID, "movie.zip", false)

	out, _, err := runCLI(t, []string{"unzip"}, env.configPath)
	if err != nil {
		t.Fatalf("unzip: %v", err)
	}
	requireContains(t, out, "Archives discovered: 1")
	requireContains(t, out, "extract")
	requireContains(t, out, "organize")
	requireContains(t, out, "cleanup-folders")

	names := env.remote.namesUnder(env.target.ID)
	wantNames := map[string]bool{"movie.zip": false, "movie.mkv": false}
	for _, name := range names {
		if _, ok := wantNames[name]; ok {
			wantNames[name] = true
		} else {
			t.Fatalf("unexpected node %q left in target: %v", name, names)
		}
	}
	for name, seen := range wantNames {
		if !seen {
			t.Fatalf("expected %q in target, got %v", name, names)
		}
	}

	if _, ok := env.remote.nodes[archive.ID]; !ok {
		t.Fatal("source archive should survive without --delete-sources")
	}

	out, _, err = runCLI(t, []string{"history"}, env.configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, "/downloads")
	requireContains(t, out, "ok")
}

func TestCLIUnzipDeleteSources(t *testing.T) {
	env := setupCLITestEnv(t)
	archive := env.remote.add(env.target.ID, "show.rar", false)

	_, _, err := runCLI(t, []string{"unzip", "--delete-sources"}, env.configPath)
	if err != nil {
		t.Fatalf("unzip --delete-sources: %v", err)
	}

	if _, ok := env.remote.nodes[archive.ID]; ok {
		t.Fatal("source archive should be deleted with --delete-sources")
	}
	names := env.remote.namesUnder(env.target.ID)
	if len(names) != 1 || names[0] != "show.mkv" {
		t.Fatalf("expected only extracted content in target, got %v", names)
	}
}

func TestCLIUnzipReportsUnrecoveredFailures(t *testing.T) {
	env := setupCLITestEnv(t)
	archive := env.remote.add(env.target.ID, "broken.7z", false)
	env.remote.extractFail[archive.ID] = 2

	out, _, err := runCLI(t, []string{"unzip"}, env.configPath)
	if err == nil {
		t.Fatal("expected unzip to report unrecovered failures")
	}
	requireContains(t, err.Error(), "unrecovered failures")
	requireContains(t, out, "capacity limit reached")
}

func TestCLIUnzipRecoversOnRetry(t *testing.T) {
	env := setupCLITestEnv(t)
	archive := env.remote.add(env.target.ID, "flaky.zip", false)
	env.remote.extractFail[archive.ID] = 1

	out, _, err := runCLI(t, []string{"unzip"}, env.configPath)
	if err != nil {
		t.Fatalf("unzip with transient failure: %v", err)
	}
	requireContains(t, out, "Archives discovered: 1")
}

func TestCLILogLevelOverride(t *testing.T) {
	env := setupCLITestEnv(t)

	if _, _, err := runCLI(t, []string{"--log-level", "debug", "resolve", "/downloads"}, env.configPath); err != nil {
		t.Fatalf("resolve with --log-level debug: %v", err)
	}

	_, _, err := runCLI(t, []string{"--log-level", "verbose", "resolve", "/downloads"}, env.configPath)
	if err == nil {
		t.Fatal("expected invalid log level to be rejected")
	}
	requireContains(t, err.Error(), "logging.level")
}

func TestCLIListAndResolve(t *testing.T) {
	env := setupCLITestEnv(t)
	env.remote.add(env.target.ID, "movie.zip", false)
	env.remote.add(env.target.ID, "notes.txt", false)

	out, _, err := runCLI(t, []string{"ls", "/downloads"}, env.configPath)
	if err != nil {
		t.Fatalf("ls: %v", err)
	}
	requireContains(t, out, "movie.zip")
	requireContains(t, out, "archive")
	requireContains(t, out, "notes.txt")

	out, _, err = runCLI(t, []string{"resolve", "/downloads"}, env.configPath)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if strings.TrimSpace(out) != env.target.ID {
		t.Fatalf("expected resolved id %s, got %q", env.target.ID, out)
	}

	if _, _, err := runCLI(t, []string{"resolve", "/missing"}, env.configPath); err == nil {
		t.Fatal("expected resolve of missing path to fail")
	}
}
