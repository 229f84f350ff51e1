package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/parsimony/pkg/archive"
	"github.com/matzehuels/parsimony/pkg/buildinfo"
	"github.com/matzehuels/parsimony/pkg/errors"
	"github.com/matzehuels/parsimony/pkg/pipeline"
)

// twoSplits supports exactly one tree of length 2: ((1,2),3,(4,5)).
const twoSplits = "5 2; 1 0 1 0 0 0 0 1 0 1;"

// isolate points every XDG directory into a fresh temp dir.
func isolate(t *testing.T) string {
	t.Helper()
	base := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", filepath.Join(base, "cache"))
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(base, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(base, "data"))
	return base
}

func writeMatrix(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "matrix.txt")
	if err := os.WriteFile(path, []byte(twoSplits), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

// runCLI executes the root command with args and returns what it printed.
func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	old := stdout
	stdout = &buf
	defer func() { stdout = old }()

	c := New(io.Discard, LogInfo)
	root := c.RootCommand()
	root.SetArgs(args)
	root.SetIn(strings.NewReader(stdin))
	root.SetOut(&buf)
	root.SetErr(io.Discard)
	err := root.ExecuteContext(context.Background())
	return buf.String(), err
}

func decodeResult(t *testing.T, out string) *pipeline.Result {
	t.Helper()
	var res pipeline.Result
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("decode result: %v\n%s", err, out)
	}
	return &res
}

func TestScoreCommandJSON(t *testing.T) {
	base := isolate(t)
	matrix := writeMatrix(t, base)

	out, err := runCLI(t, "", "score", "-m", matrix, "-t", "((1,2),3,(4,5));", "--json", "--no-cache", "--no-archive")
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	res := decodeResult(t, out)
	if res.Kind != pipeline.KindScore || res.Length != 2 {
		t.Errorf("kind/length = %s/%d, want score/2", res.Kind, res.Length)
	}
	if len(res.Steps) != 2 || res.Steps[0] != 1 || res.Steps[1] != 1 {
		t.Errorf("steps = %v, want [1 1]", res.Steps)
	}
}

func TestScoreCommandReadsTreeFile(t *testing.T) {
	base := isolate(t)
	matrix := writeMatrix(t, base)
	treeFile := filepath.Join(base, "t.tre")
	if err := os.WriteFile(treeFile, []byte("[&U] ((1,4),3,(2,5));\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	out, err := runCLI(t, "", "score", "-m", matrix, "-t", treeFile, "--no-cache", "--no-archive")
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if !strings.Contains(out, "Tree length") || !strings.Contains(out, "4") {
		t.Errorf("output missing tree length 4:\n%s", out)
	}
}

func TestScoreCommandErrors(t *testing.T) {
	base := isolate(t)
	matrix := writeMatrix(t, base)
	short := filepath.Join(base, "short.txt")
	if err := os.WriteFile(short, []byte("5 2; 1 0 1;"), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := runCLI(t, "", "score", "-m", matrix, "--no-cache"); err == nil {
		t.Error("score without --tree should fail")
	}
	if _, err := runCLI(t, "", "score", "-t", "((1,2),3,(4,5));", "--no-cache"); err == nil {
		t.Error("score without --matrix should fail")
	}
	_, err := runCLI(t, "", "score", "-m", short, "-t", "((1,2),3,(4,5));", "--no-cache", "--no-archive")
	if !errors.Is(err, errors.ErrCodeEncoding) {
		t.Errorf("short matrix error = %v, want ENCODING", err)
	}
}

func TestSearchCommandArchiveRoundTrip(t *testing.T) {
	base := isolate(t)

	out, err := runCLI(t, twoSplits, "search", "-m", "-", "--seed", "3", "--json")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	res := decodeResult(t, out)
	if res.Kind != pipeline.KindSearch || res.Length != 2 || len(res.Trees) != 1 {
		t.Fatalf("search result = %+v", res)
	}
	prefix := shortID(res.ID)

	out, err = runCLI(t, "", "results", "list")
	if err != nil {
		t.Fatalf("results list: %v", err)
	}
	if !strings.Contains(out, prefix) {
		t.Errorf("list output missing %s:\n%s", prefix, out)
	}

	out, err = runCLI(t, "", "results", "show", prefix, "--json")
	if err != nil {
		t.Fatalf("results show: %v", err)
	}
	if shown := decodeResult(t, out); shown.ID != res.ID {
		t.Errorf("show returned %s, want %s", shown.ID, res.ID)
	}

	dotFile := filepath.Join(base, "best.dot")
	if _, err := runCLI(t, "", "render", prefix, "-f", "dot", "-o", dotFile); err != nil {
		t.Fatalf("render: %v", err)
	}
	dot, err := os.ReadFile(dotFile)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(dot, []byte("digraph")) {
		t.Errorf("render wrote %q", dot)
	}

	if _, err := runCLI(t, "", "results", "delete", prefix); err != nil {
		t.Fatalf("results delete: %v", err)
	}
	_, err = runCLI(t, "", "results", "show", res.ID)
	if !errors.Is(err, errors.ErrCodeResultNotFound) {
		t.Errorf("show after delete = %v, want RESULT_NOT_FOUND", err)
	}
}

func TestSearchCommandConfigAndFlags(t *testing.T) {
	base := isolate(t)
	matrix := writeMatrix(t, base)
	cfg := writeConfig(t, "[search]\nmethod = \"nni\"\nreplicates = 2\n")

	out, err := runCLI(t, "", "--config", cfg, "search", "-m", matrix, "--json", "--no-cache", "--no-archive")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	res := decodeResult(t, out)
	if res.Method != "nni" || res.Replicates != 2 {
		t.Errorf("method/replicates = %s/%d, want nni/2 from config", res.Method, res.Replicates)
	}

	out, err = runCLI(t, "", "--config", cfg, "search", "-m", matrix, "--method", "spr", "--json", "--no-cache", "--no-archive")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if res := decodeResult(t, out); res.Method != "spr" {
		t.Errorf("method = %s, want flag value spr", res.Method)
	}
}

func TestSearchCommandCachesResults(t *testing.T) {
	base := isolate(t)
	matrix := writeMatrix(t, base)

	first, err := runCLI(t, "", "search", "-m", matrix, "--json", "--no-archive")
	if err != nil {
		t.Fatal(err)
	}
	second, err := runCLI(t, "", "search", "-m", matrix, "--json", "--no-archive")
	if err != nil {
		t.Fatal(err)
	}
	if decodeResult(t, first).Cached || !decodeResult(t, second).Cached {
		t.Error("second identical search should be served from cache")
	}

	out, err := runCLI(t, "", "cache", "clear")
	if err != nil {
		t.Fatalf("cache clear: %v", err)
	}
	if !strings.Contains(out, "Cleared 1 cached entries") {
		t.Errorf("cache clear output:\n%s", out)
	}

	out, err = runCLI(t, "", "cache", "path")
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(base, "cache", appName); strings.TrimSpace(out) != want {
		t.Errorf("cache path = %q, want %q", out, want)
	}
}

func TestVersionCommand(t *testing.T) {
	isolate(t)
	out, err := runCLI(t, "", "version", "--json")
	if err != nil {
		t.Fatal(err)
	}
	var info buildinfo.Info
	if err := json.Unmarshal([]byte(out), &info); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if info != buildinfo.Get() {
		t.Errorf("version = %+v, want %+v", info, buildinfo.Get())
	}
}

func TestCompletionCommand(t *testing.T) {
	isolate(t)
	for _, shell := range []string{"bash", "zsh", "fish", "powershell"} {
		out, err := runCLI(t, "", "completion", shell)
		if err != nil {
			t.Fatalf("completion %s: %v", shell, err)
		}
		if !strings.Contains(out, appName) {
			t.Errorf("completion %s does not mention %s", shell, appName)
		}
	}
	if _, err := runCLI(t, "", "completion", "tcsh"); err == nil {
		t.Error("completion tcsh should fail")
	}
}

func TestResolveID(t *testing.T) {
	store, err := archive.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	ids := []string{
		"3f2a9c1e-0000-4000-8000-000000000001",
		"3f2a9c1e-0000-4000-8000-000000000002",
		"7b00d2aa-0000-4000-8000-000000000003",
	}
	for _, id := range ids {
		if err := store.Save(ctx, &pipeline.Result{ID: id, Kind: pipeline.KindScore}); err != nil {
			t.Fatal(err)
		}
	}

	tests := []struct {
		arg     string
		want    string
		errCode errors.Code
	}{
		{ids[0], ids[0], ""},
		{"7b00", ids[2], ""},
		{"3F2A9C1E-0000-4000-8000-000000000002", ids[1], ""},
		{"3f2a", "", errors.ErrCodeInvalidInput},
		{"ffff", "", errors.ErrCodeResultNotFound},
		{"  ", "", errors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.arg, func(t *testing.T) {
			got, err := resolveID(ctx, store, tt.arg)
			if tt.errCode != "" {
				if !errors.Is(err, tt.errCode) {
					t.Errorf("error = %v, want %s", err, tt.errCode)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("resolveID(%q) = %q, want %q", tt.arg, got, tt.want)
			}
		})
	}
}
