package main

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"autocollect/internal/runlock"
	"autocollect/internal/testsupport"
)

type cliTestEnv struct {
	baseDir    string
	rulesDir   string
	stateDir   string
	configPath string
	plex       *fakePlex
}

type fakePlex struct {
	mu    sync.Mutex
	edits []url.Values
	hits  int
}

func (f *fakePlex) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.hits++
	f.mu.Unlock()
	if r.Header.Get("X-Plex-Token") != "cli-token" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	switch {
	case r.URL.Path == "/identity":
		_, _ = w.Write([]byte(`<MediaContainer machineIdentifier="cli"/>`))
	case r.URL.Path == "/library/sections":
		_, _ = w.Write([]byte(`<MediaContainer><Directory key="1" type="movie" title="Movies"/></MediaContainer>`))
	case r.URL.Path == "/library/sections/1/all" && r.Method == http.MethodGet:
		_, _ = w.Write([]byte(`<MediaContainer>
<Video ratingKey="10" type="movie" title="Big" year="1988"><Media><Part file="/movies/Big/Big.mkv"/></Media></Video>
<Video ratingKey="11" type="movie" title="Splash" year="1984"><Media><Part file="/movies/Splash/Splash.mkv"/></Media></Video>
</MediaContainer>`))
	case strings.HasPrefix(r.URL.Path, "/library/metadata/"):
		key := strings.TrimPrefix(r.URL.Path, "/library/metadata/")
		fmt.Fprintf(w, `<MediaContainer><Video ratingKey="%s" type="movie"/></MediaContainer>`, key)
	case r.URL.Path == "/library/sections/1/all" && r.Method == http.MethodPut:
		f.mu.Lock()
		f.edits = append(f.edits, r.URL.Query())
		f.mu.Unlock()
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (f *fakePlex) editCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.edits)
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	t.Setenv("HOME", t.TempDir())
	t.Setenv("XDG_STATE_HOME", "")
	for _, key := range []string{"PLEX_URL", "PLEX_TOKEN", "DEBUG", "NO_COLOR"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
	t.Chdir(t.TempDir())

	fake := &fakePlex{}
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	cfg := testsupport.NewConfig(t, testsupport.WithPlex(server.URL, "cli-token", "movies"))
	return &cliTestEnv{
		baseDir:    testsupport.BaseDir(cfg),
		rulesDir:   cfg.Rules.Dir,
		stateDir:   cfg.Paths.StateDir,
		configPath: testsupport.WriteConfig(t, cfg),
		plex:       fake,
	}
}

func (e *cliTestEnv) writeRules(t *testing.T, name, content string) string {
	t.Helper()
	return testsupport.WriteRules(t, e.rulesDir, name, content)
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(""))
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected %q in output:\n%s", needle, haystack)
	}
}

func TestRunAppliesCollectionAndActorRules(t *testing.T) {
	env := setupCLITestEnv(t)
	env.writeRules(t, "collections.yml", "Hanks:\n  - Big {{1988}}\n  - Splash {{1999}}\n")
	env.writeRules(t, "actors.d/hanks.yml", "Tom Hanks:\n  Path:\n    - /movies/Splash/\n  Locked: false\n")

	out, _, err := runCLI(t, nil, env.configPath)
	if err != nil {
		t.Fatalf("run: %v\n%s", err, out)
	}
	requireContains(t, out, "Reading "+filepath.Join(env.rulesDir, "collections.yml")+"...")
	requireContains(t, out, "Adding Big to collection Hanks")
	requireContains(t, out, "Adding actor Tom Hanks to movie Splash")
	if strings.Contains(out, "Adding Splash to collection") {
		t.Fatalf("year filter should exclude Splash:\n%s", out)
	}
	requireContains(t, out, "Collection adds")

	if got := env.plex.editCount(); got != 2 {
		t.Fatalf("expected 2 edits, got %d", got)
	}
	if got := env.plex.edits[0].Get("collection[0].tag.tag"); got != "Hanks" {
		t.Fatalf("unexpected collection edit %v", env.plex.edits[0])
	}
	if got := env.plex.edits[1].Get("actor.locked"); got != "0" {
		t.Fatalf("expected unlocked actor edit, got %v", env.plex.edits[1])
	}
}

func TestRunDryRunLeavesPlexUntouched(t *testing.T) {
	env := setupCLITestEnv(t)
	env.writeRules(t, "collections.yml", "Comedies:\n  - big\n")

	out, _, err := runCLI(t, []string{"--dry-run"}, env.configPath)
	if err != nil {
		t.Fatalf("dry run: %v", err)
	}
	requireContains(t, out, "[dry run] Adding Big to collection Comedies")
	requireContains(t, out, "RESULT (DRY RUN)")
	if got := env.plex.editCount(); got != 0 {
		t.Fatalf("expected no edits in dry run, got %d", got)
	}
}

func TestRunWithExplicitFilesReadsOnlyThose(t *testing.T) {
	env := setupCLITestEnv(t)
	env.writeRules(t, "collections.yml", "Default:\n  - Big\n")
	explicit := env.writeRules(t, "extra.yml", "Mermaids:\n  - Splash\n")
	env.writeRules(t, "actors.d/hanks.yml", "Tom Hanks:\n  - Big\n")

	out, _, err := runCLI(t, []string{explicit}, env.configPath)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	requireContains(t, out, "Adding Splash to collection Mermaids")
	if strings.Contains(out, "Default") || strings.Contains(out, "Tom Hanks") {
		t.Fatalf("expected only explicit file to be read:\n%s", out)
	}
}

func TestRunWithoutRulesSkipsPlex(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, nil, env.configPath)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	requireContains(t, out, "is missing or empty. Skipping...")
	requireContains(t, out, "No rules loaded. Nothing to do.")
	if env.plex.hits != 0 {
		t.Fatalf("expected no plex requests, got %d", env.plex.hits)
	}
}

func TestRunRejectsMalformedPattern(t *testing.T) {
	env := setupCLITestEnv(t)
	env.writeRules(t, "collections.yml", "Broken:\n  - \"(unclosed\"\n")

	_, _, err := runCLI(t, nil, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "Broken") {
		t.Fatalf("expected load error naming the rule, got %v", err)
	}
	if env.plex.hits != 0 {
		t.Fatal("expected no plex requests after a load error")
	}
}

func TestRunFailsWhileLocked(t *testing.T) {
	env := setupCLITestEnv(t)
	env.writeRules(t, "collections.yml", "Comedies:\n  - Big\n")

	lock, err := runlock.Acquire(env.stateDir)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	defer lock.Release()

	_, _, err = runCLI(t, nil, env.configPath)
	if !errors.Is(err, runlock.ErrLocked) {
		t.Fatalf("expected locked error, got %v", err)
	}
}

func TestRulesCommandPrintsTable(t *testing.T) {
	env := setupCLITestEnv(t)
	env.writeRules(t, "collections.yml", "Hanks:\n  Title:\n    - Big\n  Path:\n    - /movies/Splash/\n")
	env.writeRules(t, "actors.d/perkins.yml", "Anthony Perkins:\n  Title:\n    - Psycho\n  Action: Remove\n")

	out, _, err := runCLI(t, []string{"rules"}, env.configPath)
	if err != nil {
		t.Fatalf("rules: %v", err)
	}
	requireContains(t, out, "Hanks")
	requireContains(t, out, "Anthony Perkins")
	requireContains(t, out, "Remove")
	requireContains(t, out, "1 collection rules, 1 actor rules")
	if env.plex.hits != 0 {
		t.Fatal("rules command must not contact plex")
	}
}

func TestRulesDirFlagOverridesConfig(t *testing.T) {
	env := setupCLITestEnv(t)
	other := t.TempDir()
	testsupport.WriteRules(t, other, "collections.yml", "Elsewhere:\n  - Big\n")

	out, _, err := runCLI(t, []string{"rules", "--rules-dir", other}, env.configPath)
	if err != nil {
		t.Fatalf("rules: %v", err)
	}
	requireContains(t, out, "Elsewhere")
}

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)
	env.writeRules(t, "collections.yml", "Hanks:\n  - Big\n")

	out, _, err := runCLI(t, []string{"config", "validate"}, env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")
	requireContains(t, out, "[OK] direct connection to")
	requireContains(t, out, "[OK] "+filepath.Join(env.rulesDir, "actors.d")+" (0 rule files)")
	requireContains(t, out, "movies")

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err = runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err == nil {
		t.Fatal("expected init to refuse overwriting without --overwrite")
	}
}
