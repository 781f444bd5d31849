package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haukened/rr-bindctl/internal/bind/common/clock"
	"github.com/haukened/rr-bindctl/internal/bind/common/log"
	"github.com/haukened/rr-bindctl/internal/bind/config"
	"github.com/haukened/rr-bindctl/internal/bind/repos/credcache"
)

const showZone = `zone "example.com" {
	type master;
	file "/var/cache/bind/example.com.zone";
	allow-update { key "bindy-operator"; };
};`

type testEnv struct {
	app *Application
	dir string
	out *bytes.Buffer
	rec *log.Recorder
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	cfg := config.DEFAULT_APP_CONFIG
	cfg.RndcConf = []string{filepath.Join(dir, "missing.conf"), filepath.Join(dir, "rndc.conf")}
	cfg.StorePath = filepath.Join(dir, "history.db")
	cfg.ZoneDir = filepath.Join(dir, "patches")
	require.NoError(t, os.MkdirAll(cfg.ZoneDir, 0o755))

	rec := log.NewRecorder()
	out := &bytes.Buffer{}
	return &testEnv{
		app: &Application{
			config: &cfg,
			logger: rec,
			clock:  &clock.MockClock{CurrentTime: time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC)},
			Out:    out,
			In:     strings.NewReader(""),
		},
		dir: dir,
		out: out,
		rec: rec,
	}
}

func (e *testEnv) run(t *testing.T, stdin string, args ...string) error {
	t.Helper()
	e.out.Reset()
	e.app.In = strings.NewReader(stdin)
	cmd := NewRootCommand(e.app)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	return cmd.Execute()
}

func (e *testEnv) write(t *testing.T, rel, content string) string {
	t.Helper()
	path := filepath.Join(e.dir, rel)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestConfCommand(t *testing.T) {
	env := newTestEnv(t)
	env.write(t, "rndc.key", `key "rndc-key" { algorithm hmac-sha256; secret "c2VjcmV0"; };`)
	env.write(t, "rndc.conf", `include "rndc.key"; options { default-key "rndc-key"; };`)

	require.NoError(t, env.run(t, "", "conf"))
	out := env.out.String()
	assert.Contains(t, out, `key "rndc-key" {`)
	assert.Contains(t, out, `default-key "rndc-key";`)
	assert.Contains(t, out, filepath.Join(env.dir, "rndc.key"))

	require.NoError(t, env.run(t, "", "conf", "--credentials"))
	assert.Equal(t, "source: "+filepath.Join(env.dir, "rndc.conf")+"\nserver: 127.0.0.1:953\nkey: rndc-key\nalgorithm: hmac-sha256\nsecret: <hidden>\n", env.out.String())

	require.NoError(t, env.run(t, "", "conf", "--credentials", "--show-secret", filepath.Join(env.dir, "rndc.conf")))
	assert.Contains(t, env.out.String(), "secret: c2VjcmV0")

	// all three runs share one resolution cache
	require.NotNil(t, env.app.resolutions)
	assert.Equal(t, credcache.Stats{Hits: 2, Misses: 1}, env.app.resolutions.Stats())
}

func TestConfCommand_Errors(t *testing.T) {
	env := newTestEnv(t)
	err := env.run(t, "", "conf")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no rndc configuration found")

	env.write(t, "a.conf", `include "a.conf";`)
	err = env.run(t, "", "conf", filepath.Join(env.dir, "a.conf"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "circular include")
}

func TestZoneNormalizeCommand(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.run(t, showZone, "zone", "normalize"))
	assert.Equal(t,
		`{ type primary; file "/var/cache/bind/example.com.zone"; allow-update { key "bindy-operator"; }; };`+"\n",
		env.out.String())

	err := env.run(t, `zone "example.com" {`, "zone", "normalize")
	assert.Error(t, err)
}

func TestZoneModifyAndHistoryCommands(t *testing.T) {
	env := newTestEnv(t)
	patch := filepath.Join(env.app.config.ZoneDir, "notify.yaml")
	require.NoError(t, os.WriteFile(patch, []byte("also_notify:\n  - 10.244.1.28\n"), 0o600))

	// a bare name is looked up in the zone dir
	require.NoError(t, env.run(t, showZone, "zone", "modify", "--patch", "notify.yaml"))
	block := `{ type primary; file "/var/cache/bind/example.com.zone"; also-notify { 10.244.1.28; }; allow-update { key "bindy-operator"; }; };`
	assert.Equal(t, block+"\n", env.out.String())

	require.NoError(t, env.run(t, "", "zone", "history", "example.com"))
	assert.Equal(t, "1\t2025-08-01T12:00:00Z\t"+block+"\n", env.out.String())

	require.NoError(t, env.run(t, showZone, "zone", "modify", "--patch", patch, "--no-record"))
	require.NoError(t, env.run(t, "", "zone", "history", "example.com", "--limit", "0"))
	assert.Equal(t, 1, strings.Count(env.out.String(), "\n"), "--no-record leaves history alone")
	assert.Contains(t, env.rec.Messages(), "zone_block_modified")
}

func TestZoneModifyCommand_Errors(t *testing.T) {
	env := newTestEnv(t)

	err := env.run(t, showZone, "zone", "modify")
	assert.Error(t, err, "patch flag is required")

	err = env.run(t, showZone, "zone", "modify", "--patch", "absent.yaml")
	assert.Error(t, err)

	bad := env.write(t, "bad.json", `{"also_notify": ["nope"]}`)
	err = env.run(t, showZone, "zone", "modify", "--patch", bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid patch")
}
