package main

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/aretw0/clocktower/internal/testutils"
	"github.com/aretw0/clocktower/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestPlayThenReplay(t *testing.T) {
	dir := t.TempDir()

	out, err := execute(t, "play", "--store", "file", "--dir", dir, "--seed", "3", "--id", "cli-game", "--players", "6", "--reveal")
	require.NoError(t, err)
	assert.Contains(t, out, "Game over:")
	assert.Contains(t, out, "Grimoire of cli-game")
	assert.FileExists(t, filepath.Join(dir, "cli-game.jsonl"))

	out, err = execute(t, "replay", "cli-game", "--store", "file", "--dir", dir, "--reveal=false", "--graph")
	require.NoError(t, err)
	assert.Contains(t, out, "graph LR")

	out, err = execute(t, "replay", "cli-game", "--store", "file", "--dir", dir, "--graph=false", "--seat", "2")
	require.NoError(t, err)
	var view domain.View
	require.NoError(t, json.Unmarshal([]byte(out), &view))
	assert.Equal(t, domain.Seat(2), view.Self)

	export := filepath.Join(t.TempDir(), "export.jsonl")
	_, err = execute(t, "replay", "cli-game", "--store", "file", "--dir", dir, "--seat=-1", "--export", export)
	require.NoError(t, err)
	out, err = execute(t, "replay", "--file", export, "--export", "")
	require.NoError(t, err)
	assert.Contains(t, out, "Game over:")
}

func TestPlay_RejectsUnknownStore(t *testing.T) {
	_, err := execute(t, "play", "--store", "etcd")
	assert.ErrorContains(t, err, "unknown store")
}

func TestValidate(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.yaml")
	require.NoError(t, os.WriteFile(good, []byte(`
name: Tiny
townsfolk: [washerwoman, chef, empath]
minions: [poisoner]
demons: [imp]
first_night: [poisoner, washerwoman, chef, empath]
other_nights: [poisoner, imp, empath]
`), 0o644))
	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("name: Bad\ndemons: [chef]\n"), 0o644))

	out, err := execute(t, "validate", good)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ "+good)

	out, err = execute(t, "validate", good, bad)
	assert.ErrorContains(t, err, "1 script(s) are invalid")
	assert.Contains(t, out, "✗ "+bad)
}

func TestPlay_SealedAndRedactedStore(t *testing.T) {
	dir := t.TempDir()
	key := make([]byte, 32)
	_, err := rand.Read(key)
	require.NoError(t, err)
	t.Setenv(envEncryptionKey, base64.StdEncoding.EncodeToString(key))

	_, err = execute(t, "play", "--store", "file", "--dir", dir, "--seed", "8", "--id", "sealed", "--players", "5", "--redact", "Player")
	require.NoError(t, err)

	raw, err := os.ReadFile(filepath.Join(dir, "sealed.jsonl"))
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "red_herring")
	assert.Contains(t, string(raw), "sealed:")

	out, err := execute(t, "replay", "sealed", "--file=", "--store", "file", "--dir", dir, "--seat=-1", "--export", "", "--reveal")
	require.NoError(t, err)
	assert.Contains(t, out, "Game over:")
}

func TestPlay_ProcessAgents(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("agent scripts need a POSIX shell")
	}
	dir := testutils.WriteTree(t, map[string]string{"agents.yaml": `
agents:
  - name: mute
    command: sh
    args: ["-c", "cat >/dev/null; echo '{}'"]
    seats: [0]
`})
	agents := filepath.Join(dir, "agents.yaml")

	out, err := execute(t, "play", "--store", "memory", "--seed", "9", "--players", "5", "--agents", agents, "--redact=")
	require.NoError(t, err)
	assert.Contains(t, out, "Game over:")
}
