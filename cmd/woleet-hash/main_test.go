package main

import (
	"bytes"
	"context"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	sha256simd "github.com/minio/sha256-simd"
	"github.com/stretchr/testify/require"

	"github.com/whtech/woleet-weblibs/internal/manifest"
)

func digest(data string) string {
	sum := sha256simd.Sum256([]byte(data))
	return hex.EncodeToString(sum[:])
}

func runCmd(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var out, errOut bytes.Buffer
	code := run(context.Background(), args, &out, &errOut)
	return code, out.String(), errOut.String()
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, content)
	return path
}

func TestHashCommandPrintsDigests(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"), "alpha")
	writeFile(t, filepath.Join(dir, "sub", "b.txt"), "beta")
	writeFile(t, filepath.Join(dir, ".skip"), "hidden")
	mpath := filepath.Join(t.TempDir(), "hashes.yaml")

	code, out, errOut := runCmd(t, "hash", "--ignore-dot", "--manifest", mpath, dir)
	require.Equal(t, 0, code, errOut)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Equal(t, []string{
		digest("alpha") + "  " + filepath.Join(dir, "a.txt"),
		digest("beta") + "  " + filepath.Join(dir, "sub", "b.txt"),
	}, lines)
	require.Contains(t, errOut, "hash summary")
	require.Contains(t, errOut, "manifest: "+mpath)

	data, err := os.ReadFile(mpath)
	require.NoError(t, err)
	m, err := manifest.Decode(data)
	require.NoError(t, err)
	require.Len(t, m.Entries, 2)
	require.Equal(t, digest("beta"), m.Entries[1].SHA256)
}

func TestHashCommandMaxFilesAcrossPaths(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "one", "a"), "1")
	writeFile(t, filepath.Join(dir, "one", "b"), "2")
	writeFile(t, filepath.Join(dir, "two", "c"), "3")

	code, out, _ := runCmd(t, "hash", "-n", "1", filepath.Join(dir, "one"), filepath.Join(dir, "two"))
	require.Equal(t, 0, code)
	require.Equal(t, digest("1")+"  "+filepath.Join(dir, "one", "a")+"\n", out)
}

func TestHashCommandFailsWhenAFileFails(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "small"), "ok")
	writeFile(t, filepath.Join(dir, "large"), "too large")

	cfg := writeConfig(t, `
host:
  native: false
  workers: false
limits:
  incremental_max: 4
`)
	code, out, errOut := runCmd(t, "--config", cfg, "hash", dir)
	require.Equal(t, 1, code)
	require.Equal(t, digest("ok")+"  "+filepath.Join(dir, "small")+"\n", out)
	require.Contains(t, errOut, "file_too_big_to_be_hashed_without_worker")
	require.Contains(t, errOut, "-> FAILED")
	require.NotContains(t, errOut, "Error:")
}

func TestHashCommandErrors(t *testing.T) {
	t.Parallel()

	code, _, errOut := runCmd(t, "hash")
	require.Equal(t, 1, code)
	require.Contains(t, errOut, "requires at least 1 arg")

	code, _, errOut = runCmd(t, "hash", filepath.Join(t.TempDir(), "missing"))
	require.Equal(t, 1, code)
	require.Contains(t, errOut, "no such file")

	code, _, errOut = runCmd(t, "hash", t.TempDir())
	require.Equal(t, 1, code)
	require.Contains(t, errOut, "no files to hash")

	code, _, errOut = runCmd(t, "--config", writeConfig(t, "bogus: 1\n"), "version")
	require.Equal(t, 1, code)
	require.Contains(t, errOut, "bogus")
}

func TestResolveCommand(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "f")
	writeFile(t, path, "abc")

	code, out, _ := runCmd(t, "resolve", path)
	require.Equal(t, 0, code)
	require.Equal(t, digest("abc")+"\n", out)

	code, out, _ = runCmd(t, "resolve", digest("abc"))
	require.Equal(t, 0, code)
	require.Equal(t, digest("abc")+"\n", out)
}

func TestLookupCommands(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.URL.Path == "/receipt/anchor-1":
			_, _ = w.Write([]byte(`{"targetHash":"cafe","header":{"chainpoint_version":"1.0"}}`))
		case r.URL.Path == "/anchorids" && r.URL.Query().Get("size") == "5":
			_, _ = w.Write([]byte(`{"content":["anchor-1"],"totalElements":1,"size":5}`))
		case r.URL.Path == "/bitcoin/transaction/tx-1":
			_, _ = w.Write([]byte(`{"txid":"tx-1","confirmations":3,"blockhash":"bb","vout":[{"scriptPubKey":{"asm":"OP_RETURN 6869"}}]}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	cfg := writeConfig(t, "api:\n  base_url: "+srv.URL+"\n")

	code, out, errOut := runCmd(t, "--config", cfg, "--json", "receipt", "anchor-1")
	require.Equal(t, 0, code, errOut)
	require.JSONEq(t, `{"targetHash":"cafe","header":{"chainpoint_version":"1.0"}}`, out)

	code, out, errOut = runCmd(t, "--config", cfg, "anchors", "--size", "5", digest("x"))
	require.Equal(t, 0, code, errOut)
	require.Contains(t, out, "- anchor-1")

	code, out, errOut = runCmd(t, "--config", cfg, "tx", "tx-1")
	require.Equal(t, 0, code, errOut)
	require.Contains(t, out, "txId: tx-1")
	require.Contains(t, out, "opReturn: \"6869\"")

	code, _, errOut = runCmd(t, "--config", cfg, "receipt", "missing")
	require.Equal(t, 1, code)
	require.Contains(t, errOut, "not_found")

	code, _, errOut = runCmd(t, "--config", cfg, "anchors", "nope")
	require.Equal(t, 1, code)
	require.Contains(t, errOut, "parameter_string_not_a_sha256_hash")
}

func TestVersionCommand(t *testing.T) {
	t.Parallel()

	code, out, _ := runCmd(t, "version")
	require.Equal(t, 0, code)
	require.Equal(t, Version+"\n", out)
}

func TestVerifyCommand(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	a := filepath.Join(dir, "a.txt")
	b := filepath.Join(dir, "b.txt")
	writeFile(t, a, "alpha")
	writeFile(t, b, "beta")
	mpath := filepath.Join(t.TempDir(), "hashes.yaml")

	code, _, errOut := runCmd(t, "hash", "--manifest", mpath, dir)
	require.Equal(t, 0, code, errOut)
	require.Contains(t, errOut, "manifest written")

	code, out, errOut := runCmd(t, "verify", mpath)
	require.Equal(t, 0, code, errOut)
	require.Equal(t, "OK       "+a+"\nOK       "+b+"\n", out)

	writeFile(t, a, "changed")
	require.NoError(t, os.Remove(b))

	code, out, _ = runCmd(t, "verify", mpath)
	require.Equal(t, 1, code)
	require.Contains(t, out, "MISMATCH "+a)
	require.Contains(t, out, "MISSING  "+b)

	code, _, errOut = runCmd(t, "verify", filepath.Join(dir, "nope.yaml"))
	require.Equal(t, 1, code)
	require.Contains(t, errOut, "no such file")
}

func TestQuietDisablesLogging(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"), "alpha")
	mpath := filepath.Join(t.TempDir(), "hashes.yaml")

	code, _, errOut := runCmd(t, "--quiet", "hash", "--manifest", mpath, dir)
	require.Equal(t, 0, code, errOut)
	require.NotContains(t, errOut, "manifest written")
	require.Contains(t, errOut, "manifest: "+mpath)
}
