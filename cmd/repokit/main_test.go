package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"repokit/internal/archive"
	"repokit/internal/blob"
	"repokit/internal/config"
	"repokit/internal/core"
	"repokit/internal/infra/persistence/memory"
	"repokit/pkg/domain"
	"repokit/testutil/fixtures"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "repokit.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestCLIUsage(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if code := cli(nil, &stdout, &stderr); code != 2 {
		t.Fatalf("expected usage exit 2, got %d", code)
	}
	if code := cli([]string{"-nope"}, &stdout, &stderr); code != 2 {
		t.Fatalf("expected flag error exit 2, got %d", code)
	}
	path := writeConfig(t, "provider:\n  type: memory\n")
	if code := cli([]string{"-config", path, "launch"}, &stdout, &stderr); code != 2 {
		t.Fatalf("expected unknown command exit 2, got %d", code)
	}
}

func TestCLIConfig(t *testing.T) {
	path := writeConfig(t, "provider:\n  type: sqlite\n  connection_string: app.db\nzone:\n  id: tenant-a\n")
	var stdout, stderr bytes.Buffer
	if code := cli([]string{"-config", path, "config"}, &stdout, &stderr); code != 0 {
		t.Fatalf("exit %d: %s", code, stderr.String())
	}
	out := stdout.String()
	for _, want := range []string{"# source: " + path, "type: sqlite", "id: tenant-a", "driver: memory"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in output:\n%s", want, out)
		}
	}
}

func TestCLICheck(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, "provider:\n  type: sqlite\n  connection_string: "+filepath.Join(dir, "app.db")+"\nblob:\n  driver: fs\n  root: "+filepath.Join(dir, "blobs")+"\nlog:\n  level: error\n")
	var stdout, stderr bytes.Buffer
	if code := cli([]string{"-config", path, "check"}, &stdout, &stderr); code != 0 {
		t.Fatalf("exit %d: %s", code, stderr.String())
	}
	if !strings.Contains(stdout.String(), "provider sqlite ok") {
		t.Fatalf("unexpected output %s", stdout.String())
	}

	bad := writeConfig(t, "provider:\n  type: oracle\n")
	stderr.Reset()
	if code := cli([]string{"-config", bad, "check"}, &stdout, &stderr); code != 1 {
		t.Fatalf("expected failure, got %d", code)
	}
	if !strings.Contains(stderr.String(), "unsupported provider") {
		t.Fatalf("unexpected stderr %s", stderr.String())
	}
}

func TestCLIArchives(t *testing.T) {
	root := t.TempDir()
	store, err := blob.NewFilesystem(root)
	if err != nil {
		t.Fatalf("blob: %v", err)
	}
	p := memory.NewProvider(nil, domain.TestZone)
	if err := p.Commit(context.Background(), []domain.Record{fixtures.Insert(t, fixtures.Widget{Id: "w1", Name: "bolt"})}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := archive.Export(context.Background(), p, fixtures.Registry(), store, "zones/test.json"); err != nil {
		t.Fatalf("export: %v", err)
	}

	path := writeConfig(t, "blob:\n  driver: fs\n  root: "+root+"\n")
	var stdout, stderr bytes.Buffer
	if code := cli([]string{"-config", path, "archives", "zones/"}, &stdout, &stderr); code != 0 {
		t.Fatalf("exit %d: %s", code, stderr.String())
	}
	if !strings.HasPrefix(stdout.String(), "zones/test.json\t") {
		t.Fatalf("unexpected listing %q", stdout.String())
	}
}

func sqliteConfig(t *testing.T, db, blobs string) string {
	t.Helper()
	return writeConfig(t, "provider:\n  type: sqlite\n  connection_string: "+db+"\nblob:\n  driver: fs\n  root: "+blobs+"\nlog:\n  level: error\n")
}

func TestCLIExportImport(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	blobs := filepath.Join(dir, "blobs")
	srcDB := filepath.Join(dir, "src.db")
	dstDB := filepath.Join(dir, "dst.db")

	src, err := core.OpenProvider(ctx, core.ProviderConfig{Type: config.ProviderSQLite, ConnectionString: srcDB}, core.Options{Registry: fixtures.Registry()})
	if err != nil {
		t.Fatalf("open source: %v", err)
	}
	err = src.Commit(ctx, []domain.Record{
		fixtures.Insert(t, fixtures.Widget{Id: "w1", Name: "bolt", Qty: 3}),
		fixtures.Insert(t, fixtures.Widget{Id: "w2", Name: "nut"}),
		fixtures.Insert(t, fixtures.Session{Token: "tok", UserID: "u1"}),
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := src.(io.Closer).Close(); err != nil {
		t.Fatalf("close source: %v", err)
	}

	var stdout, stderr bytes.Buffer
	args := []string{"-config", sqliteConfig(t, srcDB, blobs), "export", "zones/default.json", string(fixtures.WidgetKind)}
	if code := cli(args, &stdout, &stderr); code != 0 {
		t.Fatalf("export exit %d: %s", code, stderr.String())
	}
	if !strings.Contains(stdout.String(), "exported 2 rows") {
		t.Fatalf("unexpected export output %q", stdout.String())
	}

	stdout.Reset()
	args = []string{"-config", sqliteConfig(t, dstDB, blobs), "import", "zones/default.json"}
	if code := cli(args, &stdout, &stderr); code != 0 {
		t.Fatalf("import exit %d: %s", code, stderr.String())
	}
	if !strings.Contains(stdout.String(), "imported 2 rows") {
		t.Fatalf("unexpected import output %q", stdout.String())
	}

	dst, err := core.OpenProvider(ctx, core.ProviderConfig{Type: config.ProviderSQLite, ConnectionString: dstDB}, core.Options{Registry: fixtures.Registry()})
	if err != nil {
		t.Fatalf("open destination: %v", err)
	}
	defer func() { _ = dst.(io.Closer).Close() }()
	got, ok, err := dst.Get(ctx, fixtures.WidgetKind, "w1")
	if err != nil || !ok {
		t.Fatalf("expected imported widget, ok=%v err=%v", ok, err)
	}
	if w := got.(fixtures.Widget); w.Name != "bolt" || w.Qty != 3 {
		t.Fatalf("unexpected widget %+v", w)
	}
	if n, _ := dst.Count(ctx, fixtures.SessionKind, nil); n != 0 {
		t.Fatalf("sessions were not exported, got %d", n)
	}
}

func TestCLIExportImportUsage(t *testing.T) {
	path := writeConfig(t, "provider:\n  type: memory\n")
	var stdout, stderr bytes.Buffer
	for _, args := range [][]string{{"export"}, {"export", "k"}, {"import"}, {"import", "a", "b"}} {
		if code := cli(append([]string{"-config", path}, args...), &stdout, &stderr); code != 2 {
			t.Fatalf("%v: expected usage exit 2, got %d", args, code)
		}
	}
	if code := cli([]string{"-config", path, "import", "missing.json"}, &stdout, &stderr); code != 1 {
		t.Fatalf("expected missing archive failure, got %d", code)
	}
}

func TestCLIMissingConfig(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if code := cli([]string{"-config", filepath.Join(t.TempDir(), "none.yaml"), "config"}, &stdout, &stderr); code != 1 {
		t.Fatalf("expected load failure, got %d", code)
	}
}
