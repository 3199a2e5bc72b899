package store_test

import (
	"archive/tar"
	"bytes"
	"io"
	"testing"

	"github.com/ipfs/go-cid"

	"github.com/Philogy/Social-Recovery-Asset-Vault/store"
)

func putAll(t *testing.T, cas store.CAS, payloads ...string) []cid.Cid {
	t.Helper()
	ids := make([]cid.Cid, 0, len(payloads))
	for _, p := range payloads {
		id, err := cas.Put([]byte(p))
		if err != nil {
			t.Fatalf("Put: %v", err)
		}
		ids = append(ids, id)
	}
	return ids
}

func TestArchiveRoundTrip(t *testing.T) {
	src := store.NewMemory()
	ids := putAll(t, src, "record one", "record two", "record three")

	var buf bytes.Buffer
	opts := store.ExportOptions{
		IncludeIndex: true,
		Labels:       map[string]cid.Cid{"journal-head": ids[2]},
	}
	if err := store.Export(&buf, src, ids, opts); err != nil {
		t.Fatalf("Export: %v", err)
	}

	dst := store.NewMemory()
	if err := store.Import(bytes.NewReader(buf.Bytes()), dst); err != nil {
		t.Fatalf("Import: %v", err)
	}
	for _, id := range ids {
		got, err := dst.Get(id)
		if err != nil {
			t.Fatalf("Get %s: %v", id, err)
		}
		want, _ := src.Get(id)
		if !bytes.Equal(got, want) {
			t.Fatalf("object %s mismatch", id)
		}
	}
}

func TestArchiveDeterministic(t *testing.T) {
	src := store.NewMemory()
	ids := putAll(t, src, "b", "a", "c")

	render := func(order []cid.Cid) []byte {
		var buf bytes.Buffer
		if err := store.Export(&buf, src, order, store.ExportOptions{IncludeIndex: true}); err != nil {
			t.Fatalf("Export: %v", err)
		}
		return buf.Bytes()
	}

	forward := render(ids)
	reversed := render([]cid.Cid{ids[2], ids[1], ids[0]})
	if !bytes.Equal(forward, reversed) {
		t.Fatal("archive bytes must not depend on input order")
	}
}

func TestImportRejectsTamperedObject(t *testing.T) {
	src := store.NewMemory()
	ids := putAll(t, src, "authentic record")

	var buf bytes.Buffer
	if err := store.Export(&buf, src, ids, store.ExportOptions{}); err != nil {
		t.Fatalf("Export: %v", err)
	}

	tampered := bytes.Replace(buf.Bytes(), []byte("authentic record"), []byte("falsified record"), 1)
	err := store.Import(bytes.NewReader(tampered), store.NewMemory())
	if err == nil {
		t.Fatal("tampered archive must be rejected")
	}
}

func TestImportRejectsUnknownEntries(t *testing.T) {
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	content := []byte("stray")
	if err := tw.WriteHeader(&tar.Header{
		Name: "extras/stray.txt", Mode: 0o644, Size: int64(len(content)), Typeflag: tar.TypeReg,
	}); err != nil {
		t.Fatalf("WriteHeader: %v", err)
	}
	if _, err := io.Copy(tw, bytes.NewReader(content)); err != nil {
		t.Fatalf("Copy: %v", err)
	}
	if err := tw.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if err := store.Import(bytes.NewReader(buf.Bytes()), store.NewMemory()); err == nil {
		t.Fatal("unknown entries must fail closed")
	}
	err := store.ImportWithOptions(bytes.NewReader(buf.Bytes()), store.NewMemory(),
		store.ImportOptions{IgnoreUnknown: true})
	if err != nil {
		t.Fatalf("IgnoreUnknown import: %v", err)
	}
}

func TestImportRejectsPathTraversal(t *testing.T) {
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	content := []byte("escape")
	if err := tw.WriteHeader(&tar.Header{
		Name: "objects/../escape", Mode: 0o644, Size: int64(len(content)), Typeflag: tar.TypeReg,
	}); err != nil {
		t.Fatalf("WriteHeader: %v", err)
	}
	if _, err := io.Copy(tw, bytes.NewReader(content)); err != nil {
		t.Fatalf("Copy: %v", err)
	}
	if err := tw.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if err := store.Import(bytes.NewReader(buf.Bytes()), store.NewMemory()); err == nil {
		t.Fatal("path traversal entries must be rejected")
	}
}

func TestConfigOpen(t *testing.T) {
	cfg := store.Config{
		WritePolicy: "all",
		Backends: []store.BackendConfig{
			{Kind: "memory", ID: "hot"},
			{Kind: "localfs", Path: t.TempDir()},
		},
	}
	cas, err := cfg.Open()
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, ok := cas.(store.Mirror); !ok {
		t.Fatalf("write_policy=all must open a Mirror, got %T", cas)
	}

	cfg.WritePolicy = "first"
	cas, err = cfg.Open()
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, ok := cas.(store.Tiered); !ok {
		t.Fatalf("write_policy=first must open a Tiered store, got %T", cas)
	}
}

func TestConfigValidate(t *testing.T) {
	cases := []struct {
		name string
		cfg  store.Config
	}{
		{"no backends", store.Config{}},
		{"unknown kind", store.Config{Backends: []store.BackendConfig{{Kind: "s3"}}}},
		{"localfs without path", store.Config{Backends: []store.BackendConfig{{Kind: "localfs"}}}},
		{"duplicate ids", store.Config{Backends: []store.BackendConfig{
			{Kind: "memory"}, {Kind: "memory"},
		}}},
		{"bad policy", store.Config{WritePolicy: "quorum",
			Backends: []store.BackendConfig{{Kind: "memory"}}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.cfg.Validate(); err == nil {
				t.Fatal("expected validation failure")
			}
		})
	}
}
