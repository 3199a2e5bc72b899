package keys

import (
	"crypto/ed25519"
	"testing"
)

func TestKeyStoreLifecycle(t *testing.T) {
	ks, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	seed := make([]byte, ed25519.SeedSize)
	for i := range seed {
		seed[i] = 0x5A
	}

	rootKey, _, err := ks.InitRootKey("alice", seed, false)
	if err != nil {
		t.Fatalf("InitRootKey: %v", err)
	}
	if _, _, err := ks.InitRootKey("alice", seed, false); err == nil {
		t.Fatal("re-init without overwrite must fail")
	}

	journalKey, _, err := ks.DerivePurposeKey("alice", "journal", false)
	if err != nil {
		t.Fatalf("DerivePurposeKey: %v", err)
	}
	if journalKey == rootKey {
		t.Fatal("purpose key must differ from root key")
	}

	exported, err := ks.ExportIssuerKey("alice", "journal")
	if err != nil {
		t.Fatalf("ExportIssuerKey: %v", err)
	}
	if exported != journalKey {
		t.Fatalf("export mismatch: %s vs %s", exported, journalKey)
	}

	loaded, err := ks.LoadSeed("", "alice", "", "")
	if err != nil {
		t.Fatalf("LoadSeed: %v", err)
	}
	if string(loaded) != string(seed) {
		t.Fatal("loaded root seed mismatch")
	}

	entries, err := ks.ListKeys()
	if err != nil {
		t.Fatalf("ListKeys: %v", err)
	}
	if len(entries) != 1 || entries[0].Actor != "alice" {
		t.Fatalf("entries: %+v", entries)
	}
	if len(entries[0].Purposes) != 1 || entries[0].Purposes[0] != "journal" {
		t.Fatalf("purposes: %+v", entries[0].Purposes)
	}
}

func TestCheckActorRejectsUnsafeNames(t *testing.T) {
	for _, name := range []string{"", "a/b", "a b", "a.b", "../x"} {
		if err := CheckActor(name); err == nil {
			t.Fatalf("CheckActor(%q) must fail", name)
		}
	}
	if err := CheckActor("alice-2_backup"); err != nil {
		t.Fatalf("CheckActor: %v", err)
	}
}
