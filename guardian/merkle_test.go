package guardian

import (
	"testing"
	"time"

	"github.com/Philogy/Social-Recovery-Asset-Vault/identity"
)

func testIdentity(b byte) identity.Identity {
	var id identity.Identity
	for i := range id {
		id[i] = b
	}
	return id
}

func threeLeafTree(t *testing.T) (l1, l2, l3, root Hash, tree *Tree) {
	t.Helper()
	l1 = Leaf(testIdentity(1), 3*24*time.Hour)
	l2 = Leaf(testIdentity(2), 30*24*time.Hour)
	l3 = Leaf(testIdentity(3), 365*24*time.Hour)
	tree, err := NewTree([]Hash{l1, l2, l3})
	if err != nil {
		t.Fatalf("NewTree: %v", err)
	}
	return l1, l2, l3, tree.Root(), tree
}

func TestVerifyThreeLeafOrientation(t *testing.T) {
	l1, l2, l3, root, _ := threeLeafTree(t)

	// Root is H(H(L1,L2), L3); L1 sits leftmost, so both orientation bits are 0.
	if !Verify(l1, Proof{Index: 0, Siblings: []Hash{l2, l3}}, root) {
		t.Fatal("valid proof for L1 must verify")
	}
	if Verify(l1, Proof{Index: 0, Siblings: []Hash{l3, l2}}, root) {
		t.Fatal("sibling order matters: swapped proof must fail")
	}
	// L2 is a right child: first sibling is on the left.
	if !Verify(l2, Proof{Index: 1, Siblings: []Hash{l1, l3}}, root) {
		t.Fatal("valid proof for L2 must verify")
	}
	if Verify(l2, Proof{Index: 0, Siblings: []Hash{l1, l3}}, root) {
		t.Fatal("wrong orientation bits must fail")
	}
	// L3 was promoted past level 0 and pairs once, as the right operand.
	if !Verify(l3, Proof{Index: 1, Siblings: []Hash{hashPair(l1, l2)}}, root) {
		t.Fatal("valid proof for L3 must verify")
	}
}

func TestVerifyRejectsForgedLeaf(t *testing.T) {
	_, _, _, root, tree := threeLeafTree(t)

	forged := Leaf(testIdentity(9), time.Second)
	for i := 0; i < tree.Len(); i++ {
		p, err := tree.Prove(i)
		if err != nil {
			t.Fatalf("Prove(%d): %v", i, err)
		}
		if Verify(forged, p, root) {
			t.Fatalf("forged leaf must not verify with proof %d", i)
		}
	}
	if Verify(forged, Proof{}, root) {
		t.Fatal("forged leaf with empty proof must fail")
	}
}

func TestVerifyEmptyProofSingleGuardian(t *testing.T) {
	leaf := Leaf(testIdentity(7), time.Hour)
	if !Verify(leaf, Proof{}, leaf) {
		t.Fatal("depth-0 tree: leaf == root must verify with empty proof")
	}
	other := Leaf(testIdentity(8), time.Hour)
	if Verify(other, Proof{}, leaf) {
		t.Fatal("empty proof must fail when leaf != root")
	}
	if Verify(leaf, Proof{Index: 1}, leaf) {
		t.Fatal("leftover orientation bits must fail")
	}
}

func TestVerifyRejectsLeftoverIndexBits(t *testing.T) {
	l1, l2, l3, root, _ := threeLeafTree(t)
	if Verify(l1, Proof{Index: 4, Siblings: []Hash{l2, l3}}, root) {
		t.Fatal("index bits beyond the sibling count must fail")
	}
}

func TestVerifyOversizedProof(t *testing.T) {
	leaf := Leaf(testIdentity(1), time.Hour)
	sibs := make([]Hash, 65)
	if Verify(leaf, Proof{Siblings: sibs}, leaf) {
		t.Fatal("oversized proof must fail, not panic")
	}
}

func TestTreeProveAllSizes(t *testing.T) {
	for n := 1; n <= 9; n++ {
		leaves := make([]Hash, n)
		for i := range leaves {
			leaves[i] = Leaf(testIdentity(byte(i+1)), time.Duration(i+1)*time.Hour)
		}
		tree, err := NewTree(leaves)
		if err != nil {
			t.Fatalf("n=%d NewTree: %v", n, err)
		}
		for i, leaf := range leaves {
			p, err := tree.Prove(i)
			if err != nil {
				t.Fatalf("n=%d Prove(%d): %v", n, i, err)
			}
			if !Verify(leaf, p, tree.Root()) {
				t.Fatalf("n=%d leaf %d: proof does not verify", n, i)
			}
			// Cross-leaf replay must fail.
			if j := (i + 1) % n; n > 1 && Verify(leaves[j], p, tree.Root()) {
				t.Fatalf("n=%d: proof for leaf %d verified leaf %d", n, i, j)
			}
		}
	}
}

func TestTreeProveOutOfRange(t *testing.T) {
	tree, err := NewTree([]Hash{Leaf(testIdentity(1), time.Hour)})
	if err != nil {
		t.Fatalf("NewTree: %v", err)
	}
	if _, err := tree.Prove(1); err == nil {
		t.Fatal("out-of-range index must error")
	}
	if _, err := tree.Prove(-1); err == nil {
		t.Fatal("negative index must error")
	}
}

func TestLeafEncoding(t *testing.T) {
	a := Leaf(testIdentity(1), time.Hour)
	if a != Leaf(testIdentity(1), time.Hour) {
		t.Fatal("leaf hashing must be deterministic")
	}
	if a == Leaf(testIdentity(1), 2*time.Hour) {
		t.Fatal("delay must be committed in the leaf")
	}
	if a == Leaf(testIdentity(2), time.Hour) {
		t.Fatal("identity must be committed in the leaf")
	}
	// Sub-second precision truncates to whole seconds.
	if Leaf(testIdentity(1), time.Hour+time.Millisecond) != a {
		t.Fatal("leaf encoding has second granularity")
	}
}

func TestProofEncodeDecode(t *testing.T) {
	_, _, _, _, tree := threeLeafTree(t)
	for i := 0; i < tree.Len(); i++ {
		p, _ := tree.Prove(i)
		got, err := DecodeProof(p.Encode())
		if err != nil {
			t.Fatalf("DecodeProof: %v", err)
		}
		if got.Index != p.Index || len(got.Siblings) != len(p.Siblings) {
			t.Fatalf("round trip mismatch at leaf %d", i)
		}
		for j := range p.Siblings {
			if got.Siblings[j] != p.Siblings[j] {
				t.Fatalf("sibling %d mismatch at leaf %d", j, i)
			}
		}
	}

	for _, bad := range []string{"", "abc", "1:zz", "x:", "0:1234"} {
		if _, err := DecodeProof(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
	if p, err := DecodeProof("0:"); err != nil || len(p.Siblings) != 0 {
		t.Fatalf("empty proof must decode: %v", err)
	}
}

func TestHashParseString(t *testing.T) {
	h := Leaf(testIdentity(5), time.Minute)
	got, err := ParseHash(h.String())
	if err != nil {
		t.Fatalf("ParseHash: %v", err)
	}
	if got != h {
		t.Fatal("round trip mismatch")
	}
	for _, bad := range []string{"", "0x12", h.String()[2:], "0X" + h.String()[2:]} {
		if _, err := ParseHash(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}
