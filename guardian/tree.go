package guardian

import (
	"errors"
	"fmt"
)

// Tree is the off-core Merkle tree over a fixed leaf order.
//
// Leaf order is the declaration order supplied by the owner; the tree is
// deterministic for a given order. An odd node at any level is promoted
// unchanged, so proofs may be shorter than the full tree depth for trailing
// leaves.
type Tree struct {
	levels [][]Hash // levels[0] holds the leaves, last level holds the root alone
}

// NewTree builds a tree over the given leaves.
func NewTree(leaves []Hash) (*Tree, error) {
	if len(leaves) == 0 {
		return nil, errors.New("guardian: tree requires at least one leaf")
	}
	levels := [][]Hash{append([]Hash(nil), leaves...)}
	for len(levels[len(levels)-1]) > 1 {
		curr := levels[len(levels)-1]
		next := make([]Hash, 0, (len(curr)+1)/2)
		for i := 0; i < len(curr); i += 2 {
			if i+1 < len(curr) {
				next = append(next, hashPair(curr[i], curr[i+1]))
			} else {
				next = append(next, curr[i])
			}
		}
		levels = append(levels, next)
	}
	return &Tree{levels: levels}, nil
}

// NewTreeFromDeclarations builds the tree for a declaration set in order.
func NewTreeFromDeclarations(decls []Declaration) (*Tree, error) {
	leaves := make([]Hash, len(decls))
	for i, d := range decls {
		leaves[i] = d.Leaf()
	}
	return NewTree(leaves)
}

// Root returns the committed root.
func (t *Tree) Root() Hash {
	top := t.levels[len(t.levels)-1]
	return top[0]
}

// Len returns the number of leaves.
func (t *Tree) Len() int {
	return len(t.levels[0])
}

// Prove returns the membership proof for the leaf at position i.
func (t *Tree) Prove(i int) (Proof, error) {
	if i < 0 || i >= len(t.levels[0]) {
		return Proof{}, fmt.Errorf("guardian: leaf index %d out of range [0,%d)", i, len(t.levels[0]))
	}
	var p Proof
	pos := i
	step := 0
	for _, level := range t.levels[:len(t.levels)-1] {
		sib := pos ^ 1
		if sib < len(level) {
			p.Siblings = append(p.Siblings, level[sib])
			if pos&1 == 1 {
				p.Index |= 1 << step
			}
			step++
		}
		// A promoted odd node consumes no sibling and no orientation bit.
		pos /= 2
	}
	return p, nil
}
