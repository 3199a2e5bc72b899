// Generates a deterministic signed command envelope for use as a
// cross-implementation conformance vector.
package main

import (
	"crypto/ed25519"
	"fmt"

	"github.com/Philogy/Social-Recovery-Asset-Vault/command"
	"github.com/Philogy/Social-Recovery-Asset-Vault/identity"
)

func mustKeypair(seedByte byte) ed25519.PrivateKey {
	seed := make([]byte, ed25519.SeedSize)
	for i := range seed {
		seed[i] = seedByte
	}
	return ed25519.NewKeyFromSeed(seed)
}

func main() {
	priv := mustKeypair(0xA1)

	var vaultID identity.Identity
	for i := range vaultID {
		vaultID[i] = 0xEE
	}

	cmd, err := command.SignEd25519(command.Draft{
		Vault: vaultID,
		Nonce: 1,
		Op:    map[string]string{"Op": command.OpPing},
	}, "sha256", priv)
	if err != nil {
		panic(err)
	}
	if err := cmd.Verify(); err != nil {
		panic(err)
	}

	fmt.Printf("CID=%s\n", cmd.CID())
	fmt.Printf("---BEGIN---\n%s\n---END---\n", string(cmd.Raw))
}
