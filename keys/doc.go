// Package keys provides local-first key management for vault actors.
//
// An actor (owner, guardian, relayer) holds one Ed25519 root seed; purpose
// keys (e.g. "journal", "recovery") are derived deterministically from the
// root, so a backup of the root seed recovers every key the actor ever
// derived. The filesystem layout is plain hex seed files under a directory
// tree, one subtree per actor.
//
// The pure derivation and formatting primitives are deterministic and
// stable; the KeyStore filesystem surface is a convenience for the CLI.
package keys
