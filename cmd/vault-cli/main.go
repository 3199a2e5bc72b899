package main

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/ipfs/go-cid"

	"github.com/Philogy/Social-Recovery-Asset-Vault/command"
	"github.com/Philogy/Social-Recovery-Asset-Vault/guardian"
	"github.com/Philogy/Social-Recovery-Asset-Vault/identity"
	"github.com/Philogy/Social-Recovery-Asset-Vault/journal"
	"github.com/Philogy/Social-Recovery-Asset-Vault/keys"
	"github.com/Philogy/Social-Recovery-Asset-Vault/store"
	"github.com/Philogy/Social-Recovery-Asset-Vault/vaultrpc"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, out io.Writer, errOut io.Writer) int {
	if len(args) == 0 {
		printUsage(errOut)
		return 2
	}

	switch args[0] {
	case "key":
		return cmdKey(args[1:], out, errOut)
	case "guardians":
		return cmdGuardians(args[1:], out, errOut)
	case "command":
		return cmdCommand(args[1:], out, errOut)
	case "send":
		return cmdSend(args[1:], out, errOut)
	case "status":
		return cmdStatus(args[1:], out, errOut)
	case "events":
		return cmdEvents(args[1:], out, errOut)
	case "journal":
		return cmdJournal(args[1:], out, errOut)
	case "store":
		return cmdStore(args[1:], out, errOut)
	case "identity":
		return cmdIdentity(args[1:], out, errOut)
	case "help", "-h", "--help":
		printUsage(out)
		return 0
	default:
		fmt.Fprintf(errOut, "unknown command: %s\n\n", args[0])
		printUsage(errOut)
		return 2
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "vault-cli: key management, guardian sets, and signed vault commands")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  vault-cli key init --actor <name> [--seed-hex <64hex>] [--force]")
	fmt.Fprintln(w, "  vault-cli key derive --actor <name> --purpose <purpose> [--force]")
	fmt.Fprintln(w, "  vault-cli key list")
	fmt.Fprintln(w, "  vault-cli key export --actor <name> [--purpose <purpose>]")
	fmt.Fprintln(w, "  vault-cli identity (--seed-hex <64hex> | --issuer-key <key> | --actor <name> [--purpose <p>])")
	fmt.Fprintln(w, "  vault-cli guardians root <set-file>")
	fmt.Fprintln(w, "  vault-cli guardians prove --set <set-file> --index <i>")
	fmt.Fprintln(w, "  vault-cli command sign --vault <0xid> --nonce <n> --op <name> [--arg Key=Value ...] \\")
	fmt.Fprintln(w, "      (--seed-hex <64hex> | --actor <name> [--purpose <p>] | --key-file <path>) [--hash <alg>] [--alg <scheme>]")
	fmt.Fprintln(w, "  vault-cli command cid <file>")
	fmt.Fprintln(w, "  vault-cli send --to <addr> <command-file>")
	fmt.Fprintln(w, "  vault-cli status --to <addr> [--vault <0xid>]")
	fmt.Fprintln(w, "  vault-cli events --to <addr> [--after <seq>]")
	fmt.Fprintln(w, "  vault-cli journal verify [--head <64hex>] <record-file> [<record-file> ...]")
	fmt.Fprintln(w, "  vault-cli store export --config <store.json> --out <archive.tar> [--label name=cid ...] <cid> [...]")
	fmt.Fprintln(w, "  vault-cli store import --config <store.json> <archive.tar>")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Notes:")
	fmt.Fprintln(w, "  - --seed-hex must be 32 bytes (64 hex chars) ed25519 seed")
	fmt.Fprintln(w, "  - keys are stored under ~/.srvault/keys/<actor> (0600 seed files)")
	fmt.Fprintln(w, "  - command sign writes canonical envelope bytes to stdout (no trailing newline)")
	fmt.Fprintln(w, "  - the vault authorizes the identity of the signing key, not any claimed caller")
}

// loadSigner resolves a signing seed from the shared signer flags.
func loadSigner(seedHex, actor, purpose, keyFile, dir string) ([]byte, error) {
	ks, err := keys.Open(dir)
	if err != nil {
		return nil, err
	}
	return ks.LoadSeed(seedHex, actor, purpose, keyFile)
}

func cmdKey(args []string, out io.Writer, errOut io.Writer) int {
	if len(args) == 0 {
		printKeyUsage(errOut)
		return 2
	}
	switch args[0] {
	case "init":
		return cmdKeyInit(args[1:], out, errOut)
	case "derive":
		return cmdKeyDerive(args[1:], out, errOut)
	case "list":
		return cmdKeyList(args[1:], out, errOut)
	case "export":
		return cmdKeyExport(args[1:], out, errOut)
	case "help", "-h", "--help":
		printKeyUsage(out)
		return 0
	default:
		fmt.Fprintf(errOut, "unknown key subcommand: %s\n\n", args[0])
		printKeyUsage(errOut)
		return 2
	}
}

func printKeyUsage(w io.Writer) {
	fmt.Fprintln(w, "vault-cli key: minimal local key management")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  vault-cli key init --actor <name> [--seed-hex <64hex>] [--force]")
	fmt.Fprintln(w, "  vault-cli key derive --actor <name> --purpose <purpose> [--force]")
	fmt.Fprintln(w, "  vault-cli key list")
	fmt.Fprintln(w, "  vault-cli key export --actor <name> [--purpose <purpose>]")
}

func cmdKeyInit(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("key init", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var actor string
	var seedHex string
	var dir string
	var force bool

	fs.StringVar(&actor, "actor", "", "Actor name (directory under ~/.srvault/keys)")
	fs.StringVar(&seedHex, "seed-hex", "", "Optional ed25519 seed as 64 hex chars (for reproducible setups)")
	fs.StringVar(&dir, "dir", "", "Key store directory override")
	fs.BoolVar(&force, "force", false, "Overwrite existing key files")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if actor == "" {
		fmt.Fprintln(errOut, "missing --actor")
		return 2
	}
	if err := keys.CheckActor(actor); err != nil {
		fmt.Fprintf(errOut, "invalid --actor: %v\n", err)
		return 2
	}
	ks, err := keys.Open(dir)
	if err != nil {
		fmt.Fprintf(errOut, "keys: %v\n", err)
		return 1
	}

	var seed []byte
	if seedHex != "" {
		var derr error
		seed, derr = keys.ParseSeedHex(seedHex)
		if derr != nil {
			fmt.Fprintf(errOut, "invalid --seed-hex: %v\n", derr)
			return 2
		}
	} else {
		seed = make([]byte, ed25519.SeedSize)
		if _, err := rand.Read(seed); err != nil {
			fmt.Fprintf(errOut, "rand: %v\n", err)
			return 1
		}
	}

	issuerKey, rootPath, err := ks.InitRootKey(actor, seed, force)
	if err != nil {
		fmt.Fprintf(errOut, "write key: %v\n", err)
		return 1
	}
	fmt.Fprintf(out, "Created root key: %s\n", issuerKey)
	fmt.Fprintf(out, "Identity: %s\n", keys.IdentityFromSeed(seed))
	fmt.Fprintf(out, "Stored at: %s\n", rootPath)
	return 0
}

func cmdKeyDerive(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("key derive", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var actor string
	var purpose string
	var dir string
	var force bool

	fs.StringVar(&actor, "actor", "", "Actor whose root key to derive from")
	fs.StringVar(&purpose, "purpose", "", "Purpose identifier (e.g. journal, recovery)")
	fs.StringVar(&dir, "dir", "", "Key store directory override")
	fs.BoolVar(&force, "force", false, "Overwrite existing key files")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if actor == "" {
		fmt.Fprintln(errOut, "missing --actor")
		return 2
	}
	if purpose == "" {
		fmt.Fprintln(errOut, "missing --purpose")
		return 2
	}
	ks, err := keys.Open(dir)
	if err != nil {
		fmt.Fprintf(errOut, "keys: %v\n", err)
		return 1
	}
	issuerKey, purposePath, err := ks.DerivePurposeKey(actor, purpose, force)
	if err != nil {
		fmt.Fprintf(errOut, "derive purpose key: %v\n", err)
		return 1
	}
	fmt.Fprintf(out, "Created purpose key: %s\n", issuerKey)
	fmt.Fprintf(out, "Stored at: %s\n", purposePath)
	return 0
}

func cmdKeyExport(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("key export", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var actor string
	var purpose string
	var dir string

	fs.StringVar(&actor, "actor", "", "Actor name")
	fs.StringVar(&purpose, "purpose", "", "Optional purpose (if set, exports the derived key)")
	fs.StringVar(&dir, "dir", "", "Key store directory override")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if actor == "" {
		fmt.Fprintln(errOut, "missing --actor")
		return 2
	}
	ks, err := keys.Open(dir)
	if err != nil {
		fmt.Fprintf(errOut, "keys: %v\n", err)
		return 1
	}
	issuerKey, err := ks.ExportIssuerKey(actor, purpose)
	if err != nil {
		fmt.Fprintf(errOut, "export key: %v\n", err)
		return 1
	}
	_, _ = fmt.Fprintln(out, issuerKey)
	return 0
}

func cmdKeyList(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("key list", flag.ContinueOnError)
	fs.SetOutput(errOut)
	var dir string
	fs.StringVar(&dir, "dir", "", "Key store directory override")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	ks, err := keys.Open(dir)
	if err != nil {
		fmt.Fprintf(errOut, "keys: %v\n", err)
		return 1
	}
	entries, err := ks.ListKeys()
	if err != nil {
		fmt.Fprintf(errOut, "list keys: %v\n", err)
		return 1
	}
	for _, e := range entries {
		fmt.Fprintf(out, "%s\n", e.Actor)
		for _, p := range e.Purposes {
			fmt.Fprintf(out, "  - %s\n", p)
		}
	}
	return 0
}

func cmdIdentity(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("identity", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var seedHex string
	var issuerKey string
	var actor string
	var purpose string
	var dir string

	fs.StringVar(&seedHex, "seed-hex", "", "Ed25519 seed as 64 hex chars")
	fs.StringVar(&issuerKey, "issuer-key", "", "Issuer key string (ed25519:... or dilithium3:...)")
	fs.StringVar(&actor, "actor", "", "Stored actor name")
	fs.StringVar(&purpose, "purpose", "", "Optional purpose under --actor")
	fs.StringVar(&dir, "dir", "", "Key store directory override")

	if err := fs.Parse(args); err != nil {
		return 2
	}

	if issuerKey != "" {
		id, err := identity.FromIssuerKey(issuerKey)
		if err != nil {
			fmt.Fprintf(errOut, "invalid --issuer-key: %v\n", err)
			return 1
		}
		_, _ = fmt.Fprintln(out, id)
		return 0
	}

	seed, err := loadSigner(seedHex, actor, purpose, "", dir)
	if err != nil {
		fmt.Fprintf(errOut, "resolve key: %v\n", err)
		return 1
	}
	_, _ = fmt.Fprintln(out, keys.IdentityFromSeed(seed))
	return 0
}

func cmdGuardians(args []string, out io.Writer, errOut io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(errOut, "usage: vault-cli guardians <subcommand> ...")
		fmt.Fprintln(errOut, "subcommands: root, prove")
		return 2
	}
	switch args[0] {
	case "root":
		fs := flag.NewFlagSet("guardians root", flag.ContinueOnError)
		fs.SetOutput(errOut)
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}
		if fs.NArg() != 1 {
			fmt.Fprintln(errOut, "usage: vault-cli guardians root <set-file>")
			return 2
		}
		tree, _, code := loadGuardianTree(fs.Arg(0), errOut)
		if code != 0 {
			return code
		}
		_, _ = fmt.Fprintln(out, tree.Root())
		return 0
	case "prove":
		fs := flag.NewFlagSet("guardians prove", flag.ContinueOnError)
		fs.SetOutput(errOut)
		var setPath string
		var index int
		fs.StringVar(&setPath, "set", "", "Guardian set file")
		fs.IntVar(&index, "index", -1, "Declaration index (leaf position)")
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}
		if setPath == "" || index < 0 {
			fmt.Fprintln(errOut, "usage: vault-cli guardians prove --set <set-file> --index <i>")
			return 2
		}
		tree, decls, code := loadGuardianTree(setPath, errOut)
		if code != 0 {
			return code
		}
		if index >= len(decls) {
			fmt.Fprintf(errOut, "index %d out of range (%d declarations)\n", index, len(decls))
			return 2
		}
		proof, err := tree.Prove(index)
		if err != nil {
			fmt.Fprintf(errOut, "prove: %v\n", err)
			return 1
		}
		d := decls[index]
		fmt.Fprintf(out, "Guardian: %s\n", d.Identity)
		fmt.Fprintf(out, "Delay: %s\n", d.Delay)
		fmt.Fprintf(out, "Root: %s\n", tree.Root())
		fmt.Fprintf(out, "Proof: %s\n", proof.Encode())
		return 0
	default:
		fmt.Fprintf(errOut, "unknown guardians subcommand: %s\n", args[0])
		return 2
	}
}

func loadGuardianTree(path string, errOut io.Writer) (*guardian.Tree, []guardian.Declaration, int) {
	b, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(errOut, "read guardian set: %v\n", err)
		return nil, nil, 1
	}
	decls, err := guardian.ParseSet(b)
	if err != nil {
		fmt.Fprintf(errOut, "invalid guardian set: %v\n", err)
		return nil, nil, 1
	}
	tree, err := guardian.NewTreeFromDeclarations(decls)
	if err != nil {
		fmt.Fprintf(errOut, "guardian tree: %v\n", err)
		return nil, nil, 1
	}
	return tree, decls, 0
}

type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }
func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

func parseKVArgs(items []string) (map[string]string, error) {
	kv := make(map[string]string, len(items))
	for _, item := range items {
		k, v, ok := strings.Cut(item, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("expected Key=Value, got %q", item)
		}
		if _, dup := kv[k]; dup {
			return nil, fmt.Errorf("duplicate key %q", k)
		}
		kv[k] = v
	}
	return kv, nil
}

func cmdCommand(args []string, out io.Writer, errOut io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(errOut, "usage: vault-cli command <subcommand> ...")
		fmt.Fprintln(errOut, "subcommands: sign, cid")
		return 2
	}
	switch args[0] {
	case "sign":
		return cmdCommandSign(args[1:], out, errOut)
	case "cid":
		fs := flag.NewFlagSet("command cid", flag.ContinueOnError)
		fs.SetOutput(errOut)
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}
		if fs.NArg() != 1 {
			fmt.Fprintln(errOut, "usage: vault-cli command cid <file>")
			return 2
		}
		b, err := os.ReadFile(fs.Arg(0))
		if err != nil {
			fmt.Fprintf(errOut, "read command: %v\n", err)
			return 1
		}
		cmd, err := command.Parse(b)
		if err != nil {
			fmt.Fprintf(errOut, "invalid command: %v\n", err)
			return 1
		}
		_, _ = fmt.Fprintln(out, cmd.CID())
		return 0
	default:
		fmt.Fprintf(errOut, "unknown command subcommand: %s\n", args[0])
		return 2
	}
}

func cmdCommandSign(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("command sign", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var vaultID string
	var nonce uint64
	var op string
	var opArgs stringList
	var hashAlg string
	var sigAlg string
	var seedHex string
	var actor string
	var purpose string
	var keyFile string
	var dir string

	fs.StringVar(&vaultID, "vault", "", "Addressed vault identity (0x + 40 hex)")
	fs.Uint64Var(&nonce, "nonce", 0, "Issuer nonce; must strictly increase per issuer")
	fs.StringVar(&op, "op", "", "Operation name (ping, transfer-ownership, set-guardian-root, recover, transfer-native, transfer-item, transfer-units)")
	fs.Var(&opArgs, "arg", "Operation operand as Key=Value (repeatable)")
	fs.StringVar(&hashAlg, "hash", "sha256", "Digest algorithm: sha256, sha512, sha3-256")
	fs.StringVar(&sigAlg, "alg", "ed25519", "Signature scheme: ed25519, dilithium3")
	fs.StringVar(&seedHex, "seed-hex", "", "Ed25519 seed as 64 hex chars")
	fs.StringVar(&actor, "actor", "", "Stored actor to sign with")
	fs.StringVar(&purpose, "purpose", "", "Optional purpose under --actor")
	fs.StringVar(&keyFile, "key-file", "", "Seed file path")
	fs.StringVar(&dir, "dir", "", "Key store directory override")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if op == "" {
		fmt.Fprintln(errOut, "missing --op")
		return 2
	}
	vid, err := identity.Parse(vaultID)
	if err != nil {
		fmt.Fprintf(errOut, "invalid --vault: %v\n", err)
		return 2
	}
	opPairs, err := parseKVArgs(opArgs)
	if err != nil {
		fmt.Fprintf(errOut, "invalid --arg: %v\n", err)
		return 2
	}
	if existing, ok := opPairs["Op"]; ok && existing != op {
		fmt.Fprintln(errOut, "--arg Op conflicts with --op")
		return 2
	}
	opPairs["Op"] = op

	seed, err := loadSigner(seedHex, actor, purpose, keyFile, dir)
	if err != nil {
		fmt.Fprintf(errOut, "resolve signer: %v\n", err)
		return 1
	}

	draft := command.Draft{
		Vault: vid,
		Nonce: nonce,
		Op:    opPairs,
	}
	var cmd *command.Command
	switch sigAlg {
	case "ed25519":
		cmd, err = command.SignEd25519(draft, hashAlg, keys.PrivateKeyFromSeed(seed))
	case "dilithium3":
		_, priv, kerr := keys.Dilithium3KeypairFromSeed(seed)
		if kerr != nil {
			fmt.Fprintf(errOut, "resolve signer: %v\n", kerr)
			return 1
		}
		cmd, err = command.SignDilithium3(draft, hashAlg, priv)
	default:
		fmt.Fprintf(errOut, "unsupported --alg: %q\n", sigAlg)
		return 2
	}
	if err != nil {
		fmt.Fprintf(errOut, "sign command: %v\n", err)
		return 1
	}
	// Reject operand problems before the envelope leaves the machine.
	if _, err := command.Decode(cmd); err != nil {
		fmt.Fprintf(errOut, "invalid operation: %v\n", err)
		return 1
	}
	if _, err := out.Write(cmd.Raw); err != nil {
		fmt.Fprintf(errOut, "write command: %v\n", err)
		return 1
	}
	return 0
}

func cmdSend(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("send", flag.ContinueOnError)
	fs.SetOutput(errOut)
	var target string
	var timeout time.Duration
	fs.StringVar(&target, "to", "", "vaultd address")
	fs.DurationVar(&timeout, "timeout", 10*time.Second, "Per-RPC timeout")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if target == "" || fs.NArg() != 1 {
		fmt.Fprintln(errOut, "usage: vault-cli send --to <addr> <command-file>")
		return 2
	}
	b, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(errOut, "read command: %v\n", err)
		return 1
	}

	client, err := vaultrpc.Dial(target, vaultrpc.DialOptions{Timeout: timeout})
	if err != nil {
		fmt.Fprintf(errOut, "dial: %v\n", err)
		return 1
	}
	defer client.Close()
	client.Timeout = timeout

	receipt, err := client.Execute(b)
	if err != nil {
		fmt.Fprintf(errOut, "execute: %v\n", err)
		return 1
	}
	return printJSON(out, errOut, receipt)
}

func cmdStatus(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	fs.SetOutput(errOut)
	var target string
	var vaultID string
	var timeout time.Duration
	fs.StringVar(&target, "to", "", "vaultd address")
	fs.StringVar(&vaultID, "vault", "", "Expected vault identity; the read fails if the server holds another")
	fs.DurationVar(&timeout, "timeout", 10*time.Second, "Per-RPC timeout")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if target == "" {
		fmt.Fprintln(errOut, "usage: vault-cli status --to <addr> [--vault <0xid>]")
		return 2
	}

	client, err := vaultrpc.Dial(target, vaultrpc.DialOptions{Timeout: timeout})
	if err != nil {
		fmt.Fprintf(errOut, "dial: %v\n", err)
		return 1
	}
	defer client.Close()
	client.Timeout = timeout

	st, err := client.Status(vaultID)
	if err != nil {
		fmt.Fprintf(errOut, "status: %v\n", err)
		return 1
	}
	return printJSON(out, errOut, st)
}

func cmdEvents(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("events", flag.ContinueOnError)
	fs.SetOutput(errOut)
	var target string
	var after uint64
	var timeout time.Duration
	fs.StringVar(&target, "to", "", "vaultd address")
	fs.Uint64Var(&after, "after", 0, "Return events with sequence numbers greater than this")
	fs.DurationVar(&timeout, "timeout", 10*time.Second, "Per-RPC timeout")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if target == "" {
		fmt.Fprintln(errOut, "usage: vault-cli events --to <addr> [--after <seq>]")
		return 2
	}

	client, err := vaultrpc.Dial(target, vaultrpc.DialOptions{Timeout: timeout})
	if err != nil {
		fmt.Fprintf(errOut, "dial: %v\n", err)
		return 1
	}
	defer client.Close()
	client.Timeout = timeout

	events, err := client.Events(after)
	if err != nil {
		fmt.Fprintf(errOut, "events: %v\n", err)
		return 1
	}
	return printJSON(out, errOut, events)
}

func cmdJournal(args []string, out io.Writer, errOut io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(errOut, "usage: vault-cli journal <subcommand> ...")
		fmt.Fprintln(errOut, "subcommands: verify")
		return 2
	}
	switch args[0] {
	case "verify":
		fs := flag.NewFlagSet("journal verify", flag.ContinueOnError)
		fs.SetOutput(errOut)
		var headHex string
		fs.StringVar(&headHex, "head", "", "Trusted chain link preceding the first record (default: empty chain)")
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}
		if fs.NArg() == 0 {
			fmt.Fprintln(errOut, "usage: vault-cli journal verify [--head <64hex>] <record-file> [...]")
			return 2
		}

		head := journal.EmptyLink()
		if headHex != "" {
			var err error
			head, err = journal.ParseLink(headHex)
			if err != nil {
				fmt.Fprintf(errOut, "invalid --head: %v\n", err)
				return 2
			}
		}

		records := make([][]byte, 0, fs.NArg())
		for _, path := range fs.Args() {
			b, err := os.ReadFile(path)
			if err != nil {
				fmt.Fprintf(errOut, "read record: %v\n", err)
				return 1
			}
			records = append(records, b)
		}
		final, err := journal.VerifyChain(records, head)
		if err != nil {
			fmt.Fprintf(errOut, "chain invalid: %v\n", err)
			return 1
		}
		fmt.Fprintf(out, "OK %d records\n", len(records))
		fmt.Fprintf(out, "Link: %s\n", final)
		return 0
	default:
		fmt.Fprintf(errOut, "unknown journal subcommand: %s\n", args[0])
		return 2
	}
}

func cmdStore(args []string, out io.Writer, errOut io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(errOut, "usage: vault-cli store <subcommand> ...")
		fmt.Fprintln(errOut, "subcommands: export, import")
		return 2
	}
	switch args[0] {
	case "export":
		return cmdStoreExport(args[1:], out, errOut)
	case "import":
		return cmdStoreImport(args[1:], out, errOut)
	default:
		fmt.Fprintf(errOut, "unknown store subcommand: %s\n", args[0])
		return 2
	}
}

func cmdStoreExport(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("store export", flag.ContinueOnError)
	fs.SetOutput(errOut)
	var configPath string
	var outPath string
	var labelArgs stringList
	fs.StringVar(&configPath, "config", "", "Store config JSON")
	fs.StringVar(&outPath, "out", "", "Archive file to write")
	fs.Var(&labelArgs, "label", "Archive label as name=cid (repeatable)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if configPath == "" || outPath == "" || fs.NArg() == 0 {
		fmt.Fprintln(errOut, "usage: vault-cli store export --config <store.json> --out <archive.tar> [--label name=cid ...] <cid> [...]")
		return 2
	}

	cas, code := openStore(configPath, errOut)
	if code != 0 {
		return code
	}

	ids := make([]cid.Cid, 0, fs.NArg())
	for _, s := range fs.Args() {
		id, err := cid.Decode(s)
		if err != nil {
			fmt.Fprintf(errOut, "invalid cid %q: %v\n", s, err)
			return 2
		}
		ids = append(ids, id)
	}

	labelPairs, err := parseKVArgs(labelArgs)
	if err != nil {
		fmt.Fprintf(errOut, "invalid --label: %v\n", err)
		return 2
	}
	labels := make(map[string]cid.Cid, len(labelPairs))
	for name, s := range labelPairs {
		id, err := cid.Decode(s)
		if err != nil {
			fmt.Fprintf(errOut, "invalid --label cid %q: %v\n", s, err)
			return 2
		}
		labels[name] = id
	}

	f, err := os.Create(outPath)
	if err != nil {
		fmt.Fprintf(errOut, "create archive: %v\n", err)
		return 1
	}
	if err := store.Export(f, cas, ids, store.ExportOptions{IncludeIndex: true, Labels: labels}); err != nil {
		_ = f.Close()
		fmt.Fprintf(errOut, "export: %v\n", err)
		return 1
	}
	if err := f.Close(); err != nil {
		fmt.Fprintf(errOut, "close archive: %v\n", err)
		return 1
	}
	fmt.Fprintf(out, "Exported %d objects to %s\n", len(ids), outPath)
	return 0
}

func cmdStoreImport(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("store import", flag.ContinueOnError)
	fs.SetOutput(errOut)
	var configPath string
	fs.StringVar(&configPath, "config", "", "Store config JSON")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if configPath == "" || fs.NArg() != 1 {
		fmt.Fprintln(errOut, "usage: vault-cli store import --config <store.json> <archive.tar>")
		return 2
	}

	cas, code := openStore(configPath, errOut)
	if code != 0 {
		return code
	}
	f, err := os.Open(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(errOut, "open archive: %v\n", err)
		return 1
	}
	defer f.Close()
	if err := store.Import(f, cas); err != nil {
		fmt.Fprintf(errOut, "import: %v\n", err)
		return 1
	}
	fmt.Fprintln(out, "OK")
	return 0
}

func openStore(configPath string, errOut io.Writer) (store.CAS, int) {
	cfg, err := store.LoadConfigFile(configPath)
	if err != nil {
		fmt.Fprintf(errOut, "store config: %v\n", err)
		return nil, 1
	}
	cas, err := cfg.Open()
	if err != nil {
		fmt.Fprintf(errOut, "open store: %v\n", err)
		return nil, 1
	}
	return cas, 0
}

func printJSON(out, errOut io.Writer, v any) int {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(errOut, "encode: %v\n", err)
		return 1
	}
	_, _ = fmt.Fprintln(out, string(b))
	return 0
}
