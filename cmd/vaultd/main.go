package main

import (
	"flag"
	"fmt"
	"net"
	"os"

	"google.golang.org/grpc"

	"github.com/Philogy/Social-Recovery-Asset-Vault/guardian"
	"github.com/Philogy/Social-Recovery-Asset-Vault/identity"
	"github.com/Philogy/Social-Recovery-Asset-Vault/journal"
	"github.com/Philogy/Social-Recovery-Asset-Vault/keys"
	"github.com/Philogy/Social-Recovery-Asset-Vault/store"
	"github.com/Philogy/Social-Recovery-Asset-Vault/vault"
	"github.com/Philogy/Social-Recovery-Asset-Vault/vaultrpc"
)

func main() {
	fs := flag.NewFlagSet("vaultd", flag.ExitOnError)
	listen := fs.String("listen", "127.0.0.1:7777", "listen address")
	vaultID := fs.String("vault-id", "", "vault identity (0x + 40 hex)")
	owner := fs.String("owner", "", "initial owner identity (0x + 40 hex)")
	guardianSet := fs.String("guardians", "", "guardian set file committed at initialization")
	storeConfig := fs.String("store-config", "", "store config JSON; executed commands and journal records are archived there")
	journalID := fs.String("journal-id", "", "journal identifier recorded in every event record (default: vault identity)")
	journalSeedHex := fs.String("journal-seed-hex", "", "optional ed25519 seed (64 hex) for signing journal records")

	_ = fs.Parse(os.Args[1:])

	self, err := identity.Parse(*vaultID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid --vault-id: %v\n", err)
		os.Exit(2)
	}
	initialOwner, err := identity.Parse(*owner)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid --owner: %v\n", err)
		os.Exit(2)
	}

	root := guardian.ZeroHash
	if *guardianSet != "" {
		b, err := os.ReadFile(*guardianSet)
		if err != nil {
			fmt.Fprintf(os.Stderr, "read --guardians: %v\n", err)
			os.Exit(1)
		}
		decls, err := guardian.ParseSet(b)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid guardian set: %v\n", err)
			os.Exit(1)
		}
		tree, err := guardian.NewTreeFromDeclarations(decls)
		if err != nil {
			fmt.Fprintf(os.Stderr, "guardian tree: %v\n", err)
			os.Exit(1)
		}
		root = tree.Root()
	}

	var archive store.CAS
	if *storeConfig != "" {
		cfg, err := store.LoadConfigFile(*storeConfig)
		if err != nil {
			fmt.Fprintf(os.Stderr, "store config: %v\n", err)
			os.Exit(1)
		}
		archive, err = cfg.Open()
		if err != nil {
			fmt.Fprintf(os.Stderr, "open store: %v\n", err)
			os.Exit(1)
		}
	}

	jopts := journal.RenderOptions{JournalID: *journalID}
	if jopts.JournalID == "" {
		jopts.JournalID = self.String()
	}
	if *journalSeedHex != "" {
		seed, err := keys.ParseSeedHex(*journalSeedHex)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid --journal-seed-hex: %v\n", err)
			os.Exit(2)
		}
		jopts.PrivateKey = keys.PrivateKeyFromSeed(seed)
		jopts.JournalKey = keys.IssuerKeyFromSeed(seed)
	}
	j := journal.New(jopts)
	if archive != nil {
		j.OnEntry = func(e journal.Entry) {
			if _, err := archive.Put(e.Bytes); err != nil {
				fmt.Fprintf(os.Stderr, "archive journal record %d: %v\n", e.Seq, err)
			}
		}
	}

	v := vault.New(vault.Options{Self: self, Sink: j})
	if err := v.Initialize(initialOwner, root); err != nil {
		fmt.Fprintf(os.Stderr, "initialize vault: %v\n", err)
		os.Exit(1)
	}

	srv := vaultrpc.NewServer(v)
	srv.Archive = archive

	lis, err := net.Listen("tcp", *listen)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer lis.Close()

	s := grpc.NewServer()
	vaultrpc.RegisterVaultServer(s, srv)

	fmt.Fprintf(os.Stderr, "vaultd serving %s on %s (owner=%s root=%s)\n",
		self, lis.Addr().String(), initialOwner, root)
	if err := s.Serve(lis); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
