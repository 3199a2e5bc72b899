package keys

import (
	"crypto/ed25519"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// KeyStore is the filesystem-backed key directory used by the CLI.
//
// Layout: <dir>/<actor>/root.key holds the actor's root seed, and
// <dir>/<actor>/purposes/<purpose>.key holds derived purpose seeds. Seed
// files are hex text, mode 0600.
type KeyStore struct {
	Directory string
}

// KeyEntry lists one actor and its derived purposes.
type KeyEntry struct {
	Actor    string
	Purposes []string
}

func DefaultDirectory() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".srvault", "keys"), nil
}

// Open opens a key store at directory, falling back to DefaultDirectory when
// directory is empty.
func Open(directory string) (*KeyStore, error) {
	if directory == "" {
		var err error
		directory, err = DefaultDirectory()
		if err != nil {
			return nil, err
		}
	}
	return &KeyStore{Directory: directory}, nil
}

func (ks *KeyStore) rootKeyPath(actor string) string {
	return filepath.Join(ks.Directory, actor, "root.key")
}

func (ks *KeyStore) purposeKeyPath(actor, purpose string) string {
	return filepath.Join(ks.Directory, actor, "purposes", purpose+".key")
}

// CheckActor restricts actor names to filesystem-safe identifiers.
func CheckActor(actor string) error {
	if actor == "" {
		return errors.New("actor name cannot be empty")
	}
	return checkNameChars(actor, "actor name")
}

// CheckPurpose restricts purpose names to filesystem-safe identifiers.
func CheckPurpose(purpose string) error {
	if purpose == "" {
		return errors.New("purpose cannot be empty")
	}
	return checkNameChars(purpose, "purpose")
}

func checkNameChars(name, what string) error {
	for _, char := range name {
		if (char >= 'a' && char <= 'z') || (char >= 'A' && char <= 'Z') ||
			(char >= '0' && char <= '9') || char == '-' || char == '_' {
			continue
		}
		return fmt.Errorf("invalid character %q in %s", char, what)
	}
	return nil
}

// ParseSeedHex parses a hex seed string, tolerating surrounding whitespace
// and an optional 0x prefix.
func ParseSeedHex(seedHex string) ([]byte, error) {
	seedHex = strings.TrimSpace(seedHex)
	seedHex = strings.TrimPrefix(seedHex, "0x")
	data, err := hex.DecodeString(seedHex)
	if err != nil {
		return nil, err
	}
	if len(data) != ed25519.SeedSize {
		return nil, fmt.Errorf("expected seed length of %d bytes, got %d", ed25519.SeedSize, len(data))
	}
	return data, nil
}

func (ks *KeyStore) saveSeedToFile(filePath string, seed []byte, overwrite bool) error {
	if len(seed) != ed25519.SeedSize {
		return fmt.Errorf("expected seed length of %d bytes", ed25519.SeedSize)
	}
	if err := os.MkdirAll(filepath.Dir(filePath), 0o700); err != nil {
		return err
	}
	flags := os.O_WRONLY | os.O_CREATE
	if overwrite {
		flags |= os.O_TRUNC
	} else {
		flags |= os.O_EXCL
	}
	file, err := os.OpenFile(filePath, flags, 0o600)
	if err != nil {
		return err
	}
	defer file.Close()
	if _, err := file.WriteString(hex.EncodeToString(seed) + "\n"); err != nil {
		return err
	}
	return file.Close()
}

func (ks *KeyStore) loadSeedFromFile(filePath string) ([]byte, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	return ParseSeedHex(strings.TrimSpace(string(data)))
}

// InitRootKey stores a root seed for an actor and returns the issuer key it
// controls plus the file it was written to.
func (ks *KeyStore) InitRootKey(actor string, seed []byte, overwrite bool) (issuerKey string, filePath string, err error) {
	if err := CheckActor(actor); err != nil {
		return "", "", err
	}
	filePath = ks.rootKeyPath(actor)
	if err := ks.saveSeedToFile(filePath, seed, overwrite); err != nil {
		return "", "", err
	}
	return IssuerKeyFromSeed(seed), filePath, nil
}

// DerivePurposeKey derives and stores a purpose key under an actor's root.
func (ks *KeyStore) DerivePurposeKey(actor, purpose string, overwrite bool) (issuerKey string, filePath string, err error) {
	if err := CheckActor(actor); err != nil {
		return "", "", err
	}
	if err := CheckPurpose(purpose); err != nil {
		return "", "", err
	}
	rootSeed, err := ks.loadSeedFromFile(ks.rootKeyPath(actor))
	if err != nil {
		return "", "", err
	}
	purposeSeed, err := DerivePurposeSeed(rootSeed, purpose)
	if err != nil {
		return "", "", err
	}
	filePath = ks.purposeKeyPath(actor, purpose)
	if err := ks.saveSeedToFile(filePath, purposeSeed, overwrite); err != nil {
		return "", "", err
	}
	return IssuerKeyFromSeed(purposeSeed), filePath, nil
}

// ExportIssuerKey returns the issuer key string for an actor's root key, or
// for one of its purpose keys when purpose is non-empty.
func (ks *KeyStore) ExportIssuerKey(actor, purpose string) (string, error) {
	if err := CheckActor(actor); err != nil {
		return "", err
	}
	var seed []byte
	var err error
	if purpose == "" {
		seed, err = ks.loadSeedFromFile(ks.rootKeyPath(actor))
	} else {
		if err := CheckPurpose(purpose); err != nil {
			return "", err
		}
		seed, err = ks.loadSeedFromFile(ks.purposeKeyPath(actor, purpose))
	}
	if err != nil {
		return "", err
	}
	return IssuerKeyFromSeed(seed), nil
}

// LoadSeed resolves a signing seed from, in order of precedence: a literal
// hex seed, an explicit key file, or a stored actor (optionally a purpose
// key).
func (ks *KeyStore) LoadSeed(seedHex, actor, purpose, keyFile string) ([]byte, error) {
	if seedHex != "" {
		return ParseSeedHex(seedHex)
	}
	if keyFile != "" {
		return ks.loadSeedFromFile(keyFile)
	}
	if actor != "" {
		if err := CheckActor(actor); err != nil {
			return nil, err
		}
		if purpose == "" {
			return ks.loadSeedFromFile(ks.rootKeyPath(actor))
		}
		if err := CheckPurpose(purpose); err != nil {
			return nil, err
		}
		return ks.loadSeedFromFile(ks.purposeKeyPath(actor, purpose))
	}
	return nil, errors.New("no signer provided")
}

// ListKeys enumerates stored actors and their derived purposes.
func (ks *KeyStore) ListKeys() ([]KeyEntry, error) {
	entries, err := os.ReadDir(ks.Directory)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var actors []string
	for _, entry := range entries {
		if entry.IsDir() {
			actors = append(actors, entry.Name())
		}
	}
	sort.Strings(actors)

	var result []KeyEntry
	for _, actor := range actors {
		purposesDir := filepath.Join(ks.Directory, actor, "purposes")
		purposeEntries, perr := os.ReadDir(purposesDir)
		var purposes []string
		if perr == nil {
			for _, pe := range purposeEntries {
				if pe.IsDir() {
					continue
				}
				if strings.HasSuffix(pe.Name(), ".key") {
					purposes = append(purposes, strings.TrimSuffix(pe.Name(), ".key"))
				}
			}
			sort.Strings(purposes)
		}
		result = append(result, KeyEntry{Actor: actor, Purposes: purposes})
	}
	return result, nil
}
