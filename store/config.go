package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// Config describes how to open one or more CAS backends from configuration.
//
// WritePolicy values:
// - "first" (default): write only to the first backend; reads fall back in order
// - "all": write to all backends and require CID equality (see Mirror)
//
// Example:
//
//	{
//	  "write_policy": "all",
//	  "backends": [
//	    {"kind":"localfs", "path":"/var/lib/vaultd/objects"},
//	    {"kind":"memory", "id":"hot"}
//	  ]
//	}
type Config struct {
	WritePolicy string          `json:"write_policy,omitempty"`
	Backends    []BackendConfig `json:"backends"`
}

type BackendConfig struct {
	// Kind selects the backend implementation: "localfs" or "memory".
	Kind string `json:"kind"`
	// ID is an optional stable alias used for identification and per-backend
	// CID maps. If empty, Kind is used.
	ID string `json:"id,omitempty"`
	// Path is the object directory for localfs backends.
	Path string `json:"path,omitempty"`
}

func LoadConfigFile(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, errors.New("store: empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := json.Unmarshal(b, &cfg); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if len(c.Backends) == 0 {
		return errors.New("store: at least one backend is required")
	}
	seen := make(map[string]struct{}, len(c.Backends))
	for _, b := range c.Backends {
		switch b.Kind {
		case "localfs":
			if b.Path == "" {
				return errors.New("store: localfs backend requires a path")
			}
		case "memory":
		case "":
			return errors.New("store: backend kind is required")
		default:
			return fmt.Errorf("store: unknown backend kind %q", b.Kind)
		}
		id := b.Kind
		if b.ID != "" {
			id = b.ID
		}
		if _, ok := seen[id]; ok {
			return fmt.Errorf("store: duplicate backend id %q", id)
		}
		seen[id] = struct{}{}
	}
	switch c.WritePolicy {
	case "", "first", "all":
		return nil
	default:
		return fmt.Errorf("store: invalid write_policy %q", c.WritePolicy)
	}
}

// Open opens a CAS per config.
func (c Config) Open() (CAS, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	named := make([]Named, 0, len(c.Backends))
	for _, b := range c.Backends {
		var cas CAS
		switch b.Kind {
		case "localfs":
			fs, err := NewLocalFS(b.Path)
			if err != nil {
				return nil, err
			}
			cas = fs
		case "memory":
			cas = NewMemory()
		}
		name := b.Kind
		if b.ID != "" {
			name = b.ID
		}
		named = append(named, Named{Name: name, CAS: cas})
	}

	if len(named) == 1 {
		return named[0].CAS, nil
	}

	switch c.WritePolicy {
	case "", "first":
		backends := make([]CAS, 0, len(named))
		for _, n := range named {
			backends = append(backends, n.CAS)
		}
		return Tiered{Backends: backends}, nil
	case "all":
		return Mirror{Backends: named}, nil
	default:
		return nil, fmt.Errorf("store: invalid write_policy %q", c.WritePolicy)
	}
}
