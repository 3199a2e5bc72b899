// Package journal renders vault events as canonical armored records chained
// by a blake3 hash chain, so an exported journal can be verified end to end
// and any two replicas that agree on the final link agree on every record.
package journal

import (
	"sync"

	"github.com/Philogy/Social-Recovery-Asset-Vault/cidutil"
	"github.com/Philogy/Social-Recovery-Asset-Vault/vault"
)

// Entry is one appended record with its derived identifiers.
type Entry struct {
	Seq   uint64
	CID   string
	Link  Link
	Bytes []byte
}

// Journal accumulates vault events as chained records. It implements
// vault.Sink, so it can be handed to vault.Options.Sink directly.
type Journal struct {
	mu      sync.Mutex
	opts    RenderOptions
	link    Link
	entries []Entry
	err     error

	// OnEntry, when non-nil, observes every appended entry. It runs under
	// the journal lock; keep it short.
	OnEntry func(Entry)
}

// New constructs an empty journal.
func New(opts RenderOptions) *Journal {
	return &Journal{opts: opts, link: EmptyLink()}
}

// Append renders the event, extends the chain, and stores the entry.
func (j *Journal) Append(e vault.Event) (Entry, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.append(e)
}

func (j *Journal) append(e vault.Event) (Entry, error) {
	data, link, err := RenderRecord(e, j.link, j.opts)
	if err != nil {
		return Entry{}, err
	}
	entry := Entry{
		Seq:   e.Seq,
		CID:   cidutil.CIDv1RawSHA256(data),
		Link:  link,
		Bytes: data,
	}
	j.link = link
	j.entries = append(j.entries, entry)
	if j.OnEntry != nil {
		j.OnEntry(entry)
	}
	return entry, nil
}

// Record implements vault.Sink. Render failures are retained and surfaced
// via Err, since the sink interface cannot report them.
func (j *Journal) Record(e vault.Event) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if _, err := j.append(e); err != nil && j.err == nil {
		j.err = err
	}
}

// Err returns the first append failure observed through the Sink interface.
func (j *Journal) Err() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.err
}

// Link returns the current chain head.
func (j *Journal) Link() Link {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.link
}

// Entries returns a copy of all appended entries.
func (j *Journal) Entries() []Entry {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]Entry, len(j.entries))
	copy(out, j.entries)
	return out
}

// Records returns the raw record bytes in append order, suitable for
// VerifyChain or archive export.
func (j *Journal) Records() [][]byte {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([][]byte, len(j.entries))
	for i, e := range j.entries {
		out[i] = e.Bytes
	}
	return out
}
