package command

// Canonicalize is the single mandatory canonicalization choke point for
// command envelopes. All command hashing, signing, CID derivation, and server
// ingestion must pass through it; non-canonical input is rejected.
func Canonicalize(input []byte) ([]byte, error) {
	c, err := Parse(input)
	if err != nil {
		return nil, err
	}
	// Return a copy to prevent callers from mutating internal slices.
	return append([]byte(nil), c.Raw...), nil
}
