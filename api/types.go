package api

// Receipt is the JSON result of a successfully executed command.
//
// CommandCID is the CIDv1 (raw + sha2-256) of the canonical command bytes;
// when the server archives accepted commands, ArchiveCID repeats it as the
// key the bytes were stored under.
type Receipt struct {
	CommandCID string  `json:"commandCID"`
	ArchiveCID string  `json:"archiveCID,omitempty"`
	Vault      string  `json:"vault"`
	Issuer     string  `json:"issuer"`
	Op         string  `json:"op"`
	Nonce      uint64  `json:"nonce"`
	Status     string  `json:"status"`
	Events     []Event `json:"events,omitempty"`
}

// StatusApplied is the Receipt.Status value for an accepted command.
const StatusApplied = "applied"

// Status is the JSON snapshot of a vault's observable state.
type Status struct {
	Vault         string `json:"vault"`
	Initialized   bool   `json:"initialized"`
	Owner         string `json:"owner"`
	LastActivity  string `json:"lastActivity,omitempty"`
	GuardianRoot  string `json:"guardianRoot"`
	NativeBalance uint64 `json:"nativeBalance"`
	LastSeq       uint64 `json:"lastSeq"`
}

// Event is the JSON form of one vault event. Fields beyond Seq/Time/Type are
// populated per event type and omitted otherwise.
//
// JSON note: Time is RFC 3339 with nanoseconds; Delay is Go duration text.
type Event struct {
	Seq       uint64 `json:"seq"`
	Time      string `json:"time"`
	Type      string `json:"type"`
	PrevOwner string `json:"prevOwner,omitempty"`
	NewOwner  string `json:"newOwner,omitempty"`
	Root      string `json:"root,omitempty"`
	Guardian  string `json:"guardian,omitempty"`
	Delay     string `json:"delay,omitempty"`
	Proof     string `json:"proof,omitempty"`
}

// EventPage is the JSON result of an event log read.
type EventPage struct {
	Events []Event `json:"events"`
}
