package vaultrpc

import (
	"context"
	"encoding/json"
	"sync"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/Philogy/Social-Recovery-Asset-Vault/api"
	"github.com/Philogy/Social-Recovery-Asset-Vault/command"
	"github.com/Philogy/Social-Recovery-Asset-Vault/identity"
	"github.com/Philogy/Social-Recovery-Asset-Vault/store"
	"github.com/Philogy/Social-Recovery-Asset-Vault/vault"
)

// Server exposes one vault over the Vault gRPC service.
//
// Execute admits a command only once: the command CID is remembered and each
// issuer's nonce must strictly increase across executed commands. Failed
// commands do not consume a nonce. The caller passed to the vault is always
// the identity derived from the command's Issuer-Key, never anything the
// transport claims.
type Server struct {
	UnimplementedVaultServer

	// Vault is the served instance. Required.
	Vault *vault.Vault

	// Archive, when non-nil, receives the canonical bytes of every executed
	// command. An archive failure fails the command.
	Archive store.CAS

	mu          sync.Mutex
	nonces      map[identity.Identity]uint64
	executed    map[string]struct{}
	itemLedgers map[string]vault.ItemLedger
	unitLedgers map[string]vault.UnitLedger
}

// NewServer constructs a Server for the given vault.
func NewServer(v *vault.Vault) *Server {
	return &Server{
		Vault:       v,
		nonces:      make(map[identity.Identity]uint64),
		executed:    make(map[string]struct{}),
		itemLedgers: make(map[string]vault.ItemLedger),
		unitLedgers: make(map[string]vault.UnitLedger),
	}
}

// RegisterItemLedger makes an item ledger addressable by name from
// transfer-item commands.
func (s *Server) RegisterItemLedger(name string, l vault.ItemLedger) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.itemLedgers[name] = l
}

// RegisterUnitLedger makes a unit ledger addressable by name from
// transfer-units commands.
func (s *Server) RegisterUnitLedger(name string, l vault.UnitLedger) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unitLedgers[name] = l
}

func (s *Server) Execute(ctx context.Context, in *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error) {
	_ = ctx
	if s == nil || s.Vault == nil {
		return nil, status.Error(codes.FailedPrecondition, "missing vault")
	}

	cmd, err := command.Parse(in.GetValue())
	if err != nil {
		return nil, mapExecuteErr(err)
	}
	if err := cmd.Verify(); err != nil {
		return nil, mapExecuteErr(err)
	}
	if err := command.ValidateEnvelope(cmd); err != nil {
		return nil, mapExecuteErr(err)
	}
	vaultID, err := cmd.VaultID()
	if err != nil {
		return nil, mapExecuteErr(err)
	}
	if vaultID != s.Vault.Self() {
		return nil, mapExecuteErr(ErrWrongVault)
	}
	issuer, err := cmd.Issuer()
	if err != nil {
		return nil, mapExecuteErr(err)
	}
	nonce, err := cmd.NonceValue()
	if err != nil {
		return nil, mapExecuteErr(err)
	}
	op, err := command.Decode(cmd)
	if err != nil {
		return nil, mapExecuteErr(err)
	}

	// Admission and dispatch are one critical section so a command cannot be
	// double-executed by concurrent identical requests.
	s.mu.Lock()
	defer s.mu.Unlock()

	cidStr := cmd.CID()
	if _, ok := s.executed[cidStr]; ok {
		return nil, mapExecuteErr(ErrReplayed)
	}
	if last, ok := s.nonces[issuer]; ok && nonce <= last {
		return nil, mapExecuteErr(ErrStaleNonce)
	}

	before := s.Vault.LastSeq()
	if err := s.dispatch(issuer, op); err != nil {
		return nil, mapExecuteErr(err)
	}
	s.executed[cidStr] = struct{}{}
	s.nonces[issuer] = nonce

	receipt := api.Receipt{
		CommandCID: cidStr,
		Vault:      vaultID.String(),
		Issuer:     issuer.String(),
		Op:         op.Name(),
		Nonce:      nonce,
		Status:     api.StatusApplied,
		Events:     api.EventsFromVault(s.Vault.Events(before)),
	}
	if s.Archive != nil {
		id, err := s.Archive.Put(cmd.Raw)
		if err != nil {
			return nil, status.Error(codes.Internal, "command archive failed: "+err.Error())
		}
		receipt.ArchiveCID = id.String()
	}

	b, err := json.Marshal(receipt)
	if err != nil {
		return nil, status.Error(codes.Internal, "receipt encoding failed")
	}
	return wrapperspb.Bytes(b), nil
}

func (s *Server) dispatch(issuer identity.Identity, op command.Op) error {
	switch op := op.(type) {
	case command.PingOp:
		return s.Vault.Ping(issuer)
	case command.TransferOwnershipOp:
		return s.Vault.TransferOwnership(issuer, op.NewOwner)
	case command.SetGuardianRootOp:
		return s.Vault.SetGuardianRoot(issuer, op.Root)
	case command.RecoverOp:
		return s.Vault.RecoverTo(issuer, op.Guardian, op.Delay, op.Proof, op.NewOwner)
	case command.TransferNativeOp:
		return s.Vault.TransferNative(issuer, op.To, op.Amount)
	case command.TransferItemOp:
		ledger, ok := s.itemLedgers[op.Ledger]
		if !ok {
			return ErrUnknownLedger
		}
		return s.Vault.TransferItem(issuer, ledger, op.To, op.Item)
	case command.TransferUnitsOp:
		ledger, ok := s.unitLedgers[op.Ledger]
		if !ok {
			return ErrUnknownLedger
		}
		return s.Vault.TransferUnits(issuer, ledger, op.To, op.Class, op.Amount)
	default:
		return status.Error(codes.Unimplemented, "operation not dispatchable: "+op.Name())
	}
}

func (s *Server) Status(ctx context.Context, in *wrapperspb.StringValue) (*wrapperspb.BytesValue, error) {
	_ = ctx
	if s == nil || s.Vault == nil {
		return nil, status.Error(codes.FailedPrecondition, "missing vault")
	}
	if want := in.GetValue(); want != "" && want != s.Vault.Self().String() {
		return nil, mapExecuteErr(ErrWrongVault)
	}
	b, err := json.Marshal(api.StatusOf(s.Vault))
	if err != nil {
		return nil, status.Error(codes.Internal, "status encoding failed")
	}
	return wrapperspb.Bytes(b), nil
}

func (s *Server) Events(ctx context.Context, in *wrapperspb.UInt64Value) (*wrapperspb.BytesValue, error) {
	_ = ctx
	if s == nil || s.Vault == nil {
		return nil, status.Error(codes.FailedPrecondition, "missing vault")
	}
	page := api.EventPage{Events: api.EventsFromVault(s.Vault.Events(in.GetValue()))}
	b, err := json.Marshal(page)
	if err != nil {
		return nil, status.Error(codes.Internal, "event encoding failed")
	}
	return wrapperspb.Bytes(b), nil
}
