package command

import (
	"strconv"
	"time"

	"github.com/Philogy/Social-Recovery-Asset-Vault/guardian"
	"github.com/Philogy/Social-Recovery-Asset-Vault/identity"
)

// Canonical operation names for the OP section's Op key.
const (
	OpPing              = "ping"
	OpTransferOwnership = "transfer-ownership"
	OpSetGuardianRoot   = "set-guardian-root"
	OpRecover           = "recover"
	OpTransferNative    = "transfer-native"
	OpTransferItem      = "transfer-item"
	OpTransferUnits     = "transfer-units"
)

// Op is a decoded, typed vault operation.
type Op interface {
	// Name returns the canonical Op key value.
	Name() string
}

type PingOp struct{}

type TransferOwnershipOp struct {
	NewOwner identity.Identity
}

type SetGuardianRootOp struct {
	Root guardian.Hash
}

type RecoverOp struct {
	Guardian identity.Identity
	Delay    time.Duration
	Proof    guardian.Proof
	NewOwner identity.Identity
}

type TransferNativeOp struct {
	To     identity.Identity
	Amount uint64
}

type TransferItemOp struct {
	Ledger string
	To     identity.Identity
	Item   uint64
}

type TransferUnitsOp struct {
	Ledger string
	To     identity.Identity
	Class  uint64
	Amount uint64
}

func (PingOp) Name() string              { return OpPing }
func (TransferOwnershipOp) Name() string { return OpTransferOwnership }
func (SetGuardianRootOp) Name() string   { return OpSetGuardianRoot }
func (RecoverOp) Name() string           { return OpRecover }
func (TransferNativeOp) Name() string    { return OpTransferNative }
func (TransferItemOp) Name() string      { return OpTransferItem }
func (TransferUnitsOp) Name() string     { return OpTransferUnits }

// Decode validates the OP section and decodes it into a typed operation.
// Decode is strict: unknown operation names are rejected.
func Decode(c *Command) (Op, error) {
	if err := ValidateOp(c, Strict); err != nil {
		return nil, err
	}
	pairs := c.Sections["OP"].Pairs

	ident := func(ruleID, key string) (identity.Identity, error) {
		id, err := identity.Parse(pairs[key])
		if err != nil {
			return identity.Zero, wrapError(KindValidation, ruleID, "invalid "+key, err)
		}
		return id, nil
	}
	number := func(ruleID, key string) (uint64, error) {
		n, err := strconv.ParseUint(pairs[key], 10, 64)
		if err != nil {
			return 0, wrapError(KindValidation, ruleID, "invalid "+key, err)
		}
		return n, nil
	}

	switch pairs["Op"] {
	case OpPing:
		return PingOp{}, nil

	case OpTransferOwnership:
		newOwner, err := ident("CMD-VAL-311", "New-Owner")
		if err != nil {
			return nil, err
		}
		return TransferOwnershipOp{NewOwner: newOwner}, nil

	case OpSetGuardianRoot:
		root, err := guardian.ParseHash(pairs["Root"])
		if err != nil {
			return nil, wrapError(KindValidation, "CMD-VAL-321", "invalid Root", err)
		}
		return SetGuardianRootOp{Root: root}, nil

	case OpRecover:
		g, err := ident("CMD-VAL-331", "Guardian")
		if err != nil {
			return nil, err
		}
		delay, err := guardian.ParseDelay(pairs["Delay"])
		if err != nil {
			return nil, wrapError(KindValidation, "CMD-VAL-332", "invalid Delay", err)
		}
		proof, err := guardian.DecodeProof(pairs["Proof"])
		if err != nil {
			return nil, wrapError(KindValidation, "CMD-VAL-333", "invalid Proof", err)
		}
		newOwner, err := ident("CMD-VAL-334", "New-Owner")
		if err != nil {
			return nil, err
		}
		return RecoverOp{Guardian: g, Delay: delay, Proof: proof, NewOwner: newOwner}, nil

	case OpTransferNative:
		to, err := ident("CMD-VAL-341", "To")
		if err != nil {
			return nil, err
		}
		amount, err := number("CMD-VAL-342", "Amount")
		if err != nil {
			return nil, err
		}
		return TransferNativeOp{To: to, Amount: amount}, nil

	case OpTransferItem:
		to, err := ident("CMD-VAL-352", "To")
		if err != nil {
			return nil, err
		}
		item, err := number("CMD-VAL-353", "Item")
		if err != nil {
			return nil, err
		}
		return TransferItemOp{Ledger: pairs["Ledger"], To: to, Item: item}, nil

	case OpTransferUnits:
		to, err := ident("CMD-VAL-362", "To")
		if err != nil {
			return nil, err
		}
		class, err := number("CMD-VAL-363", "Class")
		if err != nil {
			return nil, err
		}
		amount, err := number("CMD-VAL-364", "Amount")
		if err != nil {
			return nil, err
		}
		return TransferUnitsOp{Ledger: pairs["Ledger"], To: to, Class: class, Amount: amount}, nil

	default:
		return nil, newError(KindValidation, "CMD-VAL-203", "unknown operation")
	}
}

// NonceValue returns the envelope nonce as a number. ValidateEnvelope must
// have accepted the command first.
func (c *Command) NonceValue() (uint64, error) {
	n, err := strconv.ParseUint(c.Nonce(), 10, 64)
	if err != nil {
		return 0, wrapError(KindValidation, "CMD-VAL-106", "invalid META Nonce", err)
	}
	return n, nil
}
