// Package vaulttest provides in-memory asset ledgers for exercising the
// vault's custody surface in tests.
package vaulttest

import (
	"errors"

	"github.com/Philogy/Social-Recovery-Asset-Vault/identity"
)

var (
	ErrNotHolder        = errors.New("vaulttest: transferor does not hold the item")
	ErrInsufficientUnit = errors.New("vaulttest: insufficient unit balance")
)

// ItemLedger is an in-memory registry of unique items.
type ItemLedger struct {
	holders map[uint64]identity.Identity
}

func NewItemLedger() *ItemLedger {
	return &ItemLedger{holders: make(map[uint64]identity.Identity)}
}

// Mint assigns an item to a holder, creating it if needed.
func (l *ItemLedger) Mint(to identity.Identity, item uint64) {
	l.holders[item] = to
}

// HolderOf returns the current holder of item.
func (l *ItemLedger) HolderOf(item uint64) identity.Identity {
	return l.holders[item]
}

func (l *ItemLedger) TransferItem(from, to identity.Identity, item uint64) error {
	if l.holders[item] != from {
		return ErrNotHolder
	}
	l.holders[item] = to
	return nil
}

// UnitLedger is an in-memory registry of fungible unit classes.
type UnitLedger struct {
	balances map[identity.Identity]map[uint64]uint64
}

func NewUnitLedger() *UnitLedger {
	return &UnitLedger{balances: make(map[identity.Identity]map[uint64]uint64)}
}

// Mint credits units of a class to a holder.
func (l *UnitLedger) Mint(to identity.Identity, class, amount uint64) {
	if l.balances[to] == nil {
		l.balances[to] = make(map[uint64]uint64)
	}
	l.balances[to][class] += amount
}

// BalanceOf returns the unit balance of holder for class.
func (l *UnitLedger) BalanceOf(holder identity.Identity, class uint64) uint64 {
	return l.balances[holder][class]
}

func (l *UnitLedger) TransferUnits(from, to identity.Identity, class, amount uint64) error {
	if l.balances[from][class] < amount {
		return ErrInsufficientUnit
	}
	l.balances[from][class] -= amount
	l.Mint(to, class, amount)
	return nil
}
