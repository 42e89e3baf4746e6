package state

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/ethereum/go-ethereum/common"
	"go.vocdoni.io/dvote/db"
	"go.vocdoni.io/dvote/db/prefixeddb"

	"github.com/cloakledger/cloak/types"
)

// Account keys live under the accounts prefix, keyed by their storage
// slot byte so the persisted layout matches the published slot numbers.
func slotKey(slot uint64, suffix []byte) []byte {
	key := make([]byte, 1+len(suffix))
	key[0] = byte(slot)
	copy(key[1:], suffix)
	return key
}

func encodeUint64(v uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, v)
	return buf
}

func (s *State) getUint64(key []byte) (uint64, error) {
	data, err := prefixeddb.NewPrefixedReader(s.reader(), pfxAccounts).Get(key)
	if errors.Is(err, db.ErrKeyNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(data), nil
}

func (s *State) setUint64(key []byte, v uint64) error {
	wTx, err := s.writeTx()
	if err != nil {
		return err
	}
	return prefixeddb.NewPrefixedWriteTx(wTx, pfxAccounts).Set(key, encodeUint64(v))
}

// Initialized reports whether the one-time initializer already ran.
func (s *State) Initialized() (bool, error) {
	_, err := prefixeddb.NewPrefixedReader(s.reader(), pfxAccounts).Get(slotKey(types.SlotAdmin, nil))
	if errors.Is(err, db.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Initialize runs the one-time initializer: it sets the admin role and
// grants the admin minter status. All balances and pools start empty and
// total supply starts at zero.
func (s *State) Initialize(admin common.Address) error {
	initialized, err := s.Initialized()
	if err != nil {
		return err
	}
	if initialized {
		return fmt.Errorf("ledger already initialized")
	}
	if err := s.SetAdmin(admin); err != nil {
		return err
	}
	return s.SetMinter(admin, true)
}

// Admin returns the current admin address.
func (s *State) Admin() (common.Address, error) {
	data, err := prefixeddb.NewPrefixedReader(s.reader(), pfxAccounts).Get(slotKey(types.SlotAdmin, nil))
	if errors.Is(err, db.ErrKeyNotFound) {
		return common.Address{}, fmt.Errorf("ledger not initialized")
	}
	if err != nil {
		return common.Address{}, err
	}
	return common.BytesToAddress(data), nil
}

// SetAdmin reassigns the admin role.
func (s *State) SetAdmin(admin common.Address) error {
	wTx, err := s.writeTx()
	if err != nil {
		return err
	}
	return prefixeddb.NewPrefixedWriteTx(wTx, pfxAccounts).Set(slotKey(types.SlotAdmin, nil), admin.Bytes())
}

// IsMinter reports whether addr holds minter rights.
func (s *State) IsMinter(addr common.Address) (bool, error) {
	data, err := prefixeddb.NewPrefixedReader(s.reader(), pfxAccounts).Get(slotKey(types.SlotMinters, addr.Bytes()))
	if errors.Is(err, db.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return len(data) == 1 && data[0] == 1, nil
}

// SetMinter grants or revokes minter rights for addr.
func (s *State) SetMinter(addr common.Address, approved bool) error {
	wTx, err := s.writeTx()
	if err != nil {
		return err
	}
	v := []byte{0}
	if approved {
		v = []byte{1}
	}
	return prefixeddb.NewPrefixedWriteTx(wTx, pfxAccounts).Set(slotKey(types.SlotMinters, addr.Bytes()), v)
}

// TotalSupply returns the current total supply.
func (s *State) TotalSupply() (uint64, error) {
	return s.getUint64(slotKey(types.SlotTotalSupply, nil))
}

// AddSupply increases total supply, failing with ErrOverflow when the
// addition would wrap.
func (s *State) AddSupply(amount uint64) error {
	supply, err := s.TotalSupply()
	if err != nil {
		return err
	}
	if amount > math.MaxUint64-supply {
		return fmt.Errorf("%w: total supply", ErrOverflow)
	}
	return s.setUint64(slotKey(types.SlotTotalSupply, nil), supply+amount)
}

// SubSupply decreases total supply, failing with ErrInsufficientBalance
// when the subtraction would underflow.
func (s *State) SubSupply(amount uint64) error {
	supply, err := s.TotalSupply()
	if err != nil {
		return err
	}
	if amount > supply {
		return fmt.Errorf("%w: total supply", ErrInsufficientBalance)
	}
	return s.setUint64(slotKey(types.SlotTotalSupply, nil), supply-amount)
}

// PublicBalanceOf returns the public balance of addr; missing accounts
// read as zero.
func (s *State) PublicBalanceOf(addr common.Address) (uint64, error) {
	return s.getUint64(slotKey(types.SlotPublicBalances, addr.Bytes()))
}

// CreditPublic increases the public balance of addr with an overflow
// check.
func (s *State) CreditPublic(addr common.Address, amount uint64) error {
	balance, err := s.PublicBalanceOf(addr)
	if err != nil {
		return err
	}
	if amount > math.MaxUint64-balance {
		return fmt.Errorf("%w: public balance of %s", ErrOverflow, addr)
	}
	return s.setUint64(slotKey(types.SlotPublicBalances, addr.Bytes()), balance+amount)
}

// DebitPublic decreases the public balance of addr with an underflow
// check.
func (s *State) DebitPublic(addr common.Address, amount uint64) error {
	balance, err := s.PublicBalanceOf(addr)
	if err != nil {
		return err
	}
	if amount > balance {
		return fmt.Errorf("%w: public balance of %s", ErrInsufficientBalance, addr)
	}
	return s.setUint64(slotKey(types.SlotPublicBalances, addr.Bytes()), balance-amount)
}
