package ledger

import (
	"math/big"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/crypto/ecies"
	"github.com/fxamacker/cbor/v2"
	"go.vocdoni.io/dvote/db/metadb"

	"github.com/cloakledger/cloak/authwit"
	"github.com/cloakledger/cloak/note"
	"github.com/cloakledger/cloak/notelog"
	"github.com/cloakledger/cloak/state"
	"github.com/cloakledger/cloak/types"
	"github.com/cloakledger/cloak/util"
)

var (
	admin = common.HexToAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	alice = common.HexToAddress("0x1111111111111111111111111111111111111111")
	bob   = common.HexToAddress("0x2222222222222222222222222222222222222222")
	carol = common.HexToAddress("0x3333333333333333333333333333333333333333")
)

func newTestLedger(t *testing.T) (*Ledger, *notelog.MemorySink) {
	t.Helper()
	sink := notelog.NewMemorySink()
	l, err := New(Config{
		DB:       metadb.NewTest(t),
		LedgerID: types.HexBytes(util.RandomBytes(types.LedgerIDLen)),
		Admin:    admin,
		Sink:     sink,
	})
	qt.Assert(t, err, qt.IsNil)
	return l, sink
}

// checkConservation asserts total supply equals the sum of public
// balances, unspent private value, pending shield value and outstanding
// escrow value.
func checkConservation(c *qt.C, l *Ledger, accounts ...common.Address) {
	supply, err := l.TotalSupply()
	c.Assert(err, qt.IsNil)
	var total uint64
	for _, a := range accounts {
		balance, err := l.BalanceOfPublic(a)
		c.Assert(err, qt.IsNil)
		total += balance
	}
	privateTotal, err := l.st.UnspentValueTotal()
	c.Assert(err, qt.IsNil)
	pendingTotal, err := l.st.PendingShieldTotal()
	c.Assert(err, qt.IsNil)
	escrowTotal, err := l.st.EscrowTotal()
	c.Assert(err, qt.IsNil)
	c.Assert(total+privateTotal+pendingTotal+escrowTotal, qt.Equals, supply)
}

func TestMinterGating(t *testing.T) {
	c := qt.New(t)
	l, _ := newTestLedger(t)

	// a non-minter cannot mint
	_, err := l.MintPublic(alice, alice, 100)
	c.Assert(err, qt.ErrorIs, state.ErrUnauthorized)

	// only the admin can grant minter rights
	c.Assert(l.SetMinter(alice, alice, true), qt.ErrorIs, state.ErrUnauthorized)
	c.Assert(l.SetMinter(admin, alice, true), qt.IsNil)

	minted, err := l.MintPublic(alice, bob, 100)
	c.Assert(err, qt.IsNil)
	c.Assert(minted, qt.Equals, uint64(100))

	supply, err := l.TotalSupply()
	c.Assert(err, qt.IsNil)
	c.Assert(supply, qt.Equals, uint64(100))

	// revocation works
	c.Assert(l.SetMinter(admin, alice, false), qt.IsNil)
	_, err = l.MintPublic(alice, bob, 1)
	c.Assert(err, qt.ErrorIs, state.ErrUnauthorized)

	checkConservation(c, l, admin, alice, bob)
}

func TestSetAdmin(t *testing.T) {
	c := qt.New(t)
	l, _ := newTestLedger(t)

	c.Assert(l.SetAdmin(bob, bob), qt.ErrorIs, state.ErrUnauthorized)
	c.Assert(l.SetAdmin(admin, bob), qt.IsNil)

	current, err := l.Admin()
	c.Assert(err, qt.IsNil)
	c.Assert(current, qt.Equals, bob)

	// the old admin lost its role
	c.Assert(l.SetMinter(admin, carol, true), qt.ErrorIs, state.ErrUnauthorized)
	c.Assert(l.SetMinter(bob, carol, true), qt.IsNil)
}

func TestTransferPublic(t *testing.T) {
	c := qt.New(t)
	l, _ := newTestLedger(t)

	_, err := l.MintPublic(admin, alice, 500)
	c.Assert(err, qt.IsNil)

	// direct call with a non-zero nonce is rejected
	err = l.TransferPublic(alice, alice, bob, 100, 7, nil)
	c.Assert(err, qt.ErrorIs, state.ErrInvalidNonce)

	c.Assert(l.TransferPublic(alice, alice, bob, 100, 0, nil), qt.IsNil)

	aliceBalance, err := l.BalanceOfPublic(alice)
	c.Assert(err, qt.IsNil)
	c.Assert(aliceBalance, qt.Equals, uint64(400))
	bobBalance, err := l.BalanceOfPublic(bob)
	c.Assert(err, qt.IsNil)
	c.Assert(bobBalance, qt.Equals, uint64(100))

	// overdraw aborts with no partial effects
	err = l.TransferPublic(alice, alice, bob, 401, 0, nil)
	c.Assert(err, qt.ErrorIs, state.ErrInsufficientBalance)
	bobBalance, err = l.BalanceOfPublic(bob)
	c.Assert(err, qt.IsNil)
	c.Assert(bobBalance, qt.Equals, uint64(100))

	c.Assert(l.BurnPublic(alice, alice, 400, 0, nil), qt.IsNil)
	supply, err := l.TotalSupply()
	c.Assert(err, qt.IsNil)
	c.Assert(supply, qt.Equals, uint64(100))

	checkConservation(c, l, admin, alice, bob)
}

func TestShieldRoundTrip(t *testing.T) {
	c := qt.New(t)
	l, _ := newTestLedger(t)

	_, err := l.MintPublic(admin, alice, 1000)
	c.Assert(err, qt.IsNil)

	secret := big.NewInt(123456789)
	secretHash, err := note.SecretHash(secret)
	c.Assert(err, qt.IsNil)

	c.Assert(l.Shield(alice, alice, 300, secretHash, 0, nil), qt.IsNil)

	aliceBalance, err := l.BalanceOfPublic(alice)
	c.Assert(err, qt.IsNil)
	c.Assert(aliceBalance, qt.Equals, uint64(700))
	checkConservation(c, l, admin, alice, bob)

	// redeeming with the wrong secret misses the pool
	err = l.RedeemShield(bob, 300, big.NewInt(1))
	c.Assert(err, qt.ErrorIs, state.ErrShieldNotFound)

	// redeeming the right secret credits bob's private balance
	c.Assert(l.RedeemShield(bob, 300, secret), qt.IsNil)
	bobPrivate, err := l.BalanceOfPrivate(bob)
	c.Assert(err, qt.IsNil)
	c.Assert(bobPrivate, qt.Equals, uint64(300))

	// supply is unchanged by the round trip
	supply, err := l.TotalSupply()
	c.Assert(err, qt.IsNil)
	c.Assert(supply, qt.Equals, uint64(1000))
	checkConservation(c, l, admin, alice, bob)

	// a second redemption of the same note fails
	err = l.RedeemShield(carol, 300, secret)
	c.Assert(err, qt.ErrorIs, state.ErrShieldNotFound)
}

func TestMintPrivate(t *testing.T) {
	c := qt.New(t)
	l, _ := newTestLedger(t)

	secret := big.NewInt(777)
	secretHash, err := note.SecretHash(secret)
	c.Assert(err, qt.IsNil)

	_, err = l.MintPrivate(alice, 250, secretHash)
	c.Assert(err, qt.ErrorIs, state.ErrUnauthorized)

	minted, err := l.MintPrivate(admin, 250, secretHash)
	c.Assert(err, qt.IsNil)
	c.Assert(minted, qt.Equals, uint64(250))

	supply, err := l.TotalSupply()
	c.Assert(err, qt.IsNil)
	c.Assert(supply, qt.Equals, uint64(250))
	checkConservation(c, l, admin, alice)

	c.Assert(l.RedeemShield(alice, 250, secret), qt.IsNil)
	alicePrivate, err := l.BalanceOfPrivate(alice)
	c.Assert(err, qt.IsNil)
	c.Assert(alicePrivate, qt.Equals, uint64(250))
	checkConservation(c, l, admin, alice)
}

// fundPrivate mints public to an account and moves it into its private
// balance through a shield round trip.
func fundPrivate(c *qt.C, l *Ledger, to common.Address, amount uint64) {
	secret := util.RandomFieldElement()
	secretHash, err := note.SecretHash(secret)
	c.Assert(err, qt.IsNil)
	_, err = l.MintPrivate(admin, amount, secretHash)
	c.Assert(err, qt.IsNil)
	c.Assert(l.RedeemShield(to, amount, secret), qt.IsNil)
}

func TestPrivateTransferWithChange(t *testing.T) {
	c := qt.New(t)
	l, _ := newTestLedger(t)

	fundPrivate(c, l, alice, 100)

	// 100 sits in one note; transferring 30 forces a change note
	c.Assert(l.Transfer(alice, alice, bob, 30, 0, nil), qt.IsNil)

	alicePrivate, err := l.BalanceOfPrivate(alice)
	c.Assert(err, qt.IsNil)
	c.Assert(alicePrivate, qt.Equals, uint64(70))
	bobPrivate, err := l.BalanceOfPrivate(bob)
	c.Assert(err, qt.IsNil)
	c.Assert(bobPrivate, qt.Equals, uint64(30))
	checkConservation(c, l, admin, alice, bob)

	// multi-note selection: bob's 30 plus another 20 covers a 45 spend
	fundPrivate(c, l, bob, 20)
	c.Assert(l.Transfer(bob, bob, carol, 45, 0, nil), qt.IsNil)
	bobPrivate, err = l.BalanceOfPrivate(bob)
	c.Assert(err, qt.IsNil)
	c.Assert(bobPrivate, qt.Equals, uint64(5))

	// overdraw fails and leaves balances untouched
	err = l.Transfer(bob, bob, carol, 6, 0, nil)
	c.Assert(err, qt.ErrorIs, state.ErrInsufficientBalance)
	bobPrivate, err = l.BalanceOfPrivate(bob)
	c.Assert(err, qt.IsNil)
	c.Assert(bobPrivate, qt.Equals, uint64(5))
	checkConservation(c, l, admin, alice, bob, carol)
}

func TestUnshield(t *testing.T) {
	c := qt.New(t)
	l, _ := newTestLedger(t)

	fundPrivate(c, l, alice, 120)
	c.Assert(l.Unshield(alice, alice, bob, 50, 0, nil), qt.IsNil)

	bobPublic, err := l.BalanceOfPublic(bob)
	c.Assert(err, qt.IsNil)
	c.Assert(bobPublic, qt.Equals, uint64(50))
	alicePrivate, err := l.BalanceOfPrivate(alice)
	c.Assert(err, qt.IsNil)
	c.Assert(alicePrivate, qt.Equals, uint64(70))

	supply, err := l.TotalSupply()
	c.Assert(err, qt.IsNil)
	c.Assert(supply, qt.Equals, uint64(120))
	checkConservation(c, l, admin, alice, bob)
}

func TestBurnPrivate(t *testing.T) {
	c := qt.New(t)
	l, _ := newTestLedger(t)

	fundPrivate(c, l, alice, 80)
	c.Assert(l.Burn(alice, alice, 30, 0, nil), qt.IsNil)

	supply, err := l.TotalSupply()
	c.Assert(err, qt.IsNil)
	c.Assert(supply, qt.Equals, uint64(50))
	alicePrivate, err := l.BalanceOfPrivate(alice)
	c.Assert(err, qt.IsNil)
	c.Assert(alicePrivate, qt.Equals, uint64(50))
	checkConservation(c, l, admin, alice)
}

func TestAuthWitEnforcement(t *testing.T) {
	c := qt.New(t)
	l, _ := newTestLedger(t)

	principal := authwit.NewSignKeys()
	c.Assert(principal.Generate(), qt.IsNil)
	from := principal.Address()

	fundPrivate(c, l, from, 200)

	// a third party cannot move the principal's funds without a witness
	err := l.Transfer(carol, from, bob, 50, 1, nil)
	c.Assert(err, qt.ErrorIs, state.ErrUnauthorized)

	// a witness signed by someone else does not help
	stranger := authwit.NewSignKeys()
	c.Assert(stranger.Generate(), qt.IsNil)
	badWitness, err := stranger.Authorize(carol, l.LedgerID(), SelectorTransfer, TransferArgs(from, bob, 50, 1))
	c.Assert(err, qt.IsNil)
	err = l.Transfer(carol, from, bob, 50, 1, badWitness)
	c.Assert(err, qt.ErrorIs, state.ErrUnauthorized)

	// the right witness authorizes exactly that action
	w, err := principal.Authorize(carol, l.LedgerID(), SelectorTransfer, TransferArgs(from, bob, 50, 1))
	c.Assert(err, qt.IsNil)

	// ...but not for a different caller or different arguments
	err = l.Transfer(bob, from, bob, 50, 1, w)
	c.Assert(err, qt.ErrorIs, state.ErrUnauthorized)
	err = l.Transfer(carol, from, bob, 60, 1, w)
	c.Assert(err, qt.ErrorIs, state.ErrUnauthorized)

	c.Assert(l.Transfer(carol, from, bob, 50, 1, w), qt.IsNil)
	bobPrivate, err := l.BalanceOfPrivate(bob)
	c.Assert(err, qt.IsNil)
	c.Assert(bobPrivate, qt.Equals, uint64(50))

	// the witness is single use
	err = l.Transfer(carol, from, bob, 50, 1, w)
	c.Assert(err, qt.ErrorIs, state.ErrUnauthorized)
	checkConservation(c, l, admin, from, bob, carol)
}

func TestAuthWitPublicDelegation(t *testing.T) {
	c := qt.New(t)
	l, _ := newTestLedger(t)

	principal := authwit.NewSignKeys()
	c.Assert(principal.Generate(), qt.IsNil)
	from := principal.Address()

	_, err := l.MintPublic(admin, from, 300)
	c.Assert(err, qt.IsNil)

	w, err := principal.Authorize(bob, l.LedgerID(), SelectorTransferPublic, TransferPublicArgs(from, carol, 120, 9))
	c.Assert(err, qt.IsNil)
	c.Assert(l.TransferPublic(bob, from, carol, 120, 9, w), qt.IsNil)

	carolBalance, err := l.BalanceOfPublic(carol)
	c.Assert(err, qt.IsNil)
	c.Assert(carolBalance, qt.Equals, uint64(120))

	// replay fails
	err = l.TransferPublic(bob, from, carol, 120, 9, w)
	c.Assert(err, qt.ErrorIs, state.ErrUnauthorized)
}

func TestEscrowLifecycle(t *testing.T) {
	c := qt.New(t)
	l, _ := newTestLedger(t)

	fundPrivate(c, l, alice, 500)

	blinding, err := l.Escrow(alice, alice, bob, 200, 0, nil)
	c.Assert(err, qt.IsNil)
	c.Assert(blinding, qt.IsNotNil)

	alicePrivate, err := l.BalanceOfPrivate(alice)
	c.Assert(err, qt.IsNil)
	c.Assert(alicePrivate, qt.Equals, uint64(300))
	checkConservation(c, l, admin, alice, bob)

	escrows, err := l.GetEscrows(0)
	c.Assert(err, qt.IsNil)
	c.Assert(escrows, qt.HasLen, 1)
	c.Assert(escrows[0].Owner, qt.Equals, bob)
	c.Assert(escrows[0].Amount, qt.Equals, uint64(200))

	// only the settlement owner can settle
	err = l.SettleEscrow(alice, alice, carol, blinding.MathBigInt(), 0, nil)
	c.Assert(err, qt.ErrorIs, state.ErrUnauthorized)

	c.Assert(l.SettleEscrow(bob, bob, carol, blinding.MathBigInt(), 0, nil), qt.IsNil)
	carolPrivate, err := l.BalanceOfPrivate(carol)
	c.Assert(err, qt.IsNil)
	c.Assert(carolPrivate, qt.Equals, uint64(200))
	checkConservation(c, l, admin, alice, bob, carol)

	// a second settlement of the same blinding factor fails
	err = l.SettleEscrow(bob, bob, carol, blinding.MathBigInt(), 0, nil)
	c.Assert(err, qt.ErrorIs, state.ErrEscrowNotFound)

	escrows, err = l.GetEscrows(0)
	c.Assert(err, qt.IsNil)
	c.Assert(escrows, qt.HasLen, 0)
}

func TestBroadcastEscrowNote(t *testing.T) {
	c := qt.New(t)
	l, sink := newTestLedger(t)

	fundPrivate(c, l, alice, 100)
	blinding, err := l.Escrow(alice, alice, bob, 60, 0, nil)
	c.Assert(err, qt.IsNil)

	// bob registers an encryption key; carol does not
	bobKey, err := ethcrypto.GenerateKey()
	c.Assert(err, qt.IsNil)
	c.Assert(l.Registry().Register(bob, ethcrypto.CompressPubkey(&bobKey.PublicKey)), qt.IsNil)

	recipients := [types.BroadcastRecipients]common.Address{bob, carol}
	c.Assert(l.BroadcastEscrowNoteFor(recipients, blinding.MathBigInt()), qt.IsNil)

	// only bob got an entry, and it decrypts to the escrow note
	c.Assert(sink.Entries(), qt.HasLen, 1)
	plaintext, err := ecies.ImportECDSA(bobKey).Decrypt(sink.Entries()[0].Ciphertext, nil, nil)
	c.Assert(err, qt.IsNil)
	var decoded note.Note
	c.Assert(cbor.Unmarshal(plaintext, &decoded), qt.IsNil)
	c.Assert(decoded.Kind, qt.Equals, note.KindEscrow)
	c.Assert(decoded.Amount, qt.Equals, uint64(60))
	c.Assert(decoded.Owner, qt.Equals, bob)

	// unknown blinding factor
	err = l.BroadcastEscrowNoteFor(recipients, big.NewInt(424242))
	c.Assert(err, qt.ErrorIs, state.ErrEscrowNotFound)
}

func TestConservationAcrossMixedOperations(t *testing.T) {
	c := qt.New(t)
	l, _ := newTestLedger(t)
	accounts := []common.Address{admin, alice, bob, carol}

	_, err := l.MintPublic(admin, alice, 1000)
	c.Assert(err, qt.IsNil)
	checkConservation(c, l, accounts...)

	secret := big.NewInt(31337)
	secretHash, err := note.SecretHash(secret)
	c.Assert(err, qt.IsNil)
	c.Assert(l.Shield(alice, alice, 400, secretHash, 0, nil), qt.IsNil)
	checkConservation(c, l, accounts...)

	c.Assert(l.RedeemShield(alice, 400, secret), qt.IsNil)
	checkConservation(c, l, accounts...)

	c.Assert(l.Transfer(alice, alice, bob, 150, 0, nil), qt.IsNil)
	checkConservation(c, l, accounts...)

	c.Assert(l.Unshield(bob, bob, carol, 100, 0, nil), qt.IsNil)
	checkConservation(c, l, accounts...)

	blinding, err := l.Escrow(alice, alice, bob, 120, 0, nil)
	c.Assert(err, qt.IsNil)
	checkConservation(c, l, accounts...)

	c.Assert(l.SettleEscrow(bob, bob, carol, blinding.MathBigInt(), 0, nil), qt.IsNil)
	checkConservation(c, l, accounts...)

	c.Assert(l.Burn(carol, carol, 50, 0, nil), qt.IsNil)
	checkConservation(c, l, accounts...)

	c.Assert(l.BurnPublic(alice, alice, 200, 0, nil), qt.IsNil)
	checkConservation(c, l, accounts...)

	supply, err := l.TotalSupply()
	c.Assert(err, qt.IsNil)
	c.Assert(supply, qt.Equals, uint64(750))
}
