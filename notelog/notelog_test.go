package notelog

import (
	"testing"

	qt "github.com/frankban/quicktest"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/crypto/ecies"
	"go.vocdoni.io/dvote/db/metadb"
)

func TestRegistry(t *testing.T) {
	c := qt.New(t)

	reg := NewRegistry(metadb.NewTest(t))

	key, err := ethcrypto.GenerateKey()
	c.Assert(err, qt.IsNil)
	addr := ethcrypto.PubkeyToAddress(key.PublicKey)

	// unknown address has no key
	_, ok, err := reg.PublicKey(addr)
	c.Assert(err, qt.IsNil)
	c.Assert(ok, qt.IsFalse)

	// garbage keys are rejected
	c.Assert(reg.Register(addr, []byte{0x01, 0x02}), qt.IsNotNil)

	c.Assert(reg.Register(addr, ethcrypto.CompressPubkey(&key.PublicKey)), qt.IsNil)
	pub, ok, err := reg.PublicKey(addr)
	c.Assert(err, qt.IsNil)
	c.Assert(ok, qt.IsTrue)

	// a payload encrypted to the registered key decrypts with the
	// account's private key
	payload := []byte("note plaintext")
	ciphertext, err := Encrypt(pub, payload)
	c.Assert(err, qt.IsNil)
	decrypted, err := ecies.ImportECDSA(key).Decrypt(ciphertext, nil, nil)
	c.Assert(err, qt.IsNil)
	c.Assert(decrypted, qt.DeepEquals, payload)
}

func TestMemorySink(t *testing.T) {
	c := qt.New(t)

	key, err := ethcrypto.GenerateKey()
	c.Assert(err, qt.IsNil)
	pub := ecies.ImportECDSAPublic(&key.PublicKey)

	sink := NewMemorySink()
	c.Assert(sink.Emit(pub, []byte("a")), qt.IsNil)
	c.Assert(sink.Emit(pub, []byte("b")), qt.IsNil)
	c.Assert(sink.Entries(), qt.HasLen, 2)
	c.Assert(sink.Entries()[1].Ciphertext, qt.DeepEquals, []byte("b"))
}
