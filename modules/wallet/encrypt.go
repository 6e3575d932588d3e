package wallet

import (
	"crypto/rand"
	"crypto/sha256"
	"errors"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"golang.org/x/crypto/nacl/secretbox"

	"github.com/adityapk00/zecwallet-lite/modules"
	"github.com/adityapk00/zecwallet-lite/sapling"
)

var (
	errReencrypt         = errors.New("wallet is already encrypted, cannot encrypt again")
	errUnencryptedWallet = errors.New("wallet has not been encrypted")
	errAlreadyUnlocked   = errors.New("wallet has already been unlocked")
)

// passphraseKey stretches a passphrase into the secretbox key.
func passphraseKey(passphrase string) [32]byte {
	first := sha256.Sum256([]byte(passphrase))
	return sha256.Sum256(first[:])
}

// Encrypt seals the wallet seed under a passphrase. The wallet stays
// unlocked until Lock is called.
func (w *Wallet) Encrypt(passphrase string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.encrypted {
		return errReencrypt
	}

	var nonce [24]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return err
	}
	key := passphraseKey(passphrase)
	sealed := secretbox.Seal(nil, w.seed[:], &nonce, &key)
	copy(w.encSeed[:], sealed)
	w.nonce = append([]byte(nil), nonce[:]...)
	w.encrypted = true
	return nil
}

// Lock wipes the spending keys and the plain seed from memory. Only
// encrypted wallets can lock.
func (w *Wallet) Lock() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.encrypted {
		return errUnencryptedWallet
	}
	if !w.unlocked {
		return modules.ErrLockedWallet
	}

	w.extsks = nil
	w.tkeys = nil
	w.seed = [32]byte{}
	w.unlocked = false
	return nil
}

// Unlock opens the sealed seed and re-derives every spending key the wallet
// has handed out, verifying each against its stored viewing key.
func (w *Wallet) Unlock(passphrase string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.encrypted {
		return errUnencryptedWallet
	}
	if w.unlocked {
		return errAlreadyUnlocked
	}
	if len(w.nonce) != 24 {
		return errors.New("encrypted wallet has a malformed nonce")
	}

	key := passphraseKey(passphrase)
	var nonce [24]byte
	copy(nonce[:], w.nonce)
	plain, ok := secretbox.Open(nil, w.encSeed[:], &nonce, &key)
	if !ok || len(plain) != 32 {
		return modules.ErrBadPassword
	}
	copy(w.seed[:], plain)

	return w.rederiveSpendingKeys()
}

// rederiveSpendingKeys rebuilds extsks and tkeys from the seed to match the
// stored viewing keys and addresses. Caller holds the write lock and has a
// valid seed in place.
func (w *Wallet) rederiveSpendingKeys() error {
	zkeys := make([]*sapling.ExtendedSpendingKey, 0, len(w.extfvks))
	for i := range w.extfvks {
		extsk, err := w.deriveZKey(uint32(i))
		if err != nil {
			return err
		}
		if !extsk.FVK().Equal(w.extfvks[i]) {
			return errors.New("derived spending key does not match the stored viewing key")
		}
		zkeys = append(zkeys, extsk)
	}
	tkeys := make([]*secp256k1.PrivateKey, 0, len(w.taddrs))
	for i := range w.taddrs {
		key, err := w.deriveTKey(uint32(i))
		if err != nil {
			return err
		}
		if encodeTAddress(w.params, key.PubKey()) != w.taddrs[i] {
			return errors.New("derived transparent key does not match the stored address")
		}
		tkeys = append(tkeys, key)
	}

	w.extsks = zkeys
	w.tkeys = tkeys
	w.unlocked = true
	return nil
}

// RemoveEncryption permanently strips the passphrase from an encrypted
// wallet.
func (w *Wallet) RemoveEncryption(passphrase string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.encrypted {
		return errUnencryptedWallet
	}

	key := passphraseKey(passphrase)
	if len(w.nonce) != 24 {
		return errors.New("encrypted wallet has a malformed nonce")
	}
	var nonce [24]byte
	copy(nonce[:], w.nonce)
	plain, ok := secretbox.Open(nil, w.encSeed[:], &nonce, &key)
	if !ok || len(plain) != 32 {
		return modules.ErrBadPassword
	}
	copy(w.seed[:], plain)

	w.encrypted = false
	w.encSeed = [48]byte{}
	w.nonce = nil
	if !w.unlocked {
		return w.rederiveSpendingKeys()
	}
	return nil
}
