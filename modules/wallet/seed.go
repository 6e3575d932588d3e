package wallet

import (
	"errors"
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/hdkeychain/v3"
	"github.com/tyler-smith/go-bip39"

	"github.com/adityapk00/zecwallet-lite/modules"
	"github.com/adityapk00/zecwallet-lite/sapling"
)

// hdNet satisfies hdkeychain's network parameter interface. The extended-key
// version bytes never leave the wallet (only raw child keys are used), so the
// bitcoin mainnet constants serve every chain.
type hdNet struct{}

func (hdNet) HDPrivKeyVersion() [4]byte { return [4]byte{0x04, 0x88, 0xad, 0xe4} }
func (hdNet) HDPubKeyVersion() [4]byte  { return [4]byte{0x04, 0x88, 0xb2, 0x1e} }

// bip39Seed stretches the wallet entropy into the 64-byte derivation seed.
func (w *Wallet) bip39Seed() ([]byte, error) {
	phrase, err := bip39.NewMnemonic(w.seed[:])
	if err != nil {
		return nil, err
	}
	return bip39.NewSeed(phrase, ""), nil
}

// SeedPhrase returns the 24-word mnemonic of the wallet entropy. The wallet
// must be unlocked.
func (w *Wallet) SeedPhrase() (string, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if !w.unlocked {
		return "", modules.ErrLockedWallet
	}
	return bip39.NewMnemonic(w.seed[:])
}

// deriveTKey derives the transparent secret key at position pos via the
// BIP-44 path m/44'/coin'/0'/0/pos.
func (w *Wallet) deriveTKey(pos uint32) (*secp256k1.PrivateKey, error) {
	seed, err := w.bip39Seed()
	if err != nil {
		return nil, err
	}
	master, err := hdkeychain.NewMaster(seed, hdNet{})
	if err != nil {
		return nil, err
	}
	path := []uint32{
		hdkeychain.HardenedKeyStart + 44,
		hdkeychain.HardenedKeyStart + w.params.CoinType,
		hdkeychain.HardenedKeyStart + 0,
		0,
		pos,
	}
	key := master
	for _, idx := range path {
		key, err = key.Child(idx)
		if err != nil {
			return nil, err
		}
	}
	return secp256k1.PrivKeyFromBytes(key.SerializedPrivKey()), nil
}

// deriveZKey derives the extended spending key at position pos via the
// ZIP-32 path m/32'/coin'/pos'.
func (w *Wallet) deriveZKey(pos uint32) (*sapling.ExtendedSpendingKey, error) {
	seed, err := w.bip39Seed()
	if err != nil {
		return nil, err
	}
	return sapling.MasterKey(seed).DerivePath(w.params.CoinType, pos), nil
}

// appendTKey derives and appends the next transparent key. Caller holds the
// write lock (or owns the wallet exclusively during construction).
func (w *Wallet) appendTKey() error {
	key, err := w.deriveTKey(uint32(len(w.tkeys)))
	if err != nil {
		return err
	}
	w.tkeys = append(w.tkeys, key)
	w.taddrs = append(w.taddrs, encodeTAddress(w.params, key.PubKey()))
	return nil
}

// appendZKey derives and appends the next shielded key. Caller holds the
// write lock.
func (w *Wallet) appendZKey() error {
	extsk, err := w.deriveZKey(uint32(len(w.extfvks)))
	if err != nil {
		return err
	}
	fvk := extsk.FVK()
	addr, err := fvk.DefaultAddress()
	if err != nil {
		return err
	}
	w.extsks = append(w.extsks, extsk)
	w.extfvks = append(w.extfvks, fvk)
	w.zaddrs = append(w.zaddrs, addr)
	return nil
}

// NewZAddress derives the next shielded address on explicit user request.
func (w *Wallet) NewZAddress() (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.unlocked {
		return "", modules.ErrLockedWallet
	}
	if err := w.appendZKey(); err != nil {
		return "", err
	}
	return w.zaddrs[len(w.zaddrs)-1].Encode(w.params), nil
}

// NewTAddress derives the next transparent address on explicit user request.
func (w *Wallet) NewTAddress() (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.unlocked {
		return "", modules.ErrLockedWallet
	}
	if err := w.appendTKey(); err != nil {
		return "", err
	}
	return w.taddrs[len(w.taddrs)-1], nil
}

// ensureZGapRule tops up the shielded key sequence after addr received
// funds: if addr sits within the last GapRuleUnusedAddresses keys, enough
// keys are appended that at least that many unused addresses follow it. A
// locked wallet cannot derive, so the rule is a no-op there.
func (w *Wallet) ensureZGapRule(addr sapling.PaymentAddress) {
	if !w.unlocked {
		return
	}
	pos := -1
	last := len(w.zaddrs)
	for i := last - 1; i >= 0 && i >= last-modules.GapRuleUnusedAddresses; i-- {
		if w.zaddrs[i] == addr {
			pos = last - 1 - i
			break
		}
	}
	if pos < 0 {
		return
	}
	add := modules.GapRuleUnusedAddresses - pos
	log.Infof("Adding %d new zaddrs", add)
	for i := 0; i < add; i++ {
		if err := w.appendZKey(); err != nil {
			log.Errorf("Failed to extend shielded keys for the gap rule: %v", err)
			return
		}
	}
}

// ensureTGapRule is the transparent twin of ensureZGapRule.
func (w *Wallet) ensureTGapRule(addr string) {
	if !w.unlocked {
		return
	}
	pos := -1
	last := len(w.taddrs)
	for i := last - 1; i >= 0 && i >= last-modules.GapRuleUnusedAddresses; i-- {
		if w.taddrs[i] == addr {
			pos = last - 1 - i
			break
		}
	}
	if pos < 0 {
		return
	}
	add := modules.GapRuleUnusedAddresses - pos
	log.Infof("Adding %d new taddrs", add)
	for i := 0; i < add; i++ {
		if err := w.appendTKey(); err != nil {
			log.Errorf("Failed to extend transparent keys for the gap rule: %v", err)
			return
		}
	}
}

// ExportedKey is one exported private key with its address.
type ExportedKey struct {
	Address    string `json:"address"`
	PrivateKey string `json:"private_key"`
}

// ExportKeys exports every private key, or only the one matching addr when
// addr is non-empty.
func (w *Wallet) ExportKeys(addr string) ([]ExportedKey, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if !w.unlocked {
		return nil, modules.ErrLockedWallet
	}
	var out []ExportedKey
	for i, extsk := range w.extsks {
		a := w.zaddrs[i].Encode(w.params)
		if addr != "" && a != addr {
			continue
		}
		out = append(out, ExportedKey{
			Address:    a,
			PrivateKey: sapling.EncodeSpendingKey(w.params, extsk),
		})
	}
	for i, key := range w.tkeys {
		a := w.taddrs[i]
		if addr != "" && a != addr {
			continue
		}
		out = append(out, ExportedKey{
			Address:    a,
			PrivateKey: encodeTSecretKey(w.params, key),
		})
	}
	if addr != "" && len(out) == 0 {
		return nil, fmt.Errorf("address %s is not known to the wallet", addr)
	}
	if len(out) == 0 {
		return nil, errors.New("wallet has no keys to export")
	}
	return out, nil
}
