package types

import (
	"fmt"
)

const (
	// ZatsPerZEC is the number of zatoshis in one coin.
	ZatsPerZEC = 100_000_000

	// DefaultFee is the conventional flat fee attached to every transaction
	// built by the wallet, in zatoshis.
	DefaultFee Amount = 10_000

	// MaxMoney is the total monetary supply, used for range checks when
	// decoding amounts from the wire.
	MaxMoney Amount = 21_000_000 * ZatsPerZEC
)

// Amount is a quantity of zatoshis. Negative amounts show up in user-facing
// listings (outgoing unconfirmed transactions) and in a transaction's
// ValueBalance when its shielded outputs exceed its shielded spends; all
// stored note and utxo values are non-negative.
type Amount int64

// Valid reports whether the amount is inside the monetary range.
func (a Amount) Valid() bool {
	return a >= 0 && a <= MaxMoney
}

// ToZEC renders the amount as a decimal coin value.
func (a Amount) ToZEC() float64 {
	return float64(a) / float64(ZatsPerZEC)
}

func (a Amount) String() string {
	return fmt.Sprintf("%.8f", a.ToZEC())
}
