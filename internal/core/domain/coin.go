package domain

import (
	"fmt"
	"strings"
)

// Coin is a denomination accepted by the machine. The zero value CoinNone
// means "no coin" and is never counted.
type Coin int

const (
	CoinNone Coin = iota
	TwoEuro
	OneEuro
	FiftyCents
	TwentyCents
	TenCents
	FiveCents
)

var coinValues = [...]Cents{
	CoinNone:    0,
	TwoEuro:     200,
	OneEuro:     100,
	FiftyCents:  50,
	TwentyCents: 20,
	TenCents:    10,
	FiveCents:   5,
}

var coinNames = [...]string{
	CoinNone:    "NONE",
	TwoEuro:     "TWO_EURO",
	OneEuro:     "ONE_EURO",
	FiftyCents:  "FIFTY_CENTS",
	TwentyCents: "TWENTY_CENTS",
	TenCents:    "TEN_CENTS",
	FiveCents:   "FIVE_CENTS",
}

// Denominations returns every valid coin in strictly descending value order.
func Denominations() []Coin {
	return []Coin{TwoEuro, OneEuro, FiftyCents, TwentyCents, TenCents, FiveCents}
}

func (c Coin) Valid() bool {
	return c > CoinNone && int(c) < len(coinValues)
}

// Value returns the face value of the coin, 0 for an invalid coin.
func (c Coin) Value() Cents {
	if !c.Valid() {
		return 0
	}
	return coinValues[c]
}

func (c Coin) String() string {
	if !c.Valid() {
		return coinNames[CoinNone]
	}
	return coinNames[c]
}

func (c Coin) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Coin) UnmarshalText(text []byte) error {
	if string(text) == coinNames[CoinNone] {
		*c = CoinNone
		return nil
	}
	parsed, err := ParseCoin(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ParseCoin resolves a coin by its identifier, e.g. "FIFTY_CENTS".
func ParseCoin(name string) (Coin, error) {
	name = strings.ToUpper(strings.TrimSpace(name))
	for _, c := range Denominations() {
		if coinNames[c] == name {
			return c, nil
		}
	}
	return CoinNone, fmt.Errorf("unknown coin %q", name)
}

// SumCoins returns the total face value of coins.
func SumCoins(coins []Coin) Cents {
	var total Cents
	for _, c := range coins {
		total += c.Value()
	}
	return total
}
