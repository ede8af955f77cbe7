package domain

import "fmt"

// Cents is a monetary amount in the smallest currency unit.
type Cents int64

const CentsPerEuro = 100

// String formats the amount in euros, e.g. 150 -> "€1.50".
func (c Cents) String() string {
	sign := ""
	if c < 0 {
		sign = "-"
		c = -c
	}
	return fmt.Sprintf("%s€%d.%02d", sign, c/CentsPerEuro, c%CentsPerEuro)
}
