package utils

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var idPrinter = message.NewPrinter(language.Indonesian)

// FormatIDR renders an amount as Indonesian rupiah without fraction
// digits, e.g. "Rp 40.000".
func FormatIDR(amount decimal.Decimal) string {
	n := amount.Round(0).IntPart()
	if n < 0 {
		return idPrinter.Sprintf("-Rp %d", -n)
	}
	return idPrinter.Sprintf("Rp %d", n)
}
