package export

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var moneyPrinter = message.NewPrinter(language.AmericanEnglish)

// FormatMoney renders v as US dollars with digit grouping, e.g. "$1,234.50".
func FormatMoney(v float64) string {
	if v < 0 {
		return "-$" + moneyPrinter.Sprintf("%.2f", -v)
	}
	return "$" + moneyPrinter.Sprintf("%.2f", v)
}
