package criteria

import (
	"math"
	"strconv"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

func formatYears(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// formatCAD renders an amount with thousands separators, e.g. $15,263.
func formatCAD(v float64) string {
	if v == math.Trunc(v) {
		return printer.Sprintf("$%d", int64(v))
	}
	return printer.Sprintf("$%.2f", v)
}
