package common

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// DefaultWidth is the separator width used by the command-line reports.
const DefaultWidth = 80

// PrintSeparator prints a separator line with the specified character and width
func PrintSeparator(char string, width int) {
	fmt.Println(strings.Repeat(char, width))
}

// PrintSeparatorNewline prints a separator with a newline before it
func PrintSeparatorNewline(char string, width int) {
	fmt.Println("\n" + strings.Repeat(char, width))
}

// PrintHeader prints a formatted header with title and separators
func PrintHeader(title string, width int) {
	PrintSeparatorNewline("=", width)
	fmt.Println(title)
	PrintSeparator("=", width)
}

// PrintFooter prints a formatted footer with message and separators
func PrintFooter(message string, width int) {
	PrintSeparatorNewline("=", width)
	fmt.Println(message)
	fmt.Println(strings.Repeat("=", width) + "\n")
}

// PrintBoxSeparator prints a box-drawing separator line (for sub-sections)
func PrintBoxSeparator(width int) {
	fmt.Println("├" + strings.Repeat("─", width))
}

// BoxPrefix returns the appropriate box-drawing prefix for list items
func BoxPrefix(isLast bool) string {
	if isLast {
		return "└  "
	}
	return "│  "
}

// BoxDetailPrefix returns the prefix for detail lines under list items
func BoxDetailPrefix(isLast bool) string {
	if isLast {
		return "   "
	}
	return "│  "
}

// MoneyFormatter renders ledger amounts for display. Amounts are rounded to two
// places first; a value that is whole after rounding is shown without a
// fractional part. Digits are grouped following the display locale.
type MoneyFormatter struct {
	group  string
	point  string
	symbol string
}

func NewMoneyFormatter(locale, symbol string) *MoneyFormatter {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.English
	}
	p := message.NewPrinter(tag)
	return &MoneyFormatter{
		group:  between(p.Sprintf("%d", 1000), "1", "000"),
		point:  between(p.Sprintf("%.1f", 1.5), "1", "5"),
		symbol: symbol,
	}
}

// between returns s with prefix and suffix removed. Used to pull the locale's
// separators out of a formatted sample number.
func between(s, prefix, suffix string) string {
	return strings.TrimSuffix(strings.TrimPrefix(s, prefix), suffix)
}

// Amount formats d without the currency symbol. Works on the decimal string so
// values beyond int64 or float64 range keep every digit.
func (f *MoneyFormatter) Amount(d decimal.Decimal) string {
	r := d.Round(2)
	sign := ""
	if r.IsNegative() {
		sign = "-"
		r = r.Abs()
	}

	out := sign + f.groupDigits(r.Truncate(0).String())
	if !r.IsInteger() {
		fixed := r.StringFixed(2)
		out += f.point + fixed[strings.IndexByte(fixed, '.')+1:]
	}
	return out
}

func (f *MoneyFormatter) groupDigits(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	head := len(digits) % 3
	if head > 0 {
		b.WriteString(digits[:head])
	}
	for i := head; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteString(f.group)
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

func (f *MoneyFormatter) Format(d decimal.Decimal) string {
	if f.symbol == "" {
		return f.Amount(d)
	}
	return f.Amount(d) + " " + f.symbol
}
