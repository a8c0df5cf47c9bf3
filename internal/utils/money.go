package utils

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatAmount renders integer amount with thousand separators and a currency prefix.
func FormatAmount(currency string, amount int64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	currency = strings.TrimSpace(currency)
	if currency == "" {
		return fmt.Sprintf("%s%s", sign, formatThousand(amount))
	}
	return fmt.Sprintf("%s%s %s", sign, currency, formatThousand(amount))
}

func formatThousand(n int64) string {
	digits := strconv.FormatInt(n, 10)
	head := len(digits) % 3
	if head == 0 {
		head = 3
	}
	groups := []string{digits[:head]}
	for i := head; i < len(digits); i += 3 {
		groups = append(groups, digits[i:i+3])
	}
	return strings.Join(groups, ",")
}
