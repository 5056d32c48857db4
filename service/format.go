package service

import "strconv"

// FormatVND renders an amount with dot thousand separators and the đồng
// sign, e.g. 45000 -> "45.000₫".
func FormatVND(amount int64) string {
	negative := amount < 0
	if negative {
		amount = -amount
	}

	digits := strconv.FormatInt(amount, 10)
	var out []byte
	for i, d := range []byte(digits) {
		if i > 0 && (len(digits)-i)%3 == 0 {
			out = append(out, '.')
		}
		out = append(out, d)
	}

	s := string(out) + "₫"
	if negative {
		s = "-" + s
	}
	return s
}
