package evidence

import "regexp"

var digitRunRe = regexp.MustCompile(`\d{11,}`)

// ValidVAT checks an 11-digit Italian VAT number (partita IVA) with the
// Luhn-style check digit: digits at even 0-based positions are summed
// as-is, digits at odd positions are doubled with digit-sum reduction,
// and the 11th digit must equal (10 - sum mod 10) mod 10.
func ValidVAT(s string) bool {
	if len(s) != 11 {
		return false
	}
	sum := 0
	for i := 0; i < 10; i++ {
		d := int(s[i] - '0')
		if d < 0 || d > 9 {
			return false
		}
		if i%2 == 1 {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
	}
	last := int(s[10] - '0')
	if last < 0 || last > 9 {
		return false
	}
	return (10-sum%10)%10 == last
}

// ScanVATs returns every distinct 11-digit substring of the raw page
// body that passes the check-digit validation. An 11-wide window slides
// over each maximal digit run, so a VAT glued to surrounding digits
// (a phone number, a REA code) is still found.
func ScanVATs(rawHTML string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, run := range digitRunRe.FindAllString(rawHTML, -1) {
		for i := 0; i+11 <= len(run); i++ {
			cand := run[i : i+11]
			if seen[cand] || !ValidVAT(cand) {
				continue
			}
			seen[cand] = true
			out = append(out, cand)
		}
	}
	return out
}
