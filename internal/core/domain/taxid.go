package domain

// NormalizeTaxID strips everything but digits, so "529.982.247-25" and
// "52998224725" address the same record.
func NormalizeTaxID(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			out = append(out, s[i])
		}
	}
	return string(out)
}

// ValidTaxID reports whether s is a CPF with 11 digits and both mod-11 check digits correct.
// Formatting characters are ignored. Sequences of one repeated digit are rejected.
func ValidTaxID(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && c != '.' && c != '-' && c != ' ' {
			return false
		}
	}
	d := NormalizeTaxID(s)
	if len(d) != 11 {
		return false
	}

	allEqual := true
	for i := 1; i < 11; i++ {
		if d[i] != d[0] {
			allEqual = false
			break
		}
	}
	if allEqual {
		return false
	}

	return checkDigit(d[:9], 10) == int(d[9]-'0') && checkDigit(d[:10], 11) == int(d[10]-'0')
}

func checkDigit(digits string, weight int) int {
	sum := 0
	for i := 0; i < len(digits); i++ {
		sum += int(digits[i]-'0') * (weight - i)
	}
	r := sum % 11
	if r < 2 {
		return 0
	}
	return 11 - r
}
