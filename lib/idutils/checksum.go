package idutils

import "strings"

// IsORCID validates the ORCID shape and its ISO 7064 11,2 check digit.
func IsORCID(value string) bool {
	match := orcidRegexp.FindStringSubmatch(value)
	if match == nil {
		return false
	}

	digits := strings.ReplaceAll(match[2], "-", "")
	total := 0
	for _, r := range digits[:15] {
		total = (total + int(r-'0')) * 2
	}
	result := (12 - total%11) % 11

	expected := byte('0' + result)
	if result == 10 {
		expected = 'X'
	}
	return digits[15] == expected
}

func IsISBN(value string) bool {
	cleaned := strings.ToUpper(isxnCleaner.Replace(isbnPrefix.ReplaceAllString(value, "")))
	switch len(cleaned) {
	case 10:
		return isbn10(cleaned)
	case 13:
		return (strings.HasPrefix(cleaned, "978") || strings.HasPrefix(cleaned, "979")) && ean13(cleaned)
	default:
		return false
	}
}

func isbn10(value string) bool {
	total := 0
	for i := 0; i < 10; i++ {
		c := value[i]
		var digit int
		switch {
		case c >= '0' && c <= '9':
			digit = int(c - '0')
		case c == 'X' && i == 9:
			digit = 10
		default:
			return false
		}
		total += digit * (10 - i)
	}
	return total%11 == 0
}

func IsISSN(value string) bool {
	if !issnShapeRegex.MatchString(value) {
		return false
	}

	cleaned := strings.ToUpper(isxnCleaner.Replace(value))
	total := 0
	for i := 0; i < 7; i++ {
		total += int(cleaned[i]-'0') * (8 - i)
	}
	check := (11 - total%11) % 11

	expected := byte('0' + check)
	if check == 10 {
		expected = 'X'
	}
	return cleaned[7] == expected
}

func IsEAN13(value string) bool {
	return len(value) == 13 && ean13(value)
}

func ean13(value string) bool {
	total := 0
	for i := 0; i < 13; i++ {
		c := value[i]
		if c < '0' || c > '9' {
			return false
		}
		digit := int(c - '0')
		if i%2 == 1 {
			digit *= 3
		}
		total += digit
	}
	return total%10 == 0
}
