package reference

import (
	"errors"
	"fmt"
)

// CLABE layout: 3-digit bank code, 3-digit plaza code, 11-digit account, 1 check digit.
const (
	clabeLength   = 18
	bankLength    = 3
	plazaLength   = 3
	accountLength = 11
)

var clabeWeights = [3]int{3, 7, 1}

// Validation errors for CLABE numbers.
var (
	ErrCLABELength     = errors.New("clabe must have 18 digits")
	ErrCLABENonNumeric = errors.New("clabe must contain only digits")
	ErrCLABEChecksum   = errors.New("clabe check digit mismatch")
)

// BuildCLABE assembles an 18-digit CLABE from its bank, plaza and account parts and
// appends the check digit.
func BuildCLABE(bank, plaza, account string) (string, error) {
	if len(bank) != bankLength || len(plaza) != plazaLength || len(account) != accountLength {
		return "", fmt.Errorf(
			"clabe parts must be %d, %d and %d digits long",
			bankLength, plazaLength, accountLength,
		)
	}

	base := bank + plaza + account
	digits, err := toDigits(base)
	if err != nil {
		return "", err
	}

	return base + string(rune('0'+clabeCheckDigit(digits))), nil
}

// ValidateCLABE checks length, alphabet and check digit of a CLABE.
func ValidateCLABE(clabe string) error {
	if len(clabe) != clabeLength {
		return ErrCLABELength
	}

	digits, err := toDigits(clabe)
	if err != nil {
		return err
	}

	if clabeCheckDigit(digits[:clabeLength-1]) != digits[clabeLength-1] {
		return ErrCLABEChecksum
	}

	return nil
}

// BankCode returns the 3-digit bank code of a CLABE.
func BankCode(clabe string) string {
	if len(clabe) < bankLength {
		return ""
	}
	return clabe[:bankLength]
}

// clabeCheckDigit weights the first 17 digits with the repeating 3-7-1 pattern.
func clabeCheckDigit(digits []int) int {
	sum := 0
	for i, d := range digits {
		sum += (d * clabeWeights[i%len(clabeWeights)]) % 10
	}
	return (10 - sum%10) % 10
}

func toDigits(s string) ([]int, error) {
	digits := make([]int, len(s))
	for i, c := range s {
		if c < '0' || c > '9' {
			return nil, ErrCLABENonNumeric
		}
		digits[i] = int(c - '0')
	}
	return digits, nil
}
