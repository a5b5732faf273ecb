package validate

import (
	"errors"
)

var (
	ErrNotDigits = errors.New("number contains invalid characters")
	ErrLuhn      = errors.New("number is not valid according to Luhn algorithm")
)

// luhnSum sums digits of number doubling every second one counting from the right
// doubleFirst says whether the rightmost digit is doubled
func luhnSum(number string, doubleFirst bool) (int, error) {
	if number == "" {
		return 0, ErrNotDigits
	}

	sum := 0
	double := doubleFirst
	// It's ok to work with string as bytes here
	for i := len(number) - 1; i >= 0; i-- {
		n := number[i]
		if n < '0' || n > '9' {
			return 0, ErrNotDigits
		}

		digit := int(n - '0')
		if double {
			digit *= 2
			if digit > 9 {
				digit -= 9
			}
		}
		sum += digit
		double = !double
	}

	return sum, nil
}

// Luhn checks number including its trailing check digit
func Luhn(number string) error {
	sum, err := luhnSum(number, false)
	if err != nil {
		return err
	}

	if sum%10 != 0 {
		return ErrLuhn
	}
	return nil
}

// LuhnCheckDigit returns digit that makes payload+digit pass Luhn
func LuhnCheckDigit(payload string) (byte, error) {
	sum, err := luhnSum(payload, true)
	if err != nil {
		return 0, err
	}

	return byte('0' + (10-sum%10)%10), nil
}
