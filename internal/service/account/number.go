package account

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/nkiryanov/digibank/internal/service/validate"
)

// Account numbers are 11 random digits followed by a Luhn check digit
const NumberLength = 12

type NumberGenerator interface {
	Next() (string, error)
}

// RandomNumbers draws numbers from crypto/rand
// Leading digit is never zero, so numbers keep their length as integers
type RandomNumbers struct{}

var DefaultNumbers NumberGenerator = RandomNumbers{}

var ten = big.NewInt(10)

func (RandomNumbers) Next() (string, error) {
	digits := make([]byte, 0, NumberLength)

	for len(digits) < NumberLength-1 {
		n, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", fmt.Errorf("error while generating account number. Err: %w", err)
		}
		if len(digits) == 0 && n.Int64() == 0 {
			continue
		}
		digits = append(digits, byte('0'+n.Int64()))
	}

	check, err := validate.LuhnCheckDigit(string(digits))
	if err != nil {
		return "", err
	}

	return string(append(digits, check)), nil
}
