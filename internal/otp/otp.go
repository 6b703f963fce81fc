package otp

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

// Длина кода и срок действия фиксированы конфигурацией
const (
	Length = 6
	TTL    = 5 * time.Minute
)

var codeSpace = big.NewInt(1_000_000) // 10^Length

// Generate возвращает 6-значный цифровой код, равномерно по [0, 10^6).
// Источник — crypto/rand, без смещения от модульной редукции.
func Generate() (string, error) {
	n, err := rand.Int(rand.Reader, codeSpace)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", Length, n), nil
}

// ExpiryFrom возвращает момент истечения кода, выданного в now.
func ExpiryFrom(now time.Time) time.Time {
	return now.Add(TTL)
}
