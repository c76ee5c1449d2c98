package utils

import (
	"crypto/rand"
)

const refPrefix = "BK"

// BookingRef generates a human-readable booking reference such as "BK483920".
// The digits come from crypto/rand so references are not guessable.
func BookingRef(digits int) (string, error) {
	const charset = "0123456789"

	code := make([]byte, digits)
	if _, err := rand.Read(code); err != nil {
		return "", err
	}

	for i := 0; i < digits; i++ {
		code[i] = charset[int(code[i])%len(charset)]
	}

	return refPrefix + string(code), nil
}
