package util

import (
	"github.com/google/uuid"
)

const shortIDAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// ShortIDLength is the length of batch, sale and recipe identifiers
const ShortIDLength = 7

// NewShortID returns a 7-character uppercase alphanumeric identifier drawn
// from a random UUID.
func NewShortID() string {
	id := uuid.New()
	out := make([]byte, ShortIDLength)
	for i := range out {
		out[i] = shortIDAlphabet[int(id[i])%len(shortIDAlphabet)]
	}
	return string(out)
}

// NewTaskID returns a fresh queue task identifier
func NewTaskID() string {
	return uuid.NewString()
}
