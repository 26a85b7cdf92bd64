package utils

import (
	"fmt"

	"github.com/btcsuite/btcutil/base58"
	"github.com/google/uuid"
)

// PublicKeyLength is the size of a decoded account address
const PublicKeyLength = 32

// GenerateID generates a random unique ID
func GenerateID() string {
	return uuid.NewString()
}

// DecodeAddress decodes a base58 account address into its raw key bytes
func DecodeAddress(address string) ([]byte, error) {
	raw := base58.Decode(address)
	if len(raw) != PublicKeyLength {
		return nil, NewAppError(ErrCodeValidation, "Invalid account address",
			fmt.Sprintf("%q decodes to %d bytes", address, len(raw)))
	}
	return raw, nil
}

// IsValidAddress checks if a string is a valid base58 account address
func IsValidAddress(address string) bool {
	_, err := DecodeAddress(address)
	return err == nil
}

// ShortSignature shortens a signature or address for display, e.g. "5xYzAb...9kLm"
func ShortSignature(sig string) string {
	if len(sig) <= 12 {
		return sig
	}
	return sig[:6] + "..." + sig[len(sig)-4:]
}
