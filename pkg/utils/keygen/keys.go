package keygen

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const (
	apiKeyCharset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	apiKeyPrefix  = "tsk_"

	MinAPIKeyLength = 24
)

// GenerateAPIKey returns a random key of length characters after the
// "tsk_" prefix, suitable for auth.api_key.
func GenerateAPIKey(length int) (string, error) {
	if length < MinAPIKeyLength {
		return "", fmt.Errorf("api key length must be at least %d, got %d", MinAPIKeyLength, length)
	}
	max := big.NewInt(int64(len(apiKeyCharset)))
	result := make([]byte, length)
	for i := range result {
		num, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("read random: %w", err)
		}
		result[i] = apiKeyCharset[num.Int64()]
	}
	return apiKeyPrefix + string(result), nil
}
