package otp

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestGenerateFormat(t *testing.T) {
	for i := 0; i < 100; i++ {
		code, err := Generate()
		require.NoError(t, err)
		require.Len(t, code, Length)
		for _, c := range code {
			require.True(t, c >= '0' && c <= '9', "code %q contains non-digit", code)
		}
	}
}

func TestGenerateVaries(t *testing.T) {
	// 30 кодов из 10^6 значений: совпадение всех — признак сломанного источника
	seen := map[string]bool{}
	for i := 0; i < 30; i++ {
		code, err := Generate()
		require.NoError(t, err)
		seen[code] = true
	}
	require.Greater(t, len(seen), 1)
}

func TestExpiryFrom(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	require.Equal(t, now.Add(TTL), ExpiryFrom(now))
}
