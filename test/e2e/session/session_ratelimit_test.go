package session_test

import (
	"testing"

	"github.com/aussiebroadwan/examania/pkg/authsdk"
	"github.com/stretchr/testify/require"
)

// TestLoginRateLimit hammers one email with bad passwords until the strict
// profile kicks in.
func TestLoginRateLimit(t *testing.T) {
	baseURL, cleanup := setupSessionContainerWithDefaultRateLimits(t)
	defer cleanup()

	client := authsdk.NewSDKClient(baseURL)

	var limited bool
	for range 10 {
		_, err := client.Login(t.Context(), "maria@examania.com", "wrong-password")
		var apiErr *authsdk.APIError
		require.ErrorAs(t, err, &apiErr)

		if apiErr.StatusCode == 429 {
			limited = true
			break
		}
		require.Equal(t, 401, apiErr.StatusCode)
	}
	require.True(t, limited, "expected a 429 within ten attempts")
}
