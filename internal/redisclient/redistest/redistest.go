// Package redistest starts throwaway Redis servers for tests.
package redistest

import (
	"testing"

	"storefront/internal/redisclient"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
)

// NewClient returns a client connected to an in-process Redis that is shut
// down when the test ends.
func NewClient(t testing.TB) (*redisclient.Client, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	client, err := redisclient.NewClient(srv.Addr(), "", 0)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return client, srv
}
