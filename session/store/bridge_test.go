package store_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/crm-nexus/nexus/session/store"
)

func TestLicenseBridge(t *testing.T) {
	t.Run("round trips the license type", func(t *testing.T) {
		bridge := store.NewLicenseBridge(t.TempDir())
		require.NoError(t, bridge.Save("LIFE"))

		licenseType, err := bridge.Load()
		require.NoError(t, err)
		require.Equal(t, "LIFE", licenseType)
	})

	t.Run("load without a saved value is empty, not an error", func(t *testing.T) {
		bridge := store.NewLicenseBridge(t.TempDir())

		licenseType, err := bridge.Load()
		require.NoError(t, err)
		require.Empty(t, licenseType)
	})

	t.Run("clear removes the value and is idempotent", func(t *testing.T) {
		bridge := store.NewLicenseBridge(t.TempDir())
		require.NoError(t, bridge.Save("HEALTH"))

		require.NoError(t, bridge.Clear())
		require.NoError(t, bridge.Clear())

		licenseType, err := bridge.Load()
		require.NoError(t, err)
		require.Empty(t, licenseType)
	})
}
