package store_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/crm-nexus/nexus/session/store"
)

func testRecord(tier store.Tier) *store.Record {
	return &store.Record{
		AccessToken:  "access-secret",
		RefreshToken: "refresh-secret",
		ExpiresAt:    time.Date(2025, 6, 1, 16, 0, 0, 0, time.UTC),
		Tier:         tier,
	}
}

func TestFileStore(t *testing.T) {
	t.Run("round trips a record", func(t *testing.T) {
		fileStore := store.NewFileStore(t.TempDir())
		saved := testRecord(store.TierPersistent)
		require.NoError(t, fileStore.Save(saved))

		loaded, err := fileStore.Load()
		require.NoError(t, err)
		require.Equal(t, saved, loaded)
	})

	t.Run("load without a session file returns NoSessionErr", func(t *testing.T) {
		fileStore := store.NewFileStore(t.TempDir())

		_, err := fileStore.Load()
		require.ErrorIs(t, err, store.NoSessionErr)
	})

	t.Run("tokens are not stored in plaintext", func(t *testing.T) {
		folder := t.TempDir()
		fileStore := store.NewFileStore(folder)
		require.NoError(t, fileStore.Save(testRecord(store.TierPersistent)))

		raw, err := os.ReadFile(filepath.Join(folder, "session.bin"))
		require.NoError(t, err)
		require.NotContains(t, string(raw), "access-secret")
		require.NotContains(t, string(raw), "refresh-secret")
	})

	t.Run("files are owner-only", func(t *testing.T) {
		folder := t.TempDir()
		fileStore := store.NewFileStore(folder)
		require.NoError(t, fileStore.Save(testRecord(store.TierPersistent)))

		for _, name := range []string{"session.bin", "session.key"} {
			info, err := os.Stat(filepath.Join(folder, name))
			require.NoError(t, err)
			require.Equal(t, os.FileMode(0600), info.Mode().Perm(), name)
		}
	})

	t.Run("clear removes the session and is idempotent", func(t *testing.T) {
		fileStore := store.NewFileStore(t.TempDir())
		require.NoError(t, fileStore.Save(testRecord(store.TierPersistent)))

		require.NoError(t, fileStore.Clear())
		require.NoError(t, fileStore.Clear())

		_, err := fileStore.Load()
		require.ErrorIs(t, err, store.NoSessionErr)
	})

	t.Run("tampered session file fails to open", func(t *testing.T) {
		folder := t.TempDir()
		fileStore := store.NewFileStore(folder)
		require.NoError(t, fileStore.Save(testRecord(store.TierPersistent)))

		sessionFile := filepath.Join(folder, "session.bin")
		raw, err := os.ReadFile(sessionFile)
		require.NoError(t, err)
		raw[len(raw)-1] ^= 0xff
		require.NoError(t, os.WriteFile(sessionFile, raw, 0600))

		_, err = fileStore.Load()
		require.Error(t, err)
	})
}

func TestMemoryStore(t *testing.T) {
	t.Run("round trips a copy", func(t *testing.T) {
		memory := store.NewMemoryStore()
		saved := testRecord(store.TierEphemeral)
		require.NoError(t, memory.Save(saved))

		loaded, err := memory.Load()
		require.NoError(t, err)
		require.Equal(t, saved, loaded)

		// Mutating the loaded copy must not reach the stored record.
		loaded.AccessToken = "mutated"
		again, err := memory.Load()
		require.NoError(t, err)
		require.Equal(t, "access-secret", again.AccessToken)
	})

	t.Run("empty store returns NoSessionErr", func(t *testing.T) {
		_, err := store.NewMemoryStore().Load()
		require.ErrorIs(t, err, store.NoSessionErr)
	})

	t.Run("clear empties the store", func(t *testing.T) {
		memory := store.NewMemoryStore()
		require.NoError(t, memory.Save(testRecord(store.TierEphemeral)))
		require.NoError(t, memory.Clear())

		_, err := memory.Load()
		require.ErrorIs(t, err, store.NoSessionErr)
	})
}

func TestTiers(t *testing.T) {
	setup := func() store.Tiers {
		return store.Tiers{Persistent: store.NewMemoryStore(), Ephemeral: store.NewMemoryStore()}
	}

	t.Run("write targets the tier named by the record", func(t *testing.T) {
		tiers := setup()
		require.NoError(t, tiers.Write(testRecord(store.TierEphemeral)))

		_, err := tiers.Persistent.Load()
		require.ErrorIs(t, err, store.NoSessionErr)

		loaded, err := tiers.Ephemeral.Load()
		require.NoError(t, err)
		require.Equal(t, store.TierEphemeral, loaded.Tier)
	})

	t.Run("write clears the other tier first", func(t *testing.T) {
		tiers := setup()
		require.NoError(t, tiers.Write(testRecord(store.TierPersistent)))
		require.NoError(t, tiers.Write(testRecord(store.TierEphemeral)))

		_, err := tiers.Persistent.Load()
		require.ErrorIs(t, err, store.NoSessionErr)

		_, err = tiers.Ephemeral.Load()
		require.NoError(t, err)
	})

	t.Run("write rejects an untagged record", func(t *testing.T) {
		tiers := setup()
		require.Error(t, tiers.Write(&store.Record{AccessToken: "access"}))
	})

	t.Run("read prefers the persistent tier", func(t *testing.T) {
		tiers := setup()
		require.NoError(t, tiers.Persistent.Save(testRecord(store.TierPersistent)))
		require.NoError(t, tiers.Ephemeral.Save(testRecord(store.TierEphemeral)))

		loaded, err := tiers.Read()
		require.NoError(t, err)
		require.Equal(t, store.TierPersistent, loaded.Tier)
	})

	t.Run("read falls back to the ephemeral tier", func(t *testing.T) {
		tiers := setup()
		require.NoError(t, tiers.Ephemeral.Save(testRecord(store.TierEphemeral)))

		loaded, err := tiers.Read()
		require.NoError(t, err)
		require.Equal(t, store.TierEphemeral, loaded.Tier)
	})

	t.Run("read with both tiers empty returns NoSessionErr", func(t *testing.T) {
		_, err := setup().Read()
		require.ErrorIs(t, err, store.NoSessionErr)
	})
}
