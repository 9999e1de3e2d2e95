package credential

import (
	"testing"

	"github.com/99designs/keyring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/engineer-metrics/internal/model"
)

func newTestStore(items ...keyring.Item) *Store {
	return NewStore(keyring.NewArrayKeyring(items))
}

func TestStore_SetGetDelete(t *testing.T) {
	s := newTestStore()

	v, err := s.Get(KeyPublicKey)
	require.NoError(t, err)
	assert.Empty(t, v)

	require.NoError(t, s.Set(KeyPublicKey, "pub"))
	v, err = s.Get(KeyPublicKey)
	require.NoError(t, err)
	assert.Equal(t, "pub", v)

	require.NoError(t, s.Delete(KeyPublicKey))
	require.NoError(t, s.Delete(KeyPublicKey))
	v, err = s.Get(KeyPublicKey)
	require.NoError(t, err)
	assert.Empty(t, v)
}

func TestStore_FillPSAKeepsConfiguredValues(t *testing.T) {
	s := newTestStore(
		keyring.Item{Key: KeyClientID, Data: []byte("ring-client")},
		keyring.Item{Key: KeyPublicKey, Data: []byte("ring-pub")},
	)

	cfg := model.PSAConfig{ClientID: "file-client"}
	filled, err := s.FillPSA(&cfg)
	require.NoError(t, err)

	assert.Equal(t, []string{KeyPublicKey}, filled)
	assert.Equal(t, "file-client", cfg.ClientID)
	assert.Equal(t, "ring-pub", cfg.PublicKey)
	assert.Empty(t, cfg.PrivateKey)
}

func TestStore_SavePSASkipsEmpty(t *testing.T) {
	s := newTestStore()
	require.NoError(t, s.SavePSA(model.PSAConfig{ClientID: "c", PrivateKey: "priv"}))

	cfg := model.PSAConfig{}
	filled, err := s.FillPSA(&cfg)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{KeyClientID, KeyPrivateKey}, filled)
	assert.Equal(t, "priv", cfg.PrivateKey)
	assert.Empty(t, cfg.PublicKey)
}
