package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Klingon-tech/asset-minter/config"
	"github.com/Klingon-tech/asset-minter/internal/asset"
)

func TestStore_CreateGet(t *testing.T) {
	st, err := NewStore(time.Minute, config.Mainnet)
	require.NoError(t, err)
	defer st.Close()

	a, err := st.Create()
	require.NoError(t, err)
	b, err := st.Create()
	require.NoError(t, err)

	assert.Len(t, a.ID(), 2*idBytes)
	assert.NotEqual(t, a.ID(), b.ID())
	assert.Equal(t, config.Mainnet, a.Snapshot().Network)
	assert.Equal(t, 2, st.Len())

	got, ok := st.Get(a.ID())
	require.True(t, ok)
	assert.Same(t, a, got)

	_, ok = st.Get("")
	assert.False(t, ok)
	_, ok = st.Get("unknown")
	assert.False(t, ok)
}

func TestStore_GetOrCreate(t *testing.T) {
	st, err := NewStore(time.Minute, config.Testnet)
	require.NoError(t, err)
	defer st.Close()

	s, created, err := st.GetOrCreate("stale-cookie")
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEqual(t, "stale-cookie", s.ID())

	again, created, err := st.GetOrCreate(s.ID())
	require.NoError(t, err)
	assert.False(t, created)
	assert.Same(t, s, again)

	st.Remove(s.ID())
	_, ok := st.Get(s.ID())
	assert.False(t, ok)
	st.Remove(s.ID())
}

func TestStore_ExpiryDiscardsPending(t *testing.T) {
	st, err := NewStore(50*time.Millisecond, config.Testnet)
	require.NoError(t, err)
	defer st.Close()

	s, err := st.Create()
	require.NoError(t, err)
	require.NoError(t, s.Connect(alice))
	require.NoError(t, s.Submit(context.Background(), asset.NewBuilder(&fakeParams{round: 1}), asset.DefaultDescriptor()))

	id := s.ID()
	require.Eventually(t, func() bool {
		return st.Len() == 0
	}, 2*time.Second, 10*time.Millisecond)

	_, ok := st.Get(id)
	assert.False(t, ok)
}
