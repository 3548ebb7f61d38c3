package hwprofile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashStable(t *testing.T) {
	profile := map[string]any{"cpu": "x86", "cores": float64(8)}
	manifest := map[string]any{"version": "1.0.0"}

	h1, err := Hash(profile, manifest)
	require.NoError(t, err)
	h2, err := Hash(profile, manifest)
	require.NoError(t, err)

	assert.Equal(t, h1, h2, "hash(h) = hash(h)")
	assert.Contains(t, h1, "sha256:")
}

func TestHashOrderIndependent(t *testing.T) {
	a := map[string]any{"cpu": "x86", "cores": float64(8)}
	b := map[string]any{"cores": float64(8), "cpu": "x86"}

	ha, err := Hash(a, map[string]any{})
	require.NoError(t, err)
	hb, err := Hash(b, map[string]any{})
	require.NoError(t, err)

	assert.Equal(t, ha, hb, "map key order must not affect the hash")
}

func TestHashChangesOnDelta(t *testing.T) {
	base := map[string]any{"cpu": "x86"}
	changed := map[string]any{"cpu": "arm64"}

	hBase, err := Hash(base, map[string]any{})
	require.NoError(t, err)
	hChanged, err := Hash(changed, map[string]any{})
	require.NoError(t, err)

	assert.NotEqual(t, hBase, hChanged, "hash(h XOR delta) != hash(h)")
}
