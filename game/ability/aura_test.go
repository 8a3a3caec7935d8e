package ability

import (
	"testing"
	"time"

	"github.com/kasuganosora/neonmaze/game/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAura_Lifecycle(t *testing.T) {
	rec := &events.Recorder{}
	a := NewAura("seeker", DefaultConfig(), rec)
	assert.True(t, a.Ready())
	assert.Equal(t, 1.0, a.CooldownFraction())

	require.NoError(t, a.Activate())
	assert.True(t, a.Active())
	assert.Equal(t, 0.0, a.CooldownFraction())
	assert.ErrorIs(t, a.Activate(), ErrOnCooldown)

	a.Tick(2 * time.Second)
	assert.False(t, a.Active())
	assert.InDelta(t, 0.05, a.CooldownFraction(), 1e-9)

	a.Tick(38 * time.Second)
	assert.True(t, a.Ready())
	assert.Equal(t, 1.0, a.CooldownFraction())
	require.NoError(t, a.Activate())

	evs := rec.Of(events.AbilityChanged)
	require.Len(t, evs, 4)
	assert.True(t, evs[0].Active)
	assert.False(t, evs[1].Active)
}

func TestAura_Reset(t *testing.T) {
	a := NewAura("seeker", DefaultConfig(), nil)
	require.NoError(t, a.Activate())
	a.Reset()
	assert.True(t, a.Ready())
	assert.False(t, a.Active())
}
