package netsync

import (
	"testing"
	"time"

	"github.com/kasuganosora/neonmaze/game/geom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecode(t *testing.T) {
	in := Pose{ID: "p1", Seq: 9, Position: geom.V(1, 2, 3), Rotation: geom.V(0, 1.5, 0)}
	b, err := Encode(in)
	require.NoError(t, err)

	out, err := Decode(b)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestDecode_Bad(t *testing.T) {
	_, err := Decode(nil)
	assert.ErrorIs(t, err, ErrEmptyFrame)

	_, err = Decode([]byte{0xc1})
	assert.Error(t, err)
}

func TestRelay_ThrottlesPerSender(t *testing.T) {
	r := NewRelay(20)
	now := time.Unix(1000, 0)

	assert.True(t, r.Accept(Pose{ID: "a", Seq: 1}, now))
	assert.False(t, r.Accept(Pose{ID: "a", Seq: 2}, now.Add(10*time.Millisecond)))
	// another sender has its own budget
	assert.True(t, r.Accept(Pose{ID: "b", Seq: 1}, now.Add(10*time.Millisecond)))
	assert.True(t, r.Accept(Pose{ID: "a", Seq: 3}, now.Add(60*time.Millisecond)))

	last, ok := r.Last("a")
	require.True(t, ok)
	assert.Equal(t, uint32(3), last.Seq)
}

func TestRelay_Unlimited(t *testing.T) {
	r := NewRelay(0)
	now := time.Now()
	for i := 0; i < 100; i++ {
		assert.True(t, r.Accept(Pose{ID: "a"}, now))
	}
}

func TestRelay_Forget(t *testing.T) {
	r := NewRelay(20)
	now := time.Now()
	require.True(t, r.Accept(Pose{ID: "a"}, now))
	r.Forget("a")
	_, ok := r.Last("a")
	assert.False(t, ok)
	assert.True(t, r.Accept(Pose{ID: "a"}, now))
}
