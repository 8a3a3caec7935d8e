// Package netsync carries remote actor poses between lobby members. Poses are
// taken on trust: the server neither simulates nor corrects them.
package netsync

import (
	"errors"
	"fmt"

	"github.com/kasuganosora/neonmaze/game/geom"
	"github.com/vmihailenco/msgpack/v5"
)

var ErrEmptyFrame = errors.New("netsync: empty pose frame")

// Pose is one actor's reported position and look rotation.
type Pose struct {
	ID       string    `json:"id" msgpack:"id"`
	Seq      uint32    `json:"seq,omitempty" msgpack:"seq,omitempty"`
	Position geom.Vec3 `json:"position" msgpack:"p"`
	Rotation geom.Vec3 `json:"rotation" msgpack:"r"`
}

// Encode packs p as a binary frame.
func Encode(p Pose) ([]byte, error) {
	b, err := msgpack.Marshal(&p)
	if err != nil {
		return nil, fmt.Errorf("netsync: encode pose: %w", err)
	}
	return b, nil
}

// Decode unpacks a binary frame.
func Decode(b []byte) (Pose, error) {
	var p Pose
	if len(b) == 0 {
		return p, ErrEmptyFrame
	}
	if err := msgpack.Unmarshal(b, &p); err != nil {
		return p, fmt.Errorf("netsync: decode pose: %w", err)
	}
	return p, nil
}
