package replay

import (
	"fmt"
	"strconv"
)

// Key is one of the tracked keyboard keys. The numeric values are the key
// codes the recording window toolkit uses, which keeps replay files readable
// by the recorder and by this package alike.
type Key int

const (
	KeySpace Key = 32
	KeyA     Key = 97
	KeyD     Key = 100
	KeyS     Key = 115
	KeyW     Key = 119
	KeyLeft  Key = 65361
	KeyUp    Key = 65362
	KeyRight Key = 65363
	KeyDown  Key = 65364
)

// TrackedKeys is the fixed key-set recorded in every frame.
var TrackedKeys = [...]Key{KeyW, KeyA, KeyS, KeyD, KeyUp, KeyDown, KeyLeft, KeyRight, KeySpace}

func (k Key) Tracked() bool {
	for _, t := range TrackedKeys {
		if t == k {
			return true
		}
	}
	return false
}

func (k Key) String() string {
	switch k {
	case KeySpace:
		return "space"
	case KeyA:
		return "a"
	case KeyD:
		return "d"
	case KeyS:
		return "s"
	case KeyW:
		return "w"
	case KeyLeft:
		return "left"
	case KeyUp:
		return "up"
	case KeyRight:
		return "right"
	case KeyDown:
		return "down"
	default:
		return "key(" + strconv.Itoa(int(k)) + ")"
	}
}

// MarshalText encodes the key as its numeric code so it can be a JSON object key.
func (k Key) MarshalText() ([]byte, error) {
	return []byte(strconv.Itoa(int(k))), nil
}

func (k *Key) UnmarshalText(b []byte) error {
	n, err := strconv.Atoi(string(b))
	if err != nil {
		return fmt.Errorf("%w: key code %q", ErrMalformedReplay, b)
	}
	*k = Key(n)
	return nil
}

// Keys is a pressed-state snapshot of the tracked key-set.
type Keys map[Key]bool

// KeysOf returns a snapshot with the given keys pressed and every other
// tracked key released.
func KeysOf(pressed ...Key) Keys {
	k := make(Keys, len(TrackedKeys))
	k.Fill()
	for _, p := range pressed {
		k[p] = true
	}
	return k
}

func (k Keys) Pressed(key Key) bool { return k[key] }

// Any reports whether any tracked key is down.
func (k Keys) Any() bool {
	for _, t := range TrackedKeys {
		if k[t] {
			return true
		}
	}
	return false
}

// Fill sets every missing tracked key to released.
func (k Keys) Fill() {
	for _, t := range TrackedKeys {
		if _, ok := k[t]; !ok {
			k[t] = false
		}
	}
}

// Clone copies the tracked keys only; untracked entries are dropped.
func (k Keys) Clone() Keys {
	out := make(Keys, len(TrackedKeys))
	for _, t := range TrackedKeys {
		out[t] = k[t]
	}
	return out
}
