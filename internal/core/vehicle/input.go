package vehicle

import "github.com/zeusync/trackdrive/internal/core/replay"

// Input is the control snapshot for one tick. Forward/Brake and Left/Right
// are independent axes; opposite flags on one axis cancel.
type Input struct {
	Forward bool
	Brake   bool
	Left    bool
	Right   bool
}

// InputFromKeys maps W, S, A and D onto the four controls. Arrow keys are
// recorded in replays but do not drive the car.
func InputFromKeys(k replay.Keys) Input {
	return Input{
		Forward: k.Pressed(replay.KeyW),
		Brake:   k.Pressed(replay.KeyS),
		Left:    k.Pressed(replay.KeyA),
		Right:   k.Pressed(replay.KeyD),
	}
}

// Keys is the inverse of InputFromKeys.
func (in Input) Keys() replay.Keys {
	k := replay.KeysOf()
	k[replay.KeyW] = in.Forward
	k[replay.KeyS] = in.Brake
	k[replay.KeyA] = in.Left
	k[replay.KeyD] = in.Right
	return k
}

// turn is +1 for left, -1 for right and 0 when both or neither are held.
func (in Input) turn() float64 {
	t := 0.0
	if in.Left {
		t++
	}
	if in.Right {
		t--
	}
	return t
}
