package vehicle

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/zeusync/trackdrive/internal/core/systems/physics"
)

// Tuning holds every constant of the car model. The zero value is not
// usable; start from DefaultTuning.
type Tuning struct {
	WheelBase       float64 `json:"wheel_base" yaml:"wheel_base"`
	SteeringAngle   float64 `json:"steering_angle" yaml:"steering_angle"`
	EnginePower     float64 `json:"engine_power" yaml:"engine_power"`
	Friction        float64 `json:"friction" yaml:"friction"`
	Drag            float64 `json:"drag" yaml:"drag"`
	Braking         float64 `json:"braking" yaml:"braking"`
	MaxSpeedReverse float64 `json:"max_speed_reverse" yaml:"max_speed_reverse"`

	// Traction drops from slow to mid above SlipSpeed1 and to fast above SlipSpeed2.
	SlipSpeed1   float64 `json:"slip_speed1" yaml:"slip_speed1"`
	SlipSpeed2   float64 `json:"slip_speed2" yaml:"slip_speed2"`
	TractionFast float64 `json:"traction_fast" yaml:"traction_fast"`
	TractionMid  float64 `json:"traction_mid" yaml:"traction_mid"`
	TractionSlow float64 `json:"traction_slow" yaml:"traction_slow"`
	StopSpeed    float64 `json:"stop_speed" yaml:"stop_speed"`

	// Body footprint; length runs along the heading.
	BodyLength float64 `json:"body_length" yaml:"body_length"`
	BodyWidth  float64 `json:"body_width" yaml:"body_width"`

	SensorRange    float64      `json:"sensor_range" yaml:"sensor_range"`
	SensorSentinel physics.Vec2 `json:"sensor_sentinel" yaml:"sensor_sentinel"`
}

func DefaultTuning() Tuning {
	return Tuning{
		WheelBase:       64,
		SteeringAngle:   35,
		EnginePower:     800,
		Friction:        1.0,
		Drag:            0.001,
		Braking:         -450,
		MaxSpeedReverse: 250,
		SlipSpeed1:      150,
		SlipSpeed2:      350,
		TractionFast:    0.1,
		TractionMid:     0.2,
		TractionSlow:    0.4,
		StopSpeed:       5,
		BodyLength:      40,
		BodyWidth:       20,
		SensorRange:     10000,
		SensorSentinel:  physics.V(10000, 10000),
	}
}

// LoadTuning reads YAML from r on top of DefaultTuning. Keys absent from the
// document keep their default; an empty document yields the defaults.
func LoadTuning(r io.Reader) (Tuning, error) {
	t := DefaultTuning()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&t); err != nil && !errors.Is(err, io.EOF) {
		return Tuning{}, fmt.Errorf("%w: %w", ErrInvalidTuning, err)
	}
	if err := t.Validate(); err != nil {
		return Tuning{}, err
	}
	return t, nil
}

func LoadTuningFile(path string) (Tuning, error) {
	f, err := os.Open(path)
	if err != nil {
		return Tuning{}, fmt.Errorf("open tuning: %w", err)
	}
	defer func() { _ = f.Close() }()
	return LoadTuning(f)
}

// Validate checks the constants the model relies on to stay finite.
func (t Tuning) Validate() error {
	switch {
	case t.WheelBase <= 0:
		return fmt.Errorf("%w: wheel_base must be positive", ErrInvalidTuning)
	case t.SteeringAngle < 0 || t.SteeringAngle >= 90:
		return fmt.Errorf("%w: steering_angle must be in [0, 90)", ErrInvalidTuning)
	case t.EnginePower < 0:
		return fmt.Errorf("%w: engine_power must not be negative", ErrInvalidTuning)
	case t.Braking > 0:
		return fmt.Errorf("%w: braking must not be positive", ErrInvalidTuning)
	case t.Friction < 0 || t.Drag < 0:
		return fmt.Errorf("%w: friction and drag must not be negative", ErrInvalidTuning)
	case t.MaxSpeedReverse <= 0:
		return fmt.Errorf("%w: max_speed_reverse must be positive", ErrInvalidTuning)
	case t.SlipSpeed1 > t.SlipSpeed2:
		return fmt.Errorf("%w: slip_speed1 exceeds slip_speed2", ErrInvalidTuning)
	case !fraction(t.TractionFast) || !fraction(t.TractionMid) || !fraction(t.TractionSlow):
		return fmt.Errorf("%w: traction values must be in (0, 1]", ErrInvalidTuning)
	case t.StopSpeed < 0:
		return fmt.Errorf("%w: stop_speed must not be negative", ErrInvalidTuning)
	case t.BodyLength <= 0 || t.BodyWidth <= 0:
		return fmt.Errorf("%w: body dimensions must be positive", ErrInvalidTuning)
	case t.SensorRange <= 0:
		return fmt.Errorf("%w: sensor_range must be positive", ErrInvalidTuning)
	}
	return nil
}

// traction picks the blend fraction for the given speed.
func (t Tuning) traction(speed float64) float64 {
	switch {
	case speed > t.SlipSpeed2:
		return t.TractionFast
	case speed > t.SlipSpeed1:
		return t.TractionMid
	default:
		return t.TractionSlow
	}
}

func fraction(v float64) bool { return v > 0 && v <= 1 }
