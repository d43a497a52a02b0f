// Package keyframes provides timed joint motions for the NAO body.
//
// A sequence follows the NAO (names, times, keys) layout: for joint
// Names[i], Times[i][k] is the timestamp in seconds of the k-th sample and
// Keys[i][k] its target angle in radians.
//
// Sequences are played back by the motion loop with linear interpolation.
package keyframes

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"time"
)

// Key is one angle sample. It decodes from either a bare number or the NAO
// tuple [angle, [interp, dTime, dAngle], [interp, dTime, dAngle]]; Bezier
// handles are ignored.
type Key struct {
	Angle float64
}

// UnmarshalJSON accepts a number or a NAO key tuple.
func (k *Key) UnmarshalJSON(data []byte) error {
	var angle float64
	if err := json.Unmarshal(data, &angle); err == nil {
		k.Angle = angle
		return nil
	}

	var tuple []json.RawMessage
	if err := json.Unmarshal(data, &tuple); err != nil {
		return fmt.Errorf("%w: key must be a number or a tuple", ErrInvalidKeyframes)
	}
	if len(tuple) == 0 {
		return fmt.Errorf("%w: empty key tuple", ErrInvalidKeyframes)
	}
	if err := json.Unmarshal(tuple[0], &angle); err != nil {
		return fmt.Errorf("%w: key angle must be a number", ErrInvalidKeyframes)
	}
	k.Angle = angle
	return nil
}

// MarshalJSON encodes the key as a bare angle.
func (k Key) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.Angle)
}

// Keyframes is a motion sequence. Treat as immutable once submitted.
type Keyframes struct {
	Names []string    `json:"names"`
	Times [][]float64 `json:"times"`
	Keys  [][]Key     `json:"keys"`
}

// MaxDuration returns the largest timestamp across all joints, in seconds.
// A sequence without timestamps has zero duration.
func (kf Keyframes) MaxDuration() float64 {
	var max float64
	for _, times := range kf.Times {
		for _, t := range times {
			if t > max {
				max = t
			}
		}
	}
	return max
}

// Duration returns MaxDuration as a time.Duration, saturating at the
// largest representable duration.
func (kf Keyframes) Duration() time.Duration {
	ns := kf.MaxDuration() * float64(time.Second)
	if ns >= math.MaxInt64 {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(ns)
}

// Validate checks the sequence is structurally consistent.
func (kf Keyframes) Validate() error {
	if len(kf.Names) != len(kf.Times) || len(kf.Names) != len(kf.Keys) {
		return fmt.Errorf("%w: %d names, %d time lists, %d key lists",
			ErrInvalidKeyframes, len(kf.Names), len(kf.Times), len(kf.Keys))
	}
	for i, name := range kf.Names {
		if len(kf.Times[i]) != len(kf.Keys[i]) {
			return fmt.Errorf("%w: joint %s has %d times and %d keys",
				ErrInvalidKeyframes, name, len(kf.Times[i]), len(kf.Keys[i]))
		}
		if !sort.Float64sAreSorted(kf.Times[i]) {
			return fmt.Errorf("%w: joint %s times are not ascending", ErrInvalidKeyframes, name)
		}
	}
	return nil
}

// Evaluate returns every joint's interpolated angle at t seconds.
// Before the first sample the first key holds, after the last the last key
// holds. Joints with inconsistent samples are skipped.
func (kf Keyframes) Evaluate(t float64) map[string]float64 {
	out := make(map[string]float64, len(kf.Names))
	for i, name := range kf.Names {
		if i >= len(kf.Times) || i >= len(kf.Keys) {
			break
		}
		times, keys := kf.Times[i], kf.Keys[i]
		if len(times) == 0 || len(times) != len(keys) {
			continue
		}
		out[name] = evaluateJoint(times, keys, t)
	}
	return out
}

// evaluateJoint interpolates one joint's samples at t.
func evaluateJoint(times []float64, keys []Key, t float64) float64 {
	idx := sort.Search(len(times), func(i int) bool {
		return times[i] > t
	})

	if idx == 0 {
		return keys[0].Angle
	}
	if idx >= len(times) {
		return keys[len(keys)-1].Angle
	}

	tPrev, tNext := times[idx-1], times[idx]
	var alpha float64
	if tNext != tPrev {
		alpha = (t - tPrev) / (tNext - tPrev)
	}
	return lerp(keys[idx-1].Angle, keys[idx].Angle, alpha)
}

func lerp(a, b, t float64) float64 {
	return a + t*(b-a)
}
