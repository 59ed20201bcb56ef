package usecase

import (
	"bytes"
	"encoding/json"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Transform is the canonical placement of an instance. All three vectors are
// always populated.
type Transform struct {
	Position mgl64.Vec3
	Rotation mgl64.Vec3
	Scale    mgl64.Vec3
}

// DefaultPlacement puts new instances just above the platform.
var DefaultPlacement = mgl64.Vec3{0, 0.5, 0}

func DefaultTransform() Transform {
	return Transform{Scale: mgl64.Vec3{1, 1, 1}}
}

// Vector is the object form of a canonical 3-vector.
type Vector struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

func VectorOf(v mgl64.Vec3) Vector {
	return Vector{X: v[0], Y: v[1], Z: v[2]}
}

func (v Vector) Vec3() mgl64.Vec3 {
	return mgl64.Vec3{v.X, v.Y, v.Z}
}

type vectorKind uint8

const (
	vectorAbsent vectorKind = iota
	vectorArray
	vectorObject
	vectorScalar
)

// VectorInput holds one wire encoding of a 3-vector: an ordered array, an
// object keyed by x/y/z, or a single number. Axes that were not supplied
// are nil.
type VectorInput struct {
	kind vectorKind
	axes [3]*float64
}

func VectorArray(vals ...float64) *VectorInput {
	in := &VectorInput{kind: vectorArray}
	for i := 0; i < len(vals) && i < 3; i++ {
		v := vals[i]
		in.axes[i] = &v
	}
	return in
}

// VectorAxes builds an object-form input; nil axes are left unset.
func VectorAxes(x, y, z *float64) *VectorInput {
	return &VectorInput{kind: vectorObject, axes: [3]*float64{x, y, z}}
}

func VectorScalar(v float64) *VectorInput {
	return &VectorInput{kind: vectorScalar, axes: [3]*float64{&v, &v, &v}}
}

// VectorFrom returns the object-form input carrying every axis of v.
func VectorFrom(v mgl64.Vec3) *VectorInput {
	x, y, z := v[0], v[1], v[2]
	return VectorAxes(&x, &y, &z)
}

// UnmarshalJSON never fails: shapes it does not recognise decode as absent
// and non-numeric slots decode as missing axes.
func (v *VectorInput) UnmarshalJSON(b []byte) error {
	*v = parseVector(b)
	return nil
}

func (v VectorInput) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case vectorArray:
		return json.Marshal(v.axes[:])
	case vectorObject:
		out := make(map[string]float64, 3)
		for i, name := range axisNames {
			if v.axes[i] != nil {
				out[name] = *v.axes[i]
			}
		}
		return json.Marshal(out)
	case vectorScalar:
		return json.Marshal(*v.axes[0])
	default:
		return []byte("null"), nil
	}
}

var axisNames = [3]string{"x", "y", "z"}

func parseVector(b []byte) VectorInput {
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return VectorInput{}
	}

	switch b[0] {
	case '[':
		var slots []json.RawMessage
		if err := json.Unmarshal(b, &slots); err != nil {
			return VectorInput{}
		}
		in := VectorInput{kind: vectorArray}
		for i := 0; i < len(slots) && i < 3; i++ {
			in.axes[i] = parseNumber(slots[i])
		}
		return in

	case '{':
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(b, &fields); err != nil {
			return VectorInput{}
		}
		in := VectorInput{kind: vectorObject}
		for i, name := range axisNames {
			if raw, ok := fields[name]; ok {
				in.axes[i] = parseNumber(raw)
			}
		}
		return in

	default:
		n := parseNumber(b)
		if n == nil {
			return VectorInput{}
		}
		return VectorInput{kind: vectorScalar, axes: [3]*float64{n, n, n}}
	}
}

func parseNumber(raw json.RawMessage) *float64 {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil
	}
	return &f
}

// TransformInput is a possibly partial transform as received on the wire or
// read back from storage.
type TransformInput struct {
	Position *VectorInput `json:"position,omitempty"`
	Rotation *VectorInput `json:"rotation,omitempty"`
	Scale    *VectorInput `json:"scale,omitempty"`
}

func InputFromTransform(t Transform) TransformInput {
	return TransformInput{
		Position: VectorFrom(t.Position),
		Rotation: VectorFrom(t.Rotation),
		Scale:    VectorFrom(t.Scale),
	}
}

// Normalize converts any accepted encoding into a canonical Transform.
// Missing axes default to 0, or 1 for scale. A single number is only
// accepted for scale, where it is broadcast to every axis.
func Normalize(in TransformInput) Transform {
	return NormalizeOnto(DefaultTransform(), in)
}

// NormalizeOnto is Normalize with missing axes taken from base instead of
// the defaults.
func NormalizeOnto(base Transform, in TransformInput) Transform {
	return Transform{
		Position: mergeVector(base.Position, in.Position, false),
		Rotation: mergeVector(base.Rotation, in.Rotation, false),
		Scale:    mergeVector(base.Scale, in.Scale, true),
	}
}

func mergeVector(base mgl64.Vec3, in *VectorInput, allowScalar bool) mgl64.Vec3 {
	if in == nil {
		return base
	}
	switch in.kind {
	case vectorArray, vectorObject:
	case vectorScalar:
		if !allowScalar {
			return base
		}
	default:
		return base
	}

	out := base
	for i, a := range in.axes {
		if a == nil || math.IsNaN(*a) || math.IsInf(*a, 0) {
			continue
		}
		out[i] = *a
	}
	return out
}
