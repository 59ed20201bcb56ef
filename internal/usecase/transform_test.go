package usecase

import (
	"encoding/json"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeTransform(t *testing.T, body string) TransformInput {
	t.Helper()
	var in TransformInput
	require.NoError(t, json.Unmarshal([]byte(body), &in))
	return in
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		body string
		want Transform
	}{
		{
			name: "empty",
			body: `{}`,
			want: DefaultTransform(),
		},
		{
			name: "array form",
			body: `{"position":[1,2,3],"rotation":[0,1.5,0],"scale":[2,2,2]}`,
			want: Transform{
				Position: mgl64.Vec3{1, 2, 3},
				Rotation: mgl64.Vec3{0, 1.5, 0},
				Scale:    mgl64.Vec3{2, 2, 2},
			},
		},
		{
			name: "object form",
			body: `{"position":{"x":1,"y":2,"z":3},"scale":{"x":0.5,"y":0.5,"z":0.5}}`,
			want: Transform{
				Position: mgl64.Vec3{1, 2, 3},
				Scale:    mgl64.Vec3{0.5, 0.5, 0.5},
			},
		},
		{
			name: "uniform scale",
			body: `{"scale":2}`,
			want: Transform{Scale: mgl64.Vec3{2, 2, 2}},
		},
		{
			name: "scalar position falls back to default",
			body: `{"position":4,"rotation":1}`,
			want: DefaultTransform(),
		},
		{
			name: "short array defaults missing axes",
			body: `{"position":[1],"scale":[3]}`,
			want: Transform{
				Position: mgl64.Vec3{1, 0, 0},
				Scale:    mgl64.Vec3{3, 1, 1},
			},
		},
		{
			name: "partial object",
			body: `{"position":{"y":2},"scale":{"z":4}}`,
			want: Transform{
				Position: mgl64.Vec3{0, 2, 0},
				Scale:    mgl64.Vec3{1, 1, 4},
			},
		},
		{
			name: "non numeric slots",
			body: `{"position":["a",null,2],"scale":{"x":"big","y":true}}`,
			want: Transform{
				Position: mgl64.Vec3{0, 0, 2},
				Scale:    mgl64.Vec3{1, 1, 1},
			},
		},
		{
			name: "unknown shapes",
			body: `{"position":"up","rotation":true,"scale":null}`,
			want: DefaultTransform(),
		},
		{
			name: "explicit zero is kept",
			body: `{"scale":[0,1,1]}`,
			want: Transform{Scale: mgl64.Vec3{0, 1, 1}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(decodeTransform(t, tt.body))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	samples := []Transform{
		DefaultTransform(),
		{Position: mgl64.Vec3{1, -2, 3.25}, Rotation: mgl64.Vec3{0, 3.14, 0}, Scale: mgl64.Vec3{0.5, 2, 1}},
		{Scale: mgl64.Vec3{0, 0, 0}},
	}
	for _, tr := range samples {
		once := Normalize(InputFromTransform(tr))
		assert.Equal(t, tr, once)
		assert.Equal(t, once, Normalize(InputFromTransform(once)))
	}
}

func TestNormalizeOnto(t *testing.T) {
	base := Transform{
		Position: mgl64.Vec3{1, 2, 3},
		Rotation: mgl64.Vec3{0, 1, 0},
		Scale:    mgl64.Vec3{2, 2, 2},
	}

	got := NormalizeOnto(base, decodeTransform(t, `{"position":{"y":5}}`))
	assert.Equal(t, mgl64.Vec3{1, 5, 3}, got.Position)
	assert.Equal(t, base.Rotation, got.Rotation)
	assert.Equal(t, base.Scale, got.Scale)

	got = NormalizeOnto(base, decodeTransform(t, `{"position":7,"scale":3}`))
	assert.Equal(t, base.Position, got.Position)
	assert.Equal(t, mgl64.Vec3{3, 3, 3}, got.Scale)

	in := decodeTransform(t, `{"rotation":[null,2]}`)
	assert.Equal(t, Normalize(in), NormalizeOnto(DefaultTransform(), in))
}

func TestVectorInputNeverFails(t *testing.T) {
	for _, body := range []string{`[`, `{"x":`, `"str"`, `false`, `[[1]]`, `{}`} {
		var v VectorInput
		assert.NoError(t, v.UnmarshalJSON([]byte(body)), body)
	}

	var in TransformInput
	err := json.Unmarshal([]byte(`{"position":{"x":{"nested":1}},"rotation":[true,"x",{}]}`), &in)
	require.NoError(t, err)
	assert.Equal(t, DefaultTransform(), Normalize(in))
}

func TestVectorInputMarshal(t *testing.T) {
	b, err := json.Marshal(VectorFrom(mgl64.Vec3{1, 2, 3}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"x":1,"y":2,"z":3}`, string(b))

	b, err = json.Marshal(VectorArray(1, 2))
	require.NoError(t, err)
	assert.JSONEq(t, `[1,2,null]`, string(b))

	b, err = json.Marshal(VectorScalar(2))
	require.NoError(t, err)
	assert.Equal(t, `2`, string(b))
}
