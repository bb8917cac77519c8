package nerf

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeTimes(t *testing.T) {
	tests := []struct {
		name string
		in   []float64
		want []float64
	}{
		{"ascending", []float64{0, 5, 10}, []float64{0, 0.5, 1}},
		{"unordered", []float64{4, 2, 8}, []float64{0.5, 0.25, 1}},
		{"all zero", []float64{0, 0, 0}, []float64{0, 0, 0}},
		{"single", []float64{7}, []float64{1}},
		{"empty", nil, []float64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeTimes(tt.in)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("NormalizeTimes() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestBuildManifest(t *testing.T) {
	var set PoseSet
	set.Append("a", NewPose(identityOrientation(), r3.Vector{X: 1}), 2, "rgb/2x/a.png")
	set.Append("b", NewPose(identityOrientation(), r3.Vector{X: 2}), 4, "rgb/2x/b.png")

	intr := Intrinsics{Height: 240, Width: 320, Focal: 250, Cx: 160, Cy: 120}
	m := BuildManifest(&set, intr)

	want := &Manifest{
		W: 320, H: 240, FlX: 250, FlY: 250, Cx: 160, Cy: 120,
		Frames: []Frame{
			{FilePath: "rgb/2x/a.png", Time: 0.5, TransformMatrix: set.Poses[0]},
			{FilePath: "rgb/2x/b.png", Time: 1, TransformMatrix: set.Poses[1]},
		},
	}
	if diff := cmp.Diff(want, m); diff != "" {
		t.Errorf("BuildManifest() mismatch (-want +got):\n%s", diff)
	}

	assert.Equal(t, set.Poses, m.Poses())
	assert.Equal(t, []float64{0.5, 1}, m.Times())
}

func TestMarshalManifest_Keys(t *testing.T) {
	var set PoseSet
	set.Append("x", IdentityPose(), 0, "rgb/1x/x.png")
	data, err := MarshalManifest(BuildManifest(&set, Intrinsics{Height: 1, Width: 2, Focal: 3}))
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	for _, key := range []string{"w", "h", "fl_x", "fl_y", "cx", "cy", "frames"} {
		assert.Contains(t, doc, key)
	}

	frames := doc["frames"].([]any)
	require.Len(t, frames, 1)
	frame := frames[0].(map[string]any)
	assert.Equal(t, "rgb/1x/x.png", frame["file_path"])
	assert.Equal(t, 0.0, frame["time"])

	matrix := frame["transform_matrix"].([]any)
	require.Len(t, matrix, 4)
	for _, row := range matrix {
		assert.Len(t, row, 4)
	}
	assert.True(t, strings.HasPrefix(string(data), "{\n  \""), "expected two-space indentation")
}

func TestWriteManifest_RoundTrip(t *testing.T) {
	var set PoseSet
	set.Append("000001", NewPose(identityOrientation(), r3.Vector{X: 0.25, Y: -1, Z: 3}), 1, "rgb/2x/000001.png")
	m := BuildManifest(&set, Intrinsics{Height: 240, Width: 320, Focal: 250.5, Cx: 160, Cy: 120})

	path := filepath.Join(t.TempDir(), "out", "transforms.json")
	require.NoError(t, WriteManifest(path, m))

	got, err := LoadManifest(path)
	require.NoError(t, err)
	if diff := cmp.Diff(m, got); diff != "" {
		t.Errorf("LoadManifest() mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadManifest_Missing(t *testing.T) {
	_, err := LoadManifest(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}
