package nerf

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/golang/geo/r3"
)

// ---------------------------------------------------------------------------
// dataset fixtures
// ---------------------------------------------------------------------------

type fixtureFrame struct {
	id     string
	time   float64
	camera CameraRecord
}

type fixture struct {
	scene  SceneParams
	frames []fixtureFrame
	count  int // written as dataset.json count; -1 uses len(frames)

	skipCamera   string // frame ID whose camera file is not written
	skipMetadata string // frame ID left out of metadata.json
}

func identityOrientation() [3][3]float64 {
	return [3][3]float64{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
}

func testCamera(orientation [3][3]float64, position [3]float64) CameraRecord {
	return CameraRecord{
		Orientation:    orientation,
		Position:       position,
		FocalLength:    500,
		PrincipalPoint: [2]float64{320, 240},
		ImageSize:      [2]int{480, 640},
	}
}

// twoFrameFixture is two identity-oriented cameras at (1,2,3) and (4,5,6)
// with time ids 0 and 10, scene scale 1 and center 0
func twoFrameFixture() fixture {
	return fixture{
		scene: SceneParams{Scale: 1, Center: [3]float64{0, 0, 0}},
		frames: []fixtureFrame{
			{id: "000001", time: 0, camera: testCamera(identityOrientation(), [3]float64{1, 2, 3})},
			{id: "000002", time: 10, camera: testCamera(identityOrientation(), [3]float64{4, 5, 6})},
		},
		count: -1,
	}
}

func writeJSONFile(t *testing.T, path string, v any) {
	t.Helper()
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		t.Fatalf("marshal %s: %v", path, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func writeDataset(t *testing.T, f fixture) string {
	t.Helper()
	root := t.TempDir()

	ids := make([]string, len(f.frames))
	meta := make(map[string]FrameMetadata)
	for i, fr := range f.frames {
		ids[i] = fr.id
		if fr.id != f.skipMetadata {
			meta[fr.id] = FrameMetadata{TimeID: fr.time, WarpID: i}
		}
		if fr.id != f.skipCamera {
			writeJSONFile(t, filepath.Join(root, "camera", fr.id+".json"), fr.camera)
		}
	}

	count := f.count
	if count < 0 {
		count = len(ids)
	}
	writeJSONFile(t, filepath.Join(root, "dataset.json"), DatasetIndex{Count: count, IDs: ids})
	writeJSONFile(t, filepath.Join(root, "scene.json"), f.scene)
	writeJSONFile(t, filepath.Join(root, "metadata.json"), meta)
	return root
}

// lookAtOrientation returns an orientation whose columns are right, up and
// forward, with forward pointing from pos to target
func lookAtOrientation(pos, target r3.Vector) [3][3]float64 {
	forward := target.Sub(pos).Normalize()
	up := r3.Vector{Z: 1}
	right := up.Cross(forward).Normalize()
	up = forward.Cross(right)
	cols := [3]r3.Vector{right, up, forward}

	var o [3][3]float64
	for j, c := range cols {
		o[0][j], o[1][j], o[2][j] = c.X, c.Y, c.Z
	}
	return o
}

// ---------------------------------------------------------------------------
// numeric helpers
// ---------------------------------------------------------------------------

const tolerance = 1e-9

func vecNear(a, b r3.Vector, tol float64) bool {
	return a.Sub(b).Norm() <= tol
}

func posesNear(a, b Pose, tol float64) bool {
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			if math.Abs(a[i][j]-b[i][j]) > tol {
				return false
			}
		}
	}
	return true
}

// assertRotation fails unless r is orthonormal with determinant +1
func assertRotation(t *testing.T, r Rotation3) {
	t.Helper()
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			var dot float64
			for k := 0; k < 3; k++ {
				dot += r[k][i] * r[k][j]
			}
			want := 0.0
			if i == j {
				want = 1
			}
			if math.Abs(dot-want) > 1e-9 {
				t.Fatalf("columns %d,%d dot = %g, want %g (R=%v)", i, j, dot, want, r)
			}
		}
	}
	if det := r.Det(); math.Abs(det-1) > 1e-9 {
		t.Fatalf("det = %g, want 1", det)
	}
}
