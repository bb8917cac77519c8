package nerf

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path"
	"path/filepath"

	"github.com/golang/geo/r3"
)

var (
	// ErrMissingRecord is returned when a file or metadata entry referenced by
	// the dataset index does not exist.
	ErrMissingRecord = errors.New("missing record")

	// ErrNoFrames is returned when the dataset index lists no frame IDs.
	ErrNoFrames = errors.New("dataset has no frames")
)

// Dataset is everything read from a dataset root before any transform
type Dataset struct {
	Root       string
	Scene      SceneParams
	Frames     PoseSet
	Intrinsics Intrinsics // raw, before downscale

	// IntrinsicsMismatches lists frame IDs whose camera intrinsics differ
	// from the first frame's. The last-read values are still used.
	IntrinsicsMismatches []string
}

// LoadDataset reads dataset.json, scene.json, metadata.json and one camera
// file per frame. Raw positions are mapped to
// (position - center) * scale * positionScale.
func LoadDataset(root string, downscale int, positionScale float64) (*Dataset, error) {
	var index DatasetIndex
	if err := readJSON(filepath.Join(root, "dataset.json"), &index); err != nil {
		return nil, err
	}
	if len(index.IDs) == 0 {
		return nil, ErrNoFrames
	}
	if index.Count != len(index.IDs) {
		log.Printf("[WARN] dataset.json count=%d but %d ids listed, using ids", index.Count, len(index.IDs))
	}

	ds := &Dataset{Root: root}
	if err := readJSON(filepath.Join(root, "scene.json"), &ds.Scene); err != nil {
		return nil, err
	}

	var meta map[string]FrameMetadata
	if err := readJSON(filepath.Join(root, "metadata.json"), &meta); err != nil {
		return nil, err
	}

	center := r3.Vector{X: ds.Scene.Center[0], Y: ds.Scene.Center[1], Z: ds.Scene.Center[2]}
	factor := ds.Scene.Scale * positionScale

	var first Intrinsics
	for i, id := range index.IDs {
		m, ok := meta[id]
		if !ok {
			return nil, fmt.Errorf("metadata for frame %q: %w", id, ErrMissingRecord)
		}

		cam, err := LoadCamera(filepath.Join(root, "camera", id+".json"))
		if err != nil {
			return nil, fmt.Errorf("frame %q: %w", id, err)
		}

		pos := r3.Vector{X: cam.Position[0], Y: cam.Position[1], Z: cam.Position[2]}
		pose := NewPose(cam.Orientation, pos.Sub(center).Mul(factor))

		intr := cam.Intrinsics()
		if i == 0 {
			first = intr
		} else if intr != first {
			ds.IntrinsicsMismatches = append(ds.IntrinsicsMismatches, id)
		}
		ds.Intrinsics = intr

		ds.Frames.Append(id, pose, m.TimeID, ImagePath(id, downscale))
	}

	if n := len(ds.IntrinsicsMismatches); n > 0 {
		log.Printf("[WARN] %d frame(s) have intrinsics differing from frame %q, using last-read values",
			n, index.IDs[0])
	}

	return ds, nil
}

// LoadCamera reads a single per-frame camera file
func LoadCamera(file string) (*CameraRecord, error) {
	var cam CameraRecord
	if err := readJSON(file, &cam); err != nil {
		return nil, err
	}
	return &cam, nil
}

// ImagePath returns the manifest-relative image path for a frame
func ImagePath(id string, downscale int) string {
	return path.Join("rgb", fmt.Sprintf("%dx", downscale), id+".png")
}

func readJSON(file string, v any) error {
	data, err := os.ReadFile(file)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%s: %w", file, ErrMissingRecord)
		}
		return fmt.Errorf("reading %s: %w", file, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parsing %s: %w", file, err)
	}
	return nil
}
