package nerf

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// NormalizeTimes divides every time by the set-wide maximum so the result
// lies in [0, 1]. If the maximum is not positive the times are returned as
// zeros rather than NaN.
func NormalizeTimes(times []float64) []float64 {
	out := make([]float64, len(times))
	var maxTime float64
	for _, t := range times {
		if t > maxTime {
			maxTime = t
		}
	}
	if maxTime <= 0 {
		return out
	}
	for i, t := range times {
		out[i] = t / maxTime
	}
	return out
}

// BuildManifest zips frame paths, normalized times and poses in set order
// and attaches the shared intrinsics. fl_x and fl_y are both the single
// focal length.
func BuildManifest(set *PoseSet, intr Intrinsics) *Manifest {
	times := NormalizeTimes(set.Times)
	frames := make([]Frame, set.Len())
	for i := range frames {
		frames[i] = Frame{
			FilePath:        set.FramePaths[i],
			Time:            times[i],
			TransformMatrix: set.Poses[i],
		}
	}

	return &Manifest{
		W:      intr.Width,
		H:      intr.Height,
		FlX:    intr.Focal,
		FlY:    intr.Focal,
		Cx:     intr.Cx,
		Cy:     intr.Cy,
		Frames: frames,
	}
}

// Poses returns the transform of every frame in order
func (m *Manifest) Poses() []Pose {
	poses := make([]Pose, len(m.Frames))
	for i, f := range m.Frames {
		poses[i] = f.TransformMatrix
	}
	return poses
}

// Times returns the normalized time of every frame in order
func (m *Manifest) Times() []float64 {
	times := make([]float64, len(m.Frames))
	for i, f := range m.Frames {
		times[i] = f.Time
	}
	return times
}

// MarshalManifest encodes the manifest as indented JSON
func MarshalManifest(m *Manifest) ([]byte, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling manifest: %w", err)
	}
	return data, nil
}

// WriteManifest writes the manifest to path, creating parent directories
func WriteManifest(path string, m *Manifest) error {
	data, err := MarshalManifest(m)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}
	return nil
}

// LoadManifest reads a transforms.json file
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}
	return &m, nil
}
