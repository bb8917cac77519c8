package nerf

import (
	"fmt"
	"log"

	"github.com/golang/geo/r3"
)

// Result is the outcome of one conversion run
type Result struct {
	Manifest   *Manifest
	UpRotation Rotation3
	Centroid   *r3.Vector // set only when refinement ran
	Summary    TrajectorySummary

	RawIntrinsics        Intrinsics
	IntrinsicsMismatches []string
}

// Convert loads the dataset under root and runs every stage:
// axis convention remap, up alignment to +Z, optional ray-intersection
// recentering, then manifest assembly. Nothing is written to disk.
func Convert(cfg *Config, root string) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	ds, err := LoadDataset(root, cfg.Downscale, cfg.PositionScale)
	if err != nil {
		return nil, fmt.Errorf("loading dataset: %w", err)
	}
	log.Printf("[INFO] loaded %d frames from %s", ds.Frames.Len(), root)

	poses := ConvertAxes(ds.Frames.Poses)
	poses, up := AlignUp(poses, WorldUp)

	res := &Result{
		UpRotation:           up,
		RawIntrinsics:        ds.Intrinsics,
		IntrinsicsMismatches: ds.IntrinsicsMismatches,
	}

	if cfg.Refine.Enabled {
		refined, centroid, err := RefinePoses(poses, cfg.Refine.MinWeight, cfg.Refine.TargetRadius)
		if err != nil {
			return nil, fmt.Errorf("refining centroid: %w", err)
		}
		log.Printf("[INFO] ray centroid = (%.4f, %.4f, %.4f)", centroid.X, centroid.Y, centroid.Z)
		poses = refined
		res.Centroid = &centroid
	}

	frames := ds.Frames
	frames.Poses = poses

	intr := ds.Intrinsics.Downscale(cfg.Downscale)
	log.Printf("[INFO] H = %d, W = %d, fl = %g (downscale = %d)", intr.Height, intr.Width, intr.Focal, cfg.Downscale)

	res.Manifest = BuildManifest(&frames, intr)
	res.Summary = SummarizeTrajectory(poses, 0.05*cfg.Refine.TargetRadius)
	return res, nil
}

// Event builds the notification payload for a written manifest
func (r *Result) Event(dataset, output string) ConversionEvent {
	return ConversionEvent{
		Dataset:    dataset,
		Output:     output,
		Frames:     len(r.Manifest.Frames),
		Width:      r.Manifest.W,
		Height:     r.Manifest.H,
		Focal:      r.Manifest.FlX,
		PathLength: r.Summary.PathLength,
		Refined:    r.Centroid != nil,
	}
}
