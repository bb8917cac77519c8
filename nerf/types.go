package nerf

import (
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"
)

// Pose is a row-major 4x4 camera-to-world transform.
// The upper-left 3x3 block is orientation, the last column holds the
// world-space position and the bottom row is always [0 0 0 1].
// It marshals to JSON as a nested 4x4 array.
type Pose [4][4]float64

// IdentityPose returns a pose at the origin with no rotation
func IdentityPose() Pose {
	return Pose{
		{1, 0, 0, 0},
		{0, 1, 0, 0},
		{0, 0, 1, 0},
		{0, 0, 0, 1},
	}
}

// NewPose builds a pose from a row-major 3x3 orientation and a position
func NewPose(orientation [3][3]float64, position r3.Vector) Pose {
	p := IdentityPose()
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			p[i][j] = orientation[i][j]
		}
	}
	p.SetPosition(position)
	return p
}

// Position returns the translation column
func (p Pose) Position() r3.Vector {
	return r3.Vector{X: p[0][3], Y: p[1][3], Z: p[2][3]}
}

// SetPosition overwrites the translation column
func (p *Pose) SetPosition(v r3.Vector) {
	p[0][3] = v.X
	p[1][3] = v.Y
	p[2][3] = v.Z
}

// Column returns the first three entries of column i.
// Column 0 is the camera's right axis, 1 its up axis and 2 its back axis.
func (p Pose) Column(i int) r3.Vector {
	return r3.Vector{X: p[0][i], Y: p[1][i], Z: p[2][i]}
}

// Rotation returns the 3x3 orientation block
func (p Pose) Rotation() Rotation3 {
	var r Rotation3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			r[i][j] = p[i][j]
		}
	}
	return r
}

// Dense copies the pose into a gonum matrix
func (p Pose) Dense() *mat.Dense {
	data := make([]float64, 0, 16)
	for i := 0; i < 4; i++ {
		data = append(data, p[i][:]...)
	}
	return mat.NewDense(4, 4, data)
}

// PoseFromDense copies a 4x4 gonum matrix into a pose
func PoseFromDense(m mat.Matrix) Pose {
	var p Pose
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			p[i][j] = m.At(i, j)
		}
	}
	return p
}

// Mul returns p * q
func (p Pose) Mul(q Pose) Pose {
	var out mat.Dense
	out.Mul(p.Dense(), q.Dense())
	return PoseFromDense(&out)
}

// Rotation3 is a row-major 3x3 rotation matrix
type Rotation3 [3][3]float64

// IdentityRotation returns the 3x3 identity
func IdentityRotation() Rotation3 {
	return Rotation3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
}

// Apply returns r * v
func (r Rotation3) Apply(v r3.Vector) r3.Vector {
	return r3.Vector{
		X: r[0][0]*v.X + r[0][1]*v.Y + r[0][2]*v.Z,
		Y: r[1][0]*v.X + r[1][1]*v.Y + r[1][2]*v.Z,
		Z: r[2][0]*v.X + r[2][1]*v.Y + r[2][2]*v.Z,
	}
}

// Mul returns r * q
func (r Rotation3) Mul(q Rotation3) Rotation3 {
	var out Rotation3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			for k := 0; k < 3; k++ {
				out[i][j] += r[i][k] * q[k][j]
			}
		}
	}
	return out
}

// Homogeneous embeds the rotation in a 4x4 pose with zero translation
func (r Rotation3) Homogeneous() Pose {
	p := IdentityPose()
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			p[i][j] = r[i][j]
		}
	}
	return p
}

// Det returns the determinant, 1 for a proper rotation
func (r Rotation3) Det() float64 {
	return mat.Det(mat.NewDense(3, 3, []float64{
		r[0][0], r[0][1], r[0][2],
		r[1][0], r[1][1], r[1][2],
		r[2][0], r[2][1], r[2][2],
	}))
}

// PoseSet holds index-aligned per-frame data in dataset order
type PoseSet struct {
	IDs        []string
	Poses      []Pose
	Times      []float64
	FramePaths []string
}

// Len returns the number of frames
func (s *PoseSet) Len() int {
	return len(s.Poses)
}

// Append adds one frame to the end of the set
func (s *PoseSet) Append(id string, pose Pose, time float64, framePath string) {
	s.IDs = append(s.IDs, id)
	s.Poses = append(s.Poses, pose)
	s.Times = append(s.Times, time)
	s.FramePaths = append(s.FramePaths, framePath)
}

// Intrinsics is the pinhole model shared by every frame
type Intrinsics struct {
	Height int     `json:"h"`
	Width  int     `json:"w"`
	Focal  float64 `json:"fl"`
	Cx     float64 `json:"cx"`
	Cy     float64 `json:"cy"`
}

// Downscale returns the intrinsics for images shrunk by an integer factor.
// Image size uses integer division, focal length and principal point do not.
func (in Intrinsics) Downscale(factor int) Intrinsics {
	if factor <= 1 {
		return in
	}
	f := float64(factor)
	return Intrinsics{
		Height: in.Height / factor,
		Width:  in.Width / factor,
		Focal:  in.Focal / f,
		Cx:     in.Cx / f,
		Cy:     in.Cy / f,
	}
}

// DatasetIndex is dataset.json
type DatasetIndex struct {
	Count int      `json:"count"`
	IDs   []string `json:"ids"`
}

// SceneParams is scene.json
type SceneParams struct {
	Scale  float64    `json:"scale"`
	Center [3]float64 `json:"center"`
	Near   float64    `json:"near,omitempty"`
	Far    float64    `json:"far,omitempty"`
}

// FrameMetadata is one entry of metadata.json
type FrameMetadata struct {
	TimeID       float64 `json:"time_id"`
	WarpID       int     `json:"warp_id,omitempty"`
	AppearanceID int     `json:"appearance_id,omitempty"`
	CameraID     int     `json:"camera_id,omitempty"`
}

// CameraRecord is camera/<id>.json
type CameraRecord struct {
	Orientation    [3][3]float64 `json:"orientation"`
	Position       [3]float64    `json:"position"`
	FocalLength    float64       `json:"focal_length"`
	PrincipalPoint [2]float64    `json:"principal_point"`
	ImageSize      [2]int        `json:"image_size"` // read as [H, W]
	Skew           float64       `json:"skew,omitempty"`
	PixelAspect    float64       `json:"pixel_aspect_ratio,omitempty"`
}

// Intrinsics extracts the shared pinhole parameters from a camera record
func (c CameraRecord) Intrinsics() Intrinsics {
	return Intrinsics{
		Height: c.ImageSize[0],
		Width:  c.ImageSize[1],
		Focal:  c.FocalLength,
		Cx:     c.PrincipalPoint[0],
		Cy:     c.PrincipalPoint[1],
	}
}

// Frame is one record of the output manifest
type Frame struct {
	FilePath        string  `json:"file_path"`
	Time            float64 `json:"time"`
	TransformMatrix Pose    `json:"transform_matrix"`
}

// Manifest is the transforms.json document
type Manifest struct {
	W      int     `json:"w"`
	H      int     `json:"h"`
	FlX    float64 `json:"fl_x"`
	FlY    float64 `json:"fl_y"`
	Cx     float64 `json:"cx"`
	Cy     float64 `json:"cy"`
	Frames []Frame `json:"frames"`
}

// Config is the optional YAML run configuration
type Config struct {
	Downscale     int          `yaml:"downscale" json:"downscale"`
	PositionScale float64      `yaml:"positionScale" json:"positionScale"`
	Output        string       `yaml:"output,omitempty" json:"output,omitempty"`
	Refine        RefineConfig `yaml:"refine" json:"refine"`
	Render        RenderConfig `yaml:"render" json:"render"`
	Notify        NotifyConfig `yaml:"notify" json:"notify"`
}

// RefineConfig controls the ray-intersection recentering pass
type RefineConfig struct {
	Enabled      bool    `yaml:"enabled" json:"enabled"`
	MinWeight    float64 `yaml:"minWeight" json:"minWeight"`       // pairs at or below this weight are skipped
	TargetRadius float64 `yaml:"targetRadius" json:"targetRadius"` // mean camera distance after rescale
}

// RenderConfig controls the diagnostic outputs
type RenderConfig struct {
	SVG         string  `yaml:"svg,omitempty" json:"svg,omitempty"`
	PNG         string  `yaml:"png,omitempty" json:"png,omitempty"`
	Plot        string  `yaml:"plot,omitempty" json:"plot,omitempty"`
	View        string  `yaml:"view,omitempty" json:"view,omitempty"` // "top", "front" or "side"
	FrustumSize float64 `yaml:"frustumSize,omitempty" json:"frustumSize,omitempty"`
	DPI         float64 `yaml:"dpi,omitempty" json:"dpi,omitempty"`
}

// NotifyConfig holds the optional MQTT completion event settings
type NotifyConfig struct {
	Broker        string `yaml:"broker,omitempty" json:"broker,omitempty"`
	PublishPrefix string `yaml:"publishPrefix,omitempty" json:"publishPrefix,omitempty"`
	ClientID      string `yaml:"clientId,omitempty" json:"clientId,omitempty"`
	Username      string `yaml:"username,omitempty" json:"username,omitempty"`
	Password      string `yaml:"password,omitempty" json:"password,omitempty"`
}
