package nerf

// ConvertAxes remaps camera-to-world poses from the OpenCV-style capture
// convention into the NeRF world convention. The three steps are order
// sensitive and each works on the frame produced by the previous one:
//  1. negate the up and look columns of the orientation block
//  2. swap rows 0 and 1 (world x/y exchange, translation included)
//  3. negate row 2, flipping the world upside down
//
// The input slice is not modified.
func ConvertAxes(poses []Pose) []Pose {
	out := make([]Pose, len(poses))
	for i, p := range poses {
		out[i] = convertAxes(p)
	}
	return out
}

func convertAxes(p Pose) Pose {
	for row := 0; row < 3; row++ {
		p[row][1] = -p[row][1]
		p[row][2] = -p[row][2]
	}

	p[0], p[1] = p[1], p[0]

	for col := 0; col < 4; col++ {
		p[2][col] = -p[2][col]
	}
	return p
}
