package kscreen

import "github.com/flokli/monprof/outputs"

var rotations = [...]outputs.Rotation{
	0: outputs.RotationNormal,
	1: outputs.RotationRight,
	2: outputs.RotationInverted,
	3: outputs.RotationLeft,
}

// rotationFromWire decodes the service's rotation number. Unknown numbers
// are treated as normal.
func rotationFromWire(i int64) outputs.Rotation {
	if i < 0 || i >= int64(len(rotations)) {
		return outputs.RotationNormal
	}
	return rotations[i]
}

func rotationToWire(r outputs.Rotation) int32 {
	for i, candidate := range rotations {
		if candidate == r {
			return int32(i)
		}
	}
	return 0
}
