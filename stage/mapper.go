package stage

// MapToStage converts one tracker sample from device coordinates to
// stage coordinates. The device's z axis maps to the stage's y axis;
// both are normalized against StageWidth. Rotation about the device's
// y axis passes through unchanged as the stage angle in degrees, the
// device frame being assumed aligned with the stage frame.
//
// Pure function, safe to call concurrently. It does not guard against
// degenerate bounds; callers validate with Bounds.Valid first.
func MapToStage(posX, posZ, rotY float64, b Bounds) (x, y, angle float64) {
	x = (posX - b.MinX) / (b.MaxX - b.MinX) * StageWidth
	y = (posZ - b.MinZ) / (b.MaxZ - b.MinZ) * StageWidth
	return x, y, rotY
}
