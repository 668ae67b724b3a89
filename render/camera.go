package render

import (
	"github.com/echoflaresat/raycast/scene"
	"github.com/echoflaresat/raycast/vectors"
)

// ViewRay returns the normalized primary ray direction through the center
// of pixel (x, y) of a width×height image. The camera sits at the origin
// looking down +Z and its view plane at z = 1 spans cam.Width by cam.Height.
// Scan row y = 0 is the bottom edge of the view plane.
func ViewRay(cam scene.Camera, x, y, width, height int) vectors.Vec3 {
	pixWidth := cam.Width / float64(width)
	pixHeight := cam.Height / float64(height)

	dir := vectors.Vec3{
		X: -cam.Width/2.0 + pixWidth*(float64(x)+0.5),
		Y: -cam.Height/2.0 + pixHeight*(float64(y)+0.5),
		Z: 1.0,
	}
	return dir.Normalize()
}
