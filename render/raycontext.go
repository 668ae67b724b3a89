package render

import (
	"math"

	"github.com/echoflaresat/raycast/geom"
	"github.com/echoflaresat/raycast/scene"
	"github.com/echoflaresat/raycast/vectors"
)

// RayContext carries per-ray state needed by the shader. A context is
// reused for every pixel a worker computes, so it must not be shared
// between goroutines.
type RayContext struct {
	Scene         *scene.Scene
	Origin        vectors.Vec3
	RayDirection  vectors.Vec3
	Index         int // nearest surface, -1 on a miss
	T             float64
	HitPoint      vectors.Vec3
	SurfaceNormal vectors.Vec3
}

func NewRayContext(s *scene.Scene) *RayContext {
	return &RayContext{
		Scene: s,
		Index: -1,
		T:     geom.Miss,
	}
}

// SetRayDirection casts a ray from the origin along rayDirection and records
// the nearest hit. Hit point and normal are only meaningful when Hit is true.
func (c *RayContext) SetRayDirection(rayDirection vectors.Vec3) {
	c.RayDirection = rayDirection
	c.Index, c.T = geom.Nearest(c.Scene.Surfaces, c.Origin, c.RayDirection, geom.NoSkip, math.Inf(1))
	if c.Index < 0 {
		c.HitPoint = vectors.Zero()
		c.SurfaceNormal = vectors.Zero()
		return
	}
	c.HitPoint = vectors.At(c.Origin, c.RayDirection, c.T)
	c.SurfaceNormal = c.Scene.Surfaces[c.Index].NormalAt(c.HitPoint)
}

func (c *RayContext) Hit() bool {
	return c.Index >= 0
}

// Surface returns the nearest surface, or nil on a miss.
func (c *RayContext) Surface() scene.Surface {
	if c.Index < 0 {
		return nil
	}
	return c.Scene.Surfaces[c.Index]
}

// Occluded reports whether any surface other than the one being shaded lies
// strictly between the hit point and a point dist away along toLight.
func (c *RayContext) Occluded(toLight vectors.Vec3, dist float64) bool {
	idx, _ := geom.Nearest(c.Scene.Surfaces, c.HitPoint, toLight, c.Index, dist)
	return idx >= 0
}
