// Package scene reads the JSON-like scene description into an immutable
// in-memory scene: one camera, an ordered list of surfaces and an ordered
// list of lights.
package scene

import (
	"github.com/echoflaresat/raycast/colors"
	"github.com/echoflaresat/raycast/geom"
	"github.com/echoflaresat/raycast/vectors"
)

// Camera sits at the origin looking down +Z. Width and Height size the view
// plane at distance 1.
type Camera struct {
	Width  float64
	Height float64
}

// Surface is a renderable primitive. Implementations are *Plane and *Sphere.
type Surface interface {
	geom.Intersecter

	// NormalAt returns the unit surface normal at point p, which is assumed
	// to lie on the surface.
	NormalAt(p vectors.Vec3) vectors.Vec3

	// SurfaceColor returns the stored diffuse color.
	SurfaceColor() colors.Color
}

// Plane is an infinite plane through Position with unit Normal.
type Plane struct {
	Color    colors.Color
	Position vectors.Vec3
	Normal   vectors.Vec3
}

func (p *Plane) Intersect(ro, rd vectors.Vec3) float64 {
	return geom.IntersectPlane(ro, rd, p.Position, p.Normal)
}

func (p *Plane) NormalAt(vectors.Vec3) vectors.Vec3 { return p.Normal }

func (p *Plane) SurfaceColor() colors.Color { return p.Color }

// Sphere is centered at Position. A zero radius is legal.
type Sphere struct {
	Color    colors.Color
	Position vectors.Vec3
	Radius   float64
}

func (s *Sphere) Intersect(ro, rd vectors.Vec3) float64 {
	return geom.IntersectSphere(ro, rd, s.Position, s.Radius)
}

// NormalAt points from the center through p.
func (s *Sphere) NormalAt(p vectors.Vec3) vectors.Vec3 {
	return p.Sub(s.Position).Normalize()
}

func (s *Sphere) SurfaceColor() colors.Color { return s.Color }

// Light is a point light. Direction is either zero or unit length; it only
// matters for angular attenuation.
type Light struct {
	Color     colors.Color
	Position  vectors.Vec3
	Direction vectors.Vec3
	RadialA0  float64
	RadialA1  float64
	RadialA2  float64
	AngularA0 float64
}

// Scene is built once by Read and must not be modified afterwards; it is
// shared between render workers without locking.
type Scene struct {
	Camera   Camera
	Surfaces []Surface
	Lights   []Light
}
