// Package geom holds the ray/primitive intersection kernel. All functions
// are pure and expect an already normalized ray direction.
package geom

import (
	"math"

	"github.com/echoflaresat/raycast/vectors"
)

// Miss is returned by the intersection functions when the ray has no
// forward hit. Any negative value means the same thing.
const Miss = -1.0

// IntersectPlane returns the ray parameter t at which the ray Ro + t*Rd
// meets the plane through position with unit normal, or Miss when the ray
// is parallel to the plane or the plane lies behind the origin.
func IntersectPlane(ro, rd, position, normal vectors.Vec3) float64 {
	d := -normal.Dot(position)
	vd := normal.Dot(rd)
	if vd == 0 {
		return Miss
	}
	t := -(normal.Dot(ro) + d) / vd
	if t < 0 {
		return Miss
	}
	return t
}

// IntersectSphere solves A t² + B t + C = 0 for the ray Ro + t*Rd and the
// sphere at center. The smaller positive root wins; when the origin is inside
// the sphere the far root is returned. Returns Miss if neither root is positive.
func IntersectSphere(ro, rd, center vectors.Vec3, radius float64) float64 {
	oc := ro.Sub(center)
	a := rd.Dot(rd)
	b := 2.0 * rd.Dot(oc)
	c := oc.Dot(oc) - radius*radius

	discriminant := b*b - 4.0*a*c
	if discriminant < 0 {
		return Miss
	}

	sqrtDisc := math.Sqrt(discriminant)
	t0 := (-b - sqrtDisc) / (2.0 * a)
	if t0 > 0 {
		return t0
	}
	t1 := (-b + sqrtDisc) / (2.0 * a)
	if t1 > 0 {
		return t1
	}
	return Miss
}

// Intersecter is anything a ray can be tested against.
type Intersecter interface {
	Intersect(ro, rd vectors.Vec3) float64
}

// NoSkip disables self-exclusion in Nearest.
const NoSkip = -1

// Nearest scans items in order and returns the index and parameter of the
// closest strictly positive hit below tMax. The item at index skip is not
// tested. Ties keep the earlier item since only a strict improvement
// replaces the running minimum. Returns (-1, Miss) when nothing is hit.
func Nearest[T Intersecter](items []T, ro, rd vectors.Vec3, skip int, tMax float64) (int, float64) {
	best := -1
	bestT := tMax
	for i, item := range items {
		if i == skip {
			continue
		}
		t := item.Intersect(ro, rd)
		if t > 0 && t < bestT {
			best = i
			bestT = t
		}
	}
	if best < 0 {
		return -1, Miss
	}
	return best, bestT
}
