package render

import (
	"fmt"
	"math"
	"strings"

	"github.com/echoflaresat/raycast/colors"
	"github.com/echoflaresat/raycast/scene"
	"github.com/echoflaresat/raycast/vectors"
)

// Shader turns the nearest hit recorded in ctx into a color. It is only
// called when ctx.Hit() is true; misses are black.
type Shader interface {
	Shade(ctx *RayContext) colors.Color
}

// Flat returns the stored color of the nearest surface and ignores lights.
type Flat struct{}

func (Flat) Shade(ctx *RayContext) colors.Color {
	return ctx.Surface().SurfaceColor()
}

// Diffuse sums a Lambert term for every light that is not shadowed by
// another surface. There is no ambient term, so a scene without lights
// renders black. Angular attenuation is only applied when Spotlights is set.
type Diffuse struct {
	Spotlights bool
}

func (d Diffuse) Shade(ctx *RayContext) colors.Color {
	base := ctx.Surface().SurfaceColor()
	sum := colors.Black()

	for _, light := range ctx.Scene.Lights {
		toLight := light.Position.Sub(ctx.HitPoint)
		dist := toLight.Norm()
		if dist == 0 {
			continue
		}
		toLight = toLight.Scale(1.0 / dist)

		lambert := Clip(ctx.SurfaceNormal.Dot(toLight), 0.0, 1.0)
		if lambert == 0 {
			continue
		}
		if ctx.Occluded(toLight, dist) {
			continue
		}

		intensity := lambert * RadialAttenuation(light, dist)
		if d.Spotlights {
			intensity *= AngularAttenuation(light, toLight)
		}
		sum = sum.Add(base.Mul(light.Color).Scale(intensity))
	}

	return sum.Clamp01()
}

// RadialAttenuation returns 1 / (a2 d² + a1 d + a0). A non-positive
// denominator, including the all-zero default, means no attenuation.
func RadialAttenuation(l scene.Light, d float64) float64 {
	denom := l.RadialA2*d*d + l.RadialA1*d + l.RadialA0
	if denom <= 0 {
		return 1.0
	}
	return 1.0 / denom
}

// AngularAttenuation treats a light with a direction as a spotlight:
// max(0, -toLight·direction) raised to angular-a0. Lights without a
// direction shine equally everywhere.
func AngularAttenuation(l scene.Light, toLight vectors.Vec3) float64 {
	if l.Direction.IsZero() {
		return 1.0
	}
	cos := -toLight.Dot(l.Direction)
	if cos <= 0 {
		return 0.0
	}
	return math.Pow(cos, l.AngularA0)
}

// Clip clamps x into the inclusive range [min, max].
func Clip(x, min, max float64) float64 {
	if x < min {
		return min
	}
	if x > max {
		return max
	}
	return x
}

// ParseShader maps a shading mode name to its Shader.
func ParseShader(name string, spotlights bool) (Shader, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "flat", "":
		return Flat{}, nil
	case "diffuse":
		return Diffuse{Spotlights: spotlights}, nil
	default:
		return nil, fmt.Errorf("unknown shading mode %q (want flat or diffuse)", name)
	}
}
