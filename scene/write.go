package scene

import (
	"bufio"
	"fmt"
	"io"
	"strconv"

	"github.com/echoflaresat/raycast/colors"
	"github.com/echoflaresat/raycast/vectors"
)

// Write serializes s in the scene description format so that Read returns
// an equivalent scene. Numbers use the shortest exact representation.
func Write(w io.Writer, s *Scene) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "[\n  {\"type\": \"camera\", \"width\": %s, \"height\": %s}",
		num(s.Camera.Width), num(s.Camera.Height))

	for _, surface := range s.Surfaces {
		bw.WriteString(",\n  ")
		switch v := surface.(type) {
		case *Sphere:
			fmt.Fprintf(bw, "{\"type\": \"sphere\", \"color\": %s, \"position\": %s, \"radius\": %s}",
				colorVec(v.Color), vec(v.Position), num(v.Radius))
		case *Plane:
			fmt.Fprintf(bw, "{\"type\": \"plane\", \"color\": %s, \"position\": %s, \"normal\": %s}",
				colorVec(v.Color), vec(v.Position), vec(v.Normal))
		default:
			return fmt.Errorf("cannot serialize surface of type %T", surface)
		}
	}

	for _, l := range s.Lights {
		bw.WriteString(",\n  ")
		fmt.Fprintf(bw, "{\"type\": \"light\", \"color\": %s, \"position\": %s", colorVec(l.Color), vec(l.Position))
		if !l.Direction.IsZero() {
			fmt.Fprintf(bw, ", \"direction\": %s", vec(l.Direction))
		}
		fmt.Fprintf(bw, ", \"radial-a0\": %s, \"radial-a1\": %s, \"radial-a2\": %s, \"angular-a0\": %s}",
			num(l.RadialA0), num(l.RadialA1), num(l.RadialA2), num(l.AngularA0))
	}

	bw.WriteString("\n]\n")
	return bw.Flush()
}

// Dump writes a human readable listing of the scene, one field per line.
func Dump(w io.Writer, s *Scene) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "Camera:\n\tWidth: %f\n\tHeight: %f\n", s.Camera.Width, s.Camera.Height)
	for _, surface := range s.Surfaces {
		switch v := surface.(type) {
		case *Plane:
			fmt.Fprintf(bw, "Plane:\n")
			dumpColor(bw, v.Color)
			dumpVec(bw, "Position", v.Position)
			dumpVec(bw, "Normal", v.Normal)
		case *Sphere:
			fmt.Fprintf(bw, "Sphere:\n")
			dumpColor(bw, v.Color)
			dumpVec(bw, "Position", v.Position)
			fmt.Fprintf(bw, "\tRadius: %f\n", v.Radius)
		}
	}
	for _, l := range s.Lights {
		fmt.Fprintf(bw, "Light:\n")
		dumpColor(bw, l.Color)
		dumpVec(bw, "Position", l.Position)
		dumpVec(bw, "Direction", l.Direction)
		fmt.Fprintf(bw, "\tRadial: %f %f %f\n\tAngular: %f\n", l.RadialA0, l.RadialA1, l.RadialA2, l.AngularA0)
	}
	return bw.Flush()
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func vec(v vectors.Vec3) string {
	return "[" + num(v.X) + ", " + num(v.Y) + ", " + num(v.Z) + "]"
}

func colorVec(c colors.Color) string {
	return vec(vectors.New(c.R, c.G, c.B))
}

func dumpColor(w io.Writer, c colors.Color) {
	fmt.Fprintf(w, "\tColor.r: %f\n\tColor.g: %f\n\tColor.b: %f\n", c.R, c.G, c.B)
}

func dumpVec(w io.Writer, name string, v vectors.Vec3) {
	fmt.Fprintf(w, "\t%s.x: %f\n\t%s.y: %f\n\t%s.z: %f\n", name, v.X, name, v.Y, name, v.Z)
}
