package scene

import (
	"fmt"
	"io"
	"strings"

	"github.com/echoflaresat/raycast/colors"
	"github.com/echoflaresat/raycast/vectors"
)

// DefaultMaxObjects bounds the surface list and the light list.
const DefaultMaxObjects = 128

// ColorPolicy selects how color channels outside [0,1] are treated.
type ColorPolicy int

const (
	// ColorStrict rejects any channel outside [0,1] at load time.
	ColorStrict ColorPolicy = iota
	// ColorClamp accepts any value; channels are clamped when written out.
	ColorClamp
)

func (p ColorPolicy) String() string {
	switch p {
	case ColorStrict:
		return "strict"
	case ColorClamp:
		return "clamp"
	default:
		return fmt.Sprintf("ColorPolicy(%d)", int(p))
	}
}

// ParseColorPolicy accepts "strict" or "clamp".
func ParseColorPolicy(raw string) (ColorPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "strict", "":
		return ColorStrict, nil
	case "clamp":
		return ColorClamp, nil
	default:
		return ColorStrict, fmt.Errorf("unknown color policy %q", raw)
	}
}

// Options tune validation. Zero limits fall back to DefaultMaxObjects.
type Options struct {
	ColorPolicy ColorPolicy
	MaxObjects  int
	MaxLights   int
}

func DefaultOptions() Options {
	return Options{
		ColorPolicy: ColorStrict,
		MaxObjects:  DefaultMaxObjects,
		MaxLights:   DefaultMaxObjects,
	}
}

func (o Options) withDefaults() Options {
	if o.MaxObjects <= 0 {
		o.MaxObjects = DefaultMaxObjects
	}
	if o.MaxLights <= 0 {
		o.MaxLights = DefaultMaxObjects
	}
	return o
}

type entryType uint8

const (
	typeCamera entryType = iota
	typeSphere
	typePlane
	typeLight
)

var entryTypes = map[string]entryType{
	"camera": typeCamera,
	"sphere": typeSphere,
	"plane":  typePlane,
	"light":  typeLight,
}

func (t entryType) String() string {
	switch t {
	case typeCamera:
		return "camera"
	case typeSphere:
		return "sphere"
	case typePlane:
		return "plane"
	default:
		return "light"
	}
}

type typeSet uint8

func typesOf(ts ...entryType) typeSet {
	var s typeSet
	for _, t := range ts {
		s |= 1 << t
	}
	return s
}

func (s typeSet) has(t entryType) bool { return s&(1<<t) != 0 }

// entry accumulates the fields of one object between '{' and '}'.
type entry struct {
	typ       entryType
	width     float64
	height    float64
	widthSet  bool
	heightSet bool
	color     colors.Color
	position  vectors.Vec3
	normal    vectors.Vec3
	normalSet bool
	direction vectors.Vec3
	radius    float64
	radial    [3]float64
	angular   float64
}

type field struct {
	types  typeSet
	vector bool
	apply  func(p *parser, e *entry, n float64, v vectors.Vec3) error
}

var (
	surfaceOrLight = typesOf(typePlane, typeSphere, typeLight)
	lightOnly      = typesOf(typeLight)
)

func setRadial(i int) func(*parser, *entry, float64, vectors.Vec3) error {
	return func(_ *parser, e *entry, n float64, _ vectors.Vec3) error {
		e.radial[i] = n
		return nil
	}
}

func setPosition(_ *parser, e *entry, _ float64, v vectors.Vec3) error {
	e.position = v
	return nil
}

var fields = map[string]field{
	"width": {types: typesOf(typeCamera), apply: func(p *parser, e *entry, n float64, _ vectors.Vec3) error {
		if n <= 0 {
			return p.lex.errorf(KindRange, ErrOutOfRange, "camera width must be greater than 0")
		}
		e.width, e.widthSet = n, true
		return nil
	}},
	"height": {types: typesOf(typeCamera), apply: func(p *parser, e *entry, n float64, _ vectors.Vec3) error {
		if n <= 0 {
			return p.lex.errorf(KindRange, ErrOutOfRange, "camera height must be greater than 0")
		}
		e.height, e.heightSet = n, true
		return nil
	}},
	"radius": {types: typesOf(typeSphere), apply: func(p *parser, e *entry, n float64, _ vectors.Vec3) error {
		if n < 0 {
			return p.lex.errorf(KindRange, ErrOutOfRange, "radius cannot be less than 0")
		}
		e.radius = n
		return nil
	}},
	"color": {types: surfaceOrLight, vector: true, apply: func(p *parser, e *entry, _ float64, v vectors.Vec3) error {
		c := colors.New(v.X, v.Y, v.Z)
		if p.opts.ColorPolicy == ColorStrict && !c.InUnitRange() {
			return p.lex.errorf(KindRange, ErrOutOfRange, "color values must be between 0 and 1")
		}
		e.color = c
		return nil
	}},
	"position": {types: surfaceOrLight, vector: true, apply: setPosition},
	"location": {types: surfaceOrLight, vector: true, apply: setPosition},
	"normal": {types: typesOf(typePlane), vector: true, apply: func(p *parser, e *entry, _ float64, v vectors.Vec3) error {
		if v.IsZero() {
			return p.lex.errorf(KindRange, ErrOutOfRange, "normal must be non-zero")
		}
		e.normal, e.normalSet = v.Normalize(), true
		return nil
	}},
	"direction": {types: lightOnly, vector: true, apply: func(p *parser, e *entry, _ float64, v vectors.Vec3) error {
		if v.IsZero() {
			return p.lex.errorf(KindRange, ErrOutOfRange, "direction must be non-zero")
		}
		e.direction = v.Normalize()
		return nil
	}},
	"radial-a0": {types: lightOnly, apply: setRadial(0)},
	"radial-a1": {types: lightOnly, apply: setRadial(1)},
	"radial-a2": {types: lightOnly, apply: setRadial(2)},
	"angular-a0": {types: lightOnly, apply: func(_ *parser, e *entry, n float64, _ vectors.Vec3) error {
		e.angular = n
		return nil
	}},
}

type parser struct {
	lex       *lexer
	opts      Options
	scene     *Scene
	hasCamera bool
}

// Read parses a scene description. Either the whole scene is returned or an
// *Error describing the first problem; no partial scene is ever returned.
func Read(r io.Reader, opts Options) (*Scene, error) {
	p := &parser{
		lex:   newLexer(r),
		opts:  opts.withDefaults(),
		scene: &Scene{},
	}
	if err := p.parse(); err != nil {
		return nil, err
	}
	return p.scene, nil
}

func (p *parser) parse() error {
	l := p.lex
	if err := l.skipWhitespace(); err != nil {
		return err
	}
	if err := l.expect('['); err != nil {
		return err
	}
	if err := l.skipWhitespace(); err != nil {
		return err
	}

	for first := true; ; first = false {
		c, err := l.next()
		if err != nil {
			return err
		}
		switch {
		case c == ']' && first:
			return l.errorf(KindStructural, ErrEmptyScene, "")
		case c == ']':
			return l.errorf(KindStructural, ErrTrailingComma, "")
		case c != '{':
			return l.errorf(KindLexical, ErrUnexpectedChar, "expected '{', found %q", c)
		}

		if err := p.parseEntry(); err != nil {
			return err
		}

		if err := l.skipWhitespace(); err != nil {
			return err
		}
		c, err = l.next()
		if err != nil {
			return err
		}
		switch c {
		case ',':
			if err := l.skipWhitespace(); err != nil {
				return err
			}
		case ']':
			if !p.hasCamera {
				return l.errorf(KindStructural, ErrMissingCamera, "")
			}
			return nil
		default:
			return l.errorf(KindLexical, ErrUnexpectedChar, "expected ',' or ']', found %q", c)
		}
	}
}

// parseEntry parses one object after its opening brace and adds it to the scene.
func (p *parser) parseEntry() error {
	l := p.lex
	if err := l.skipWhitespace(); err != nil {
		return err
	}
	if c, err := l.peek(); err != nil {
		return err
	} else if c == '}' {
		return l.errorf(KindSchema, ErrMissingType, "")
	}
	key, err := l.nextString()
	if err != nil {
		return err
	}
	if key != "type" {
		return l.errorf(KindSchema, ErrMissingType, "found %q", key)
	}
	if err := l.skipWhitespace(); err != nil {
		return err
	}
	if err := l.expect(':'); err != nil {
		return err
	}
	if err := l.skipWhitespace(); err != nil {
		return err
	}
	name, err := l.nextString()
	if err != nil {
		return err
	}
	typ, ok := entryTypes[name]
	if !ok {
		return l.errorf(KindSchema, ErrUnknownType, "%q", name)
	}
	if err := p.checkCapacity(typ); err != nil {
		return err
	}
	if err := l.skipWhitespace(); err != nil {
		return err
	}

	e := &entry{typ: typ}
	if err := p.parseFields(e); err != nil {
		return err
	}
	return p.add(e)
}

func (p *parser) checkCapacity(typ entryType) error {
	switch typ {
	case typeCamera:
		if p.hasCamera {
			return p.lex.errorf(KindStructural, ErrDuplicateCamera, "")
		}
	case typeSphere, typePlane:
		if len(p.scene.Surfaces) >= p.opts.MaxObjects {
			return p.lex.errorf(KindStructural, ErrTooManyObjects, "limit is %d", p.opts.MaxObjects)
		}
	case typeLight:
		if len(p.scene.Lights) >= p.opts.MaxLights {
			return p.lex.errorf(KindStructural, ErrTooManyLights, "limit is %d", p.opts.MaxLights)
		}
	}
	return nil
}

func (p *parser) parseFields(e *entry) error {
	l := p.lex
	for {
		c, err := l.next()
		if err != nil {
			return err
		}
		switch c {
		case '}':
			return nil
		case ',':
		default:
			return l.errorf(KindLexical, ErrUnexpectedChar, "expected ',' or '}', found %q", c)
		}

		if err := l.skipWhitespace(); err != nil {
			return err
		}
		key, err := l.nextString()
		if err != nil {
			return err
		}
		f, ok := fields[key]
		if !ok {
			return l.errorf(KindSchema, ErrUnknownField, "%q", key)
		}
		if !f.types.has(e.typ) {
			return l.errorf(KindSchema, ErrFieldNotAllowed, "%q is not a field of %s", key, e.typ)
		}
		if err := l.skipWhitespace(); err != nil {
			return err
		}
		if err := l.expect(':'); err != nil {
			return err
		}
		if err := l.skipWhitespace(); err != nil {
			return err
		}

		var (
			n float64
			v vectors.Vec3
		)
		if f.vector {
			v, err = l.nextVector()
		} else {
			n, err = l.nextNumber()
		}
		if err != nil {
			return err
		}
		if err := f.apply(p, e, n, v); err != nil {
			return err
		}
		if err := l.skipWhitespace(); err != nil {
			return err
		}
	}
}

func (p *parser) add(e *entry) error {
	s := p.scene
	switch e.typ {
	case typeCamera:
		if !e.widthSet || !e.heightSet {
			return p.lex.errorf(KindStructural, ErrIncompleteCamera, "")
		}
		s.Camera = Camera{Width: e.width, Height: e.height}
		p.hasCamera = true
	case typeSphere:
		s.Surfaces = append(s.Surfaces, &Sphere{
			Color:    e.color,
			Position: e.position,
			Radius:   e.radius,
		})
	case typePlane:
		if !e.normalSet {
			return p.lex.errorf(KindSchema, ErrMissingNormal, "")
		}
		s.Surfaces = append(s.Surfaces, &Plane{
			Color:    e.color,
			Position: e.position,
			Normal:   e.normal,
		})
	case typeLight:
		s.Lights = append(s.Lights, Light{
			Color:     e.color,
			Position:  e.position,
			Direction: e.direction,
			RadialA0:  e.radial[0],
			RadialA1:  e.radial[1],
			RadialA2:  e.radial[2],
			AngularA0: e.angular,
		})
	}
	return nil
}
