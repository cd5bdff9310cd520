package geometry

import "math"

// Obstacle is anything that blocks or retards the flow. Implementations are
// value-like: Translate returns a shifted copy and never mutates the
// original, so one obstacle list can be shared between solves at different
// resolutions.
type Obstacle interface {
	Name() string
	IsTarget() bool
	// IsSolid reports whether the obstacle is impermeable (a building) as
	// opposed to porous (vegetation, water, roads).
	IsSolid() bool
	// Bounds returns the axis-aligned bounding extent.
	Bounds() (xMin, yMin, xMax, yMax float64)
	Contains(x, y float64) bool
	Translate(dx, dy float64) Obstacle
}

// Porous is implemented by permeable obstacles that exert a drag force on
// the flow instead of blocking it.
type Porous interface {
	Obstacle
	Porosity() float64
	DragCoefficient() float64
	CanopyHeight() float64
	Category() string
}

// Building is a solid rectangular obstacle.
type Building struct {
	XMin, YMin, XMax, YMax float64
	Label                  string
	Target                 bool
}

func NewBuilding(xMin, yMin, xMax, yMax float64, name string) *Building {
	return &Building{XMin: xMin, YMin: yMin, XMax: xMax, YMax: yMax, Label: name}
}

func (b *Building) Name() string   { return b.Label }
func (b *Building) IsTarget() bool { return b.Target }
func (b *Building) IsSolid() bool  { return true }

func (b *Building) Bounds() (float64, float64, float64, float64) {
	return b.XMin, b.YMin, b.XMax, b.YMax
}

func (b *Building) Contains(x, y float64) bool {
	return x >= b.XMin && x <= b.XMax && y >= b.YMin && y <= b.YMax
}

func (b *Building) Translate(dx, dy float64) Obstacle {
	c := *b
	c.XMin += dx
	c.XMax += dx
	c.YMin += dy
	c.YMax += dy
	return &c
}

// PolygonBuilding is a solid obstacle with an arbitrary simple-polygon
// footprint, as produced from map data.
type PolygonBuilding struct {
	Vertices [][2]float64
	Label    string
	Target   bool
}

func NewPolygonBuilding(vertices [][2]float64, name string) *PolygonBuilding {
	return &PolygonBuilding{Vertices: vertices, Label: name}
}

func (p *PolygonBuilding) Name() string   { return p.Label }
func (p *PolygonBuilding) IsTarget() bool { return p.Target }
func (p *PolygonBuilding) IsSolid() bool  { return true }

func (p *PolygonBuilding) Bounds() (float64, float64, float64, float64) {
	return polygonBounds(p.Vertices)
}

func (p *PolygonBuilding) Contains(x, y float64) bool {
	return pointInPolygon(p.Vertices, x, y)
}

func (p *PolygonBuilding) Translate(dx, dy float64) Obstacle {
	return &PolygonBuilding{
		Vertices: translateVertices(p.Vertices, dx, dy),
		Label:    p.Label,
		Target:   p.Target,
	}
}

// Tree is a porous circular obstacle.
type Tree struct {
	X, Y, Radius float64
	Poro, Drag   float64
	Height       float64
	Label        string
}

func NewTree(x, y, radius, porosity, drag float64, name string) *Tree {
	return &Tree{X: x, Y: y, Radius: radius, Poro: porosity, Drag: drag,
		Height: 10, Label: name}
}

func (t *Tree) Name() string   { return t.Label }
func (t *Tree) IsTarget() bool { return false }
func (t *Tree) IsSolid() bool  { return false }

func (t *Tree) Bounds() (float64, float64, float64, float64) {
	return t.X - t.Radius, t.Y - t.Radius, t.X + t.Radius, t.Y + t.Radius
}

func (t *Tree) Contains(x, y float64) bool {
	return math.Hypot(x-t.X, y-t.Y) <= t.Radius
}

func (t *Tree) Translate(dx, dy float64) Obstacle {
	c := *t
	c.X += dx
	c.Y += dy
	return &c
}

func (t *Tree) Porosity() float64        { return t.Poro }
func (t *Tree) DragCoefficient() float64 { return t.Drag }
func (t *Tree) CanopyHeight() float64    { return t.Height }
func (t *Tree) Category() string         { return "tree" }

// PorousZone is a permeable polygon area: tree stands, farmland, water or
// roads. Kind carries the land-use category from the map source.
type PorousZone struct {
	Vertices   [][2]float64
	Poro, Drag float64
	Height     float64
	Kind       string
	Label      string
}

func NewPorousZone(vertices [][2]float64, porosity, height, drag float64, kind, name string) *PorousZone {
	return &PorousZone{Vertices: vertices, Poro: porosity, Height: height,
		Drag: drag, Kind: kind, Label: name}
}

func (z *PorousZone) Name() string   { return z.Label }
func (z *PorousZone) IsTarget() bool { return false }
func (z *PorousZone) IsSolid() bool  { return false }

func (z *PorousZone) Bounds() (float64, float64, float64, float64) {
	return polygonBounds(z.Vertices)
}

func (z *PorousZone) Contains(x, y float64) bool {
	return pointInPolygon(z.Vertices, x, y)
}

func (z *PorousZone) Translate(dx, dy float64) Obstacle {
	return &PorousZone{
		Vertices: translateVertices(z.Vertices, dx, dy),
		Poro:     z.Poro,
		Drag:     z.Drag,
		Height:   z.Height,
		Kind:     z.Kind,
		Label:    z.Label,
	}
}

func (z *PorousZone) Porosity() float64        { return z.Poro }
func (z *PorousZone) DragCoefficient() float64 { return z.Drag }
func (z *PorousZone) CanopyHeight() float64    { return z.Height }
func (z *PorousZone) Category() string         { return z.Kind }

func polygonBounds(vs [][2]float64) (xMin, yMin, xMax, yMax float64) {
	xMin, yMin = math.Inf(1), math.Inf(1)
	xMax, yMax = math.Inf(-1), math.Inf(-1)
	for _, v := range vs {
		xMin = math.Min(xMin, v[0])
		xMax = math.Max(xMax, v[0])
		yMin = math.Min(yMin, v[1])
		yMax = math.Max(yMax, v[1])
	}
	return
}

func translateVertices(vs [][2]float64, dx, dy float64) [][2]float64 {
	out := make([][2]float64, len(vs))
	for i, v := range vs {
		out[i] = [2]float64{v[0] + dx, v[1] + dy}
	}
	return out
}

// pointInPolygon uses the even-odd ray casting rule.
func pointInPolygon(vs [][2]float64, x, y float64) bool {
	if len(vs) < 3 {
		return false
	}
	inside := false
	j := len(vs) - 1
	for i := 0; i < len(vs); i++ {
		xi, yi := vs[i][0], vs[i][1]
		xj, yj := vs[j][0], vs[j][1]
		if (yi > y) != (yj > y) &&
			x < (xj-xi)*(y-yi)/(yj-yi)+xi {
			inside = !inside
		}
		j = i
	}
	return inside
}

// Overlaps reports whether the obstacle's bounding extent intersects the
// rectangle [xMin,xMax]x[yMin,yMax].
func Overlaps(o Obstacle, xMin, yMin, xMax, yMax float64) bool {
	oxMin, oyMin, oxMax, oyMax := o.Bounds()
	return oxMax >= xMin && oxMin <= xMax && oyMax >= yMin && oyMin <= yMax
}
