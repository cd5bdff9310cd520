package nested

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/urbanwind/nestcfd/geometry"
)

// offGridObstacle is an obstacle type the projector does not know about.
type offGridObstacle struct{}

func (offGridObstacle) Name() string                                 { return "mystery" }
func (offGridObstacle) IsTarget() bool                               { return false }
func (offGridObstacle) IsSolid() bool                                { return true }
func (offGridObstacle) Bounds() (float64, float64, float64, float64) { return 25, 15, 30, 20 }
func (offGridObstacle) Contains(x, y float64) bool                   { return false }
func (offGridObstacle) Translate(dx, dy float64) geometry.Obstacle {
	return offGridObstacle{}
}

func TestProjectObstacles(t *testing.T) {
	region := Region{XMin: 20, XMax: 60, YMin: 10, YMax: 40, Refinement: 4}
	obstacles := []geometry.Obstacle{
		geometry.NewBuilding(30, 20, 40, 30, "inside"),
		geometry.NewBuilding(80, 50, 90, 55, "outside"),
		geometry.NewBuilding(55, 35, 70, 45, "straddling"),
		geometry.NewTree(25, 15, 3, 0.5, 0.8, "oak"),
	}

	out := ProjectObstacles(obstacles, region)
	assert.Len(t, out, 3)

	// inside building lands in the region's local frame
	xMin, yMin, xMax, yMax := out[0].Bounds()
	assert.Equal(t, []float64{10, 10, 20, 20}, []float64{xMin, yMin, xMax, yMax})
	assert.Equal(t, "inside", out[0].Name())

	// straddling obstacles are kept, bounds may extend past the region
	xMin, _, xMax, _ = out[1].Bounds()
	assert.Equal(t, 35.0, xMin)
	assert.Equal(t, 50.0, xMax)

	// porous obstacles keep their attributes through projection
	tree, ok := out[2].(*geometry.Tree)
	assert.True(t, ok)
	assert.Equal(t, 5.0, tree.X)
	assert.Equal(t, 0.5, tree.Porosity())

	// the source list is untouched
	xMin, _, _, _ = obstacles[0].Bounds()
	assert.Equal(t, 30.0, xMin)
}

func TestProjectObstaclesSkipsUnknownTypes(t *testing.T) {
	region := Region{XMin: 20, XMax: 60, YMin: 10, YMax: 40, Refinement: 4}
	out := ProjectObstacles([]geometry.Obstacle{
		offGridObstacle{},
		geometry.NewBuilding(30, 20, 40, 30, "known"),
	}, region)
	assert.Len(t, out, 1)
	assert.Equal(t, "known", out[0].Name())
}

func TestProjectObstaclesIsRepeatable(t *testing.T) {
	region := Region{XMin: 20, XMax: 60, YMin: 10, YMax: 40, Refinement: 4}
	obstacles := []geometry.Obstacle{geometry.NewBuilding(30, 20, 40, 30, "b")}

	first := ProjectObstacles(obstacles, region)
	second := ProjectObstacles(obstacles, region)
	aMin, _, _, _ := first[0].Bounds()
	bMin, _, _, _ := second[0].Bounds()
	assert.Equal(t, aMin, bMin)
}
