package nested

import (
	"fmt"

	"github.com/urbanwind/nestcfd/geometry"
)

// ProjectObstacles selects the obstacles whose bounding extent overlaps the
// region and returns translated copies in the fine grid's frame, where the
// region's (XMin, YMin) corner is the origin. The input list is never
// mutated; each returned obstacle is a fresh value.
//
// Obstacles of an unrecognized concrete type are skipped with a warning
// rather than aborting the solve.
func ProjectObstacles(obstacles []geometry.Obstacle, region Region) []geometry.Obstacle {
	var out []geometry.Obstacle
	for _, o := range obstacles {
		if !geometry.Overlaps(o, region.XMin, region.YMin, region.XMax, region.YMax) {
			continue
		}
		switch o.(type) {
		case *geometry.Building, *geometry.PolygonBuilding,
			*geometry.Tree, *geometry.PorousZone:
			out = append(out, o.Translate(-region.XMin, -region.YMin))
		default:
			fmt.Printf("Warning: skipping obstacle %q of unknown type %T\n",
				o.Name(), o)
		}
	}
	return out
}
