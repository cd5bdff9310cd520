/*
Copyright © 2020 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"os"

	"github.com/pkg/profile"
	"github.com/spf13/cobra"

	"github.com/urbanwind/nestcfd/config"
	"github.com/urbanwind/nestcfd/geometry"
	"github.com/urbanwind/nestcfd/nested"
	"github.com/urbanwind/nestcfd/simulation"
	"gonum.org/v1/gonum/mat"
)

// solveCmd represents the solve command
var solveCmd = &cobra.Command{
	Use:   "solve",
	Short: "Run a coarse wind-field solve, optionally followed by a nested refined solve",
	Long: `Reads a YAML parameter file describing the domain, wind conditions and
obstacles, runs the coarse SIMPLE solve, and when a Nested section is
present, a one-way nested solve of the refined sub-region.`,
	Run: func(cmd *cobra.Command, args []string) {
		var (
			err error
		)
		paramFile, err := cmd.Flags().GetString("parameterFile")
		if err != nil {
			panic(err)
		}
		if len(paramFile) == 0 {
			fmt.Printf("error: must supply a parameter file (-I, --parameterFile)\n")
			exampleFile := `
########################################
Title: "Harbor block"
Width: 400
Height: 300
Resolution: 2
WindSpeed: 8
WindDirection: 270
TurbulenceIntensity: 0.12
MaxIterations: 400
Tolerance: 1.e-4
Obstacles:
  - Type: building
    Name: "target"
    Target: true
    XMin: 180
    XMax: 220
    YMin: 130
    YMax: 170
Nested:
  XMin: 150
  XMax: 250
  YMin: 100
  YMax: 200
  Refinement: 4
########################################
`
			fmt.Printf("Example File:%s\n", exampleFile)
			os.Exit(1)
		}
		if prof, _ := cmd.Flags().GetBool("cpuprofile"); prof {
			defer profile.Start(profile.CPUProfile).Stop()
		}
		verbose, _ := cmd.Flags().GetBool("verbose")

		sp := config.DefaultParameters()
		data, err := os.ReadFile(paramFile)
		if err != nil {
			panic(err)
		}
		if err = sp.Parse(data); err != nil {
			panic(err)
		}
		sp.Print()
		RunSolve(sp, verbose)
	},
}

func init() {
	rootCmd.AddCommand(solveCmd)
	solveCmd.Flags().StringP("parameterFile", "I", "", "YAML file with domain, wind and obstacle parameters")
	solveCmd.Flags().BoolP("verbose", "v", true, "print solver progress")
	solveCmd.Flags().Bool("cpuprofile", false, "write a CPU profile")
}

// RunSolve executes the coarse solve described by sp, then the nested solve
// when configured.
func RunSolve(sp *config.SimulationParameters, verbose bool) {
	nx := int(sp.Width / sp.Resolution)
	ny := int(sp.Height / sp.Resolution)
	domain, err := geometry.NewDomain(sp.Width, sp.Height, nx, ny)
	if err != nil {
		fmt.Printf("error: %s\n", err)
		os.Exit(1)
	}

	coarse := simulation.NewSolver(domain,
		simulation.FluidProperties{Density: sp.Density, Viscosity: sp.Viscosity},
		simulation.BoundaryConditions{
			InletVelocity:       sp.WindSpeed,
			InletDirection:      sp.WindDirection,
			TurbulenceIntensity: sp.TurbulenceIntensity,
		},
		simulation.Settings{
			MaxIterations:      sp.MaxIterations,
			Tolerance:          sp.Tolerance,
			PressureIterations: sp.PressureIterations,
			PrintInterval:      sp.PrintInterval,
			UseWallFunctions:   sp.UseWallFunctions,
		})
	for _, spec := range sp.Obstacles {
		o := buildObstacle(spec)
		if o == nil {
			fmt.Printf("Warning: skipping obstacle %q of unknown type %q\n",
				spec.Name, spec.Type)
			continue
		}
		coarse.AddObstacle(o)
	}
	coarse.RebuildMasks()

	coarseResult := coarse.Solve(verbose)
	fmt.Printf("\nCoarse solve: converged=%t after %d iterations, res=%.2e\n",
		coarseResult.Converged, coarseResult.Iterations, coarseResult.Residual)

	if sp.Nested == nil {
		return
	}
	snap := coarse.Snapshot()
	region := nested.Region{
		XMin:       sp.Nested.XMin,
		XMax:       sp.Nested.XMax,
		YMin:       sp.Nested.YMin,
		YMax:       sp.Nested.YMax,
		Refinement: sp.Nested.Refinement,
	}
	ns, err := nested.NewSolver(snap, region, config.DefaultFreestream())
	if err != nil {
		fmt.Printf("error: %s\n", err)
		os.Exit(1)
	}
	if sp.Nested.MaxIterations > 0 {
		ns.Settings.MaxIterations = sp.Nested.MaxIterations
	}
	result := ns.Solve(verbose)
	fmt.Printf("\nNested solve: converged=%t after %d iterations, res=%.2e\n",
		result.Converged, result.Iterations, result.Residual)
	fmt.Printf("Merged wind speed: min=%.2f m/s, max=%.2f m/s\n",
		mat.Min(result.Merged.Vel), mat.Max(result.Merged.Vel))
}

// buildObstacle converts one on-disk obstacle spec into a geometry value,
// returning nil for unknown types.
func buildObstacle(spec config.ObstacleSpec) geometry.Obstacle {
	switch spec.Type {
	case "building":
		b := geometry.NewBuilding(spec.XMin, spec.YMin, spec.XMax, spec.YMax, spec.Name)
		b.Target = spec.Target
		return b
	case "polygon":
		p := geometry.NewPolygonBuilding(spec.Vertices, spec.Name)
		p.Target = spec.Target
		return p
	case "tree":
		return geometry.NewTree(spec.X, spec.Y, spec.Radius,
			spec.Porosity, spec.DragCoefficient, spec.Name)
	case "zone":
		return geometry.NewPorousZone(spec.Vertices, spec.Porosity,
			spec.Height, spec.DragCoefficient, spec.Category, spec.Name)
	default:
		return nil
	}
}
