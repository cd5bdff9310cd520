package config

import (
	"fmt"
	"sort"

	"github.com/ghodss/yaml"
)

// Parameters obtained from the YAML input file.
type SimulationParameters struct {
	Title               string          `yaml:"Title"`
	Width               float64         `yaml:"Width"`
	Height              float64         `yaml:"Height"`
	Resolution          float64         `yaml:"Resolution"` // coarse cell size [m]
	WindSpeed           float64         `yaml:"WindSpeed"`
	WindDirection       float64         `yaml:"WindDirection"` // meteorological degrees, 270 = westerly
	TurbulenceIntensity float64         `yaml:"TurbulenceIntensity"`
	Density             float64         `yaml:"Density"`
	Viscosity           float64         `yaml:"Viscosity"`
	MaxIterations       int             `yaml:"MaxIterations"`
	Tolerance           float64         `yaml:"Tolerance"`
	PressureIterations  int             `yaml:"PressureIterations"`
	PrintInterval       int             `yaml:"PrintInterval"`
	UseWallFunctions    bool            `yaml:"UseWallFunctions"`
	Obstacles           []ObstacleSpec  `yaml:"Obstacles"`
	Nested              *NestedSettings `yaml:"Nested"`
}

// NestedSettings selects the refined sub-region for a nested solve.
type NestedSettings struct {
	XMin          float64 `yaml:"XMin"`
	XMax          float64 `yaml:"XMax"`
	YMin          float64 `yaml:"YMin"`
	YMax          float64 `yaml:"YMax"`
	Refinement    int     `yaml:"Refinement"`
	MaxIterations int     `yaml:"MaxIterations"`
}

// ObstacleSpec is the on-disk form of one obstacle. Type is one of
// "building", "polygon", "tree", "zone".
type ObstacleSpec struct {
	Type            string       `yaml:"Type"`
	Name            string       `yaml:"Name"`
	Target          bool         `yaml:"Target"`
	XMin            float64      `yaml:"XMin"`
	XMax            float64      `yaml:"XMax"`
	YMin            float64      `yaml:"YMin"`
	YMax            float64      `yaml:"YMax"`
	Vertices        [][2]float64 `yaml:"Vertices"`
	X               float64      `yaml:"X"`
	Y               float64      `yaml:"Y"`
	Radius          float64      `yaml:"Radius"`
	Porosity        float64      `yaml:"Porosity"`
	Height          float64      `yaml:"Height"`
	DragCoefficient float64      `yaml:"DragCoefficient"`
	Category        string       `yaml:"Category"`
}

func DefaultParameters() *SimulationParameters {
	return &SimulationParameters{
		Title:               "untitled",
		Width:               400,
		Height:              300,
		Resolution:          2,
		WindSpeed:           5,
		WindDirection:       270,
		TurbulenceIntensity: 0.12,
		Density:             1.225,
		Viscosity:           1.81e-5,
		MaxIterations:       400,
		Tolerance:           1e-4,
		PressureIterations:  60,
		PrintInterval:       50,
		UseWallFunctions:    true,
	}
}

func (sp *SimulationParameters) Parse(data []byte) error {
	if err := yaml.Unmarshal(data, sp); err != nil {
		return fmt.Errorf("unable to parse simulation parameters: %w", err)
	}
	return nil
}

func (sp *SimulationParameters) Print() {
	fmt.Printf("\"%s\"\t\t= Title\n", sp.Title)
	fmt.Printf("%8.1f x %.1f m\t= Domain\n", sp.Width, sp.Height)
	fmt.Printf("%8.2f m\t\t= Resolution\n", sp.Resolution)
	fmt.Printf("%8.2f m/s @ %.0f deg\t= Wind\n", sp.WindSpeed, sp.WindDirection)
	fmt.Printf("%8.1f %%\t\t= Turbulence Intensity\n", sp.TurbulenceIntensity*100)
	fmt.Printf("[%d]\t\t\t= Max Iterations\n", sp.MaxIterations)
	fmt.Printf("%8.1e\t\t= Tolerance\n", sp.Tolerance)
	fmt.Printf("[%d]\t\t\t= Obstacles\n", len(sp.Obstacles))
	if sp.Nested != nil {
		fmt.Printf("Nested: x=[%.0f, %.0f], y=[%.0f, %.0f], refinement %dx\n",
			sp.Nested.XMin, sp.Nested.XMax, sp.Nested.YMin, sp.Nested.YMax,
			sp.Nested.Refinement)
	}
	types := map[string]int{}
	for _, o := range sp.Obstacles {
		types[o.Type]++
	}
	keys := make([]string, 0, len(types))
	for k := range types {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Printf("Obstacles[%s] = %d\n", k, types[k])
	}
}
