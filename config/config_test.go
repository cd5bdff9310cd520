package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseParameters(t *testing.T) {
	var data = `
Title: campus block
Width: 200
Height: 150
Resolution: 1.0
WindSpeed: 6.5
WindDirection: 225
TurbulenceIntensity: 0.15
MaxIterations: 250
Obstacles:
  - Type: building
    Name: labA
    Target: true
    XMin: 80
    YMin: 60
    XMax: 100
    YMax: 90
  - Type: tree
    X: 120
    Y: 70
    Radius: 4
    Porosity: 0.6
    DragCoefficient: 0.5
Nested:
  XMin: 60
  XMax: 140
  YMin: 40
  YMax: 110
  Refinement: 4
`
	sp := DefaultParameters()
	err := sp.Parse([]byte(data))
	assert.NoError(t, err)
	assert.Equal(t, "campus block", sp.Title)
	assert.Equal(t, 200.0, sp.Width)
	assert.Equal(t, 225.0, sp.WindDirection)
	assert.Equal(t, 250, sp.MaxIterations)
	// unset keys keep their defaults
	assert.Equal(t, 1.225, sp.Density)
	assert.Equal(t, 60, sp.PressureIterations)

	assert.Len(t, sp.Obstacles, 2)
	assert.Equal(t, "building", sp.Obstacles[0].Type)
	assert.True(t, sp.Obstacles[0].Target)
	assert.Equal(t, 4.0, sp.Obstacles[1].Radius)

	if assert.NotNil(t, sp.Nested) {
		assert.Equal(t, 4, sp.Nested.Refinement)
		assert.Equal(t, 140.0, sp.Nested.XMax)
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	sp := DefaultParameters()
	err := sp.Parse([]byte("Width: [not, a, number]"))
	assert.Error(t, err)
}

func TestDefaultFreestream(t *testing.T) {
	f := DefaultFreestream()
	assert.Equal(t, 1e-6, f.KThreshold)
	assert.Equal(t, 1.0, f.OmegaThreshold)
	assert.Equal(t, 0.01, f.KFallback)
	assert.Equal(t, 100.0, f.OmegaFallback)
	assert.Equal(t, 1e-6, f.KFloor)
	assert.Equal(t, 0.1, f.OmegaFloor)
}
