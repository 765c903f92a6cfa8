package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLocationGetCoords(t *testing.T) {
	loc := Location{
		Label: "Office",
		Lat:   51.5074,
		Lng:   -0.1278,
	}

	coords := loc.GetCoords()

	assert.Equal(t, 51.5074, coords.Lat)
	assert.Equal(t, -0.1278, coords.Lng)
}

func TestRoundCoordinate(t *testing.T) {
	assert.Equal(t, 51.50741, RoundCoordinate(51.507412345))
	assert.Equal(t, -0.12784, RoundCoordinate(-0.127836789))
	assert.Equal(t, 0.0, RoundCoordinate(0.0))
}

func TestSamePoint(t *testing.T) {
	a := Coordinates{Lat: 51.507412, Lng: -0.127836}
	b := Coordinates{Lat: 51.507414, Lng: -0.127838}
	c := Coordinates{Lat: 51.51, Lng: -0.127836}

	assert.True(t, SamePoint(a, b))
	assert.False(t, SamePoint(a, c))
}

func TestTourRequestN(t *testing.T) {
	req := TourRequest{
		Start: Coordinates{Lat: 51.5, Lng: -0.12},
		Stops: []Location{
			{Label: "A", Lat: 51.52, Lng: -0.08},
			{Label: "B", Lat: 51.47, Lng: -0.15},
		},
	}

	assert.Equal(t, 2, req.N())
	assert.Equal(t, 0, (&TourRequest{}).N())
}
