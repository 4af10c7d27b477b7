package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var (
	saoPaulo     = Coordinate{Lat: -23.5505, Lon: -46.6333}
	rioDeJaneiro = Coordinate{Lat: -22.9068, Lon: -43.1729}
)

func TestDistanceIdenticalCoordinatesIsZero(t *testing.T) {
	assert.Zero(t, Distance(saoPaulo, saoPaulo))
	assert.Zero(t, Distance(Coordinate{}, Coordinate{}))
}

func TestDistanceIsSymmetric(t *testing.T) {
	assert.InDelta(t, Distance(saoPaulo, rioDeJaneiro), Distance(rioDeJaneiro, saoPaulo), 1e-9)
}

func TestDistanceKnownCityPair(t *testing.T) {
	// Great-circle distance São Paulo -> Rio is roughly 361 km; allow 0.5%.
	d := Distance(saoPaulo, rioDeJaneiro)
	assert.InDelta(t, 361_000, d, 361_000*0.005)
}

func TestDistanceShortRange(t *testing.T) {
	// One degree of latitude is ~111.2 km, so 0.001 degrees is ~111 m.
	near := Coordinate{Lat: saoPaulo.Lat + 0.001, Lon: saoPaulo.Lon}
	d := Distance(saoPaulo, near)
	assert.InDelta(t, 111.2, d, 1.0)
}

func TestWithinProximityGate(t *testing.T) {
	near := Coordinate{Lat: saoPaulo.Lat + 0.0005, Lon: saoPaulo.Lon} // ~55 m
	far := Coordinate{Lat: saoPaulo.Lat + 0.005, Lon: saoPaulo.Lon}   // ~555 m

	assert.True(t, Within(saoPaulo, near, 100))
	assert.False(t, Within(saoPaulo, far, 100))
}

func TestCoordinateValid(t *testing.T) {
	assert.True(t, saoPaulo.Valid())
	assert.False(t, Coordinate{Lat: 91, Lon: 0}.Valid())
	assert.False(t, Coordinate{Lat: 0, Lon: -181}.Valid())
}
