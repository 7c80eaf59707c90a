package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterRadiusKM(t *testing.T) {
	assert.Equal(t, 5.0, Filter{}.RadiusKM(), "no distance range falls back to the default")

	f := Filter{DistanceRange: &IntRange{Min: 0, Max: 3000}}
	assert.Equal(t, 3.0, f.RadiusKM(), "upper bound in meters converts to kilometers")

	f = Filter{DistanceRange: &IntRange{Min: 1000, Max: 10000}}
	assert.Equal(t, 10.0, f.RadiusKM(), "only the upper bound matters")
}
