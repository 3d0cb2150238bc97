package geo

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	tokyo = Point{Latitude: 35.6895, Longitude: 139.6917}
	osaka = Point{Latitude: 34.6863, Longitude: 135.5200}
)

func TestHaversine(t *testing.T) {
	assert.InDelta(t, 0, Haversine(tokyo, tokyo), 1e-9)
	assert.InDelta(t, 397, Haversine(tokyo, osaka), 5)
	assert.InDelta(t, Haversine(tokyo, osaka), Haversine(osaka, tokyo), 1e-9)

	// one degree of latitude along a meridian
	d := Haversine(Point{Latitude: 0, Longitude: 0}, Point{Latitude: 1, Longitude: 0})
	assert.InDelta(t, EarthRadiusKm*math.Pi/180, d, 1e-9)
}

func TestRoundKm(t *testing.T) {
	assert.Equal(t, 2.4, RoundKm(2.40004))
	assert.Equal(t, 212.346, RoundKm(212.3456))
}

func TestPointValidate(t *testing.T) {
	require.NoError(t, Point{Latitude: 90, Longitude: -180}.Validate())
	require.Error(t, Point{Latitude: 90.1, Longitude: 0}.Validate())
	require.Error(t, Point{Latitude: 0, Longitude: 180.5}.Validate())
	require.Error(t, Point{Latitude: math.NaN(), Longitude: 0}.Validate())
}

func TestDefaultGazetteer(t *testing.T) {
	g, err := LoadGazetteer("")
	require.NoError(t, err)
	require.Equal(t, 47, g.Len())

	assert.Equal(t, "東京都", g.Region(tokyo.Latitude, tokyo.Longitude))
	assert.Equal(t, "大阪府", g.Region(osaka.Latitude, osaka.Longitude))
	assert.Equal(t, "北海道", g.Region(43.77, 142.36)) // Asahikawa
	assert.Equal(t, "沖縄県", g.Region(26.33, 127.80))

	// mid Pacific is outside every prefecture
	assert.Equal(t, "", g.Region(0, -160))
	assert.Equal(t, "", g.Region(91, 0))
}

func TestBorderTownIsAmbiguous(t *testing.T) {
	g, err := LoadGazetteer("")
	require.NoError(t, err)

	// Machida is in Tokyo but closer to the Kanagawa capital.
	machida := g.Attribute(35.5466, 139.4386)
	assert.Equal(t, "神奈川県", machida.Region)
	assert.True(t, machida.Ambiguous)

	center := g.Attribute(tokyo.Latitude, tokyo.Longitude)
	assert.Equal(t, Attribution{Region: "東京都"}, center)
	assert.False(t, g.Attribute(35.4478, 139.6425).Ambiguous) // Yokohama
	assert.False(t, g.Attribute(43.77, 142.36).Ambiguous)
}

func TestAmbiguityRatio(t *testing.T) {
	regions := []Region{
		{Name: "west", Point: Point{Latitude: 0, Longitude: 0}},
		{Name: "east", Point: Point{Latitude: 0, Longitude: 1}},
	}
	g, err := NewGazetteer(regions, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, Attribution{Region: "west", Ambiguous: true}, g.Attribute(0, 0.45))
	assert.Equal(t, Attribution{Region: "west"}, g.Attribute(0, 0.1))

	strict, err := NewGazetteer(regions, 0, 1.05)
	require.NoError(t, err)
	assert.Equal(t, Attribution{Region: "west"}, strict.Attribute(0, 0.45))

	alone, err := NewGazetteer(regions[:1], 0, 0)
	require.NoError(t, err)
	assert.Equal(t, Attribution{Region: "west"}, alone.Attribute(0, 0.45))
}

func TestParseGazetteer(t *testing.T) {
	path := filepath.Join(t.TempDir(), "regions.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
max_distance_km: 10
ambiguity_ratio: 2
regions:
- {name: center, lat: 0, lon: 0}
`), 0o600))

	g, err := LoadGazetteer(path)
	require.NoError(t, err)
	assert.Equal(t, "center", g.Region(0.05, 0.05))
	assert.Equal(t, "", g.Region(1, 1))

	_, err = ParseGazetteer([]byte("regions:\n- {lat: 0, lon: 0}\n"))
	require.Error(t, err)
	_, err = ParseGazetteer([]byte("regions:\n- {name: x, lat: 100, lon: 0}\n"))
	require.Error(t, err)
}

func TestNilGazetteer(t *testing.T) {
	var g *Gazetteer
	assert.Equal(t, "", g.Region(0, 0))
	assert.Equal(t, Attribution{}, g.Attribute(0, 0))
	assert.Equal(t, 0, g.Len())
}
