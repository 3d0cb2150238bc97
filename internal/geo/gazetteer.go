package geo

import (
	_ "embed"
	"fmt"
	"math"
	"os"

	"github.com/ghodss/yaml"
)

//go:embed regions_jp.yaml
var defaultRegions []byte

// DefaultMaxDistanceKm bounds how far a point may be from the nearest region
// centroid and still be attributed to it.
const DefaultMaxDistanceKm = 250.0

// DefaultAmbiguityRatio is how much farther the second nearest centroid must
// be than the nearest for an attribution to be unambiguous.
const DefaultAmbiguityRatio = 1.5

// Region is a named administrative area represented by its centroid.
type Region struct {
	Name string `json:"name"`
	Point
}

type gazetteerFile struct {
	MaxDistanceKm  float64  `json:"max_distance_km"`
	AmbiguityRatio float64  `json:"ambiguity_ratio"`
	Regions        []Region `json:"regions"`
}

// Attribution is the region a point was attributed to.
type Attribution struct {
	Region string
	// Ambiguous is set when another centroid is nearly as close, which is
	// the case for towns near a border. Such a region must not be compared.
	Ambiguous bool
}

// Gazetteer attributes coordinates to the region with the nearest centroid.
// The same gazetteer is used for device placements and for network derived
// positions so the two sides of a comparison are always classified alike.
type Gazetteer struct {
	regions        []Region
	maxDistanceKm  float64
	ambiguityRatio float64
}

// NewGazetteer builds a gazetteer from regions. maxDistanceKm <= 0 selects
// DefaultMaxDistanceKm and ambiguityRatio < 1 selects DefaultAmbiguityRatio.
func NewGazetteer(regions []Region, maxDistanceKm float64, ambiguityRatio float64) (*Gazetteer, error) {
	if maxDistanceKm <= 0 {
		maxDistanceKm = DefaultMaxDistanceKm
	}
	if ambiguityRatio < 1 {
		ambiguityRatio = DefaultAmbiguityRatio
	}
	for _, r := range regions {
		if r.Name == "" {
			return nil, fmt.Errorf("region without a name at %v,%v", r.Latitude, r.Longitude)
		}
		if err := r.Validate(); err != nil {
			return nil, fmt.Errorf("region %s: %w", r.Name, err)
		}
	}
	return &Gazetteer{
		regions:        regions,
		maxDistanceKm:  maxDistanceKm,
		ambiguityRatio: ambiguityRatio,
	}, nil
}

// ParseGazetteer reads a YAML document of the form
//
//	max_distance_km: 250
//	ambiguity_ratio: 1.5
//	regions:
//	- {name: 東京都, lat: 35.6895, lon: 139.6917}
func ParseGazetteer(data []byte) (*Gazetteer, error) {
	var f gazetteerFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("invalid gazetteer: %w", err)
	}
	return NewGazetteer(f.Regions, f.MaxDistanceKm, f.AmbiguityRatio)
}

// LoadGazetteer reads a gazetteer from path, or the built-in Japanese
// prefecture gazetteer when path is empty.
func LoadGazetteer(path string) (*Gazetteer, error) {
	if path == "" {
		return ParseGazetteer(defaultRegions)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseGazetteer(data)
}

// Region returns the name of the region nearest to the coordinates, or ""
// when no region centroid is within the gazetteer's maximum distance.
func (g *Gazetteer) Region(lat, lon float64) string {
	return g.Attribute(lat, lon).Region
}

// Attribute attributes the coordinates to the region with the nearest
// centroid and reports whether a neighbouring centroid is nearly as close.
func (g *Gazetteer) Attribute(lat, lon float64) Attribution {
	if g == nil {
		return Attribution{}
	}
	p := Point{Latitude: lat, Longitude: lon}
	if p.Validate() != nil {
		return Attribution{}
	}
	best, bestKm, secondKm := -1, math.Inf(1), math.Inf(1)
	for i, r := range g.regions {
		d := Haversine(p, r.Point)
		switch {
		case d < bestKm:
			secondKm = bestKm
			best, bestKm = i, d
		case d < secondKm:
			secondKm = d
		}
	}
	if best < 0 || bestKm > g.maxDistanceKm {
		return Attribution{}
	}
	return Attribution{
		Region:    g.regions[best].Name,
		Ambiguous: secondKm <= bestKm*g.ambiguityRatio,
	}
}

func (g *Gazetteer) Len() int {
	if g == nil {
		return 0
	}
	return len(g.regions)
}
