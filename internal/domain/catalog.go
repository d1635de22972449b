package domain

import (
	"fmt"
	"strings"
)

// ParamLayout ties a published parameter key to its path fragment under the
// dataset base URL.
type ParamLayout struct {
	Key  string
	Path string
}

// Combination is one unit of ingestion work.
type Combination struct {
	Region   Region
	ParamKey string
}

func (c Combination) String() string {
	return c.Region.Code + "/" + c.ParamKey
}

// Catalog is the static registry of regions and parameters to ingest. It is
// immutable once built; accessors return copies.
type Catalog struct {
	regions []Region
	params  []ParamLayout
	paths   map[string]string
	kinds   map[string]Parameter
}

// NewCatalog builds a catalog. Region codes and parameter keys must be unique.
// A parameter key without an entry in kinds is accepted: resolving it works
// but merging it reports ErrUnmappedParameter.
func NewCatalog(regions []Region, params []ParamLayout, kinds map[string]Parameter) (*Catalog, error) {
	c := &Catalog{
		regions: make([]Region, 0, len(regions)),
		params:  make([]ParamLayout, 0, len(params)),
		paths:   make(map[string]string, len(params)),
		kinds:   make(map[string]Parameter, len(kinds)),
	}

	seen := make(map[string]struct{}, len(regions))
	for _, r := range regions {
		if strings.TrimSpace(r.Code) == "" {
			return nil, fmt.Errorf("catalog: empty region code")
		}
		key := strings.ToLower(r.Code)
		if _, dup := seen[key]; dup {
			return nil, fmt.Errorf("catalog: duplicate region %q", r.Code)
		}
		seen[key] = struct{}{}
		c.regions = append(c.regions, r)
	}

	for _, p := range params {
		if p.Key == "" {
			return nil, fmt.Errorf("catalog: empty parameter key")
		}
		if _, dup := c.paths[p.Key]; dup {
			return nil, fmt.Errorf("catalog: duplicate parameter %q", p.Key)
		}
		c.paths[p.Key] = p.Path
		c.params = append(c.params, p)
	}

	for key, kind := range kinds {
		if !kind.Valid() {
			return nil, fmt.Errorf("catalog: parameter %q maps to unknown kind %q", key, kind)
		}
		c.kinds[key] = kind
	}
	return c, nil
}

// DefaultCatalog returns the Met Office UK regional series catalog.
func DefaultCatalog() *Catalog {
	c, err := NewCatalog(defaultRegions, defaultParams, defaultKinds)
	if err != nil {
		panic(err)
	}
	return c
}

var defaultRegions = []Region{
	{Code: "UK", Name: "United Kingdom"},
	{Code: "England", Name: "England"},
	{Code: "Wales", Name: "Wales"},
	{Code: "Scotland", Name: "Scotland"},
	{Code: "Northern_Ireland", Name: "Northern Ireland"},
	{Code: "England_and_Wales", Name: "England & Wales"},
	{Code: "England_N", Name: "England North"},
	{Code: "England_S", Name: "England South"},
	{Code: "Scotland_N", Name: "Scotland North"},
	{Code: "Scotland_E", Name: "Scotland East"},
	{Code: "Scotland_W", Name: "Scotland West"},
	{Code: "England_E_and_NE", Name: "England E & NE"},
	{Code: "England_NW_and_N_Wales", Name: "England NW/Wales N"},
	{Code: "Midlands", Name: "Midlands"},
	{Code: "East_Anglia", Name: "East Anglia"},
	{Code: "England_SW_and_S_Wales", Name: "England SW/Wales S"},
	{Code: "England_SE_and_Central_S", Name: "England SE/Central S"},
}

var defaultParams = []ParamLayout{
	{Key: "Tmax", Path: "Tmax/date"},
	{Key: "Tmin", Path: "Tmin/date"},
	{Key: "Tmean", Path: "Tmean/date"},
	{Key: "Sunshine", Path: "Sunshine/date"},
	{Key: "Rainfall", Path: "Rainfall/date"},
	{Key: "Raindays1mm", Path: "Raindays1mm/date"},
	{Key: "AirFrost", Path: "AirFrost/date"},
}

var defaultKinds = map[string]Parameter{
	"Tmax":        ParamTmax,
	"Tmin":        ParamTmin,
	"Tmean":       ParamTmean,
	"Sunshine":    ParamSun,
	"Rainfall":    ParamRain,
	"Raindays1mm": ParamRaindays,
	"AirFrost":    ParamFrostDays,
}

// Regions returns the catalog regions in declaration order.
func (c *Catalog) Regions() []Region {
	out := make([]Region, len(c.regions))
	copy(out, c.regions)
	return out
}

// ParamKeys returns the published parameter keys in declaration order.
func (c *Catalog) ParamKeys() []string {
	out := make([]string, len(c.params))
	for i, p := range c.params {
		out[i] = p.Key
	}
	return out
}

// Path returns the path fragment for a parameter key.
func (c *Catalog) Path(paramKey string) (string, bool) {
	p, ok := c.paths[paramKey]
	return p, ok
}

// Kind returns the storage parameter for a published key.
func (c *Catalog) Kind(paramKey string) (Parameter, bool) {
	k, ok := c.kinds[paramKey]
	return k, ok
}

// Region looks a region up by code, case-insensitively.
func (c *Catalog) Region(code string) (Region, bool) {
	for _, r := range c.regions {
		if strings.EqualFold(r.Code, code) {
			return r, true
		}
	}
	return Region{}, false
}

// Combinations returns every region x parameter pair, regions outermost.
func (c *Catalog) Combinations() []Combination {
	out := make([]Combination, 0, len(c.regions)*len(c.params))
	for _, r := range c.regions {
		for _, p := range c.params {
			out = append(out, Combination{Region: r, ParamKey: p.Key})
		}
	}
	return out
}

// Filter returns a catalog restricted to the given region codes and parameter
// keys. An empty list keeps everything for that axis. Unknown entries are an
// error.
func (c *Catalog) Filter(regionCodes, paramKeys []string) (*Catalog, error) {
	regions := c.regions
	if len(regionCodes) > 0 {
		regions = make([]Region, 0, len(regionCodes))
		for _, code := range regionCodes {
			r, ok := c.Region(code)
			if !ok {
				return nil, fmt.Errorf("catalog: unknown region %q", code)
			}
			regions = append(regions, r)
		}
	}

	params := c.params
	if len(paramKeys) > 0 {
		params = make([]ParamLayout, 0, len(paramKeys))
		for _, key := range paramKeys {
			path, ok := c.paths[key]
			if !ok {
				return nil, fmt.Errorf("catalog: unknown parameter %q", key)
			}
			params = append(params, ParamLayout{Key: key, Path: path})
		}
	}

	return NewCatalog(regions, params, c.kinds)
}

// StorageCode is the region code as persisted: spaces become underscores.
func (r Region) StorageCode() string {
	return underscored(r.Code)
}

func underscored(s string) string {
	return strings.ReplaceAll(s, " ", "_")
}
