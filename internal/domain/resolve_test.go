package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBase = "https://example.test/datasets"

func TestCatalog_Default(t *testing.T) {
	c := DefaultCatalog()

	assert.Len(t, c.Regions(), 17)
	assert.Len(t, c.ParamKeys(), 7)
	assert.Len(t, c.Combinations(), 17*7)

	first := c.Combinations()[0]
	assert.Equal(t, "UK", first.Region.Code)
	assert.Equal(t, "Tmax", first.ParamKey)
	assert.Equal(t, "UK/Tmax", first.String())

	kind, ok := c.Kind("Raindays1mm")
	require.True(t, ok)
	assert.Equal(t, ParamRaindays, kind)
	assert.Equal(t, "Rain days >=1.0mm", kind.Label())

	for _, key := range c.ParamKeys() {
		_, ok := c.Kind(key)
		assert.True(t, ok, "every default key is mapped: %s", key)
	}

	r, ok := c.Region("northern_ireland")
	require.True(t, ok)
	assert.Equal(t, "Northern Ireland", r.Name)
}

func TestCatalog_AccessorsReturnCopies(t *testing.T) {
	c := DefaultCatalog()
	regions := c.Regions()
	regions[0].Code = "mutated"
	assert.Equal(t, "UK", c.Regions()[0].Code)
}

func TestCatalog_Filter(t *testing.T) {
	c := DefaultCatalog()

	f, err := c.Filter([]string{"wales", "UK"}, []string{"Rainfall"})
	require.NoError(t, err)
	combos := f.Combinations()
	require.Len(t, combos, 2)
	assert.Equal(t, "Wales", combos[0].Region.Code)
	assert.Equal(t, "UK", combos[1].Region.Code)
	kind, ok := f.Kind("Rainfall")
	assert.True(t, ok)
	assert.Equal(t, ParamRain, kind)

	all, err := c.Filter(nil, nil)
	require.NoError(t, err)
	assert.Len(t, all.Combinations(), len(c.Combinations()))

	_, err = c.Filter([]string{"Atlantis"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Atlantis")

	_, err = c.Filter(nil, []string{"Snowfall"})
	require.Error(t, err)
}

func TestNewCatalog_Validation(t *testing.T) {
	_, err := NewCatalog([]Region{{Code: "UK"}, {Code: "uk"}}, nil, nil)
	assert.Error(t, err)

	_, err = NewCatalog(nil, []ParamLayout{{Key: "Tmax"}, {Key: "Tmax"}}, nil)
	assert.Error(t, err)

	_, err = NewCatalog(nil, nil, map[string]Parameter{"Tmax": "Bogus"})
	assert.Error(t, err)
}

func TestCatalog_UnmappedParameter(t *testing.T) {
	c, err := NewCatalog(
		[]Region{{Code: "UK", Name: "United Kingdom"}},
		[]ParamLayout{{Key: "Snowfall", Path: "Snowfall/date"}},
		nil,
	)
	require.NoError(t, err)

	_, ok := c.Kind("Snowfall")
	assert.False(t, ok)
	assert.Len(t, c.Combinations(), 1)
}

func TestResolver_FourEntryOrder(t *testing.T) {
	c, err := NewCatalog(
		[]Region{{Code: "East Anglia"}},
		[]ParamLayout{{Key: "Tmax", Path: "v2/Tmax/date"}},
		defaultKinds,
	)
	require.NoError(t, err)

	got := NewResolver(testBase, c, nil).Candidates("East Anglia", "Tmax")
	assert.Equal(t, []string{
		testBase + "/v2/Tmax/date/East Anglia.txt",
		testBase + "/v2/Tmax/date/East_Anglia.txt",
		testBase + "/Tmax/date/East Anglia.txt",
		testBase + "/Tmax/date/East_Anglia.txt",
	}, got)
}

func TestResolver_DeterministicAndDeduplicated(t *testing.T) {
	r := NewResolver(testBase+"/", DefaultCatalog(), DefaultAliases)

	got := r.Candidates("UK", "Tmax")
	assert.Equal(t, []string{testBase + "/Tmax/date/UK.txt"}, got)
	assert.Equal(t, got, r.Candidates("UK", "Tmax"))
}

func TestResolver_PlainCodeDistinctLayout(t *testing.T) {
	c, err := NewCatalog(nil, []ParamLayout{{Key: "Rainfall", Path: "rain/monthly"}}, nil)
	require.NoError(t, err)

	got := NewResolver(testBase, c, nil).Candidates("Wales", "Rainfall")
	assert.Equal(t, []string{
		testBase + "/rain/monthly/Wales.txt",
		testBase + "/Rainfall/date/Wales.txt",
	}, got)
}

func TestResolver_Aliases(t *testing.T) {
	t.Run("alias redirects to canonical file", func(t *testing.T) {
		r := NewResolver(testBase, DefaultCatalog(), DefaultAliases)
		got := r.Candidates("N_Ireland", "Rainfall")
		assert.Equal(t, []string{
			testBase + "/Rainfall/date/N_Ireland.txt",
			testBase + "/Rainfall/date/Northern_Ireland.txt",
		}, got)
	})

	t.Run("canonical code collapses onto itself", func(t *testing.T) {
		r := NewResolver(testBase, DefaultCatalog(), DefaultAliases)
		got := r.Candidates("Northern_Ireland", "Rainfall")
		assert.Equal(t, []string{testBase + "/Rainfall/date/Northern_Ireland.txt"}, got)
	})

	t.Run("no alias table", func(t *testing.T) {
		r := NewResolver(testBase, DefaultCatalog(), nil)
		got := r.Candidates("N_Ireland", "Rainfall")
		assert.Equal(t, []string{testBase + "/Rainfall/date/N_Ireland.txt"}, got)
	})
}

func TestResolver_UnknownParameterKey(t *testing.T) {
	r := NewResolver(testBase, DefaultCatalog(), nil)
	got := r.Candidates("UK", "Snowfall")
	assert.Equal(t, []string{testBase + "/Snowfall/date/UK.txt"}, got)

	assert.Empty(t, r.Candidates("UK", ""))
}
