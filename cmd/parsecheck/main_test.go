package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixture = `Wales Rainfall (mm)
year   jan   feb   mar   apr   may   jun   jul   aug   sep   oct   nov   dec   win   spr
1836  ---   ---   ---   ---   ---   ---   ---   ---   ---   ---   ---   ---
2022 151.2  268.9  76.4  45.0  61.3  65.2  31.0  40.5 120.3 200.1 221.0 150.2 500.0 182.7
2023 180.0* 60.4   ---   90.0  40.0  30.0 190.0 110.0  95.0 260.0 180.0 210.0
`

func writeFixture(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestRun_ReportsStats(t *testing.T) {
	path := writeFixture(t, "Wales.txt", fixture)

	var out bytes.Buffer
	code := run(&out, []string{path}, true)
	require.Equal(t, 0, code)

	var reports []fileReport
	require.NoError(t, json.Unmarshal(out.Bytes(), &reports))
	require.Len(t, reports, 1)

	rep := reports[0]
	assert.Equal(t, 3, rep.Stats.Rows)
	assert.Equal(t, 2, rep.Stats.Skipped)
	assert.Equal(t, 1836, rep.FirstYear)
	assert.Equal(t, 2023, rep.LastYear)
	assert.Equal(t, 36, rep.Points)
	assert.Equal(t, 1, rep.MissingByMonth["Feb"])
	assert.Equal(t, 2, rep.MissingByMonth["Mar"])
}

func TestRun_StrictFailsOnEmptyFile(t *testing.T) {
	path := writeFixture(t, "empty.txt", "no data here\n")

	var out bytes.Buffer
	assert.Equal(t, 0, run(&out, []string{path}, false))
	out.Reset()
	assert.Equal(t, 1, run(&out, []string{path}, true))
}

func TestRun_MissingFile(t *testing.T) {
	var out bytes.Buffer
	code := run(&out, []string{filepath.Join(t.TempDir(), "nope.txt")}, false)
	assert.Equal(t, 1, code)
	assert.Contains(t, out.String(), `"error"`)
}
