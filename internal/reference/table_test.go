package reference

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCSV(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadKeepsFirstPositionAndLastRow(t *testing.T) {
	path := writeCSV(t, t.TempDir(), "fund.csv",
		"fund,name\nalpha,First\nbeta,Second\nalpha,Replaced\n")

	table, err := Load(path, "fund", nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"alpha", "beta"}, table.Keys())
	row, ok := table.Get("alpha")
	require.True(t, ok)
	assert.Equal(t, "Replaced", row.Get("name"))
	assert.Equal(t, 2, table.Len())
}

func TestLoadFiltersRows(t *testing.T) {
	path := writeCSV(t, t.TempDir(), "award.csv",
		"award,start-date\na1,2020-01-01\na2,2022-03-01\n")

	table, err := Load(path, "award", func(row Row) bool {
		return row.Get("start-date") >= "2021-06-01"
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a2"}, table.Keys())
}

func TestLoadShortRowsAndMissingColumns(t *testing.T) {
	path := writeCSV(t, t.TempDir(), "org.csv",
		"\ufefforganisation , name,region\nlocal-authority:AAA,Alpha\n")

	table, err := Load(path, "organisation", nil)
	require.NoError(t, err)

	row, ok := table.Get("local-authority:AAA")
	require.True(t, ok)
	assert.Equal(t, "Alpha", row.Get("name"))
	assert.Equal(t, "", row.Get("region"))
	assert.Equal(t, "", row.Get("not-a-column"))
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(dir, "absent.csv"), "fund", nil)
		require.Error(t, err)
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("missing key column", func(t *testing.T) {
		path := writeCSV(t, dir, "bad.csv", "name\nx\n")
		_, err := Load(path, "fund", nil)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrMissingColumn)
		assert.Contains(t, err.Error(), "fund")
	})
}

func TestReadRowsKeepsDuplicates(t *testing.T) {
	path := writeCSV(t, t.TempDir(), "adoption.csv",
		"organisation,product,adoption-status\no1,planx,interested\no1,planx,live\n")

	rows, err := ReadRows(path, "organisation")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "live", rows[1].Get("adoption-status"))
}

func TestSplitPartners(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, SplitPartners("a;;b;"))
	assert.Nil(t, SplitPartners(""))
	assert.Equal(t, []string{"b", "c"}, SplitPartners("b; c;b"))
}

func TestQualityStatus(t *testing.T) {
	assert.Equal(t, QualityReady, QualityStatus("3. data that is good for ODP"))
	assert.Equal(t, QualityNone, QualityStatus("0. no data"))
	assert.Equal(t, "", QualityStatus("something else"))
	assert.Len(t, QualityDatasets, 8)
}
