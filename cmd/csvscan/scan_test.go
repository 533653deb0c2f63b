package main

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScan(t *testing.T) {
	input := "County;State FIPS Code;Period;Unemployment Rate (%)\n" +
		"Autauga County;1;24-Jul;3.1\n" +
		"Baldwin County;1;24-Jul;2.9\n" +
		"Barbour County;1;24-Jul\n" +
		";;;\n" +
		"Bibb County;1;24-Jul;n/a\n" +
		"Blount County;1;24-Jul;\n" +
		"Bullock County;1;24-Jul;4.2\n" +
		"Butler County;1;24-Jul;3.8\n" +
		"Calhoun County;1;24-Jul;3.3\n" +
		"Chambers County;1;24-Jul;3.0\n" +
		"Cherokee County;1;24-Jul;2.7\n" +
		"Chilton County;1;24-Jul;2.6\n" +
		"Choctaw County;1;24-Jul;4.4\n"

	res, err := scan([]byte(input))
	require.NoError(t, err)

	s := res.stats
	assert.Equal(t, "utf-8", s.encoding)
	assert.Equal(t, ';', s.delimiter)
	assert.Equal(t, 13, s.totalRows)
	assert.Equal(t, 4, s.malformedRows)
	assert.Equal(t, 1, s.wrongFieldCount)
	assert.Equal(t, 1, s.blankRows)
	// The blank row also has empty numeric cells.
	assert.Equal(t, 4, s.numericMismatch)

	byLine := map[int][]string{}
	for _, is := range res.issues {
		byLine[is.line] = append(byLine[is.line], is.kind)
	}
	assert.Equal(t, []string{issueFieldCount}, byLine[4])
	assert.Equal(t, []string{issueBlankRow, issueNumericMissing, issueNumericMissing}, byLine[5])
	assert.Equal(t, []string{issueNumericParse}, byLine[6])
	assert.Equal(t, []string{issueNumericMissing}, byLine[7])
}

func TestScan_Latin1(t *testing.T) {
	res, err := scan([]byte("County,Value\nDo\xf1a Ana,1\n"))
	require.NoError(t, err)
	assert.Equal(t, "cp1252", res.stats.encoding)
	assert.Zero(t, res.stats.malformedRows)
}

func TestScan_Empty(t *testing.T) {
	_, err := scan(nil)
	assert.Error(t, err)
}

func TestNumberLike(t *testing.T) {
	assert.True(t, numberLike("1,234.5"))
	assert.True(t, numberLike(" 4.2% "))
	assert.True(t, numberLike("-3"))
	assert.False(t, numberLike(""))
	assert.False(t, numberLike("n/a"))
	assert.False(t, numberLike("$5"))
}

func TestRun_WritesReport(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.csv")
	out := filepath.Join(dir, "report", "malformed.csv")
	require.NoError(t, os.WriteFile(in, []byte("a,b\n1,2\n3,x\n4,5\n6,7\n"), 0o600))

	require.Equal(t, 0, run(in, out))

	f, err := os.Open(out)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)

	require.Len(t, rows, 2)
	assert.Equal(t, reportHeader, rows[0])
	assert.Equal(t, []string{"3", issueNumericParse, "b", "1", "x", "3|x"}, rows[1])
}

func TestRun_CleanFileRemovesStaleReport(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.csv")
	out := filepath.Join(dir, "malformed.csv")
	require.NoError(t, os.WriteFile(in, []byte("a,b\n1,2\n"), 0o600))
	require.NoError(t, os.WriteFile(out, []byte("stale"), 0o600))

	require.Equal(t, 0, run(in, out))

	_, err := os.Stat(out)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestRun_MissingInput(t *testing.T) {
	assert.Equal(t, 1, run(filepath.Join(t.TempDir(), "absent.csv"), ""))
}
