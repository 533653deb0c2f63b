package csvfile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSniffDelimiter(t *testing.T) {
	tests := []struct {
		name string
		text string
		want rune
	}{
		{"comma", "a,b,c\n1,2,3\n", ','},
		{"semicolon", "a;b;c\n1;2;3\n", ';'},
		{"tab", "a\tb\n1\t2\n", '\t'},
		{"pipe", "a|b|c\n1|2|3\n", '|'},
		{"quoted commas ignored", "name;value\n\"Autauga, AL\";1\n", ';'},
		{"inconsistent falls back to most frequent", "a;b;c\n1;2\n", ';'},
		{"no delimiter", "single\nvalue\n", ','},
		{"empty", "", ','},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SniffDelimiter(tt.text))
		})
	}
}

func TestParseLines_KeepsLineNumbers(t *testing.T) {
	recs, err := ParseLines("h1,h2\n1,2\n\n3\n\"multi\nline\",4\n5,6\n", ',')
	require.NoError(t, err)

	require.Len(t, recs, 5)
	assert.Equal(t, 1, recs[0].Line)
	assert.Equal(t, 2, recs[1].Line)
	assert.Equal(t, 4, recs[2].Line)
	assert.Equal(t, []string{"3"}, recs[2].Fields)
	assert.Equal(t, 5, recs[3].Line)
	assert.Equal(t, 7, recs[4].Line)
}
