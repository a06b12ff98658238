package csvtext

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		delim rune
		want  [][]string
	}{
		{
			name:  "simple rows",
			text:  "a;b;c\n1;2;3\n",
			delim: ';',
			want:  [][]string{{"a", "b", "c"}, {"1", "2", "3"}},
		},
		{
			name:  "no trailing newline",
			text:  "a;b\n1;2",
			delim: ';',
			want:  [][]string{{"a", "b"}, {"1", "2"}},
		},
		{
			name:  "quoted delimiter",
			text:  "\"x;y\";z\n",
			delim: ';',
			want:  [][]string{{"x;y", "z"}},
		},
		{
			name:  "escaped quote",
			text:  "\"say \"\"hi\"\"\",x\n",
			delim: ',',
			want:  [][]string{{"say \"hi\"", "x"}},
		},
		{
			name:  "quoted newline",
			text:  "\"line1\nline2\";b\nc;d\n",
			delim: ';',
			want:  [][]string{{"line1\nline2", "b"}, {"c", "d"}},
		},
		{
			name:  "crlf line endings",
			text:  "a;b\r\n1;2\r\n",
			delim: ';',
			want:  [][]string{{"a", "b"}, {"1", "2"}},
		},
		{
			name:  "empty fields",
			text:  ";;\n",
			delim: ';',
			want:  [][]string{{"", "", ""}},
		},
		{
			name:  "empty quoted field",
			text:  "\"\";x\n",
			delim: ';',
			want:  [][]string{{"", "x"}},
		},
		{
			name:  "blank line in the middle is kept",
			text:  "a\n\nb\n",
			delim: ';',
			want:  [][]string{{"a"}, {""}, {"b"}},
		},
		{
			name:  "ragged rows pass through",
			text:  "a;b;c\n1;2\n1;2;3;4\n",
			delim: ';',
			want:  [][]string{{"a", "b", "c"}, {"1", "2"}, {"1", "2", "3", "4"}},
		},
		{
			name:  "quote inside unquoted field is literal",
			text:  "5\" disk;x\n",
			delim: ';',
			want:  [][]string{{"5\" disk", "x"}},
		},
		{
			name:  "multibyte delimiter and text",
			text:  "São Tomé¦0.33\n",
			delim: '¦',
			want:  [][]string{{"São Tomé", "0.33"}},
		},
		{
			name:  "empty text",
			text:  "",
			delim: ';',
			want:  nil,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Parse(tc.text, tc.delim)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParse_Unbalanced(t *testing.T) {
	_, err := Parse("a;b\n\"open;c\nd;e\n", ';')
	require.ErrorIs(t, err, ErrMalformedInput)
	assert.Contains(t, err.Error(), "line 2")

	_, err = Parse("\"\"\"", ';')
	assert.ErrorIs(t, err, ErrMalformedInput)
}

func TestParse_DoesNotSkipHeader(t *testing.T) {
	rows, err := Parse("Country;Capital\nFrance;Paris\n", ';')
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"Country", "Capital"}, rows[0])
}
