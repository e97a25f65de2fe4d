package depfile_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/stagehand/internal/engine/depfile"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []depfile.Record
	}{
		{
			name:  "single line",
			input: "out/libstd.so: src/std.rc src/io.rs\n",
			want:  []depfile.Record{{Targets: []string{"out/libstd.so"}, Prereqs: []string{"src/std.rc", "src/io.rs"}}},
		},
		{
			name:  "continuations",
			input: "out/libstd.so: src/std.rc \\\n  src/io.rs \\\n  src/os.rs\n",
			want: []depfile.Record{{
				Targets: []string{"out/libstd.so"},
				Prereqs: []string{"src/std.rc", "src/io.rs", "src/os.rs"},
			}},
		},
		{
			name:  "escaped space and dollar",
			input: "out/a: my\\ dir/a.rs cost$$.rs\n",
			want:  []depfile.Record{{Targets: []string{"out/a"}, Prereqs: []string{"my dir/a.rs", "cost$.rs"}}},
		},
		{
			name:  "comments and phony rules",
			input: "# generated\nout/a: src/a.rs\n\nsrc/a.rs:\n",
			want: []depfile.Record{
				{Targets: []string{"out/a"}, Prereqs: []string{"src/a.rs"}},
				{Targets: []string{"src/a.rs"}},
			},
		},
		{
			name:  "drive letter is not a separator",
			input: "C:/out/a.dll: C:/src/a.rs\n",
			want:  []depfile.Record{{Targets: []string{"C:/out/a.dll"}, Prereqs: []string{"C:/src/a.rs"}}},
		},
		{
			name:  "no rule",
			input: "just words\n",
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := depfile.Parse(strings.NewReader(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
