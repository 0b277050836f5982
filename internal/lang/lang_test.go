package lang

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		want    Language
		wantErr bool
	}{
		{in: "en", want: English},
		{in: "English", want: English},
		{in: " AR ", want: Arabic},
		{in: "darija", want: Arabic},
		{in: "french", want: French},
		{in: "fr", want: French},
		{in: "de", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, err := Parse(tc.in)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestVoiceMappingCoversAllLanguages(t *testing.T) {
	seen := map[string]bool{}
	for _, l := range All() {
		voice := Voice(l.Code())
		require.NotEmpty(t, voice)
		seen[voice] = true
	}
	require.Len(t, seen, 3, "each language should map to a distinct voice")
}

func TestVoiceFallsBackForUnknownCode(t *testing.T) {
	require.Equal(t, "Kore", Voice("zh"))
	require.Equal(t, "Kore", Voice(""))
}

func TestNames(t *testing.T) {
	require.Equal(t, "English", English.Name())
	require.Equal(t, "Arabic", Arabic.Name())
	require.Equal(t, "French", French.Name())
}
