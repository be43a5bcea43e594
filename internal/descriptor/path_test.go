package descriptor

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromPath(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		siteBase string
		want     string
	}{
		{"descriptor at root", "/x0y0z4def0-zoom45", "", "x0y0z4def0-zoom45"},
		{"site base stripped", "/globe/x1y2z3def4", "globe", "x1y2z3def4"},
		{"site base with spaces", "/globe/x1y2z3def4", "  globe ", "x1y2z3def4"},
		{"site base only", "/globe/", "globe", ""},
		{"sentinel segment", "/earth-view/editor/", "", ""},
		{"sentinel after site base", "/globe/earth-view", "globe", ""},
		{"empty path", "/", "", ""},
		{"segments joined", "/x1y2/z3def4", "", "x1y2z3def4"},
		{"different base kept", "/other/x1y2z3def4", "globe", "otherx1y2z3def4"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FromPath(tt.path, tt.siteBase))
		})
	}
}

func TestFromURL_Priority(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"camera wins", "https://example.test/x9y9z9def9?camera=x1y1z1def1&code=x2y2z2def2#x3y3z3def3", "x1y1z1def1"},
		{"code before fragment", "https://example.test/?code=x2y2z2def2#x3y3z3def3", "x2y2z2def2"},
		{"empty camera skipped", "https://example.test/?camera=&code=x2y2z2def2", "x2y2z2def2"},
		{"fragment before path", "https://example.test/x9y9z9def9#x3y3z3def3", "x3y3z3def3"},
		{"path fallback", "https://example.test/globe/x9y9z9def9", "x9y9z9def9"},
		{"nothing", "https://example.test/globe/", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := url.Parse(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, FromURL(u, "globe"))
		})
	}
}

func TestFromURL_Nil(t *testing.T) {
	assert.Equal(t, "", FromURL(nil, ""))
}

func TestShareURL(t *testing.T) {
	assert.Equal(t, "https://example.test/globe/x0y0z4def0-zoom45", ShareURL("https://example.test/globe/", "x0y0z4def0-zoom45"))
	assert.Equal(t, "https://example.test", ShareURL("https://example.test/", ""))
}
