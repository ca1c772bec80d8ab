package render

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

var chromeUA = regexp.MustCompile(`^Mozilla/5\.0 \(Windows NT 10\.0; Win64; x64\) AppleWebKit/537\.36 \(KHTML, like Gecko\) Chrome/(12[0-3])\.0\.\d{4}\.\d+ Safari/537\.36$`)

func TestNewIdentityIsConsistent(t *testing.T) {
	for i := 0; i < 50; i++ {
		id := NewIdentity("ru-RU")
		if !chromeUA.MatchString(id.UserAgent) {
			t.Fatalf("unexpected user agent %q", id.UserAgent)
		}
		assert.Equal(t, "Win32", id.Platform)
		assert.True(t, strings.HasPrefix(id.AcceptLanguage, "ru-RU,ru;q=0.9"))
		assert.Contains(t, viewports, [2]int{id.Width, id.Height})
	}
}

func TestAcceptLanguage(t *testing.T) {
	cases := []struct {
		locale string
		want   string
	}{
		{"", "en-US,en;q=0.9"},
		{"en-GB", "en-GB,en;q=0.9"},
		{"ru-RU", "ru-RU,ru;q=0.9,en-US;q=0.8,en;q=0.7"},
		{"de", "de,de;q=0.9,en-US;q=0.8,en;q=0.7"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, acceptLanguage(tc.locale), tc.locale)
	}
}
