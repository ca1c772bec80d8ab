package render

import (
	"fmt"
	"math/rand/v2"
	"strings"
)

// Identity is a coherent set of browser fingerprint values used for one session
type Identity struct {
	UserAgent      string
	Platform       string
	AcceptLanguage string
	Width          int
	Height         int
}

var viewports = [][2]int{
	{1920, 1080},
	{1536, 864},
	{1440, 900},
	{1366, 768},
}

// NewIdentity picks a desktop Chrome on Windows with a randomized build number
// and a viewport from a common set. locale drives Accept-Language.
func NewIdentity(locale string) Identity {
	major := 120 + rand.IntN(4)
	build := 1000 + rand.IntN(9000)
	patch := rand.IntN(200)
	vp := viewports[rand.IntN(len(viewports))]

	return Identity{
		UserAgent: fmt.Sprintf(
			"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/%d.0.%d.%d Safari/537.36",
			major, build, patch),
		Platform:       "Win32",
		AcceptLanguage: acceptLanguage(locale),
		Width:          vp[0],
		Height:         vp[1],
	}
}

func acceptLanguage(locale string) string {
	locale = strings.TrimSpace(locale)
	if locale == "" {
		return "en-US,en;q=0.9"
	}
	base, _, _ := strings.Cut(locale, "-")
	if strings.EqualFold(base, "en") {
		return fmt.Sprintf("%s,en;q=0.9", locale)
	}
	return fmt.Sprintf("%s,%s;q=0.9,en-US;q=0.8,en;q=0.7", locale, base)
}
