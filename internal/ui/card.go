package ui

import (
	"fmt"
	"html"
	"strings"

	"github.com/moonssword/dating-bot/internal/domain/model"
	"github.com/moonssword/dating-bot/internal/domain/rules"
)

// ProfileCard renders the browse/match caption for a profile. The
// distance line appears only when both sides shared device geolocation.
func ProfileCard(locale string, p model.Profile, distanceKM *float64) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<b>%s, %d</b>", html.EscapeString(p.DisplayName), p.Age)
	if p.Location.Locality != "" {
		fmt.Fprintf(&b, "\n📍 %s", html.EscapeString(p.Location.Locality))
		if distanceKM != nil {
			fmt.Fprintf(&b, " (%s)", rules.FormatDistanceKM(*distanceKM))
		}
	}
	if about := strings.TrimSpace(p.AboutMe); about != "" {
		fmt.Fprintf(&b, "\n\n%s", html.EscapeString(about))
	}
	return b.String()
}
