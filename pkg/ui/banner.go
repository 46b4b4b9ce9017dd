package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/siteintel/siteintel/pkg/defaults"
)

const bannerArt = `
      _ _       _       _       _
  ___(_) |_ ___(_)_ __ | |_ ___| |
 / __| | __/ _ \ | '_ \| __/ _ \ |
 \__ \ | ||  __/ | | | | ||  __/ |
 |___/_|\__\___|_|_| |_|\__\___|_|
`

// PrintBanner writes the banner and version to w.
func PrintBanner(w io.Writer) {
	for _, line := range strings.Split(bannerArt, "\n") {
		if line != "" {
			fmt.Fprintln(w, BannerStyle.Render(line))
		}
	}
	fmt.Fprintf(w, "                 v%s\n\n", VersionStyle.Render(defaults.Version))
}
