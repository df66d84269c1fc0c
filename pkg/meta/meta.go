// Package meta holds package metadata. Version, Commit and BuildDate can be
// set at link time with -ldflags "-X github.com/theokoles7/parcus/pkg/meta.Version=...".
package meta

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

const (
	Title       = "parcus"
	Author      = "Gabriel C. Trahan"
	AuthorEmail = "gabriel.trahan1@louisiana.edu"
	URL         = "https://github.com/theokoles7/parcus"
	Description = "Experiments in analyzing the correlation and effects of token budgets on a language model's ability to reason and generate accurate responses."
)

var (
	Version   = "0.0.0"
	Commit    = "none"
	BuildDate = "unknown"
)

func PrintBanner(w io.Writer) {
	banner := color.CyanString(`
┌─┐┌─┐┬─┐┌─┐┬ ┬┌─┐
├─┘├─┤├┬┘│  │ │└─┐
┴  ┴ ┴┴└─└─┘└─┘└─┘  v%s
`, Version)
	fmt.Fprintln(w, banner)
	fmt.Fprintln(w, color.HiBlackString(Description))
	fmt.Fprintln(w)
}
