// Package announce prints the operator-facing progress lines of a run: rule
// files read or skipped and every collection or actor edit. These lines go to
// stdout and are separate from the structured diagnostics in the log.
package announce

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"autocollect/internal/catalog"
)

// Reporter writes colorized announcements. A nil Reporter discards output.
type Reporter struct {
	out    io.Writer
	prefix string
	red    *color.Color
	green  *color.Color
	blue   *color.Color
}

// New returns a reporter writing to out. Color is used only when out is a
// terminal and NO_COLOR is unset.
func New(out io.Writer) *Reporter {
	return NewWithColor(out, shouldColorize(out))
}

// NewWithColor returns a reporter with color forced on or off.
func NewWithColor(out io.Writer, colorize bool) *Reporter {
	if out == nil {
		out = io.Discard
	}
	r := &Reporter{
		out:   out,
		red:   color.New(color.FgRed),
		green: color.New(color.FgGreen),
		blue:  color.New(color.FgBlue),
	}
	for _, c := range []*color.Color{r.red, r.green, r.blue} {
		if colorize {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return r
}

// DryRun marks every following edit announcement as not applied.
func (r *Reporter) DryRun() {
	if r == nil {
		return
	}
	r.prefix = "[dry run] "
}

// Reading announces a rule file being loaded.
func (r *Reporter) Reading(path string) {
	if r == nil {
		return
	}
	fmt.Fprintln(r.out, r.green.Sprintf("Reading %s...", path))
}

// Skipping announces a rule file that is missing or empty.
func (r *Reporter) Skipping(path string) {
	if r == nil {
		return
	}
	fmt.Fprintf(r.out, "%s %s\n", r.red.Sprint(path), r.blue.Sprint("is missing or empty. Skipping..."))
}

// CollectionAdded announces an item joining a collection.
func (r *Reporter) CollectionAdded(item catalog.Item, collection string) {
	if r == nil {
		return
	}
	fmt.Fprintf(r.out, "%sAdding %s to collection %s\n", r.prefix, r.red.Sprint(item.Title), r.blue.Sprint(collection))
}

// ActorAdded announces an actor tag added to an item.
func (r *Reporter) ActorAdded(item catalog.Item, actor string) {
	if r == nil {
		return
	}
	fmt.Fprintf(r.out, "%sAdding actor %s to %s %s\n", r.prefix, r.green.Sprint(actor), noun(item), r.red.Sprint(item.Title))
}

// ActorRemoved announces an actor tag removed from an item.
func (r *Reporter) ActorRemoved(item catalog.Item, actor string) {
	if r == nil {
		return
	}
	fmt.Fprintf(r.out, "%sRemoving actor %s from %s %s\n", r.prefix, r.green.Sprint(actor), noun(item), r.red.Sprint(item.Title))
}

// ThumbSet announces an actor thumbnail edit.
func (r *Reporter) ThumbSet(item catalog.Item, actor string) {
	if r == nil {
		return
	}
	fmt.Fprintf(r.out, "%sSetting thumb for actor %s on %s %s\n", r.prefix, r.green.Sprint(actor), noun(item), r.red.Sprint(item.Title))
}

// Break prints an empty separator line.
func (r *Reporter) Break() {
	if r == nil {
		return
	}
	fmt.Fprintln(r.out)
}

func noun(item catalog.Item) string {
	if item.Type == catalog.TypeEpisode {
		return "episode"
	}
	return "movie"
}

func shouldColorize(writer io.Writer) bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
