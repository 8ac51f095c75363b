package bench

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/olekukonko/tablewriter"
)

// colorScheme provides color functions for the rendered tables. Colors are
// disabled for non-TTY writers or when noColor is set.
type colorScheme struct {
	header   func(format string, a ...interface{}) string
	label    func(format string, a ...interface{}) string
	duration func(format string, a ...interface{}) string
	good     func(format string, a ...interface{}) string
	warn     func(format string, a ...interface{}) string
	disabled bool
}

func newColorScheme(w io.Writer, noColor bool) *colorScheme {
	if noColor || !isTTY(w) {
		plain := color.New().Sprintf
		return &colorScheme{
			header:   plain,
			label:    plain,
			duration: plain,
			good:     plain,
			warn:     plain,
			disabled: true,
		}
	}
	return &colorScheme{
		header:   color.New(color.FgWhite, color.Bold).Sprintf,
		label:    color.New(color.FgCyan, color.Bold).Sprintf,
		duration: color.New(color.FgBlue).Sprintf,
		good:     color.New(color.FgGreen).Sprintf,
		warn:     color.New(color.FgYellow).Sprintf,
	}
}

func isTTY(w io.Writer) bool {
	if f, ok := w.(*os.File); ok {
		return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return false
}

// newTable applies the kubectl-style table configuration.
func newTable(w io.Writer) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")
	table.SetNoWhiteSpace(true)
	return table
}

func setHeader(table *tablewriter.Table, colors *colorScheme, headers []string) {
	if colors.disabled {
		table.SetHeader(headers)
		return
	}
	colored := make([]string, len(headers))
	for i, h := range headers {
		colored[i] = colors.header(h)
	}
	table.SetHeader(colored)
}

// Render writes one row per result, plus a stealing speedup summary when the
// slice holds exactly a steal-on/steal-off pair over the same load.
func Render(w io.Writer, results []Result, noColor bool) {
	if len(results) == 0 {
		fmt.Fprintln(w, "No results")
		return
	}

	colors := newColorScheme(w, noColor)
	table := newTable(w)
	setHeader(table, colors, []string{"LABEL", "WORKERS", "TASKS", "SUBMISSION", "STEAL", "ELAPSED", "TASKS/SEC", "STOLEN"})

	for _, res := range results {
		steal := "on"
		if res.StealDisabled {
			steal = "off"
		}
		label := res.Label
		elapsed := res.Elapsed.Round(10 * time.Microsecond).String()
		if !colors.disabled {
			label = colors.label(label)
			elapsed = colors.duration(elapsed)
		}
		table.Append([]string{
			label,
			strconv.Itoa(res.Workers),
			strconv.Itoa(res.Tasks),
			string(res.Submission),
			steal,
			elapsed,
			strconv.FormatFloat(res.Throughput, 'f', 0, 64),
			strconv.FormatUint(res.Stolen, 10),
		})
	}
	table.Render()

	if len(results) == 2 && results[0].Tasks == results[1].Tasks &&
		!results[0].StealDisabled && results[1].StealDisabled {
		renderSpeedup(w, results[0], results[1], colors)
	}
}

func renderSpeedup(w io.Writer, on, off Result, colors *colorScheme) {
	if on.Elapsed <= 0 {
		return
	}
	factor := off.Elapsed.Seconds() / on.Elapsed.Seconds()
	text := fmt.Sprintf("stealing %.2fx faster", factor)
	if !colors.disabled {
		if factor >= 1 {
			text = colors.good(text)
		} else {
			text = colors.warn(text)
		}
	}
	fmt.Fprintln(w, "")
	fmt.Fprintf(w, "Summary: %s (on=%s, off=%s)\n",
		text,
		on.Elapsed.Round(10*time.Microsecond),
		off.Elapsed.Round(10*time.Microsecond))
}

// RenderWorkerStats writes the per-worker breakdown of one result.
func RenderWorkerStats(w io.Writer, res Result, noColor bool) {
	colors := newColorScheme(w, noColor)
	table := newTable(w)
	setHeader(table, colors, []string{"WORKER", "NAME", "MODE", "EXECUTED", "STOLEN", "QUEUE"})

	for _, ws := range res.PerWorker {
		name := ws.DebugName
		if !colors.disabled {
			name = colors.label(name)
		}
		table.Append([]string{
			strconv.Itoa(ws.Index),
			name,
			ws.SharingMode.String(),
			strconv.FormatUint(ws.Executed, 10),
			strconv.FormatUint(ws.Stolen, 10),
			strconv.Itoa(ws.QueueDepth),
		})
	}
	table.Render()
}
