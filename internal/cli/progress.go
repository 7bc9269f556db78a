package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/mvp-joe/carve/internal/runner"
)

// CLIProgressReporter implements progress reporting with progress bars.
type CLIProgressReporter struct {
	quiet          bool
	out            io.Writer
	fileBar        *progressbar.ProgressBar
	startTime      time.Time
	totalFiles     int
	processedFiles int
}

// NewCLIProgressReporter creates a new CLI progress reporter writing to out,
// or stdout when out is nil.
func NewCLIProgressReporter(quiet bool, out io.Writer) *CLIProgressReporter {
	if out == nil {
		out = os.Stdout
	}
	return &CLIProgressReporter{
		quiet:     quiet,
		out:       out,
		startTime: time.Now(),
	}
}

func (c *CLIProgressReporter) OnRunStart(totalFiles int) {
	if c.quiet {
		return
	}
	c.totalFiles = totalFiles
	c.processedFiles = 0

	c.fileBar = progressbar.NewOptions(totalFiles,
		progressbar.OptionSetWriter(c.out),
		progressbar.OptionSetDescription("Carving files"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("files/s"),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(c.out)
		}),
	)
}

func (c *CLIProgressReporter) OnFileProcessed(report *runner.FileReport) {
	if c.quiet {
		return
	}
	if c.fileBar != nil {
		c.processedFiles++
		_ = c.fileBar.Add(1)
	}
}

func (c *CLIProgressReporter) OnComplete(summary *runner.Summary) {
	if c.quiet {
		return
	}
	if c.fileBar != nil {
		_ = c.fileBar.Finish()
		c.fileBar = nil
	}

	keys, written, skipped, planned, anomalies := summary.Totals()
	fmt.Fprintln(c.out)
	fmt.Fprintf(c.out, "✓ Extraction complete: %s keys from %s files in %.1fs\n",
		formatNumber(keys), formatNumber(len(summary.Files)), summary.Duration.Seconds())
	fmt.Fprintf(c.out, "  Written:   %s\n", formatNumber(written))
	fmt.Fprintf(c.out, "  Skipped:   %s\n", formatNumber(skipped))
	if planned > 0 {
		fmt.Fprintf(c.out, "  Planned:   %s (dry run)\n", formatNumber(planned))
	}
	fmt.Fprintf(c.out, "  Anomalies: %s\n", formatNumber(anomalies))

	for _, f := range summary.Files {
		if f.Err != nil {
			fmt.Fprintf(c.out, "✗ %s: %v\n", f.Source, f.Err)
		}
		if len(f.Kept) > 0 {
			fmt.Fprintf(c.out, "! %s: kept in source, generated output already differs: %s\n", f.Source, strings.Join(f.Kept, ", "))
		}
	}
}

// formatNumber renders n with thousands separators.
func formatNumber(n int) string {
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}

	str := fmt.Sprintf("%d", n)
	var result string
	for i, c := range str {
		if i > 0 && (len(str)-i)%3 == 0 {
			result += ","
		}
		result += string(c)
	}
	return result
}
