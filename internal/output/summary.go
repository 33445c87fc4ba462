package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/vulnverified/sitevault/internal/engine"
)

// Version is set via ldflags at build time.
var Version = "dev"

func bold(s string, noColor bool) string {
	if noColor {
		return s
	}
	return "\033[1m" + s + "\033[0m"
}

func warnMark(noColor bool) string {
	if noColor {
		return "!"
	}
	return "\033[33m!\033[0m"
}

// WriteHeader prints the sitevault banner.
func WriteHeader(w io.Writer, noColor bool) {
	fmt.Fprintf(w, "%s (application backup planner)\n\n", bold("sitevault "+Version, noColor))
}

// WritePlanSummary prints the sizing figures under the plan table.
func WritePlanSummary(w io.Writer, result *engine.RunResult, noColor bool) {
	s := result.Summary

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s %s\n", bold("Targets:", noColor), strings.Join(result.Targets, ", "))
	fmt.Fprintf(w, "%s %d matched (%d cms, %d generic), %d skipped\n",
		bold("Applications:", noColor), s.Apps, s.CMSApps, s.GenericApps, len(result.Skips))
	fmt.Fprintf(w, "%s %s web + %s db = %s\n",
		bold("Backup size:", noColor), HumanSize(s.WebBytes), HumanSize(s.DBBytes), HumanSize(s.TotalBytes))

	where := result.Storage.Path
	if !result.Storage.Preferred {
		where += " (root filesystem)"
	}
	fmt.Fprintf(w, "%s %s available on %s\n", bold("Storage:", noColor), HumanSize(int64(s.AvailableBytes)), where)

	if len(result.Skips) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "%s %d applications skipped\n", warnMark(noColor), len(result.Skips))
		for _, sk := range result.Skips {
			fmt.Fprintf(w, "  %s: %s\n", sk.App, sk.Reason)
		}
	}

	if len(result.Warnings) > 0 {
		fmt.Fprintln(w)
		for _, msg := range result.Warnings {
			fmt.Fprintf(w, "%s %s\n", warnMark(noColor), msg)
		}
	}
}

// WriteBackupSummary prints the outcome of the backup phase and the
// download locations.
func WriteBackupSummary(w io.Writer, result *engine.RunResult, noColor bool) {
	s := result.Summary

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s %d archived, %d failed\n", bold("Backups:", noColor), s.Archived, s.Failed)
	if result.OutputDir != "" {
		fmt.Fprintf(w, "%s %s\n", bold("Directory:", noColor), result.OutputDir)
	}

	for _, a := range result.Artifacts {
		if a.Error != "" {
			fmt.Fprintf(w, "%s %s (%s): %s\n", warnMark(noColor), a.App, a.Domain, a.Error)
		}
	}

	urls := result.URLs()
	if len(urls) == 0 {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, bold("Download URLs:", noColor))
	WriteURLs(w, urls)
}
