// ABOUTME: Shared output formatting for CLI commands.
// ABOUTME: Renders item listings and job records with color accents.

package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/thuanpham582002/ClipBook/internal/backup"
	"github.com/thuanpham582002/ClipBook/internal/store"
)

const previewWidth = 60

var (
	idColor     = color.New(color.FgCyan)
	typeColor   = color.New(color.FgHiBlack)
	starColor   = color.New(color.FgYellow)
	tagColor    = color.New(color.FgGreen)
	failedColor = color.New(color.FgRed)
	okColor     = color.New(color.FgGreen)
)

// shortID trims a UUID to its first segment for display.
func shortID(id string) string {
	if i := strings.IndexByte(id, '-'); i > 0 {
		return id[:i]
	}
	return id
}

// preview collapses whitespace and truncates content to one line.
func preview(content string) string {
	line := strings.Join(strings.Fields(content), " ")
	if len(line) > previewWidth {
		return line[:previewWidth-3] + "..."
	}
	return line
}

// printItems renders a listing, one item per line.
func printItems(w io.Writer, items []*store.Item) {
	if len(items) == 0 {
		fmt.Fprintln(w, "No items.")
		return
	}
	for _, item := range items {
		star := " "
		if item.Favorite {
			star = starColor.Sprint("★")
		}
		line := fmt.Sprintf("%s %s  %s  %-7s %s",
			star,
			idColor.Sprint(shortID(item.ID)),
			item.Timestamp.Local().Format("2006-01-02 15:04:05"),
			typeColor.Sprint(string(item.ContentType)),
			preview(item.Content))
		if len(item.Tags) > 0 {
			line += "  " + tagColor.Sprintf("[%s]", strings.Join(item.Tags, ", "))
		}
		fmt.Fprintln(w, line)
	}
}

// printJobs renders backup ledger records, newest first.
func printJobs(w io.Writer, jobs []*backup.Job) {
	if len(jobs) == 0 {
		fmt.Fprintln(w, "No backup history.")
		return
	}
	for _, job := range jobs {
		status := okColor.Sprint(string(job.Status))
		if job.Failed() {
			status = failedColor.Sprint(string(job.Status))
		}
		fmt.Fprintf(w, "%s  %s  %-7s %-9s %s  (%d items, %s)\n",
			idColor.Sprint(shortID(job.ID)),
			job.StartTime.Local().Format("2006-01-02 15:04:05"),
			string(job.Operation),
			status,
			job.FilePath,
			job.ItemsCount,
			formatBytes(job.FileSizeBytes))
		if job.ErrorMessage != "" {
			fmt.Fprintf(w, "    %s\n", failedColor.Sprint(job.ErrorMessage))
		}
	}
}

func formatBytes(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}

func formatDuration(d time.Duration) string {
	return d.Round(time.Microsecond).String()
}
