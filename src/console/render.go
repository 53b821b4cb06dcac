package console

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"opsdesk/src/models"
	"opsdesk/src/types"
	"opsdesk/src/views"

	"github.com/charmbracelet/lipgloss"
)

// Styles for terminal output
var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00D4FF"))
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#A6E22E"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FD971F"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#F92672"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666"))
)

// Column is one column of a list table.
type Column[T any] struct {
	Title string
	Value func(T) string
}

func renderList[T any](w io.Writer, title string, list *views.ListView[T], cols []Column[T]) {
	fmt.Fprintln(w, headerStyle.Render(title))
	if len(list.Rows) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("  No records found."))
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	head := make([]string, 0, len(cols)+1)
	for _, c := range cols {
		head = append(head, strings.ToUpper(c.Title))
	}
	head = append(head, "ACTIONS")
	fmt.Fprintln(tw, strings.Join(head, "\t"))
	for _, r := range list.Rows {
		cells := make([]string, 0, len(cols)+1)
		for _, c := range cols {
			cells = append(cells, orPlaceholder(c.Value(r.Item)))
		}
		actions := make([]string, len(r.Actions))
		for i, a := range r.Actions {
			actions[i] = string(a)
		}
		cells = append(cells, strings.Join(actions, ","))
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	tw.Flush()

	fmt.Fprintf(w, "%s page %d of %d, %d total\n", labelStyle.Render("·"), list.Page.Page, max(list.Page.Pages, 1), list.Page.Total)
	renderSummary(w, list.Summary)
}

func renderSummary(w io.Writer, s views.Summary) {
	if len(s.Counts) == 0 {
		return
	}
	keys := make([]string, 0, len(s.Counts))
	for k := range s.Counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s: %d", k, s.Counts[k])
	}
	line := strings.Join(parts, "  ")
	if s.Partial {
		line += mutedStyle.Render("  (this page only)")
	}
	fmt.Fprintf(w, "%s %s\n", labelStyle.Render("·"), line)
}

func renderDetail[T any](w io.Writer, title string, v *views.DetailView[T], fields []string) {
	fmt.Fprintln(w, headerStyle.Render(title))
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, f := range fields {
		fmt.Fprintf(tw, "  %s\t%s\n", views.Label(f), v.Field(f))
	}
	tw.Flush()
}

func renderRejected(w io.Writer, rejected []types.RejectedFile) {
	for _, r := range rejected {
		fmt.Fprintln(w, warningStyle.Render("  skipped "+r.Reason))
	}
}

func renderNotice(w io.Writer, n views.Notice) {
	switch n.Kind {
	case views.NoticeNone:
		return
	case views.NoticeUnavailable, views.NoticeDenied:
		fmt.Fprintln(w, warningStyle.Render(n.Message))
	default:
		fmt.Fprintln(w, errorStyle.Render(n.Message))
	}
}

func renderSuccess(w io.Writer, msg string) {
	fmt.Fprintln(w, successStyle.Render(msg))
}

func orPlaceholder(s string) string {
	if strings.TrimSpace(s) == "" {
		return views.Placeholder
	}
	return s
}

func renderSection(w io.Writer, name string, s *views.Section) {
	fmt.Fprintln(w, headerStyle.Render(views.Label(name)))
	if s.State() == views.Failed {
		fmt.Fprintln(w, errorStyle.Render("  could not load: "+s.Err().Error()))
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	defer tw.Flush()
	n := 0
	switch items := s.Items.(type) {
	case []models.Attachment:
		for _, a := range items {
			fmt.Fprintf(tw, "  #%d\t%s\t%s\t%d bytes\n", a.ID, a.OriginalFilename, a.MimeType, a.Size)
		}
		n = len(items)
	case []models.BugComment:
		for _, c := range items {
			fmt.Fprintf(tw, "  %s\t%s\t%s\n", c.CreatedAt.Format("2006-01-02 15:04"), orPlaceholder(c.AuthorName), c.Body)
		}
		n = len(items)
	case []models.ProjectComment:
		for _, c := range items {
			fmt.Fprintf(tw, "  %s\t%s\t%s\n", c.CreatedAt.Format("2006-01-02 15:04"), orPlaceholder(c.AuthorName), c.Body)
		}
		n = len(items)
	case []models.AssetAssignment:
		for _, a := range items {
			returned := "current"
			if a.ReturnedAt != nil {
				returned = "returned " + a.ReturnedAt.Format("2006-01-02")
			}
			fmt.Fprintf(tw, "  %s\t%s\t%s\n", a.AssignedAt.Format("2006-01-02"), orPlaceholder(a.UserName), returned)
		}
		n = len(items)
	case []models.EmployeeDocument:
		for _, d := range items {
			verified := "unverified"
			if d.Verified {
				verified = "verified"
			}
			fmt.Fprintf(tw, "  #%d\t%s\t%s\t%s\n", d.ID, d.DocumentType, d.OriginalFilename, verified)
		}
		n = len(items)
	case []models.InventoryTransaction:
		for _, t := range items {
			fmt.Fprintf(tw, "  %s\t%+d\t%d\t%s\n", t.CreatedAt.Format("2006-01-02 15:04"), t.Delta, t.QuantityAfter, t.Reason)
		}
		n = len(items)
	}
	if n == 0 {
		fmt.Fprintln(tw, mutedStyle.Render("  none"))
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
