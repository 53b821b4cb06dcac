package console

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"opsdesk/src/gateway"
	"opsdesk/src/uploads"
	"opsdesk/src/views"

	"github.com/spf13/cobra"
)

// entityDef wires one entity type into the generic list, get, create, update
// and delete commands.
type entityDef[T any] struct {
	Use      string
	Aliases  []string
	Entity   views.Entity[T]
	Resource func(c *gateway.Client) *gateway.Resource[T]
	Columns  []Column[T]
	Fields   []string
	Filters  []string
	Label    func(T) string
	// Sections are loaded next to the record on get.
	Sections func(c *gateway.Client) map[string]views.Loader
	Files    bool
}

func newEntityCommand[T any](opts *RootOptions, def entityDef[T]) *cobra.Command {
	cmd := &cobra.Command{
		Use:     def.Use,
		Aliases: def.Aliases,
		Short:   fmt.Sprintf("Manage %s", def.Entity.Name),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if root := cmd.Root(); root.PersistentPreRunE != nil {
				if err := root.PersistentPreRunE(cmd, args); err != nil {
					return err
				}
			}
			return opts.requireSession()
		},
	}
	cmd.AddCommand(newListCommand(opts, def))
	cmd.AddCommand(newGetCommand(opts, def))
	cmd.AddCommand(newCreateCommand(opts, def))
	cmd.AddCommand(newUpdateCommand(opts, def))
	cmd.AddCommand(newDeleteCommand(opts, def))
	return cmd
}

func parseID(s string) (uint, error) {
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil || n == 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return uint(n), nil
}

func newListCommand[T any](opts *RootOptions, def entityDef[T]) *cobra.Command {
	var (
		q       gateway.ListQuery
		mine    bool
		filters map[string]string
	)
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   fmt.Sprintf("List %s", def.Entity.Name),
		RunE: func(cmd *cobra.Command, args []string) error {
			q.Scope = gateway.ScopeAll
			if mine {
				q.Scope = gateway.ScopeMine
			}
			q.Filters = map[string]string{}
			for k, v := range filters {
				if !contains(def.Filters, k) {
					return fmt.Errorf("unknown filter %q, expected one of %s", k, strings.Join(def.Filters, ", "))
				}
				q.Filters[k] = v
			}
			list := views.NewListView(def.Entity, def.Resource(opts.Client), opts.Cache, opts.Viewer())
			if err := list.Load(cmd.Context(), q); err != nil {
				return opts.fail(cmd, err, fmt.Sprintf("Could not load %s", def.Entity.Name))
			}
			renderList(cmd.OutOrStdout(), strings.ToUpper(def.Entity.Name[:1])+def.Entity.Name[1:], list, def.Columns)
			return nil
		},
	}
	cmd.Flags().IntVar(&q.Page, "page", 1, "page number")
	cmd.Flags().IntVar(&q.Limit, "limit", 20, "rows per page (max 100)")
	cmd.Flags().StringVarP(&q.Search, "search", "s", "", "free text search")
	cmd.Flags().BoolVar(&mine, "mine", false, "only records that belong to me")
	cmd.Flags().StringToStringVarP(&filters, "filter", "f", nil, fmt.Sprintf("filter by field (%s)", strings.Join(def.Filters, ", ")))
	return cmd
}

func newGetCommand[T any](opts *RootOptions, def entityDef[T]) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: fmt.Sprintf("Show one %s", strings.ToLower(def.Entity.Title)),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			var sections map[string]views.Loader
			if def.Sections != nil {
				sections = def.Sections(opts.Client)
			}
			detail := views.NewDetailView(def.Entity, def.Resource(opts.Client), opts.Cache, opts.Viewer(), sections)
			if err := detail.Load(cmd.Context(), id); err != nil {
				if detail.NotFound {
					renderNotice(cmd.ErrOrStderr(), views.Notice{Kind: views.NoticeNotFound, Message: fmt.Sprintf("%s %d not found", def.Entity.Title, id)})
					return reportedError{err}
				}
				return opts.fail(cmd, err, fmt.Sprintf("Could not load %s %d", strings.ToLower(def.Entity.Title), id))
			}
			w := cmd.OutOrStdout()
			renderDetail(w, fmt.Sprintf("%s %s", def.Entity.Title, def.Label(*detail.Item)), detail, def.Fields)
			for _, name := range sortedKeys(detail.Sections) {
				renderSection(w, name, detail.Sections[name])
			}
			return nil
		},
	}
}

// readUploads opens each path for a multipart request. The caller closes the files.
func readUploads(paths []string) ([]gateway.Upload, []*os.File, error) {
	out := make([]gateway.Upload, 0, len(paths))
	opened := make([]*os.File, 0, len(paths))
	for _, p := range paths {
		f, err := os.Open(p)
		if err != nil {
			closeAll(opened)
			return nil, nil, err
		}
		info, err := f.Stat()
		if err != nil {
			f.Close()
			closeAll(opened)
			return nil, nil, err
		}
		opened = append(opened, f)
		name := filepath.Base(p)
		out = append(out, gateway.Upload{
			File:    uploads.File{Name: name, MimeType: uploads.MimeType(name, ""), Size: info.Size()},
			Content: f,
		})
	}
	return out, opened, nil
}

func closeAll(files []*os.File) {
	for _, f := range files {
		f.Close()
	}
}

func submitForm[T any](cmd *cobra.Command, opts *RootOptions, def entityDef[T], form *views.Form[T], values map[string]string, files []string, verb string) error {
	for k, v := range values {
		form.Set(k, v)
	}
	if len(files) > 0 {
		ups, opened, err := readUploads(files)
		if err != nil {
			return err
		}
		defer closeAll(opened)
		renderRejected(cmd.ErrOrStderr(), form.Attach(ups...))
	}
	item, err := form.Submit(cmd.Context())
	if err != nil {
		return opts.fail(cmd, err, fmt.Sprintf("Could not %s %s", verb, strings.ToLower(def.Entity.Title)))
	}
	renderSuccess(cmd.OutOrStdout(), fmt.Sprintf("%s %s %sd", def.Entity.Title, def.Label(*item), verb))
	return nil
}

func newCreateCommand[T any](opts *RootOptions, def entityDef[T]) *cobra.Command {
	var (
		values map[string]string
		files  []string
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: fmt.Sprintf("Create a %s", strings.ToLower(def.Entity.Title)),
		RunE: func(cmd *cobra.Command, args []string) error {
			form := views.NewForm(def.Entity, def.Resource(opts.Client), opts.Cache, opts.Viewer())
			return submitForm(cmd, opts, def, form, values, files, "create")
		},
	}
	cmd.Flags().StringToStringVar(&values, "set", nil, "field=value pairs")
	if def.Files {
		cmd.Flags().StringSliceVar(&files, "file", nil, "files to attach")
	}
	return cmd
}

func newUpdateCommand[T any](opts *RootOptions, def entityDef[T]) *cobra.Command {
	var (
		values map[string]string
		files  []string
	)
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: fmt.Sprintf("Update a %s", strings.ToLower(def.Entity.Title)),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			form := views.EditForm(def.Entity, def.Resource(opts.Client), opts.Cache, opts.Viewer())
			if err := form.Load(cmd.Context(), id); err != nil {
				return opts.fail(cmd, err, fmt.Sprintf("Could not load %s %d", strings.ToLower(def.Entity.Title), id))
			}
			return submitForm(cmd, opts, def, form, values, files, "update")
		},
	}
	cmd.Flags().StringToStringVar(&values, "set", nil, "field=value pairs")
	if def.Files {
		cmd.Flags().StringSliceVar(&files, "file", nil, "files to attach")
	}
	return cmd
}

func newDeleteCommand[T any](opts *RootOptions, def entityDef[T]) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: fmt.Sprintf("Delete a %s", strings.ToLower(def.Entity.Title)),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			del := views.NewDeleteConfirmation(def.Entity, def.Resource(opts.Client), opts.Cache, opts.Viewer())
			pending, err := del.Request(id, fmt.Sprintf("%s %d", def.Entity.Title, id))
			if err != nil {
				return opts.fail(cmd, err, "")
			}
			if !yes && !confirm(cmd, fmt.Sprintf("Delete %s? This cannot be undone.", pending.Label)) {
				del.Cancel()
				fmt.Fprintln(cmd.OutOrStdout(), mutedStyle.Render("Cancelled"))
				return nil
			}
			if err := del.Confirm(cmd.Context(), pending); err != nil {
				return opts.fail(cmd, err, fmt.Sprintf("Could not delete %s", pending.Label))
			}
			renderSuccess(cmd.OutOrStdout(), fmt.Sprintf("%s deleted", pending.Label))
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

// gated runs an action command only when the viewer holds its capability.
func gated(opts *RootOptions, can func(views.Viewer) bool) error {
	if !can(opts.Viewer()) {
		return views.ErrDenied
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
