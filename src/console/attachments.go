package console

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"opsdesk/src/gateway"
	"opsdesk/src/models"
	"opsdesk/src/permissions"
	"opsdesk/src/types"
	"opsdesk/src/views"

	"github.com/spf13/cobra"
)

// attachmentStore is satisfied by every gateway.Resource.
type attachmentStore interface {
	PathOf(id uint, sub ...string) string
	UploadAttachments(ctx context.Context, id uint, files []gateway.Upload) ([]models.Attachment, []types.RejectedFile, error)
	DownloadAttachment(ctx context.Context, id uint, attachmentID uint, w io.Writer) (string, error)
	DeleteAttachment(ctx context.Context, id uint, attachmentID uint) error
}

// owner describes a record type that carries attachments or comments.
type owner struct {
	Noun  string
	Cache string
	View  permissions.Capability
	Edit  permissions.Capability
	// Comment is empty when the record type has no discussion.
	Comment permissions.Capability
	Store   func(c *gateway.Client) attachmentStore
}

var (
	bugOwner = owner{
		Noun: "bug", Cache: views.Bugs.Name,
		View: permissions.BugsView, Edit: permissions.BugsEdit, Comment: permissions.BugsComment,
		Store: func(c *gateway.Client) attachmentStore { return c.Resources().Bugs },
	}
	projectOwner = owner{
		Noun: "project", Cache: views.Projects.Name,
		View: permissions.ProjectsView, Comment: permissions.ProjectsView,
		Store: func(c *gateway.Client) attachmentStore { return c.Resources().Projects },
	}
	inventoryOwner = owner{
		Noun: "inventory item", Cache: views.Inventory.Name,
		View: permissions.InventoryView, Edit: permissions.InventoryEdit,
		Store: func(c *gateway.Client) attachmentStore { return c.Resources().Inventory },
	}
)

func can(c permissions.Capability) func(views.Viewer) bool {
	return func(v views.Viewer) bool { return v.Can(c) }
}

func newCommentCommand(opts *RootOptions, o owner) *cobra.Command {
	var body string
	cmd := &cobra.Command{
		Use:   "comment <id>",
		Short: fmt.Sprintf("Add a comment to a %s", o.Noun),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := gated(opts, can(o.Comment)); err != nil {
				return opts.fail(cmd, err, "")
			}
			if body == "" {
				return fmt.Errorf("--body is required")
			}
			path := o.Store(opts.Client).PathOf(id, "comments")
			if _, err := gateway.Call[models.BugComment](cmd.Context(), opts.Client, http.MethodPost, path, map[string]string{"body": body}); err != nil {
				return opts.fail(cmd, err, "Could not add the comment")
			}
			renderSuccess(cmd.OutOrStdout(), "Comment added")
			return nil
		},
	}
	cmd.Flags().StringVarP(&body, "body", "m", "", "comment text")
	return cmd
}

func newAttachCommand(opts *RootOptions, o owner) *cobra.Command {
	return &cobra.Command{
		Use:   "attach <id> <file>...",
		Short: fmt.Sprintf("Upload attachments to a %s", o.Noun),
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := gated(opts, can(o.Edit)); err != nil {
				return opts.fail(cmd, err, "")
			}
			files, opened, err := readUploads(args[1:])
			if err != nil {
				return err
			}
			defer closeAll(opened)
			stored, rejected, err := o.Store(opts.Client).UploadAttachments(cmd.Context(), id, files)
			if err != nil {
				return opts.fail(cmd, err, "Could not upload the attachments")
			}
			renderRejected(cmd.ErrOrStderr(), rejected)
			opts.Cache.Invalidate(o.Cache)
			renderSuccess(cmd.OutOrStdout(), fmt.Sprintf("%d attachment(s) uploaded", len(stored)))
			return nil
		},
	}
}

func newDownloadCommand(opts *RootOptions, o owner) *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "download <id> <attachment-id>",
		Short: fmt.Sprintf("Save a %s attachment to disk", o.Noun),
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			attachmentID, err := parseID(args[1])
			if err != nil {
				return err
			}
			if err := gated(opts, can(o.View)); err != nil {
				return opts.fail(cmd, err, "")
			}
			tmp, err := os.CreateTemp(dir, ".opsdesk-download-*")
			if err != nil {
				return err
			}
			defer os.Remove(tmp.Name())
			name, err := o.Store(opts.Client).DownloadAttachment(cmd.Context(), id, attachmentID, tmp)
			tmp.Close()
			if err != nil {
				return opts.fail(cmd, err, "Could not download the attachment")
			}
			if name == "" {
				name = fmt.Sprintf("attachment-%d", attachmentID)
			}
			target := filepath.Join(dir, filepath.Base(name))
			if err := os.Rename(tmp.Name(), target); err != nil {
				return err
			}
			renderSuccess(cmd.OutOrStdout(), "Saved "+target)
			return nil
		},
	}
	cmd.Flags().StringVarP(&dir, "dir", "d", ".", "directory to save into")
	return cmd
}

func newRemoveAttachmentCommand(opts *RootOptions, o owner) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "remove-attachment <id> <attachment-id>",
		Short: fmt.Sprintf("Delete a %s attachment", o.Noun),
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			attachmentID, err := parseID(args[1])
			if err != nil {
				return err
			}
			if err := gated(opts, can(o.Edit)); err != nil {
				return opts.fail(cmd, err, "")
			}
			if !yes && !confirm(cmd, fmt.Sprintf("Delete attachment %d?", attachmentID)) {
				return nil
			}
			if err := o.Store(opts.Client).DeleteAttachment(cmd.Context(), id, attachmentID); err != nil {
				return opts.fail(cmd, err, "Could not delete the attachment")
			}
			opts.Cache.Invalidate(o.Cache)
			renderSuccess(cmd.OutOrStdout(), "Attachment deleted")
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}
