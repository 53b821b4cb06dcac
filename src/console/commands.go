package console

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"opsdesk/src/gateway"
	"opsdesk/src/models"
	"opsdesk/src/permissions"
	"opsdesk/src/types"
	"opsdesk/src/views"

	"github.com/spf13/cobra"
)

func idOf(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

func NewBugsCommand(opts *RootOptions) *cobra.Command {
	cmd := newEntityCommand(opts, entityDef[models.Bug]{
		Use:      "bugs",
		Aliases:  []string{"bug"},
		Entity:   views.Bugs,
		Resource: func(c *gateway.Client) *gateway.Resource[models.Bug] { return c.Resources().Bugs },
		Columns: []Column[models.Bug]{
			{"ID", func(b models.Bug) string { return idOf(b.ID) }},
			{"Code", func(b models.Bug) string { return b.BugCode }},
			{"Title", func(b models.Bug) string { return b.Title }},
			{"Severity", func(b models.Bug) string { return b.Severity }},
			{"Priority", func(b models.Bug) string { return b.Priority }},
			{"Status", func(b models.Bug) string { return views.Bugs.Status.Normalize(b.Status) }},
			{"Assignee", func(b models.Bug) string { return b.AssignedToName }},
		},
		Fields: []string{
			"bug_code", "title", "status", "severity", "priority", "bug_type", "resolution_type",
			"project_name", "assigned_to_name", "reported_by_name", "team_lead_name",
			"description", "steps_to_reproduce", "expected_behavior", "actual_behavior",
			"browser", "device", "os", "app_version", "api_endpoint",
			"target_fix_date", "actual_fix_date", "reopened_count", "created_at", "updated_at",
		},
		Filters: []string{"status", "severity", "priority", "bug_type", "project_id", "assigned_to"},
		Label:   func(b models.Bug) string { return b.BugCode },
		Sections: func(c *gateway.Client) map[string]views.Loader {
			bugs := c.Resources().Bugs
			return map[string]views.Loader{
				"attachments": func(ctx context.Context, id uint) (any, error) {
					return bugs.ListAttachments(ctx, id)
				},
				"comments": func(ctx context.Context, id uint) (any, error) {
					return gateway.Related[models.BugComment](ctx, c, bugs.PathOf(id, "comments"))
				},
			}
		},
		Files: true,
	})
	cmd.AddCommand(newCommentCommand(opts, bugOwner))
	cmd.AddCommand(newAttachCommand(opts, bugOwner))
	cmd.AddCommand(newDownloadCommand(opts, bugOwner))
	cmd.AddCommand(newRemoveAttachmentCommand(opts, bugOwner))
	return cmd
}

func NewProjectsCommand(opts *RootOptions) *cobra.Command {
	cmd := newEntityCommand(opts, entityDef[models.Project]{
		Use:      "projects",
		Aliases:  []string{"project"},
		Entity:   views.Projects,
		Resource: func(c *gateway.Client) *gateway.Resource[models.Project] { return c.Resources().Projects },
		Columns: []Column[models.Project]{
			{"ID", func(p models.Project) string { return idOf(p.ID) }},
			{"Name", func(p models.Project) string { return p.Name }},
			{"Code", func(p models.Project) string { return p.Code }},
			{"Status", func(p models.Project) string { return views.Projects.Status.Normalize(p.Status) }},
			{"Progress", func(p models.Project) string { return fmt.Sprintf("%d%%", p.Progress) }},
			{"Manager", func(p models.Project) string { return p.ManagerName }},
		},
		Fields: []string{
			"name", "slug", "code", "status", "progress", "manager_name",
			"start_date", "end_date", "member_ids", "description", "created_at", "updated_at",
		},
		Filters: []string{"status", "manager_id"},
		Label:   func(p models.Project) string { return p.Name },
		Sections: func(c *gateway.Client) map[string]views.Loader {
			projects := c.Resources().Projects
			return map[string]views.Loader{
				"comments": func(ctx context.Context, id uint) (any, error) {
					return gateway.Related[models.ProjectComment](ctx, c, projects.PathOf(id, "comments"))
				},
			}
		},
	})
	cmd.AddCommand(newMembersCommand(opts))
	cmd.AddCommand(newCommentCommand(opts, projectOwner))
	return cmd
}

func newMembersCommand(opts *RootOptions) *cobra.Command {
	var (
		members []uint
		roles   map[string]string
	)
	cmd := &cobra.Command{
		Use:   "members <id>",
		Short: "Replace the members of a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := gated(opts, func(v views.Viewer) bool { return v.Can(permissions.ProjectsMembers) }); err != nil {
				return opts.fail(cmd, err, "")
			}
			payload := map[string]any{"member_ids": members, "member_roles": roles}
			if members == nil {
				payload["member_ids"] = []uint{}
			}
			project, err := opts.Client.Resources().Projects.Action(cmd.Context(), http.MethodPut, id, "members", payload)
			if err != nil {
				return opts.fail(cmd, err, "Could not update the members")
			}
			opts.Cache.Invalidate(views.Projects.Name)
			renderSuccess(cmd.OutOrStdout(), fmt.Sprintf("%s now has %d members", project.Name, len(project.MemberIDs)))
			return nil
		},
	}
	cmd.Flags().UintSliceVar(&members, "member", nil, "member user ids")
	cmd.Flags().StringToStringVar(&roles, "role", nil, "user_id=role pairs")
	return cmd
}

func NewEmployeesCommand(opts *RootOptions) *cobra.Command {
	cmd := newEntityCommand(opts, entityDef[models.Employee]{
		Use:      "employees",
		Aliases:  []string{"employee"},
		Entity:   views.Employees,
		Resource: func(c *gateway.Client) *gateway.Resource[models.Employee] { return c.Resources().Employees },
		Columns: []Column[models.Employee]{
			{"ID", func(e models.Employee) string { return idOf(e.ID) }},
			{"Code", func(e models.Employee) string { return e.EmployeeCode }},
			{"Name", func(e models.Employee) string { return e.FullName() }},
			{"Email", func(e models.Employee) string { return e.Email }},
			{"Department", func(e models.Employee) string { return e.Department }},
			{"Status", func(e models.Employee) string { return views.Employees.Status.Normalize(e.Status) }},
		},
		Fields: []string{
			"employee_code", "first_name", "last_name", "email", "phone", "department",
			"designation", "status", "date_of_joining",
			"casual_leave_balance", "sick_leave_balance", "earned_leave_balance",
			"created_at", "updated_at",
		},
		Filters: []string{"status", "department"},
		Label:   func(e models.Employee) string { return e.EmployeeCode },
		Sections: func(c *gateway.Client) map[string]views.Loader {
			employees := c.Resources().Employees
			return map[string]views.Loader{
				"documents": func(ctx context.Context, id uint) (any, error) {
					return gateway.Related[models.EmployeeDocument](ctx, c, employees.PathOf(id, "documents"))
				},
			}
		},
	})
	cmd.AddCommand(newUploadDocumentCommand(opts))
	cmd.AddCommand(newVerifyDocumentCommand(opts))
	return cmd
}

func newUploadDocumentCommand(opts *RootOptions) *cobra.Command {
	var docType string
	cmd := &cobra.Command{
		Use:   "upload <id> <file>...",
		Short: "Upload employee documents",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := gated(opts, func(v views.Viewer) bool { return v.Can(permissions.EmployeesEdit) }); err != nil {
				return opts.fail(cmd, err, "")
			}
			if docType == "" {
				return fmt.Errorf("--type is required")
			}
			files, opened, err := readUploads(args[1:])
			if err != nil {
				return err
			}
			defer closeAll(opened)
			var res struct {
				Data     []models.EmployeeDocument `json:"data"`
				Rejected []types.RejectedFile     `json:"rejected"`
			}
			path := opts.Client.Resources().Employees.PathOf(id, "documents")
			err = opts.Client.PostMultipart(cmd.Context(), path, map[string]string{"document_type": docType}, files, &res)
			if err != nil {
				return opts.fail(cmd, err, "Could not upload the documents")
			}
			renderRejected(cmd.ErrOrStderr(), res.Rejected)
			opts.Cache.Invalidate(views.Employees.Name)
			renderSuccess(cmd.OutOrStdout(), fmt.Sprintf("%d document(s) uploaded", len(res.Data)))
			return nil
		},
	}
	cmd.Flags().StringVarP(&docType, "type", "t", "", "document type, e.g. ID Proof")
	return cmd
}

func newVerifyDocumentCommand(opts *RootOptions) *cobra.Command {
	var revoke bool
	cmd := &cobra.Command{
		Use:   "verify <id> <document-id>",
		Short: "Mark an employee document as verified",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			docID, err := parseID(args[1])
			if err != nil {
				return err
			}
			if err := gated(opts, func(v views.Viewer) bool { return v.Can(permissions.EmployeesVerifyDocuments) }); err != nil {
				return opts.fail(cmd, err, "")
			}
			path := opts.Client.Resources().Employees.PathOf(id, "documents", idOf(docID), "verify")
			doc, err := gateway.Call[models.EmployeeDocument](cmd.Context(), opts.Client, http.MethodPatch, path, map[string]bool{"verified": !revoke})
			if err != nil {
				return opts.fail(cmd, err, "Could not update the document")
			}
			opts.Cache.Invalidate(views.Employees.Name)
			state := "verified"
			if !doc.Verified {
				state = "unverified"
			}
			renderSuccess(cmd.OutOrStdout(), fmt.Sprintf("%s is now %s", doc.OriginalFilename, state))
			return nil
		},
	}
	cmd.Flags().BoolVar(&revoke, "revoke", false, "clear the verification instead")
	return cmd
}

func NewAssetsCommand(opts *RootOptions) *cobra.Command {
	cmd := newEntityCommand(opts, entityDef[models.Asset]{
		Use:      "assets",
		Aliases:  []string{"asset"},
		Entity:   views.Assets,
		Resource: func(c *gateway.Client) *gateway.Resource[models.Asset] { return c.Resources().Assets },
		Columns: []Column[models.Asset]{
			{"ID", func(a models.Asset) string { return idOf(a.ID) }},
			{"Tag", func(a models.Asset) string { return a.AssetTag }},
			{"Name", func(a models.Asset) string { return a.Name }},
			{"Category", func(a models.Asset) string { return a.Category }},
			{"Status", func(a models.Asset) string { return views.Assets.Status.Normalize(a.Status) }},
			{"Assigned to", func(a models.Asset) string { return a.AssignedToName }},
		},
		Fields: []string{
			"asset_tag", "name", "category", "serial_number", "status", "assigned_to_name",
			"purchase_date", "purchase_cost", "warranty_expiry", "notes", "created_at", "updated_at",
		},
		Filters: []string{"status", "category", "assigned_to"},
		Label:   func(a models.Asset) string { return a.AssetTag },
		Sections: func(c *gateway.Client) map[string]views.Loader {
			assets := c.Resources().Assets
			return map[string]views.Loader{
				"assignments": func(ctx context.Context, id uint) (any, error) {
					return gateway.Related[models.AssetAssignment](ctx, c, assets.PathOf(id, "assignments"))
				},
			}
		},
	})
	cmd.AddCommand(newAssignCommand(opts))
	return cmd
}

func newAssignCommand(opts *RootOptions) *cobra.Command {
	var (
		user     uint
		unassign bool
	)
	cmd := &cobra.Command{
		Use:   "assign <id>",
		Short: "Assign an asset to a user, or return it to the pool",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := gated(opts, func(v views.Viewer) bool { return v.Can(permissions.AssetsAssign) }); err != nil {
				return opts.fail(cmd, err, "")
			}
			if user == 0 && !unassign {
				return fmt.Errorf("pass --user or --unassign")
			}
			payload := map[string]any{"user_id": nil}
			if !unassign {
				payload["user_id"] = user
			}
			asset, err := opts.Client.Resources().Assets.Action(cmd.Context(), http.MethodPost, id, "assign", payload)
			if err != nil {
				return opts.fail(cmd, err, "Could not assign the asset")
			}
			opts.Cache.Invalidate(views.Assets.Name)
			renderSuccess(cmd.OutOrStdout(), fmt.Sprintf("%s is now %s", asset.AssetTag, asset.Status))
			return nil
		},
	}
	cmd.Flags().UintVar(&user, "user", 0, "user id to assign to")
	cmd.Flags().BoolVar(&unassign, "unassign", false, "return the asset to the pool")
	return cmd
}

func NewInventoryCommand(opts *RootOptions) *cobra.Command {
	cmd := newEntityCommand(opts, entityDef[models.InventoryItem]{
		Use:      "inventory",
		Aliases:  []string{"items"},
		Entity:   views.Inventory,
		Resource: func(c *gateway.Client) *gateway.Resource[models.InventoryItem] { return c.Resources().Inventory },
		Columns: []Column[models.InventoryItem]{
			{"ID", func(i models.InventoryItem) string { return idOf(i.ID) }},
			{"SKU", func(i models.InventoryItem) string { return i.SKU }},
			{"Name", func(i models.InventoryItem) string { return i.Name }},
			{"Qty", func(i models.InventoryItem) string { return fmt.Sprintf("%d %s", i.Quantity, i.Unit) }},
			{"Location", func(i models.InventoryItem) string { return i.Location }},
			{"Status", func(i models.InventoryItem) string { return i.Status }},
		},
		Fields: []string{
			"sku", "name", "category", "quantity", "unit", "reorder_level", "location", "status",
			"created_at", "updated_at",
		},
		Filters: []string{"status", "category", "location"},
		Label:   func(i models.InventoryItem) string { return i.SKU },
		Sections: func(c *gateway.Client) map[string]views.Loader {
			inventory := c.Resources().Inventory
			return map[string]views.Loader{
				"transactions": func(ctx context.Context, id uint) (any, error) {
					return gateway.Related[models.InventoryTransaction](ctx, c, inventory.PathOf(id, "transactions"))
				},
				"attachments": func(ctx context.Context, id uint) (any, error) {
					return inventory.ListAttachments(ctx, id)
				},
			}
		},
	})
	cmd.AddCommand(newAdjustCommand(opts))
	cmd.AddCommand(newAttachCommand(opts, inventoryOwner))
	cmd.AddCommand(newDownloadCommand(opts, inventoryOwner))
	cmd.AddCommand(newRemoveAttachmentCommand(opts, inventoryOwner))
	return cmd
}

func newAdjustCommand(opts *RootOptions) *cobra.Command {
	var (
		delta  int
		reason string
	)
	cmd := &cobra.Command{
		Use:   "adjust <id>",
		Short: "Add or remove stock",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := gated(opts, func(v views.Viewer) bool { return v.Can(permissions.InventoryAdjust) }); err != nil {
				return opts.fail(cmd, err, "")
			}
			if delta == 0 || reason == "" {
				return fmt.Errorf("--delta and --reason are required")
			}
			payload := map[string]any{"delta": delta, "reason": reason}
			item, err := opts.Client.Resources().Inventory.Action(cmd.Context(), http.MethodPost, id, "adjust", payload)
			if err != nil {
				return opts.fail(cmd, err, "Could not adjust the stock")
			}
			opts.Cache.Invalidate(views.Inventory.Name)
			renderSuccess(cmd.OutOrStdout(), fmt.Sprintf("%s: %d %s (%s)", item.SKU, item.Quantity, item.Unit, item.Status))
			return nil
		},
	}
	cmd.Flags().IntVar(&delta, "delta", 0, "quantity to add, negative to remove")
	cmd.Flags().StringVarP(&reason, "reason", "r", "", "why the stock changed")
	return cmd
}
