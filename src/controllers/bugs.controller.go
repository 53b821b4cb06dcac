package controllers

import (
	"fmt"
	"net/http"
	"opsdesk/src/common"
	"opsdesk/src/db"
	"opsdesk/src/lib"
	"opsdesk/src/models"
	"opsdesk/src/models/scopes"
	"opsdesk/src/permissions"
	"opsdesk/src/status"
	"opsdesk/src/types"
	"opsdesk/src/utils"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const bugsEntity = "bugs"

func BugsList(ctx *gin.Context) (*types.ListResponse[models.Bug], int, error) {
	var q types.BugQueryFilters
	if err := bindQuery(ctx, &q, &q.ListQuery); err != nil {
		return failWith[types.ListResponse[models.Bug]]("bug", err)
	}
	cache := lib.GetCache()
	key := cacheKey(ctx)
	var cached types.ListResponse[models.Bug]
	if cache.Get(ctx.Request.Context(), bugsEntity, key, &cached) {
		return &cached, http.StatusOK, nil
	}

	userId := ctx.GetUint("id")
	db := db.GetDb()
	base := func() *gorm.DB {
		tx := db.Model(&models.Bug{}).
			Scopes(scopes.Search(q.Search, "title", "description", "bug_code"))
		if q.Status != "" {
			tx = tx.Scopes(scopes.WithStatus(status.Bug.Normalize(q.Status)))
		}
		if q.Severity != "" {
			tx = tx.Where("severity = ?", q.Severity)
		}
		if q.Priority != "" {
			tx = tx.Where("priority = ?", q.Priority)
		}
		if q.BugType != "" {
			tx = tx.Where("bug_type = ?", q.BugType)
		}
		if q.ProjectID > 0 {
			tx = tx.Where("project_id = ?", q.ProjectID)
		}
		if q.AssignedTo > 0 {
			tx = tx.Where("assigned_to = ?", q.AssignedTo)
		}
		if q.Scope == "mine" {
			tx = tx.Scopes(scopes.Mine(userId, "assigned_to", "reported_by", "team_lead_id"))
		}
		return tx
	}
	res, err := listPage[models.Bug](base, q.ListQuery, true)
	if err != nil {
		return failWith[types.ListResponse[models.Bug]]("bug", err)
	}
	resolveBugNames(db, res.Data)
	cache.Set(ctx.Request.Context(), bugsEntity, key, res)
	return res, http.StatusOK, nil
}

func BugsGet(ctx *gin.Context) (*models.Bug, int, error) {
	id, err := bindID(ctx)
	if err != nil {
		return failWith[models.Bug]("bug", err)
	}
	cache := lib.GetCache()
	key := fmt.Sprintf("detail:%d", id)
	var bug models.Bug
	if cache.Get(ctx.Request.Context(), bugsEntity, key, &bug) {
		return &bug, http.StatusOK, nil
	}
	db := db.GetDb()
	if err := db.
		Model(&models.Bug{}).
		Preload("Attachments").
		Scopes(scopes.WithID(id)).
		First(&bug).
		Error; err != nil {
		return failWith[models.Bug]("bug", err)
	}
	bugs := []models.Bug{bug}
	resolveBugNames(db, bugs)
	bug = bugs[0]
	cache.Set(ctx.Request.Context(), bugsEntity, key, &bug)
	return &bug, http.StatusOK, nil
}

func BugsCreate(ctx *gin.Context) (*models.Bug, []types.RejectedFile, int, error) {
	var body types.CreateBugRequestBody
	if err := bind(ctx, &body); err != nil {
		status, err := statusOf("bug", err)
		return nil, nil, status, err
	}
	userId := ctx.GetUint("id")
	role := ctx.GetString("role")
	body.AssignedTo = nilIfZero(body.AssignedTo)
	if body.AssignedTo != nil && !permissions.Allowed(role, permissions.BugsAssign) {
		return nil, nil, http.StatusForbidden, fmt.Errorf("access denied")
	}

	bug := models.Bug{
		Title:            strings.TrimSpace(body.Title),
		Description:      strings.TrimSpace(body.Description),
		StepsToReproduce: body.StepsToReproduce,
		ExpectedBehavior: body.ExpectedBehavior,
		ActualBehavior:   body.ActualBehavior,
		Severity:         orDefault(body.Severity, "Medium"),
		Priority:         orDefault(body.Priority, "Medium"),
		BugType:          orDefault(body.BugType, "Functional"),
		Status:           status.Bug.Fallback,
		ProjectID:        nilIfZero(body.ProjectID),
		TaskID:           nilIfZero(body.TaskID),
		AssignedTo:       body.AssignedTo,
		ReportedBy:       userId,
		TeamLeadID:       nilIfZero(body.TeamLeadID),
		Browser:          body.Browser,
		Device:           body.Device,
		OS:               body.OS,
		AppVersion:       body.AppVersion,
		APIEndpoint:      body.APIEndpoint,
	}
	if bug.Title == "" || bug.Description == "" {
		return nil, nil, http.StatusBadRequest, badRequest("title and description must not be blank")
	}
	if body.Status != "" {
		bug.Transition(status.Bug.Normalize(body.Status), time.Now())
	}
	if body.ResolutionType != "" {
		if !models.ResolutionAllowed(bug.Status) {
			return nil, nil, http.StatusBadRequest, badRequest("resolution_type requires status Fixed, Closed or Rejected")
		}
		rt := body.ResolutionType
		bug.ResolutionType = &rt
	}
	target, err := utils.ParseDate(body.TargetFixDate)
	if err != nil {
		return nil, nil, http.StatusBadRequest, badRequest("target_fix_date must be a date (YYYY-MM-DD)")
	}
	bug.TargetFixDate = target

	// Files are stored before the row exists so the bug and its attachments
	// commit together; stored objects are removed if the transaction fails.
	stored, rejected, err := storeUploads(ctx, bugsEntity)
	if err != nil {
		removeObjects(ctx.Request.Context(), keysOf(stored)...)
		status, err := statusOf("bug", err)
		return nil, rejected, status, err
	}

	db := db.GetDb()
	err = db.Transaction(func(tx *gorm.DB) error {
		if bug.ProjectID != nil {
			ok, err := exists(tx, &models.Project{}, *bug.ProjectID)
			if err != nil {
				return err
			}
			if !ok {
				return badRequest("project_id does not reference a project")
			}
		}
		if err := tx.Omit(clause.Associations).Create(&bug).Error; err != nil {
			return err
		}
		bug.BugCode = models.BugCodeFor(bug.ID)
		if err := tx.Model(&models.Bug{}).Where("id = ?", bug.ID).Update("bug_code", bug.BugCode).Error; err != nil {
			return err
		}
		if len(stored) > 0 {
			attachments := toAttachments(bugsEntity, bug.ID, userId, stored)
			if err := tx.Create(&attachments).Error; err != nil {
				return err
			}
			bug.Attachments = attachments
		}
		return common.RecordAudit(tx, userId, bugsEntity, bug.ID, common.AuditCreate, types.JSONB{"title": bug.Title, "status": bug.Status, "attachments": len(stored)})
	})
	if err != nil {
		removeObjects(ctx.Request.Context(), keysOf(stored)...)
		status, err := statusOf("bug", err)
		return nil, rejected, status, err
	}

	invalidate(ctx.Request.Context(), bugsEntity)
	go common.PublishBugEvent("bug.created", &bug)
	if bug.AssignedTo != nil {
		go common.NotifyBugAssigned(&bug)
	}
	return &bug, rejected, http.StatusCreated, nil
}

func BugsUpdate(ctx *gin.Context) (*models.Bug, int, error) {
	id, err := bindID(ctx)
	if err != nil {
		return failWith[models.Bug]("bug", err)
	}
	var body types.UpdateBugRequestBody
	if err := bindJSON(ctx, &body); err != nil {
		return failWith[models.Bug]("bug", err)
	}
	userId := ctx.GetUint("id")
	role := ctx.GetString("role")

	var bug models.Bug
	reassigned := false
	db := db.GetDb()
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Scopes(scopes.WithID(id)).First(&bug).Error; err != nil {
			return err
		}
		changes := types.JSONB{}
		if body.Title != nil {
			t := strings.TrimSpace(*body.Title)
			if t == "" {
				return badRequest("title must not be blank")
			}
			track(changes, "title", &bug.Title, &t)
		}
		if body.Description != nil {
			d := strings.TrimSpace(*body.Description)
			if d == "" {
				return badRequest("description must not be blank")
			}
			track(changes, "description", &bug.Description, &d)
		}
		track(changes, "severity", &bug.Severity, body.Severity)
		track(changes, "priority", &bug.Priority, body.Priority)
		track(changes, "bug_type", &bug.BugType, body.BugType)
		track(changes, "steps_to_reproduce", &bug.StepsToReproduce, body.StepsToReproduce)
		track(changes, "expected_behavior", &bug.ExpectedBehavior, body.ExpectedBehavior)
		track(changes, "actual_behavior", &bug.ActualBehavior, body.ActualBehavior)
		track(changes, "browser", &bug.Browser, body.Browser)
		track(changes, "device", &bug.Device, body.Device)
		track(changes, "os", &bug.OS, body.OS)
		track(changes, "app_version", &bug.AppVersion, body.AppVersion)
		track(changes, "api_endpoint", &bug.APIEndpoint, body.APIEndpoint)
		trackRef(changes, "task_id", &bug.TaskID, body.TaskID)
		trackRef(changes, "team_lead_id", &bug.TeamLeadID, body.TeamLeadID)
		if body.ProjectID != nil {
			before := bug.ProjectID
			trackRef(changes, "project_id", &bug.ProjectID, body.ProjectID)
			if bug.ProjectID != nil && !sameRef(before, bug.ProjectID) {
				ok, err := exists(tx, &models.Project{}, *bug.ProjectID)
				if err != nil {
					return err
				}
				if !ok {
					return badRequest("project_id does not reference a project")
				}
			}
		}
		if body.AssignedTo != nil {
			before := bug.AssignedTo
			trackRef(changes, "assigned_to", &bug.AssignedTo, body.AssignedTo)
			if !sameRef(before, bug.AssignedTo) {
				if !permissions.Allowed(role, permissions.BugsAssign) {
					return &HTTPError{Status: http.StatusForbidden, Message: "access denied"}
				}
				reassigned = bug.AssignedTo != nil
			}
		}
		if body.Status != nil {
			prev := bug.Status
			bug.Transition(status.Bug.Normalize(*body.Status), time.Now())
			if prev != bug.Status {
				changes["status"] = types.JSONB{"from": prev, "to": bug.Status}
			}
		}
		if body.ResolutionType != nil {
			if *body.ResolutionType == "" {
				bug.ResolutionType = nil
			} else {
				if !models.ResolutionAllowed(bug.Status) {
					return badRequest("resolution_type requires status Fixed, Closed or Rejected")
				}
				rt := *body.ResolutionType
				bug.ResolutionType = &rt
			}
			changes["resolution_type"] = bug.ResolutionType
		} else if !models.ResolutionAllowed(bug.Status) {
			bug.ResolutionType = nil
		}
		if body.TargetFixDate != nil {
			target, err := utils.ParseDate(body.TargetFixDate)
			if err != nil {
				return badRequest("target_fix_date must be a date (YYYY-MM-DD)")
			}
			bug.TargetFixDate = target
			changes["target_fix_date"] = *body.TargetFixDate
		}
		if len(changes) == 0 {
			return nil
		}
		if err := tx.Omit(clause.Associations).Save(&bug).Error; err != nil {
			return err
		}
		return common.RecordAudit(tx, userId, bugsEntity, bug.ID, common.AuditUpdate, changes)
	})
	if err != nil {
		return failWith[models.Bug]("bug", err)
	}
	invalidate(ctx.Request.Context(), bugsEntity)
	if reassigned {
		go common.NotifyBugAssigned(&bug)
	}
	bugs := []models.Bug{bug}
	resolveBugNames(db, bugs)
	return &bugs[0], http.StatusOK, nil
}

func BugsDelete(ctx *gin.Context) (int, error) {
	id, err := bindID(ctx)
	if err != nil {
		return statusOf("bug", err)
	}
	userId := ctx.GetUint("id")
	db := db.GetDb()
	err = db.Transaction(func(tx *gorm.DB) error {
		var bug models.Bug
		if err := tx.Select("id", "bug_code").Scopes(scopes.WithID(id)).First(&bug).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.Bug{}, bug.ID).Error; err != nil {
			return err
		}
		return common.RecordAudit(tx, userId, bugsEntity, bug.ID, common.AuditDelete, types.JSONB{"bug_code": bug.BugCode})
	})
	if err != nil {
		return statusOf("bug", err)
	}
	invalidate(ctx.Request.Context(), bugsEntity)
	return http.StatusNoContent, nil
}

func BugCommentsList(ctx *gin.Context) ([]models.BugComment, int, error) {
	id, err := bindID(ctx)
	if err != nil {
		status, err := statusOf("bug", err)
		return nil, status, err
	}
	db := db.GetDb()
	if ok, err := exists(db, &models.Bug{}, id); err != nil || !ok {
		if err == nil {
			err = gorm.ErrRecordNotFound
		}
		status, err := statusOf("bug", err)
		return nil, status, err
	}
	comments := []models.BugComment{}
	if err := db.Where("bug_id = ?", id).Order("id ASC").Find(&comments).Error; err != nil {
		status, err := statusOf("comment", err)
		return nil, status, err
	}
	ids := []uint{}
	for _, c := range comments {
		ids = append(ids, c.AuthorID)
	}
	users := lookupUsers(db, ids)
	for i := range comments {
		comments[i].AuthorName = users[comments[i].AuthorID].Name
	}
	return comments, http.StatusOK, nil
}

func BugCommentsCreate(ctx *gin.Context) (*models.BugComment, int, error) {
	id, err := bindID(ctx)
	if err != nil {
		return failWith[models.BugComment]("bug", err)
	}
	var body types.CreateCommentRequestBody
	if err := bindJSON(ctx, &body); err != nil {
		return failWith[models.BugComment]("comment", err)
	}
	text := strings.TrimSpace(body.Body)
	if text == "" {
		return failWith[models.BugComment]("comment", badRequest("body must not be blank"))
	}
	userId := ctx.GetUint("id")
	comment := models.BugComment{BugID: id, AuthorID: userId, Body: text, AuthorName: ctx.GetString("name")}
	db := db.GetDb()
	err = db.Transaction(func(tx *gorm.DB) error {
		ok, err := exists(tx, &models.Bug{}, id)
		if err != nil {
			return err
		}
		if !ok {
			return notFound("bug")
		}
		return tx.Create(&comment).Error
	})
	if err != nil {
		return failWith[models.BugComment]("comment", err)
	}
	return &comment, http.StatusCreated, nil
}

func resolveBugNames(tx *gorm.DB, bugs []models.Bug) {
	refs := []*uint{}
	projectIds := []uint{}
	for i := range bugs {
		b := &bugs[i]
		reporter := b.ReportedBy
		refs = append(refs, b.AssignedTo, &reporter, b.TeamLeadID)
		if b.ProjectID != nil {
			projectIds = append(projectIds, *b.ProjectID)
		}
	}
	users := lookupUsers(tx, collectIDs(refs...))
	projects := map[uint]string{}
	if len(projectIds) > 0 {
		var rows []models.Project
		tx.Model(&models.Project{}).Select("id", "name").Scopes(scopes.WithIDs(projectIds...)).Find(&rows)
		for _, p := range rows {
			projects[p.ID] = p.Name
		}
	}
	for i := range bugs {
		b := &bugs[i]
		assignee := userOf(users, b.AssignedTo)
		b.AssignedToName, b.AssignedToEmail = assignee.Name, assignee.Email
		reporter := users[b.ReportedBy]
		b.ReportedByName, b.ReportedByEmail = reporter.Name, reporter.Email
		b.TeamLeadName = userOf(users, b.TeamLeadID).Name
		if b.ProjectID != nil {
			b.ProjectName = projects[*b.ProjectID]
		}
	}
}

func orDefault(s string, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}
