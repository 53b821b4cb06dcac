package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"opsdesk/src/common"
	"opsdesk/src/db"
	"opsdesk/src/lib"
	"opsdesk/src/models"
	"opsdesk/src/models/scopes"
	"opsdesk/src/status"
	"opsdesk/src/types"
	"opsdesk/src/utils"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const projectsEntity = "projects"

func ProjectsList(ctx *gin.Context) (*types.ListResponse[models.Project], int, error) {
	var q types.ProjectQueryFilters
	if err := bindQuery(ctx, &q, &q.ListQuery); err != nil {
		return failWith[types.ListResponse[models.Project]]("project", err)
	}
	cache := lib.GetCache()
	key := cacheKey(ctx)
	var cached types.ListResponse[models.Project]
	if cache.Get(ctx.Request.Context(), projectsEntity, key, &cached) {
		return &cached, http.StatusOK, nil
	}
	userId := ctx.GetUint("id")
	db := db.GetDb()
	base := func() *gorm.DB {
		tx := db.Model(&models.Project{}).
			Scopes(scopes.Search(q.Search, "name", "code", "description"))
		if q.Status != "" {
			tx = tx.Scopes(scopes.WithStatus(status.Project.Normalize(q.Status)))
		}
		if q.ManagerID > 0 {
			tx = tx.Where("manager_id = ?", q.ManagerID)
		}
		if q.Scope == "mine" {
			members := db.Model(&models.ProjectMember{}).Select("project_id").Where("user_id = ?", userId)
			tx = tx.Where("(manager_id = ? OR id IN (?))", userId, members)
		}
		return tx
	}
	res, err := listPage[models.Project](base, q.ListQuery, true)
	if err != nil {
		return failWith[types.ListResponse[models.Project]]("project", err)
	}
	loadProjectRelations(db, res.Data, false)
	cache.Set(ctx.Request.Context(), projectsEntity, key, res)
	return res, http.StatusOK, nil
}

func ProjectsGet(ctx *gin.Context) (*models.Project, int, error) {
	id, err := bindID(ctx)
	if err != nil {
		return failWith[models.Project]("project", err)
	}
	cache := lib.GetCache()
	key := fmt.Sprintf("detail:%d", id)
	var project models.Project
	if cache.Get(ctx.Request.Context(), projectsEntity, key, &project) {
		return &project, http.StatusOK, nil
	}
	p, err := loadProject(db.GetDb(), id)
	if err != nil {
		return failWith[models.Project]("project", err)
	}
	cache.Set(ctx.Request.Context(), projectsEntity, key, p)
	return p, http.StatusOK, nil
}

func ProjectsCreate(ctx *gin.Context) (*models.Project, int, error) {
	var body types.CreateProjectRequestBody
	if err := bindJSON(ctx, &body); err != nil {
		return failWith[models.Project]("project", err)
	}
	userId := ctx.GetUint("id")
	project := models.Project{
		Name:        strings.TrimSpace(body.Name),
		Code:        strings.TrimSpace(body.Code),
		Description: body.Description,
		Status:      status.Project.Fallback,
		Progress:    body.Progress,
		ManagerID:   nilIfZero(body.ManagerID),
	}
	if project.Name == "" {
		return failWith[models.Project]("project", badRequest("name must not be blank"))
	}
	if body.Status != "" {
		project.Status = status.Project.Normalize(body.Status)
	}
	var err error
	if project.StartDate, err = utils.ParseDate(body.StartDate); err != nil {
		return failWith[models.Project]("project", badRequest("start_date must be a date (YYYY-MM-DD)"))
	}
	if project.EndDate, err = utils.ParseDate(body.EndDate); err != nil {
		return failWith[models.Project]("project", badRequest("end_date must be a date (YYYY-MM-DD)"))
	}
	milestones, err := toMilestones(body.Milestones)
	if err != nil {
		return failWith[models.Project]("project", err)
	}
	db := db.GetDb()
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(&project).Error; err != nil {
			return err
		}
		project.Slug = common.ProjectSlug(project.Name, project.ID)
		if err := tx.Model(&models.Project{}).Where("id = ?", project.ID).Update("slug", project.Slug).Error; err != nil {
			return err
		}
		if err := replaceMembers(tx, project.ID, body.MemberIDs, body.MemberRoles); err != nil {
			return err
		}
		if err := replaceMilestones(tx, project.ID, milestones); err != nil {
			return err
		}
		return common.RecordAudit(tx, userId, projectsEntity, project.ID, common.AuditCreate, types.JSONB{"name": project.Name, "status": project.Status})
	})
	if err != nil {
		return failWith[models.Project]("project", err)
	}
	invalidate(ctx.Request.Context(), projectsEntity)
	p, err := loadProject(db, project.ID)
	if err != nil {
		return failWith[models.Project]("project", err)
	}
	return p, http.StatusCreated, nil
}

func ProjectsUpdate(ctx *gin.Context) (*models.Project, int, error) {
	id, err := bindID(ctx)
	if err != nil {
		return failWith[models.Project]("project", err)
	}
	var body types.UpdateProjectRequestBody
	if err := bindJSON(ctx, &body); err != nil {
		return failWith[models.Project]("project", err)
	}
	userId := ctx.GetUint("id")
	db := db.GetDb()
	err = db.Transaction(func(tx *gorm.DB) error {
		var project models.Project
		if err := tx.Preload("Members").Scopes(scopes.WithID(id)).First(&project).Error; err != nil {
			return err
		}
		changes := types.JSONB{}
		if body.Name != nil {
			name := strings.TrimSpace(*body.Name)
			if name == "" {
				return badRequest("name must not be blank")
			}
			if name != project.Name {
				project.Slug = common.ProjectSlug(name, project.ID)
			}
			track(changes, "name", &project.Name, &name)
		}
		track(changes, "code", &project.Code, body.Code)
		track(changes, "description", &project.Description, body.Description)
		track(changes, "progress", &project.Progress, body.Progress)
		trackRef(changes, "manager_id", &project.ManagerID, body.ManagerID)
		if body.Status != nil {
			next := status.Project.Normalize(*body.Status)
			track(changes, "status", &project.Status, &next)
		}
		if body.StartDate != nil {
			d, err := utils.ParseDate(body.StartDate)
			if err != nil {
				return badRequest("start_date must be a date (YYYY-MM-DD)")
			}
			project.StartDate = d
			changes["start_date"] = *body.StartDate
		}
		if body.EndDate != nil {
			d, err := utils.ParseDate(body.EndDate)
			if err != nil {
				return badRequest("end_date must be a date (YYYY-MM-DD)")
			}
			project.EndDate = d
			changes["end_date"] = *body.EndDate
		}
		if project.StartDate != nil && project.EndDate != nil && project.EndDate.Before(*project.StartDate) {
			return badRequest("end_date must be after start_date")
		}
		if body.MemberIDs != nil || body.MemberRoles != nil {
			project.FillMembers()
			ids, roles := body.MemberIDs, body.MemberRoles
			if ids == nil {
				ids = project.MemberIDs
			}
			if roles == nil {
				roles = project.MemberRoles
			}
			if err := replaceMembers(tx, project.ID, ids, roles); err != nil {
				return err
			}
			changes["member_ids"] = ids
		}
		if body.Milestones != nil {
			milestones, err := toMilestones(body.Milestones)
			if err != nil {
				return err
			}
			if err := replaceMilestones(tx, project.ID, milestones); err != nil {
				return err
			}
			changes["milestones"] = len(milestones)
		}
		if len(changes) == 0 {
			return nil
		}
		if err := tx.Omit(clause.Associations).Save(&project).Error; err != nil {
			return err
		}
		return common.RecordAudit(tx, userId, projectsEntity, project.ID, common.AuditUpdate, changes)
	})
	if err != nil {
		return failWith[models.Project]("project", err)
	}
	invalidate(ctx.Request.Context(), projectsEntity)
	p, err := loadProject(db, id)
	if err != nil {
		return failWith[models.Project]("project", err)
	}
	return p, http.StatusOK, nil
}

// ProjectsUpdateMembers replaces the member list and roles of a project.
func ProjectsUpdateMembers(ctx *gin.Context) (*models.Project, int, error) {
	id, err := bindID(ctx)
	if err != nil {
		return failWith[models.Project]("project", err)
	}
	var body types.UpdateMembersRequestBody
	if err := bindJSON(ctx, &body); err != nil {
		return failWith[models.Project]("project", err)
	}
	userId := ctx.GetUint("id")
	db := db.GetDb()
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := requireOwner(tx, &models.Project{}, id); err != nil {
			return err
		}
		if err := replaceMembers(tx, id, body.MemberIDs, body.MemberRoles); err != nil {
			return err
		}
		return common.RecordAudit(tx, userId, projectsEntity, id, common.AuditUpdate, types.JSONB{"member_ids": body.MemberIDs})
	})
	if err != nil {
		return failWith[models.Project]("project", err)
	}
	invalidate(ctx.Request.Context(), projectsEntity)
	p, err := loadProject(db, id)
	if err != nil {
		return failWith[models.Project]("project", err)
	}
	return p, http.StatusOK, nil
}

func ProjectsDelete(ctx *gin.Context) (int, error) {
	id, err := bindID(ctx)
	if err != nil {
		return statusOf("project", err)
	}
	userId := ctx.GetUint("id")
	db := db.GetDb()
	err = db.Transaction(func(tx *gorm.DB) error {
		var project models.Project
		if err := tx.Select("id", "name").Scopes(scopes.WithID(id)).First(&project).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.Project{}, project.ID).Error; err != nil {
			return err
		}
		return common.RecordAudit(tx, userId, projectsEntity, project.ID, common.AuditDelete, types.JSONB{"name": project.Name})
	})
	if err != nil {
		return statusOf("project", err)
	}
	invalidate(ctx.Request.Context(), projectsEntity)
	return http.StatusNoContent, nil
}

func ProjectCommentsList(ctx *gin.Context) ([]models.ProjectComment, int, error) {
	id, err := bindID(ctx)
	if err != nil {
		status, err := statusOf("project", err)
		return nil, status, err
	}
	db := db.GetDb()
	if err := requireOwner(db, &models.Project{}, id); err != nil {
		status, err := statusOf("project", err)
		return nil, status, err
	}
	comments := []models.ProjectComment{}
	if err := db.Where("project_id = ?", id).Order("id ASC").Find(&comments).Error; err != nil {
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

// ProjectCommentsCreate posts to the project's discussion. Anyone who can see
// the project may take part.
func ProjectCommentsCreate(ctx *gin.Context) (*models.ProjectComment, int, error) {
	id, err := bindID(ctx)
	if err != nil {
		return failWith[models.ProjectComment]("project", err)
	}
	var body types.CreateCommentRequestBody
	if err := bindJSON(ctx, &body); err != nil {
		return failWith[models.ProjectComment]("comment", err)
	}
	text := strings.TrimSpace(body.Body)
	if text == "" {
		return failWith[models.ProjectComment]("comment", badRequest("body must not be blank"))
	}
	comment := models.ProjectComment{ProjectID: id, AuthorID: ctx.GetUint("id"), Body: text, AuthorName: ctx.GetString("name")}
	err = db.GetDb().Transaction(func(tx *gorm.DB) error {
		if err := requireOwner(tx, &models.Project{}, id); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFound("project")
			}
			return err
		}
		return tx.Create(&comment).Error
	})
	if err != nil {
		return failWith[models.ProjectComment]("comment", err)
	}
	return &comment, http.StatusCreated, nil
}

func loadProject(tx *gorm.DB, id uint) (*models.Project, error) {
	var project models.Project
	if err := tx.
		Preload("Milestones", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Members").
		Scopes(scopes.WithID(id)).
		First(&project).
		Error; err != nil {
		return nil, err
	}
	project.FillMembers()
	if project.ManagerID != nil {
		project.ManagerName = lookupUsers(tx, []uint{*project.ManagerID})[*project.ManagerID].Name
	}
	return &project, nil
}

// loadProjectRelations fills members (and optionally milestones) and manager names for a page.
func loadProjectRelations(tx *gorm.DB, projects []models.Project, milestones bool) {
	if len(projects) == 0 {
		return
	}
	ids := make([]uint, 0, len(projects))
	managers := []*uint{}
	for i := range projects {
		ids = append(ids, projects[i].ID)
		managers = append(managers, projects[i].ManagerID)
	}
	var members []models.ProjectMember
	tx.Where("project_id IN ?", ids).Order("id ASC").Find(&members)
	byProject := map[uint][]models.ProjectMember{}
	for _, m := range members {
		byProject[m.ProjectID] = append(byProject[m.ProjectID], m)
	}
	var stones []models.Milestone
	if milestones {
		tx.Where("project_id IN ?", ids).Order("id ASC").Find(&stones)
	}
	users := lookupUsers(tx, collectIDs(managers...))
	for i := range projects {
		p := &projects[i]
		p.Members = byProject[p.ID]
		p.FillMembers()
		p.ManagerName = userOf(users, p.ManagerID).Name
		for _, s := range stones {
			if s.ProjectID == p.ID {
				p.Milestones = append(p.Milestones, s)
			}
		}
		if p.Milestones == nil {
			p.Milestones = []models.Milestone{}
		}
	}
}

func toMilestones(in []types.MilestoneInput) ([]models.Milestone, error) {
	out := make([]models.Milestone, 0, len(in))
	for i, m := range in {
		name := strings.TrimSpace(m.Name)
		if name == "" {
			return nil, badRequest("milestones[%d].name must not be blank", i)
		}
		start, err := utils.ParseDate(m.StartDate)
		if err != nil {
			return nil, badRequest("milestones[%d].start_date must be a date (YYYY-MM-DD)", i)
		}
		end, err := utils.ParseDate(m.EndDate)
		if err != nil {
			return nil, badRequest("milestones[%d].end_date must be a date (YYYY-MM-DD)", i)
		}
		out = append(out, models.Milestone{
			Name:      name,
			Status:    status.Milestone.Normalize(m.Status),
			StartDate: start,
			EndDate:   end,
		})
	}
	return out, nil
}

func replaceMilestones(tx *gorm.DB, projectId uint, milestones []models.Milestone) error {
	if err := tx.Unscoped().Where("project_id = ?", projectId).Delete(&models.Milestone{}).Error; err != nil {
		return err
	}
	if len(milestones) == 0 {
		return nil
	}
	for i := range milestones {
		milestones[i].ID = 0
		milestones[i].ProjectID = projectId
	}
	return tx.Create(&milestones).Error
}

// replaceMembers stores ids plus any id that only appears as a roles key.
func replaceMembers(tx *gorm.DB, projectId uint, ids []uint, roles types.MemberRoles) error {
	set := map[uint]bool{}
	for _, id := range ids {
		if id > 0 {
			set[id] = true
		}
	}
	for _, id := range roles.IDs() {
		set[id] = true
	}
	all := make([]uint, 0, len(set))
	for id := range set {
		all = append(all, id)
	}
	sort.Slice(all, func(i, j int) bool { return all[i] < all[j] })
	if len(all) > 0 {
		var n int64
		if err := tx.Model(&models.User{}).Scopes(scopes.WithIDs(all...)).Count(&n).Error; err != nil {
			return err
		}
		if int(n) != len(all) {
			return badRequest("member_ids reference unknown users")
		}
	}
	if err := tx.Where("project_id = ?", projectId).Delete(&models.ProjectMember{}).Error; err != nil {
		return err
	}
	if len(all) == 0 {
		return nil
	}
	rows := make([]models.ProjectMember, 0, len(all))
	for _, id := range all {
		rows = append(rows, models.ProjectMember{ProjectID: projectId, UserID: id, Role: roles[id]})
	}
	return tx.Create(&rows).Error
}
