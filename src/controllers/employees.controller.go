package controllers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"opsdesk/src/common"
	"opsdesk/src/db"
	"opsdesk/src/lib"
	awslib "opsdesk/src/lib/aws"
	"opsdesk/src/models"
	"opsdesk/src/models/scopes"
	"opsdesk/src/status"
	"opsdesk/src/types"
	"opsdesk/src/utils"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const employeesEntity = "employees"

func EmployeeCodeFor(id uint) string {
	return fmt.Sprintf("EMP-%05d", id)
}

func EmployeesList(ctx *gin.Context) (*types.ListResponse[models.Employee], int, error) {
	var q types.EmployeeQueryFilters
	if err := bindQuery(ctx, &q, &q.ListQuery); err != nil {
		return failWith[types.ListResponse[models.Employee]]("employee", err)
	}
	cache := lib.GetCache()
	key := cacheKey(ctx)
	var cached types.ListResponse[models.Employee]
	if cache.Get(ctx.Request.Context(), employeesEntity, key, &cached) {
		return &cached, http.StatusOK, nil
	}
	userId := ctx.GetUint("id")
	db := db.GetDb()
	base := func() *gorm.DB {
		tx := db.Model(&models.Employee{}).
			Scopes(scopes.Search(q.Search, "first_name", "last_name", "email", "employee_code"))
		if q.Status != "" {
			tx = tx.Scopes(scopes.WithStatus(status.Employee.Normalize(q.Status)))
		}
		if q.Department != "" {
			tx = tx.Where("department = ?", q.Department)
		}
		if q.Scope == "mine" {
			tx = tx.Scopes(scopes.Mine(userId, "user_id"))
		}
		return tx
	}
	res, err := listPage[models.Employee](base, q.ListQuery, true)
	if err != nil {
		return failWith[types.ListResponse[models.Employee]]("employee", err)
	}
	attachUsers(db, res.Data)
	cache.Set(ctx.Request.Context(), employeesEntity, key, res)
	return res, http.StatusOK, nil
}

func EmployeesGet(ctx *gin.Context) (*models.Employee, int, error) {
	id, err := bindID(ctx)
	if err != nil {
		return failWith[models.Employee]("employee", err)
	}
	cache := lib.GetCache()
	key := fmt.Sprintf("detail:%d", id)
	var employee models.Employee
	if cache.Get(ctx.Request.Context(), employeesEntity, key, &employee) {
		return &employee, http.StatusOK, nil
	}
	e, err := loadEmployee(db.GetDb(), id)
	if err != nil {
		return failWith[models.Employee]("employee", err)
	}
	cache.Set(ctx.Request.Context(), employeesEntity, key, e)
	return e, http.StatusOK, nil
}

// EmployeesCreate creates the employee record together with its login account.
func EmployeesCreate(ctx *gin.Context) (*models.Employee, int, error) {
	var body types.CreateEmployeeRequestBody
	if err := bindJSON(ctx, &body); err != nil {
		return failWith[models.Employee]("employee", err)
	}
	userId := ctx.GetUint("id")
	email := strings.ToLower(strings.TrimSpace(body.Email))
	employee := models.Employee{
		FirstName:        strings.TrimSpace(body.FirstName),
		LastName:         strings.TrimSpace(body.LastName),
		Email:            email,
		Phone:            body.Phone,
		Department:       body.Department,
		Designation:      body.Designation,
		Status:           status.Employee.Fallback,
		Address:          body.Address,
		EmergencyContact: body.EmergencyContact,
	}
	if employee.FirstName == "" {
		return failWith[models.Employee]("employee", badRequest("first_name must not be blank"))
	}
	if body.Status != "" {
		employee.Status = status.Employee.Normalize(body.Status)
	}
	if body.CasualLeaveBalance != nil {
		employee.CasualLeaveBalance = *body.CasualLeaveBalance
	}
	if body.SickLeaveBalance != nil {
		employee.SickLeaveBalance = *body.SickLeaveBalance
	}
	if body.EarnedLeaveBalance != nil {
		employee.EarnedLeaveBalance = *body.EarnedLeaveBalance
	}
	var err error
	if employee.DateOfJoining, err = utils.ParseDate(body.DateOfJoining); err != nil {
		return failWith[models.Employee]("employee", badRequest("date_of_joining must be a date (YYYY-MM-DD)"))
	}
	hash, err := utils.HashPassword(body.Password)
	if err != nil {
		return failWith[models.Employee]("employee", err)
	}

	db := db.GetDb()
	err = db.Transaction(func(tx *gorm.DB) error {
		var taken int64
		if err := tx.Unscoped().Model(&models.User{}).Where("email = ?", email).Count(&taken).Error; err != nil {
			return err
		}
		if taken > 0 {
			return &HTTPError{Status: http.StatusConflict, Message: "email is already registered"}
		}
		user := models.User{
			Name:         employee.FullName(),
			Email:        email,
			PasswordHash: hash,
			Role:         body.Role,
		}
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		employee.UserID = &user.ID
		if err := tx.Omit(clause.Associations).Create(&employee).Error; err != nil {
			return err
		}
		employee.EmployeeCode = EmployeeCodeFor(employee.ID)
		if err := tx.Model(&models.Employee{}).Where("id = ?", employee.ID).Update("employee_code", employee.EmployeeCode).Error; err != nil {
			return err
		}
		return common.RecordAudit(tx, userId, employeesEntity, employee.ID, common.AuditCreate, types.JSONB{"email": email, "role": body.Role})
	})
	if err != nil {
		return failWith[models.Employee]("employee", err)
	}
	invalidate(ctx.Request.Context(), employeesEntity)
	e, err := loadEmployee(db, employee.ID)
	if err != nil {
		return failWith[models.Employee]("employee", err)
	}
	return e, http.StatusCreated, nil
}

func EmployeesUpdate(ctx *gin.Context) (*models.Employee, int, error) {
	id, err := bindID(ctx)
	if err != nil {
		return failWith[models.Employee]("employee", err)
	}
	var body types.UpdateEmployeeRequestBody
	if err := bindJSON(ctx, &body); err != nil {
		return failWith[models.Employee]("employee", err)
	}
	userId := ctx.GetUint("id")
	db := db.GetDb()
	err = db.Transaction(func(tx *gorm.DB) error {
		var employee models.Employee
		if err := tx.Preload("User").Scopes(scopes.WithID(id)).First(&employee).Error; err != nil {
			return err
		}
		changes := types.JSONB{}
		if body.FirstName != nil {
			first := strings.TrimSpace(*body.FirstName)
			if first == "" {
				return badRequest("first_name must not be blank")
			}
			track(changes, "first_name", &employee.FirstName, &first)
		}
		track(changes, "last_name", &employee.LastName, body.LastName)
		track(changes, "phone", &employee.Phone, body.Phone)
		track(changes, "department", &employee.Department, body.Department)
		track(changes, "designation", &employee.Designation, body.Designation)
		track(changes, "casual_leave_balance", &employee.CasualLeaveBalance, body.CasualLeaveBalance)
		track(changes, "sick_leave_balance", &employee.SickLeaveBalance, body.SickLeaveBalance)
		track(changes, "earned_leave_balance", &employee.EarnedLeaveBalance, body.EarnedLeaveBalance)
		if body.Status != nil {
			next := status.Employee.Normalize(*body.Status)
			track(changes, "status", &employee.Status, &next)
		}
		if body.DateOfJoining != nil {
			d, err := utils.ParseDate(body.DateOfJoining)
			if err != nil {
				return badRequest("date_of_joining must be a date (YYYY-MM-DD)")
			}
			employee.DateOfJoining = d
			changes["date_of_joining"] = *body.DateOfJoining
		}
		if body.Address != nil {
			employee.Address = body.Address
			changes["address"] = true
		}
		if body.EmergencyContact != nil {
			employee.EmergencyContact = body.EmergencyContact
			changes["emergency_contact"] = true
		}
		account := types.JSONB{}
		if body.Email != nil {
			email := strings.ToLower(strings.TrimSpace(*body.Email))
			if email != employee.Email {
				var taken int64
				q := tx.Unscoped().Model(&models.User{}).Where("email = ?", email)
				if employee.UserID != nil {
					q = q.Where("id <> ?", *employee.UserID)
				}
				if err := q.Count(&taken).Error; err != nil {
					return err
				}
				if taken > 0 {
					return &HTTPError{Status: http.StatusConflict, Message: "email is already registered"}
				}
				track(changes, "email", &employee.Email, &email)
				account["email"] = email
			}
		}
		if body.Role != nil {
			account["role"] = *body.Role
			changes["role"] = *body.Role
		}
		if body.Password != nil {
			hash, err := utils.HashPassword(*body.Password)
			if err != nil {
				return err
			}
			account["password_hash"] = hash
			changes["password"] = "changed"
		}
		if _, ok := changes["first_name"]; ok {
			account["name"] = employee.FullName()
		} else if _, ok := changes["last_name"]; ok {
			account["name"] = employee.FullName()
		}
		if len(changes) == 0 {
			return nil
		}
		if err := tx.Omit(clause.Associations).Save(&employee).Error; err != nil {
			return err
		}
		if len(account) > 0 && employee.UserID != nil {
			if err := tx.Model(&models.User{}).Where("id = ?", *employee.UserID).Updates(map[string]any(account)).Error; err != nil {
				return err
			}
		}
		return common.RecordAudit(tx, userId, employeesEntity, employee.ID, common.AuditUpdate, changes)
	})
	if err != nil {
		return failWith[models.Employee]("employee", err)
	}
	invalidate(ctx.Request.Context(), employeesEntity)
	e, err := loadEmployee(db, id)
	if err != nil {
		return failWith[models.Employee]("employee", err)
	}
	return e, http.StatusOK, nil
}

// EmployeesDelete removes the employee and disables the linked account.
func EmployeesDelete(ctx *gin.Context) (int, error) {
	id, err := bindID(ctx)
	if err != nil {
		return statusOf("employee", err)
	}
	userId := ctx.GetUint("id")
	db := db.GetDb()
	err = db.Transaction(func(tx *gorm.DB) error {
		var employee models.Employee
		if err := tx.Select("id", "email", "user_id").Scopes(scopes.WithID(id)).First(&employee).Error; err != nil {
			return err
		}
		if employee.UserID != nil && *employee.UserID == userId {
			return badRequest("you cannot delete your own employee record")
		}
		if err := tx.Delete(&models.Employee{}, employee.ID).Error; err != nil {
			return err
		}
		if employee.UserID != nil {
			if err := tx.Delete(&models.User{}, *employee.UserID).Error; err != nil {
				return err
			}
		}
		return common.RecordAudit(tx, userId, employeesEntity, employee.ID, common.AuditDelete, types.JSONB{"email": employee.Email})
	})
	if err != nil {
		return statusOf("employee", err)
	}
	invalidate(ctx.Request.Context(), employeesEntity)
	return http.StatusNoContent, nil
}

func EmployeeDocumentsList(ctx *gin.Context) ([]models.EmployeeDocument, int, error) {
	id, err := bindID(ctx)
	if err != nil {
		status, err := statusOf("employee", err)
		return nil, status, err
	}
	db := db.GetDb()
	if err := requireOwner(db, &models.Employee{}, id); err != nil {
		status, err := statusOf("employee", err)
		return nil, status, err
	}
	docs := []models.EmployeeDocument{}
	if err := db.Where("employee_id = ?", id).Order("id ASC").Find(&docs).Error; err != nil {
		status, err := statusOf("document", err)
		return nil, status, err
	}
	return docs, http.StatusOK, nil
}

func EmployeeDocumentsUpload(ctx *gin.Context) ([]models.EmployeeDocument, []types.RejectedFile, int, error) {
	id, err := bindID(ctx)
	if err != nil {
		status, err := statusOf("employee", err)
		return nil, nil, status, err
	}
	var body types.CreateDocumentRequestBody
	if err := bind(ctx, &body); err != nil {
		status, err := statusOf("document", err)
		return nil, nil, status, err
	}
	userId := ctx.GetUint("id")
	db := db.GetDb()
	if err := requireOwner(db, &models.Employee{}, id); err != nil {
		status, err := statusOf("employee", err)
		return nil, nil, status, err
	}
	stored, rejected, err := storeUploads(ctx, fmt.Sprintf("employees/%d", id))
	if err != nil {
		status, err := statusOf("document", err)
		return nil, rejected, status, err
	}
	if len(stored) == 0 {
		if len(rejected) == 0 {
			return nil, nil, http.StatusBadRequest, errors.New("no files provided")
		}
		return nil, rejected, http.StatusBadRequest, errors.New("no acceptable files provided")
	}
	docs := make([]models.EmployeeDocument, 0, len(stored))
	for _, f := range stored {
		docs = append(docs, models.EmployeeDocument{
			EmployeeID:       id,
			DocumentType:     body.DocumentType,
			OriginalFilename: f.Name,
			MimeType:         f.MimeType,
			Size:             f.Size,
			StoragePath:      f.Key,
			UploadedBy:       userId,
		})
	}
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&docs).Error; err != nil {
			return err
		}
		return common.RecordAudit(tx, userId, employeesEntity, id, common.AuditUpdate, types.JSONB{"documents_added": len(docs), "document_type": body.DocumentType})
	})
	if err != nil {
		removeObjects(ctx.Request.Context(), keysOf(stored)...)
		status, err := statusOf("document", err)
		return nil, rejected, status, err
	}
	invalidate(ctx.Request.Context(), employeesEntity)
	return docs, rejected, http.StatusCreated, nil
}

func findDocument(tx *gorm.DB, ctx *gin.Context) (*models.EmployeeDocument, error) {
	var params types.DocumentURIParams
	if err := ctx.ShouldBindUri(&params); err != nil {
		return nil, badRequest("invalid document id")
	}
	if err := requireOwner(tx, &models.Employee{}, params.ID); err != nil {
		return nil, notFound("employee")
	}
	var doc models.EmployeeDocument
	if err := tx.Where("employee_id = ? AND id = ?", params.ID, params.DocumentID).First(&doc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("document")
		}
		return nil, err
	}
	return &doc, nil
}

func EmployeeDocumentOpen(ctx *gin.Context) (*models.EmployeeDocument, io.ReadCloser, int, error) {
	doc, err := findDocument(db.GetDb(), ctx)
	if err != nil {
		status, err := statusOf("document", err)
		return nil, nil, status, err
	}
	body, err := awslib.GetObjectStore().Open(ctx.Request.Context(), doc.StoragePath)
	if err != nil {
		if errors.Is(err, awslib.ErrObjectNotFound) {
			return nil, nil, http.StatusNotFound, notFound("document")
		}
		status, err := statusOf("document", err)
		return nil, nil, status, err
	}
	return doc, body, http.StatusOK, nil
}

// EmployeeDocumentsVerify records the reviewer's decision on a document.
func EmployeeDocumentsVerify(ctx *gin.Context) (*models.EmployeeDocument, int, error) {
	var body types.VerifyDocumentRequestBody
	if err := bindJSON(ctx, &body); err != nil {
		return failWith[models.EmployeeDocument]("document", err)
	}
	userId := ctx.GetUint("id")
	db := db.GetDb()
	var doc *models.EmployeeDocument
	err := db.Transaction(func(tx *gorm.DB) error {
		var err error
		doc, err = findDocument(tx, ctx)
		if err != nil {
			return err
		}
		doc.Verified = *body.Verified
		if doc.Verified {
			now := time.Now()
			doc.VerifiedBy = &userId
			doc.VerifiedAt = &now
		} else {
			doc.VerifiedBy = nil
			doc.VerifiedAt = nil
		}
		if err := tx.Save(doc).Error; err != nil {
			return err
		}
		return common.RecordAudit(tx, userId, employeesEntity, doc.EmployeeID, common.AuditUpdate, types.JSONB{"document_id": doc.ID, "verified": doc.Verified})
	})
	if err != nil {
		return failWith[models.EmployeeDocument]("document", err)
	}
	invalidate(ctx.Request.Context(), employeesEntity)
	return doc, http.StatusOK, nil
}

func loadEmployee(tx *gorm.DB, id uint) (*models.Employee, error) {
	var employee models.Employee
	if err := tx.
		Preload("User", func(db *gorm.DB) *gorm.DB { return db.Select("id", "name", "email", "role", "last_active") }).
		Preload("Documents", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Scopes(scopes.WithID(id)).
		First(&employee).
		Error; err != nil {
		return nil, err
	}
	return &employee, nil
}

func attachUsers(tx *gorm.DB, employees []models.Employee) {
	refs := make([]*uint, 0, len(employees))
	for i := range employees {
		refs = append(refs, employees[i].UserID)
	}
	ids := collectIDs(refs...)
	if len(ids) == 0 {
		return
	}
	var users []models.User
	tx.Select("id", "name", "email", "role").Scopes(scopes.WithIDs(ids...)).Find(&users)
	byId := map[uint]*models.User{}
	for i := range users {
		byId[users[i].ID] = &users[i]
	}
	for i := range employees {
		if employees[i].UserID != nil {
			employees[i].User = byId[*employees[i].UserID]
		}
	}
}
