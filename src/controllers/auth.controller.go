package controllers

import (
	"errors"
	"log"
	"net/http"
	"opsdesk/src/db"
	"opsdesk/src/lib"
	"opsdesk/src/models"
	"opsdesk/src/models/scopes"
	"opsdesk/src/permissions"
	"opsdesk/src/types"
	"opsdesk/src/utils"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

var errBadCredentials = &HTTPError{Status: http.StatusUnauthorized, Message: "invalid email or password"}

func capabilityNames(role string) []string {
	caps := permissions.Resolve(role).List()
	out := make([]string, 0, len(caps))
	for _, c := range caps {
		out = append(out, string(c))
	}
	return out
}

func AuthLogin(ctx *gin.Context) (*types.LoginResponse, int, error) {
	var body types.LoginRequestBody
	if err := bindJSON(ctx, &body); err != nil {
		return failWith[types.LoginResponse]("session", err)
	}
	db := db.GetDb()
	var user models.User
	if err := db.
		Where("email = ?", strings.ToLower(strings.TrimSpace(body.Email))).
		First(&user).
		Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return failWith[types.LoginResponse]("session", errBadCredentials)
		}
		return failWith[types.LoginResponse]("session", err)
	}
	if !utils.CheckPassword(user.PasswordHash, body.Password) {
		log.Printf("[Auth] failed login for user %d\n", user.ID)
		return failWith[types.LoginResponse]("session", errBadCredentials)
	}
	token, expires, err := utils.GenerateJWT(&user)
	if err != nil {
		return failWith[types.LoginResponse]("session", err)
	}
	now := time.Now()
	if err := db.Model(&models.User{}).Where("id = ?", user.ID).Update("last_active", now).Error; err != nil {
		log.Printf("Error updating last_active for user [%d]: %s\n", user.ID, err.Error())
	}
	user.LastActive = &now
	return &types.LoginResponse{
		Token:        token,
		ExpiresAt:    expires,
		User:         user,
		Capabilities: capabilityNames(user.Role),
	}, http.StatusOK, nil
}

// AuthSession describes the authenticated user and what they may do.
func AuthSession(ctx *gin.Context) (*types.SessionResponse, int, error) {
	userId := ctx.GetUint("id")
	db := db.GetDb()
	var user models.User
	if err := db.Scopes(scopes.WithID(userId)).First(&user).Error; err != nil {
		return failWith[types.SessionResponse]("user", err)
	}
	res := &types.SessionResponse{User: user, Capabilities: capabilityNames(user.Role)}
	var employee models.Employee
	if err := db.Select("id").Where("user_id = ?", userId).First(&employee).Error; err == nil {
		res.EmployeeID = &employee.ID
	}
	return res, http.StatusOK, nil
}

func AuthCapabilities(ctx *gin.Context) ([]string, int, error) {
	return capabilityNames(ctx.GetString("role")), http.StatusOK, nil
}

func AuthLogout(ctx *gin.Context) (int, error) {
	expires, _ := ctx.Get("token_expires")
	until, ok := expires.(time.Time)
	if !ok {
		until = time.Now().Add(24 * time.Hour)
	}
	if err := lib.GetCache().RevokeToken(ctx.Request.Context(), ctx.GetString("token_id"), until); err != nil {
		return statusOf("session", err)
	}
	return http.StatusNoContent, nil
}
