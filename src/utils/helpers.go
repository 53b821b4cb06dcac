package utils

import (
	"errors"
	"fmt"
	"opsdesk/src/config"
	"opsdesk/src/models"
	"opsdesk/src/types"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

func GenerateJWT(user *models.User) (string, time.Time, error) {
	expires := time.Now().Add(config.TOKEN_TTL)
	claims := &types.Claims{
		Name:  user.Name,
		Email: user.Email,
		Role:  user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.FormatUint(uint64(user.ID), 10),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(expires),
			Issuer:    "opsdesk",
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(config.GetJWTKey())
	return signed, expires, err
}

func HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func CheckPassword(hash string, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// ParseDate parses an optional YYYY-MM-DD value. Blank input yields nil.
func ParseDate(s *string) (*time.Time, error) {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil, nil
	}
	t, err := time.Parse(config.DATE_FORMAT, strings.TrimSpace(*s))
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// NormalizeListQuery applies the default page and limit.
func NormalizeListQuery(q *types.ListQuery) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = config.DEFAULT_LIMIT
	}
	if q.Limit > config.MAX_LIMIT {
		q.Limit = config.MAX_LIMIT
	}
	if q.Scope == "" {
		q.Scope = "all"
	}
}

// ValidationMessage folds binding errors into one message listing every failing field.
func ValidationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fieldMessage(fe))
	}
	return strings.Join(parts, "; ")
}

func fieldMessage(fe validator.FieldError) string {
	field := SnakeCase(fe.Field())
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "datetime":
		return fmt.Sprintf("%s must be a date (YYYY-MM-DD)", field)
	case "gtdate":
		return fmt.Sprintf("%s must be after %s", field, SnakeCase(fe.Param()))
	case "bugstatus", "projectstatus", "milestonestatus", "employeestatus", "assetstatus":
		return fmt.Sprintf("%s %q is not a known status", field, fmt.Sprint(fe.Value()))
	case "resolution":
		return fmt.Sprintf("%s %q is not a known resolution", field, fmt.Sprint(fe.Value()))
	case "role":
		return fmt.Sprintf("%s %q is not a known role", field, fmt.Sprint(fe.Value()))
	}
	return fmt.Sprintf("%s is invalid", field)
}

// SnakeCase turns a Go field name such as ProjectID into project_id.
func SnakeCase(s string) string {
	var b strings.Builder
	runes := []rune(s)
	for i, r := range runes {
		upper := r >= 'A' && r <= 'Z'
		if upper && i > 0 {
			prevLower := runes[i-1] >= 'a' && runes[i-1] <= 'z'
			nextLower := i+1 < len(runes) && runes[i+1] >= 'a' && runes[i+1] <= 'z'
			if prevLower || nextLower {
				b.WriteByte('_')
			}
		}
		if upper {
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}
