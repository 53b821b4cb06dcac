package utils

import (
	"opsdesk/src/config"
	"opsdesk/src/models"
	"opsdesk/src/types"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnakeCase(t *testing.T) {
	cases := map[string]string{
		"Title":            "title",
		"ProjectID":        "project_id",
		"StepsToReproduce": "steps_to_reproduce",
		"APIEndpoint":      "api_endpoint",
		"OS":               "os",
	}
	for in, want := range cases {
		assert.Equal(t, want, SnakeCase(in))
	}
}

func TestValidationMessageAggregates(t *testing.T) {
	v := validator.New()
	err := v.Struct(struct {
		Title       string `validate:"required"`
		Description string `validate:"required"`
		Severity    string `validate:"omitempty,oneof=Critical High"`
	}{Severity: "Meh"})
	require.Error(t, err)
	msg := ValidationMessage(err)
	assert.Equal(t, "title is required; description is required; severity must be one of: Critical, High", msg)
}

func TestNormalizeListQuery(t *testing.T) {
	q := types.ListQuery{Limit: 500}
	NormalizeListQuery(&q)
	assert.Equal(t, 1, q.Page)
	assert.Equal(t, config.MAX_LIMIT, q.Limit)
	assert.Equal(t, "all", q.Scope)

	q = types.ListQuery{}
	NormalizeListQuery(&q)
	assert.Equal(t, config.DEFAULT_LIMIT, q.Limit)
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate(nil)
	assert.NoError(t, err)
	assert.Nil(t, d)

	blank := " "
	d, err = ParseDate(&blank)
	assert.NoError(t, err)
	assert.Nil(t, d)

	s := "2025-03-14"
	d, err = ParseDate(&s)
	require.NoError(t, err)
	assert.Equal(t, 14, d.Day())

	bad := "14/03/2025"
	_, err = ParseDate(&bad)
	assert.Error(t, err)
}

func TestPasswords(t *testing.T) {
	hash, err := HashPassword("correct horse")
	require.NoError(t, err)
	assert.True(t, CheckPassword(hash, "correct horse"))
	assert.False(t, CheckPassword(hash, "battery staple"))
}

func TestGenerateJWT(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	signed, _, err := GenerateJWT(&models.User{ID: 9, Email: "qa@example.com", Role: "Tester"})
	require.NoError(t, err)

	claims := &types.Claims{}
	tkn, err := jwt.ParseWithClaims(signed, claims, func(t *jwt.Token) (any, error) {
		return []byte("test-secret"), nil
	})
	require.NoError(t, err)
	assert.True(t, tkn.Valid)
	assert.Equal(t, "9", claims.Subject)
	assert.Equal(t, "Tester", claims.Role)
}
