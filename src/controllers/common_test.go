package controllers

import (
	"context"
	"opsdesk/src/lib"
	"testing"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
)

func TestInvalidationSetIncludesDependents(t *testing.T) {
	assert.Equal(t, []string{bugsEntity}, invalidationSet(bugsEntity))
	assert.Equal(t, []string{projectsEntity, bugsEntity}, invalidationSet(projectsEntity))
	assert.Equal(t, []string{employeesEntity, bugsEntity, projectsEntity, assetsEntity}, invalidationSet(employeesEntity))
	assert.Equal(t, []string{projectsEntity, bugsEntity, employeesEntity, assetsEntity}, invalidationSet(projectsEntity, employeesEntity))
}

func TestProjectChangeDropsCachedBugs(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	lib.UseRedisClient(rdb)
	t.Cleanup(func() { lib.UseRedisClient(nil) })

	mock.ExpectIncr("opsdesk:projects:gen").SetVal(2)
	mock.ExpectIncr("opsdesk:bugs:gen").SetVal(7)
	invalidate(context.Background(), projectsEntity)
	assert.NoError(t, mock.ExpectationsWereMet())
}
