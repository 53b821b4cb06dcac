package lib

import (
	"testing"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateCronJobRegistersNamedJob(t *testing.T) {
	s, err := gocron.NewScheduler()
	require.NoError(t, err)
	NewScheduler(s)
	defer func() {
		s.Shutdown()
		NewScheduler(nil)
	}()

	id, err := CreateCronJob("low-stock", time.Hour, func() {})
	require.NoError(t, err)
	assert.NotEmpty(t, *id)

	_, err = CreateDailyJob("overdue-bugs", 8, 0, func(n int) {}, 1)
	require.NoError(t, err)

	names := []string{}
	for _, j := range s.Jobs() {
		names = append(names, j.Name())
	}
	assert.ElementsMatch(t, []string{"low-stock", "overdue-bugs"}, names)
}
