package syncx_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/testseries/internal/db"
	syncx "github.com/mind-engage/testseries/internal/sync"
)

func TestRecordAndList(t *testing.T) {
	ctx := context.Background()
	dbh, err := db.Open(ctx, db.DriverSQLite, "file:eventlog_test?mode=memory&cache=shared")
	require.NoError(t, err)
	defer dbh.Close()

	repo := syncx.NewEventRepo(dbh, "site-a")
	require.NoError(t, repo.Record(ctx, syncx.TypeAnswerRecorded, "a1", map[string]any{"question_id": "q1"}))
	require.NoError(t, repo.Record(ctx, syncx.TypeAttemptCompleted, "a1", map[string]any{"score": 3}))
	require.NoError(t, repo.Record(ctx, syncx.TypeAnswerRecorded, "a2", map[string]any{"question_id": "q1"}))

	got, err := repo.ListByKey(ctx, "a1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, syncx.TypeAnswerRecorded, got[0].Type)
	assert.Equal(t, syncx.TypeAttemptCompleted, got[1].Type)
	assert.Less(t, got[0].Seq, got[1].Seq)
	assert.Equal(t, "site-a", got[0].SiteID)
	assert.JSONEq(t, `{"score":3}`, got[1].DataJSON)
}
