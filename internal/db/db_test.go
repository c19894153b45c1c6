package db

import (
	"context"
	"database/sql"
	"purchase-automation/lib/testutil"
	"testing"

	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*sql.DB, *Queries) {
	res, cleanup := testutil.SetupService(t, testutil.ServiceParams{
		Name:     "db",
		DbSchema: Schema,
	})
	t.Cleanup(cleanup)
	return res.DB, New(res.DB)
}

func insertRun(t *testing.T, qry *Queries, id, site string, startedAt int64) {
	err := qry.CreateRun(context.Background(), CreateRunParams{
		ID:        id,
		Site:      site,
		Product:   "60316",
		Keyword:   "lego city",
		Quantity:  1,
		Status:    StatusRunning,
		StartedAt: startedAt,
	})
	require.NoError(t, err)
}

func TestRunLifecycle(t *testing.T) {
	ctx := context.Background()
	_, qry := setup(t)

	insertRun(t, qry, "run-1", "kingjouet", 100)
	for i, name := range []string{"open_home", "search"} {
		err := qry.AddRunStep(ctx, AddRunStepParams{
			RunID: "run-1",
			Idx:   int64(i),
			Name:  name,
			Ok:    i == 0,
			Time:  100 + int64(i),
		})
		require.NoError(t, err)
	}
	err := qry.FinishRun(ctx, FinishRunParams{
		ID:          "run-1",
		Status:      StatusFailed,
		Step:        "search",
		ProductName: "LEGO City",
		Price:       49.99,
		Error:       "no results",
		FinishedAt:  sql.NullInt64{Int64: 130, Valid: true},
	})
	require.NoError(t, err)

	run, err := qry.GetRun(ctx, "run-1")
	require.NoError(t, err)
	require.Equal(t, Run{
		ID:          "run-1",
		Site:        "kingjouet",
		Product:     "60316",
		Keyword:     "lego city",
		Quantity:    1,
		Status:      StatusFailed,
		Step:        "search",
		ProductName: "LEGO City",
		Price:       49.99,
		Error:       "no results",
		StartedAt:   100,
		FinishedAt:  sql.NullInt64{Int64: 130, Valid: true},
	}, run)

	steps, err := qry.ListRunSteps(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, steps, 2)
	require.Equal(t, "open_home", steps[0].Name)
	require.True(t, steps[0].Ok)
	require.False(t, steps[1].Ok)

	_, err = qry.GetRun(ctx, "missing")
	require.ErrorIs(t, err, sql.ErrNoRows)
}

func TestListAndPrune(t *testing.T) {
	ctx := context.Background()
	_, qry := setup(t)

	insertRun(t, qry, "a", "kingjouet", 100)
	insertRun(t, qry, "b", "toyshop", 200)
	insertRun(t, qry, "c", "kingjouet", 300)

	runs, err := qry.ListRuns(ctx, 2)
	require.NoError(t, err)
	require.Equal(t, []string{"c", "b"}, []string{runs[0].ID, runs[1].ID})

	runs, err = qry.ListRunsForSite(ctx, ListRunsForSiteParams{Site: "kingjouet", Limit: 10})
	require.NoError(t, err)
	require.Len(t, runs, 2)

	require.NoError(t, qry.AddRunStep(ctx, AddRunStepParams{RunID: "a", Name: "open_home", Time: 100}))
	require.NoError(t, qry.DeleteStepsOfRunsBefore(ctx, 250))
	deleted, err := qry.DeleteRunsBefore(ctx, 250)
	require.NoError(t, err)
	require.Equal(t, int64(2), deleted)

	steps, err := qry.ListRunSteps(ctx, "a")
	require.NoError(t, err)
	require.Empty(t, steps)
}

func TestMakeTx(t *testing.T) {
	ctx := context.Background()
	database, qry := setup(t)
	makeTx := NewMakeTx(database)

	tx, discard, _, err := makeTx(ctx)
	require.NoError(t, err)
	insertRun(t, tx, "rolled-back", "kingjouet", 1)
	require.NoError(t, discard())

	_, err = qry.GetRun(ctx, "rolled-back")
	require.ErrorIs(t, err, sql.ErrNoRows)

	tx, discard, commit, err := makeTx(ctx)
	require.NoError(t, err)
	insertRun(t, tx, "committed", "kingjouet", 1)
	require.NoError(t, commit())
	require.NoError(t, discard())

	_, err = qry.GetRun(ctx, "committed")
	require.NoError(t, err)
}
