package purchase

import (
	"context"
	"database/sql"
	"errors"
	"purchase-automation/internal/db"
	"time"
)

// History stores runs and their steps. The zero value drops everything,
// for runs that should leave no trace.
type History struct {
	qry    *db.Queries
	makeTx db.MakeTx
}

func NewHistory(qry *db.Queries, makeTx db.MakeTx) History {
	return History{qry: qry, makeTx: makeTx}
}

func (h History) enabled() bool {
	return h.qry != nil
}

func (h History) start(ctx context.Context, result Result, req Request) error {
	if !h.enabled() {
		return nil
	}
	return h.qry.CreateRun(ctx, db.CreateRunParams{
		ID:         result.RunID,
		Site:       result.Site,
		Product:    req.Product.ID,
		Keyword:    req.Product.Keyword,
		Quantity:   int64(req.Product.Quantity),
		PlaceOrder: req.PlaceOrder,
		Status:     db.StatusRunning,
		StartedAt:  result.StartedAt.Unix(),
	})
}

func (h History) step(ctx context.Context, runID string, idx int, name string, ok bool, detail, screenshot string, at time.Time) error {
	if !h.enabled() {
		return nil
	}
	return h.qry.AddRunStep(ctx, db.AddRunStepParams{
		RunID:      runID,
		Idx:        int64(idx),
		Name:       name,
		Ok:         ok,
		Detail:     detail,
		Screenshot: screenshot,
		Time:       at.Unix(),
	})
}

func (h History) finish(ctx context.Context, result Result) error {
	if !h.enabled() {
		return nil
	}
	errText := ""
	if result.Err != nil {
		errText = result.Err.Error()
	}
	finishedAt := sql.NullInt64{Int64: result.FinishedAt.Unix(), Valid: true}
	return h.qry.FinishRun(ctx, db.FinishRunParams{
		Status:      result.Status,
		Step:        result.Step,
		ProductName: result.ProductName,
		Price:       result.Price,
		OrderNumber: result.OrderNumber,
		Error:       errText,
		FinishedAt:  finishedAt,
		ID:          result.RunID,
	})
}

// Recent lists the latest runs, newest first. An empty `siteName` lists
// the runs of every site.
func (h History) Recent(ctx context.Context, siteName string, limit int) ([]db.Run, error) {
	if !h.enabled() {
		return nil, nil
	}
	if siteName == "" {
		return h.qry.ListRuns(ctx, int64(limit))
	}
	return h.qry.ListRunsForSite(ctx, db.ListRunsForSiteParams{
		Site:  siteName,
		Limit: int64(limit),
	})
}

// Run returns a run with its steps in order.
func (h History) Run(ctx context.Context, runID string) (db.Run, []db.RunStep, error) {
	if !h.enabled() {
		return db.Run{}, nil, sql.ErrNoRows
	}
	run, err := h.qry.GetRun(ctx, runID)
	if err != nil {
		return db.Run{}, nil, err
	}
	steps, err := h.qry.ListRunSteps(ctx, runID)
	if err != nil {
		return db.Run{}, nil, err
	}
	return run, steps, nil
}

// Prune deletes the runs started before `before` along with their steps,
// it returns how many runs were deleted.
func (h History) Prune(ctx context.Context, before time.Time) (int64, error) {
	if !h.enabled() || h.makeTx == nil {
		return 0, errors.New("history is not stored")
	}

	tx, discard, commit, err := h.makeTx(ctx)
	if err != nil {
		return 0, err
	}
	defer discard()

	err = tx.DeleteStepsOfRunsBefore(ctx, before.Unix())
	if err != nil {
		return 0, err
	}
	count, err := tx.DeleteRunsBefore(ctx, before.Unix())
	if err != nil {
		return 0, err
	}
	return count, commit()
}
