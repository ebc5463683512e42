package repository

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josefrancisco81788/Tool---Financial-Statement-Transcription-sub001/constants"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testRepo(t *testing.T) (RunRepository, context.Context) {
	t.Helper()
	ctx := context.Background()

	db, err := Open(ctx, Config{DSN: ":memory:"}, testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, EnsureSchema(ctx, db))
	return NewRunRepository(db, testLogger()), ctx
}

func TestStartAndGetRun(t *testing.T) {
	repo, ctx := testRepo(t)

	run, err := repo.StartRun(ctx, "annual-report-2023", 12)
	require.NoError(t, err)
	assert.Equal(t, constants.RunStatusRunning, run.Status)

	got, err := repo.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.ID, got.ID)
	assert.Equal(t, "annual-report-2023", got.DocumentName)
	assert.Equal(t, 12, got.PagesTotal)
	assert.Nil(t, got.FinishedAt)
}

func TestSetStatus(t *testing.T) {
	repo, ctx := testRepo(t)

	run, err := repo.StartRun(ctx, "doc", 3)
	require.NoError(t, err)

	require.NoError(t, repo.SetStatus(ctx, run.ID, constants.RunStatusClassified))
	got, err := repo.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.RunStatusClassified, got.Status)
}

func TestFinishRun(t *testing.T) {
	repo, ctx := testRepo(t)

	run, err := repo.StartRun(ctx, "doc", 3)
	require.NoError(t, err)

	require.NoError(t, repo.FinishRun(ctx, run.ID, constants.RunStatusFailed, "no pages succeeded"))
	got, err := repo.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.RunStatusFailed, got.Status)
	assert.Equal(t, "no pages succeeded", got.ErrorMessage)
	require.NotNil(t, got.FinishedAt)
	assert.False(t, got.FinishedAt.IsZero())
}

func TestRecordPageUpsert(t *testing.T) {
	repo, ctx := testRepo(t)

	run, err := repo.StartRun(ctx, "doc", 1)
	require.NoError(t, err)

	// classification pass writes the score
	require.NoError(t, repo.RecordPage(ctx, run.ID, PageOutcome{
		PageNum:       1,
		StatementType: "BalanceSheet",
		Score:         9.5,
	}))

	// extraction pass overwrites the same row with the outcome
	require.NoError(t, repo.RecordPage(ctx, run.ID, PageOutcome{
		PageNum:       1,
		StatementType: "BalanceSheet",
		Score:         9.5,
		Confidence:    0.9,
		Success:       true,
	}))
}
