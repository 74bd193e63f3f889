package ledger_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/scalixity/campaign-backend/internal/errors"
	"github.com/scalixity/campaign-backend/internal/ledger"
	"github.com/scalixity/campaign-backend/internal/model"
)

func TestStartAndSnapshot(t *testing.T) {
	l := ledger.New()
	require.NoError(t, l.Start("camp", 3))

	view, err := l.Snapshot("camp", false)
	require.NoError(t, err)
	assert.Equal(t, model.StatusProcessing, view.Status)
	assert.Equal(t, 3, view.Total)
	assert.Zero(t, view.Processed)
	assert.Nil(t, view.Outcomes)
}

func TestSnapshotUnknownKey(t *testing.T) {
	l := ledger.New()
	_, err := l.Snapshot("nope", false)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestStartCollidesWithLiveCampaign(t *testing.T) {
	l := ledger.New()
	require.NoError(t, l.Start("camp", 1))

	err := l.Start("camp", 1)
	assert.True(t, apperrors.IsExists(err))

	// A finished campaign may be re-run under the same key.
	require.NoError(t, l.Finish("camp", model.StatusCompleted, ""))
	require.NoError(t, l.Start("camp", 5))

	view, err := l.Snapshot("camp", false)
	require.NoError(t, err)
	assert.Equal(t, model.StatusProcessing, view.Status)
	assert.Equal(t, 5, view.Total)
	assert.Zero(t, view.Processed)
}

func TestRecordMovesCountersTogether(t *testing.T) {
	l := ledger.New()
	require.NoError(t, l.Start("camp", 3))

	require.NoError(t, l.Record("camp", model.OutcomeRecord{Phone: "+1", Success: true, Note: "sent"}))
	require.NoError(t, l.Record("camp", model.OutcomeRecord{Phone: "+2", Success: false, Note: "delivery rejected"}))
	require.NoError(t, l.Record("camp", model.OutcomeRecord{Phone: "+3", Success: true, Note: "sent"}))

	view, err := l.Snapshot("camp", true)
	require.NoError(t, err)
	assert.Equal(t, 3, view.Processed)
	assert.Equal(t, 2, view.Successful)
	assert.Equal(t, 1, view.Failed)
	require.Len(t, view.Outcomes, view.Processed)
	assert.Equal(t, "+1", view.Outcomes[0].Phone)
	assert.Equal(t, "+2", view.Outcomes[1].Phone)
	assert.Equal(t, "+3", view.Outcomes[2].Phone)
}

func TestFinishTransitions(t *testing.T) {
	l := ledger.New()
	require.NoError(t, l.Start("camp", 1))

	require.NoError(t, l.Finish("camp", model.StatusCompleted, ""))
	// Same terminal value twice is a no-op.
	require.NoError(t, l.Finish("camp", model.StatusCompleted, ""))
	// A conflicting terminal value is rejected.
	err := l.Finish("camp", model.StatusFailed, "boom")
	assert.True(t, apperrors.IsInvalidTransition(err))

	view, err := l.Snapshot("camp", false)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, view.Status)
	assert.NotNil(t, view.FinishedAt)
}

func TestFinishRejectsNonTerminalStatus(t *testing.T) {
	l := ledger.New()
	require.NoError(t, l.Start("camp", 1))
	err := l.Finish("camp", model.StatusProcessing, "")
	assert.True(t, apperrors.IsInvalidTransition(err))
}

func TestSetTotalNeverDecreases(t *testing.T) {
	l := ledger.New()
	require.NoError(t, l.Start("camp", 0))

	require.NoError(t, l.SetTotal("camp", 4))
	require.NoError(t, l.SetTotal("camp", 2))

	view, err := l.Snapshot("camp", false)
	require.NoError(t, err)
	assert.Equal(t, 4, view.Total)
}

func TestList(t *testing.T) {
	l := ledger.New()
	require.NoError(t, l.Start("b", 1))
	require.NoError(t, l.Start("a", 2))

	views := l.List()
	require.Len(t, views, 2)
	assert.Equal(t, "a", views[0].Key)
	assert.Equal(t, "b", views[1].Key)
}

// TestConcurrentSnapshots hammers one entry with a single writer and many
// readers. Every snapshot must reflect a state the write sequence actually
// passed through: counters consistent with each other and with the outcome
// list.
func TestConcurrentSnapshots(t *testing.T) {
	const total = 500

	l := ledger.New()
	require.NoError(t, l.Start("camp", total))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < total; i++ {
			_ = l.Record("camp", model.OutcomeRecord{Phone: "+1", Success: i%2 == 0, Note: "sent"})
		}
		_ = l.Finish("camp", model.StatusCompleted, "")
	}()

	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				view, err := l.Snapshot("camp", true)
				if !assert.NoError(t, err) {
					return
				}
				assert.Equal(t, view.Processed, view.Successful+view.Failed)
				assert.LessOrEqual(t, view.Processed, view.Total)
				assert.Len(t, view.Outcomes, view.Processed)
				if view.Status.Terminal() {
					return
				}
			}
		}()
	}
	wg.Wait()

	view, err := l.Snapshot("camp", false)
	require.NoError(t, err)
	assert.Equal(t, total, view.Processed)
	assert.Equal(t, model.StatusCompleted, view.Status)
}
