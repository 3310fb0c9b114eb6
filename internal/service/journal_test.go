package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/postjournal/internal/model"
	"github.com/d60-Lab/postjournal/internal/repository"
	"github.com/d60-Lab/postjournal/internal/testutil"
)

func TestJournal_RecordAndQuery(t *testing.T) {
	j := NewJournal(repository.NewJournalRepository(testutil.NewDB(t)))
	ctx := context.Background()
	u := model.NewID()

	rec, err := j.RecordFieldChange(ctx, u, model.FieldPassword, "plain-old", "plain-new")
	require.NoError(t, err)
	assert.True(t, model.IsID(rec.ID))
	assert.Equal(t, model.RedactedValue, rec.StateBefore)

	_, err = j.RecordFieldChange(ctx, u, model.FieldUsername, "a", "b")
	require.NoError(t, err)

	all, err := j.Query(ctx, u, nil)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, model.FieldUsername, all[0].Field)

	none, err := j.Query(ctx, model.NewID(), nil)
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestJournal_RejectsBadInput(t *testing.T) {
	j := NewJournal(repository.NewJournalRepository(testutil.NewDB(t)))
	ctx := context.Background()

	_, err := j.RecordFieldChange(ctx, "", model.FieldEmail, "a", "b")
	assert.ErrorIs(t, err, ErrValidation)
	_, err = j.RecordFieldChange(ctx, model.NewID(), model.JournalField("age"), "1", "2")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestJournal_TimestampsNeverGoBackwards(t *testing.T) {
	j := NewJournal(repository.NewJournalRepository(testutil.NewDB(t)))
	ctx := context.Background()
	u := model.NewID()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := []time.Time{base, base.Add(-time.Hour), base.Add(time.Second)}
	i := 0
	j.now = func() time.Time { ts := clock[i]; i++; return ts }

	for _, after := range []string{"b", "c", "d"} {
		_, err := j.RecordFieldChange(ctx, u, model.FieldUsername, "x", after)
		require.NoError(t, err)
	}

	recs, err := j.Query(ctx, u, nil)
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, []string{"d", "c", "b"}, []string{recs[0].StateAfter, recs[1].StateAfter, recs[2].StateAfter})
	assert.True(t, recs[1].Timestamp.Equal(base))
}
