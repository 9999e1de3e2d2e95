package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/engineer-metrics/internal/model"
	"github.com/nhle/engineer-metrics/tests/testutil"
)

func TestProjectAudits(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()
	_, err := s.UpsertProject(ctx, model.Project{ID: 5, Name: "Migration", Status: "Ready to Close"})
	require.NoError(t, err)

	changedAt := time.Date(2024, 2, 1, 10, 0, 0, 0, time.UTC)

	audit := model.ProjectAudit{
		ProjectID:      5,
		Status:         "Ready to Close",
		PreviousStatus: "In Progress",
		ChangedBy:      "eng1",
		ChangedAt:      changedAt,
		Message:        "Status changed",
	}

	has, err := s.HasProjectAudit(ctx, audit)
	require.NoError(t, err)
	assert.False(t, has)

	require.NoError(t, s.InsertProjectAudit(ctx, audit))

	has, err = s.HasProjectAudit(ctx, audit)
	require.NoError(t, err)
	assert.True(t, has)

	// The same event with a different derived status is still a duplicate.
	restated := audit
	restated.Status = "Closed"
	has, err = s.HasProjectAudit(ctx, restated)
	require.NoError(t, err)
	assert.True(t, has)

	later := audit
	later.ChangedAt = changedAt.Add(time.Hour)
	has, err = s.HasProjectAudit(ctx, later)
	require.NoError(t, err)
	assert.False(t, has)

	audits, err := s.GetProjectAudits(ctx, 5)
	require.NoError(t, err)
	require.Len(t, audits, 1)
	assert.NotEmpty(t, audits[0].ID)
	assert.Equal(t, "In Progress", audits[0].PreviousStatus)
	assert.True(t, changedAt.Equal(audits[0].ChangedAt))
	assert.False(t, audits[0].CreatedAt.IsZero())
}

func TestProjectAudits_UnknownProject(t *testing.T) {
	s := testutil.NewTestStore(t)

	err := s.InsertProjectAudit(context.Background(), model.ProjectAudit{
		ProjectID: 404, Status: "Closed", ChangedAt: time.Now(),
	})
	assert.Error(t, err)
}
