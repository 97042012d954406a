package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestPruneRebuildsOnlyWhenRecordsDeleted(t *testing.T) {
	logger, _ := test.NewNullLogger()
	now := time.Date(2026, 6, 1, 3, 30, 0, 0, time.UTC)

	records := newMemoryRecords()
	rebuilder := &mockRebuilder{}
	svc := NewHousekeepingService(records, rebuilder, 30, logger)
	svc.now = func() time.Time { return now }

	n, err := svc.Prune(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	rebuilder.AssertNotCalled(t, "Rebuild", mock.Anything)

	records.deleted = 4
	rebuilder.On("Rebuild", mock.Anything).Return(12, nil).Once()
	n, err = svc.Prune(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
	rebuilder.AssertExpectations(t)

	require.Len(t, records.cutoffs, 2)
	assert.Equal(t, now.Add(-30*24*time.Hour), records.cutoffs[0])
}

func TestPruneReportsRebuildFailure(t *testing.T) {
	logger, _ := test.NewNullLogger()
	records := newMemoryRecords()
	records.deleted = 1
	rebuilder := &mockRebuilder{}
	rebuilder.On("Rebuild", mock.Anything).Return(0, errors.New("db gone"))

	n, err := NewHousekeepingService(records, rebuilder, 0, logger).Prune(context.Background())
	assert.Error(t, err)
	assert.Equal(t, int64(1), n)
}

func TestDefaultRetention(t *testing.T) {
	logger, _ := test.NewNullLogger()
	svc := NewHousekeepingService(newMemoryRecords(), &mockRebuilder{}, -5, logger)
	assert.Equal(t, 90*24*time.Hour, svc.retention)
}
