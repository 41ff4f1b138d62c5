package service

import (
	"context"
	"testing"
	"time"

	"github.com/dafibh/ledgerly/ledgerly-backend/internal/domain"
	"github.com/dafibh/ledgerly/ledgerly-backend/internal/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultMaterializerWorkerConfig(t *testing.T) {
	assert.Equal(t, time.Hour, DefaultMaterializerWorkerConfig().Interval)
}

func TestNewMaterializerWorker_DefaultsInterval(t *testing.T) {
	f := setupMaterializer(d(2024, 3, 20))
	worker := NewMaterializerWorker(f.materializer, zerolog.Nop(), MaterializerWorkerConfig{})
	assert.Equal(t, time.Hour, worker.interval)
	assert.False(t, worker.IsRunning())
}

func TestMaterializerWorker_RunOnce(t *testing.T) {
	f := setupMaterializer(d(2024, 3, 20))
	f.templates.AddTemplate(rentTemplate(1, domain.FrequencyMonthly, d(2024, 1, 15)))
	f.templates.AddTemplate(rentTemplate(2, domain.FrequencyMonthly, d(2024, 1, 15)))
	worker := NewMaterializerWorker(f.materializer, zerolog.Nop(), DefaultMaterializerWorkerConfig())

	result := worker.RunOnce(context.Background())
	require.NotNil(t, result)
	assert.Equal(t, 2, result.Created)
}

func TestMaterializerWorker_RunOnceListError(t *testing.T) {
	f := setupMaterializer(d(2024, 3, 20))
	f.templates.ListErr = testutil.ErrMock
	worker := NewMaterializerWorker(f.materializer, zerolog.Nop(), DefaultMaterializerWorkerConfig())

	assert.Nil(t, worker.RunOnce(context.Background()))
}

func TestMaterializerWorker_StartRunsImmediatelyAndStops(t *testing.T) {
	f := setupMaterializer(d(2024, 3, 20))
	f.templates.AddTemplate(rentTemplate(1, domain.FrequencyMonthly, d(2024, 1, 15)))
	worker := NewMaterializerWorker(f.materializer, zerolog.Nop(), MaterializerWorkerConfig{Interval: time.Hour})

	worker.Start(context.Background())
	worker.Start(context.Background())
	assert.True(t, worker.IsRunning())

	require.Eventually(t, func() bool {
		return len(f.transactions.All()) == 1
	}, time.Second, 10*time.Millisecond)

	worker.Stop()
	assert.False(t, worker.IsRunning())
	worker.Stop()
}

func TestMaterializerWorker_StopsOnContextCancel(t *testing.T) {
	f := setupMaterializer(d(2024, 3, 20))
	worker := NewMaterializerWorker(f.materializer, zerolog.Nop(), MaterializerWorkerConfig{Interval: 10 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	worker.Start(ctx)
	cancel()

	require.Eventually(t, func() bool {
		return !worker.IsRunning()
	}, time.Second, 10*time.Millisecond)
}
