package app

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"

	"github.com/webcanteen/webcanteen-analytics/internal/analytics"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestReportStackWithRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := &Config{RedisEnabled: true, RedisAddr: mr.Addr(), DatasetDir: t.TempDir(), ReportCacheTTL: time.Minute, SnapshotTTL: time.Minute}

	stack := NewReportStack(context.Background(), cfg, discardLogger())
	t.Cleanup(func() { _ = stack.Close() })
	require.NotNil(t, stack.Redis)

	id, err := stack.Service.SaveSnapshot(context.Background(), analytics.Report{Period: "adhoc"})
	require.NoError(t, err)
	require.NotEmpty(t, id)
	require.Greater(t, mr.TTL("analytics:snapshot:"+id), time.Duration(0))
}

func TestReportStackFallsBackWithoutRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()
	cfg := &Config{RedisEnabled: true, RedisAddr: addr, DatasetDir: t.TempDir()}

	stack := NewReportStack(context.Background(), cfg, discardLogger())
	require.Nil(t, stack.Redis)
	require.NoError(t, stack.Close())

	_, err := stack.Service.SaveSnapshot(context.Background(), analytics.Report{})
	require.ErrorIs(t, err, analytics.ErrSnapshotsDisabled)

	periods, err := stack.Service.Periods(context.Background())
	require.NoError(t, err)
	require.Empty(t, periods)
}
