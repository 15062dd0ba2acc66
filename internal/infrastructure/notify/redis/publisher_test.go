package redis

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"xprobe/internal/application/port"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func sampleReport() port.Report {
	return port.Report{
		RunID:     "3f1c",
		StartedAt: time.UnixMilli(1700000000000),
		Duration:  1500 * time.Millisecond,
		Outcomes: []port.Outcome{
			{Name: "REST API", OK: true, Detail: "4/4 steps ok", Duration: time.Second},
			{Name: "WebSocket", OK: false, Detail: "streaming transport unavailable", Err: errors.New("streaming transport unavailable")},
		},
		Verdict:  port.VerdictDegraded,
		ExitCode: 0,
	}
}

func TestEncodeReport(t *testing.T) {
	s, err := encodeReport(sampleReport())
	require.NoError(t, err)

	var got reportPayload
	require.NoError(t, json.Unmarshal([]byte(s), &got))
	require.Equal(t, "3f1c", got.RunID)
	require.Equal(t, int64(1700000000000), got.StartedAtMs)
	require.Equal(t, int64(1500), got.DurationMs)
	require.Equal(t, "degraded", got.Verdict)
	require.Len(t, got.Probes, 2)
	require.Empty(t, got.Probes[0].Error)
	require.Equal(t, "streaming transport unavailable", got.Probes[1].Error)
}

func TestNewDefaults(t *testing.T) {
	p := New(nil, "", "")
	require.Equal(t, "xprobe:reports", p.stream)
	require.Equal(t, "xprobe:reports:pub", p.channel)
	require.Equal(t, "redis", p.Name())
}

func TestPublishUnreachable(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 200 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer rdb.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	err := New(rdb, "s", "c").Publish(ctx, sampleReport())
	require.Error(t, err)
	require.Contains(t, err.Error(), "xadd s")
}

func TestPublishWritesStreamAndChannel(t *testing.T) {
	m := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: m.Addr()})
	defer rdb.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	sub := rdb.Subscribe(ctx, "c")
	defer sub.Close()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	require.NoError(t, New(rdb, "s", "c").Publish(ctx, sampleReport()))

	msg, err := sub.ReceiveMessage(ctx)
	require.NoError(t, err)
	require.Equal(t, "c", msg.Channel)

	var got reportPayload
	require.NoError(t, json.Unmarshal([]byte(msg.Payload), &got))
	require.Equal(t, "3f1c", got.RunID)
	require.Equal(t, "degraded", got.Verdict)

	entries, err := m.Stream("s")
	require.NoError(t, err)
	require.Len(t, entries, 1)

	fields := make(map[string]string, len(entries[0].Values)/2)
	for i := 0; i+1 < len(entries[0].Values); i += 2 {
		fields[entries[0].Values[i]] = entries[0].Values[i+1]
	}
	require.Equal(t, "3f1c", fields["run_id"])
	require.Equal(t, "degraded", fields["verdict"])
	require.Equal(t, "0", fields["exit_code"])
	require.JSONEq(t, msg.Payload, fields["payload"])
}
