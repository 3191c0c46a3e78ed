package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"FloorSignin/config"
)

func TestKey(t *testing.T) {
	prev := config.Cfg.RedisPrefix
	defer func() { config.Cfg.RedisPrefix = prev }()

	config.Cfg.RedisPrefix = "floor"
	assert.Equal(t, "floor:session:a@x.com", Key("session", "", "a@x.com"))

	config.Cfg.RedisPrefix = ""
	assert.Equal(t, "floor:device", Key("device"))
}

func TestNewClient(t *testing.T) {
	mr := miniredis.RunT(t)

	cli, err := NewClient(context.Background(), Options{Addr: mr.Addr(), Service: "floor-signin"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = cli.Close() })
	require.NoError(t, cli.Set(context.Background(), "k", "v", 0).Err())

	mr.Close()
	_, err = NewClient(context.Background(), Options{Addr: mr.Addr()})
	assert.Error(t, err)
}

func TestSanitizeKey(t *testing.T) {
	assert.Equal(t, "floor:session:***", sanitizeKey("floor:session:a@x.com"))
	assert.Equal(t, "floor:lock", sanitizeKey("floor:lock"))
	assert.Equal(t, []string{"floor:device:***"}, extractKeys([]interface{}{"get", "floor:device:a@x.com"}))
	assert.Empty(t, extractKeys([]interface{}{"ping"}))
}

func TestTracingHookRecordsSpans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(provider)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	mr := miniredis.RunT(t)
	cli := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = cli.Close() })
	cli.AddHook(NewTracingHook("floor-signin", 0))

	ctx := context.Background()
	require.NoError(t, cli.Set(ctx, "floor:session:a@x.com", "v", 0).Err())
	assert.ErrorIs(t, cli.Get(ctx, "floor:session:b@x.com").Err(), goredis.Nil)

	// 建连时的 hello 等命令也可能产生 span，这里只看业务命令
	byName := map[string]sdktrace.ReadOnlySpan{}
	for _, span := range recorder.Ended() {
		byName[span.Name()] = span
	}
	require.Contains(t, byName, "set")
	require.Contains(t, byName, "get")
	assert.Equal(t, codes.Unset, byName["get"].Status().Code)
}
