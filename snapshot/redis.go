package snapshot

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var _ PrimitiveStorage = &RedisStorage{}

type RedisStorage struct {
	currentClient redis.Cmdable
	tracer        trace.Tracer
}

func NewRedisStorage(client redis.Cmdable) *RedisStorage {
	return &RedisStorage{
		currentClient: client,
		tracer:        otel.Tracer("redis"),
	}
}

// NewRedisStorageFromAddress dials addr and checks the connection.
func NewRedisStorageFromAddress(ctx context.Context, addr, password string) (*RedisStorage, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, eris.Wrapf(err, "failed to connect to redis at %s", addr)
	}
	return NewRedisStorage(client), nil
}

func fail(span trace.Span, err error) error {
	span.SetStatus(codes.Error, eris.ToString(err, true))
	span.RecordError(err)
	return err
}

func (r *RedisStorage) GetBytes(ctx context.Context, key string) ([]byte, error) {
	ctx, span := r.tracer.Start(ctx, "redis.get", trace.WithAttributes(attribute.String("key", key)))
	defer span.End()

	bz, err := r.currentClient.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fail(span, eris.Wrapf(ErrNotFound, "key %q", key))
	}
	if err != nil {
		return nil, fail(span, eris.Wrap(err, ""))
	}
	return bz, nil
}

func (r *RedisStorage) Set(ctx context.Context, key string, value any) error {
	ctx, span := r.tracer.Start(ctx, "redis.set", trace.WithAttributes(attribute.String("key", key)))
	defer span.End()

	if err := r.currentClient.Set(ctx, key, value, 0).Err(); err != nil {
		return fail(span, eris.Wrap(err, ""))
	}
	return nil
}

func (r *RedisStorage) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	ctx, span := r.tracer.Start(ctx, "redis.del", trace.WithAttributes(attribute.Int("keys", len(keys))))
	defer span.End()

	if err := r.currentClient.Del(ctx, keys...).Err(); err != nil {
		return fail(span, eris.Wrap(err, ""))
	}
	return nil
}

func (r *RedisStorage) Keys(ctx context.Context, pattern string) ([]string, error) {
	ctx, span := r.tracer.Start(ctx, "redis.keys", trace.WithAttributes(attribute.String("pattern", pattern)))
	defer span.End()

	keys, err := r.currentClient.Keys(ctx, pattern).Result()
	if err != nil {
		return nil, fail(span, eris.Wrap(err, ""))
	}
	return keys, nil
}

func (r *RedisStorage) StartTransaction(_ context.Context) (Transaction, error) {
	pipeline := r.currentClient.TxPipeline()
	return NewRedisStorage(pipeline), nil
}

func (r *RedisStorage) EndTransaction(ctx context.Context) error {
	ctx, span := r.tracer.Start(ctx, "redis.transaction.end")
	defer span.End()

	pipeline, ok := r.currentClient.(redis.Pipeliner)
	if !ok {
		return fail(span, eris.New("current redis storage is not a pipeline/transaction"))
	}
	if _, err := pipeline.Exec(ctx); err != nil {
		return fail(span, eris.Wrap(err, ""))
	}
	return nil
}

func (r *RedisStorage) Close(ctx context.Context) error {
	if closer, ok := r.currentClient.(interface{ Close() error }); ok {
		return eris.Wrap(closer.Close(), "")
	}
	return nil
}
