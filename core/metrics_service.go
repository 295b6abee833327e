package core

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// RedisScanner は セッション数の集計に使う最小限の Redis 操作。
type RedisScanner interface {
	Scan(ctx context.Context, cursor uint64, match string, count int64) *redis.ScanCmd
}

// MetricsService は Redis に保存されたセッション数を取得する。
type MetricsService struct {
	redis RedisScanner
}

func NewMetricsService(redis RedisScanner) *MetricsService {
	return &MetricsService{redis: redis}
}

// StoredSessions は Redis に残っているセッションキーの数を返す。
func (s *MetricsService) StoredSessions(ctx context.Context) (int64, error) {
	iter := s.redis.Scan(ctx, 0, redisSessionPrefix+"*", 100).Iterator()
	var n int64
	for iter.Next(ctx) {
		n++
	}
	if err := iter.Err(); err != nil {
		return 0, err
	}
	return n, nil
}
