package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const queueKey = "queue:media-cleanup"

// Job asks the worker to delete an uploaded asset that no article references.
type Job struct {
	AssetID  string `json:"asset_id"`
	Attempts int    `json:"attempts"`
}

// Queue is a Redis list of pending cleanup jobs.
type Queue struct {
	rdb *redis.Client
}

func NewQueue(redisAddr string) (*Queue, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: redisAddr,
	})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return &Queue{rdb: rdb}, nil
}

func (q *Queue) Close() error {
	return q.rdb.Close()
}

func (q *Queue) Push(ctx context.Context, job Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return q.rdb.LPush(ctx, queueKey, data).Err()
}

// Pop blocks until a job is available or ctx is done.
func (q *Queue) Pop(ctx context.Context) (Job, error) {
	result, err := q.rdb.BRPop(ctx, 0, queueKey).Result()
	if err != nil {
		return Job{}, err
	}

	var job Job
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		return Job{}, fmt.Errorf("decode job: %w", err)
	}
	return job, nil
}
