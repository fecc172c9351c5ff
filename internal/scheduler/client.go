package scheduler

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"time"

	"rideshare_backend/platform/config"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
)

const (
	reviewEmailMaxRetry = 8
	reviewEmailTimeout  = time.Minute
)

type Client struct {
	client *asynq.Client
	queue  string
}

// ReviewEmailScheduler queues the email a driver gets after a vehicle review.
type ReviewEmailScheduler interface {
	EnqueueVehicleReviewEmail(ctx context.Context, payload VehicleReviewEmailPayload) error
}

func NewClient(cfg config.SchedulerConfig) (*Client, error) {
	if cfg.GetRedisURL() == "" {
		return nil, errors.New("redis url not configured")
	}
	opt, err := redisClientOpt(cfg.GetRedisURL(), cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	return &Client{
		client: asynq.NewClient(opt),
		queue:  queueName(cfg),
	}, nil
}

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// EnqueueVehicleReviewEmail queues the email once per review. The vehicle id
// and status make the task id, so a replayed event does not mail twice.
func (c *Client) EnqueueVehicleReviewEmail(ctx context.Context, payload VehicleReviewEmailPayload) error {
	if c == nil || c.client == nil {
		return nil
	}

	task, err := NewVehicleReviewEmailTask(payload)
	if err != nil {
		return err
	}

	_, err = c.client.EnqueueContext(ctx, task, reviewEmailOptions(c.queue, payload)...)
	if err != nil && !errors.Is(err, asynq.ErrTaskIDConflict) {
		return err
	}
	return nil
}

func reviewEmailOptions(queue string, payload VehicleReviewEmailPayload) []asynq.Option {
	return []asynq.Option{
		asynq.Queue(queue),
		asynq.MaxRetry(reviewEmailMaxRetry),
		asynq.Timeout(reviewEmailTimeout),
		asynq.TaskID(TaskVehicleReviewEmail + ":" + payload.VehicleID + ":" + payload.Status),
	}
}

func queueName(cfg config.SchedulerConfig) string {
	if q := cfg.GetAsynqQueueName(); q != "" {
		return q
	}
	return "default"
}

// redisClientOpt reads the same REDIS_URL forms the lookup cache accepts.
func redisClientOpt(redisURL string, tlsInsecure bool) (asynq.RedisClientOpt, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return asynq.RedisClientOpt{}, fmt.Errorf("parse redis url: %w", err)
	}

	tlsConfig := opt.TLSConfig
	if tlsInsecure {
		if tlsConfig == nil {
			tlsConfig = &tls.Config{}
		} else {
			tlsConfig = tlsConfig.Clone()
		}
		tlsConfig.InsecureSkipVerify = true
	}

	return asynq.RedisClientOpt{
		Addr:      opt.Addr,
		Username:  opt.Username,
		Password:  opt.Password,
		DB:        opt.DB,
		TLSConfig: tlsConfig,
	}, nil
}
