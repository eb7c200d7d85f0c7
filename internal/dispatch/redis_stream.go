package dispatch

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const (
	defaultStream = "calls:process"
	defaultGroup  = "call-workers"
)

// RedisDispatcher publishes record ids onto a Redis stream consumed by a
// RedisWorkerPool (possibly in another process).
type RedisDispatcher struct {
	Redis  *redis.Client
	Stream string
}

func (d *RedisDispatcher) Submit(ctx context.Context, id int64) error {
	stream := d.Stream
	if stream == "" {
		stream = defaultStream
	}
	return d.Redis.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		Values: map[string]any{"record_id": strconv.FormatInt(id, 10)},
	}).Err()
}

// RedisWorkerPool drains the processing stream through a consumer group. A
// message is acked whether or not processing succeeded: the record either
// reached a terminal state or is still pending for the sweep, so redelivery
// adds nothing.
type RedisWorkerPool struct {
	Redis      *redis.Client
	Proc       Processor
	NumWorkers int

	Logger *logrus.Logger

	Stream         string
	Group          string
	ConsumerPrefix string
}

func (p *RedisWorkerPool) Start(ctx context.Context) error {
	if p.Stream == "" {
		p.Stream = defaultStream
	}
	if p.Group == "" {
		p.Group = defaultGroup
	}
	if p.ConsumerPrefix == "" {
		p.ConsumerPrefix = "c"
	}
	if p.NumWorkers <= 0 {
		p.NumWorkers = 4
	}
	if p.Logger == nil {
		p.Logger = logrus.New()
	}

	_ = p.Redis.XGroupCreateMkStream(ctx, p.Stream, p.Group, "0").Err() // ignore BUSYGROUP

	for i := 0; i < p.NumWorkers; i++ {
		consumer := p.ConsumerPrefix + "-" + strconv.Itoa(i+1)
		go p.runConsumer(ctx, consumer)
	}
	return nil
}

func (p *RedisWorkerPool) runConsumer(ctx context.Context, consumer string) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		res, err := p.Redis.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    p.Group,
			Consumer: consumer,
			Streams:  []string{p.Stream, ">"},
			Count:    10,
			Block:    5 * time.Second,
		}).Result()

		if err != nil {
			if err == redis.Nil {
				continue
			}
			time.Sleep(500 * time.Millisecond)
			continue
		}

		for _, stream := range res {
			for _, msg := range stream.Messages {
				p.handleMsg(ctx, msg)
				_ = p.Redis.XAck(ctx, p.Stream, p.Group, msg.ID).Err()
			}
		}
	}
}

func (p *RedisWorkerPool) handleMsg(ctx context.Context, msg redis.XMessage) {
	raw, ok := msg.Values["record_id"]
	if !ok || raw == nil {
		return
	}
	s, _ := raw.(string)
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		p.Logger.WithField("redis_id", msg.ID).Warn("dropping malformed dispatch message")
		return
	}

	if err := p.Proc.Process(ctx, id); err != nil {
		p.Logger.WithError(err).WithFields(logrus.Fields{
			"redis_id":  msg.ID,
			"record_id": id,
		}).Warn("background processing failed, sweep will retry")
	}
}
