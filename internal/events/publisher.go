package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultChannel 点击事件默认发布的频道
const DefaultChannel = "link:clicks"

// ClickEvent 发布到 Redis 的点击事件
type ClickEvent struct {
	LinkID    uint      `json:"link_id"`
	IP        string    `json:"ip"`
	CreatedAt time.Time `json:"created_at"`
}

// RedisPublisher 通过 Redis Pub/Sub 广播点击事件, 不做任何缓存
type RedisPublisher struct {
	client  *redis.Client
	channel string
}

// NewRedisPublisher 创建发布器, channel 为空时使用默认频道
func NewRedisPublisher(client *redis.Client, channel string) *RedisPublisher {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisPublisher{client: client, channel: channel}
}

// Channel 返回发布使用的频道
func (p *RedisPublisher) Channel() string {
	return p.channel
}

// PublishClick 序列化为 JSON 并发布
func (p *RedisPublisher) PublishClick(ctx context.Context, event ClickEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("点击事件序列化失败: %w", err)
	}
	if err := p.client.Publish(ctx, p.channel, payload).Err(); err != nil {
		return fmt.Errorf("点击事件发布失败: %w", err)
	}
	return nil
}
