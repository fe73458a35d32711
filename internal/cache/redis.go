package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/studyhub/client/internal/models"
)

const presenceChannel = "studyhub:presence"

// RedisClient backs the dev broker's presence state so multiple broker
// instances see the same online set. The broker runs fine without it.
type RedisClient struct {
	client *redis.Client
	ctx    context.Context
}

// NewRedisClient creates a new Redis client
func NewRedisClient(addr, password string, db int) (*RedisClient, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx := context.Background()

	// Test connection
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisClient{
		client: client,
		ctx:    ctx,
	}, nil
}

// Close closes the Redis connection
func (r *RedisClient) Close() error {
	return r.client.Close()
}

// SetUserOnline sets a user as online
func (r *RedisClient) SetUserOnline(userID int64) error {
	return r.setPresence(userID, models.StatusOnline, 5*time.Minute)
}

// SetUserOffline sets a user as offline
func (r *RedisClient) SetUserOffline(userID int64) error {
	return r.setPresence(userID, models.StatusOffline, 24*time.Hour)
}

func (r *RedisClient) setPresence(userID int64, status string, ttl time.Duration) error {
	key := fmt.Sprintf("presence:user:%d", userID)
	presence := models.UserStatus{
		UserID:   userID,
		Status:   status,
		LastSeen: time.Now(),
	}

	data, err := json.Marshal(presence)
	if err != nil {
		return err
	}

	return r.client.Set(r.ctx, key, data, ttl).Err()
}

// GetUserPresence gets a user's presence
func (r *RedisClient) GetUserPresence(userID int64) (*models.UserStatus, error) {
	key := fmt.Sprintf("presence:user:%d", userID)
	data, err := r.client.Get(r.ctx, key).Result()
	if err == redis.Nil {
		return &models.UserStatus{
			UserID:   userID,
			Status:   models.StatusOffline,
			LastSeen: time.Now(),
		}, nil
	}
	if err != nil {
		return nil, err
	}

	var presence models.UserStatus
	if err := json.Unmarshal([]byte(data), &presence); err != nil {
		return nil, err
	}

	return &presence, nil
}

// PublishPresence publishes a presence update for other broker instances
func (r *RedisClient) PublishPresence(presence models.UserStatus) error {
	data, err := json.Marshal(presence)
	if err != nil {
		return err
	}

	return r.client.Publish(r.ctx, presenceChannel, data).Err()
}

// SubscribeToPresence subscribes to presence updates
func (r *RedisClient) SubscribeToPresence() *redis.PubSub {
	return r.client.Subscribe(r.ctx, presenceChannel)
}
