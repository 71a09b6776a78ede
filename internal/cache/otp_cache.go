package cache

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	redisv9 "github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
)

// OTPCache issues and verifies one-time login codes. Only a bcrypt
// hash of the code is stored; the plaintext goes out by mail and is
// gone once issued.
type OTPCache struct {
	client *redisv9.Client
	ttl    time.Duration
}

func NewOTPCache(client *redisv9.Client, ttl time.Duration) *OTPCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &OTPCache{client: client, ttl: ttl}
}

// Create generates a six digit code for the email and stores its hash.
// Returns the plaintext code and the expiry instant.
func (c *OTPCache) Create(ctx context.Context, email string) (string, time.Time, error) {
	otp, err := randomCode()
	if err != nil {
		return "", time.Time{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(otp), bcrypt.DefaultCost)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("hash otp failed: %w", err)
	}
	if err := c.client.Set(ctx, c.key(email), hash, c.ttl).Err(); err != nil {
		return "", time.Time{}, fmt.Errorf("redis set otp failed: %w", err)
	}
	return otp, time.Now().Add(c.ttl), nil
}

// Extend re-issues a code with a fresh TTL.
func (c *OTPCache) Extend(ctx context.Context, email string) (string, time.Time, error) {
	return c.Create(ctx, email)
}

// Verify checks the code against the stored hash and consumes it on
// success.
func (c *OTPCache) Verify(ctx context.Context, email, otp string) (bool, error) {
	raw, err := c.client.Get(ctx, c.key(email)).Result()
	if err == redisv9.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis get otp failed: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(raw), []byte(otp)) != nil {
		return false, nil
	}
	if err := c.client.Del(ctx, c.key(email)).Err(); err != nil {
		return false, fmt.Errorf("redis delete otp failed: %w", err)
	}
	return true, nil
}

func (c *OTPCache) TTL() time.Duration {
	return c.ttl
}

func (c *OTPCache) key(email string) string {
	return fmt.Sprintf("auth:otp:%s", email)
}

func randomCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", fmt.Errorf("generate otp failed: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
