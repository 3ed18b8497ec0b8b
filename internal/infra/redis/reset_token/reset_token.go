package infra_reset_token_cache

import (
	"time"

	"github.com/go-redis/redis"
)

// Driver stores one-shot password reset tokens under a shared key prefix.
// A token maps to the user id it was issued for and expires with its TTL.
type Driver struct {
	client *redis.Client
	key    string
}

func New(
	client *redis.Client,
	key string,
) *Driver {
	return &Driver{
		client: client,
		key:    key,
	}
}

func (d *Driver) Set(token string, value string, ttl time.Duration) error {
	fullKey := d.getFullKey(token)
	err := d.client.Set(fullKey, value, ttl).Err()
	if err != nil {
		return err
	}

	return nil
}

// Get returns the stored value, or "" when the token is unknown or expired.
func (d *Driver) Get(token string) (string, error) {
	fullKey := d.getFullKey(token)

	val, err := d.client.Get(fullKey).Result()
	if err != nil {
		if err == redis.Nil {
			return "", nil
		}
		return "", err
	}

	return val, nil
}

// Delete invalidates a token once it has been used.
func (d *Driver) Delete(token string) error {
	return d.client.Del(d.getFullKey(token)).Err()
}

func (d *Driver) getFullKey(token string) string {
	if d.key != "" {
		return d.key + ":" + token
	}
	return token
}
