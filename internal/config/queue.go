package config

import "os"

const EnvRedisAddr = "REDIS_ADDR"

// QueueConfig points at the Redis instance holding the media cleanup
// queue. An empty Addr disables the queue and its worker.
type QueueConfig struct {
	Addr string `toml:"redis_addr"`
}

func (c *QueueConfig) Enabled() bool {
	return c.Addr != ""
}

func (c *QueueConfig) Finalize() {
	if v := os.Getenv(EnvRedisAddr); v != "" {
		c.Addr = v
	}
}
