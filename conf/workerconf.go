package conf

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// WorkerConf tunes the judging worker pool. It is read from an optional
// TOML file so operators can retune a deployment without code changes.
type WorkerConf struct {
	Concurrency  int `toml:"concurrency"`
	MaxAttempts  int `toml:"max_attempts"`
	BackoffBaseS int `toml:"backoff_base_seconds"`
}

func (c WorkerConf) BackoffBase() time.Duration {
	return time.Duration(c.BackoffBaseS) * time.Second
}

// ReadWorkerConf loads worker tuning from the given TOML file. A missing
// file is not an error: zero values make the worker fall back to its
// built-in defaults.
func ReadWorkerConf(path string) (WorkerConf, error) {
	var c WorkerConf
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return c, nil
		}
		return c, fmt.Errorf("failed to read worker config: %w", err)
	}
	if err := toml.Unmarshal(data, &c); err != nil {
		return c, fmt.Errorf("failed to parse worker config: %w", err)
	}
	return c, nil
}
