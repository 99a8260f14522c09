package history

import (
	"context"
	"errors"
)

// --- Mocks ---

// brokenKV は常に失敗する KV なのだ
type brokenKV struct{}

func (brokenKV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return nil, false, errors.New("disk on fire")
}

func (brokenKV) Set(ctx context.Context, key string, value []byte) error {
	return errors.New("disk on fire")
}
