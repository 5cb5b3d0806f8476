package admin

import (
	"context"
	"fmt"

	"github.com/tukib/snakebot/internal/domain"
	"github.com/tukib/snakebot/internal/record"
)

// ListCache returns the keys of every cached item.
func (s *Service) ListCache(ctx context.Context) ([]string, error) {
	var keys []string
	err := s.store.Iterate(ctx, domain.NamespaceCache, func(key string, _ []byte) bool {
		keys = append(keys, key)
		return true
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list cache: %w", err)
	}
	return keys, nil
}

// WipeCache deletes every cached item and returns how many were removed.
func (s *Service) WipeCache(ctx context.Context) (int, error) {
	keys, err := s.ListCache(ctx)
	if err != nil {
		return 0, err
	}
	for _, k := range keys {
		if err := s.store.Delete(ctx, domain.NamespaceCache, k); err != nil {
			return 0, fmt.Errorf("failed to wipe cache: %w", err)
		}
	}
	return len(keys), nil
}

// BootTimes returns every recorded startup duration in seconds.
func (s *Service) BootTimes(ctx context.Context) ([]float64, error) {
	return record.Load(ctx, s.store, record.BootTimes, domain.SettingBootTimes)
}
