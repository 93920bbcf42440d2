package client

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/avelore/consignpos-import-service/internal/consignor"
	"github.com/avelore/consignpos-import-service/internal/model"
	"github.com/avelore/consignpos-import-service/pkg/cache"
	"github.com/avelore/consignpos-import-service/pkg/logger"
	"go.uber.org/zap"
)

const snapshotTTL = 5 * time.Minute

// CachedDirectory caches the directory snapshot in Redis so repeated
// ingestions within a short window skip the network round trip. Misses and
// cache failures fall through to the inner client.
type CachedDirectory struct {
	inner  consignor.Directory
	cache  *cache.RedisClient
	logger logger.ZapLogger
}

func NewCachedDirectory(inner consignor.Directory, cache *cache.RedisClient, log logger.ZapLogger) consignor.Directory {
	return &CachedDirectory{inner: inner, cache: cache, logger: log}
}

func (d *CachedDirectory) ListConsignors(ctx context.Context, merchantID string) ([]model.Consignor, error) {
	key := fmt.Sprintf("consignors:snapshot:%s", merchantID)

	if val, err := d.cache.Client.Get(ctx, key).Result(); err == nil {
		var snapshot []model.Consignor
		if err := json.Unmarshal([]byte(val), &snapshot); err == nil {
			return snapshot, nil
		}
	}

	snapshot, err := d.inner.ListConsignors(ctx, merchantID)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(snapshot); err == nil {
		if err := d.cache.Client.Set(ctx, key, data, snapshotTTL).Err(); err != nil {
			d.logger.Warn("failed to cache consignor snapshot", zap.Error(err))
		}
	}

	return snapshot, nil
}
