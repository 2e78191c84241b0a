package cache

import (
	"context"
	"time"

	"github.com/lorrc/service-desk-kpi/internal/core/ports"
)

// NopCache never stores anything. It stands in when Redis is disabled.
type NopCache struct{}

var _ ports.ReportCache = NopCache{}

func (NopCache) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, nil
}

func (NopCache) Set(context.Context, string, []byte, time.Duration) error {
	return nil
}
