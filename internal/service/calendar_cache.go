package service

import (
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
)

// calendarCache memoizes month views.  Keys include the current day so
// entries age out when the booking window moves.  Any reservation write
// purges the whole cache.
type calendarCache struct {
	cache  *lru.Cache[string, []CalendarDay]
	logger *zap.Logger
}

func newCalendarCache(size int, logger *zap.Logger) (*calendarCache, error) {
	if size <= 0 {
		logger.Info("calendar.cache.disabled")
		return nil, nil
	}
	c, err := lru.New[string, []CalendarDay](size)
	if err != nil {
		logger.Error("calendar.cache.init.failed", zap.Error(err), zap.Int("size", size))
		return nil, err
	}
	return &calendarCache{cache: c, logger: logger}, nil
}

func (c *calendarCache) get(key string) ([]CalendarDay, bool) {
	if c == nil {
		return nil, false
	}
	days, ok := c.cache.Get(key)
	if !ok {
		c.logger.Debug("calendar.cache.miss", zap.String("key", key))
		return nil, false
	}
	c.logger.Debug("calendar.cache.hit", zap.String("key", key))
	out := make([]CalendarDay, len(days))
	copy(out, days)
	return out, true
}

func (c *calendarCache) put(key string, days []CalendarDay) {
	if c == nil {
		return
	}
	stored := make([]CalendarDay, len(days))
	copy(stored, days)
	c.cache.Add(key, stored)
}

func (c *calendarCache) purge() {
	if c == nil {
		return
	}
	c.cache.Purge()
	c.logger.Debug("calendar.cache.purged")
}
