package utils

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/shop_backend/config"
	"github.com/bsm/redislock"
	"github.com/ttacon/libphonenumber"
)

// ProductLock serializes absolute stock writes per product. Checkout does not
// need it (its decrement is an atomic conditional UPDATE) but admin stock sets
// read-then-write the alert state and must not interleave.
// The caller must release the returned lock.
func ProductLock(ctx context.Context, productId int, moduleName string, functionName string) (*redislock.Lock, error) {
	logger := config.GetLogger()
	locker := config.GetRedisLock()
	if locker == nil {
		// Avoid nil-pointer panics when the redis lock isn't initialized yet.
		config.LogError(logger, moduleName, functionName, "Redis lock not initialized", productId, errors.New("redis lock is nil"))
		return nil, errors.New("service not ready (redis lock not initialized)")
	}
	lockKey := fmt.Sprintf("stockLock:%d", productId)
	lock, err := locker.Obtain(ctx, lockKey, 30*time.Second, nil)
	if err == redislock.ErrNotObtained {
		config.LogError(logger, moduleName, functionName, "Could not obtain lock for product", productId, err)
		return nil, errors.New("could not obtain lock for product")
	} else if err != nil {
		config.LogError(logger, moduleName, functionName, "Error obtaining lock for product", productId, err)
		return nil, err
	}
	return lock, nil
}

// NormalizePhone validates a phone number and returns it in E.164 form.
// Numbers without a country code are parsed against defaultRegion.
func NormalizePhone(raw string, defaultRegion string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", &ValidationError{Message: "phone number is required"}
	}
	if defaultRegion == "" {
		defaultRegion = "MM"
	}
	num, err := libphonenumber.Parse(raw, defaultRegion)
	if err != nil {
		return "", &ValidationError{Message: "invalid phone number"}
	}
	if !libphonenumber.IsValidNumber(num) {
		return "", &ValidationError{Message: "invalid phone number"}
	}
	return libphonenumber.Format(num, libphonenumber.E164), nil
}

// ClampPage normalizes skip/limit query values.
func ClampPage(skip int, limit int) (int, int) {
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 || limit > config.SearchLimit {
		limit = config.SearchLimit
	}
	return skip, limit
}
