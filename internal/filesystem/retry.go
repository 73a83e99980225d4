package filesystem

import (
	"errors"
	"os"
	"syscall"
	"time"

	"thumbgrid/internal/logging"
)

// RetryConfig bounds how long a filesystem call keeps retrying ESTALE.
type RetryConfig struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	// VolumeResolver labels metrics for this call. nil falls back to the
	// resolver installed with SetDefaultVolumeResolver.
	VolumeResolver *VolumeResolver
}

// DefaultRetryConfig allows three retries starting at 50ms, capped at 500ms.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:     3,
		InitialBackoff: 50 * time.Millisecond,
		MaxBackoff:     500 * time.Millisecond,
	}
}

func (c *RetryConfig) resolveVolume(path string) string {
	if c.VolumeResolver != nil {
		return c.VolumeResolver.Resolve(path)
	}
	return defaultResolver.Resolve(path)
}

func (c *RetryConfig) nextBackoff(d time.Duration) time.Duration {
	return min(d*2, c.MaxBackoff)
}

func isNFSStaleError(err error) bool {
	var errno syscall.Errno
	return errors.As(err, &errno) && errno == syscall.ESTALE
}

// withRetry calls op until it succeeds or fails with anything but ESTALE.
// It makes at most MaxRetries+1 calls.
func withRetry[T any](retryOp, path string, config RetryConfig, op func() (T, error)) (T, error) {
	obs := observe()
	volume := config.resolveVolume(path)
	began := time.Now()
	defer func() {
		obs.ObserveRetryDuration(retryOp, volume, time.Since(began).Seconds())
	}()

	wait := config.InitialBackoff
	for attempt := 0; ; attempt++ {
		result, err := op()
		switch {
		case err == nil:
			if attempt > 0 {
				logging.Info("NFS %s of %s recovered after %d retries", retryOp, path, attempt)
				obs.ObserveRetrySuccess(retryOp, volume)
			}
			return result, nil
		case !isNFSStaleError(err):
			return result, err
		}

		obs.ObserveStaleError(retryOp, volume)
		if attempt >= config.MaxRetries {
			logging.Warn("NFS %s of %s still stale after %d retries: %v", retryOp, path, attempt, err)
			obs.ObserveRetryFailure(retryOp, volume)
			var zero T
			return zero, err
		}

		obs.ObserveRetryAttempt(retryOp, volume)
		logging.Debug("NFS %s of %s hit a stale handle, retry %d/%d in %v",
			retryOp, path, attempt+1, config.MaxRetries, wait)
		time.Sleep(wait)
		wait = config.nextBackoff(wait)
	}
}

// StatWithRetry is os.Stat with ESTALE retries.
func StatWithRetry(path string, config RetryConfig) (os.FileInfo, error) {
	return withRetry("stat", path, config, func() (os.FileInfo, error) {
		return os.Stat(path)
	})
}

// OpenWithRetry is os.Open with ESTALE retries.
func OpenWithRetry(path string, config RetryConfig) (*os.File, error) {
	return withRetry("open", path, config, func() (*os.File, error) {
		return os.Open(path)
	})
}
