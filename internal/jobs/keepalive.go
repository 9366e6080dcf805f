package jobs

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Free-tier hosts idle the process out after 15 minutes without traffic, so
// the ping interval stays just under that.
const keepAliveInterval = 14 * time.Minute

// RunKeepAlive issues a GET against the configured URL on a fixed interval
// until the context is cancelled. With an empty URL it returns immediately.
func RunKeepAlive(ctx context.Context, url string, logger *zap.Logger) {
	if url == "" {
		return
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	client := &http.Client{Timeout: 30 * time.Second}
	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			request, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
			if err != nil {
				logger.Warn("keep-alive request build failed", zap.Error(err))
				continue
			}
			response, err := client.Do(request)
			if err != nil {
				logger.Warn("keep-alive ping failed", zap.Error(err))
				continue
			}
			response.Body.Close()
			if response.StatusCode != http.StatusOK {
				logger.Warn("keep-alive ping returned non-200", zap.Int("status", response.StatusCode))
			}
		case <-ctx.Done():
			return
		}
	}
}
