package report

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Ygohel18/lighthouse-test/internal/metrics"
)

// Signer resolves an object key to a time-bounded URL.
type Signer interface {
	SignedURL(ctx context.Context, key string) (string, error)
}

// Rehydrate walks the screenshot-bearing audits of a report copy and
// replaces each object key with a signed URL. On signing failure the item
// keeps its key and gains an error annotation; remaining items still
// resolve. The caller must pass a clone, never the persisted document.
func Rehydrate(ctx context.Context, r *Report, signer Signer, logger *zap.Logger) {
	if r == nil {
		return
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	for _, auditID := range ScreenshotAuditIDs {
		a, ok := r.Audits[auditID]
		if !ok || a == nil || a.Details == nil {
			continue
		}
		switch {
		case a.Details.Filmstrip != nil:
			for i := range a.Details.Filmstrip.Items {
				item := &a.Details.Filmstrip.Items[i]
				if item.ObjectKey == "" {
					continue
				}
				url, err := sign(ctx, signer, item.ObjectKey, logger)
				if err != nil {
					item.ErrorMessage = fmt.Sprintf("failed to generate signed url: %v", err)
					continue
				}
				item.URL = url
				item.ObjectKey = ""
			}
		case a.Details.Thumbnail != nil:
			th := a.Details.Thumbnail
			if th.ObjectKey == "" {
				continue
			}
			url, err := sign(ctx, signer, th.ObjectKey, logger)
			if err != nil {
				th.ErrorMessage = fmt.Sprintf("failed to generate signed url: %v", err)
				continue
			}
			th.URL = url
			th.ObjectKey = ""
		}
	}
}

func sign(ctx context.Context, signer Signer, key string, logger *zap.Logger) (string, error) {
	url, err := signer.SignedURL(ctx, key)
	if err != nil {
		metrics.IncSignedURL("error")
		logger.Warn("sign artifact url failed", zap.String("object_key", key), zap.Error(err))
		return "", err
	}
	metrics.IncSignedURL("ok")
	return url, nil
}
