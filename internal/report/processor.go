package report

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Ygohel18/lighthouse-test/internal/metrics"
)

const screenshotContentType = "image/png"

var nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9]`)

// Uploader writes a screenshot binary under an object key.
type Uploader interface {
	Upload(ctx context.Context, key string, contentType string, data []byte) error
}

// Clock returns the current time.
type Clock interface {
	Now() time.Time
}

// Processed is the outcome of sanitizing one raw report.
type Processed struct {
	Score   *int
	Metrics *Metrics
	Report  *Report
}

// Processor extracts metrics and score from a raw report and offloads inline
// screenshot payloads to the artifact store.
type Processor struct {
	uploader Uploader
	clock    Clock
	logger   *zap.Logger
}

// NewProcessor constructs a Processor.
func NewProcessor(uploader Uploader, clock Clock, logger *zap.Logger) *Processor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Processor{
		uploader: uploader,
		clock:    clock,
		logger:   logger,
	}
}

// offloadOutcome is the per-item result of one screenshot offload: either an
// object key or the upload error that becomes the item's annotation.
type offloadOutcome struct {
	key string
	err error
}

// Process returns the extracted score and metrics plus a sanitized deep copy
// of the raw report in which every inline screenshot payload has been
// replaced by an object key or, on upload failure, an error annotation.
// Upload failures never abort processing of the remaining items or audits.
func (p *Processor) Process(ctx context.Context, raw *Report, taskID, device, location string) (Processed, error) {
	if raw == nil {
		return Processed{}, errors.New("raw report is required")
	}

	sanitized := raw.Clone()
	for _, auditID := range ScreenshotAuditIDs {
		a, ok := sanitized.Audits[auditID]
		if !ok || a == nil || a.Details == nil {
			continue
		}
		switch {
		case a.Details.Filmstrip != nil:
			for i := range a.Details.Filmstrip.Items {
				p.offloadFilmstripItem(ctx, &a.Details.Filmstrip.Items[i], taskID, device, location, auditID)
			}
		case a.Details.Thumbnail != nil:
			p.offloadThumbnail(ctx, a.Details.Thumbnail, taskID, device, location, auditID)
		}
	}

	return Processed{
		Score:   ExtractScore(raw),
		Metrics: ExtractMetrics(raw),
		Report:  sanitized,
	}, nil
}

func (p *Processor) offloadFilmstripItem(ctx context.Context, item *FilmstripItem, taskID, device, location, auditID string) {
	if !isInlineImage(item.Data) {
		return
	}
	out := p.offload(ctx, item.Data, taskID, device, location, auditID)
	item.Data = ""
	if out.err != nil {
		item.ErrorMessage = fmt.Sprintf("failed to upload screenshot: %v", out.err)
		return
	}
	item.ObjectKey = out.key
}

func (p *Processor) offloadThumbnail(ctx context.Context, th *Thumbnail, taskID, device, location, auditID string) {
	if !isInlineImage(th.Data) {
		return
	}
	out := p.offload(ctx, th.Data, taskID, device, location, auditID)
	th.Data = ""
	if out.err != nil {
		th.ErrorMessage = fmt.Sprintf("failed to upload screenshot: %v", out.err)
		return
	}
	th.ObjectKey = out.key
}

func (p *Processor) offload(ctx context.Context, dataURL, taskID, device, location, auditID string) offloadOutcome {
	img, err := decodeInlineImage(dataURL)
	if err != nil {
		metrics.IncArtifactUpload("error")
		p.logger.Warn("decode screenshot payload failed",
			zap.String("task_id", taskID),
			zap.String("audit_id", auditID),
			zap.Error(err),
		)
		return offloadOutcome{err: err}
	}

	key := ObjectKey(taskID, device, location, auditID, p.clock.Now())
	if err := p.uploader.Upload(ctx, key, screenshotContentType, img); err != nil {
		metrics.IncArtifactUpload("error")
		p.logger.Warn("screenshot upload failed",
			zap.String("task_id", taskID),
			zap.String("object_key", key),
			zap.Error(err),
		)
		return offloadOutcome{err: err}
	}

	metrics.IncArtifactUpload("ok")
	return offloadOutcome{key: key}
}

// ObjectKey builds the deterministic artifact key
// "{taskId}/{device}_{location}_{auditId}_{timestamp}.png" with every part
// outside the task id sanitized to alphanumerics and underscores.
func ObjectKey(taskID, device, location, auditID string, now time.Time) string {
	return fmt.Sprintf("%s/%s_%s_%s_%d.png",
		taskID,
		sanitizeKeyPart(device),
		sanitizeKeyPart(location),
		sanitizeKeyPart(auditID),
		now.UnixNano(),
	)
}

func sanitizeKeyPart(s string) string {
	return nonAlphanumeric.ReplaceAllString(s, "_")
}

func isInlineImage(data string) bool {
	return strings.HasPrefix(data, "data:image/")
}

func decodeInlineImage(dataURL string) ([]byte, error) {
	_, payload, found := strings.Cut(dataURL, ",")
	if !found {
		return nil, errors.New("malformed data url")
	}
	img, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("decode base64 payload: %w", err)
	}
	return img, nil
}
