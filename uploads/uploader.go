// Package uploads pushes raw media blobs to the media store and hands
// back the descriptor a message references. Size ceilings are enforced
// per kind before any bytes leave the machine.
package uploads

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/valyala/fasthttp"

	"chat-sync/domain"
	cerrors "chat-sync/errors"
)

// Limits are the per-kind size ceilings in bytes. A zero limit means the
// kind is unrestricted.
type Limits struct {
	Image int64
	Audio int64
	Video int64
	File  int64
}

type Uploader struct {
	log     *slog.Logger
	baseURL string
	limits  Limits
	http    *fasthttp.Client
	timeout time.Duration
}

func NewUploader(log *slog.Logger, baseURL string, limits Limits, timeout time.Duration) *Uploader {
	return &Uploader{
		log:     log,
		baseURL: baseURL,
		limits:  limits,
		http:    &fasthttp.Client{},
		timeout: timeout,
	}
}

type uploadResponse struct {
	URL string `json:"url"`
}

// Upload checks the kind's ceiling, sniffs the content type, pushes the
// blob, and returns the media descriptor. A failed upload aborts the
// pending send; nothing is queued.
func (u *Uploader) Upload(ctx context.Context, blob []byte, kind domain.MessageKind, fileName string) (domain.Upload, error) {
	if limit := u.limit(kind); limit > 0 && int64(len(blob)) > limit {
		return domain.Upload{}, fmt.Errorf("%w: %s of %d bytes (ceiling %d)",
			cerrors.ErrUploadTooLarge, kind, len(blob), limit)
	}
	if err := ctx.Err(); err != nil {
		return domain.Upload{}, err
	}

	mime := mimetype.Detect(blob)

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(u.baseURL + "/uploads")
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType(mime.String())
	req.Header.Set("X-File-Name", fileName)
	req.SetBody(blob)

	if err := u.http.DoTimeout(req, resp, u.timeout); err != nil {
		return domain.Upload{}, fmt.Errorf("%w: %v", cerrors.ErrUploadFailed, err)
	}
	if resp.StatusCode() != fasthttp.StatusOK && resp.StatusCode() != fasthttp.StatusCreated {
		return domain.Upload{}, fmt.Errorf("%w: status %d", cerrors.ErrUploadFailed, resp.StatusCode())
	}

	var parsed uploadResponse
	if err := json.Unmarshal(resp.Body(), &parsed); err != nil {
		return domain.Upload{}, fmt.Errorf("%w: %v", cerrors.ErrUploadFailed, err)
	}

	u.log.Debug("Upload complete", "kind", kind, "fileName", fileName, "bytes", len(blob))
	return domain.Upload{
		Kind: kind,
		Media: domain.Media{
			URL:      parsed.URL,
			MimeType: mime.String(),
			FileName: fileName,
			FileSize: int64(len(blob)),
		},
	}, nil
}

// KindFor derives the message kind from the blob's sniffed content type.
func KindFor(blob []byte) domain.MessageKind {
	mime := mimetype.Detect(blob)
	switch {
	case strings.HasPrefix(mime.String(), "image/"):
		return domain.KindImage
	case strings.HasPrefix(mime.String(), "audio/"):
		return domain.KindAudio
	case strings.HasPrefix(mime.String(), "video/"):
		return domain.KindVideo
	default:
		return domain.KindFile
	}
}

func (u *Uploader) limit(kind domain.MessageKind) int64 {
	switch kind {
	case domain.KindImage:
		return u.limits.Image
	case domain.KindAudio:
		return u.limits.Audio
	case domain.KindVideo:
		return u.limits.Video
	default:
		return u.limits.File
	}
}
