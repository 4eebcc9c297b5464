// Package handler provides the HTTP handlers of the medextract service.
package handler

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kart-io/medextract/internal/medextract/biz"
	errno "github.com/kart-io/medextract/pkg/utils/errors"
)

// multipart 表单的额外开销。
const formOverhead = 1 << 20

// UploadLimits bounds multipart uploads.
type UploadLimits struct {
	MaxFileSize int64
	MaxFiles    int
}

// readUploads reads every file posted under any of fields. The request body
// is capped at MaxFiles*MaxFileSize plus form overhead.
func readUploads(c *gin.Context, limits UploadLimits, fields ...string) ([]biz.Upload, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limits.MaxFileSize*int64(limits.MaxFiles)+formOverhead)

	form, err := c.MultipartForm()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, errno.ErrFileTooLarge
		}
		if errors.Is(err, http.ErrNotMultipart) || errors.Is(err, http.ErrMissingBoundary) {
			return nil, errno.ErrNoFileProvided
		}
		return nil, errno.ErrBadRequest.WithCause(err)
	}

	var headers []*multipart.FileHeader
	for _, field := range fields {
		headers = append(headers, form.File[field]...)
	}
	if len(headers) == 0 {
		return nil, errno.ErrNoFileProvided
	}
	if len(headers) > limits.MaxFiles {
		return nil, errno.ErrInvalidParam.WithMessagef("At most %d files may be uploaded at once", limits.MaxFiles)
	}

	uploads := make([]biz.Upload, 0, len(headers))
	for _, h := range headers {
		u, err := readUpload(h, limits.MaxFileSize)
		if err != nil {
			return nil, err
		}
		uploads = append(uploads, u)
	}
	return uploads, nil
}

func readUpload(h *multipart.FileHeader, maxSize int64) (biz.Upload, error) {
	if h.Size > maxSize {
		return biz.Upload{}, errno.ErrFileTooLarge
	}
	f, err := h.Open()
	if err != nil {
		return biz.Upload{}, errno.ErrBadRequest.WithCause(err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxSize+1))
	if err != nil {
		return biz.Upload{}, errno.ErrBadRequest.WithCause(err)
	}
	if int64(len(data)) > maxSize {
		return biz.Upload{}, errno.ErrFileTooLarge
	}
	return biz.Upload{
		Name:     h.Filename,
		MIMEType: biz.DetectMIMEType(h.Filename, h.Header.Get("Content-Type"), data),
		Data:     data,
	}, nil
}
