package biz

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

// BlobStore stores page files and returns their public URL.
type BlobStore interface {
	Put(ctx context.Context, key, contentType string, data []byte) (string, error)
}

// Upload is one submitted file.
type Upload struct {
	Name     string
	MIMEType string
	Data     []byte
}

// Size returns the file size in bytes.
func (u Upload) Size() int64 {
	return int64(len(u.Data))
}

var extMIMETypes = map[string]string{
	".pdf":  MIMETypePDF,
	".png":  MIMETypePNG,
	".jpg":  MIMETypeJPEG,
	".jpeg": MIMETypeJPEG,
}

// DetectMIMEType resolves the media type of an upload from its declared
// type, its extension and finally its content. "image/jpg" is folded into
// "image/jpeg".
func DetectMIMEType(name, declared string, data []byte) string {
	mt := strings.ToLower(strings.TrimSpace(declared))
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = strings.TrimSpace(mt[:i])
	}
	if mt == "image/jpg" {
		mt = MIMETypeJPEG
	}
	if mt != "" && mt != "application/octet-stream" {
		return mt
	}
	if byExt, ok := extMIMETypes[strings.ToLower(filepath.Ext(name))]; ok {
		return byExt
	}
	sniffed := http.DetectContentType(data)
	if i := strings.IndexByte(sniffed, ';'); i >= 0 {
		sniffed = sniffed[:i]
	}
	return sniffed
}

// SanitizeFileName keeps ASCII letters, digits, '.', '_' and '-' and
// replaces every other rune with '_'.
func SanitizeFileName(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

// BlobKey returns the storage key for a page uploaded at now.
func BlobKey(now time.Time, name string) string {
	return fmt.Sprintf("documents/%d-%s", now.UnixMilli(), SanitizeFileName(name))
}

// uploadAll stores files concurrently and returns their URLs in input order.
func uploadAll(ctx context.Context, blobs BlobStore, files []Upload, now time.Time) ([]string, error) {
	urls := make([]string, len(files))
	seen := make(map[string]bool, len(files))
	eg, gctx := errgroup.WithContext(ctx)
	for i, f := range files {
		key := BlobKey(now, f.Name)
		if seen[key] {
			key = BlobKey(now, fmt.Sprintf("%d-%s", i+1, f.Name))
		}
		seen[key] = true
		eg.Go(func() error {
			url, err := blobs.Put(gctx, key, f.MIMEType, f.Data)
			if err != nil {
				return fmt.Errorf("page %d: upload %s: %w", i+1, f.Name, err)
			}
			urls[i] = url
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return urls, nil
}
