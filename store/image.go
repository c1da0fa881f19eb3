package store

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lestrrat-go/strftime"
)

// ImageStore writes finished pictures as PNG files named by a strftime pattern.
type ImageStore struct {
	baseDir string
	pattern *strftime.Strftime
}

type ImageRecord struct {
	Path   string
	Mode   string
	Date   time.Time
	Width  int
	Height int
}

// Name is the file name relative to the store directory.
func (r ImageRecord) Name() string { return filepath.Base(r.Path) }

func NewImageStore(dir, pattern string) (*ImageStore, error) {
	p, err := strftime.New(pattern)
	if err != nil {
		return nil, fmt.Errorf("bad file pattern %q: %w", pattern, err)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &ImageStore{baseDir: dir, pattern: p}, nil
}

func (is *ImageStore) Dir() string { return is.baseDir }

func (is *ImageStore) path(mode string, when time.Time) string {
	name := is.pattern.FormatString(when)
	if mode != "" {
		name += "_" + strings.Map(func(r rune) rune {
			switch {
			case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
				return r
			}
			return '-'
		}, mode)
	}
	fn := filepath.Join(is.baseDir, name+".png")
	for i := 1; ; i++ {
		if _, err := os.Stat(fn); os.IsNotExist(err) {
			return fn
		}
		fn = filepath.Join(is.baseDir, fmt.Sprintf("%s.%d.png", name, i))
	}
}

// Save encodes img; an existing file with the same name is never overwritten.
func (is *ImageStore) Save(img image.Image, mode string, when time.Time) (ImageRecord, error) {
	fn := is.path(mode, when)
	if err := os.MkdirAll(filepath.Dir(fn), 0755); err != nil {
		return ImageRecord{}, err
	}
	f, err := os.OpenFile(fn, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return ImageRecord{}, err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		os.Remove(fn)
		return ImageRecord{}, err
	}
	if err := f.Close(); err != nil {
		return ImageRecord{}, err
	}
	b := img.Bounds()
	return ImageRecord{Path: fn, Mode: mode, Date: when, Width: b.Dx(), Height: b.Dy()}, nil
}
