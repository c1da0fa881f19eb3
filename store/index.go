package store

import (
	"encoding/gob"
	"errors"
	"io/fs"
	"os"
	"sort"
	"sync"
)

// ImageIndex remembers saved images across restarts.
type ImageIndex struct {
	images map[string]ImageRecord
	rwmu   sync.RWMutex
}

func NewImageIndex() *ImageIndex {
	return &ImageIndex{images: make(map[string]ImageRecord)}
}

// Load replaces the index with the one at fpath; a missing file is not an error.
func (idx *ImageIndex) Load(fpath string) error {
	f, err := os.Open(fpath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	} else if err != nil {
		return err
	}
	defer f.Close()
	images := make(map[string]ImageRecord)
	if err := gob.NewDecoder(f).Decode(&images); err != nil {
		return err
	}
	idx.rwmu.Lock()
	idx.images = images
	idx.rwmu.Unlock()
	return nil
}

func (idx *ImageIndex) Save(fpath string) error {
	f, err := os.OpenFile(fpath, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	idx.rwmu.RLock()
	err = gob.NewEncoder(f).Encode(&idx.images)
	idx.rwmu.RUnlock()
	if err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (idx *ImageIndex) Add(rec ImageRecord) {
	idx.rwmu.Lock()
	idx.images[rec.Name()] = rec
	idx.rwmu.Unlock()
}

func (idx *ImageIndex) Get(name string) (ImageRecord, bool) {
	idx.rwmu.RLock()
	defer idx.rwmu.RUnlock()
	rec, ok := idx.images[name]
	return rec, ok
}

// Records lists images newest first; n <= 0 lists all of them.
func (idx *ImageIndex) Records(n int) []ImageRecord {
	idx.rwmu.RLock()
	ret := make([]ImageRecord, 0, len(idx.images))
	for _, v := range idx.images {
		ret = append(ret, v)
	}
	idx.rwmu.RUnlock()
	sort.Slice(ret, func(i, j int) bool {
		if ret[i].Date.Equal(ret[j].Date) {
			return ret[i].Path > ret[j].Path
		}
		return ret[i].Date.After(ret[j].Date)
	})
	if n > 0 && len(ret) > n {
		ret = ret[:n]
	}
	return ret
}
