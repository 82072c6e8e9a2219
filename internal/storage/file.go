package storage

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/zmemovies/rue-track/internal"
)

// FileStore keeps the document in a single JSON file. Writes are debounced
// through a background worker and land via an atomic temp-file rename, so
// the file on disk is always a complete document.
type FileStore struct {
	path      string
	mu        sync.Mutex
	pending   []byte // last serialized snapshot awaiting flush
	lastWrite time.Time
	saveChan  chan struct{}
	shutdown  chan struct{}
	saveDelay time.Duration
	logger    internal.Logger
}

func NewFileStore(path string, logger internal.Logger) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	s := &FileStore{
		path:      path,
		saveChan:  make(chan struct{}, 1),
		shutdown:  make(chan struct{}),
		saveDelay: 500 * time.Millisecond,
		logger:    logger,
	}
	go s.saveWorker()
	return s, nil
}

func (s *FileStore) Load(ctx context.Context) (*internal.Document, error) {
	file, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return internal.NewDocument(), nil
		}
		return nil, err
	}
	defer file.Close()

	doc := &internal.Document{}
	if err := json.NewDecoder(file).Decode(doc); err != nil {
		if !errors.Is(err, io.EOF) {
			s.logger.Errorf("storage: corrupt document file, resetting to defaults: %v", err)
		}
		return internal.NewDocument(), nil
	}
	doc.Normalize()
	return doc, nil
}

// Save serializes the snapshot synchronously and signals the worker to
// flush it. The caller may keep mutating the document afterwards.
func (s *FileStore) Save(ctx context.Context, doc *internal.Document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.pending = data
	s.mu.Unlock()
	select {
	case s.saveChan <- struct{}{}:
	default:
	}
	return nil
}

func (s *FileStore) flush() error {
	s.mu.Lock()
	data := s.pending
	s.pending = nil
	s.lastWrite = time.Now()
	s.mu.Unlock()
	if data == nil {
		return nil
	}
	return atomicWriteFile(s.path, data)
}

func atomicWriteFile(path string, data []byte) error {
	tempFile := path + ".tmp"
	f, err := os.Create(tempFile)
	if err != nil {
		return err
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tempFile)
		return err
	}

	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tempFile)
		return err
	}

	if err := f.Close(); err != nil {
		os.Remove(tempFile)
		return err
	}

	return os.Rename(tempFile, path)
}

// saveWorker batches save signals to avoid a disk write per mutation.
func (s *FileStore) saveWorker() {
	timer := time.NewTimer(s.saveDelay)
	defer timer.Stop()

	for {
		select {
		case <-s.saveChan:
			timer.Reset(s.saveDelay)
		case <-timer.C:
			if err := s.flush(); err != nil {
				s.logger.Errorf("storage: error saving document: %v", err)
			}
		case <-s.shutdown:
			return
		}
	}
}

// Watch reports external modifications of the document file, debounced.
// Writes made by this store are filtered out by recency. fsnotify cannot
// watch a file that may be replaced by rename, so the parent directory is
// watched instead. Returns a stop function.
func (s *FileStore) Watch(onChange func()) (func(), error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(filepath.Dir(s.path)); err != nil {
		watcher.Close()
		return nil, err
	}

	done := make(chan struct{})
	go func() {
		var debounce *time.Timer
		for {
			select {
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if ev.Name != s.path {
					continue
				}
				if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
					continue
				}
				s.mu.Lock()
				own := time.Since(s.lastWrite) < 2*time.Second
				s.mu.Unlock()
				if own {
					continue
				}
				if debounce != nil {
					debounce.Stop()
				}
				debounce = time.AfterFunc(200*time.Millisecond, onChange)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				s.logger.Warnf("storage: watch error: %v", err)
			case <-done:
				return
			}
		}
	}()

	stop := func() {
		close(done)
		watcher.Close()
	}
	return stop, nil
}

func (s *FileStore) Close() error {
	close(s.shutdown)
	return s.flush()
}

var _ DocumentStore = (*FileStore)(nil)
