package media

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const gcInterval = 5 * time.Minute

type localMeta struct {
	Name        string    `json:"name"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	StoredAt    time.Time `json:"stored_at"`
}

// Local keeps images in an embedded BadgerDB and serves them itself under
// /media/{id}. It stands in for a hosted provider in development.
type Local struct {
	db      *badger.DB
	baseURL string
	formats []string
	logger  *zap.Logger

	stop context.CancelFunc
	done chan struct{}
}

// OpenLocal opens the badger directory at dir. An empty dir keeps
// everything in memory. Links are built as baseURL + "/media/" + id.
func OpenLocal(dir, baseURL string, logger *zap.Logger) (*Local, error) {
	opts := badger.DefaultOptions(dir)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	l := &Local{
		db:      db,
		baseURL: strings.TrimRight(baseURL, "/"),
		formats: DefaultFormats,
		logger:  logger.With(zap.String("component", "media"), zap.String("provider", "local")),
		stop:    cancel,
		done:    make(chan struct{}),
	}

	if dir == "" {
		close(l.done)
	} else {
		go l.collectGarbage(ctx)
	}
	return l, nil
}

func (l *Local) collectGarbage(ctx context.Context) {
	defer close(l.done)

	ticker := time.NewTicker(gcInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := l.db.RunValueLogGC(0.7); err != nil && !errors.Is(err, badger.ErrNoRewrite) {
				l.logger.Warn("Value log GC failed", zap.Error(err))
			}
		}
	}
}

// Close stops the GC loop and closes the database.
func (l *Local) Close() error {
	l.stop()
	<-l.done
	return l.db.Close()
}

func blobKey(id string) []byte { return []byte("media:" + id) }
func metaKey(id string) []byte { return []byte("meta:" + id) }

func (l *Local) Upload(ctx context.Context, f File) (Asset, error) {
	r, mtype, err := sniff(f, l.formats)
	if err != nil {
		return Asset{}, err
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return Asset{}, fmt.Errorf("read upload: %w", err)
	}

	id := uuid.NewString()
	meta, err := json.Marshal(localMeta{
		Name:        f.Name,
		ContentType: mtype.String(),
		Size:        int64(len(data)),
		StoredAt:    time.Now().UTC(),
	})
	if err != nil {
		return Asset{}, err
	}

	err = l.db.Update(func(txn *badger.Txn) error {
		if err := txn.SetEntry(badger.NewEntry(blobKey(id), data)); err != nil {
			return err
		}
		return txn.SetEntry(badger.NewEntry(metaKey(id), meta))
	})
	if err != nil {
		return Asset{}, &UploadError{Provider: "local", Err: err}
	}

	l.logger.Debug("Stored image", zap.String("id", id), zap.Int("bytes", len(data)))
	return Asset{ID: id, URL: l.baseURL + "/media/" + id}, nil
}

// Delete removes the image. Deleting an unknown id succeeds.
func (l *Local) Delete(ctx context.Context, assetID string) error {
	return l.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete(blobKey(assetID)); err != nil {
			return err
		}
		return txn.Delete(metaKey(assetID))
	})
}

// open returns the stored bytes and metadata for id.
func (l *Local) open(id string) ([]byte, localMeta, error) {
	var (
		data []byte
		meta localMeta
	)

	err := l.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(metaKey(id))
		if err != nil {
			return err
		}
		raw, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		if err := json.Unmarshal(raw, &meta); err != nil {
			return err
		}

		item, err = txn.Get(blobKey(id))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, meta, ErrNotFound
	}
	return data, meta, err
}

// ServeHTTP answers GET /media/{id}.
func (l *Local) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := path.Base(r.URL.Path)
	if _, err := uuid.Parse(id); err != nil {
		http.NotFound(w, r)
		return
	}

	data, meta, err := l.open(id)
	if errors.Is(err, ErrNotFound) {
		http.NotFound(w, r)
		return
	} else if err != nil {
		l.logger.Error("Failed to read image", zap.String("id", id), zap.Error(err))
		http.Error(w, "Failed to retrieve image", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", meta.ContentType)
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	http.ServeContent(w, r, meta.Name, meta.StoredAt, bytes.NewReader(data))
}
