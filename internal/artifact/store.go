package artifact

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/recall/internal/errs"
	"github.com/fyrsmithlabs/recall/internal/timestamp"
)

const (
	dirPerm  = 0o750
	filePerm = 0o640
)

// Store is the filesystem-backed artifact store.
type Store struct {
	root   string
	clock  timestamp.Clock
	logger *zap.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the clock used to allocate timestamps.
func WithClock(clock timestamp.Clock) Option {
	return func(s *Store) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewStore returns a store rooted at root. Category directories are created
// lazily on first write.
func NewStore(root string, opts ...Option) *Store {
	s := &Store{
		root:   root,
		clock:  timestamp.SystemClock,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Root returns the data root.
func (s *Store) Root() string {
	return s.root
}

// Dir returns the directory backing category c.
func (s *Store) Dir(c Category) string {
	return filepath.Join(s.root, string(c))
}

// NewTimestamp allocates a timestamp from the store's clock.
func (s *Store) NewTimestamp() string {
	return timestamp.Now(s.clock)
}

// WriteText stores text under a freshly allocated timestamp and returns it.
func (s *Store) WriteText(ctx context.Context, c Category, text string) (string, error) {
	ts := s.NewTimestamp()
	if err := s.WriteTextAt(ctx, c, ts, text); err != nil {
		return "", err
	}
	return ts, nil
}

// WriteTextAt stores text under a caller-chosen timestamp. Image ingestion
// uses it to pair a description with the image written at ts.
func (s *Store) WriteTextAt(_ context.Context, c Category, ts, text string) error {
	if err := c.Validate(); err != nil {
		return errs.InvalidInput("category", "%v", err)
	}
	if !timestamp.Valid(ts) {
		return errs.InvalidInput("timestamp", "malformed timestamp %q", ts)
	}

	dir, err := s.ensureDir(c)
	if err != nil {
		return err
	}

	path := filepath.Join(dir, timestamp.FileName(ts))
	if err := os.WriteFile(path, []byte(text), filePerm); err != nil {
		return errs.Persistence("write", path, err)
	}

	s.logger.Debug("stored text artifact",
		zap.String("category", string(c)),
		zap.String("timestamp", ts),
		zap.Int("bytes", len(text)))
	return nil
}

// WriteImage stores image bytes as <ts>.<ext> in the image directory and
// returns the written path. ts should be the timestamp of the paired
// description so the two remain joinable.
func (s *Store) WriteImage(_ context.Context, ts string, data []byte, mediaType string) (string, error) {
	if !timestamp.Valid(ts) {
		return "", errs.InvalidInput("timestamp", "malformed timestamp %q", ts)
	}
	ext, err := ExtForMediaType(mediaType)
	if err != nil {
		return "", err
	}

	dir, err := s.ensureDir(CategoryImageDescription)
	if err != nil {
		return "", err
	}

	path := filepath.Join(dir, ts+"."+ext)
	if err := os.WriteFile(path, data, filePerm); err != nil {
		return "", errs.Persistence("write", path, err)
	}

	s.logger.Debug("stored image",
		zap.String("timestamp", ts),
		zap.String("ext", ext),
		zap.Int("bytes", len(data)))
	return path, nil
}

// ListText returns every text artifact of category c in ascending timestamp
// order. A missing or empty directory yields an empty slice, not an error.
func (s *Store) ListText(ctx context.Context, c Category) ([]Artifact, error) {
	if err := c.Validate(); err != nil {
		return nil, errs.InvalidInput("category", "%v", err)
	}

	names, err := s.listNames(c)
	if err != nil {
		return nil, err
	}

	dir := s.Dir(c)
	out := make([]Artifact, 0, len(names))
	for _, name := range names {
		ts, ok := timestamp.StripExtension(name)
		if !ok {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		path := filepath.Join(dir, name)
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, errs.Persistence("read", path, err)
		}
		out = append(out, Artifact{Category: c, Timestamp: ts, Text: string(b)})
	}
	return out, nil
}

// FindImageByTimestamp returns the first non-text file in the image
// directory whose base name is ts. It returns ErrNotFound when there is none.
// If several files share the base name, the lexically first one wins.
func (s *Store) FindImageByTimestamp(_ context.Context, ts string) (*Image, error) {
	names, err := s.listNames(CategoryImageDescription)
	if err != nil {
		return nil, err
	}

	dir := s.Dir(CategoryImageDescription)
	for _, name := range names {
		ext := filepath.Ext(name)
		if ext == "" || ext == timestamp.TextExt {
			continue
		}
		if strings.TrimSuffix(name, ext) != ts {
			continue
		}

		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errs.Persistence("read", path, err)
		}
		return &Image{
			Timestamp: ts,
			MediaType: MediaTypeForExt(ext),
			Data:      data,
			Path:      path,
		}, nil
	}
	return nil, ErrNotFound
}

// listNames returns the sorted regular-file names of category c's directory.
func (s *Store) listNames(c Category) ([]string, error) {
	dir := s.Dir(c)
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, errs.Persistence("list", dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		names = append(names, e.Name())
	}
	slices.Sort(names)
	return names, nil
}

func (s *Store) ensureDir(c Category) (string, error) {
	dir := s.Dir(c)
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return "", errs.Persistence("mkdir", dir, err)
	}
	return dir, nil
}
