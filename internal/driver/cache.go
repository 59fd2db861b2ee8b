package driver

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/vmihailenco/msgpack/v5"

	"lamina/internal/buildpipeline"
	"lamina/internal/project"
	"lamina/internal/version"
)

// bump when CacheEntry changes shape
const cacheSchemaVersion uint16 = 1

// ArtifactCache хранит сгенерированные артефакты на диске по ключу
// из хеша исходника и настроек сборки. Safe for concurrent use.
type ArtifactCache struct {
	mu  sync.RWMutex
	dir string
}

// CacheEntry is the msgpack payload of one cached compilation.
type CacheEntry struct {
	Schema   uint16               `msgpack:"schema"`
	Target   buildpipeline.Target `msgpack:"target"`
	Name     string               `msgpack:"name"`
	Artifact string               `msgpack:"artifact"`
}

// OpenArtifactCache opens (creating if needed) a cache rooted at dir.
func OpenArtifactCache(dir string) (*ArtifactCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &ArtifactCache{dir: dir}, nil
}

// OpenUserCache opens the cache under XDG_CACHE_HOME (or ~/.cache)/app.
func OpenUserCache(app string) (*ArtifactCache, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		base = filepath.Join(home, ".cache")
	}
	return OpenArtifactCache(filepath.Join(base, app))
}

func (c *ArtifactCache) Dir() string {
	if c == nil {
		return ""
	}
	return c.dir
}

func (c *ArtifactCache) pathFor(key project.Digest) string {
	return filepath.Join(c.dir, "artifacts", key.String()+".mp")
}

// Put writes entry under key, replacing any previous one atomically.
func (c *ArtifactCache) Put(key project.Digest, entry *CacheEntry) error {
	if c == nil || entry == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	stored := *entry
	stored.Schema = cacheSchemaVersion
	data, err := msgpack.Marshal(&stored)
	if err != nil {
		return fmt.Errorf("cache: encode: %w", err)
	}
	return writeFileAtomic(c.pathFor(key), data, 0o644)
}

// Get loads the entry stored under key. Entries from another schema
// version count as misses.
func (c *ArtifactCache) Get(key project.Digest) (*CacheEntry, bool, error) {
	if c == nil {
		return nil, false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	data, err := os.ReadFile(c.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	var entry CacheEntry
	if err := msgpack.Unmarshal(data, &entry); err != nil {
		return nil, false, fmt.Errorf("cache: decode %s: %w", key, err)
	}
	if entry.Schema != cacheSchemaVersion {
		return nil, false, nil
	}
	return &entry, true, nil
}

// DropAll removes every cached artifact.
func (c *ArtifactCache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return os.RemoveAll(filepath.Join(c.dir, "artifacts"))
}

// Usage counts stored artifacts and their total size on disk.
func (c *ArtifactCache) Usage() (entries int, size int64, err error) {
	if c == nil {
		return 0, 0, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	err = filepath.WalkDir(filepath.Join(c.dir, "artifacts"), func(_ string, d fs.DirEntry, werr error) error {
		if errors.Is(werr, fs.ErrNotExist) {
			return filepath.SkipAll
		}
		if werr != nil || d.IsDir() || !strings.HasSuffix(d.Name(), ".mp") {
			return werr
		}
		info, ierr := d.Info()
		if ierr != nil {
			return ierr
		}
		entries++
		size += info.Size()
		return nil
	})
	return entries, size, err
}

// cacheKey digests the file contents together with every option that
// changes the artifact.
func (c *compilation) cacheKey() (project.Digest, bool) {
	// a custom hasher cannot be fingerprinted
	if c.opts.Cache == nil || c.opts.Hasher != nil || c.opts.StopAfter != "" {
		return project.Digest{}, false
	}
	parts := []project.Digest{
		project.HashString(string(c.res.Target)),
		project.HashString(version.Version),
		project.HashString(c.name),
		project.HashString(c.opts.Triple),
		project.HashString(fmt.Sprintf("fold=%t dce=%t", !c.opts.Optimize.NoFold, !c.opts.Optimize.NoDCE)),
		project.HashString(envFingerprint(c.opts)),
	}
	return project.Combine(project.Digest(c.res.File.Hash), parts...), true
}

func envFingerprint(opts Options) string {
	var sb strings.Builder
	for _, name := range opts.Env.Names() {
		sig, _ := opts.Env.Lookup(name)
		sb.WriteString(name)
		sb.WriteByte('(')
		for i, p := range sig.Params {
			if i > 0 {
				sb.WriteByte(',')
			}
			sb.WriteString(p.String())
		}
		sb.WriteString(")")
		sb.WriteString(sig.Result.String())
		sb.WriteByte(';')
	}
	return sb.String()
}
