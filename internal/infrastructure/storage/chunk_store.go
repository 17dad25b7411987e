package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gridcast/internal/core/domain"
	"gridcast/internal/core/ports"

	"go.uber.org/zap"
)

// ChunkStore persists in-flight segment chunks under
// <root>/<segmentID>/chunk-N.bin and concatenates them into a single
// deliverable on finalize. Chunks survive a failed finalize so partial data
// stays available for diagnostics.
type ChunkStore struct {
	root   string
	logger *zap.SugaredLogger

	mu     sync.Mutex
	counts map[domain.SegmentID]int
}

var _ ports.ChunkSink = (*ChunkStore)(nil)

func NewChunkStore(root string, logger *zap.SugaredLogger) (*ChunkStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create recordings root: %w", err)
	}
	return &ChunkStore{
		root:   root,
		logger: logger,
		counts: make(map[domain.SegmentID]int),
	}, nil
}

func (cs *ChunkStore) chunkDir(id domain.SegmentID) string {
	return filepath.Join(cs.root, string(id))
}

func (cs *ChunkStore) Begin(id domain.SegmentID) error {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	if err := os.MkdirAll(cs.chunkDir(id), 0o755); err != nil {
		return fmt.Errorf("failed to create chunk dir: %w", err)
	}
	cs.counts[id] = 0
	return nil
}

func (cs *ChunkStore) Append(id domain.SegmentID, data []byte) (int64, error) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	n, ok := cs.counts[id]
	if !ok {
		return 0, fmt.Errorf("no chunk accumulation in progress for segment %s", id)
	}

	path := filepath.Join(cs.chunkDir(id), fmt.Sprintf("chunk-%06d.bin", n))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return 0, fmt.Errorf("failed to write chunk: %w", err)
	}
	cs.counts[id] = n + 1
	return int64(len(data)), nil
}

// Finalize concatenates accumulated chunks into <root>/<name>.rec and removes
// the chunk directory. On any fault the chunk directory is left in place.
func (cs *ChunkStore) Finalize(id domain.SegmentID, name string) (string, int64, error) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	dir := cs.chunkDir(id)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", 0, fmt.Errorf("failed to read chunk dir: %w", err)
	}

	var chunks []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasPrefix(e.Name(), "chunk-") {
			chunks = append(chunks, e.Name())
		}
	}
	sort.Strings(chunks)

	outPath := filepath.Join(cs.root, sanitizeName(name, id)+".rec")
	out, err := os.Create(outPath)
	if err != nil {
		return "", 0, fmt.Errorf("failed to create deliverable: %w", err)
	}

	var total int64
	for _, chunk := range chunks {
		f, err := os.Open(filepath.Join(dir, chunk))
		if err != nil {
			out.Close()
			os.Remove(outPath)
			return "", 0, fmt.Errorf("failed to open chunk %s: %w", chunk, err)
		}
		n, err := io.Copy(out, f)
		f.Close()
		if err != nil {
			out.Close()
			os.Remove(outPath)
			return "", 0, fmt.Errorf("failed to copy chunk %s: %w", chunk, err)
		}
		total += n
	}

	if err := out.Close(); err != nil {
		os.Remove(outPath)
		return "", 0, fmt.Errorf("failed to close deliverable: %w", err)
	}

	delete(cs.counts, id)
	if err := os.RemoveAll(dir); err != nil {
		cs.logger.Warnw("failed to remove chunk dir after finalize", "segment_id", id, "error", err)
	}

	return outPath, total, nil
}

// Remove deletes both the chunk directory and any finalized deliverable.
func (cs *ChunkStore) Remove(id domain.SegmentID) error {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	delete(cs.counts, id)
	if err := os.RemoveAll(cs.chunkDir(id)); err != nil {
		return fmt.Errorf("failed to remove chunk dir: %w", err)
	}

	matches, err := filepath.Glob(filepath.Join(cs.root, "*"+string(id)+".rec"))
	if err != nil {
		return fmt.Errorf("failed to locate deliverable: %w", err)
	}
	for _, m := range matches {
		if err := os.Remove(m); err != nil {
			return fmt.Errorf("failed to remove deliverable: %w", err)
		}
	}
	return nil
}

// sanitizeName builds a filesystem-safe deliverable name that always embeds
// the segment id so Remove can find it later.
func sanitizeName(name string, id domain.SegmentID) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return string(id)
	}
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String() + "-" + string(id)
}
