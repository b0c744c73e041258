package tags

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// FileProvider serves tags read from a file and reloads them whenever the
// file changes. The file holds one tag per line; blank lines and lines
// starting with '#' are ignored.
type FileProvider struct {
	log  logrus.FieldLogger
	path string
	tags atomic.Pointer[[]string]

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	cancel  context.CancelFunc
	done    chan struct{}
}

var _ Provider = (*FileProvider)(nil)

// NewFileProvider creates a FileProvider and loads the file once.
func NewFileProvider(log logrus.FieldLogger, path string) (*FileProvider, error) {
	p := &FileProvider{
		log:  log.WithField("component", "tag_file"),
		path: filepath.Clean(path),
	}

	if err := p.Reload(); err != nil {
		return nil, err
	}

	return p, nil
}

// Tags returns the most recently loaded tags.
func (p *FileProvider) Tags() []string {
	if t := p.tags.Load(); t != nil {
		return *t
	}

	return nil
}

// Reload reads the file and replaces the served tags.
func (p *FileProvider) Reload() error {
	data, err := os.ReadFile(p.path)
	if err != nil {
		return fmt.Errorf("reading tag file %s: %w", p.path, err)
	}

	parsed := ParseLines(data)
	p.tags.Store(&parsed)

	return nil
}

// Start watches the file's directory so that editors that replace the
// file on save are also picked up.
func (p *FileProvider) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.watcher != nil {
		return fmt.Errorf("tag file watcher already running")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating fsnotify watcher: %w", err)
	}

	if err := watcher.Add(filepath.Dir(p.path)); err != nil {
		_ = watcher.Close()

		return fmt.Errorf("watching %s: %w", filepath.Dir(p.path), err)
	}

	ctx, p.cancel = context.WithCancel(ctx)
	p.watcher = watcher
	p.done = make(chan struct{})

	go p.watch(ctx, watcher)

	p.log.WithField("path", p.path).Info("Watching tag file")

	return nil
}

// Stop stops watching the file. The last loaded tags remain available.
func (p *FileProvider) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.watcher == nil {
		return nil
	}

	p.cancel()
	<-p.done

	err := p.watcher.Close()
	p.watcher = nil

	return err
}

func (p *FileProvider) watch(ctx context.Context, watcher *fsnotify.Watcher) {
	defer close(p.done)

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}

			if filepath.Clean(event.Name) != p.path {
				continue
			}

			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			if err := p.Reload(); err != nil {
				p.log.WithError(err).Warn("Tag file reload failed, keeping previous tags")

				continue
			}

			p.log.WithField("tags", len(p.Tags())).Debug("Reloaded tag file")
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}

			p.log.WithError(err).Warn("Tag file watcher error")
		}
	}
}

// ParseLines parses one tag per line, skipping blanks and comments.
func ParseLines(data []byte) []string {
	out := make([]string, 0, 8)

	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		out = append(out, line)
	}

	return out
}
