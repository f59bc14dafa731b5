package topology

import (
	"context"
	"errors"
	"os"
	"slices"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	brokerclient "github.com/SocketCluster/agc-broker-client"
)

// FileBrokersConfig is the YAML document the File watcher reads.
//
// Example file:
//
//	brokerURIs:
//	  - wss://broker-1.example.com
//	  - wss://broker-2.example.com
type FileBrokersConfig struct {
	BrokerURIs []string `yaml:"brokerURIs"`
}

// File polls a YAML file on disk for the cluster broker list.
//
// This watcher is intended for deployments where the broker list is
// managed by configuration management (a mounted ConfigMap, an Ansible
// template) rather than a NATS KV bucket. The file is re-read at
// PollInterval and an update is emitted only when the list changes.
//
// Watch() should be called once per instance. The channel is closed when
// Close() is called or the context is cancelled.
type File struct {
	path   string
	config WatcherConfig

	mu         sync.RWMutex
	brokerURIs []string
	haveList   bool

	updates      chan brokerclient.TopologyUpdate
	done         chan struct{}
	closed       bool
	watchStarted bool
	closeOnce    sync.Once
}

var _ brokerclient.TopologyWatcher = (*File)(nil)

// NewFile creates a new file-based topology watcher.
//
// Parameters:
//   - path: Path to the YAML broker list file
//   - opts: Optional configuration options (WithPollInterval applies)
//
// Returns:
//   - *File: A new watcher instance
//   - error: Error if path is empty
func NewFile(path string, opts ...WatcherOption) (*File, error) {
	if path == "" {
		return nil, errors.New("brokerclient/topology: file path is empty")
	}

	config := DefaultWatcherConfig()
	for _, opt := range opts {
		opt(&config)
	}

	return &File{
		path:    path,
		config:  config,
		updates: make(chan brokerclient.TopologyUpdate, 10),
		done:    make(chan struct{}),
	}, nil
}

// Watch returns a channel that receives topology updates.
//
// The watcher reads the file immediately, then polls at PollInterval.
// The channel is closed when Close() is called or the context is
// cancelled. Multiple calls to Watch return the same channel.
//
// Parameters:
//   - ctx: Context for cancellation (only used on first call)
//
// Returns:
//   - <-chan brokerclient.TopologyUpdate: Channel of topology changes
func (f *File) Watch(ctx context.Context) <-chan brokerclient.TopologyUpdate {
	f.mu.Lock()
	if f.watchStarted {
		f.mu.Unlock()

		return f.updates
	}
	f.watchStarted = true
	f.mu.Unlock()

	go f.pollLoop(ctx)

	return f.updates
}

// Close stops the watcher and releases resources.
//
// This method is safe to call multiple times.
func (f *File) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return nil
	}

	f.closed = true
	close(f.done)

	return nil
}

// Current returns the last broker list read from the file.
//
// Returns:
//   - []string: The current broker URIs, or nil before the first read
func (f *File) Current() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()

	return append([]string(nil), f.brokerURIs...)
}

// pollLoop reads the file immediately and then at PollInterval.
func (f *File) pollLoop(ctx context.Context) {
	defer f.closeOnce.Do(func() { close(f.updates) })

	f.readAndEmit()

	ticker := time.NewTicker(f.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-f.done:
			return
		case <-ticker.C:
			f.readAndEmit()
		}
	}
}

// readAndEmit reads the file and emits an update if the list changed.
//
// A missing file or invalid YAML keeps the last known list. Half-written
// files show up during atomic config rollouts and must not wipe the
// broker set.
func (f *File) readAndEmit() {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return
	}

	var config FileBrokersConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.haveList && slices.Equal(f.brokerURIs, config.BrokerURIs) {
		return
	}

	f.brokerURIs = append([]string(nil), config.BrokerURIs...)
	f.haveList = true

	select {
	case f.updates <- brokerclient.TopologyUpdate{
		BrokerURIs: append([]string(nil), config.BrokerURIs...),
	}:
	default:
		// Channel full, skip update (older updates are stale anyway)
	}
}
