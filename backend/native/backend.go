package native

import (
	"fmt"
	"sync"

	"github.com/gogpu/draw"
	"github.com/gogpu/draw/backend"
	"github.com/gogpu/draw/vbuf"
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/wgpu/hal"
)

var (
	providerMu      sync.RWMutex
	defaultProvider gpucontext.DeviceProvider
)

// init registers the native backend on package import.
func init() {
	backend.Register(backend.BackendNative, func() backend.RenderBackend {
		providerMu.RLock()
		defer providerMu.RUnlock()
		return &Backend{provider: defaultProvider}
	})
}

// SetDefaultProvider sets the device provider used by the registered
// backend. Pass nil to clear it.
func SetDefaultProvider(p gpucontext.DeviceProvider) {
	providerMu.Lock()
	defer providerMu.Unlock()
	defaultProvider = p
}

// Backend hands out GPU renderers sharing one hal device and queue.
//
// Backend is safe for concurrent use from multiple goroutines.
type Backend struct {
	mu       sync.RWMutex
	provider gpucontext.DeviceProvider
	device   hal.Device
	queue    hal.Queue

	initialized bool
}

// New returns a backend using device and queue.
func New(device hal.Device, queue hal.Queue) *Backend {
	return &Backend{device: device, queue: queue}
}

// NewFromProvider returns a backend using the device and queue of p. It
// fails with ErrNoDevice unless both are hal values.
func NewFromProvider(p gpucontext.DeviceProvider) (*Backend, error) {
	device, queue, err := fromProvider(p)
	if err != nil {
		return nil, err
	}
	return New(device, queue), nil
}

func fromProvider(p gpucontext.DeviceProvider) (hal.Device, hal.Queue, error) {
	if p == nil {
		return nil, nil, ErrNoDevice
	}
	device, ok := p.Device().(hal.Device)
	if !ok || device == nil {
		return nil, nil, fmt.Errorf("%w: provider device is %T", ErrNoDevice, p.Device())
	}
	queue, ok := p.Queue().(hal.Queue)
	if !ok || queue == nil {
		return nil, nil, fmt.Errorf("%w: provider queue is %T", ErrNoDevice, p.Queue())
	}
	return device, queue, nil
}

// Name returns the backend identifier.
func (b *Backend) Name() string {
	return backend.BackendNative
}

// Init resolves the device from the provider when none was given.
func (b *Backend) Init() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.initialized {
		return nil
	}
	if b.device == nil || b.queue == nil {
		device, queue, err := fromProvider(b.provider)
		if err != nil {
			return err
		}
		b.device, b.queue = device, queue
		info := b.provider.AdapterInfo()
		draw.Logger().Info("native: using adapter", "name", info.Name)
	}
	b.initialized = true
	return nil
}

// Close releases the backend. Renderers already created stay valid until
// destroyed.
func (b *Backend) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.initialized = false
}

// NewRenderer creates a GPU renderer.
func (b *Backend) NewRenderer(cfg backend.Config) (vbuf.Renderer, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.initialized {
		return nil, backend.ErrNotInitialized
	}
	r, err := NewRenderer(b.device, b.queue, cfg)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// Device returns the hal device, or nil before Init.
func (b *Backend) Device() hal.Device {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.device
}
