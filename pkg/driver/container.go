package driver

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/drinkscout/drinkscout/internal/logger"
)

// Container owns a registry of named drivers and their per-resource options,
// and manages the lifecycle of the instances they produce.
//
// Lookup is lock-free once an instance is ready: the shared slot and the
// local cache are both checked without taking the registration lock. Only
// callers racing to initialize the *same* unready resource serialize, via a
// per-name single-flight group; callers of other names are unaffected.
//
// Example usage:
//
//	c := driver.NewContainer(driver.NewSharedState())
//	c.Register("mongo", driver.NewMongoDriver(), mongoOpts)
//	c.Register("httpclient", driver.NewHTTPClientDriver(), httpOpts)
//
//	inst, err := c.GetInstance(ctx, "mongo")
type Container struct {
	mu      sync.RWMutex
	drivers map[string]Driver
	opts    map[string]Options

	instances sync.Map // name -> instance (ready instances only)
	state     *SharedState
	flight    singleflight.Group
}

// NewContainer creates an empty container. The shared state may be nil, in
// which case cross-container handoff is disabled and only the local cache
// is used.
func NewContainer(state *SharedState) *Container {
	return &Container{
		drivers: make(map[string]Driver),
		opts:    make(map[string]Options),
		state:   state,
	}
}

// Register adds a named driver with its options.
// Returns an error if the name is already registered.
func (c *Container) Register(name string, drv Driver, opts Options) error {
	if drv == nil {
		return fmt.Errorf("cannot register nil driver %q", name)
	}
	if name == "" {
		return fmt.Errorf("cannot register driver with empty name")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.drivers[name]; exists {
		return fmt.Errorf("driver %q already registered", name)
	}

	c.drivers[name] = drv
	c.opts[name] = opts
	logger.Debug("driver registered", logger.KeyDriver, name)
	return nil
}

// Names returns all registered driver names. The slice is a copy.
func (c *Container) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.drivers))
	for name := range c.drivers {
		names = append(names, name)
	}
	return names
}

// GetInstance returns the ready instance for the named resource,
// initializing it on first use.
//
// For any number of concurrent callers requesting the same name before
// initialization completes, Initialize runs exactly once and every caller
// observes the same instance reference. A failed initialization caches
// nothing, so a later call retries cleanly.
func (c *Container) GetInstance(ctx context.Context, name string) (any, error) {
	c.mu.RLock()
	drv, ok := c.drivers[name]
	opts := c.opts[name]
	c.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotRegistered, name)
	}

	// Fast path: another container in this process already initialized it.
	if inst, found := c.state.Lookup(SlotKey(name)); found {
		return inst, nil
	}
	// Fast path: our own cache.
	if inst, found := c.instances.Load(name); found {
		return inst, nil
	}

	inst, err, _ := c.flight.Do(name, func() (any, error) {
		// Double-check both caches now that we hold the flight: a
		// concurrent caller may have finished while we queued.
		if inst, found := c.state.Lookup(SlotKey(name)); found {
			return inst, nil
		}
		if inst, found := c.instances.Load(name); found {
			return inst, nil
		}

		logger.Info("initializing driver", logger.KeyDriver, name)
		inst, err := drv.Initialize(ctx, opts)
		if err != nil {
			logger.Error("driver initialization failed",
				logger.KeyDriver, name, logger.KeyError, err.Error())
			return nil, fmt.Errorf("initialize driver %q: %w", name, err)
		}

		c.instances.Store(name, inst)
		c.state.Publish(SlotKey(name), inst)
		logger.Info("driver initialized", logger.KeyDriver, name)
		return inst, nil
	})
	if err != nil {
		return nil, err
	}
	return inst, nil
}

// CleanupAll invokes Cleanup for every cached instance concurrently.
// A failing cleanup is logged and isolated; it never prevents the other
// cleanups from running. The local cache is cleared afterward.
func (c *Container) CleanupAll(ctx context.Context) {
	var wg sync.WaitGroup

	c.instances.Range(func(key, value any) bool {
		name := key.(string)

		c.mu.RLock()
		drv, ok := c.drivers[name]
		c.mu.RUnlock()
		if !ok {
			return true
		}

		wg.Add(1)
		go func(name string, drv Driver, inst any) {
			defer wg.Done()
			if err := drv.Cleanup(ctx, inst); err != nil {
				logger.Warn("driver cleanup failed",
					logger.KeyDriver, name, logger.KeyError, err.Error())
				return
			}
			logger.Info("driver cleaned up", logger.KeyDriver, name)
		}(name, drv, value)
		return true
	})

	wg.Wait()
	c.instances.Clear()
	logger.Info("all driver instances cleaned up")
}

// HealthcheckAll checks every cached instance independently and returns a
// map of driver name to health. A failing check yields false for that name
// only; it never aborts the batch and never propagates an error.
func (c *Container) HealthcheckAll(ctx context.Context) map[string]bool {
	health := make(map[string]bool)

	c.instances.Range(func(key, value any) bool {
		name := key.(string)

		c.mu.RLock()
		drv, ok := c.drivers[name]
		c.mu.RUnlock()
		if !ok {
			return true
		}

		if err := drv.Healthcheck(ctx, value); err != nil {
			logger.Warn("driver healthcheck failed",
				logger.KeyDriver, name, logger.KeyError, err.Error())
			health[name] = false
		} else {
			health[name] = true
		}
		return true
	})

	return health
}
