package database

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// OpenFunc establishes a new connection.
type OpenFunc func(ctx context.Context) (*Database, error)

// Connector lazily opens one shared Database. Concurrent first callers share
// a single attempt. A failed attempt is not cached; the next call retries.
type Connector struct {
	open    OpenFunc
	timeout time.Duration

	mu    sync.RWMutex
	db    *Database
	group singleflight.Group
}

// NewConnector returns a Connector that calls open at most once per
// successful connection. A positive timeout bounds each attempt.
func NewConnector(open OpenFunc, timeout time.Duration) *Connector {
	return &Connector{open: open, timeout: timeout}
}

// Get returns the shared Database, connecting first if needed.
func (c *Connector) Get(ctx context.Context) (*Database, error) {
	if db := c.current(); db != nil {
		return db, nil
	}

	ch := c.group.DoChan("connect", func() (any, error) {
		if db := c.current(); db != nil {
			return db, nil
		}

		// The attempt is shared, so one caller's cancellation must not
		// abort it for the others.
		attemptCtx := context.WithoutCancel(ctx)
		if c.timeout > 0 {
			var cancel context.CancelFunc
			attemptCtx, cancel = context.WithTimeout(attemptCtx, c.timeout)
			defer cancel()
		}

		db, err := c.open(attemptCtx)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.db = db
		c.mu.Unlock()
		return db, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Database), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Ensure connects if no connection is established yet.
func (c *Connector) Ensure(ctx context.Context) error {
	_, err := c.Get(ctx)
	return err
}

// Connected reports whether a connection has been established.
func (c *Connector) Connected() bool {
	return c.current() != nil
}

// Close closes the shared Database, if any. A later Get reconnects.
func (c *Connector) Close() error {
	c.mu.Lock()
	db := c.db
	c.db = nil
	c.mu.Unlock()
	return db.Close()
}

func (c *Connector) current() *Database {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.db
}
