package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"
)

// ErrClosed is returned by every method after Close.
var ErrClosed = errors.New("registry client is closed")

// Client implements Registry on an etcd cluster.
//
// Thread-safety: All methods are safe for concurrent use.
type Client struct {
	client    *clientv3.Client
	namespace string
	ttl       time.Duration

	mu        sync.Mutex
	leases    map[string]clientv3.LeaseID // key: instance ID
	cancelFns map[string]context.CancelFunc
	wg        sync.WaitGroup // tracks keepalive goroutines
	closed    bool
}

// NewClient connects to etcd and verifies connectivity.
func NewClient(cfg Config) (*Client, error) {
	if len(cfg.Endpoints) == 0 {
		return nil, fmt.Errorf("registry endpoints cannot be empty")
	}
	cfg = withDefaults(cfg)

	tlsConfig, err := clientTLS(cfg.TLS)
	if err != nil {
		return nil, fmt.Errorf("failed to configure TLS: %w", err)
	}

	cli, err := clientv3.New(clientv3.Config{
		Endpoints:   cfg.Endpoints,
		DialTimeout: cfg.DialTimeout,
		TLS:         tlsConfig,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create etcd client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout)
	defer cancel()

	if _, err := cli.Get(ctx, "/"+cfg.Namespace+"/health-check"); err != nil {
		cli.Close()
		return nil, fmt.Errorf("etcd health check failed: %w", err)
	}

	return &Client{
		client:    cli,
		namespace: cfg.Namespace,
		ttl:       cfg.TTL,
		leases:    make(map[string]clientv3.LeaseID),
		cancelFns: make(map[string]context.CancelFunc),
	}, nil
}

func withDefaults(cfg Config) Config {
	if cfg.Namespace == "" {
		cfg.Namespace = "ffplan"
	}
	if cfg.TTL < time.Second {
		cfg.TTL = 30 * time.Second
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 5 * time.Second
	}
	return cfg
}

// Register adds info under a fresh lease and starts renewing it.
func (c *Client) Register(ctx context.Context, info ServiceInfo) error {
	if info.Name == "" || info.InstanceID == "" {
		return fmt.Errorf("service name and instance id are required")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}

	if cancelFn, exists := c.cancelFns[info.InstanceID]; exists {
		cancelFn()
		delete(c.cancelFns, info.InstanceID)
	}

	leaseResp, err := c.client.Grant(ctx, int64(c.ttl/time.Second))
	if err != nil {
		return fmt.Errorf("failed to create lease: %w", err)
	}

	data, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("failed to marshal service info: %w", err)
	}

	key := buildKey(c.namespace, info.Name, info.InstanceID)
	if _, err := c.client.Put(ctx, key, string(data), clientv3.WithLease(leaseResp.ID)); err != nil {
		return fmt.Errorf("failed to register service: %w", err)
	}

	c.leases[info.InstanceID] = leaseResp.ID

	keepaliveCtx, cancel := context.WithCancel(context.Background())
	c.cancelFns[info.InstanceID] = cancel

	c.wg.Add(1)
	go c.keepalive(keepaliveCtx, leaseResp.ID, info.InstanceID)

	return nil
}

// Deregister revokes the lease of info.InstanceID.
func (c *Client) Deregister(ctx context.Context, info ServiceInfo) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}

	if cancelFn, exists := c.cancelFns[info.InstanceID]; exists {
		cancelFn()
		delete(c.cancelFns, info.InstanceID)
	}

	leaseID, exists := c.leases[info.InstanceID]
	if !exists {
		return nil
	}

	if _, err := c.client.Revoke(ctx, leaseID); err != nil {
		return fmt.Errorf("failed to revoke lease: %w", err)
	}
	delete(c.leases, info.InstanceID)

	return nil
}

// Discover lists the registered instances of name, skipping entries that
// fail to decode.
func (c *Client) Discover(ctx context.Context, name string) ([]ServiceInfo, error) {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return nil, ErrClosed
	}

	resp, err := c.client.Get(ctx, servicePrefix(c.namespace, name), clientv3.WithPrefix())
	if err != nil {
		return nil, fmt.Errorf("failed to discover services: %w", err)
	}

	values := make([][]byte, len(resp.Kvs))
	for i, kv := range resp.Kvs {
		values[i] = kv.Value
	}
	return decodeInstances(values), nil
}

// Close stops all keepalives and closes the etcd connection. Leases are
// left to expire; call Deregister first for immediate removal.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true

	for _, cancel := range c.cancelFns {
		cancel()
	}
	c.cancelFns = make(map[string]context.CancelFunc)
	c.mu.Unlock()

	c.wg.Wait()

	return c.client.Close()
}

// keepalive renews the lease every TTL/3 until cancelled or the lease is lost.
func (c *Client) keepalive(ctx context.Context, leaseID clientv3.LeaseID, instanceID string) {
	defer c.wg.Done()

	ticker := time.NewTicker(c.ttl / 3)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := c.client.KeepAliveOnce(ctx, leaseID); err != nil {
				if ctx.Err() != nil {
					return
				}
				c.mu.Lock()
				if c.leases[instanceID] == leaseID {
					delete(c.leases, instanceID)
					delete(c.cancelFns, instanceID)
				}
				c.mu.Unlock()
				return
			}
		}
	}
}

func decodeInstances(values [][]byte) []ServiceInfo {
	instances := make([]ServiceInfo, 0, len(values))
	for _, v := range values {
		var info ServiceInfo
		if err := json.Unmarshal(v, &info); err != nil {
			continue
		}
		instances = append(instances, info)
	}
	return instances
}

// servicePrefix is the key prefix shared by all instances of name.
func servicePrefix(namespace, name string) string {
	return fmt.Sprintf("/%s/%s/%s/", namespace, Kind, name)
}

// buildKey constructs the etcd key for an instance.
//
// Format: /namespace/planner/name/instance-id
func buildKey(namespace, name, instanceID string) string {
	return servicePrefix(namespace, name) + instanceID
}
