// Package registry announces running planner workers in etcd.
//
// A worker registers one ServiceInfo under a lease on startup, keeps the
// lease alive while it runs and revokes it on shutdown. A crashed worker
// disappears when its lease expires. Submitters use Discover to see which
// workers serve which queue.
package registry

import (
	"context"
	"time"
)

// Kind is the component kind every entry is registered under.
const Kind = "planner"

// ServiceInfo describes a registered worker instance.
type ServiceInfo struct {
	// Name is the service name (e.g., "ffplan")
	Name string `json:"name"`

	// Version is the build version of the worker, when known
	Version string `json:"version,omitempty"`

	// InstanceID is unique per worker process
	InstanceID string `json:"instance_id"`

	// Endpoint is the gRPC health address, empty when not served
	Endpoint string `json:"endpoint,omitempty"`

	// Queue is the Redis list the worker consumes
	Queue string `json:"queue"`

	// Metadata holds extra attributes such as the solver binary and mode
	Metadata map[string]string `json:"metadata,omitempty"`

	// StartedAt is the timestamp when this instance started
	StartedAt time.Time `json:"started_at"`
}

// Registry defines service registration and discovery.
//
// Example usage:
//
//	reg, _ := registry.NewClient(cfg)
//	defer reg.Close()
//
//	info := registry.ServiceInfo{
//	    Name:       "ffplan",
//	    InstanceID: workerID,
//	    Queue:      "ffplan:requests",
//	    StartedAt:  time.Now(),
//	}
//	reg.Register(ctx, info)
//	defer reg.Deregister(ctx, info)
type Registry interface {
	// Register adds the instance under a lease that is renewed every TTL/3.
	// Registering the same InstanceID again replaces the entry.
	Register(ctx context.Context, info ServiceInfo) error

	// Deregister revokes the instance lease, deleting its entry.
	// Deregistering an unknown instance is a no-op.
	Deregister(ctx context.Context, info ServiceInfo) error

	// Discover lists the registered instances of a service name.
	Discover(ctx context.Context, name string) ([]ServiceInfo, error)

	// Close stops keepalives and releases the connection.
	Close() error
}

// Config holds registry connection configuration.
type Config struct {
	// Endpoints is the list of etcd endpoints
	// Format: ["host1:2379", "host2:2379"]
	Endpoints []string

	// Namespace is the etcd key prefix. Entries are stored under
	// /{namespace}/planner/{name}/{instance-id}
	// Default: "ffplan"
	Namespace string

	// TTL is the lease time-to-live
	// Default: 30 seconds
	TTL time.Duration

	// DialTimeout bounds the initial connection
	// Default: 5 seconds
	DialTimeout time.Duration

	// TLS enables mutual TLS when set
	TLS *TLSConfig
}

// TLSConfig holds TLS certificate configuration for etcd.
type TLSConfig struct {
	// CertFile is the path to the client certificate file (PEM format)
	CertFile string

	// KeyFile is the path to the client private key file (PEM format)
	KeyFile string

	// CAFile is the path to the certificate authority file (PEM format)
	CAFile string
}
