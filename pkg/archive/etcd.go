package archive

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"
)

// etcdArchive implements the Archive interface using etcd.
type etcdArchive struct {
	client    *clientv3.Client
	prefix    string
	timeout   time.Duration
	closeOnce sync.Once
}

// NewEtcdArchive creates a new etcd-backed archive.
func NewEtcdArchive(cfg *Config) (Archive, error) {
	if cfg.Backend != BackendEtcd {
		return nil, fmt.Errorf("invalid backend type: %s (expected %s)", cfg.Backend, BackendEtcd)
	}

	if len(cfg.EtcdEndpoints) == 0 {
		return nil, fmt.Errorf("etcd endpoints cannot be empty")
	}

	prefix := cfg.EtcdPrefix
	if prefix == "" {
		prefix = "/arca-conf/"
	}
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}

	dialTimeout := cfg.EtcdDialTimeout
	if dialTimeout == 0 {
		dialTimeout = 5 * time.Second
	}

	clientCfg := clientv3.Config{
		Endpoints:   cfg.EtcdEndpoints,
		DialTimeout: dialTimeout,
	}

	if cfg.EtcdUsername != "" {
		clientCfg.Username = cfg.EtcdUsername
		clientCfg.Password = cfg.EtcdPassword
	}

	if cfg.EtcdTLS != nil {
		tlsConfig, err := buildTLSConfig(cfg.EtcdTLS)
		if err != nil {
			return nil, fmt.Errorf("failed to build TLS config: %w", err)
		}
		clientCfg.TLS = tlsConfig
	}

	client, err := clientv3.New(clientCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create etcd client: %w", err)
	}

	ds := &etcdArchive{
		client:  client,
		prefix:  prefix,
		timeout: dialTimeout,
	}

	// Test connection with a simple Get (with timeout)
	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	defer cancel()

	if _, err := client.Get(ctx, prefix, clientv3.WithPrefix(), clientv3.WithLimit(1)); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to etcd: %w", err)
	}

	return ds, nil
}

// buildTLSConfig constructs a TLS configuration from the settings.
func buildTLSConfig(cfg *TLSConfig) (*tls.Config, error) {
	tlsConfig := &tls.Config{
		MinVersion: tls.VersionTLS12,
	}

	if cfg.CertFile != "" && cfg.KeyFile != "" {
		cert, err := tls.LoadX509KeyPair(cfg.CertFile, cfg.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load client certificate: %w", err)
		}
		tlsConfig.Certificates = []tls.Certificate{cert}
	}

	if cfg.CAFile != "" {
		caData, err := os.ReadFile(cfg.CAFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read CA file: %w", err)
		}

		caPool := x509.NewCertPool()
		if !caPool.AppendCertsFromPEM(caData) {
			return nil, fmt.Errorf("failed to parse CA certificate")
		}
		tlsConfig.RootCAs = caPool
	}

	return tlsConfig, nil
}

// Close closes the etcd client connection.
// This method is idempotent and safe to call multiple times.
func (ds *etcdArchive) Close() error {
	var err error
	ds.closeOnce.Do(func() {
		err = ds.client.Close()
	})
	return err
}

// key builds a full etcd key from the prefix and path segments.
func (ds *etcdArchive) key(parts ...string) string {
	return ds.prefix + strings.Join(parts, "/")
}

// withTimeout wraps the context with the default timeout unless the caller
// already set a deadline.
func (ds *etcdArchive) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, ds.timeout)
}
