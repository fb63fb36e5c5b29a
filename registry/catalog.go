package registry

// The type catalog publishes which type names each namespace can rebuild, so a
// sender can check that a receiver will be able to reconstruct a payload
// before it sends one.
//
// etcd is used as the shared directory:
//
//	Key:   /{prefix}/{namespace}/{typeName}
//	Value: CatalogEntry as JSON
//
// Entries are attached to a TTL lease. If the publishing process dies the lease
// expires and its entries disappear with it.

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"
	"go.uber.org/zap"

	"typecodec/jsonvalue"
	"typecodec/logging"
)

const (
	DefaultCatalogPrefix = "typecodec"
	DefaultCatalogTTL    = 10 // seconds
	DefaultDialTimeout   = 5 * time.Second
)

var ErrCatalogClosed = errors.New("registry: catalog closed")

// CatalogConfig holds the etcd connection settings of a catalog.
type CatalogConfig struct {
	Endpoints   []string      `yaml:"endpoints"`
	Prefix      string        `yaml:"prefix"`
	TTL         int64         `yaml:"ttl"`
	DialTimeout time.Duration `yaml:"dial_timeout"`
	Node        string        `yaml:"node"` // Identifies the publisher in entries
}

// CatalogEntry records that Node can rebuild TypeName inside Namespace.
type CatalogEntry struct {
	Namespace string
	TypeName  string
	Node      string
}

// ToValue encodes e as a JSON object.
func (e CatalogEntry) ToValue() jsonvalue.Value {
	return jsonvalue.ObjectOf(jsonvalue.NewObject().
		Set("namespace", jsonvalue.String(e.Namespace)).
		Set("typeName", jsonvalue.String(e.TypeName)).
		Set("node", jsonvalue.String(e.Node)))
}

// ParseCatalogEntry is the inverse of ToValue.
func ParseCatalogEntry(data []byte) (CatalogEntry, error) {
	v, err := jsonvalue.Parse(data)
	if err != nil {
		return CatalogEntry{}, err
	}
	obj, ok := v.AsObject()
	if !ok {
		return CatalogEntry{}, fmt.Errorf("registry: catalog entry is a %s, not an object", v.Kind())
	}
	e := CatalogEntry{}
	e.Namespace, _ = obj.GetString("namespace")
	e.TypeName, _ = obj.GetString("typeName")
	e.Node, _ = obj.GetString("node")
	if e.TypeName == "" {
		return CatalogEntry{}, fmt.Errorf("registry: catalog entry without typeName")
	}
	return e, nil
}

// Catalog publishes and discovers the type names each namespace serves.
type Catalog interface {
	Publish(ctx context.Context, namespace string, typeNames []string, ttl int64) error
	Withdraw(ctx context.Context, namespace, typeName string) error
	Discover(ctx context.Context, namespace string) ([]CatalogEntry, error)
	Watch(ctx context.Context, namespace string) <-chan []CatalogEntry
}

// EtcdCatalog implements Catalog on etcd v3.
type EtcdCatalog struct {
	client *clientv3.Client // thread-safe, shared across goroutines
	cfg    CatalogConfig
	logger *zap.Logger

	// keepalive goroutines live until Close, independent of Publish's ctx
	ctx    context.Context
	cancel context.CancelFunc
	once   sync.Once
}

// NewEtcdCatalog connects to the endpoints in cfg. Zero-valued settings fall
// back to the package defaults; a nil logger means logging.Default.
func NewEtcdCatalog(cfg CatalogConfig, logger *zap.Logger) (*EtcdCatalog, error) {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.Prefix == "" {
		cfg.Prefix = DefaultCatalogPrefix
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultCatalogTTL
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = DefaultDialTimeout
	}
	c, err := clientv3.New(clientv3.Config{
		Endpoints:   cfg.Endpoints,
		DialTimeout: cfg.DialTimeout,
		Logger:      logger.Named("etcd"),
	})
	if err != nil {
		return nil, fmt.Errorf("registry: connecting to etcd: %w", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &EtcdCatalog{
		client: c,
		cfg:    cfg,
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}, nil
}

func (c *EtcdCatalog) namespacePrefix(namespace string) string {
	return "/" + strings.Trim(c.cfg.Prefix, "/") + "/" + namespace + "/"
}

func (c *EtcdCatalog) key(namespace, typeName string) string {
	return c.namespacePrefix(namespace) + typeName
}

// Publish records every name in typeNames under namespace with one TTL lease.
// A ttl of zero uses the configured TTL.
//
// Flow: grant lease, put each entry with the lease attached, start KeepAlive
// so the lease renews until Close.
func (c *EtcdCatalog) Publish(ctx context.Context, namespace string, typeNames []string, ttl int64) error {
	if c.ctx.Err() != nil {
		return ErrCatalogClosed
	}
	if len(typeNames) == 0 {
		return nil
	}
	if ttl <= 0 {
		ttl = c.cfg.TTL
	}

	lease, err := c.client.Grant(ctx, ttl)
	if err != nil {
		return fmt.Errorf("registry: granting lease: %w", err)
	}

	ops := make([]clientv3.Op, 0, len(typeNames))
	for _, name := range typeNames {
		entry := CatalogEntry{Namespace: namespace, TypeName: name, Node: c.cfg.Node}
		val, err := entry.ToValue().MarshalJSON()
		if err != nil {
			c.revoke(lease.ID)
			return err
		}
		ops = append(ops, clientv3.OpPut(c.key(namespace, name), string(val), clientv3.WithLease(lease.ID)))
	}
	// one transaction so a namespace never appears half published
	if _, err := c.client.Txn(ctx).Then(ops...).Commit(); err != nil {
		c.revoke(lease.ID)
		return fmt.Errorf("registry: publishing %s: %w", namespace, err)
	}

	ch, err := c.client.KeepAlive(c.ctx, lease.ID)
	if err != nil {
		c.revoke(lease.ID)
		return fmt.Errorf("registry: keepalive: %w", err)
	}
	// drain responses so the channel never fills up
	go func() {
		for range ch {
		}
		c.logger.Debug("catalog lease keepalive stopped",
			zap.String("namespace", namespace),
			zap.Int64("lease", int64(lease.ID)))
	}()

	c.logger.Info("published types",
		zap.String("namespace", namespace),
		zap.Strings("types", typeNames),
		zap.Int64("ttl", ttl))
	return nil
}

// revoke drops a lease whose entries were never published. It does not use
// the caller's context, which may be the reason the publish failed.
func (c *EtcdCatalog) revoke(id clientv3.LeaseID) {
	ctx, cancel := context.WithTimeout(c.ctx, c.cfg.DialTimeout)
	defer cancel()
	if _, err := c.client.Revoke(ctx, id); err != nil {
		c.logger.Warn("revoking unused catalog lease failed",
			zap.Int64("lease", int64(id)),
			zap.Error(err))
	}
}

// PublishRegistry publishes the locally registered names of r under r.Name().
func (c *EtcdCatalog) PublishRegistry(ctx context.Context, r *TypeRegistry, ttl int64) error {
	if r.Name() == "" {
		return fmt.Errorf("registry: cannot publish an unnamed registry")
	}
	return c.Publish(ctx, r.Name(), r.Names(), ttl)
}

// Withdraw removes one type name from namespace.
func (c *EtcdCatalog) Withdraw(ctx context.Context, namespace, typeName string) error {
	if _, err := c.client.Delete(ctx, c.key(namespace, typeName)); err != nil {
		return fmt.Errorf("registry: withdrawing %s/%s: %w", namespace, typeName, err)
	}
	return nil
}

// Discover returns every entry currently published under namespace.
func (c *EtcdCatalog) Discover(ctx context.Context, namespace string) ([]CatalogEntry, error) {
	resp, err := c.client.Get(ctx, c.namespacePrefix(namespace), clientv3.WithPrefix())
	if err != nil {
		return nil, fmt.Errorf("registry: discovering %s: %w", namespace, err)
	}

	entries := make([]CatalogEntry, 0, len(resp.Kvs))
	for _, kv := range resp.Kvs {
		entry, err := ParseCatalogEntry(kv.Value)
		if err != nil {
			c.logger.Warn("skipping malformed catalog entry",
				zap.ByteString("key", kv.Key),
				zap.Error(err))
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// Supports reports whether typeName is published under namespace.
func (c *EtcdCatalog) Supports(ctx context.Context, namespace, typeName string) (bool, error) {
	resp, err := c.client.Get(ctx, c.key(namespace, typeName), clientv3.WithCountOnly())
	if err != nil {
		return false, fmt.Errorf("registry: looking up %s/%s: %w", namespace, typeName, err)
	}
	return resp.Count > 0, nil
}

// Watch emits the full entry list of namespace each time it changes. The
// channel closes when ctx is done or the catalog is closed.
func (c *EtcdCatalog) Watch(ctx context.Context, namespace string) <-chan []CatalogEntry {
	ch := make(chan []CatalogEntry, 1)
	watchCtx, cancel := context.WithCancel(ctx)

	go func() {
		defer close(ch)
		defer cancel()
		stop := context.AfterFunc(c.ctx, cancel)
		defer stop()

		watchChan := c.client.Watch(watchCtx, c.namespacePrefix(namespace), clientv3.WithPrefix())
		for range watchChan {
			// re-read the whole namespace rather than applying events one by one
			entries, err := c.Discover(watchCtx, namespace)
			if err != nil {
				c.logger.Warn("catalog watch refresh failed",
					zap.String("namespace", namespace),
					zap.Error(err))
				continue
			}
			select {
			case ch <- entries:
			case <-watchCtx.Done():
				return
			}
		}
	}()

	return ch
}

// Close stops lease renewal and closes the etcd client.
func (c *EtcdCatalog) Close() error {
	var err error
	c.once.Do(func() {
		c.cancel()
		err = c.client.Close()
	})
	return err
}
