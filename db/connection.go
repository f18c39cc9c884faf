package db

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/gocql/gocql"
	"github.com/scylladb/gocqlx/v3"
	"go.uber.org/zap"
)

// keyspaceName matches unquoted CQL keyspace identifiers.
var keyspaceName = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]{0,47}$`)

type ScyllaDB struct {
	Session gocqlx.Session
	config  *Config
	logger  *zap.Logger
}

type Config struct {
	Hosts              []string
	Keyspace           string
	ReplicationFactor  int
	Consistency        gocql.Consistency
	Timeout            time.Duration
	ConnectTimeout     time.Duration
	MaxRetries         int
	RetryDelay         time.Duration
	NumConnections     int
	MaxWaitTime        time.Duration
	ReconnectInterval  time.Duration
	IgnorePeerAddr     bool
	DisableInitialHost bool
}

func DefaultConfig() *Config {
	return &Config{
		ReplicationFactor:  1,
		Consistency:        gocql.Quorum,
		Timeout:            10 * time.Second,
		ConnectTimeout:     10 * time.Second,
		MaxRetries:         3,
		RetryDelay:         2 * time.Second,
		NumConnections:     2,
		MaxWaitTime:        30 * time.Second,
		ReconnectInterval:  60 * time.Second,
		IgnorePeerAddr:     true,
		DisableInitialHost: true,
	}
}

func (c *Config) Validate() error {
	if len(c.Hosts) == 0 {
		return fmt.Errorf("at least one host must be specified")
	}
	if c.Keyspace == "" {
		return fmt.Errorf("keyspace must be specified")
	}
	if !keyspaceName.MatchString(c.Keyspace) {
		return fmt.Errorf("invalid keyspace name %q", c.Keyspace)
	}
	if c.ReplicationFactor <= 0 {
		return fmt.Errorf("replication factor must be positive")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.ConnectTimeout <= 0 {
		return fmt.Errorf("connect timeout must be positive")
	}
	if c.NumConnections <= 0 {
		return fmt.Errorf("number of connections must be positive")
	}
	if c.MaxRetries <= 0 {
		return fmt.Errorf("max retries must be positive")
	}
	return nil
}

func Connect(hosts []string, keyspace string, logger *zap.Logger) (*ScyllaDB, error) {
	config := DefaultConfig()
	config.Hosts = hosts
	config.Keyspace = keyspace
	return ConnectWithConfig(config, logger)
}

type connectObserver struct {
	logger *zap.Logger
}

func (c *connectObserver) ObserveConnect(o gocql.ObservedConnect) {
	if o.Err != nil {
		c.logger.Warn("Scylla connection attempt failed", zap.String("host", o.Host.HostID()), zap.Error(o.Err))
		return
	}
	c.logger.Debug("Scylla connection established", zap.String("host", o.Host.HostID()))
}

func (c *Config) newCluster(logger *zap.Logger) *gocql.ClusterConfig {
	cluster := gocql.NewCluster(c.Hosts...)
	cluster.Consistency = c.Consistency
	cluster.Timeout = c.Timeout
	cluster.ConnectTimeout = c.ConnectTimeout
	cluster.NumConns = c.NumConnections
	cluster.ReconnectInterval = c.ReconnectInterval
	cluster.IgnorePeerAddr = c.IgnorePeerAddr
	cluster.DisableInitialHostLookup = c.DisableInitialHost

	// Token-aware load balancing with round-robin fallback
	cluster.PoolConfig.HostSelectionPolicy = gocql.TokenAwareHostPolicy(
		gocql.RoundRobinHostPolicy(),
	)

	cluster.RetryPolicy = &gocql.ExponentialBackoffRetryPolicy{
		NumRetries: c.MaxRetries,
		Min:        c.RetryDelay,
		Max:        c.MaxWaitTime,
	}
	cluster.ConnectObserver = &connectObserver{logger: logger}
	return cluster
}

// createSession retries with a linearly growing delay.
func (c *Config) createSession(cluster *gocql.ClusterConfig, logger *zap.Logger) (*gocql.Session, error) {
	var session *gocql.Session
	var err error

	for attempt := 1; attempt <= c.MaxRetries; attempt++ {
		session, err = cluster.CreateSession()
		if err == nil {
			return session, nil
		}

		if attempt < c.MaxRetries {
			waitTime := c.RetryDelay * time.Duration(attempt)
			logger.Warn("Scylla session attempt failed, retrying",
				zap.Int("attempt", attempt),
				zap.Int("max_attempts", c.MaxRetries),
				zap.Duration("wait", waitTime),
				zap.Error(err))
			time.Sleep(waitTime)
		}
	}

	return nil, fmt.Errorf("failed to connect to ScyllaDB after %d attempts: %w",
		c.MaxRetries, err)
}

// ensureKeyspace creates the keyspace through a keyspace-less session, since
// a session bound to a missing keyspace cannot be opened.
func (c *Config) ensureKeyspace(logger *zap.Logger) error {
	session, err := c.createSession(c.newCluster(logger), logger)
	if err != nil {
		return err
	}
	defer session.Close()

	stmt := fmt.Sprintf(
		`CREATE KEYSPACE IF NOT EXISTS %s WITH replication = {'class': 'SimpleStrategy', 'replication_factor': %d}`,
		c.Keyspace, c.ReplicationFactor)
	if err := session.Query(stmt).Exec(); err != nil {
		return fmt.Errorf("create keyspace %s: %w", c.Keyspace, err)
	}
	return nil
}

func ConnectWithConfig(config *Config, logger *zap.Logger) (*ScyllaDB, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if err := config.ensureKeyspace(logger); err != nil {
		return nil, err
	}

	cluster := config.newCluster(logger)
	cluster.Keyspace = config.Keyspace

	session, err := config.createSession(cluster, logger)
	if err != nil {
		return nil, err
	}

	db := &ScyllaDB{
		Session: gocqlx.NewSession(session),
		config:  config,
		logger:  logger,
	}

	logger.Info("ScyllaDB connection established", zap.String("keyspace", config.Keyspace))

	if err := db.Health(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initial health check failed: %w", err)
	}

	return db, nil
}

func (db *ScyllaDB) Close() {
	if db.Session.Session != nil {
		db.Session.Close()
		db.logger.Info("ScyllaDB session closed")
	}
}

func (db *ScyllaDB) Health() error {
	ctx, cancel := context.WithTimeout(context.Background(), db.config.Timeout)
	defer cancel()
	return db.HealthWithContext(ctx)
}

func (db *ScyllaDB) HealthWithContext(ctx context.Context) error {
	var now time.Time
	q := db.Session.ContextQuery(ctx, "SELECT now() FROM system.local", nil)
	if err := q.GetRelease(&now); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("health check cancelled: %w", ctx.Err())
		}
		return fmt.Errorf("health check failed: %w", err)
	}
	return nil
}

func (db *ScyllaDB) GetConfig() *Config {
	return db.config
}
