// Package di wires configuration into concrete implementations
package di

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/snehachy12/campus-event-system-sub002/internal/catalog"
	"github.com/snehachy12/campus-event-system-sub002/internal/config"
	"github.com/snehachy12/campus-event-system-sub002/internal/domain"
	"github.com/snehachy12/campus-event-system-sub002/internal/gateway"
	"github.com/snehachy12/campus-event-system-sub002/internal/handler"
	"github.com/snehachy12/campus-event-system-sub002/internal/kafka"
	"github.com/snehachy12/campus-event-system-sub002/internal/logger"
	"github.com/snehachy12/campus-event-system-sub002/internal/repository"
	"github.com/snehachy12/campus-event-system-sub002/internal/service"
)

// Container holds every wired component of the service
type Container struct {
	Config *config.Config

	PgPool      *pgxpool.Pool
	RedisClient *redis.Client
	Producer    *kafka.Producer

	Catalog  catalog.ResourceCatalog
	Repo     repository.ReservationRepository
	Guard    repository.CapacityGuard
	Gateway  gateway.PaymentGateway
	Notifier service.Notifier

	ReservationService    *service.ReservationService
	ReconciliationService *service.ReconciliationService

	ReservationHandler *handler.ReservationHandler
	PaymentHandler     *handler.PaymentHandler
	HealthHandler      *handler.HealthHandler
}

// NewContainer builds the dependency graph from configuration
func NewContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	c := &Container{Config: cfg}
	log := logger.Get()

	if cfg.Store.Backend == "postgres" {
		poolCfg, err := pgxpool.ParseConfig(cfg.Database.DSN())
		if err != nil {
			return nil, fmt.Errorf("parsing database config: %w", err)
		}
		poolCfg.MaxConns = int32(cfg.Database.MaxConns)
		poolCfg.MinConns = int32(cfg.Database.MinConns)
		poolCfg.MaxConnLifetime = cfg.Database.ConnMaxLifetime
		poolCfg.MaxConnIdleTime = cfg.Database.ConnMaxIdleTime

		pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
		if err != nil {
			return nil, fmt.Errorf("connecting to postgres: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			return nil, fmt.Errorf("pinging postgres: %w", err)
		}
		c.PgPool = pool
		c.Repo = repository.NewPostgresReservationRepository(pool)
		log.Info("postgres reservation store ready", zap.String("host", cfg.Database.Host))
	} else {
		c.Repo = repository.NewMemoryReservationRepository()
		log.Info("in-memory reservation store ready")
	}

	needsRedis := cfg.Store.CapacityBackend == "redis"
	if needsRedis {
		client := redis.NewClient(&redis.Options{
			Addr:         cfg.Redis.Addr(),
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("pinging redis: %w", err)
		}
		c.RedisClient = client
		c.Guard = repository.NewRedisCapacityGuard(client)
		log.Info("redis capacity guard ready", zap.String("addr", cfg.Redis.Addr()))
	} else {
		c.Guard = repository.NewMemoryCapacityGuard()
		log.Info("in-memory capacity guard ready")
	}

	mem := catalog.NewMemoryCatalog()
	seedDevCatalog(mem)
	if c.RedisClient != nil {
		c.Catalog = catalog.NewCachedCatalog(mem, c.RedisClient, 0)
	} else {
		c.Catalog = mem
	}

	gw, err := gateway.NewGateway(&cfg.Gateway)
	if err != nil {
		return nil, fmt.Errorf("building payment gateway: %w", err)
	}
	c.Gateway = gw
	log.Info("payment gateway ready", zap.String("provider", gw.Name()))

	c.Notifier = service.NoOpNotifier{}
	if cfg.Kafka.Enabled {
		producer, err := kafka.NewProducer(&cfg.Kafka)
		if err != nil {
			// Notifications are fire-and-forget, a missing broker must
			// not keep the service down
			log.Warn("kafka unavailable, notifications disabled", zap.Error(err))
		} else {
			c.Producer = producer
			c.Notifier = service.NewKafkaNotifier(producer)
			log.Info("kafka notifier ready", zap.Strings("brokers", cfg.Kafka.Brokers))
		}
	}

	c.ReservationService = service.NewReservationService(c.Repo, c.Guard, c.Catalog, c.Gateway, c.Notifier)
	c.ReconciliationService = service.NewReconciliationService(c.Repo, c.Guard, c.Notifier, cfg.Gateway.WebhookSecret)

	c.ReservationHandler = handler.NewReservationHandler(c.ReservationService)
	c.PaymentHandler = handler.NewPaymentHandler(c.ReconciliationService)
	c.HealthHandler = handler.NewHealthHandler(cfg.App.Version, c.readinessChecks())

	return c, nil
}

func (c *Container) readinessChecks() map[string]func(context.Context) error {
	checks := map[string]func(context.Context) error{}
	if c.PgPool != nil {
		checks["postgres"] = c.PgPool.Ping
	}
	if c.RedisClient != nil {
		checks["redis"] = func(ctx context.Context) error {
			return c.RedisClient.Ping(ctx).Err()
		}
	}
	return checks
}

// Close releases external connections in reverse dependency order
func (c *Container) Close(ctx context.Context) {
	if c.Producer != nil {
		c.Producer.Close(ctx)
	}
	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			logger.Get().Warn("closing redis failed", zap.Error(err))
		}
	}
	if c.PgPool != nil {
		c.PgPool.Close()
	}
}

// seedDevCatalog registers the fixture resources the portal's booking
// flows exercise in development. Production catalogs live in the
// catalog service, outside this core.
func seedDevCatalog(mem *catalog.MemoryCatalog) {
	mem.Seed(&domain.Resource{
		ID: "venue-auditorium", Type: domain.ResourceVenue, Name: "Main Auditorium",
		Capacity: 1, UnitPrice: 500000, Currency: "INR", RequiresApproval: true,
	})
	mem.Seed(&domain.Resource{
		ID: "venue-seminar-a", Type: domain.ResourceVenue, Name: "Seminar Hall A",
		Capacity: 4, UnitPrice: 150000, Currency: "INR", RequiresApproval: true,
	})
	mem.Seed(&domain.Resource{
		ID: "event-techfest", Type: domain.ResourceEventTicket, Name: "Tech Fest 2026",
		Capacity: 500, UnitPrice: 50000, Currency: "INR", RequiresApproval: true,
	})
	mem.Seed(&domain.Resource{
		ID: "food-thali", Type: domain.ResourceFoodOrder, Name: "Lunch Thali",
		Capacity: 200, UnitPrice: 8000, Currency: "INR", RequiresApproval: false,
	})
	mem.Seed(&domain.Resource{
		ID: "food-water", Type: domain.ResourceFoodOrder, Name: "Water Bottle",
		Capacity: 1000, UnitPrice: 0, Currency: "INR", RequiresApproval: false,
	})
}
