package health

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"ai-calling-agent/pkg/logger"
	"ai-calling-agent/pkg/utils"

	"github.com/redis/go-redis/v9"
)

type Status string

const (
	StatusHealthy  Status = "healthy"
	StatusDegraded Status = "degraded"
)

const (
	serviceActive = "active"
	probeUp       = "up"
	probeDown     = "down"

	defaultProbeTimeout = 2 * time.Second
)

// Report is the body of GET /health.
type Report struct {
	Status    Status            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Services  map[string]string `json:"services"`
}

// Checker probes one dependency. A nil error means it is reachable.
type Checker func(ctx context.Context) error

type Config struct {
	DB           *sql.DB
	Redis        *redis.Client
	ProbeTimeout time.Duration
}

// Service reports static in-process services plus optional dependency probes.
type Service struct {
	timeout time.Duration
	clock   func() time.Time

	mu       sync.RWMutex
	checkers map[string]Checker
}

func NewService(cfg Config) *Service {
	s := &Service{
		timeout:  cfg.ProbeTimeout,
		clock:    time.Now,
		checkers: map[string]Checker{},
	}
	if s.timeout <= 0 {
		s.timeout = defaultProbeTimeout
	}

	if cfg.DB != nil {
		db := cfg.DB
		s.RegisterChecker("postgres", func(ctx context.Context) error {
			return utils.HealthCheck(ctx, db, s.timeout)
		})
	}
	if cfg.Redis != nil {
		rdb := cfg.Redis
		s.RegisterChecker("redis", func(ctx context.Context) error {
			return utils.PingRedis(ctx, rdb, s.timeout)
		})
	}
	return s
}

func (s *Service) RegisterChecker(name string, c Checker) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checkers[name] = c
}

// Check runs every registered probe concurrently. The report is degraded
// when any probe fails; the static services are always listed as active.
func (s *Service) Check(ctx context.Context) Report {
	s.mu.RLock()
	names := make([]string, 0, len(s.checkers))
	for name := range s.checkers {
		names = append(names, name)
	}
	sort.Strings(names)
	checkers := make([]Checker, len(names))
	for i, name := range names {
		checkers[i] = s.checkers[name]
	}
	s.mu.RUnlock()

	errs := make([]error, len(names))
	var wg sync.WaitGroup
	for i := range names {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			cctx, cancel := context.WithTimeout(ctx, s.timeout)
			defer cancel()
			errs[i] = checkers[i](cctx)
		}(i)
	}
	wg.Wait()

	out := Report{
		Status:    StatusHealthy,
		Timestamp: s.clock().UTC(),
		Services: map[string]string{
			"ai_service":   serviceActive,
			"call_service": serviceActive,
		},
	}
	log := logger.From(ctx)
	for i, name := range names {
		if errs[i] != nil {
			out.Status = StatusDegraded
			out.Services[name] = probeDown
			log.Warn("health probe failed", "probe", name, "err", errs[i])
			continue
		}
		out.Services[name] = probeUp
	}
	return out
}
