package reporterAuth

import (
	"errors"
	"log/slog"
	"time"

	"github.com/MrEthical07/reporterAuth/internal/audit"
	"github.com/MrEthical07/reporterAuth/internal/rate"
	"github.com/MrEthical07/reporterAuth/jwt"
	"github.com/MrEthical07/reporterAuth/password"
	"github.com/MrEthical07/reporterAuth/permission"
	"github.com/MrEthical07/reporterAuth/session"
	"github.com/redis/go-redis/v9"
)

const (
	loginLimitPrefix    = "rl:login:"
	registerLimitPrefix = "rl:reg:"
	confirmLimitPrefix  = "rl:otp:"
)

// Builder assembles an [Engine]. A builder can be used once.
type Builder struct {
	config Config
	redis  redis.UniversalClient

	store     UserStore
	mailer    Mailer
	auditSink AuditSink
	logger    *slog.Logger

	built bool
}

// New starts a builder with [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis backs the rate limiters (and the optional token deny-list) with
// Redis. Without it counters are kept in process memory.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

func (b *Builder) WithUserStore(store UserStore) *Builder {
	b.store = store
	return b
}

func (b *Builder) WithMailer(m Mailer) *Builder {
	b.mailer = m
	return b
}

func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

func (b *Builder) WithLogger(l *slog.Logger) *Builder {
	b.logger = l
	return b
}

// Build validates the configuration and wires the engine.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if b.store == nil {
		return nil, errors.New("user store required")
	}
	if b.mailer == nil {
		return nil, errors.New("mailer required")
	}
	if cfg.Session.RevokeOnLogout && b.redis == nil {
		return nil, errors.New("RevokeOnLogout requires redis client")
	}

	logger := b.logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	engine := &Engine{
		config: cfg,
		store:  b.store,
		mailer: b.mailer,
		roles:  permission.DefaultRoles(),
		logger: logger,
		now:    time.Now,
		policy: password.Policy{
			MinLength:     cfg.Password.MinLength,
			MaxLength:     cfg.Password.MaxLength,
			RequireUpper:  true,
			RequireLower:  true,
			RequireDigit:  true,
			RequireSymbol: true,
		},
	}

	// -------- RATE LIMITERS --------
	var counter rate.Counter
	if b.redis != nil {
		counter = rate.NewRedisCounter(b.redis)
	} else {
		counter = rate.NewMemoryCounter()
	}
	engine.loginLimiter = rate.New(counter, rate.Policy{
		Prefix:      loginLimitPrefix,
		MaxAttempts: cfg.RateLimit.LoginMaxAttempts,
		Window:      cfg.RateLimit.LoginWindow,
	})
	engine.registerLimiter = rate.New(counter, rate.Policy{
		Prefix:      registerLimitPrefix,
		MaxAttempts: cfg.RateLimit.RegisterMaxAttempts,
		Window:      cfg.RateLimit.RegisterWindow,
	})
	engine.confirmLimiter = rate.New(counter, rate.Policy{
		Prefix:      confirmLimitPrefix,
		MaxAttempts: cfg.OTP.MaxConfirmAttempts,
		Window:      cfg.OTP.ConfirmWindow,
	})

	if cfg.Session.RevokeOnLogout {
		engine.denyList = session.NewDenyList(b.redis, cfg.Session.DenyListPrefix)
	}

	engine.audit = audit.NewDispatcher(audit.Config{
		Enabled:    cfg.Audit.Enabled,
		BufferSize: cfg.Audit.BufferSize,
		DropIfFull: cfg.Audit.DropIfFull,
	}, b.auditSink)
	engine.metrics = NewMetrics(cfg.Metrics)

	hasher, err := password.NewHasher(password.Config{
		Memory:      cfg.Password.Memory,
		Time:        cfg.Password.Time,
		Parallelism: cfg.Password.Parallelism,
		SaltLength:  cfg.Password.SaltLength,
		KeyLength:   cfg.Password.KeyLength,
	})
	if err != nil {
		return nil, err
	}
	engine.hasher = hasher

	jm, err := jwt.NewManager(jwt.Config{
		TTL:           cfg.Session.TTL,
		SigningMethod: jwt.SigningMethod(cfg.Session.SigningMethod),
		PrivateKey:    cloneBytes(cfg.Session.SigningKey),
		PublicKey:     cloneBytes(cfg.Session.PublicKey),
		Issuer:        cfg.Session.Issuer,
		Audience:      cfg.Session.Audience,
	})
	if err != nil {
		return nil, err
	}
	engine.jwtManager = jm

	b.built = true

	return engine, nil
}
