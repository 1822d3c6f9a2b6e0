package reporterAuth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/MrEthical07/reporterAuth/internal/audit"
	"github.com/MrEthical07/reporterAuth/internal/otp"
	"github.com/MrEthical07/reporterAuth/internal/rate"
	"github.com/MrEthical07/reporterAuth/jwt"
	"github.com/MrEthical07/reporterAuth/password"
	"github.com/MrEthical07/reporterAuth/permission"
	"github.com/MrEthical07/reporterAuth/session"
)

// Engine runs registration, two-stage login, session validation, password
// changes and admin account management. Build one with [New].
//
// Engine is safe for concurrent use. Call [Engine.Close] on shutdown so pending
// emails and audit events are flushed.
type Engine struct {
	config          Config
	store           UserStore
	mailer          Mailer
	hasher          *password.Hasher
	policy          password.Policy
	jwtManager      *jwt.Manager
	roles           *permission.RoleManager
	denyList        *session.DenyList
	loginLimiter    *rate.Limiter
	registerLimiter *rate.Limiter
	confirmLimiter  *rate.Limiter
	audit           *audit.Dispatcher
	metrics         *Metrics
	logger          *slog.Logger
	now             func() time.Time

	mailWG sync.WaitGroup
}

// Close waits for in-flight OTP emails and drains the audit dispatcher.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	e.mailWG.Wait()
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped reports audit events lost to a full dispatcher buffer.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) ready() error {
	if e == nil || e.store == nil || e.hasher == nil || e.jwtManager == nil {
		return ErrEngineNotReady
	}
	return nil
}

// checkLimit counts one attempt against l. Backend failures deny the attempt.
func (e *Engine) checkLimit(ctx context.Context, l *rate.Limiter, scope, key string) error {
	if l == nil || !l.Enabled() || key == "" {
		return nil
	}
	err := l.Allow(ctx, key)
	if err == nil {
		return nil
	}
	if errors.Is(err, rate.ErrUnavailable) {
		e.logger.ErrorContext(ctx, "rate limiter unavailable", slog.String("scope", scope), slog.Any("error", err))
	}
	e.emitRateLimit(ctx, scope, key)
	return ErrRateLimited
}

// newOTP returns a fresh code and the challenge to store for it.
func (e *Engine) newOTP() (string, OTPChallenge, error) {
	code, err := otp.Generate(e.config.OTP.Digits)
	if err != nil {
		return "", OTPChallenge{}, err
	}
	return code, OTPChallenge{
		Digest:    otp.Digest(code),
		ExpiresAt: e.now().Add(e.config.OTP.TTL),
	}, nil
}

// consumeOTP checks code against c under the store's record update. An expired
// challenge is cleared and reported through expired so the caller can persist
// the clearing and still fail.
func (e *Engine) consumeOTP(c *OTPChallenge, code string, expired *bool) error {
	if !c.Active() {
		return ErrInvalidOrExpiredOTP
	}
	if c.Expired(e.now()) {
		*c = OTPChallenge{}
		*expired = true
		return nil
	}
	if !otp.WellFormed(code, e.config.OTP.Digits) || !otp.Matches(c.Digest, code) {
		return ErrInvalidOrExpiredOTP
	}
	*c = OTPChallenge{}
	return nil
}

// dispatchOTP sends msg on its own goroutine and waits at most
// Config.Mail.DispatchWait for the outcome. A send that outlives the wait keeps
// running until SendTimeout; its failure is only logged.
func (e *Engine) dispatchOTP(ctx context.Context, msg OTPMessage) error {
	if e.mailer == nil {
		return fmt.Errorf("%w: no mailer configured", ErrDelivery)
	}

	result := make(chan error, 1)
	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.config.Mail.SendTimeout)

	e.mailWG.Add(1)
	go func() {
		defer e.mailWG.Done()
		defer cancel()
		err := e.mailer.SendOTP(sendCtx, msg)
		if err != nil {
			e.metricInc(MetricMailFailed)
		} else {
			e.metricInc(MetricMailSent)
		}
		result <- err
	}()

	timer := time.NewTimer(e.config.Mail.DispatchWait)
	defer timer.Stop()

	select {
	case err := <-result:
		if err != nil {
			e.logger.ErrorContext(ctx, "otp email failed",
				slog.String("purpose", string(msg.Purpose)),
				slog.Any("error", err))
			return fmt.Errorf("%w: %v", ErrDelivery, err)
		}
		return nil
	case <-timer.C:
	case <-ctx.Done():
	}

	e.mailWG.Add(1)
	go func() {
		defer e.mailWG.Done()
		if err := <-result; err != nil {
			e.logger.Error("otp email failed after response",
				slog.String("purpose", string(msg.Purpose)),
				slog.Any("error", err))
		}
	}()
	return nil
}
