package mail

import (
	"context"
	"log/slog"

	reporterAuth "github.com/MrEthical07/reporterAuth"
)

// LogSender logs OTP messages instead of sending them.
type LogSender struct {
	logger *slog.Logger
}

func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) SendOTP(ctx context.Context, msg reporterAuth.OTPMessage) error {
	s.logger.InfoContext(ctx, "otp email",
		slog.String("to", msg.To),
		slog.String("subject", Subject(msg.Purpose)),
		slog.String("code", msg.Code),
		slog.Duration("expires_in", msg.ExpiresIn))
	return nil
}
