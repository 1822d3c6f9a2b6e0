package internaldefs

import (
	reporterAuth "github.com/MrEthical07/reporterAuth"
)

// Def names one engine metric.
type Def struct {
	ID   reporterAuth.MetricID
	Name string
	Help string
}

// BucketCount matches the engine's latency histogram.
const BucketCount = 8

// Counters lists every exported counter in output order.
var Counters = []Def{
	{reporterAuth.MetricRegisterSuccess, "reporterauth_register_success_total", "Accounts created through self-registration."},
	{reporterAuth.MetricRegisterDuplicate, "reporterauth_register_duplicate_total", "Registrations rejected for an existing email."},
	{reporterAuth.MetricRegisterRateLimited, "reporterauth_register_rate_limited_total", "Registrations denied by the per-address limiter."},
	{reporterAuth.MetricEmailVerificationSuccess, "reporterauth_email_verification_success_total", "Emails confirmed with a valid code."},
	{reporterAuth.MetricEmailVerificationFailure, "reporterauth_email_verification_failure_total", "Rejected email confirmation codes."},
	{reporterAuth.MetricLoginSuccess, "reporterauth_login_success_total", "Password checks that issued a login code."},
	{reporterAuth.MetricLoginFailure, "reporterauth_login_failure_total", "Failed password-stage logins."},
	{reporterAuth.MetricLoginRateLimited, "reporterauth_login_rate_limited_total", "Logins denied by the login limiter."},
	{reporterAuth.MetricLoginOTPSuccess, "reporterauth_login_otp_success_total", "Login codes accepted."},
	{reporterAuth.MetricLoginOTPFailure, "reporterauth_login_otp_failure_total", "Login codes rejected."},
	{reporterAuth.MetricOTPConfirmRateLimited, "reporterauth_otp_confirm_rate_limited_total", "Code confirmations denied by the attempt limiter."},
	{reporterAuth.MetricSessionCreated, "reporterauth_session_created_total", "Session tokens issued."},
	{reporterAuth.MetricAuthenticateFailure, "reporterauth_authenticate_failure_total", "Session tokens rejected."},
	{reporterAuth.MetricSessionRevoked, "reporterauth_session_revoked_total", "Session tokens added to the deny-list."},
	{reporterAuth.MetricForbidden, "reporterauth_forbidden_total", "Requests denied for insufficient role."},
	{reporterAuth.MetricLogout, "reporterauth_logout_total", "Logouts."},
	{reporterAuth.MetricPasswordChangeSuccess, "reporterauth_password_change_success_total", "Password changes."},
	{reporterAuth.MetricPasswordChangeInvalidOld, "reporterauth_password_change_invalid_old_total", "Password changes with a wrong current password."},
	{reporterAuth.MetricPasswordChangeReuseRejected, "reporterauth_password_change_reuse_rejected_total", "Password changes rejected for reuse."},
	{reporterAuth.MetricPasswordHashUpgraded, "reporterauth_password_hash_upgraded_total", "Stored hashes rewritten at current cost."},
	{reporterAuth.MetricMailSent, "reporterauth_mail_sent_total", "Code emails delivered."},
	{reporterAuth.MetricMailFailed, "reporterauth_mail_failed_total", "Code emails that failed to send."},
	{reporterAuth.MetricAccountUpdated, "reporterauth_account_updated_total", "Profile and admin account updates."},
	{reporterAuth.MetricAccountDeleted, "reporterauth_account_deleted_total", "Accounts deleted by an admin."},
	{reporterAuth.MetricRateLimitHit, "reporterauth_rate_limit_hit_total", "Limiter checks that denied a request."},
}

// AuthenticateLatency is the only histogram.
var AuthenticateLatency = Def{
	reporterAuth.MetricAuthenticateLatency,
	"reporterauth_authenticate_latency_seconds",
	"Session token verification latency.",
}

// AuditDropped counts events the audit dispatcher discarded.
var AuditDropped = Def{Name: "reporterauth_audit_dropped_total", Help: "Audit events dropped under backpressure."}

// Bounds are the upper bucket edges in seconds; BoundSuffix is the same list
// made safe for instrument names.
var (
	Bounds      = [BucketCount]string{"0.005", "0.01", "0.025", "0.05", "0.1", "0.25", "0.5", "+Inf"}
	BoundSuffix = [BucketCount]string{"0_005", "0_01", "0_025", "0_05", "0_1", "0_25", "0_5", "inf"}
)

// Cumulative turns the engine's per-bucket counts into running totals.
// Short or missing input is padded with zeros.
func Cumulative(raw []uint64) [BucketCount]uint64 {
	var out [BucketCount]uint64
	var running uint64
	for i := range out {
		if i < len(raw) {
			running += raw[i]
		}
		out[i] = running
	}
	return out
}
