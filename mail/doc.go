// Package mail delivers OTP emails for [reporterAuth.Engine].
//
// [SMTPSender] speaks SMTP directly (STARTTLS when offered, PLAIN auth when
// credentials are set) and honours the context deadline for the whole
// exchange. [LogSender] writes the message to a logger instead and is meant
// for local development only: it logs the code.
package mail
