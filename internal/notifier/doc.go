// Package notifier delivers alert emails.
//
// Dispatcher sends one message through a Transport with up to six attempts.
// Authentication failures, rejected recipients and malformed messages are
// terminal and stop the loop at once; every other failure is retried after
// the configured email_retry_delay, capped by the waittime policy. Before
// each wait a TCP reachability probe is logged to help tell a network outage
// from an SMTP problem.
//
// SMTP is the production Transport, built on github.com/wneessen/go-mail.
package notifier
