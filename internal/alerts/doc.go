// Package alerts decides when host resources are unhealthy and whether an
// email should go out for them.
//
// Evaluate compares one probe reading against its configured limit.
// Tracker remembers when each (device, resource) pair last alerted and
// suppresses repeats inside the cooldown window. Engine runs one full check
// cycle: it samples every resource, evaluates each, and hands unhealthy ones
// that are out of cooldown to a Notifier.
package alerts
