// Package cli defines the hostwatch command tree.
//
//	hostwatch run         monitor until interrupted
//	hostwatch check       run one check cycle, exit 1 when unhealthy
//	hostwatch test-alert  send the startup test email and exit
//
// Every command reads --config (default config.yaml) and loads a .env file
// from the working directory when one exists.
package cli
