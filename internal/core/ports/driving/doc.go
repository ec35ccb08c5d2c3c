// Package driving defines the inbound ports of the hexagonal
// architecture: the use cases the CLI and the dashboard invoke on the
// core. Services under internal/core/services implement these
// interfaces.
package driving
