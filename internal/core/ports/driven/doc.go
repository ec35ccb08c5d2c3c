// Package driven defines the outbound ports of the hexagonal
// architecture: the contracts the core needs from infrastructure.
//
// Adapters under internal/adapters/driven implement these interfaces:
// the Microsoft Graph client implements DirectoryService and
// PermissionRemover, the SQLite store implements GraphStore, and the
// export writers implement ReportWriter. The core services depend only
// on the interfaces, never on the adapters.
package driven
