// Package domain defines the core business entities for Sharewatch.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - ScanRun: One audit pass over the tenant
//   - Site: A personal or team storage location
//   - File: A drive item (file or folder) observed during a scan
//   - Principal: A user, group, or link placeholder a file is shared with
//   - SharingGrant: One active permission grant from a File to a Principal
//   - Permission: The provider's raw permission shape, modelled as a
//     tagged union so classification can branch exhaustively
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
