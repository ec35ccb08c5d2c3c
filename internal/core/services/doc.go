// Package services contains the application use cases: scan
// orchestration over personal drives and team sites, deduplication of
// sharing records, report generation, the per-owner dashboard views,
// and sharing remediation. Services depend only on the driven ports
// and are exposed to adapters through the driving interfaces.
package services
