// Package store implements the Tenant Data Store: the single namespaced,
// typed key/value abstraction that every other component persists through.
package store

// DataType discriminates the logical category of a stored value. It is part
// of the storage key, alongside nestId and the caller-chosen key.
type DataType string

const (
	// DataTypeConfiguration holds NestService rows (key "service:{id}") and
	// any other tenant-facing configuration.
	DataTypeConfiguration DataType = "CONFIGURATION"

	// DataTypeMonitoringData holds ProbeResult rows (key "check:{serviceId}:{timestamp}").
	DataTypeMonitoringData DataType = "MONITORING_DATA"

	// DataTypeSLAData holds SLATarget and SLAMeasurement rows.
	DataTypeSLAData DataType = "SLA_DATA"

	// DataTypeFailoverConfig holds FailoverRule, ServiceEndpoint, and
	// FailoverEvent rows, under the reserved "system" namespace.
	DataTypeFailoverConfig DataType = "FAILOVER_CONFIG"

	// DataTypeAuditLog holds engine-initiated audit entries; ambient, not
	// part of the core monitored-service data model.
	DataTypeAuditLog DataType = "AUDIT_LOG"
)

// SystemNamespace is the reserved nestId under which failover endpoints and
// other cross-tenant infrastructure state are stored. It is never returned
// to a tenant-scoped ListByType/Get call made with a real nestId.
const SystemNamespace = "system"
