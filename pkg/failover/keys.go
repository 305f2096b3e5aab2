package failover

import "github.com/m00npl/guardant/pkg/store"

func endpointKey(id string) string { return "endpoint:" + id }
func ruleKey(id string) string     { return "rule:" + id }
func eventKey(id string) string    { return "event:" + id }

// namespace is the reserved system nestId failover state lives under; it
// is never addressable by a tenant-scoped Get/ListByType call.
const namespace = store.SystemNamespace

// dataType is the Tenant Data Store category for all failover state.
const dataType = store.DataTypeFailoverConfig
