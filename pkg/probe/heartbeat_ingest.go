package probe

import (
	"context"
	"fmt"
	"time"

	"github.com/m00npl/guardant/pkg/domain"
	"github.com/m00npl/guardant/pkg/store"
)

// RecordHeartbeat is the narrow write path an external heartbeat ingestion
// endpoint is expected to call: it updates a service's LastHeartbeat field
// through the Tenant Data Store so the heartbeat executor's next check
// sees it.
func RecordHeartbeat(ctx context.Context, st store.Store, nestID, serviceID string, at time.Time) error {
	var svc domain.NestService
	key := domain.NestService{ID: serviceID}.ConfigurationKey()

	if err := st.Get(ctx, nestID, store.DataTypeConfiguration, key, &svc); err != nil {
		return fmt.Errorf("loading service %s for heartbeat update: %w", serviceID, err)
	}

	svc.LastHeartbeat = at
	if err := st.Put(ctx, nestID, store.DataTypeConfiguration, key, svc); err != nil {
		return fmt.Errorf("persisting heartbeat for service %s: %w", serviceID, err)
	}
	return nil
}
