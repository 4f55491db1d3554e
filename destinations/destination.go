package destinations

import (
	"context"

	"github.com/zenodo/rdm-migrator/actions/entities"
)

// Destination is the load sink. Each bundle must be applied all-or-nothing.
type Destination interface {
	Write(ctx context.Context, bundles []*entities.Bundle) error
	Close() error
}
