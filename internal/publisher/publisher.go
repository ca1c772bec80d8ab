package publisher

import (
	"context"

	"priceharvester/internal/models"
)

// Publisher announces finished harvest runs to downstream consumers
type Publisher interface {
	// Publish sends one run
	Publish(ctx context.Context, run models.HarvestRun) error

	// Close closes the publisher connection
	Close() error
}
