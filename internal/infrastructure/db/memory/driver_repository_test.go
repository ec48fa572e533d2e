package memory

import (
	"testing"

	"github.com/fretemais/driver-directory/internal/core/ports"
	"github.com/fretemais/driver-directory/internal/infrastructure/db/contracttest"
)

func TestDriverRepository_Contract(t *testing.T) {
	contracttest.Run(t, func(t *testing.T) ports.DriverRepository {
		return NewDriverRepository()
	})
}
