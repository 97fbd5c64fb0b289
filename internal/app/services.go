package app

import (
	"gorm.io/gorm"

	dataagg "github.com/yungbote/contracts-backend/internal/data/aggregates"
	domainagg "github.com/yungbote/contracts-backend/internal/domain/aggregates"
	"github.com/yungbote/contracts-backend/internal/observability"
	"github.com/yungbote/contracts-backend/internal/pkg/logger"
	"github.com/yungbote/contracts-backend/internal/services"
)

type Services struct {
	Contracts domainagg.ContractAggregate

	Contract services.ContractService
	Product  services.ProductService
}

func wireServices(db *gorm.DB, log *logger.Logger, repos Repos, clients Clients, metrics *observability.Metrics) Services {
	log.Info("Wiring services...")

	contracts := dataagg.NewContractAggregate(dataagg.ContractAggregateDeps{
		Base: dataagg.BaseDeps{
			DB:    db,
			Log:   log,
			Hooks: dataagg.NewObservabilityHooks(metrics),
		},
		Contracts:   repos.Contract,
		Deliveries:  repos.Delivery,
		LineItems:   repos.LineItem,
		Assignments: repos.DeliveryLineItem,
		Products:    repos.Product,
	})

	return Services{
		Contracts: contracts,
		Contract:  services.NewContractService(log, contracts, repos.Contract),
		Product:   services.NewProductService(db, log, repos.Product, clients.ProductCache, metrics),
	}
}
