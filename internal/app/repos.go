package app

import (
	"gorm.io/gorm"

	salesrepo "github.com/yungbote/contracts-backend/internal/data/repos/sales"
	"github.com/yungbote/contracts-backend/internal/pkg/logger"
)

type Repos struct {
	Contract         salesrepo.ContractRepo
	Delivery         salesrepo.DeliveryRepo
	LineItem         salesrepo.LineItemRepo
	DeliveryLineItem salesrepo.DeliveryLineItemRepo
	Product          salesrepo.ProductRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Contract:         salesrepo.NewContractRepo(db, log),
		Delivery:         salesrepo.NewDeliveryRepo(db, log),
		LineItem:         salesrepo.NewLineItemRepo(db, log),
		DeliveryLineItem: salesrepo.NewDeliveryLineItemRepo(db, log),
		Product:          salesrepo.NewProductRepo(db, log),
	}
}
