package customer

import (
	"github.com/milkbook/milkbook/internal/customer/repository"
	"github.com/milkbook/milkbook/internal/customer/service"
	"go.uber.org/fx"
)

var Module = fx.Module("customer.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
