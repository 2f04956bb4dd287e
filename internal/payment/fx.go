package payment

import (
	"github.com/smallbiznis/scholaris/internal/config"
	paymentdomain "github.com/smallbiznis/scholaris/internal/payment/domain"
	"github.com/smallbiznis/scholaris/internal/payment/paystack"
	"go.uber.org/fx"
)

var Module = fx.Module("payment",
	fx.Provide(NewGateway),
)

func NewGateway(cfg config.Config) paymentdomain.Gateway {
	return paystack.New(cfg.Paystack)
}
