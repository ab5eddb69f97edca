package interfaces

import (
	"context"
	"x402_gateway/internal/domain/entities"
)

type ISettlementEventPublisher interface {
	PublishSettlementFinalized(ctx context.Context, s entities.Settlement) error
}
