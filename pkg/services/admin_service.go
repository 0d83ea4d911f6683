package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/samber/lo"

	"github.com/dskvich/nyay-sahayak-bot/pkg/digitalocean"
	"github.com/dskvich/nyay-sahayak-bot/pkg/domain"
	"github.com/dskvich/nyay-sahayak-bot/pkg/logger"
)

type BalanceProvider interface {
	Balance(ctx context.Context) (digitalocean.Balance, error)
}

type adminService struct {
	provider  BalanceProvider
	adminIDs  []int64
	responder Responder
}

// NewAdminService serves admin commands. A nil provider disables them.
func NewAdminService(provider BalanceProvider, adminIDs []int64, responder Responder) *adminService {
	return &adminService{
		provider:  provider,
		adminIDs:  adminIDs,
		responder: responder,
	}
}

func (a *adminService) IsAdmin(userID int64) bool {
	return lo.Contains(a.adminIDs, userID)
}

func (a *adminService) ShowBalance(ctx context.Context, chatID, userID int64) {
	if a.provider == nil || !a.IsAdmin(userID) {
		slog.WarnContext(ctx, "Balance requested without admin rights")
		a.responder.SendResponse(ctx, &domain.Response{ChatID: chatID, Text: unknownCommandText})
		return
	}

	b, err := a.provider.Balance(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "Fetching balance failed", logger.Err(err))
		a.responder.SendResponse(ctx, &domain.Response{ChatID: chatID, Err: err})
		return
	}

	a.responder.SendResponse(ctx, &domain.Response{
		ChatID: chatID,
		Text: fmt.Sprintf("💰 Hosting balance\n\nMonth-to-date balance: $%s\nMonth-to-date usage: $%s\nAccount balance: $%s",
			b.MonthToDateBalance, b.MonthToDateUsage, b.AccountBalance),
	})
}
