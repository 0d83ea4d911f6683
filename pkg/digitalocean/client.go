package digitalocean

import (
	"context"
	"fmt"

	"github.com/digitalocean/godo"
)

// Balance is the hosting account state shown to admins.
type Balance struct {
	MonthToDateBalance string
	AccountBalance     string
	MonthToDateUsage   string
}

type client struct {
	api *godo.Client
}

func NewClient(token string) *client {
	return &client{api: godo.NewFromToken(token)}
}

func (c *client) Balance(ctx context.Context) (Balance, error) {
	b, _, err := c.api.Balance.Get(ctx)
	if err != nil {
		return Balance{}, fmt.Errorf("fetching balance: %w", err)
	}

	return Balance{
		MonthToDateBalance: b.MonthToDateBalance,
		AccountBalance:     b.AccountBalance,
		MonthToDateUsage:   b.MonthToDateUsage,
	}, nil
}
