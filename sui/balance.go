package sui

import (
	"context"
	"fmt"

	"github.com/AlexZinkM/hoh-vault/internal/client"
	"github.com/AlexZinkM/hoh-vault/internal/common"
	"github.com/AlexZinkM/hoh-vault/internal/model"
)

// Chain is the part of the fullnode client the wallet pages read from.
type Chain interface {
	GetBalance(ctx context.Context, owner, coinType string) (*client.Balance, error)
	GetCoins(ctx context.Context, owner, coinType string, cursor *string, limit uint) (*client.CoinPage, error)
	GetCoinMetadata(ctx context.Context, coinType string) (*client.CoinMetadata, error)
	ResolveNameServiceAddress(ctx context.Context, name string) (string, error)
}

// GetBalance gets the balance of coinType (SUI when empty) for address
func GetBalance(ctx context.Context, chain Chain, address, coinType string) (*model.BalanceResponse, error) {
	if coinType == "" {
		coinType = client.SUICoinType
	}

	balance, err := chain.GetBalance(ctx, address, coinType)
	if err != nil {
		return nil, fmt.Errorf("failed to get balance: %w", err)
	}

	decimals, symbol, err := coinDisplay(ctx, chain, coinType)
	if err != nil {
		return nil, err
	}

	// Convert to display string (no float precision loss)
	formatted, err := common.FormatUnits(balance.TotalBalance, decimals)
	if err != nil {
		return nil, err
	}

	return &model.BalanceResponse{
		Address:         address,
		CoinType:        coinType,
		Symbol:          symbol,
		Balance:         balance.TotalBalance,
		Formatted:       formatted,
		Decimals:        decimals,
		CoinObjectCount: balance.CoinObjectCount,
	}, nil
}

// GetCoins lists one page of coin objects of coinType owned by address
func GetCoins(ctx context.Context, chain Chain, address, coinType string, cursor *string, limit uint) (*model.CoinsResponse, error) {
	if coinType == "" {
		coinType = client.SUICoinType
	}

	page, err := chain.GetCoins(ctx, address, coinType, cursor, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get coins: %w", err)
	}

	decimals, _, err := coinDisplay(ctx, chain, coinType)
	if err != nil {
		return nil, err
	}

	coins := make([]model.Coin, 0, len(page.Data))
	for _, c := range page.Data {
		formatted, err := common.FormatUnits(c.Balance, decimals)
		if err != nil {
			return nil, err
		}
		coins = append(coins, model.Coin{
			ID:        c.CoinObjectID,
			Balance:   c.Balance,
			Formatted: formatted,
		})
	}

	return &model.CoinsResponse{
		Address:     address,
		CoinType:    coinType,
		Coins:       coins,
		NextCursor:  page.NextCursor,
		HasNextPage: page.HasNextPage,
	}, nil
}

// coinDisplay returns decimals and symbol of coinType. SUI needs no lookup.
func coinDisplay(ctx context.Context, chain Chain, coinType string) (int, string, error) {
	if coinType == client.SUICoinType {
		return common.SUIDecimals, "SUI", nil
	}

	meta, err := chain.GetCoinMetadata(ctx, coinType)
	if err != nil {
		return 0, "", fmt.Errorf("failed to get coin metadata: %w", err)
	}
	return meta.Decimals, meta.Symbol, nil
}
