package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTradeAction(t *testing.T) {
	for _, valid := range []string{"BUY", "SELL", "STOP_LOSS", "TAKE_PROFIT", "REBALANCE", "LIQUIDATION"} {
		action, err := ParseTradeAction(valid)
		require.NoError(t, err, valid)
		assert.Equal(t, TradeAction(valid), action)
	}
}

func TestParseTradeActionUnknown(t *testing.T) {
	for _, bad := range []string{"", "sell", "SHORT", "HOLD"} {
		_, err := ParseTradeAction(bad)
		assert.ErrorIs(t, err, ErrUnknownAction, "%q", bad)
	}
}

func TestIsSellingLike(t *testing.T) {
	assert.True(t, ActionSell.IsSellingLike())
	assert.True(t, ActionStopLoss.IsSellingLike())
	assert.True(t, ActionTakeProfit.IsSellingLike())
	assert.False(t, ActionBuy.IsSellingLike())
	assert.False(t, ActionRebalance.IsSellingLike())
	assert.False(t, ActionLiquidation.IsSellingLike())
}
