package matchengine

import (
	"go.uber.org/zap"

	"github.com/marketsim/venue/pkg/protocol"
	"github.com/marketsim/venue/pkg/types"
)

// uncross clears an auction book at a single price on phase exit (§4.3
// "on phase exit an uncrossing is performed"): the clearing price is
// chosen by maximum executed volume, then minimum surplus, then price
// closest to the last trade, with ties broken toward the lower price.
func (e *Engine) uncross(now types.Timestamp) []protocol.ExecutionReport {
	candidates := e.clearingCandidates()
	if len(candidates) == 0 {
		return nil
	}

	clearing, volume := e.bestClearingPrice(candidates)
	if volume.IsZero() {
		return nil
	}

	return e.executeAuctionFills(clearing, volume, now)
}

// clearingCandidates returns every distinct price appearing on either side
// of the book, since the clearing price is always one of them.
func (e *Engine) clearingCandidates() []types.Price {
	seen := make(map[string]types.Price)
	for _, lvl := range e.Book.Buy.Levels() {
		seen[lvl.Price.String()] = lvl.Price
	}
	for _, lvl := range e.Book.Sell.Levels() {
		seen[lvl.Price.String()] = lvl.Price
	}
	out := make([]types.Price, 0, len(seen))
	for _, p := range seen {
		out = append(out, p)
	}
	return out
}

// demandSupplyAt returns total buy demand willing to pay at least p and
// total sell supply willing to accept at most p.
func (e *Engine) demandSupplyAt(p types.Price) (buyVolume, sellVolume types.Quantity) {
	buyVolume = types.ZeroQuantity()
	for _, lvl := range e.Book.Buy.Levels() {
		if lvl.Price.LessThan(p) {
			continue
		}
		buyVolume = buyVolume.Add(lvl.TotalQuantity())
	}
	sellVolume = types.ZeroQuantity()
	for _, lvl := range e.Book.Sell.Levels() {
		if lvl.Price.GreaterThan(p) {
			continue
		}
		sellVolume = sellVolume.Add(lvl.TotalQuantity())
	}
	return buyVolume, sellVolume
}

func (e *Engine) volumeAt(p types.Price) types.Quantity {
	buyVolume, sellVolume := e.demandSupplyAt(p)
	return buyVolume.Min(sellVolume)
}

func (e *Engine) surplusAt(p types.Price) types.Quantity {
	buyVolume, sellVolume := e.demandSupplyAt(p)
	if buyVolume.GreaterThan(sellVolume) {
		return buyVolume.Sub(sellVolume)
	}
	return sellVolume.Sub(buyVolume)
}

func priceDistance(a, b types.Price) types.Price {
	d := a.Decimal().Sub(b.Decimal()).Abs()
	return types.PriceFromDecimal(d)
}

// bestClearingPrice applies the tie-break ladder from §4.3: maximum
// executed volume, then minimum surplus, then distance to the last trade
// price, then the lower price.
func (e *Engine) bestClearingPrice(candidates []types.Price) (types.Price, types.Quantity) {
	best := candidates[0]
	bestVolume := e.volumeAt(best)
	bestSurplus := e.surplusAt(best)

	for _, c := range candidates[1:] {
		volume := e.volumeAt(c)
		surplus := e.surplusAt(c)

		switch {
		case volume.GreaterThan(bestVolume):
			best, bestVolume, bestSurplus = c, volume, surplus
		case volume.Equal(bestVolume) && surplus.LessThan(bestSurplus):
			best, bestVolume, bestSurplus = c, volume, surplus
		case volume.Equal(bestVolume) && surplus.Equal(bestSurplus):
			if e.LastTrade != nil {
				if priceDistance(c, e.LastTrade.TradePrice).LessThan(priceDistance(best, e.LastTrade.TradePrice)) {
					best, bestVolume, bestSurplus = c, volume, surplus
					continue
				}
				if !priceDistance(c, e.LastTrade.TradePrice).Equal(priceDistance(best, e.LastTrade.TradePrice)) {
					continue
				}
			}
			if c.LessThan(best) {
				best, bestVolume, bestSurplus = c, volume, surplus
			}
		}
	}
	return best, bestVolume
}

// executeAuctionFills matches buy orders (best first) against sell orders
// (best first) at the single clearing price until volume is exhausted.
// Auction trades carry no aggressor side (§3 glossary: "absent for
// book-initiated trades during auctions").
func (e *Engine) executeAuctionFills(clearing types.Price, volume types.Quantity, now types.Timestamp) []protocol.ExecutionReport {
	var reports []protocol.ExecutionReport
	remaining := volume

	for !remaining.IsZero() {
		buyOrder := e.Book.Buy.Best()
		sellOrder := e.Book.Sell.Best()
		if buyOrder == nil || sellOrder == nil {
			break
		}
		if buyOrder.OrderPrice.LessThan(clearing) || sellOrder.OrderPrice.GreaterThan(clearing) {
			break
		}

		matchQty := remaining.Min(buyOrder.Leaves()).Min(sellOrder.Leaves())
		if matchQty.IsZero() {
			break
		}

		tradeId, err := e.gens.NextTradeId()
		if err != nil {
			e.logger.Error("auction uncrossing halted: trade id generation failed", zap.Error(err))
			break
		}
		trade := types.Trade{
			TradeId:        tradeId,
			BuyerId:        buyOrder.OrderId,
			SellerId:       sellOrder.OrderId,
			InstrumentId:   e.Instrument.InstrumentId,
			TradePrice:     clearing,
			TradedQuantity: matchQty,
			AggressorSide:  types.AggressorSideUnknown,
			TradeTime:      now,
			Phase:          e.Phase,
		}

		buyOrder.CumExecutedQuantity = buyOrder.CumExecutedQuantity.Add(matchQty)
		sellOrder.CumExecutedQuantity = sellOrder.CumExecutedQuantity.Add(matchQty)
		e.updateInfo(clearing)
		e.LastTrade = &trade
		remaining = remaining.Sub(matchQty)

		if buyOrder.Leaves().IsZero() {
			buyOrder.OrderStatus = types.OrderStatusFilled
			e.Book.Remove(buyOrder.OrderId)
		} else {
			buyOrder.OrderStatus = types.OrderStatusPartiallyFilled
		}
		if sellOrder.Leaves().IsZero() {
			sellOrder.OrderStatus = types.OrderStatusFilled
			e.Book.Remove(sellOrder.OrderId)
		} else {
			sellOrder.OrderStatus = types.OrderStatusPartiallyFilled
		}

		if r, err := e.tradeReport(buyOrder, &trade, now, buyOrder.Session); err == nil {
			reports = append(reports, r)
		}
		if r, err := e.tradeReport(sellOrder, &trade, now, sellOrder.Session); err == nil {
			reports = append(reports, r)
		}
	}
	return reports
}
