package services

import (
	"fmt"
	"sort"
	"strings"

	"tripgraph/domain/core/aggregates"
	"tripgraph/domain/core/entities"
	"tripgraph/domain/core/valueobjects"
)

// CostBreakdown aggregates expense amounts per currency
type CostBreakdown struct {
	// PerCurrency maps currency code to summed amount
	PerCurrency map[string]float64
}

// IsZero checks whether the breakdown holds no amounts
func (c CostBreakdown) IsZero() bool {
	return len(c.PerCurrency) == 0
}

// String renders the breakdown as a human-readable concatenation ordered
// alphabetically by currency code, e.g. "25.5 EUR + 1000 JPY".
func (c CostBreakdown) String() string {
	currencies := make([]string, 0, len(c.PerCurrency))
	for currency := range c.PerCurrency {
		currencies = append(currencies, currency)
	}
	sort.Strings(currencies)

	parts := make([]string, 0, len(currencies))
	for _, currency := range currencies {
		parts = append(parts, fmt.Sprintf("%s %s", trimAmount(c.PerCurrency[currency]), currency))
	}
	return strings.Join(parts, " + ")
}

// SubtreeCost sums amounts over the entity and its same-kind descendants,
// grouped by currency.
func SubtreeCost(snap *aggregates.Snapshot, id valueobjects.EntityID) CostBreakdown {
	breakdown := CostBreakdown{PerCurrency: map[string]float64{}}

	root, ok := snap.Entity(id)
	if !ok {
		return breakdown
	}

	addEntityCost(&breakdown, root)
	for _, e := range Descendants(snap, id) {
		addEntityCost(&breakdown, e)
	}
	return breakdown
}

// AggregateCosts sums amounts over an arbitrary id set, grouped by
// currency. Ids that do not resolve are skipped.
func AggregateCosts(snap *aggregates.Snapshot, ids map[valueobjects.EntityID]bool) CostBreakdown {
	breakdown := CostBreakdown{PerCurrency: map[string]float64{}}
	for id := range ids {
		if e, ok := snap.Entity(id); ok {
			addEntityCost(&breakdown, e)
		}
	}
	return breakdown
}

// addEntityCost folds an experience's amount into the breakdown; places
// and structural experiences contribute nothing
func addEntityCost(breakdown *CostBreakdown, e entities.Entity) {
	exp, ok := e.(*entities.Experience)
	if !ok || exp.Amount == nil {
		return
	}
	currency := exp.Currency
	if currency == "" {
		currency = "USD"
	}
	breakdown.PerCurrency[currency] += *exp.Amount
}

// trimAmount renders an amount without trailing decimal zeros
func trimAmount(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	s = strings.TrimRight(s, "0")
	s = strings.TrimRight(s, ".")
	return s
}
