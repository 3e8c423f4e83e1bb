package domain

import (
	"sort"

	"github.com/shopspring/decimal"
)

// CurrencyAmount is one currency line of a report.
type CurrencyAmount struct {
	Currency Currency
	Amount   decimal.Decimal
}

// ClientDebt is the net amount a client owes for one currency. Positive
// means the client owes the cash desk, negative means the desk owes the
// client.
type ClientDebt struct {
	ClientName string
	Currency   Currency
	Amount     decimal.Decimal
}

// CashTotal is the cash position per currency with the UZS balance
// reported on its own.
type CashTotal struct {
	ByCurrency []CurrencyAmount
	UZS        decimal.Decimal
}

// DailyProfit is the net flow per currency for one day.
type DailyProfit struct {
	ByCurrency []CurrencyAmount
	Day        Day
}

// Balances returns inflow minus outflow per currency over all entries. Every
// supported currency is present, in Currencies order.
func Balances(entries []*Entry) []CurrencyAmount {
	return netByCurrency(entries, nil)
}

// DailyProfitFor restricts Balances to entries created on day. Currencies
// with no entries that day report zero.
func DailyProfitFor(entries []*Entry, day Day) DailyProfit {
	return DailyProfit{
		Day: day,
		ByCurrency: netByCurrency(entries, func(e *Entry) bool {
			return day.Contains(e.CreatedAt)
		}),
	}
}

// ClientDebts returns outflow minus inflow per exact (client, currency) pair,
// ordered by client name then currency.
func ClientDebts(entries []*Entry) []ClientDebt {
	type key struct {
		client   string
		currency Currency
	}

	sums := make(map[key]decimal.Decimal)
	for _, e := range entries {
		k := key{client: e.ClientName, currency: e.Currency}
		sums[k] = sums[k].Sub(e.Signed())
	}

	debts := make([]ClientDebt, 0, len(sums))
	for k, amount := range sums {
		debts = append(debts, ClientDebt{
			ClientName: k.client,
			Currency:   k.currency,
			Amount:     amount,
		})
	}

	sort.Slice(debts, func(i, j int) bool {
		if debts[i].ClientName != debts[j].ClientName {
			return debts[i].ClientName < debts[j].ClientName
		}
		return debts[i].Currency < debts[j].Currency
	})

	return debts
}

// CashTotalFor aggregates balances and surfaces the UZS figure.
func CashTotalFor(entries []*Entry) CashTotal {
	balances := Balances(entries)

	total := CashTotal{ByCurrency: balances, UZS: decimal.Zero}
	for _, b := range balances {
		if b.Currency == CurrencyUZS {
			total.UZS = b.Amount
		}
	}

	return total
}

func netByCurrency(entries []*Entry, include func(*Entry) bool) []CurrencyAmount {
	sums := make(map[Currency]decimal.Decimal, len(Currencies))
	for _, e := range entries {
		if include != nil && !include(e) {
			continue
		}
		sums[e.Currency] = sums[e.Currency].Add(e.Signed())
	}

	out := make([]CurrencyAmount, 0, len(Currencies))
	for _, c := range Currencies {
		out = append(out, CurrencyAmount{Currency: c, Amount: sums[c]})
	}

	return out
}
