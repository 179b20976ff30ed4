package alpaca

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Contract is one option contract row from the chain endpoint.
type Contract struct {
	Symbol     string
	Type       string
	Strike     decimal.Decimal
	Expiration time.Time
}

// OrderConfirmation is the broker's acknowledgement of a submitted order.
type OrderConfirmation struct {
	ID     string
	Symbol string
	Status string
}

type contractJSON struct {
	Symbol         string `json:"symbol"`
	Type           string `json:"type"`
	StrikePrice    string `json:"strike_price"`
	ExpirationDate string `json:"expiration_date"`
}

type contractsPageJSON struct {
	OptionContracts []contractJSON `json:"option_contracts"`
	NextPageToken   *string        `json:"next_page_token"`
}

type latestTradeJSON struct {
	Symbol string `json:"symbol"`
	Trade  struct {
		Price float64 `json:"p"`
	} `json:"trade"`
}

type orderJSON struct {
	ID     string `json:"id"`
	Symbol string `json:"symbol"`
	Status string `json:"status"`
}

func parseContractsPage(body []byte) ([]Contract, *string, error) {
	var page contractsPageJSON
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, nil, fmt.Errorf("failed to parse contracts response: %w", err)
	}
	out := make([]Contract, 0, len(page.OptionContracts))
	for _, raw := range page.OptionContracts {
		strike, err := decimal.NewFromString(raw.StrikePrice)
		if err != nil {
			continue
		}
		expiration, err := time.Parse("2006-01-02", raw.ExpirationDate)
		if err != nil {
			continue
		}
		out = append(out, Contract{
			Symbol:     raw.Symbol,
			Type:       raw.Type,
			Strike:     strike,
			Expiration: expiration,
		})
	}
	return out, page.NextPageToken, nil
}
