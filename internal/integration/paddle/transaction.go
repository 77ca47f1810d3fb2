package paddle

import (
	"context"
	"net/http"
)

type transactionPreviewRequest struct {
	Items      []itemRef `json:"items"`
	CustomerID string    `json:"customer_id,omitempty"`
	DiscountID string    `json:"discount_id,omitempty"`
}

// TransactionTotals is the totals block of a transaction preview.
// Amounts are minor-unit strings.
type TransactionTotals struct {
	Subtotal     string `json:"subtotal"`
	Discount     string `json:"discount"`
	Credit       string `json:"credit"`
	GrandTotal   string `json:"grand_total"`
	CurrencyCode string `json:"currency_code"`
}

// TransactionPreview is the result of previewing a one-time purchase
type TransactionPreview struct {
	Details struct {
		Totals TransactionTotals `json:"totals"`
	} `json:"details"`
}

// PreviewTransaction previews a one-time purchase (the lifetime plan)
// for the given customer, optionally applying a discount
func (c *Client) PreviewTransaction(ctx context.Context, priceID, customerID, discountID string) (*TransactionPreview, error) {
	req := transactionPreviewRequest{
		Items:      []itemRef{{PriceID: priceID, Quantity: 1}},
		CustomerID: customerID,
		DiscountID: discountID,
	}
	var preview TransactionPreview
	err := c.do(ctx, http.MethodPost, "/transactions/preview", req, &preview)
	if err != nil {
		return nil, err
	}
	return &preview, nil
}
