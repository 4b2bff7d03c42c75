package ingest

import (
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/webcanteen/webcanteen-analytics/internal/analytics"
)

const sampleJSON = `{
  "period": "2024-12",
  "orders": [
    {"id": "A1", "status": "Delivered", "value": 1000, "payment_mode": "prepaid", "shipping_cost": 60, "manufacturing_cost": 450},
    {"id": "A2", "status": "fulfillment pending", "value": 106.98, "payment_mode": "Cash on Delivery"},
    {"id": "A3", "status": "RTO", "value": 500, "payment_mode": "cod"}
  ],
  "costs": [
    {"category": "manufacturing", "amount": 387000},
    {"category": "Marketing", "amount": 321482}
  ]
}`

const sampleYAML = `
period: 2024-11
orders:
  - id: B1
    status: delivered
    value: 1002
    payment_mode: prepaid
  - id: B2
    status: cancelled
    value: 1002
    payment_mode: cod
costs:
  - category: shipping
    amount: 92000
`

func TestDecodeJSON(t *testing.T) {
	dataset, err := Decode(strings.NewReader(sampleJSON), FormatJSON)
	require.NoError(t, err)
	require.Equal(t, "2024-12", dataset.Period)
	require.Len(t, dataset.Orders, 3)
	require.Equal(t, analytics.StatusDelivered, dataset.Orders[0].Status)
	require.Equal(t, analytics.StatusFulfillmentPending, dataset.Orders[1].Status)
	require.Equal(t, analytics.PaymentCOD, dataset.Orders[1].PaymentMode)
	require.True(t, dataset.Orders[1].Value.Equal(decimal.RequireFromString("106.98")))
	require.True(t, dataset.Orders[1].ShippingCost.IsZero())
	require.Equal(t, analytics.StatusRTO, dataset.Orders[2].Status)
	require.Len(t, dataset.Costs, 2)
	require.Equal(t, analytics.CostMarketing, dataset.Costs[1].Category)
	require.True(t, dataset.Costs[1].Amount.Equal(decimal.NewFromInt(321482)))
}

func TestDecodeYAML(t *testing.T) {
	dataset, err := Decode(strings.NewReader(sampleYAML), FormatYAML)
	require.NoError(t, err)
	require.Equal(t, "2024-11", dataset.Period)
	require.Len(t, dataset.Orders, 2)
	require.Equal(t, analytics.StatusCancelled, dataset.Orders[1].Status)
	require.True(t, dataset.Orders[0].Value.Equal(decimal.NewFromInt(1002)))
	require.Equal(t, analytics.CostShipping, dataset.Costs[0].Category)
}

func TestDecodeEmptyDataset(t *testing.T) {
	dataset, err := Decode(strings.NewReader(`{"orders":[],"costs":[]}`), FormatJSON)
	require.NoError(t, err)
	require.Empty(t, dataset.Orders)
	summary := analytics.ComputeSummary(dataset.Orders, dataset.Costs)
	require.Zero(t, summary.DeliveryRate)
}

func TestDecodeCollectsEveryFieldError(t *testing.T) {
	payload := `{
	  "orders": [
	    {"id": "", "status": "lost", "value": -1, "payment_mode": "card"},
	    {"id": "C2", "status": "delivered", "value": 10, "payment_mode": "cod"}
	  ],
	  "costs": [{"category": "rent", "amount": -5}]
	}`
	_, err := Decode(strings.NewReader(payload), FormatJSON)
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrInvalidDataset))

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	fields := make(map[string]string, len(verr.Fields))
	for _, fe := range verr.Fields {
		fields[fe.Field] = fe.Rule
	}
	require.Equal(t, "required", fields["orders[0].id"])
	require.Equal(t, "order_status", fields["orders[0].status"])
	require.Equal(t, "gte", fields["orders[0].value"])
	require.Equal(t, "payment_mode", fields["orders[0].payment_mode"])
	require.Equal(t, "cost_category", fields["costs[0].category"])
	require.Equal(t, "gte", fields["costs[0].amount"])
	require.NotContains(t, fields, "orders[1].id")
	require.Contains(t, err.Error(), "and 5 more")
}

func TestDecodeRejectsDuplicateOrderIDs(t *testing.T) {
	payload := `{"orders":[
	  {"id":"D1","status":"delivered","value":1,"payment_mode":"cod"},
	  {"id":"D1","status":"cancelled","value":1,"payment_mode":"cod"}]}`
	_, err := Decode(strings.NewReader(payload), FormatJSON)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	require.Equal(t, "orders", verr.Fields[0].Field)
	require.Equal(t, "unique", verr.Fields[0].Rule)
}

func TestDecodeComparesTrimmedOrderIDs(t *testing.T) {
	payload := `{"orders":[
	  {"id":" A1","status":"delivered","value":1,"payment_mode":"cod"},
	  {"id":"A1","status":"cancelled","value":1,"payment_mode":"cod"}]}`
	_, err := Decode(strings.NewReader(payload), FormatJSON)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	require.Equal(t, "orders", verr.Fields[0].Field)
	require.Equal(t, "unique", verr.Fields[0].Rule)

	dataset, err := Decode(strings.NewReader(`{"orders":[{"id":"  B7 ","status":"delivered","value":1,"payment_mode":"cod"}]}`), FormatJSON)
	require.NoError(t, err)
	require.Equal(t, "B7", dataset.Orders[0].ID)
}

func TestDecodeRejectsBlankOrderID(t *testing.T) {
	payload := `{"orders":[{"id":"   ","status":"delivered","value":1,"payment_mode":"cod"}]}`
	_, err := Decode(strings.NewReader(payload), FormatJSON)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	require.Equal(t, "orders[0].id", verr.Fields[0].Field)
	require.Equal(t, "required", verr.Fields[0].Rule)
}

func TestDecodeRejectsTrailingJSON(t *testing.T) {
	payload := `{"orders":[]} {"orders":[{"id":"X","status":"delivered","value":1,"payment_mode":"cod"}]} garbage`
	_, err := Decode(strings.NewReader(payload), FormatJSON)
	require.ErrorIs(t, err, ErrInvalidDataset)

	_, err = Decode(strings.NewReader("{\"orders\":[]}\n\n"), FormatJSON)
	require.NoError(t, err)
}

func TestDecodeRejectsBadPeriodAndSyntax(t *testing.T) {
	_, err := Decode(strings.NewReader(`{"period":"Dec 2024"}`), FormatJSON)
	require.ErrorIs(t, err, ErrInvalidDataset)

	_, err = Decode(strings.NewReader(`{"orders": [`), FormatJSON)
	require.ErrorIs(t, err, ErrInvalidDataset)

	_, err = Decode(strings.NewReader("orders: [unterminated"), FormatYAML)
	require.ErrorIs(t, err, ErrInvalidDataset)
}

func TestParseFormat(t *testing.T) {
	cases := map[string]Format{
		"json":                            FormatJSON,
		".JSON":                           FormatJSON,
		"application/json; charset=utf-8": FormatJSON,
		"":                                FormatJSON,
		"yml":                             FormatYAML,
		"application/x-yaml":              FormatYAML,
	}
	for input, want := range cases {
		got, err := ParseFormat(input)
		require.NoError(t, err, input)
		require.Equal(t, want, got, input)
	}

	_, err := ParseFormat("text/csv")
	require.ErrorIs(t, err, ErrUnsupportedFormat)
	_, err = FormatFromPath("dataset")
	require.ErrorIs(t, err, ErrUnsupportedFormat)
	_, err = Decode(strings.NewReader("{}"), Format("xml"))
	require.ErrorIs(t, err, ErrUnsupportedFormat)
}
