package ingest

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v2"

	"github.com/webcanteen/webcanteen-analytics/internal/analytics"
)

// Encode writes dataset in the wire format Decode accepts.
func Encode(w io.Writer, dataset analytics.Dataset, format Format) error {
	doc := fromDataset(dataset)
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	case FormatYAML:
		raw, err := yaml.Marshal(doc)
		if err != nil {
			return err
		}
		_, err = w.Write(raw)
		return err
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}

func fromDataset(dataset analytics.Dataset) datasetDoc {
	doc := datasetDoc{
		Period: dataset.Period,
		Orders: make([]orderRow, 0, len(dataset.Orders)),
		Costs:  make([]costRow, 0, len(dataset.Costs)),
	}
	for _, order := range dataset.Orders {
		value, _ := order.Value.Float64()
		shipping, _ := order.ShippingCost.Float64()
		manufacturing, _ := order.ManufacturingCost.Float64()
		doc.Orders = append(doc.Orders, orderRow{
			ID:                order.ID,
			Status:            string(order.Status),
			Value:             value,
			PaymentMode:       string(order.PaymentMode),
			ShippingCost:      shipping,
			ManufacturingCost: manufacturing,
		})
	}
	for _, cost := range dataset.Costs {
		amount, _ := cost.Amount.Float64()
		doc.Costs = append(doc.Costs, costRow{Category: string(cost.Category), Amount: amount})
	}
	return doc
}
