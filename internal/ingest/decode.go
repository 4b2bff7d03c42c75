package ingest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v2"

	"github.com/webcanteen/webcanteen-analytics/internal/analytics"
)

var (
	// ErrInvalidDataset is wrapped by every decoding and validation failure.
	ErrInvalidDataset = errors.New("ingest: invalid dataset")
	// ErrUnsupportedFormat is returned for encodings other than JSON and YAML.
	ErrUnsupportedFormat = errors.New("ingest: unsupported format")
)

// maxDatasetBytes bounds how much of a dataset is read into memory.
const maxDatasetBytes = 32 << 20

// Format identifies a dataset encoding.
type Format string

// Supported encodings.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat resolves a format from a name, file extension or media type.
func ParseFormat(v string) (Format, error) {
	key := strings.ToLower(strings.TrimSpace(v))
	if idx := strings.Index(key, ";"); idx >= 0 {
		key = strings.TrimSpace(key[:idx])
	}
	key = strings.TrimPrefix(key, ".")
	switch key {
	case "json", "application/json", "":
		return FormatJSON, nil
	case "yaml", "yml", "application/yaml", "application/x-yaml", "text/yaml", "text/x-yaml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, v)
}

// FormatFromPath picks the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	ext := filepath.Ext(path)
	if ext == "" {
		return "", fmt.Errorf("%w: %s has no extension", ErrUnsupportedFormat, path)
	}
	return ParseFormat(ext)
}

type datasetDoc struct {
	Period string     `json:"period" yaml:"period" validate:"omitempty,period"`
	Orders []orderRow `json:"orders" yaml:"orders" validate:"unique=ID,dive"`
	Costs  []costRow  `json:"costs" yaml:"costs" validate:"dive"`
}

type orderRow struct {
	ID                string  `json:"id" yaml:"id" validate:"required"`
	Status            string  `json:"status" yaml:"status" validate:"required,order_status"`
	Value             float64 `json:"value" yaml:"value" validate:"gte=0,finite"`
	PaymentMode       string  `json:"payment_mode" yaml:"payment_mode" validate:"required,payment_mode"`
	ShippingCost      float64 `json:"shipping_cost" yaml:"shipping_cost" validate:"gte=0,finite"`
	ManufacturingCost float64 `json:"manufacturing_cost" yaml:"manufacturing_cost" validate:"gte=0,finite"`
}

type costRow struct {
	Category string  `json:"category" yaml:"category" validate:"required,cost_category"`
	Amount   float64 `json:"amount" yaml:"amount" validate:"gte=0,finite"`
}

// FieldError describes one rejected field.
type FieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
	Value string `json:"value,omitempty"`
}

// ValidationError lists every field that failed validation.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return ErrInvalidDataset.Error()
	}
	first := e.Fields[0]
	msg := fmt.Sprintf("%s: %s failed %s", ErrInvalidDataset, first.Field, first.Rule)
	if len(e.Fields) > 1 {
		msg += fmt.Sprintf(" (and %d more)", len(e.Fields)-1)
	}
	return msg
}

// Unwrap lets callers match ErrInvalidDataset.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidDataset
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})
	rules := map[string]validator.Func{
		"period": func(fl validator.FieldLevel) bool {
			return ValidPeriod(fl.Field().String())
		},
		"order_status": func(fl validator.FieldLevel) bool {
			_, ok := analytics.ParseOrderStatus(fl.Field().String())
			return ok
		},
		"payment_mode": func(fl validator.FieldLevel) bool {
			_, ok := analytics.ParsePaymentMode(fl.Field().String())
			return ok
		},
		"cost_category": func(fl validator.FieldLevel) bool {
			_, ok := analytics.ParseCostCategory(fl.Field().String())
			return ok
		},
		"finite": func(fl validator.FieldLevel) bool {
			f := fl.Field().Float()
			return !math.IsNaN(f) && !math.IsInf(f, 0) && f < 1e15
		},
	}
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			panic(err)
		}
	}
	return v
}

// Decode reads a dataset in the given format, validates every record and
// converts it into the aggregator's model.
func Decode(r io.Reader, format Format) (analytics.Dataset, error) {
	raw, err := io.ReadAll(io.LimitReader(r, maxDatasetBytes+1))
	if err != nil {
		return analytics.Dataset{}, err
	}
	if len(raw) > maxDatasetBytes {
		return analytics.Dataset{}, fmt.Errorf("%w: payload exceeds %d bytes", ErrInvalidDataset, maxDatasetBytes)
	}

	var doc datasetDoc
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(raw))
		if err := dec.Decode(&doc); err != nil {
			return analytics.Dataset{}, fmt.Errorf("%w: %v", ErrInvalidDataset, err)
		}
		var trailing json.RawMessage
		if err := dec.Decode(&trailing); !errors.Is(err, io.EOF) {
			return analytics.Dataset{}, fmt.Errorf("%w: unexpected data after dataset", ErrInvalidDataset)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(raw, &doc); err != nil {
			return analytics.Dataset{}, fmt.Errorf("%w: %v", ErrInvalidDataset, err)
		}
	default:
		return analytics.Dataset{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}

	doc.normalize()
	if err := validateDoc(doc); err != nil {
		return analytics.Dataset{}, err
	}
	return doc.toDataset(), nil
}

// normalize trims identifiers and codes so validation sees the stored values.
func (d *datasetDoc) normalize() {
	d.Period = strings.TrimSpace(d.Period)
	for i := range d.Orders {
		row := &d.Orders[i]
		row.ID = strings.TrimSpace(row.ID)
		row.Status = strings.TrimSpace(row.Status)
		row.PaymentMode = strings.TrimSpace(row.PaymentMode)
	}
	for i := range d.Costs {
		d.Costs[i].Category = strings.TrimSpace(d.Costs[i].Category)
	}
}

func validateDoc(doc datasetDoc) error {
	err := validate.Struct(doc)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %v", ErrInvalidDataset, err)
	}
	out := &ValidationError{Fields: make([]FieldError, 0, len(fieldErrs))}
	for _, fe := range fieldErrs {
		out.Fields = append(out.Fields, FieldError{
			Field: trimNamespace(fe.Namespace()),
			Rule:  fe.Tag(),
			Value: fmt.Sprint(fe.Value()),
		})
	}
	return out
}

// trimNamespace drops the root struct name so paths read like orders[3].status.
func trimNamespace(ns string) string {
	if idx := strings.Index(ns, "."); idx >= 0 {
		return ns[idx+1:]
	}
	return ns
}

func (d datasetDoc) toDataset() analytics.Dataset {
	dataset := analytics.Dataset{
		Period: d.Period,
		Orders: make([]analytics.OrderRecord, 0, len(d.Orders)),
		Costs:  make([]analytics.CostEntry, 0, len(d.Costs)),
	}
	for _, row := range d.Orders {
		status, _ := analytics.ParseOrderStatus(row.Status)
		mode, _ := analytics.ParsePaymentMode(row.PaymentMode)
		dataset.Orders = append(dataset.Orders, analytics.OrderRecord{
			ID:                row.ID,
			Status:            status,
			Value:             decimal.NewFromFloat(row.Value),
			PaymentMode:       mode,
			ShippingCost:      decimal.NewFromFloat(row.ShippingCost),
			ManufacturingCost: decimal.NewFromFloat(row.ManufacturingCost),
		})
	}
	for _, row := range d.Costs {
		category, _ := analytics.ParseCostCategory(row.Category)
		dataset.Costs = append(dataset.Costs, analytics.CostEntry{
			Category: category,
			Amount:   decimal.NewFromFloat(row.Amount),
		})
	}
	return dataset
}
