package domain

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// OrderItemsVersion is the schema version written for new orders. Rows
// written before the envelope existed hold a bare JSON array and decode as
// version 0.
const OrderItemsVersion = 1

var ErrMalformedItems = errors.New("malformed order items payload")

type OrderItem struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	NameAr   string          `json:"nameAr"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
	Image    string          `json:"image"`
}

func (i OrderItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type OrderItems struct {
	Version int
	Items   []OrderItem
}

type orderItemsEnvelope struct {
	Version int         `json:"version"`
	Items   []OrderItem `json:"items"`
}

// NewOrderItems freezes the cart contents into the order snapshot.
func NewOrderItems(cart []CartItem) OrderItems {
	items := make([]OrderItem, 0, len(cart))
	for _, c := range cart {
		items = append(items, OrderItem{
			ID:       c.ID,
			Name:     c.Name,
			NameAr:   c.NameAr,
			Price:    c.Price,
			Quantity: c.Quantity,
			Image:    c.Image,
		})
	}
	return OrderItems{Version: OrderItemsVersion, Items: items}
}

func (o OrderItems) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.LineTotal())
	}
	return total
}

func (o OrderItems) Validate() error {
	if o.Version != 0 && o.Version != OrderItemsVersion {
		return fmt.Errorf("%w: unsupported version %d", ErrMalformedItems, o.Version)
	}
	if len(o.Items) == 0 {
		return fmt.Errorf("%w: no items", ErrMalformedItems)
	}
	for idx, item := range o.Items {
		if item.ID == "" {
			return fmt.Errorf("%w: item %d has no id", ErrMalformedItems, idx)
		}
		if item.Quantity < 1 {
			return fmt.Errorf("%w: item %d has quantity %d", ErrMalformedItems, idx, item.Quantity)
		}
		if item.Price.IsNegative() {
			return fmt.Errorf("%w: item %d has negative price", ErrMalformedItems, idx)
		}
	}
	return nil
}

func DecodeOrderItems(raw []byte) (OrderItems, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return OrderItems{}, fmt.Errorf("%w: empty", ErrMalformedItems)
	}

	var out OrderItems
	switch raw[0] {
	case '[':
		if err := json.Unmarshal(raw, &out.Items); err != nil {
			return OrderItems{}, fmt.Errorf("%w: %v", ErrMalformedItems, err)
		}
	case '{':
		var env orderItemsEnvelope
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&env); err != nil {
			return OrderItems{}, fmt.Errorf("%w: %v", ErrMalformedItems, err)
		}
		if env.Version != OrderItemsVersion {
			return OrderItems{}, fmt.Errorf("%w: unsupported version %d", ErrMalformedItems, env.Version)
		}
		out = OrderItems{Version: env.Version, Items: env.Items}
	default:
		return OrderItems{}, fmt.Errorf("%w: unexpected payload", ErrMalformedItems)
	}

	if err := out.Validate(); err != nil {
		return OrderItems{}, err
	}
	return out, nil
}

// Value always writes the current envelope, upgrading legacy snapshots.
func (o OrderItems) Value() (driver.Value, error) {
	if err := o.Validate(); err != nil {
		return nil, err
	}
	return json.Marshal(orderItemsEnvelope{Version: OrderItemsVersion, Items: o.Items})
}

func (o *OrderItems) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	case nil:
		return fmt.Errorf("%w: null", ErrMalformedItems)
	default:
		return fmt.Errorf("%w: unsupported column type %T", ErrMalformedItems, src)
	}

	decoded, err := DecodeOrderItems(raw)
	if err != nil {
		return err
	}
	*o = decoded
	return nil
}
