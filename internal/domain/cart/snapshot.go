package cart

import (
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
)

// EncodeSnapshot serializes items as a JSON array of line items.
func EncodeSnapshot(items []Item) []byte {
	var e jx.Encoder
	e.ArrStart()
	for _, item := range items {
		encodeItem(&e, item)
	}
	e.ArrEnd()
	return e.Bytes()
}

func encodeItem(e *jx.Encoder, item Item) {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(item.ID)
	e.FieldStart("name")
	e.Str(item.Name)
	e.FieldStart("price")
	e.Str(item.Price)
	if item.Image != "" {
		e.FieldStart("image")
		e.Str(item.Image)
	}
	e.FieldStart("quantity")
	e.Int(item.Quantity)
	e.FieldStart("unit")
	e.Str(string(item.Unit))
	e.ObjEnd()
}

// DecodeSnapshot parses a snapshot produced by EncodeSnapshot. Anything other
// than an array of objects with an id and a positive quantity is rejected.
func DecodeSnapshot(data []byte) ([]Item, error) {
	d := jx.DecodeBytes(data)
	if tt := d.Next(); tt != jx.Array {
		return nil, errors.Errorf("snapshot: expected array, got %s", tt)
	}

	items := make([]Item, 0)
	if err := d.Arr(func(d *jx.Decoder) error {
		item, err := decodeItem(d)
		if err != nil {
			return errors.Wrapf(err, "item %d", len(items))
		}
		items = append(items, item)
		return nil
	}); err != nil {
		return nil, errors.Wrap(err, "snapshot")
	}
	if tt := d.Next(); tt != jx.Invalid {
		return nil, errors.Errorf("snapshot: unexpected trailing %s", tt)
	}
	return items, nil
}

func decodeItem(d *jx.Decoder) (Item, error) {
	var item Item
	if tt := d.Next(); tt != jx.Object {
		return item, errors.Errorf("expected object, got %s", tt)
	}
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "id":
			item.ID, err = d.Str()
		case "name":
			item.Name, err = d.Str()
		case "price":
			item.Price, err = d.Str()
		case "image":
			if d.Next() == jx.Null {
				return d.Null()
			}
			item.Image, err = d.Str()
		case "quantity":
			item.Quantity, err = d.Int()
		case "unit":
			var u string
			u, err = d.Str()
			item.Unit = Unit(u)
		default:
			return d.Skip()
		}
		return errors.Wrap(err, key)
	}); err != nil {
		return item, err
	}

	if item.ID == "" {
		return item, errors.New("missing id")
	}
	if item.Quantity < 1 || item.Quantity > MaxQuantity {
		return item, errors.Errorf("quantity %d for %q", item.Quantity, item.ID)
	}
	return item, nil
}
