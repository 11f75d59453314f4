// Package cart holds the in-session shopping cart and its merge rules.
package cart

// Line is a single cart position. A cart never contains two lines with
// the same ProductID; repeated additions merge into Quantity.
type Line struct {
	ProductID int64
	Name      string
	// UnitPrice is in the smallest currency unit. The currency has no
	// fractional subunit, so all totals stay in integer arithmetic.
	UnitPrice int64
	Quantity  int
}

// Subtotal returns Quantity * UnitPrice for the line.
func (l Line) Subtotal() int64 {
	return int64(l.Quantity) * l.UnitPrice
}

// Cart is an ordered list of lines. The owning session holds the only
// reference; all operations return the updated slice.
type Cart []Line

// Add merges quantity into an existing line for productID or appends a
// new line, preserving insertion order.
func (c Cart) Add(productID int64, name string, unitPrice int64, quantity int) Cart {
	for i := range c {
		if c[i].ProductID == productID {
			c[i].Quantity += quantity
			return c
		}
	}
	return append(c, Line{
		ProductID: productID,
		Name:      name,
		UnitPrice: unitPrice,
		Quantity:  quantity,
	})
}

// Remove drops the line for productID if present. Removing an absent
// product is a no-op.
func (c Cart) Remove(productID int64) Cart {
	for i := range c {
		if c[i].ProductID == productID {
			return append(c[:i], c[i+1:]...)
		}
	}
	return c
}

// Total sums Quantity * UnitPrice over all lines.
func (c Cart) Total() int64 {
	var total int64
	for _, l := range c {
		total += l.Subtotal()
	}
	return total
}

// Empty reports whether the cart has no lines.
func (c Cart) Empty() bool {
	return len(c) == 0
}
