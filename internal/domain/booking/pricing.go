package booking

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shotbook/shotbook-api/internal/domain/catalog"
)

// AddOnSelection is one requested add-on with its quantity
type AddOnSelection struct {
	AddOnID  uuid.UUID `json:"addon_id" validate:"required"`
	Quantity int       `json:"quantity" validate:"required,gte=1,lte=100"`
}

// Quote prices a booking: the package price plus price times quantity for
// every selected add-on found in available and active. Other selections are
// skipped without error. Line items keep the order of the selections.
func Quote(pkg *catalog.Package, selections []AddOnSelection, available map[uuid.UUID]*catalog.AddOn) (decimal.Decimal, []*LineItem) {
	total := pkg.Price
	items := make([]*LineItem, 0, len(selections))

	for _, sel := range selections {
		addOn, ok := available[sel.AddOnID]
		if !ok || !addOn.IsActive || sel.Quantity < 1 {
			continue
		}

		item := &LineItem{
			ID:        uuid.New(),
			AddOnID:   addOn.ID,
			AddOnName: addOn.Name,
			Quantity:  sel.Quantity,
			UnitPrice: addOn.Price,
			Position:  len(items),
		}
		items = append(items, item)
		total = total.Add(item.Subtotal())
	}

	return total, items
}
