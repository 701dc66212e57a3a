package domain

type MovementType string

const (
	MovementIn       MovementType = "in"
	MovementOut      MovementType = "out"
	MovementTransfer MovementType = "transfer"
)

func (t MovementType) Valid() bool {
	switch t {
	case MovementIn, MovementOut, MovementTransfer:
		return true
	}
	return false
}

// ValidateStructure enforces the warehouse-presence rules for each movement
// type before the movement is accepted:
//
//	transfer: both warehouses present and distinct
//	in:       destination warehouse present
//	out:      source warehouse present
//
// Stock sufficiency is not checked here; the repository verifies it when the
// movement is applied to the ledger.
func (m *StockMovement) ValidateStructure() error {
	errs := NewValidationError()

	if m.Quantity <= 0 {
		errs.Add("quantity", "Quantity must be positive.")
	}

	switch m.MovementType {
	case MovementTransfer:
		if m.FromWarehouseID == nil || m.ToWarehouseID == nil {
			errs.Add("movement_type", "Transfer must include both source and destination warehouses.")
		} else if *m.FromWarehouseID == *m.ToWarehouseID {
			errs.Add("movement_type", "Source and destination warehouses cannot be the same.")
		}
	case MovementIn:
		if m.ToWarehouseID == nil {
			errs.Add("to_warehouse", "Incoming stock must specify the destination warehouse.")
		}
	case MovementOut:
		if m.FromWarehouseID == nil {
			errs.Add("from_warehouse", "Outgoing stock must specify the source warehouse.")
		}
	default:
		errs.Add("movement_type", "Movement type must be one of: in, out, transfer.")
	}

	return errs.Err()
}
