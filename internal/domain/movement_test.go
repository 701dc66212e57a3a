package domain_test

import (
	"errors"
	"testing"

	"vendorhub/internal/domain"

	"github.com/google/uuid"
)

func TestStockMovement_ValidateStructure(t *testing.T) {
	warehouseA := uuid.New()
	warehouseB := uuid.New()

	tests := []struct {
		name      string
		movement  domain.StockMovement
		expectErr bool
	}{
		{
			name: "transfer with distinct warehouses",
			movement: domain.StockMovement{
				MovementType:    domain.MovementTransfer,
				FromWarehouseID: &warehouseA,
				ToWarehouseID:   &warehouseB,
				Quantity:        3,
			},
		},
		{
			name: "transfer with same source and destination",
			movement: domain.StockMovement{
				MovementType:    domain.MovementTransfer,
				FromWarehouseID: &warehouseA,
				ToWarehouseID:   &warehouseA,
				Quantity:        3,
			},
			expectErr: true,
		},
		{
			name: "transfer missing destination",
			movement: domain.StockMovement{
				MovementType:    domain.MovementTransfer,
				FromWarehouseID: &warehouseA,
				Quantity:        3,
			},
			expectErr: true,
		},
		{
			name: "in with destination",
			movement: domain.StockMovement{
				MovementType:  domain.MovementIn,
				ToWarehouseID: &warehouseB,
				Quantity:      1,
			},
		},
		{
			name: "in missing destination",
			movement: domain.StockMovement{
				MovementType: domain.MovementIn,
				Quantity:     1,
			},
			expectErr: true,
		},
		{
			name: "out with source",
			movement: domain.StockMovement{
				MovementType:    domain.MovementOut,
				FromWarehouseID: &warehouseA,
				Quantity:        2,
			},
		},
		{
			name: "out missing source",
			movement: domain.StockMovement{
				MovementType: domain.MovementOut,
				Quantity:     2,
			},
			expectErr: true,
		},
		{
			name: "unknown movement type",
			movement: domain.StockMovement{
				MovementType: domain.MovementType("sideways"),
				Quantity:     2,
			},
			expectErr: true,
		},
		{
			name: "zero quantity",
			movement: domain.StockMovement{
				MovementType:  domain.MovementIn,
				ToWarehouseID: &warehouseB,
				Quantity:      0,
			},
			expectErr: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.movement.ValidateStructure()
			if tc.expectErr && err == nil {
				t.Fatal("expected validation error, got nil")
			}
			if !tc.expectErr && err != nil {
				t.Fatalf("expected valid movement, got %v", err)
			}
			if err != nil {
				var verr *domain.ValidationError
				if !errors.As(err, &verr) {
					t.Fatalf("expected ValidationError, got %T", err)
				}
			}
		})
	}
}

func TestStockMovement_SameWarehouseTransferMessage(t *testing.T) {
	warehouse := uuid.New()
	movement := domain.StockMovement{
		MovementType:    domain.MovementTransfer,
		FromWarehouseID: &warehouse,
		ToWarehouseID:   &warehouse,
		Quantity:        1,
	}

	var verr *domain.ValidationError
	if !errors.As(movement.ValidateStructure(), &verr) {
		t.Fatal("expected ValidationError")
	}
	messages := verr.Fields["movement_type"]
	if len(messages) != 1 || messages[0] != "Source and destination warehouses cannot be the same." {
		t.Errorf("unexpected messages: %v", messages)
	}
}
