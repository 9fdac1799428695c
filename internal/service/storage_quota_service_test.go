package service

import (
	"context"
	"errors"
	"testing"
)

func TestGetQuotaInfo(t *testing.T) {
	svc := NewStorageQuotaService(newFakeLedger(250, 1000))

	info, err := svc.GetQuotaInfo(context.Background(), testOwner)
	if err != nil {
		t.Fatalf("GetQuotaInfo failed: %v", err)
	}

	if info.TotalSpace != 1000 || info.UsedSpace != 250 {
		t.Errorf("unexpected totals: %+v", info)
	}
	if info.AvailableSpace != 750 {
		t.Errorf("expected available=750, got %d", info.AvailableSpace)
	}
	if info.UsagePercent != 25 {
		t.Errorf("expected 25%%, got %f", info.UsagePercent)
	}
}

func TestCheckSpaceAvailable_Boundary(t *testing.T) {
	svc := NewStorageQuotaService(newFakeLedger(900, 1000))
	ctx := context.Background()

	tests := []struct {
		bytes int64
		want  bool
	}{
		{0, true},
		{99, true},
		{100, true},
		{101, false},
	}

	for _, tt := range tests {
		got, err := svc.CheckSpaceAvailable(ctx, testOwner, tt.bytes)
		if err != nil {
			t.Fatalf("CheckSpaceAvailable(%d) failed: %v", tt.bytes, err)
		}
		if got != tt.want {
			t.Errorf("CheckSpaceAvailable(%d) = %v, want %v", tt.bytes, got, tt.want)
		}
	}
}

func TestReserve_MapsCapacityError(t *testing.T) {
	svc := NewStorageQuotaService(newFakeLedger(900, 1000))
	ctx := context.Background()

	if err := svc.Reserve(ctx, testOwner, 100); err != nil {
		t.Fatalf("reserve within limit failed: %v", err)
	}
	if err := svc.Reserve(ctx, testOwner, 1); !errors.Is(err, ErrQuotaExceeded) {
		t.Errorf("expected ErrQuotaExceeded, got %v", err)
	}
}

func TestUpdateQuotaLimit_RejectsNegative(t *testing.T) {
	svc := NewStorageQuotaService(newFakeLedger(0, 1000))

	if err := svc.UpdateQuotaLimit(context.Background(), testOwner, -1); err == nil {
		t.Error("expected error for negative limit")
	}
}
