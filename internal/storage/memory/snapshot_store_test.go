package memory

import (
	"context"
	"errors"
	"testing"

	"solana-copybot/internal/domain"
	"solana-copybot/internal/storage"
)

func TestSnapshotStore_SaveAndLatest(t *testing.T) {
	store := NewSnapshotStore()
	ctx := context.Background()

	snapshot := domain.WalletSnapshot{
		"walletA": {
			{Mint: "X", Amount: 1.5, RawAmount: 1500000, Decimals: 6, WalletAddress: "walletA"},
		},
	}

	if err := store.Save(ctx, snapshot, 1000); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, capturedAt, err := store.Latest(ctx)
	if err != nil {
		t.Fatalf("Latest failed: %v", err)
	}
	if capturedAt != 1000 {
		t.Errorf("capturedAt: got %d, want 1000", capturedAt)
	}
	if len(got["walletA"]) != 1 || got["walletA"][0].RawAmount != 1500000 {
		t.Errorf("snapshot mismatch: %+v", got["walletA"])
	}
}

func TestSnapshotStore_NotFound(t *testing.T) {
	store := NewSnapshotStore()

	_, _, err := store.Latest(context.Background())
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSnapshotStore_Supersedes(t *testing.T) {
	store := NewSnapshotStore()
	ctx := context.Background()

	first := domain.WalletSnapshot{"w": {{Mint: "X", RawAmount: 100}}}
	second := domain.WalletSnapshot{"w": {{Mint: "Y", RawAmount: 200}}}

	if err := store.Save(ctx, first, 1000); err != nil {
		t.Fatal(err)
	}
	if err := store.Save(ctx, second, 2000); err != nil {
		t.Fatal(err)
	}

	got, capturedAt, err := store.Latest(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if capturedAt != 2000 {
		t.Errorf("capturedAt: got %d, want 2000", capturedAt)
	}
	if got["w"][0].Mint != "Y" {
		t.Error("second snapshot must supersede the first")
	}
}

func TestSnapshotStore_CallerCannotMutateStored(t *testing.T) {
	store := NewSnapshotStore()
	ctx := context.Background()

	snapshot := domain.WalletSnapshot{"w": {{Mint: "X", RawAmount: 100}}}
	if err := store.Save(ctx, snapshot, 1000); err != nil {
		t.Fatal(err)
	}

	snapshot["w"][0].RawAmount = 999

	got, _, err := store.Latest(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got["w"][0].RawAmount != 100 {
		t.Error("stored snapshot must be isolated from caller mutation")
	}
}
