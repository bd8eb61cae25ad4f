package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	domainErrors "github.com/sablin/fairmarket/internal/domain/errors"
	"github.com/sablin/fairmarket/internal/domain/model"
	testhelpers "github.com/sablin/fairmarket/internal/test"
)

func newEscrowFixture(escrows ...model.Escrow) (*testhelpers.EscrowRepositoryStub, *EscrowUseCase) {
	repo := &testhelpers.EscrowRepositoryStub{Escrows: escrows}
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	return repo, NewEscrowUseCase(repo, logger)
}

func TestEscrowManualActionRequiresNotes(t *testing.T) {
	repo, uc := newEscrowFixture(model.Escrow{ID: 1, Status: model.EscrowStatusVerification})

	if _, err := uc.ManualAction(context.Background(), 1, 9, EscrowActionRelease, "  "); !errors.Is(err, domainErrors.ErrReasonRequired) {
		t.Fatalf("expected reason required error, got %v", err)
	}
	if len(repo.ReleaseCalls) != 0 {
		t.Fatal("expected no release call without notes")
	}
}

func TestEscrowManualRelease(t *testing.T) {
	repo, uc := newEscrowFixture(model.Escrow{ID: 1, Status: model.EscrowStatusVerification})

	escrow, err := uc.ManualAction(context.Background(), 1, 9, EscrowActionRelease, "buyer confirmed offline")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if escrow.Status != model.EscrowStatusManualRelease {
		t.Fatalf("expected manual release status, got %s", escrow.Status)
	}
	if escrow.ReleasedBy == nil || *escrow.ReleasedBy != "admin:9" {
		t.Fatalf("expected admin actor recorded, got %v", escrow.ReleasedBy)
	}
	if len(repo.ReleaseCalls) != 1 || repo.ReleaseCalls[0].To != model.EscrowStatusManualRelease {
		t.Fatalf("unexpected release calls %+v", repo.ReleaseCalls)
	}
}

func TestEscrowManualReleaseOutOfFrozen(t *testing.T) {
	_, uc := newEscrowFixture(model.Escrow{ID: 1, Status: model.EscrowStatusFrozen})

	escrow, err := uc.ManualAction(context.Background(), 1, 9, EscrowActionRelease, "dispute resolved for seller")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if escrow.Status != model.EscrowStatusManualRelease {
		t.Fatalf("expected frozen escrow releasable by admin, got %s", escrow.Status)
	}
}

func TestEscrowManualFreezeAndDispute(t *testing.T) {
	_, uc := newEscrowFixture(model.Escrow{ID: 1, Status: model.EscrowStatusVerification})

	escrow, err := uc.ManualAction(context.Background(), 1, 9, EscrowActionFreeze, "chargeback claim received")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if escrow.Status != model.EscrowStatusFrozen {
		t.Fatalf("expected frozen status, got %s", escrow.Status)
	}

	escrow, err = uc.ManualAction(context.Background(), 1, 9, EscrowActionDispute, "escalated to arbitration")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if escrow.Status != model.EscrowStatusDisputed {
		t.Fatalf("expected disputed status, got %s", escrow.Status)
	}
}

func TestEscrowManualActionRejectsIllegalTransition(t *testing.T) {
	_, uc := newEscrowFixture(model.Escrow{ID: 1, Status: model.EscrowStatusConfirmed})

	if _, err := uc.ManualAction(context.Background(), 1, 9, EscrowActionRelease, "already settled"); !errors.Is(err, domainErrors.ErrInvalidState) {
		t.Fatalf("expected invalid state for released escrow, got %v", err)
	}
	if _, err := uc.ManualAction(context.Background(), 1, 9, "unfreeze", "no such action"); !errors.Is(err, domainErrors.ErrInvalidState) {
		t.Fatalf("expected invalid state for unknown action, got %v", err)
	}
}

func TestEscrowAutoReleaseIsConditional(t *testing.T) {
	repo, uc := newEscrowFixture(
		model.Escrow{ID: 1, Status: model.EscrowStatusVerification},
		model.Escrow{ID: 2, Status: model.EscrowStatusConfirmed},
	)

	released, err := uc.AutoRelease(context.Background(), 1, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !released {
		t.Fatal("expected verification escrow to auto release")
	}

	released, err = uc.AutoRelease(context.Background(), 2, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if released {
		t.Fatal("expected already resolved escrow to be a no-op")
	}

	if repo.ReleaseCalls[0].Actor != model.ReleasedBySystem {
		t.Fatalf("expected system actor, got %s", repo.ReleaseCalls[0].Actor)
	}
}

func TestEscrowAutoReleaseStaleVersionIsNoOp(t *testing.T) {
	_, uc := newEscrowFixture(model.Escrow{ID: 1, Status: model.EscrowStatusVerification, Version: 3})

	released, err := uc.AutoRelease(context.Background(), 1, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if released {
		t.Fatal("expected stale version to lose the write")
	}
}

func TestEscrowExpiredEscrows(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Hour)
	_, uc := newEscrowFixture(
		model.Escrow{ID: 1, Status: model.EscrowStatusVerification, CustomerAction: model.CustomerActionNone, VerifyEnd: &past},
		model.Escrow{ID: 2, Status: model.EscrowStatusVerification, CustomerAction: model.CustomerActionReported, VerifyEnd: &past},
	)

	expired, err := uc.ExpiredEscrows(context.Background(), now, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(expired) != 1 || expired[0].ID != 1 {
		t.Fatalf("expected only untouched escrow to expire, got %+v", expired)
	}
}
