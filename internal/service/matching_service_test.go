package service

import (
	"context"
	"sync"
	"testing"

	"github.com/apolloyim/the-match/internal/model"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type matchingFixture struct {
	controls      *fakeControlStore
	slots         *fakeSlotStore
	confirmations *fakeConfirmationStore
	audit         *fakeAuditStore
	archive       *ArchiveService
	students      *fakeStudentStore
	history       *fakeHistoryStore
	svc           *MatchingService
}

func newMatchingFixture() *matchingFixture {
	logger := zap.NewNop()

	f := &matchingFixture{
		controls:      newFakeControlStore(),
		slots:         newFakeSlotStore(),
		confirmations: newFakeConfirmationStore(),
		audit:         &fakeAuditStore{},
		students:      newFakeStudentStore(),
		history:       newFakeHistoryStore(),
	}

	f.archive = NewArchiveService(f.slots, f.students, f.confirmations, f.history, logger)
	f.svc = NewMatchingService(f.controls, f.slots, f.confirmations, f.audit, f.archive, logger)
	return f
}

func (f *matchingFixture) addSlot(t *testing.T, specialty string) uuid.UUID {
	t.Helper()
	slot := &model.Slot{
		PhysName:      "Dr. House",
		PhysSpecialty: specialty,
		TimeStart:     "9:00 AM",
		TimeEnd:       "11:30 AM",
	}
	require.NoError(t, f.slots.Create(context.Background(), slot))
	return slot.ID
}

func TestClaim(t *testing.T) {
	ctx := context.Background()

	t.Run("success in phase 3", func(t *testing.T) {
		f := newMatchingFixture()
		slotID := f.addSlot(t, "Cardiology")

		err := f.svc.Claim(ctx, "Amy@Example.com", slotID, "Amy Pond")
		require.NoError(t, err)

		slot, _ := f.slots.GetByID(ctx, slotID)
		assert.Equal(t, "amy@example.com", slot.StudentEmail)
		assert.Equal(t, "Amy Pond", slot.StudentName)
		assert.Equal(t, 1, f.audit.count())
	})

	t.Run("locked blocks claims even in phase 3", func(t *testing.T) {
		f := newMatchingFixture()
		slotID := f.addSlot(t, "Cardiology")
		require.NoError(t, f.controls.UpdateMatchSettings(ctx, model.PhaseUnlimited, 100, true))

		err := f.svc.Claim(ctx, "amy@example.com", slotID, "Amy Pond")
		assert.ErrorIs(t, err, ErrMatchingLocked)
	})

	t.Run("missing slot", func(t *testing.T) {
		f := newMatchingFixture()
		err := f.svc.Claim(ctx, "amy@example.com", uuid.New(), "Amy Pond")
		assert.ErrorIs(t, err, ErrSlotNotFound)
	})

	t.Run("phase 0 is view only", func(t *testing.T) {
		f := newMatchingFixture()
		slotID := f.addSlot(t, "Primary Care")
		require.NoError(t, f.controls.UpdateMatchSettings(ctx, model.PhaseViewOnly, 100, false))

		err := f.svc.Claim(ctx, "amy@example.com", slotID, "Amy Pond")
		assert.ErrorIs(t, err, ErrPhaseForbidden)
	})

	t.Run("phase 1 allows only PCP specialties", func(t *testing.T) {
		f := newMatchingFixture()
		pcpID := f.addSlot(t, "Primary Care")
		cardioID := f.addSlot(t, "Cardiology")
		require.NoError(t, f.controls.UpdateMatchSettings(ctx, model.PhasePCPOnly, 100, false))

		assert.NoError(t, f.svc.Claim(ctx, "amy@example.com", pcpID, "Amy Pond"))
		assert.ErrorIs(t, f.svc.Claim(ctx, "amy@example.com", cardioID, "Amy Pond"), ErrPhaseForbidden)
	})

	t.Run("phase 2 caps at two slots", func(t *testing.T) {
		f := newMatchingFixture()
		first := f.addSlot(t, "Cardiology")
		second := f.addSlot(t, "Dermatology")
		third := f.addSlot(t, "Neurology")
		require.NoError(t, f.controls.UpdateMatchSettings(ctx, model.PhaseLimited, 100, false))

		require.NoError(t, f.svc.Claim(ctx, "amy@example.com", first, "Amy Pond"))
		require.NoError(t, f.svc.Claim(ctx, "amy@example.com", second, "Amy Pond"))
		assert.ErrorIs(t, f.svc.Claim(ctx, "amy@example.com", third, "Amy Pond"), ErrCapExceeded)
	})

	t.Run("already claimed slot", func(t *testing.T) {
		f := newMatchingFixture()
		slotID := f.addSlot(t, "Cardiology")

		require.NoError(t, f.svc.Claim(ctx, "amy@example.com", slotID, "Amy Pond"))
		assert.ErrorIs(t, f.svc.Claim(ctx, "rory@example.com", slotID, "Rory Williams"), ErrSlotAlreadyClaimed)
	})

	t.Run("concurrent claims: exactly one wins", func(t *testing.T) {
		f := newMatchingFixture()
		slotID := f.addSlot(t, "Cardiology")

		var wg sync.WaitGroup
		errs := make([]error, 2)
		emails := []string{"amy@example.com", "rory@example.com"}

		for i := range emails {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				errs[i] = f.svc.Claim(ctx, emails[i], slotID, emails[i])
			}(i)
		}
		wg.Wait()

		succeeded := 0
		for _, err := range errs {
			if err == nil {
				succeeded++
			} else {
				assert.ErrorIs(t, err, ErrSlotAlreadyClaimed)
			}
		}
		assert.Equal(t, 1, succeeded)
	})
}

func TestUnclaim(t *testing.T) {
	ctx := context.Background()

	t.Run("allowed while matching is locked", func(t *testing.T) {
		f := newMatchingFixture()
		slotID := f.addSlot(t, "Cardiology")
		require.NoError(t, f.svc.Claim(ctx, "amy@example.com", slotID, "Amy Pond"))
		require.NoError(t, f.controls.UpdateMatchSettings(ctx, model.PhaseUnlimited, 100, true))

		require.NoError(t, f.svc.Unclaim(ctx, "amy@example.com", slotID))

		slot, _ := f.slots.GetByID(ctx, slotID)
		assert.True(t, slot.IsOpen())
		assert.Empty(t, slot.StudentName)
	})

	t.Run("refused after confirmation regardless of lock", func(t *testing.T) {
		f := newMatchingFixture()
		slotID := f.addSlot(t, "Cardiology")
		require.NoError(t, f.svc.Claim(ctx, "amy@example.com", slotID, "Amy Pond"))
		require.NoError(t, f.confirmations.SetConfirmed(ctx, "amy@example.com"))

		assert.ErrorIs(t, f.svc.Unclaim(ctx, "amy@example.com", slotID), ErrAlreadyConfirmed)

		require.NoError(t, f.controls.UpdateMatchSettings(ctx, model.PhaseUnlimited, 100, true))
		assert.ErrorIs(t, f.svc.Unclaim(ctx, "amy@example.com", slotID), ErrAlreadyConfirmed)
	})

	t.Run("allowed again after admin clears confirmation", func(t *testing.T) {
		f := newMatchingFixture()
		slotID := f.addSlot(t, "Cardiology")
		require.NoError(t, f.svc.Claim(ctx, "amy@example.com", slotID, "Amy Pond"))
		require.NoError(t, f.confirmations.SetConfirmed(ctx, "amy@example.com"))

		require.NoError(t, f.svc.ClearConfirmation(ctx, "amy@example.com"))
		assert.NoError(t, f.svc.Unclaim(ctx, "amy@example.com", slotID))
	})
}

func TestConfirm(t *testing.T) {
	ctx := context.Background()

	t.Run("rejected while confirmations are closed", func(t *testing.T) {
		f := newMatchingFixture()
		_, err := f.svc.Confirm(ctx, "amy@example.com")
		assert.ErrorIs(t, err, ErrConfirmationsDisabled)
	})

	t.Run("sets flag and snapshots claims", func(t *testing.T) {
		f := newMatchingFixture()
		slotID := f.addSlot(t, "Cardiology")
		require.NoError(t, f.svc.Claim(ctx, "amy@example.com", slotID, "Amy Pond"))
		require.NoError(t, f.controls.SetConfirmationsEnabled(ctx, true))

		inserted, err := f.svc.Confirm(ctx, "amy@example.com")
		require.NoError(t, err)
		assert.Equal(t, 1, inserted)

		conf, _ := f.confirmations.Get(ctx, "amy@example.com")
		require.NotNil(t, conf)
		assert.True(t, conf.Confirmed)

		history, _ := f.history.ListByEmail(ctx, "amy@example.com")
		require.Len(t, history, 1)
		assert.Equal(t, slotID, history[0].SourceSlotID)
	})

	t.Run("confirm is not gated by matchingLocked", func(t *testing.T) {
		f := newMatchingFixture()
		require.NoError(t, f.controls.SetConfirmationsEnabled(ctx, true))
		require.NoError(t, f.controls.UpdateMatchSettings(ctx, model.PhaseUnlimited, 100, true))

		_, err := f.svc.Confirm(ctx, "amy@example.com")
		assert.NoError(t, err)
	})

	t.Run("snapshot failure is logged, not surfaced", func(t *testing.T) {
		f := newMatchingFixture()
		slotID := f.addSlot(t, "Cardiology")
		require.NoError(t, f.svc.Claim(ctx, "amy@example.com", slotID, "Amy Pond"))
		require.NoError(t, f.controls.SetConfirmationsEnabled(ctx, true))
		f.history.failUpserts = true

		_, err := f.svc.Confirm(ctx, "amy@example.com")
		assert.NoError(t, err)
	})

	t.Run("admin confirm skips the window check", func(t *testing.T) {
		f := newMatchingFixture()
		slotID := f.addSlot(t, "Cardiology")
		require.NoError(t, f.svc.Claim(ctx, "amy@example.com", slotID, "Amy Pond"))

		inserted, err := f.svc.AdminConfirm(ctx, "amy@example.com")
		require.NoError(t, err)
		assert.Equal(t, 1, inserted)
	})
}

func TestUpdateMatchSettings(t *testing.T) {
	ctx := context.Background()
	f := newMatchingFixture()

	assert.Error(t, f.svc.UpdateMatchSettings(ctx, model.Phase(7), 100, false))

	require.NoError(t, f.svc.UpdateMatchSettings(ctx, model.PhaseLimited, -5, true))
	ctrl, err := f.svc.GetControl(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.PhaseLimited, ctrl.Phase)
	assert.Equal(t, 0, ctrl.MaxSlots)
	assert.True(t, ctrl.MatchingLocked)
}
