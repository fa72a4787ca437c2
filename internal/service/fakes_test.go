package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/apolloyim/the-match/internal/model"
	"github.com/google/uuid"
)

// In-memory реализации хранилищ для тестов. Мьютекс нужен тестам на
// гонки: каждая операция атомарна, как одиночный запрос к базе.

type fakeControlStore struct {
	mu   sync.Mutex
	ctrl model.Control
}

func newFakeControlStore() *fakeControlStore {
	return &fakeControlStore{ctrl: model.Control{Phase: model.PhaseUnlimited, MaxSlots: 100}}
}

func (f *fakeControlStore) Get(ctx context.Context) (*model.Control, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ctrl := f.ctrl
	return &ctrl, nil
}

func (f *fakeControlStore) UpdateMatchSettings(ctx context.Context, phase model.Phase, maxSlots int, locked bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ctrl.Phase = phase
	f.ctrl.MaxSlots = maxSlots
	f.ctrl.MatchingLocked = locked
	return nil
}

func (f *fakeControlStore) SetConfirmationsEnabled(ctx context.Context, enabled bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ctrl.ConfirmationsEnabled = enabled
	return nil
}

type fakeSlotStore struct {
	mu    sync.Mutex
	slots map[uuid.UUID]*model.Slot
}

func newFakeSlotStore() *fakeSlotStore {
	return &fakeSlotStore{slots: make(map[uuid.UUID]*model.Slot)}
}

func (f *fakeSlotStore) Create(ctx context.Context, slot *model.Slot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if slot.ID == uuid.Nil {
		slot.ID = uuid.New()
	}
	slot.CreatedAt = time.Now()
	cp := *slot
	f.slots[slot.ID] = &cp
	return nil
}

func (f *fakeSlotStore) GetByID(ctx context.Context, id uuid.UUID) (*model.Slot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	slot, ok := f.slots[id]
	if !ok {
		return nil, nil
	}
	cp := *slot
	return &cp, nil
}

func (f *fakeSlotStore) GetAll(ctx context.Context) ([]*model.Slot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.Slot
	for _, slot := range f.slots {
		cp := *slot
		out = append(out, &cp)
	}
	return out, nil
}

func (f *fakeSlotStore) GetOpen(ctx context.Context) ([]*model.Slot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.Slot
	for _, slot := range f.slots {
		if slot.StudentEmail == "" {
			cp := *slot
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeSlotStore) GetByStudent(ctx context.Context, email string) ([]*model.Slot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.Slot
	for _, slot := range f.slots {
		if slot.StudentEmail == email {
			cp := *slot
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeSlotStore) CountByStudent(ctx context.Context, email string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, slot := range f.slots {
		if slot.StudentEmail == email {
			count++
		}
	}
	return count, nil
}

// Claim повторяет условный UPDATE: успех только по свободному слоту
func (f *fakeSlotStore) Claim(ctx context.Context, slotID uuid.UUID, email, studentName string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	slot, ok := f.slots[slotID]
	if !ok || slot.StudentEmail != "" {
		return false, nil
	}
	slot.StudentEmail = email
	slot.StudentName = studentName
	return true, nil
}

func (f *fakeSlotStore) Unclaim(ctx context.Context, slotID uuid.UUID, email string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	slot, ok := f.slots[slotID]
	if !ok || slot.StudentEmail != email {
		return false, nil
	}
	slot.StudentEmail = ""
	slot.StudentName = ""
	return true, nil
}

type fakeStudentStore struct {
	mu       sync.Mutex
	students map[string]*model.Student
	nextID   int64
}

func newFakeStudentStore() *fakeStudentStore {
	return &fakeStudentStore{students: make(map[string]*model.Student)}
}

func (f *fakeStudentStore) Create(ctx context.Context, st *model.Student) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.students[st.Email]; ok {
		return false, nil
	}
	f.nextID++
	st.ID = f.nextID
	st.CreatedAt = time.Now()
	cp := *st
	f.students[st.Email] = &cp
	return true, nil
}

func (f *fakeStudentStore) GetByEmail(ctx context.Context, email string) (*model.Student, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	st, ok := f.students[email]
	if !ok {
		return nil, nil
	}
	cp := *st
	return &cp, nil
}

func (f *fakeStudentStore) GetAll(ctx context.Context) ([]*model.Student, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.Student
	for _, st := range f.students {
		cp := *st
		out = append(out, &cp)
	}
	return out, nil
}

func (f *fakeStudentStore) Activate(ctx context.Context, email, firstName, lastName string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if st, ok := f.students[email]; ok {
		st.FirstName = firstName
		st.LastName = lastName
	}
	return nil
}

func (f *fakeStudentStore) UpdateProfile(ctx context.Context, email, firstName, lastName, school, groupLabel string, isLyte bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if st, ok := f.students[email]; ok {
		st.FirstName = firstName
		st.LastName = lastName
		st.School = school
		st.GroupLabel = groupLabel
		st.IsLyte = isLyte
	}
	return nil
}

func (f *fakeStudentStore) SetArchived(ctx context.Context, email string, archived bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	st, ok := f.students[email]
	if !ok {
		return nil
	}
	st.IsArchived = archived
	if archived {
		now := time.Now()
		st.ArchivedAt = &now
	} else {
		st.ArchivedAt = nil
	}
	return nil
}

func (f *fakeStudentStore) setArchivedAt(email string, at time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if st, ok := f.students[email]; ok {
		st.IsArchived = true
		st.ArchivedAt = &at
	}
}

func (f *fakeStudentStore) ArchiveByEmails(ctx context.Context, emails []string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	now := time.Now()
	for _, email := range emails {
		if st, ok := f.students[email]; ok && !st.IsArchived {
			st.IsArchived = true
			st.ArchivedAt = &now
			n++
		}
	}
	return n, nil
}

func (f *fakeStudentStore) ArchiveByGroup(ctx context.Context, groupLabel string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	now := time.Now()
	for _, st := range f.students {
		if st.GroupLabel == groupLabel && !st.IsArchived {
			st.IsArchived = true
			st.ArchivedAt = &now
			n++
		}
	}
	return n, nil
}

func (f *fakeStudentStore) ListActiveGroups(ctx context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	seen := make(map[string]struct{})
	var groups []string
	for _, st := range f.students {
		if st.IsArchived || st.GroupLabel == "" {
			continue
		}
		if _, ok := seen[st.GroupLabel]; !ok {
			seen[st.GroupLabel] = struct{}{}
			groups = append(groups, st.GroupLabel)
		}
	}
	return groups, nil
}

func (f *fakeStudentStore) ListArchivedBefore(ctx context.Context, cutoff time.Time) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var emails []string
	for _, st := range f.students {
		if st.IsArchived && st.ArchivedAt != nil && !st.ArchivedAt.After(cutoff) {
			emails = append(emails, st.Email)
		}
	}
	return emails, nil
}

type fakeConfirmationStore struct {
	mu        sync.Mutex
	confirmed map[string]bool
}

func newFakeConfirmationStore() *fakeConfirmationStore {
	return &fakeConfirmationStore{confirmed: make(map[string]bool)}
}

func (f *fakeConfirmationStore) Get(ctx context.Context, email string) (*model.Confirmation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	confirmed, ok := f.confirmed[email]
	if !ok {
		return nil, nil
	}
	return &model.Confirmation{Email: email, Confirmed: confirmed}, nil
}

func (f *fakeConfirmationStore) SetConfirmed(ctx context.Context, email string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.confirmed[email] = true
	return nil
}

func (f *fakeConfirmationStore) Clear(ctx context.Context, email string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.confirmed, email)
	return nil
}

func (f *fakeConfirmationStore) ClearAll(ctx context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := int64(len(f.confirmed))
	f.confirmed = make(map[string]bool)
	return n, nil
}

func (f *fakeConfirmationStore) ListConfirmed(ctx context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var emails []string
	for email, confirmed := range f.confirmed {
		if confirmed {
			emails = append(emails, email)
		}
	}
	return emails, nil
}

type historyKey struct {
	email  string
	source uuid.UUID
}

type fakeHistoryStore struct {
	mu      sync.Mutex
	records map[historyKey]*model.ArchivedSlot

	failUpserts bool
	failDeletes bool
}

func newFakeHistoryStore() *fakeHistoryStore {
	return &fakeHistoryStore{records: make(map[historyKey]*model.ArchivedSlot)}
}

// Upsert повторяет семантику ON CONFLICT: поля снимка неизменны,
// повтор обновляет только captured_at
func (f *fakeHistoryStore) Upsert(ctx context.Context, rec *model.ArchivedSlot) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failUpserts {
		return false, errors.New("history store unavailable")
	}
	key := historyKey{email: rec.StudentEmail, source: rec.SourceSlotID}
	if existing, ok := f.records[key]; ok {
		existing.CapturedAt = time.Now()
		return false, nil
	}
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	rec.CapturedAt = time.Now()
	cp := *rec
	f.records[key] = &cp
	return true, nil
}

func (f *fakeHistoryStore) Create(ctx context.Context, rec *model.ArchivedSlot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if rec.SourceSlotID == uuid.Nil {
		rec.SourceSlotID = uuid.New()
	}
	rec.CapturedAt = time.Now()
	cp := *rec
	f.records[historyKey{email: rec.StudentEmail, source: rec.SourceSlotID}] = &cp
	return nil
}

func (f *fakeHistoryStore) Update(ctx context.Context, rec *model.ArchivedSlot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.records {
		if existing.ID == rec.ID && existing.StudentEmail == rec.StudentEmail {
			existing.PhysName = rec.PhysName
			existing.PhysSpecialty = rec.PhysSpecialty
			existing.Date = rec.Date
			existing.TimeStart = rec.TimeStart
			existing.TimeEnd = rec.TimeEnd
			existing.Location = rec.Location
			existing.Notes = rec.Notes
			existing.Season = rec.Season
			return nil
		}
	}
	return nil
}

func (f *fakeHistoryStore) Delete(ctx context.Context, id uuid.UUID, email string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for key, rec := range f.records {
		if rec.ID == id && rec.StudentEmail == email {
			delete(f.records, key)
			return nil
		}
	}
	return nil
}

func (f *fakeHistoryStore) ListByEmail(ctx context.Context, email string) ([]*model.ArchivedSlot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.ArchivedSlot
	for _, rec := range f.records {
		if rec.StudentEmail == email {
			cp := *rec
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeHistoryStore) DeleteByEmails(ctx context.Context, emails []string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failDeletes {
		return 0, errors.New("history store unavailable")
	}
	want := make(map[string]struct{}, len(emails))
	for _, email := range emails {
		want[email] = struct{}{}
	}
	var deleted int64
	for key, rec := range f.records {
		if _, ok := want[rec.StudentEmail]; ok {
			delete(f.records, key)
			deleted++
		}
	}
	return deleted, nil
}

type fakeHourLogStore struct {
	mu   sync.Mutex
	adjs map[uuid.UUID]*model.HourAdjustment
}

func newFakeHourLogStore() *fakeHourLogStore {
	return &fakeHourLogStore{adjs: make(map[uuid.UUID]*model.HourAdjustment)}
}

func (f *fakeHourLogStore) Insert(ctx context.Context, adj *model.HourAdjustment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if adj.ID == uuid.Nil {
		adj.ID = uuid.New()
	}
	adj.CreatedAt = time.Now()
	cp := *adj
	f.adjs[adj.ID] = &cp
	return nil
}

func (f *fakeHourLogStore) Delete(ctx context.Context, id uuid.UUID, email string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if adj, ok := f.adjs[id]; ok && adj.StudentEmail == email {
		delete(f.adjs, id)
	}
	return nil
}

func (f *fakeHourLogStore) ListByEmail(ctx context.Context, email string) ([]*model.HourAdjustment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.HourAdjustment
	for _, adj := range f.adjs {
		if adj.StudentEmail == email {
			cp := *adj
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeHourLogStore) SumByEmail(ctx context.Context, email string) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sum := 0.0
	for _, adj := range f.adjs {
		if adj.StudentEmail == email {
			sum += adj.DeltaHours
		}
	}
	return sum, nil
}

type fakeAuditStore struct {
	mu      sync.Mutex
	entries []*model.AuditEntry
}

func (f *fakeAuditStore) Insert(ctx context.Context, entry *model.AuditEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	entry.ID = int64(len(f.entries) + 1)
	entry.LoggedAt = time.Now()
	cp := *entry
	f.entries = append(f.entries, &cp)
	return nil
}

func (f *fakeAuditStore) ListRecent(ctx context.Context, limit int) ([]*model.AuditEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.AuditEntry
	for i := len(f.entries) - 1; i >= 0 && len(out) < limit; i-- {
		cp := *f.entries[i]
		out = append(out, &cp)
	}
	return out, nil
}

func (f *fakeAuditStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.entries)
}
