//go:build !integration

package usecase

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"fashion-ai-studio/internal/domain"
	"fashion-ai-studio/internal/domain/model"
	"fashion-ai-studio/internal/domain/ports/adapter"
	"fashion-ai-studio/internal/domain/ports/repository"
)

func newLogger() *zerolog.Logger { l := zerolog.Nop(); return &l }

type noTx struct{}

type mockTxManager struct{}

func (m *mockTxManager) WithTx(ctx context.Context, _ pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	return fn(ctx, noTx{})
}

//
// ---------------- in-memory ledger repo ----------------
//

type memLedgerRepo struct {
	mu       sync.Mutex
	balances map[string]int64
	entries  []*model.LedgerEntry
	nextID   int

	errAppend error
}

func newMemLedgerRepo() *memLedgerRepo {
	return &memLedgerRepo{balances: map[string]int64{}}
}

func (m *memLedgerRepo) GetBalance(ctx context.Context, tx repository.Tx, userID string) (*model.CreditBalance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.balances[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &model.CreditBalance{UserID: userID, Balance: b, UpdatedAt: time.Now()}, nil
}

func (m *memLedgerRepo) DecrementIfEnough(ctx context.Context, tx repository.Tx, userID string, amount int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.balances[userID] < amount {
		return 0, domain.ErrInsufficientCredits
	}
	m.balances[userID] -= amount
	return m.balances[userID], nil
}

func (m *memLedgerRepo) IncrementBalance(ctx context.Context, tx repository.Tx, userID string, amount int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balances[userID] += amount
	return m.balances[userID], nil
}

func (m *memLedgerRepo) AppendEntry(ctx context.Context, tx repository.Tx, entry *model.LedgerEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.errAppend != nil {
		return m.errAppend
	}
	for _, e := range m.entries {
		if entry.IdempotencyKey != nil && e.IdempotencyKey != nil && *e.IdempotencyKey == *entry.IdempotencyKey {
			return domain.ErrAlreadyExists
		}
		if entry.ExternalEventID != nil && e.ExternalEventID != nil && *e.ExternalEventID == *entry.ExternalEventID {
			return domain.ErrAlreadyExists
		}
	}
	m.nextID++
	cp := *entry
	if cp.ID == "" {
		cp.ID = "entry-" + strconv.Itoa(m.nextID)
	}
	m.entries = append(m.entries, &cp)
	return nil
}

func (m *memLedgerRepo) FindEntryByIdempotencyKey(ctx context.Context, tx repository.Tx, key string) (*model.LedgerEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.entries {
		if e.IdempotencyKey != nil && *e.IdempotencyKey == key {
			cp := *e
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memLedgerRepo) FindEntryByExternalEventID(ctx context.Context, tx repository.Tx, eventID string) (*model.LedgerEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.entries {
		if e.ExternalEventID != nil && *e.ExternalEventID == eventID {
			cp := *e
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memLedgerRepo) ListEntriesByUser(ctx context.Context, tx repository.Tx, userID string, limit int) ([]*model.LedgerEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*model.LedgerEntry, 0)
	for i := len(m.entries) - 1; i >= 0 && len(out) < limit; i-- {
		if m.entries[i].UserID == userID {
			cp := *m.entries[i]
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memLedgerRepo) countByType(userID string, txType model.TxType) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, e := range m.entries {
		if e.UserID == userID && e.TxType == txType {
			n++
		}
	}
	return n
}

//
// ---------------- in-memory job repo ----------------
//

type memJobRepo struct {
	mu   sync.Mutex
	jobs map[string]*model.GenerationJob

	errCreate error
}

func newMemJobRepo() *memJobRepo { return &memJobRepo{jobs: map[string]*model.GenerationJob{}} }

func (m *memJobRepo) Create(ctx context.Context, tx repository.Tx, job *model.GenerationJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.errCreate != nil {
		return m.errCreate
	}
	cp := *job
	m.jobs[job.ID] = &cp
	return nil
}

func (m *memJobRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.GenerationJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *j
	return &cp, nil
}

func (m *memJobRepo) FindByIDForUser(ctx context.Context, tx repository.Tx, id, userID string) (*model.GenerationJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[id]
	if !ok || j.UserID != userID {
		return nil, domain.ErrNotFound
	}
	cp := *j
	return &cp, nil
}

func (m *memJobRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string, limit int) ([]*model.GenerationJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*model.GenerationJob, 0)
	for _, j := range m.jobs {
		if j.UserID == userID {
			cp := *j
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, k int) bool { return out[i].CreatedAt.After(out[k].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memJobRepo) ClaimOne(ctx context.Context, workerID string) (*model.GenerationJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var oldest *model.GenerationJob
	for _, j := range m.jobs {
		if j.Status != model.JobStatusQueued {
			continue
		}
		if oldest == nil || j.QueuedAt.Before(oldest.QueuedAt) {
			oldest = j
		}
	}
	if oldest == nil {
		return nil, domain.ErrNotFound
	}
	now := time.Now()
	oldest.Status = model.JobStatusProcessing
	oldest.StartedAt = &now
	oldest.WorkerID = workerID
	oldest.Attempts++
	cp := *oldest
	return &cp, nil
}

func (m *memJobRepo) MarkCompleted(ctx context.Context, tx repository.Tx, jobID string, outputAssetIDs []string, provider string) error {
	return m.transition(jobID, model.JobStatusProcessing, func(j *model.GenerationJob) {
		now := time.Now()
		j.Status = model.JobStatusCompleted
		j.CompletedAt = &now
		j.OutputAssetIDs = outputAssetIDs
		j.Provider = provider
		j.ErrorMessage = ""
	})
}

func (m *memJobRepo) Requeue(ctx context.Context, tx repository.Tx, jobID, errorMessage string, toBack bool) error {
	return m.transition(jobID, model.JobStatusProcessing, func(j *model.GenerationJob) {
		j.Status = model.JobStatusQueued
		j.ErrorMessage = errorMessage
		if toBack {
			j.QueuedAt = time.Now()
		}
	})
}

func (m *memJobRepo) MarkFailed(ctx context.Context, tx repository.Tx, jobID, errorMessage string) error {
	return m.transition(jobID, model.JobStatusProcessing, func(j *model.GenerationJob) {
		now := time.Now()
		j.Status = model.JobStatusFailed
		j.CompletedAt = &now
		j.ErrorMessage = errorMessage
	})
}

func (m *memJobRepo) Cancel(ctx context.Context, tx repository.Tx, jobID, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[jobID]
	if !ok || j.UserID != userID {
		return domain.ErrJobTerminal
	}
	if j.Status != model.JobStatusPending && j.Status != model.JobStatusQueued {
		return domain.ErrJobTerminal
	}
	now := time.Now()
	j.Status = model.JobStatusCancelled
	j.CompletedAt = &now
	return nil
}

func (m *memJobRepo) transition(jobID string, from model.JobStatus, apply func(*model.GenerationJob)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[jobID]
	if !ok || j.Status != from {
		return domain.ErrJobTerminal
	}
	apply(j)
	return nil
}

//
// ---------------- supporting mocks ----------------
//

type memJobEventRepo struct {
	mu     sync.Mutex
	events []*model.JobEvent
}

func newMemJobEventRepo() *memJobEventRepo { return &memJobEventRepo{} }

func (m *memJobEventRepo) Append(ctx context.Context, tx repository.Tx, ev *model.JobEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *ev
	cp.ID = int64(len(m.events) + 1)
	m.events = append(m.events, &cp)
	return nil
}

func (m *memJobEventRepo) ListByJob(ctx context.Context, tx repository.Tx, jobID string) ([]*model.JobEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*model.JobEvent, 0)
	for _, e := range m.events {
		if e.JobID == jobID {
			cp := *e
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memJobEventRepo) types(jobID string) []model.JobEventType {
	evs, _ := m.ListByJob(context.Background(), nil, jobID)
	out := make([]model.JobEventType, 0, len(evs))
	for _, e := range evs {
		out = append(out, e.EventType)
	}
	return out
}

type memAssetRepo struct {
	mu     sync.Mutex
	assets map[string]*model.Asset
}

func newMemAssetRepo() *memAssetRepo { return &memAssetRepo{assets: map[string]*model.Asset{}} }

func (m *memAssetRepo) Save(ctx context.Context, tx repository.Tx, a *model.Asset) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *a
	m.assets[a.ID] = &cp
	return nil
}

func (m *memAssetRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Asset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.assets[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *memAssetRepo) FindByIDForUser(ctx context.Context, tx repository.Tx, id, userID string) (*model.Asset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.assets[id]
	if !ok || a.UserID != userID {
		return nil, domain.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *memAssetRepo) FindByIDs(ctx context.Context, tx repository.Tx, ids []string) ([]*model.Asset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*model.Asset, 0, len(ids))
	for _, id := range ids {
		if a, ok := m.assets[id]; ok {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

type memPaymentEventRepo struct {
	mu      sync.Mutex
	records map[string]*model.PaymentEventRecord
}

func newMemPaymentEventRepo() *memPaymentEventRepo {
	return &memPaymentEventRepo{records: map[string]*model.PaymentEventRecord{}}
}

func (m *memPaymentEventRepo) FindByEventID(ctx context.Context, tx repository.Tx, eventID string) (*model.PaymentEventRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[eventID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *memPaymentEventRepo) Insert(ctx context.Context, tx repository.Tx, rec *model.PaymentEventRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[rec.EventID]; ok {
		return domain.ErrAlreadyExists
	}
	cp := *rec
	cp.ID = int64(len(m.records) + 1)
	m.records[rec.EventID] = &cp
	return nil
}

func (m *memPaymentEventRepo) MarkProcessed(ctx context.Context, tx repository.Tx, eventID string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.records[eventID]; ok {
		r.Processed = true
		r.ProcessedAt = &at
	}
	return nil
}

type mockProvider struct {
	mu    sync.Mutex
	calls int
	err   error
	delay time.Duration
}

func (p *mockProvider) Name() string { return "mock" }

func (p *mockProvider) Generate(ctx context.Context, req adapter.GenerationRequest) (*adapter.GenerationResult, error) {
	p.mu.Lock()
	p.calls++
	err := p.err
	p.mu.Unlock()
	if p.delay > 0 {
		select {
		case <-time.After(p.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	return &adapter.GenerationResult{Data: []byte{0x89, 0x50, 0x4e, 0x47}, ContentType: "image/png"}, nil
}

type mockStorage struct {
	mu      sync.Mutex
	puts    int
	errPut  error
	errSign error
}

func (s *mockStorage) SignReadURL(ctx context.Context, bucket, path string, ttl time.Duration) (string, error) {
	if s.errSign != nil {
		return "", s.errSign
	}
	return "https://signed.example/" + bucket + "/" + path, nil
}

func (s *mockStorage) PutObject(ctx context.Context, bucket, path string, data []byte, contentType string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.errPut != nil {
		return "", s.errPut
	}
	s.puts++
	return path, nil
}
