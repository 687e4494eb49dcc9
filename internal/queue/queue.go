// Durable priority queue of application tasks plus the bounded
// application ledger. All lifecycle mutation goes through here and every
// mutation persists a full snapshot, so a restart resumes from the last
// consistent state.

package queue

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"go-easyapply-automation/internal/storage"
)

const (
	queueKey   = "queue"
	historyKey = "history"
	historyCap = 100
)

var (
	ErrInvalidJob   = errors.New("queue: job missing url or easy-apply capability")
	ErrDuplicateJob = errors.New("queue: job already queued")
)

type Queue struct {
	mu          sync.Mutex
	items       []*Item
	history     []HistoryEntry
	store       storage.Store
	maxAttempts int
	processing  bool
	now         func() time.Time
}

func New(store storage.Store, maxAttempts int) (*Queue, error) {
	q := &Queue{
		store:       store,
		maxAttempts: maxAttempts,
		now:         time.Now,
	}
	if err := q.load(); err != nil {
		return nil, err
	}
	return q, nil
}

// Enqueue validates and inserts a new item at the end of its priority
// block. Duplicate job ids or URLs in the active queue are rejected.
func (q *Queue) Enqueue(job JobRef, priority Priority) (*Item, error) {
	if job.URL == "" || !job.HasEasyApply {
		return nil, ErrInvalidJob
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	for _, it := range q.items {
		if (job.ID != "" && it.Job.ID == job.ID) || it.Job.URL == job.URL {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateJob, job.URL)
		}
	}

	item := &Item{
		ID:          uuid.New().String(),
		Job:         job,
		Status:      StatusPending,
		Priority:    priority,
		MaxAttempts: q.maxAttempts,
		AddedAt:     q.now(),
	}

	q.insertAtTierEnd(item)

	if err := q.persist(); err != nil {
		return nil, err
	}
	log.Printf("📥 Enqueued %q @ %s (priority=%s, queue=%d)", job.Title, job.Company, priority, len(q.items))
	return item.clone(), nil
}

// DequeueNext returns a copy of the head item without removing it.
// Removal only happens on a terminal transition.
func (q *Queue) DequeueNext() *Item {
	q.mu.Lock()
	defer q.mu.Unlock()

	for _, it := range q.items {
		if it.Status == StatusPending {
			return it.clone()
		}
	}
	return nil
}

// MarkProcessing transitions an item into flight.
func (q *Queue) MarkProcessing(id string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	it := q.byID(id)
	if it == nil {
		return fmt.Errorf("queue: item %s not found", id)
	}
	if it.Status != StatusPending {
		return fmt.Errorf("queue: item %s is %s, not pending", id, it.Status)
	}

	it.Status = StatusProcessing
	it.StartedAt = q.now()
	return q.persist()
}

// MarkCompleted records a successful application and drops the item
// from the active queue.
func (q *Queue) MarkCompleted(id string, duration time.Duration) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	it := q.byID(id)
	if it == nil {
		return fmt.Errorf("queue: item %s not found", id)
	}

	now := q.now()
	it.Status = StatusCompleted
	it.CompletedAt = now

	q.appendHistory(HistoryEntry{
		ID:         uuid.New().String(),
		JobID:      it.Job.ID,
		JobTitle:   it.Job.Title,
		Timestamp:  now,
		Outcome:    OutcomeSuccess,
		DurationMs: duration.Milliseconds(),
	})
	q.removeByID(id)
	return q.persist()
}

// MarkFailed counts an attempt. Items with attempts left go back to the
// end of their priority tier so one problematic job can't hog the head;
// exhausted items become terminal and are ledgered as failures.
func (q *Queue) MarkFailed(id string, errMsg string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	it := q.byID(id)
	if it == nil {
		return fmt.Errorf("queue: item %s not found", id)
	}

	now := q.now()
	it.Attempts++
	it.LastError = errMsg
	it.LastAttemptAt = now

	if it.Attempts < it.MaxAttempts {
		it.Status = StatusPending
		q.removeByID(id)
		q.insertAtTierEnd(it)
		log.Printf("🔁 Retry %d/%d for %q: %s", it.Attempts, it.MaxAttempts, it.Job.Title, errMsg)
		return q.persist()
	}

	it.Status = StatusFailed
	it.FailedAt = now
	q.appendHistory(HistoryEntry{
		ID:        uuid.New().String(),
		JobID:     it.Job.ID,
		JobTitle:  it.Job.Title,
		Timestamp: now,
		Outcome:   OutcomeFailure,
		Error:     errMsg,
	})
	q.removeByID(id)
	log.Printf("❌ Gave up on %q after %d attempts: %s", it.Job.Title, it.Attempts, errMsg)
	return q.persist()
}

// Remove cancels a single pending item. In-flight items run to their
// natural end; there is no preemption primitive.
func (q *Queue) Remove(id string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	it := q.byID(id)
	if it == nil {
		return fmt.Errorf("queue: item %s not found", id)
	}
	if it.Status != StatusPending {
		return fmt.Errorf("queue: item %s is %s and cannot be cancelled", id, it.Status)
	}

	it.Status = StatusCancelled
	q.removeByID(id)
	return q.persist()
}

// Clear cancels every pending item.
func (q *Queue) Clear() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	kept := q.items[:0]
	removed := 0
	for _, it := range q.items {
		if it.Status == StatusPending {
			it.Status = StatusCancelled
			removed++
			continue
		}
		kept = append(kept, it)
	}
	q.items = kept
	log.Printf("🧹 Cleared %d pending items", removed)
	return q.persist()
}

// SetProcessing flips the "a drain loop is active" flag surfaced in
// Status. Owned by the processor.
func (q *Queue) SetProcessing(active bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.processing = active
}

func (q *Queue) Status() StatusSummary {
	q.mu.Lock()
	defer q.mu.Unlock()

	s := StatusSummary{Total: len(q.items), IsProcessing: q.processing}
	for _, it := range q.items {
		switch it.Status {
		case StatusPending:
			s.Pending++
		case StatusProcessing:
			s.Processing++
		}
	}
	for _, h := range q.history {
		if h.Outcome == OutcomeFailure {
			s.Failed++
		}
	}
	return s
}

// History returns the most recent entries, newest first.
func (q *Queue) History(limit int) []HistoryEntry {
	q.mu.Lock()
	defer q.mu.Unlock()

	if limit <= 0 || limit > len(q.history) {
		limit = len(q.history)
	}
	out := make([]HistoryEntry, 0, limit)
	for i := len(q.history) - 1; i >= len(q.history)-limit; i-- {
		out = append(out, q.history[i])
	}
	return out
}

// EventTimes exposes the ledger timestamps for the rate limiter.
func (q *Queue) EventTimes() []time.Time {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]time.Time, len(q.history))
	for i, h := range q.history {
		out[i] = h.Timestamp
	}
	return out
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// ---- internals (callers hold q.mu) ----

func (q *Queue) byID(id string) *Item {
	for _, it := range q.items {
		if it.ID == id {
			return it
		}
	}
	return nil
}

func (q *Queue) removeByID(id string) {
	for i, it := range q.items {
		if it.ID == id {
			q.items = append(q.items[:i], q.items[i+1:]...)
			return
		}
	}
}

// insertAtTierEnd places item before the first strictly-lower-priority
// item, i.e. at the back of its own priority block.
func (q *Queue) insertAtTierEnd(item *Item) {
	idx := len(q.items)
	for i, it := range q.items {
		if it.Priority < item.Priority {
			idx = i
			break
		}
	}
	q.items = append(q.items, nil)
	copy(q.items[idx+1:], q.items[idx:])
	q.items[idx] = item
}

// insertAtTierFront puts item ahead of its tier. Used when reloading an
// interrupted in-flight item so it is retried first.
func (q *Queue) insertAtTierFront(item *Item) {
	idx := len(q.items)
	for i, it := range q.items {
		if it.Priority <= item.Priority {
			idx = i
			break
		}
	}
	q.items = append(q.items, nil)
	copy(q.items[idx+1:], q.items[idx:])
	q.items[idx] = item
}

func (q *Queue) appendHistory(entry HistoryEntry) {
	q.history = append(q.history, entry)
	if len(q.history) > historyCap {
		//evict oldest first
		q.history = q.history[len(q.history)-historyCap:]
	}
}

type snapshot struct {
	Items []*Item `json:"items"`
}

func (q *Queue) persist() error {
	items, err := json.MarshalIndent(snapshot{Items: q.items}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal queue: %w", err)
	}
	if err := q.store.Put(queueKey, items); err != nil {
		return fmt.Errorf("failed to persist queue: %w", err)
	}

	hist, err := json.MarshalIndent(q.history, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}
	if err := q.store.Put(historyKey, hist); err != nil {
		return fmt.Errorf("failed to persist history: %w", err)
	}
	return nil
}

func (q *Queue) load() error {
	data, err := q.store.Get(queueKey)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		//fresh start
	case err != nil:
		return fmt.Errorf("failed to load queue: %w", err)
	default:
		var snap snapshot
		if err := json.Unmarshal(data, &snap); err != nil {
			return fmt.Errorf("failed to parse queue snapshot: %w", err)
		}
		q.items = snap.Items
	}

	hist, err := q.store.Get(historyKey)
	switch {
	case errors.Is(err, storage.ErrNotFound):
	case err != nil:
		return fmt.Errorf("failed to load history: %w", err)
	default:
		if err := json.Unmarshal(hist, &q.history); err != nil {
			return fmt.Errorf("failed to parse history snapshot: %w", err)
		}
	}

	//an item caught mid-flight by a crash is resumable, not corrupt:
	//put it back at the front of its tier as pending
	var interrupted []*Item
	kept := q.items[:0]
	for _, it := range q.items {
		if it.Status == StatusProcessing {
			it.Status = StatusPending
			interrupted = append(interrupted, it)
			continue
		}
		kept = append(kept, it)
	}
	q.items = kept
	for _, it := range interrupted {
		q.insertAtTierFront(it)
		log.Printf("♻️ Recovered in-flight item %q as pending", it.Job.Title)
	}

	if len(q.items) > 0 || len(q.history) > 0 {
		log.Printf("📋 Loaded queue: %d items, %d history entries", len(q.items), len(q.history))
	}
	return nil
}

func (it *Item) clone() *Item {
	c := *it
	return &c
}
