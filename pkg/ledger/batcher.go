// Package ledger buffers balance-affecting writes and flushes them to
// durable storage in batches, trading a bounded durability window (at most
// one flush interval) for a hot path that never waits on storage I/O.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/spinworks/wallet-core/pkg/metrics"
	"github.com/spinworks/wallet-core/pkg/models"
	"github.com/spinworks/wallet-core/pkg/storage"
)

// ErrQueueFull is returned when the bounded entry queue cannot accept
// another entry before the next flush.
var ErrQueueFull = errors.New("ledger queue full")

// Config holds the batcher's tunables.
type Config struct {
	// FlushInterval is how often the queue is drained regardless of depth.
	FlushInterval time.Duration

	// BatchSize triggers an early flush once this many entries are queued.
	BatchSize int

	// QueueCapacity bounds the in-memory queue. Append fails with
	// ErrQueueFull beyond it rather than growing without limit.
	QueueCapacity int
}

// Batcher accumulates ledger entries, spin records, and dirty wallet images
// and writes them through a storage.BatchWriter on a timer or size trigger,
// whichever fires first. A failed flush re-queues the batch at the head,
// preserving per-wallet insertion order, and retries on the next tick.
type Batcher struct {
	cfg    Config
	store  storage.BatchWriter
	logger *slog.Logger

	mu    sync.Mutex
	txs   []models.Transaction
	spins []models.SpinRecord
	dirty map[string]models.WalletDelta

	// flushMu serializes flushes so a ForceFlush can never race the ticker
	// loop and write a newer batch durably ahead of an older one.
	flushMu sync.Mutex

	kick chan struct{}
	quit chan struct{}
	done chan struct{}
}

// New creates a batcher. Start must be called before entries are flushed.
func New(store storage.BatchWriter, cfg Config, logger *slog.Logger) *Batcher {
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.QueueCapacity <= 0 {
		cfg.QueueCapacity = 10000
	}
	return &Batcher{
		cfg:    cfg,
		store:  store,
		logger: logger,
		dirty:  make(map[string]models.WalletDelta),
		kick:   make(chan struct{}, 1),
		quit:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// Append enqueues a ledger entry. It never blocks beyond the queue's own
// mutex; a full queue is reported as ErrQueueFull.
func (b *Batcher) Append(tx models.Transaction) error {
	b.mu.Lock()
	if len(b.txs) >= b.cfg.QueueCapacity {
		b.mu.Unlock()
		return ErrQueueFull
	}
	b.txs = append(b.txs, tx)
	depth := len(b.txs)
	b.mu.Unlock()

	metrics.LedgerQueueDepth.Set(float64(depth))
	if depth >= b.cfg.BatchSize {
		b.requestFlush()
	}
	return nil
}

// AppendSpin enqueues a spin record for the durable spin log.
func (b *Batcher) AppendSpin(rec models.SpinRecord) error {
	b.mu.Lock()
	if len(b.spins) >= b.cfg.QueueCapacity {
		b.mu.Unlock()
		return ErrQueueFull
	}
	b.spins = append(b.spins, rec)
	b.mu.Unlock()
	return nil
}

// MarkDirty records the wallet image to persist on the next flush. The
// newest image per wallet wins, so a flush performs a single durable wallet
// update per wallet.
func (b *Batcher) MarkDirty(delta models.WalletDelta) {
	b.mu.Lock()
	if cur, ok := b.dirty[delta.UserID]; !ok || cur.Version < delta.Version {
		b.dirty[delta.UserID] = delta
	}
	b.mu.Unlock()
}

// Start launches the flush loop.
func (b *Batcher) Start() {
	go b.loop()
}

// Stop drains the queue one final time and stops the flush loop.
func (b *Batcher) Stop(ctx context.Context) error {
	err := b.ForceFlush(ctx)
	close(b.quit)
	<-b.done
	return err
}

// ForceFlush synchronously drains the queue. Callers that need write-through
// durability (admin adjustments, withdrawals) use this to bypass the
// batching window.
func (b *Batcher) ForceFlush(ctx context.Context) error {
	return b.flush(ctx)
}

func (b *Batcher) requestFlush() {
	select {
	case b.kick <- struct{}{}:
	default:
	}
}

func (b *Batcher) loop() {
	defer close(b.done)
	ticker := time.NewTicker(b.cfg.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			b.flushWithLog()
		case <-b.kick:
			b.flushWithLog()
		case <-b.quit:
			return
		}
	}
}

func (b *Batcher) flushWithLog() {
	if err := b.flush(context.Background()); err != nil {
		b.logger.Error("ledger flush failed, batch re-queued",
			slog.String("error", err.Error()))
	}
}

// flush drains the current batch and writes it. Ledger entries go first so
// that a wallet image is never durable ahead of the transactions that
// explain it.
func (b *Batcher) flush(ctx context.Context) error {
	b.flushMu.Lock()
	defer b.flushMu.Unlock()

	b.mu.Lock()
	if len(b.txs) == 0 && len(b.spins) == 0 && len(b.dirty) == 0 {
		b.mu.Unlock()
		return nil
	}
	txs := b.txs
	spins := b.spins
	dirty := b.dirty
	b.txs = nil
	b.spins = nil
	b.dirty = make(map[string]models.WalletDelta)
	b.mu.Unlock()

	err := b.write(ctx, txs, spins, dirty)
	if err != nil {
		b.requeue(txs, spins, dirty)
		metrics.BatchFlushesTotal.WithLabelValues("error").Inc()
		metrics.BatchEntriesRequeued.Add(float64(len(txs)))
		return err
	}

	metrics.BatchFlushesTotal.WithLabelValues("ok").Inc()
	metrics.LedgerQueueDepth.Set(0)
	return nil
}

func (b *Batcher) write(ctx context.Context, txs []models.Transaction, spins []models.SpinRecord, dirty map[string]models.WalletDelta) error {
	if len(txs) > 0 {
		if err := b.store.AppendTransactions(ctx, txs); err != nil {
			return fmt.Errorf("failed to append transactions: %w", err)
		}
	}
	if len(spins) > 0 {
		if err := b.store.AppendSpinRecords(ctx, spins); err != nil {
			return fmt.Errorf("failed to append spin records: %w", err)
		}
	}
	if len(dirty) > 0 {
		deltas := make([]models.WalletDelta, 0, len(dirty))
		for _, d := range dirty {
			deltas = append(deltas, d)
		}
		if err := b.store.PersistWalletBatch(ctx, deltas); err != nil {
			return fmt.Errorf("failed to persist wallet batch: %w", err)
		}
	}
	return nil
}

// requeue puts a failed batch back at the head of the queue so the next
// flush retries it ahead of newer entries, preserving insertion order
// within each wallet. Dirty images only restore when nothing newer arrived
// for the same wallet in the meantime.
func (b *Batcher) requeue(txs []models.Transaction, spins []models.SpinRecord, dirty map[string]models.WalletDelta) {
	b.mu.Lock()
	b.txs = append(txs, b.txs...)
	b.spins = append(spins, b.spins...)
	for id, d := range dirty {
		if cur, ok := b.dirty[id]; !ok || cur.Version < d.Version {
			b.dirty[id] = d
		}
	}
	depth := len(b.txs)
	b.mu.Unlock()
	metrics.LedgerQueueDepth.Set(float64(depth))
}

// Depth reports the number of queued ledger entries.
func (b *Batcher) Depth() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.txs)
}
