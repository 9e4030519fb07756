package service

import (
	"context"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/google/uuid"

	"votechain/blockchain"
	"votechain/models"
)

type BlockHandler func(block *models.Block)

// Miner seals pending votes into blocks, either on a fixed interval or when
// triggered. Each block credits the miner's id with a reward transaction.
type Miner struct {
	chain    *blockchain.Blockchain
	minerID  string
	interval time.Duration
	metrics  *MetricsCollector
	log      log.Logger

	handlers    []BlockHandler
	handlersMux sync.Mutex

	trigger chan struct{}
	wg      sync.WaitGroup

	mu      sync.Mutex
	cancel  context.CancelFunc
	started bool
	stopped bool
}

// NewMiner creates a miner. An empty minerID is replaced by a random one and
// a zero interval disables timed mining.
func NewMiner(chain *blockchain.Blockchain, minerID string, interval time.Duration, metrics *MetricsCollector) *Miner {
	if minerID == "" {
		minerID = "miner-" + uuid.New().String()
	}
	return &Miner{
		chain:    chain,
		minerID:  minerID,
		interval: interval,
		metrics:  metrics,
		log:      log.New("component", "miner", "id", minerID),
		trigger:  make(chan struct{}, 1),
	}
}

func (m *Miner) ID() string {
	return m.minerID
}

func (m *Miner) AddHandler(blockHandler BlockHandler) {
	m.handlersMux.Lock()
	defer m.handlersMux.Unlock()
	m.handlers = append(m.handlers, blockHandler)
}

// Start runs the background loop until ctx is done or Stop is called. Only
// the first call starts a loop.
func (m *Miner) Start(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.started || m.stopped {
		return
	}
	m.started = true

	ctx, cancel := context.WithCancel(ctx)
	m.cancel = cancel

	m.wg.Add(1)
	m.log.Info("Started miner", "interval", m.interval)

	go func() {
		defer m.wg.Done()

		var tick <-chan time.Time
		if m.interval > 0 {
			ticker := time.NewTicker(m.interval)
			defer ticker.Stop()
			tick = ticker.C
		}

		for {
			select {
			case <-ctx.Done():
				return
			case <-tick:
			case <-m.trigger:
			}
			if m.chain.PendingCount() == 0 {
				continue
			}
			if _, err := m.MineNow(ctx); err != nil && ctx.Err() == nil {
				m.log.Warn("Failed to mine block", "err", err)
			}
		}
	}()
}

// Trigger asks the background loop to mine as soon as possible.
func (m *Miner) Trigger() {
	select {
	case m.trigger <- struct{}{}:
	default:
	}
}

// MineNow mines the pending pool synchronously, even when it is empty.
func (m *Miner) MineNow(ctx context.Context) (*models.Block, error) {
	startTime := time.Now()
	block, err := m.chain.MinePendingTransactions(ctx, m.minerID)
	if m.metrics != nil {
		m.metrics.RecordMining(time.Since(startTime), block)
	}
	if err != nil {
		return nil, err
	}

	m.handlersMux.Lock()
	handlers := make([]BlockHandler, len(m.handlers))
	copy(handlers, m.handlers)
	m.handlersMux.Unlock()

	for _, handler := range handlers {
		handler(block)
	}
	return block, nil
}

// Stop cancels any mining in progress and waits for the loop to exit.
func (m *Miner) Stop() {
	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return
	}
	m.stopped = true
	cancel := m.cancel
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	m.wg.Wait()
	m.log.Info("Stopped miner")
}
