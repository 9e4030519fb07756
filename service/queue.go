package service

import (
	"errors"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/google/uuid"

	"votechain/blockchain"
	"votechain/models"
)

var (
	ErrQueueFull    = errors.New("vote queue is full")
	ErrQueueStopped = errors.New("vote queue is stopped")
)

// QueueProcessor admits submitted transactions asynchronously, in submission
// order, on a single worker.
type QueueProcessor struct {
	chain   *blockchain.Blockchain
	metrics *MetricsCollector
	log     log.Logger

	requests     chan *SubmitRequest
	shutdownCh   chan struct{}
	processingWg sync.WaitGroup

	mu      sync.RWMutex
	started bool
	stopped bool
}

// SubmitRequest represents a queued transaction
type SubmitRequest struct {
	ID       string
	Tx       models.Transaction
	ResultCh chan<- *ProcessingResult
}

// ProcessingResult contains the result of an asynchronous admission. Err is
// nil when the transaction was admitted.
type ProcessingResult struct {
	RequestID     string
	TransactionID string
	Err           error
	Timestamp     int64
}

func (r *ProcessingResult) Success() bool {
	return r.Err == nil
}

func NewQueueProcessor(chain *blockchain.Blockchain, metrics *MetricsCollector, queueSize int) *QueueProcessor {
	return &QueueProcessor{
		chain:      chain,
		metrics:    metrics,
		log:        log.New("component", "queue"),
		requests:   make(chan *SubmitRequest, queueSize),
		shutdownCh: make(chan struct{}),
	}
}

// Start begins processing queued transactions
func (qp *QueueProcessor) Start() {
	qp.mu.Lock()
	defer qp.mu.Unlock()
	if qp.started || qp.stopped {
		return
	}
	qp.started = true

	qp.processingWg.Add(1)
	go qp.worker()
}

// Stop shuts down the worker. Requests still queued fail with ErrQueueStopped.
func (qp *QueueProcessor) Stop() {
	qp.mu.Lock()
	if qp.stopped {
		qp.mu.Unlock()
		return
	}
	qp.stopped = true
	qp.mu.Unlock()

	close(qp.shutdownCh)
	qp.processingWg.Wait()

	for {
		select {
		case req := <-qp.requests:
			qp.reply(req, ErrQueueStopped)
		default:
			return
		}
	}
}

// Submit queues tx and returns a channel that receives exactly one result.
func (qp *QueueProcessor) Submit(tx models.Transaction) <-chan *ProcessingResult {
	resultCh := make(chan *ProcessingResult, 1)
	req := &SubmitRequest{
		ID:       uuid.New().String(),
		Tx:       tx,
		ResultCh: resultCh,
	}

	qp.mu.RLock()
	defer qp.mu.RUnlock()

	if qp.stopped {
		qp.reply(req, ErrQueueStopped)
		return resultCh
	}

	select {
	case qp.requests <- req:
	default:
		qp.log.Warn("Vote queue is full, request dropped", "request", req.ID)
		qp.reply(req, ErrQueueFull)
	}
	return resultCh
}

// SubmitBatch queues every transaction in order
func (qp *QueueProcessor) SubmitBatch(txs []models.Transaction) []<-chan *ProcessingResult {
	resultChannels := make([]<-chan *ProcessingResult, len(txs))
	for i, tx := range txs {
		resultChannels[i] = qp.Submit(tx)
	}
	return resultChannels
}

func (qp *QueueProcessor) worker() {
	defer qp.processingWg.Done()

	for {
		select {
		case <-qp.shutdownCh:
			return
		case req := <-qp.requests:
			startTime := time.Now()
			err := qp.chain.AddTransaction(req.Tx)
			qp.metrics.RecordAdmission(time.Since(startTime), err)
			qp.reply(req, err)
		}
	}
}

func (qp *QueueProcessor) reply(req *SubmitRequest, err error) {
	result := &ProcessingResult{
		RequestID: req.ID,
		Err:       err,
		Timestamp: time.Now().Unix(),
	}
	// only admitted transactions are known to be well formed
	if err == nil {
		result.TransactionID = models.TransactionID(req.Tx)
	}
	if err != nil && !errors.Is(err, ErrQueueStopped) && !errors.Is(err, ErrQueueFull) {
		qp.log.Debug("Vote rejected", "request", req.ID, "err", err)
	}
	req.ResultCh <- result
	close(req.ResultCh)
}
