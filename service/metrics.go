package service

import (
	"errors"
	"sync"
	"time"

	"votechain/blockchain"
	"votechain/models"
)

// MetricsCollector tracks admission and mining activity
type MetricsCollector struct {
	mu sync.RWMutex

	admissionStartTime time.Time
	admissionEndTime   time.Time
	acceptedCount      int
	rejectedCount      map[string]int
	admissionTotalTime time.Duration

	miningStartTime   time.Time
	miningEndTime     time.Time
	blocksMined       int
	blocksAborted     int
	minedTransactions int
	noncesTried       uint64
	miningTotalTime   time.Duration
}

// AdmissionMetrics contains counters for submitted votes
type AdmissionMetrics struct {
	StartTime      time.Time      `json:"start_time"`
	EndTime        time.Time      `json:"end_time"`
	Accepted       int            `json:"accepted"`
	Rejected       map[string]int `json:"rejected"`
	ProcessingTime int64          `json:"processing_time_ms"`
}

// MiningMetrics contains counters for mining attempts
type MiningMetrics struct {
	StartTime      time.Time `json:"start_time"`
	EndTime        time.Time `json:"end_time"`
	Blocks         int       `json:"blocks"`
	Aborted        int       `json:"aborted"`
	Transactions   int       `json:"transactions"`
	Nonces         uint64    `json:"nonces"`
	ProcessingTime int64     `json:"processing_time_ms"`
}

// MetricsResponse provides the metrics for all operations
type MetricsResponse struct {
	Admission AdmissionMetrics `json:"admission"`
	Mining    MiningMetrics    `json:"mining"`
}

func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{rejectedCount: make(map[string]int)}
}

// RejectionReason maps an admission error to a short metric label.
func RejectionReason(err error) string {
	switch {
	case errors.Is(err, blockchain.ErrInvalidSignature):
		return "invalid_signature"
	case errors.Is(err, blockchain.ErrDoubleVote):
		return "double_vote"
	case errors.Is(err, blockchain.ErrNotVote):
		return "not_vote"
	case errors.Is(err, ErrQueueFull):
		return "queue_full"
	case errors.Is(err, ErrQueueStopped):
		return "queue_stopped"
	case errors.Is(err, ErrSessionClosed):
		return "session_closed"
	default:
		return "other"
	}
}

// RecordAdmission records one admission attempt; err is the admission result.
func (mc *MetricsCollector) RecordAdmission(duration time.Duration, err error) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	now := time.Now()
	if mc.admissionStartTime.IsZero() {
		mc.admissionStartTime = now.Add(-duration)
	}
	mc.admissionEndTime = now
	mc.admissionTotalTime += duration

	if err != nil {
		mc.rejectedCount[RejectionReason(err)]++
		return
	}
	mc.acceptedCount++
}

// RecordMining records one mining attempt. A nil block means it was aborted.
func (mc *MetricsCollector) RecordMining(duration time.Duration, block *models.Block) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	now := time.Now()
	if mc.miningStartTime.IsZero() {
		mc.miningStartTime = now.Add(-duration)
	}
	mc.miningEndTime = now
	mc.miningTotalTime += duration

	if block == nil {
		mc.blocksAborted++
		return
	}
	mc.blocksMined++
	mc.minedTransactions += len(block.Transactions)
	mc.noncesTried += block.Nonce + 1
}

// GetMetrics returns current metrics for all operations
func (mc *MetricsCollector) GetMetrics() MetricsResponse {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	rejected := make(map[string]int, len(mc.rejectedCount))
	for reason, count := range mc.rejectedCount {
		rejected[reason] = count
	}

	return MetricsResponse{
		Admission: AdmissionMetrics{
			StartTime:      mc.admissionStartTime,
			EndTime:        mc.admissionEndTime,
			Accepted:       mc.acceptedCount,
			Rejected:       rejected,
			ProcessingTime: mc.admissionTotalTime.Milliseconds(),
		},
		Mining: MiningMetrics{
			StartTime:      mc.miningStartTime,
			EndTime:        mc.miningEndTime,
			Blocks:         mc.blocksMined,
			Aborted:        mc.blocksAborted,
			Transactions:   mc.minedTransactions,
			Nonces:         mc.noncesTried,
			ProcessingTime: mc.miningTotalTime.Milliseconds(),
		},
	}
}

// Reset clears all metrics
func (mc *MetricsCollector) Reset() {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	mc.admissionStartTime = time.Time{}
	mc.admissionEndTime = time.Time{}
	mc.acceptedCount = 0
	mc.rejectedCount = make(map[string]int)
	mc.admissionTotalTime = 0

	mc.miningStartTime = time.Time{}
	mc.miningEndTime = time.Time{}
	mc.blocksMined = 0
	mc.blocksAborted = 0
	mc.minedTransactions = 0
	mc.noncesTried = 0
	mc.miningTotalTime = 0
}
