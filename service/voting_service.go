package service

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/log"

	"votechain/blockchain"
	"votechain/config"
	"votechain/encryption"
	"votechain/models"
)

// VotingService wires a chain together with its admission queue, miner,
// metrics and tally according to a Config.
type VotingService struct {
	chain    *blockchain.Blockchain
	verifier *encryption.CachedVerifier
	metrics  *MetricsCollector
	queue    *QueueProcessor
	miner    *Miner
	counting *VoteCountingService
	session  *VotingSession
	log      log.Logger
}

// BlockchainResponse summarizes the chain for display.
type BlockchainResponse struct {
	BlockCount int             `json:"block_count"`
	Blocks     []*models.Block `json:"blocks"`
	Pending    int             `json:"pending"`
	IsValid    bool            `json:"is_valid"`
	LastHash   string          `json:"last_hash"`
}

func NewVotingService(cfg *config.Config) (*VotingService, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := log.New("component", "service")

	verifier, err := encryption.NewCachedVerifier(cfg.SigCache.Size)
	if err != nil {
		return nil, fmt.Errorf("failed to create signature cache: %w", err)
	}

	chain, err := blockchain.New(cfg.Difficulty,
		blockchain.WithVerifier(verifier),
		blockchain.WithLogger(log.New("component", "chain")))
	if err != nil {
		return nil, err
	}

	var scheme *encryption.PaillierScheme
	if cfg.Tally.PaillierBits > 0 {
		scheme, err = encryption.NewPaillierScheme(cfg.Tally.PaillierBits)
		if err != nil {
			return nil, err
		}
	}

	metrics := NewMetricsCollector()
	vs := &VotingService{
		chain:    chain,
		verifier: verifier,
		metrics:  metrics,
		queue:    NewQueueProcessor(chain, metrics, cfg.Queue.Size),
		miner:    NewMiner(chain, cfg.Miner.ID, cfg.Miner.Interval, metrics),
		counting: NewVoteCountingService(chain, scheme),
		session:  NewVotingSession(cfg.Session.Duration),
		log:      logger,
	}

	logger.Info("Voting service ready", "difficulty", cfg.Difficulty, "miner", vs.miner.ID(),
		"genesis", chain.LatestBlock().Hash)
	return vs, nil
}

// Start launches the admission worker and the background miner.
func (vs *VotingService) Start(ctx context.Context) {
	vs.queue.Start()
	vs.miner.Start(ctx)
}

func (vs *VotingService) Stop() {
	vs.miner.Stop()
	vs.queue.Stop()
}

// CastVote admits a signed vote synchronously.
func (vs *VotingService) CastVote(tx models.Transaction) error {
	if !vs.session.IsActive() {
		vs.metrics.RecordAdmission(0, ErrSessionClosed)
		return ErrSessionClosed
	}

	startTime := time.Now()
	err := vs.chain.AddTransaction(tx)
	vs.metrics.RecordAdmission(time.Since(startTime), err)
	return err
}

// SubmitVote queues a vote for asynchronous admission. Start must have been
// called for the result to arrive.
func (vs *VotingService) SubmitVote(tx models.Transaction) <-chan *ProcessingResult {
	if !vs.session.IsActive() {
		vs.metrics.RecordAdmission(0, ErrSessionClosed)
		resultCh := make(chan *ProcessingResult, 1)
		resultCh <- &ProcessingResult{Err: ErrSessionClosed, Timestamp: time.Now().Unix()}
		close(resultCh)
		return resultCh
	}
	return vs.queue.Submit(tx)
}

// Mine seals the pending pool into a block now.
func (vs *VotingService) Mine(ctx context.Context) (*models.Block, error) {
	return vs.miner.MineNow(ctx)
}

func (vs *VotingService) OnBlock(handler BlockHandler) {
	vs.miner.AddHandler(handler)
}

// TriggerMining nudges the background miner.
func (vs *VotingService) TriggerMining() {
	vs.miner.Trigger()
}

func (vs *VotingService) Blockchain() *blockchain.Blockchain {
	return vs.chain
}

func (vs *VotingService) Chain() *BlockchainResponse {
	blocks := vs.chain.Chain()
	return &BlockchainResponse{
		BlockCount: len(blocks),
		Blocks:     blocks,
		Pending:    vs.chain.PendingCount(),
		IsValid:    vs.chain.IsChainValid(),
		LastHash:   blocks[len(blocks)-1].Hash,
	}
}

func (vs *VotingService) ValidateChain() error {
	return vs.chain.Validate()
}

func (vs *VotingService) Results() (*VotingResults, error) {
	return vs.counting.CountVotes()
}

func (vs *VotingService) LatestResults() *VotingResults {
	return vs.counting.GetLatestResults()
}

func (vs *VotingService) Metrics() MetricsResponse {
	return vs.metrics.GetMetrics()
}

// SignatureCacheStats reports hits and misses of the signature cache.
func (vs *VotingService) SignatureCacheStats() (hits, misses uint64) {
	return vs.verifier.Stats()
}

func (vs *VotingService) IsSessionActive() bool {
	return vs.session.IsActive()
}

// EndVotingSession closes admission. Votes already admitted can still be mined.
func (vs *VotingService) EndVotingSession() {
	vs.session.End()
	vs.log.Info("Voting session ended", "voters", vs.chain.VoterCount(), "pending", vs.chain.PendingCount())
}
