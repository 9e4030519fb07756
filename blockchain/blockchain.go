package blockchain

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/log"

	"votechain/encryption"
	"votechain/models"
)

// Blockchain is an in-memory vote ledger. It owns the blocks, the pool of
// admitted but unmined votes and the registry of senders that have voted.
type Blockchain struct {
	mu      sync.RWMutex
	chain   []*models.Block
	pending []models.Transaction
	voters  map[string]struct{}

	// serializes mining; each attempt builds on the latest block
	mineMu sync.Mutex

	difficulty int
	verifier   encryption.Verifier
	log        log.Logger
}

type Option func(*Blockchain)

// WithVerifier replaces the signature verifier, e.g. with a cached one.
func WithVerifier(v encryption.Verifier) Option {
	return func(bc *Blockchain) {
		bc.verifier = v
	}
}

func WithLogger(l log.Logger) Option {
	return func(bc *Blockchain) {
		bc.log = l
	}
}

// New creates a chain holding only the genesis block, mined at difficulty.
func New(difficulty int, opts ...Option) (*Blockchain, error) {
	if difficulty < 0 || difficulty > models.MaxDifficulty {
		return nil, fmt.Errorf("%w: %d", models.ErrInvalidDifficulty, difficulty)
	}

	bc := &Blockchain{
		voters:     make(map[string]struct{}),
		difficulty: difficulty,
		verifier:   encryption.PlainVerifier(),
		log:        log.Root(),
	}
	for _, opt := range opts {
		opt(bc)
	}

	genesis, err := createGenesisBlock(difficulty)
	if err != nil {
		return nil, err
	}
	bc.chain = []*models.Block{genesis}
	bc.log.Debug("Created genesis block", "hash", genesis.Hash, "difficulty", difficulty)

	return bc, nil
}

func createGenesisBlock(difficulty int) (*models.Block, error) {
	genesis := models.NewBlock(0, []models.Transaction{models.NewGenesisTransaction()}, "0")
	if err := genesis.Mine(difficulty); err != nil {
		return nil, fmt.Errorf("failed to mine genesis block: %w", err)
	}
	return genesis, nil
}

func (bc *Blockchain) Difficulty() int {
	return bc.difficulty
}

// AddTransaction admits a signed vote into the pending pool. The signature
// check, the double-vote check and the registry insert happen atomically.
func (bc *Blockchain) AddTransaction(tx models.Transaction) error {
	vote, ok := tx.(*models.VoteTransaction)
	if !ok || vote == nil {
		return ErrNotVote
	}

	bc.mu.Lock()
	defer bc.mu.Unlock()

	if !vote.ValidWith(bc.verifier) {
		bc.log.Debug("Rejected vote", "reason", ErrInvalidSignature, "sender", shorten(vote.Sender))
		return ErrInvalidSignature
	}

	// a valid signature implies a decodable key
	voter, err := encryption.NormalizePublicKey(vote.Sender)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	if _, voted := bc.voters[voter]; voted {
		bc.log.Debug("Rejected vote", "reason", ErrDoubleVote, "sender", shorten(vote.Sender))
		return ErrDoubleVote
	}

	admitted := *vote
	bc.pending = append(bc.pending, &admitted)
	bc.voters[voter] = struct{}{}

	bc.log.Debug("Admitted vote", "sender", shorten(vote.Sender), "pending", len(bc.pending))
	return nil
}

// AddTransactions admits each transaction in order and returns one result per
// transaction; a nil entry means the transaction was admitted.
func (bc *Blockchain) AddTransactions(txs []models.Transaction) []error {
	results := make([]error, len(txs))
	for i, tx := range txs {
		results[i] = bc.AddTransaction(tx)
	}
	return results
}

// MinePendingTransactions seals every pending vote plus a reward for minerID
// into a new block and appends it. The pool is handed off atomically, so votes
// admitted while the proof-of-work runs wait for the next block. If ctx is
// cancelled the handed-off votes go back to the front of the pool.
func (bc *Blockchain) MinePendingTransactions(ctx context.Context, minerID string) (*models.Block, error) {
	bc.mineMu.Lock()
	defer bc.mineMu.Unlock()

	bc.mu.Lock()
	batch := bc.pending
	bc.pending = nil
	latest := bc.chain[len(bc.chain)-1]
	index := int64(len(bc.chain))
	bc.mu.Unlock()

	txs := make([]models.Transaction, 0, len(batch)+1)
	txs = append(txs, batch...)
	txs = append(txs, models.NewRewardTransaction(minerID))

	start := time.Now()
	block := models.NewBlock(index, txs, latest.Hash)
	if err := block.MineContext(ctx, bc.difficulty); err != nil {
		bc.mu.Lock()
		restored := make([]models.Transaction, 0, len(batch)+len(bc.pending))
		restored = append(restored, batch...)
		bc.pending = append(restored, bc.pending...)
		bc.mu.Unlock()

		bc.log.Warn("Mining aborted", "index", index, "nonce", block.Nonce, "err", err)
		return nil, err
	}

	bc.mu.Lock()
	bc.chain = append(bc.chain, block)
	bc.mu.Unlock()

	bc.log.Info("Mined block", "index", index, "hash", block.Hash, "txs", len(block.Transactions),
		"nonce", block.Nonce, "elapsed", time.Since(start))
	return block, nil
}

// Chain returns the blocks in order. The slice is a copy but the blocks are
// shared and must be treated as read-only.
func (bc *Blockchain) Chain() []*models.Block {
	bc.mu.RLock()
	defer bc.mu.RUnlock()

	blocks := make([]*models.Block, len(bc.chain))
	copy(blocks, bc.chain)
	return blocks
}

func (bc *Blockchain) LatestBlock() *models.Block {
	bc.mu.RLock()
	defer bc.mu.RUnlock()
	return bc.chain[len(bc.chain)-1]
}

func (bc *Blockchain) Len() int {
	bc.mu.RLock()
	defer bc.mu.RUnlock()
	return len(bc.chain)
}

// Pending returns a copy of the pending pool.
func (bc *Blockchain) Pending() []models.Transaction {
	bc.mu.RLock()
	defer bc.mu.RUnlock()

	pending := make([]models.Transaction, len(bc.pending))
	copy(pending, bc.pending)
	return pending
}

func (bc *Blockchain) PendingCount() int {
	bc.mu.RLock()
	defer bc.mu.RUnlock()
	return len(bc.pending)
}

// HasVoted reports whether a vote from sender has been admitted.
func (bc *Blockchain) HasVoted(sender string) bool {
	voter, err := encryption.NormalizePublicKey(sender)
	if err != nil {
		return false
	}

	bc.mu.RLock()
	defer bc.mu.RUnlock()
	_, voted := bc.voters[voter]
	return voted
}

func (bc *Blockchain) VoterCount() int {
	bc.mu.RLock()
	defer bc.mu.RUnlock()
	return len(bc.voters)
}

func shorten(s string) string {
	if len(s) <= 16 {
		return s
	}
	return s[:8] + "…" + s[len(s)-8:]
}
