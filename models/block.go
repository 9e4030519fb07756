package models

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"votechain/encryption"
)

// MaxDifficulty is the length of a hex-encoded SHA-256 digest.
const MaxDifficulty = sha256.Size * 2

// cancellation is checked once per this many nonces
const mineCheckInterval = 1024

var ErrInvalidDifficulty = errors.New("invalid difficulty")

type Block struct {
	Index        int64         `json:"index"`
	Transactions []Transaction `json:"transactions"`
	PreviousHash string        `json:"previous_hash"`
	Timestamp    float64       `json:"timestamp"`
	Nonce        uint64        `json:"nonce"`
	Hash         string        `json:"hash"`
}

// NewBlock creates a block stamped with the current time and nonce 0.
func NewBlock(index int64, txs []Transaction, previousHash string) *Block {
	return NewBlockAt(index, txs, previousHash, Now(), 0)
}

// NewBlockAt creates a block from explicit field values. The block takes its
// own copy of every transaction.
func NewBlockAt(index int64, txs []Transaction, previousHash string, timestamp float64, nonce uint64) *Block {
	owned := make([]Transaction, len(txs))
	for i, tx := range txs {
		owned[i] = cloneTransaction(tx)
	}

	block := &Block{
		Index:        index,
		Transactions: owned,
		PreviousHash: previousHash,
		Timestamp:    timestamp,
		Nonce:        nonce,
	}
	block.Hash = block.CalculateHash()
	return block
}

// Now returns the current time as seconds since the epoch.
func Now() float64 {
	return float64(time.Now().UnixNano()) / float64(time.Second)
}

// CalculateHash recomputes the digest of the block's current fields. The
// stored Hash is never consulted.
func (b *Block) CalculateHash() string {
	hash := sha256.Sum256(encodeBlockV1(b.Index, b.Transactions, b.PreviousHash, b.Timestamp, b.Nonce))
	return hex.EncodeToString(hash[:])
}

// MeetsDifficulty reports whether the stored hash starts with difficulty '0's.
func (b *Block) MeetsDifficulty(difficulty int) bool {
	return meetsTarget(b.Hash, difficulty)
}

func meetsTarget(hash string, difficulty int) bool {
	if difficulty < 0 || difficulty > len(hash) {
		return false
	}
	return strings.Count(hash[:difficulty], "0") == difficulty
}

// Mine searches nonces until the hash satisfies difficulty. It blocks until a
// proof is found.
func (b *Block) Mine(difficulty int) error {
	return b.MineContext(context.Background(), difficulty)
}

// MineContext is Mine with cancellation. On cancellation the block keeps the
// last nonce tried and ctx.Err() is returned.
func (b *Block) MineContext(ctx context.Context, difficulty int) error {
	if difficulty < 0 || difficulty > MaxDifficulty {
		return fmt.Errorf("%w: %d", ErrInvalidDifficulty, difficulty)
	}

	b.Hash = b.CalculateHash()
	if err := ctx.Err(); err != nil {
		return err
	}
	for !meetsTarget(b.Hash, difficulty) {
		b.Nonce++
		b.Hash = b.CalculateHash()

		if b.Nonce%mineCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
	}
	return nil
}

// HasValidTransactions reports whether every transaction is valid, stopping
// at the first that is not.
func (b *Block) HasValidTransactions() bool {
	return b.HasValidTransactionsWith(encryption.PlainVerifier())
}

func (b *Block) HasValidTransactionsWith(v encryption.Verifier) bool {
	for _, tx := range b.Transactions {
		if !tx.ValidWith(v) {
			return false
		}
	}
	return true
}

// Votes returns the vote transactions of the block in order.
func (b *Block) Votes() []*VoteTransaction {
	var votes []*VoteTransaction
	for _, tx := range b.Transactions {
		if vote, ok := tx.(*VoteTransaction); ok {
			votes = append(votes, vote)
		}
	}
	return votes
}
