package blockchain

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"votechain/models"
)

func TestMiningCancellationRestoresPool(t *testing.T) {
	bc := newTestChain(t)
	first := vote(t, newWallet(t), "X")
	second := vote(t, newWallet(t), "Y")
	require.NoError(t, bc.AddTransaction(first))
	require.NoError(t, bc.AddTransaction(second))

	// unreachable target, so only cancellation ends the search
	bc.difficulty = models.MaxDifficulty
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	block, err := bc.MinePendingTransactions(ctx, "M1")
	assert.Nil(t, block)
	assert.ErrorIs(t, err, context.Canceled)

	pending := bc.Pending()
	require.Len(t, pending, 2)
	assert.Equal(t, first.Record(), pending[0].Record())
	assert.Equal(t, second.Record(), pending[1].Record())
	assert.Equal(t, 1, bc.Len())

	bc.difficulty = testDifficulty
	block, err = bc.MinePendingTransactions(context.Background(), "M1")
	require.NoError(t, err)
	assert.Len(t, block.Transactions, 3)
	assert.True(t, bc.IsChainValid())
}

func TestValidateDetectsInjectedDoubleVote(t *testing.T) {
	bc := newTestChain(t)
	w := newWallet(t)
	tx := vote(t, w, "X")
	require.NoError(t, bc.AddTransaction(tx))
	_, err := bc.MinePendingTransactions(context.Background(), "M1")
	require.NoError(t, err)

	// a second block replaying the same sender, built around admission
	latest := bc.LatestBlock()
	replay := models.NewBlock(2, []models.Transaction{vote(t, w, "Y"), models.NewRewardTransaction("M1")}, latest.Hash)
	require.NoError(t, replay.Mine(testDifficulty))
	bc.chain = append(bc.chain, replay)

	err = bc.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "voted twice")
}

func TestValidateLayout(t *testing.T) {
	w := newWallet(t)
	data := []struct {
		name string
		txs  []models.Transaction
	}{
		{"no reward", []models.Transaction{vote(t, w, "X")}},
		{"empty", nil},
		{"reward first", []models.Transaction{models.NewRewardTransaction("M1"), vote(t, w, "X")}},
		{"genesis seed in block", []models.Transaction{models.NewGenesisTransaction(), models.NewRewardTransaction("M1")}},
	}

	for _, d := range data {
		bc := newTestChain(t)
		block := models.NewBlock(1, d.txs, bc.LatestBlock().Hash)
		require.NoError(t, block.Mine(testDifficulty))
		bc.chain = append(bc.chain, block)
		assert.False(t, bc.IsChainValid(), d.name)
	}
}

func TestValidateBlockOrder(t *testing.T) {
	bc := newTestChain(t)
	mineVotes(t, bc, []string{"X"}, []string{"Y"})

	bc.chain[1], bc.chain[2] = bc.chain[2], bc.chain[1]
	assert.False(t, bc.IsChainValid())
}

func TestValidateEmptyChain(t *testing.T) {
	err := validateBlocks(nil, 0, nil)
	assert.ErrorIs(t, err, ErrInvalidChain)
}
