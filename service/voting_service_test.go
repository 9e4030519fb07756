package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"votechain/blockchain"
	"votechain/config"
	"votechain/models"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Difficulty = testDifficulty
	cfg.Miner.ID = "M1"
	cfg.SigCache.Size = 64
	return cfg
}

func newTestService(t *testing.T, cfg *config.Config) *VotingService {
	vs, err := NewVotingService(cfg)
	require.NoError(t, err)
	vs.Start(context.Background())
	t.Cleanup(vs.Stop)
	return vs
}

func TestVotingServiceEndToEnd(t *testing.T) {
	cfg := testConfig()
	cfg.Tally.PaillierBits = 512
	vs := newTestService(t, cfg)

	a, b, c := signedVote(t, "X"), signedVote(t, "Y"), signedVote(t, "X")
	require.NoError(t, vs.CastVote(a))
	require.NoError(t, vs.CastVote(b))
	assert.NoError(t, waitResult(t, vs.SubmitVote(c)).Err)
	assert.ErrorIs(t, vs.CastVote(a), blockchain.ErrDoubleVote)

	block, err := vs.Mine(context.Background())
	require.NoError(t, err)
	require.Len(t, block.Transactions, 4)
	assert.Equal(t, models.RewardSender, block.Transactions[3].Record().Sender)
	assert.Equal(t, "M1", block.Transactions[3].Record().Candidate)

	chain := vs.Chain()
	assert.Equal(t, 2, chain.BlockCount)
	assert.True(t, chain.IsValid)
	assert.Zero(t, chain.Pending)
	assert.Equal(t, block.Hash, chain.LastHash)
	assert.NoError(t, vs.ValidateChain())

	results, err := vs.Results()
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"X": 2, "Y": 1}, results.Results)
	assert.True(t, results.Encrypted)
	assert.Equal(t, results, vs.LatestResults())

	metrics := vs.Metrics()
	assert.Equal(t, 3, metrics.Admission.Accepted)
	assert.Equal(t, 1, metrics.Admission.Rejected["double_vote"])
	assert.Equal(t, 1, metrics.Mining.Blocks)

	// validation re-verifies the three signatures admission already checked
	hits, _ := vs.SignatureCacheStats()
	assert.GreaterOrEqual(t, hits, uint64(3))
}

func TestVotingServiceSessionClosed(t *testing.T) {
	vs := newTestService(t, testConfig())
	assert.True(t, vs.IsSessionActive())

	require.NoError(t, vs.CastVote(signedVote(t, "X")))
	vs.EndVotingSession()
	assert.False(t, vs.IsSessionActive())

	assert.ErrorIs(t, vs.CastVote(signedVote(t, "Y")), ErrSessionClosed)
	assert.ErrorIs(t, waitResult(t, vs.SubmitVote(signedVote(t, "Z"))).Err, ErrSessionClosed)
	assert.Equal(t, 2, vs.Metrics().Admission.Rejected["session_closed"])

	// votes admitted before the end are still sealed
	block, err := vs.Mine(context.Background())
	require.NoError(t, err)
	assert.Len(t, block.Votes(), 1)
}

func TestVotingServiceBackgroundMining(t *testing.T) {
	vs := newTestService(t, testConfig())

	blocks := make(chan *models.Block, 1)
	vs.OnBlock(func(block *models.Block) { blocks <- block })

	require.NoError(t, vs.CastVote(signedVote(t, "X")))
	vs.TriggerMining()

	block := waitBlock(t, blocks)
	assert.Len(t, block.Votes(), 1)
	assert.Equal(t, 2, vs.Blockchain().Len())
}

func TestNewVotingServiceRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Difficulty = 65
	_, err := NewVotingService(cfg)
	assert.Error(t, err)
}

func TestSubmitVoteTypedNil(t *testing.T) {
	vs := newTestService(t, testConfig())
	assert.ErrorIs(t, waitResult(t, vs.SubmitVote((*models.VoteTransaction)(nil))).Err, blockchain.ErrNotVote)
}
