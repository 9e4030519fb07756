package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"votechain/blockchain"
	"votechain/encryption"
)

func chainWithVotes(t *testing.T, groups ...[]string) *blockchain.Blockchain {
	bc := newTestChain(t)
	for _, group := range groups {
		for _, candidate := range group {
			require.NoError(t, bc.AddTransaction(signedVote(t, candidate)))
		}
		_, err := bc.MinePendingTransactions(context.Background(), "M1")
		require.NoError(t, err)
	}
	return bc
}

func TestCountVotes(t *testing.T) {
	bc := chainWithVotes(t, []string{"X", "Y"}, []string{"X"}, nil)
	vcs := NewVoteCountingService(bc, nil)

	assert.Empty(t, vcs.GetLatestResults().Results)

	results, err := vcs.CountVotes()
	require.NoError(t, err)
	assert.Equal(t, 3, results.TotalVotes)
	// rewards credit "M1" three times but are not votes
	assert.Equal(t, map[string]int{"X": 2, "Y": 1}, results.Results)
	assert.Equal(t, 4, results.ProcessedBlocks)
	assert.False(t, results.Encrypted)

	assert.Equal(t, []CandidateCount{{"X", 2}, {"Y", 1}}, results.Ranking())
	assert.Equal(t, results, vcs.GetLatestResults())
}

func TestCountVotesIgnoresPending(t *testing.T) {
	bc := chainWithVotes(t, []string{"X"})
	require.NoError(t, bc.AddTransaction(signedVote(t, "Y")))

	results, err := NewVoteCountingService(bc, nil).CountVotes()
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"X": 1}, results.Results)
}

func TestCountVotesRefusesInvalidChain(t *testing.T) {
	bc := chainWithVotes(t, []string{"X"})
	vcs := NewVoteCountingService(bc, nil)
	_, err := vcs.CountVotes()
	require.NoError(t, err)

	bc.Chain()[1].Votes()[0].Candidate = "Y"

	_, err = vcs.CountVotes()
	assert.ErrorIs(t, err, blockchain.ErrInvalidChain)
	// the last good result is kept
	assert.Equal(t, map[string]int{"X": 1}, vcs.GetLatestResults().Results)
}

func TestCountVotesEncrypted(t *testing.T) {
	scheme, err := encryption.NewPaillierScheme(512)
	require.NoError(t, err)

	bc := chainWithVotes(t, []string{"X", "Y", "X"}, []string{"Z", "X"})
	results, err := NewVoteCountingService(bc, scheme).CountVotes()
	require.NoError(t, err)

	assert.True(t, results.Encrypted)
	assert.Equal(t, "Paillier-512", results.Scheme)
	assert.Equal(t, map[string]int{"X": 3, "Y": 1, "Z": 1}, results.Results)
	assert.Equal(t, []CandidateCount{{"X", 3}, {"Y", 1}, {"Z", 1}}, results.Ranking())
}

func TestCrossCheckMismatch(t *testing.T) {
	scheme, err := encryption.NewPaillierScheme(512)
	require.NoError(t, err)
	vcs := NewVoteCountingService(newTestChain(t), scheme)

	two, err := scheme.Encrypt(2)
	require.NoError(t, err)

	err = vcs.crossCheck(map[string]int{"X": 3}, map[string][]byte{"X": two})
	assert.ErrorIs(t, err, ErrTallyMismatch)

	err = vcs.crossCheck(map[string]int{"X": 2, "Y": 1}, map[string][]byte{"X": two})
	assert.ErrorIs(t, err, ErrTallyMismatch)

	assert.NoError(t, vcs.crossCheck(map[string]int{"X": 2}, map[string][]byte{"X": two}))
}
