package service

import (
	"testing"

	"github.com/stretchr/testify/require"

	"votechain/blockchain"
	"votechain/models"
	"votechain/wallet"
)

const testDifficulty = 2

func newTestChain(t *testing.T) *blockchain.Blockchain {
	bc, err := blockchain.New(testDifficulty)
	require.NoError(t, err)
	return bc
}

func signedVote(t *testing.T, candidate string) *models.VoteTransaction {
	w, err := wallet.New()
	require.NoError(t, err)
	tx, err := w.Vote(candidate)
	require.NoError(t, err)
	return tx
}
