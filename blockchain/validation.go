package blockchain

import (
	"errors"

	"votechain/encryption"
	"votechain/models"
)

// IsChainValid reports whether Validate finds no problem.
func (bc *Blockchain) IsChainValid() bool {
	return bc.Validate() == nil
}

// Validate re-derives every block hash, link and signature and returns a
// *ValidationError for the first block that does not hold up.
func (bc *Blockchain) Validate() error {
	blocks := bc.Chain()

	err := validateBlocks(blocks, bc.difficulty, bc.verifier)
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			bc.log.Warn("Chain validation failed", "index", verr.Index, "reason", verr.Reason)
		}
	}
	return err
}

func validateBlocks(blocks []*models.Block, difficulty int, v encryption.Verifier) error {
	if len(blocks) == 0 {
		return invalid(0, "chain has no genesis block")
	}
	if err := validateGenesis(blocks[0], difficulty); err != nil {
		return err
	}

	voters := make(map[string]struct{})
	for i := 1; i < len(blocks); i++ {
		current := blocks[i]
		previous := blocks[i-1]
		index := int64(i)

		if current.Hash != current.CalculateHash() {
			return invalid(index, "stored hash %s does not match contents", current.Hash)
		}
		if current.PreviousHash != previous.Hash {
			return invalid(index, "previous hash %s does not link to block %d", current.PreviousHash, i-1)
		}
		if current.Index != index {
			return invalid(index, "block claims index %d", current.Index)
		}
		if !current.MeetsDifficulty(difficulty) {
			return invalid(index, "hash does not meet difficulty %d", difficulty)
		}
		if !current.HasValidTransactionsWith(v) {
			return invalid(index, "block contains an invalid transaction")
		}
		if err := validateLayout(current, voters); err != nil {
			return err
		}
	}
	return nil
}

func validateGenesis(genesis *models.Block, difficulty int) error {
	if genesis.Index != 0 {
		return invalid(0, "genesis block claims index %d", genesis.Index)
	}
	if genesis.PreviousHash != "0" {
		return invalid(0, "genesis previous hash is %q", genesis.PreviousHash)
	}
	if genesis.Hash != genesis.CalculateHash() {
		return invalid(0, "stored hash %s does not match contents", genesis.Hash)
	}
	if !genesis.MeetsDifficulty(difficulty) {
		return invalid(0, "hash does not meet difficulty %d", difficulty)
	}
	for _, tx := range genesis.Transactions {
		sys, ok := tx.(*models.SystemTransaction)
		if !ok || !sys.IsGenesis() || !sys.IsValid() {
			return invalid(0, "genesis block may only hold the genesis seed")
		}
	}
	return nil
}

// validateLayout checks that a mined block is votes followed by exactly one
// reward, and that no sender votes twice anywhere in the chain.
func validateLayout(block *models.Block, voters map[string]struct{}) error {
	n := len(block.Transactions)
	if n == 0 {
		return invalid(block.Index, "block has no reward transaction")
	}
	if reward, ok := block.Transactions[n-1].(*models.SystemTransaction); !ok || !reward.IsReward() {
		return invalid(block.Index, "last transaction is not a reward")
	}

	for _, tx := range block.Transactions[:n-1] {
		vote, ok := tx.(*models.VoteTransaction)
		if !ok {
			return invalid(block.Index, "system transaction outside reward position")
		}
		voter, err := encryption.NormalizePublicKey(vote.Sender)
		if err != nil {
			return invalid(block.Index, "vote sender is not a public key")
		}
		if _, seen := voters[voter]; seen {
			return invalid(block.Index, "sender %s voted twice", shorten(vote.Sender))
		}
		voters[voter] = struct{}{}
	}
	return nil
}
