package service

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/log"

	"votechain/blockchain"
	"votechain/encryption"
)

var ErrTallyMismatch = errors.New("encrypted tally does not match plaintext tally")

// VoteCountingService tallies the votes sealed in a chain. With a Paillier
// scheme configured every vote is also added homomorphically per candidate
// and the decrypted totals must agree with the plaintext count.
type VoteCountingService struct {
	chain  *blockchain.Blockchain
	scheme *encryption.PaillierScheme
	log    log.Logger

	mu      sync.RWMutex
	results *VotingResults
}

// VotingResults represents the final vote count
type VotingResults struct {
	TotalVotes      int            `json:"total_votes"`
	Results         map[string]int `json:"results"`
	ProcessedBlocks int            `json:"processed_blocks"`
	Encrypted       bool           `json:"encrypted"`
	Scheme          string         `json:"scheme,omitempty"`
}

// CandidateCount is one row of a tally sorted by votes.
type CandidateCount struct {
	Candidate string `json:"candidate"`
	Votes     int    `json:"votes"`
}

// NewVoteCountingService creates a counter; scheme may be nil.
func NewVoteCountingService(chain *blockchain.Blockchain, scheme *encryption.PaillierScheme) *VoteCountingService {
	return &VoteCountingService{
		chain:  chain,
		scheme: scheme,
		log:    log.New("component", "tally"),
	}
}

// CountVotes counts every vote in the chain. Reward and genesis transactions
// are not votes and are never counted. An invalid chain is not counted.
func (vcs *VoteCountingService) CountVotes() (*VotingResults, error) {
	blocks := vcs.chain.Chain()
	if err := vcs.chain.Validate(); err != nil {
		return nil, fmt.Errorf("refusing to count: %w", err)
	}

	results := &VotingResults{
		Results:         make(map[string]int),
		ProcessedBlocks: len(blocks),
	}
	encrypted := make(map[string][]byte)

	for _, block := range blocks {
		for _, vote := range block.Votes() {
			results.Results[vote.Candidate]++
			results.TotalVotes++

			if vcs.scheme == nil {
				continue
			}
			one, err := vcs.scheme.Encrypt(1)
			if err != nil {
				return nil, err
			}
			if sum, ok := encrypted[vote.Candidate]; ok {
				encrypted[vote.Candidate] = vcs.scheme.Add(sum, one)
			} else {
				encrypted[vote.Candidate] = one
			}
		}
	}

	if vcs.scheme != nil {
		if err := vcs.crossCheck(results.Results, encrypted); err != nil {
			return nil, err
		}
		results.Encrypted = true
		results.Scheme = vcs.scheme.Name()
	}

	vcs.mu.Lock()
	vcs.results = results
	vcs.mu.Unlock()

	vcs.log.Debug("Counted votes", "votes", results.TotalVotes, "candidates", len(results.Results),
		"blocks", results.ProcessedBlocks, "encrypted", results.Encrypted)
	return results, nil
}

func (vcs *VoteCountingService) crossCheck(plain map[string]int, encrypted map[string][]byte) error {
	if len(plain) != len(encrypted) {
		return fmt.Errorf("%w: %d candidates, %d encrypted", ErrTallyMismatch, len(plain), len(encrypted))
	}
	for candidate, count := range plain {
		total, err := vcs.scheme.Decrypt(encrypted[candidate])
		if err != nil {
			return err
		}
		if total != int64(count) {
			return fmt.Errorf("%w: %q counted %d, decrypted %d", ErrTallyMismatch, candidate, count, total)
		}
	}
	return nil
}

// GetLatestResults returns the result of the last successful count, or an
// empty result if nothing has been counted yet.
func (vcs *VoteCountingService) GetLatestResults() *VotingResults {
	vcs.mu.RLock()
	defer vcs.mu.RUnlock()

	if vcs.results == nil {
		return &VotingResults{Results: make(map[string]int)}
	}

	results := *vcs.results
	results.Results = make(map[string]int, len(vcs.results.Results))
	for candidate, count := range vcs.results.Results {
		results.Results[candidate] = count
	}
	return &results
}

// Ranking orders candidates by votes, then by name.
func (r *VotingResults) Ranking() []CandidateCount {
	ranking := make([]CandidateCount, 0, len(r.Results))
	for candidate, votes := range r.Results {
		ranking = append(ranking, CandidateCount{Candidate: candidate, Votes: votes})
	}
	sort.Slice(ranking, func(i, j int) bool {
		if ranking[i].Votes != ranking[j].Votes {
			return ranking[i].Votes > ranking[j].Votes
		}
		return ranking[i].Candidate < ranking[j].Candidate
	})
	return ranking
}
