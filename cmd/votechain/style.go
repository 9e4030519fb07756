package main

import (
	"errors"
	"strconv"

	"github.com/pterm/pterm"

	"votechain/blockchain"
	"votechain/service"
)

func short(s string) string {
	if len(s) <= 16 {
		return s
	}
	return s[:16] + "…"
}

// printChain renders one row per block with its link and proof-of-work.
func printChain(chain *service.BlockchainResponse) error {
	pterm.DefaultSection.Println("Chain")

	data := pterm.TableData{{"Index", "Txs", "Votes", "Nonce", "Previous", "Hash"}}
	for _, block := range chain.Blocks {
		data = append(data, []string{
			strconv.FormatInt(block.Index, 10),
			strconv.Itoa(len(block.Transactions)),
			strconv.Itoa(len(block.Votes())),
			strconv.FormatUint(block.Nonce, 10),
			short(block.PreviousHash),
			short(block.Hash),
		})
	}
	return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}

func printResults(results *service.VotingResults) error {
	title := "Results"
	if results.Encrypted {
		title += " (verified with " + results.Scheme + ")"
	}
	pterm.DefaultSection.Println(title)

	data := pterm.TableData{{"Candidate", "Votes"}}
	for _, row := range results.Ranking() {
		data = append(data, []string{row.Candidate, strconv.Itoa(row.Votes)})
	}
	if err := pterm.DefaultTable.WithHasHeader().WithData(data).Render(); err != nil {
		return err
	}
	pterm.Info.Printfln("%d votes in %d blocks", results.TotalVotes, results.ProcessedBlocks)
	return nil
}

func printMetrics(metrics service.MetricsResponse) error {
	pterm.DefaultSection.Println("Metrics")

	data := pterm.TableData{
		{"Metric", "Value"},
		{"accepted", strconv.Itoa(metrics.Admission.Accepted)},
	}
	for reason, count := range metrics.Admission.Rejected {
		data = append(data, []string{"rejected/" + reason, strconv.Itoa(count)})
	}
	data = append(data,
		[]string{"blocks mined", strconv.Itoa(metrics.Mining.Blocks)},
		[]string{"nonces tried", strconv.FormatUint(metrics.Mining.Nonces, 10)},
		[]string{"mining time (ms)", strconv.FormatInt(metrics.Mining.ProcessingTime, 10)},
	)
	return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}

func printValidity(err error) {
	if err == nil {
		pterm.Success.Println("Chain is valid")
		return
	}

	var verr *blockchain.ValidationError
	if errors.As(err, &verr) {
		pterm.Error.Printfln("Chain is invalid at block %d: %s", verr.Index, verr.Reason)
		return
	}
	pterm.Error.Printfln("Chain is invalid: %v", err)
}
