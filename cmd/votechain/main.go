package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/pterm/pterm"
	"github.com/urfave/cli"

	"votechain/blockchain"
	"votechain/config"
	"votechain/export"
	"votechain/models"
	"votechain/service"
	"votechain/wallet"
)

var levels = map[string]slog.Level{
	"trace": log.LevelTrace,
	"debug": log.LevelDebug,
	"info":  log.LevelInfo,
	"warn":  log.LevelWarn,
	"error": log.LevelError,
	"crit":  log.LevelCrit,
}

// loadConfig reads the config file if one is given and applies the global
// flag overrides on top of it.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg := config.Default()
	if path := c.GlobalString("config"); path != "" {
		var err error
		cfg, err = config.Load(path)
		if err != nil {
			return nil, err
		}
	}

	if c.GlobalIsSet("difficulty") {
		cfg.Difficulty = c.GlobalInt("difficulty")
	}
	if c.GlobalIsSet("miner") {
		cfg.Miner.ID = c.GlobalString("miner")
	}
	if c.GlobalIsSet("verbosity") {
		cfg.Log.Level = c.GlobalString("verbosity")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	handler := log.NewTerminalHandlerWithLevel(os.Stderr, levels[cfg.Log.Level], c.GlobalBool("color"))
	log.SetDefault(log.NewLogger(handler))
	return cfg, nil
}

func keygen(c *cli.Context) error {
	var (
		w   *wallet.Wallet
		err error
	)
	if key := c.String("key"); key != "" {
		w, err = wallet.FromHex(key)
	} else {
		w, err = wallet.New()
	}
	if err != nil {
		return err
	}

	pterm.Info.Printfln("Public key:  %s", w.PublicKeyHex())
	pterm.Info.Printfln("Address:     %s", w.Address())
	pterm.Warning.Printfln("Private key: %s", w.ExportPrivateKey())
	return nil
}

// runElection plays the reference scenario: three voters, one block, and a
// rejected second vote from the first voter.
func runElection(ctx context.Context, cfg *config.Config) (*service.VotingService, error) {
	vs, err := service.NewVotingService(cfg)
	if err != nil {
		return nil, err
	}

	ballots := []struct {
		voter     string
		candidate string
	}{
		{"A", "Candidate X"},
		{"B", "Candidate Y"},
		{"C", "Candidate X"},
	}

	wallets := make(map[string]*wallet.Wallet)
	for _, b := range ballots {
		w, err := wallet.New()
		if err != nil {
			return nil, err
		}
		wallets[b.voter] = w

		tx, err := w.Vote(b.candidate)
		if err != nil {
			return nil, err
		}
		if err := vs.CastVote(tx); err != nil {
			return nil, fmt.Errorf("vote from %s rejected: %w", b.voter, err)
		}
		pterm.Success.Printfln("Voter %s voted for %s (tx %s)", b.voter, b.candidate, models.TransactionID(tx)[:16])
	}

	again, err := wallets["A"].Vote("Candidate Y")
	if err != nil {
		return nil, err
	}
	if err := vs.CastVote(again); errors.Is(err, blockchain.ErrDoubleVote) {
		pterm.Warning.Println("Second vote from voter A rejected: double vote")
	} else {
		return nil, fmt.Errorf("expected double vote rejection, got %v", err)
	}

	start := time.Now()
	block, err := vs.Mine(ctx)
	if err != nil {
		return nil, err
	}
	pterm.Success.Printfln("Mined block %d with %d transactions in %s", block.Index, len(block.Transactions),
		time.Since(start).Round(time.Millisecond))

	return vs, nil
}

func demo(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	vs, err := runElection(context.Background(), cfg)
	if err != nil {
		return err
	}

	if err := printChain(vs.Chain()); err != nil {
		return err
	}

	results, err := vs.Results()
	if err != nil {
		return err
	}
	if err := printResults(results); err != nil {
		return err
	}
	if err := printMetrics(vs.Metrics()); err != nil {
		return err
	}
	printValidity(vs.ValidateChain())

	if out := c.String("out"); out != "" {
		chain := vs.Chain()
		snap := &export.Snapshot{
			CreatedAt:  time.Now(),
			Difficulty: cfg.Difficulty,
			Valid:      chain.IsValid,
			Results:    results.Results,
			Blocks:     chain.Blocks,
		}
		if err := export.WriteSnapshot(out, snap); err != nil {
			return err
		}
		pterm.Info.Printfln("Chain written to %s", out)
	}
	return nil
}

func validate(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	vs, err := runElection(context.Background(), cfg)
	if err != nil {
		return err
	}
	printValidity(vs.ValidateChain())

	target := vs.Blockchain().Chain()[1].Votes()[0]
	pterm.Info.Printfln("Tampering: changing a vote from %q to %q", target.Candidate, "Candidate Y")
	target.Candidate = "Candidate Y"

	err = vs.ValidateChain()
	printValidity(err)

	if _, cerr := vs.Results(); cerr != nil {
		pterm.Warning.Printfln("Tally refused: %v", cerr)
	}
	if err == nil {
		return errors.New("tampered chain was accepted")
	}
	return nil
}

func main() {
	app := cli.NewApp()
	app.Name = "votechain"
	app.Usage = "in-memory proof-of-work vote ledger"

	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "config, c",
			Usage: "path to a YAML config file",
		},
		cli.IntFlag{
			Name:  "difficulty, d",
			Value: config.Default().Difficulty,
			Usage: "leading hex zeros required in a block hash",
		},
		cli.StringFlag{
			Name:  "miner",
			Usage: "miner id credited with block rewards",
		},
		cli.StringFlag{
			Name:  "verbosity",
			Value: config.Default().Log.Level,
			Usage: "log level: trace, debug, info, warn, error or crit",
		},
		cli.BoolFlag{
			Name:  "color",
			Usage: "colorize log output",
		},
	}

	app.Commands = []cli.Command{
		{
			Name:   "keygen",
			Usage:  "Generate a voter key pair, or print the public key of --key",
			Action: keygen,
			Flags: []cli.Flag{
				cli.StringFlag{Name: "key", Usage: "hex private key to import"},
			},
		},
		{
			Name:   "demo",
			Usage:  "Run a three-voter election and print the chain and the tally",
			Action: demo,
			Flags: []cli.Flag{
				cli.StringFlag{Name: "out", Usage: "write a JSON snapshot of the chain to this file"},
			},
		},
		{
			Name:   "validate",
			Usage:  "Run the demo election, tamper with a vote and show that validation catches it",
			Action: validate,
		},
	}

	if err := app.Run(os.Args); err != nil {
		pterm.Error.Printfln("command failed with error: %v", err)
		os.Exit(1)
	}
}
