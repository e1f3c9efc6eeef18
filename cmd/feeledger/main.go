// Command feeledger builds an in-memory fee ledger from a genesis document
// and prints the resulting balances and notification journal.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/anoideaopen/feeledger/core/config"
	"github.com/anoideaopen/feeledger/core/ledger"
	"github.com/anoideaopen/feeledger/core/logger"
	"github.com/anoideaopen/feeledger/core/notify"
	"github.com/anoideaopen/feeledger/core/telemetry"
	"github.com/anoideaopen/feeledger/token"
	"github.com/anoideaopen/feeledger/version"
	"github.com/sirupsen/logrus"
)

var errNoGenesis = errors.New("no genesis: set FEELEDGER_GENESIS, -genesis or pass the document as the only argument")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "feeledger:", err)
		os.Exit(1)
	}
}

type report struct {
	Tokens  []*tokenReport  `json:"tokens"`
	Journal []journalRecord `json:"journal"`
}

type tokenReport struct {
	Metadata *token.Metadata   `json:"metadata"`
	Balances map[string]uint64 `json:"balances"`
}

type journalRecord struct {
	Name    string          `json:"name"`
	Payload json.RawMessage `json:"payload"`
}

func run(ctx context.Context, args []string, out io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	fs := flag.NewFlagSet("feeledger", flag.ContinueOnError)
	showVersion := fs.Bool("version", false, "print build information and exit")
	genesisPath := fs.String("genesis", cfg.Genesis, "path to the genesis document")
	if err = fs.Parse(args); err != nil {
		return err
	}

	if *showVersion {
		info, err := version.Summary()
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, info)
		return err
	}

	genesis, err := loadGenesis(*genesisPath, fs.Args())
	if err != nil {
		return err
	}

	log := logrus.NewEntry(logger.FromConfig(cfg)).
		WithField("service", cfg.ServiceName)

	shutdown := telemetry.InstallTraceProvider(cfg.TracingEndpoint, cfg.ServiceName)
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			log.WithError(err).Warn("shutting down trace provider")
		}
	}()

	journal := &notify.Journal{}
	l := ledger.New(
		ledger.WithLogger(log),
		ledger.WithTracer(telemetry.Tracer()),
		ledger.WithSink(notify.Multi(journal, notify.NewLogSink(log), notify.TraceSink{})),
	)

	rep := &report{}
	for _, g := range genesis.Tokens {
		bt, err := token.FromGenesis(ctx, l, g)
		if err != nil {
			return err
		}

		tr := &tokenReport{Metadata: bt.QueryMetadata(), Balances: make(map[string]uint64)}
		for _, e := range g.Emission {
			tr.Balances[e.Address.String()] = bt.QueryBalanceOf(e.Address)
		}
		rep.Tokens = append(rep.Tokens, tr)
	}
	for _, r := range journal.Records() {
		rep.Journal = append(rep.Journal, journalRecord{Name: r.Name, Payload: r.Payload})
	}
	if n := journal.Dropped(); n > 0 {
		log.WithField("dropped", n).Warn("notifications could not be encoded")
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(rep)
}

func loadGenesis(path string, args []string) (*config.Genesis, error) {
	switch {
	case config.IsJSON(args):
		return config.FromBytes([]byte(args[0]))
	case path != "":
		return config.FromFile(path)
	default:
		return nil, errNoGenesis
	}
}
