package main

import (
	"encoding/hex"
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"go.vocdoni.io/dvote/db"
	"go.vocdoni.io/dvote/db/metadb"
	"go.vocdoni.io/dvote/log"

	"github.com/cloakledger/cloak/api"
	"github.com/cloakledger/cloak/ledger"
	"github.com/cloakledger/cloak/types"
	"github.com/cloakledger/cloak/util"
)

func main() {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	dataDir := flag.String("dataDir", filepath.Join(home, ".cloak"), "directory where the ledger database is stored")
	dbType := flag.String("dbType", db.TypePebble, "key-value database type (pebble, leveldb)")
	host := flag.String("host", "0.0.0.0", "API host to listen on")
	port := flag.Int("port", 9090, "API port to listen on")
	logLevel := flag.String("logLevel", "info", "log level (debug, info, warn, error)")
	ledgerID := flag.String("ledgerId", "", "hex ledger deployment identity; generated and persisted on first run when empty")
	admin := flag.String("admin", "", "address the one-time initializer installs as admin and first minter")
	flag.Parse()

	log.Init(*logLevel, "stdout", nil)

	if err := os.MkdirAll(*dataDir, 0o750); err != nil {
		log.Fatalf("cannot create data directory: %v", err)
	}
	id, err := loadOrCreateLedgerID(*dataDir, *ledgerID)
	if err != nil {
		log.Fatalf("cannot resolve ledger identity: %v", err)
	}
	if *admin != "" && !common.IsHexAddress(*admin) {
		log.Fatalf("invalid admin address %q", *admin)
	}

	database, err := metadb.New(*dbType, filepath.Join(*dataDir, "db"))
	if err != nil {
		log.Fatalf("cannot open database: %v", err)
	}

	l, err := ledger.New(ledger.Config{
		DB:       database,
		LedgerID: id,
		Admin:    common.HexToAddress(*admin),
	})
	if err != nil {
		log.Fatalf("cannot open ledger: %v", err)
	}

	if _, err := api.New(&api.APIConfig{
		Host:   *host,
		Port:   *port,
		Ledger: l,
	}); err != nil {
		log.Fatalf("cannot start API: %v", err)
	}

	log.Infow("cloakd is up", "ledgerId", id.String(), "dataDir", *dataDir)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Info("shutting down")
	if err := l.Close(); err != nil {
		log.Warnw("error closing ledger", "error", err)
	}
}

// loadOrCreateLedgerID resolves the ledger identity: an explicit flag wins,
// otherwise the identity persisted in the data directory, otherwise a fresh
// random one that gets persisted for later runs.
func loadOrCreateLedgerID(dataDir, flagValue string) (types.HexBytes, error) {
	idFile := filepath.Join(dataDir, "ledger.id")
	if flagValue != "" {
		id, err := hex.DecodeString(util.TrimHex(flagValue))
		if err != nil {
			return nil, err
		}
		return types.HexBytes(id), nil
	}
	if data, err := os.ReadFile(idFile); err == nil {
		id, err := hex.DecodeString(string(data))
		if err != nil {
			return nil, err
		}
		return types.HexBytes(id), nil
	}
	id := util.RandomBytes(types.LedgerIDLen)
	if err := os.WriteFile(idFile, []byte(hex.EncodeToString(id)), 0o600); err != nil {
		return nil, err
	}
	log.Infow("generated new ledger identity", "ledgerId", hex.EncodeToString(id))
	return types.HexBytes(id), nil
}
