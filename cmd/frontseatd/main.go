// frontseatd serves the director's console: viewer websocket endpoint,
// performer registry, tracker ingestion and the record store.
package main

import (
	logging "github.com/ipfs/go-log/v2"

	"github.com/ellehcimzhang/frontseat.github.io/config"
	"github.com/ellehcimzhang/frontseat.github.io/hub"
	"github.com/ellehcimzhang/frontseat.github.io/network"
	"github.com/ellehcimzhang/frontseat.github.io/store"
)

var log = logging.Logger("frontseatd")

func main() {
	cfg := config.Load()

	lvl, err := logging.LevelFromString(cfg.LogLevel)
	if err != nil {
		lvl = logging.LevelInfo
	}
	logging.SetAllLoggers(lvl)

	st, err := store.Open(cfg.StorePath)
	if err != nil {
		log.Fatalf("open store: %v", err)
	}
	defer st.Close()

	h := hub.New(st)
	go h.Run()
	defer h.Stop()

	if err := network.ListenAndServe(cfg.ListenAddr, h); err != nil {
		log.Fatalf("serve: %v", err)
	}
}
