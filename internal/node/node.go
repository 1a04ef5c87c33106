// Package node wires the minter components into one service that can be
// embedded in any binary.
package node

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Klingon-tech/asset-minter/config"
	"github.com/Klingon-tech/asset-minter/internal/asset"
	"github.com/Klingon-tech/asset-minter/internal/gateway"
	"github.com/Klingon-tech/asset-minter/internal/history"
	klog "github.com/Klingon-tech/asset-minter/internal/log"
	"github.com/Klingon-tech/asset-minter/internal/session"
	"github.com/Klingon-tech/asset-minter/internal/storage"
	"github.com/Klingon-tech/asset-minter/internal/wallet"
	"github.com/Klingon-tech/asset-minter/internal/web"
)

// probeInterval is how often gateway reachability is logged.
const probeInterval = time.Minute

// Node is a fully-initialized minter service.
type Node struct {
	cfg    *config.Config
	logger zerolog.Logger

	// Core
	db       storage.DB
	history  *history.Store
	resolver *gateway.Resolver
	sessions *session.Store

	// Web UI
	webServer *web.Server

	// Lifecycle
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates and initializes a Node. It opens storage and builds the web
// server but does not listen. Call Start() for that.
func New(cfg *config.Config) (*Node, error) {
	// ── 1. Init logger ──────────────────────────────────────────────
	logFile := expandHome(cfg.Log.File)
	if logFile == "" {
		logsDir := cfg.LogsDir()
		if err := os.MkdirAll(logsDir, 0755); err != nil {
			return nil, fmt.Errorf("creating logs dir: %w", err)
		}
		logFile = filepath.Join(logsDir, "minter.log")
	}
	if err := klog.Init(cfg.Log.Level, cfg.Log.JSON, logFile); err != nil {
		return nil, fmt.Errorf("initializing logger: %w", err)
	}
	logger := klog.WithComponent("node")

	logger.Info().
		Str("network", string(cfg.Network)).
		Str("version", config.Version).
		Msg("Starting asset minter")

	// ── 2. History ──────────────────────────────────────────────────
	var (
		db   storage.DB
		hist *history.Store
	)
	if cfg.History.Enabled {
		var err error
		db, err = storage.Open(cfg.History.Backend, cfg.HistoryDir())
		if err != nil {
			return nil, fmt.Errorf("open history at %s: %w", cfg.HistoryDir(), err)
		}
		hist = history.NewStore(db)
		logger.Info().Str("backend", string(cfg.History.Backend)).Msg("History opened")
	}

	// ── 3. Gateways ─────────────────────────────────────────────────
	resolver := gateway.NewResolver(cfg.Gateway)
	for _, n := range config.Networks {
		logger.Info().Str("network", string(n)).Str("url", cfg.Gateway.URL(n)).Msg("Gateway configured")
	}

	// ── 4. Sessions ─────────────────────────────────────────────────
	sessions, err := session.NewStore(cfg.Session.TTL, cfg.Network)
	if err != nil {
		if db != nil {
			db.Close()
		}
		return nil, fmt.Errorf("session store: %w", err)
	}

	// ── 5. Web UI ───────────────────────────────────────────────────
	addr := net.JoinHostPort(cfg.Web.Addr, strconv.Itoa(cfg.Web.Port))
	webServer := web.New(addr, cfg, web.Deps{
		Sessions: sessions,
		Builder:  asset.NewBuilder(resolver),
		Relay:    wallet.NewRelay(resolver),
		History:  hist,
	})

	ctx, cancel := context.WithCancel(context.Background())
	return &Node{
		cfg:       cfg,
		logger:    logger,
		db:        db,
		history:   hist,
		resolver:  resolver,
		sessions:  sessions,
		webServer: webServer,
		ctx:       ctx,
		cancel:    cancel,
	}, nil
}

// Start begins serving the UI and probing the gateways.
func (n *Node) Start() error {
	if err := n.webServer.Start(); err != nil {
		return fmt.Errorf("start web ui: %w", err)
	}

	n.wg.Add(1)
	go n.runProbeLoop()

	return nil
}

// Stop shuts the node down and closes storage.
func (n *Node) Stop() {
	n.cancel()
	n.wg.Wait()

	if n.webServer != nil {
		if err := n.webServer.Stop(); err != nil {
			n.logger.Warn().Err(err).Msg("Web UI shutdown")
		}
	}
	if n.sessions != nil {
		n.sessions.Close()
	}
	if n.db != nil {
		n.db.Close()
	}

	n.logger.Info().Msg("Goodbye!")
}

// WebAddr returns the address the UI listens on.
func (n *Node) WebAddr() string {
	return n.webServer.Addr()
}

// History returns the receipt store, or nil when history is disabled.
func (n *Node) History() *history.Store {
	return n.history
}

// ── Gateway probe ───────────────────────────────────────────────────

func (n *Node) runProbeLoop() {
	defer n.wg.Done()

	n.probeGateways()

	ticker := time.NewTicker(probeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-n.ctx.Done():
			return
		case <-ticker.C:
			n.probeGateways()
		}
	}
}

func (n *Node) probeGateways() {
	for _, network := range config.Networks {
		c, err := n.resolver.Client(network)
		if err != nil {
			continue
		}
		ctx, cancel := context.WithTimeout(n.ctx, n.cfg.Gateway.Timeout)
		st, err := c.Status(ctx)
		cancel()
		if err != nil {
			if n.ctx.Err() == nil {
				n.logger.Warn().Err(err).Str("network", string(network)).Msg("Gateway unreachable")
			}
			continue
		}
		n.logger.Debug().
			Str("network", string(network)).
			Uint64("last_round", st.LastRound).
			Dur("since_last_round", time.Duration(st.TimeSinceLastRound)).
			Msg("Gateway healthy")
	}
}
