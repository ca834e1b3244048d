package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"github.com/danielpatrickdp/cosmicmind/internal/config"
	"github.com/danielpatrickdp/cosmicmind/internal/continuity"
	"github.com/danielpatrickdp/cosmicmind/internal/engine"
	"github.com/danielpatrickdp/cosmicmind/internal/logging"
	"github.com/danielpatrickdp/cosmicmind/internal/peer"
	"github.com/danielpatrickdp/cosmicmind/internal/scheduler"
	"github.com/danielpatrickdp/cosmicmind/internal/transport"
)

// #region open

// agentIDFile keeps a generated agent ID stable across restarts.
const agentIDFile = "agent.id"

// lookupAgentID returns the configured ID, else the one saved in the data
// dir, else "". It never writes.
func lookupAgentID(c *config.Config) (string, error) {
	if c.Agent.ID != "" {
		return c.Agent.ID, nil
	}
	data, err := os.ReadFile(filepath.Join(c.Storage.DataDir, agentIDFile))
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("read agent id: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// resolveAgentID is lookupAgentID, except a missing ID is generated and
// saved.
func resolveAgentID(c *config.Config) (string, error) {
	id, err := lookupAgentID(c)
	if err != nil || id != "" {
		return id, err
	}

	id = uuid.NewString()
	if err := os.MkdirAll(c.Storage.DataDir, 0o755); err != nil {
		return "", fmt.Errorf("create data dir: %w", err)
	}
	path := filepath.Join(c.Storage.DataDir, agentIDFile)
	if err := os.WriteFile(path, []byte(id+"\n"), 0o644); err != nil {
		return "", fmt.Errorf("write agent id: %w", err)
	}
	return id, nil
}

// openMind builds the engine with its snapshot store and, when enabled, the
// history archive, then restores the last snapshot. A failed restore is
// logged and the agent starts fresh.
func openMind(ctx context.Context, c *config.Config, log *zap.Logger) (*engine.Mind, *continuity.Archive, error) {
	id, err := resolveAgentID(c)
	if err != nil {
		return nil, nil, err
	}
	path := c.ArchivePath()
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, nil, fmt.Errorf("create data dir: %w", err)
		}
	}
	return assembleMind(ctx, c, log, id, path)
}

// openMindReadOnly is openMind for commands that only look. Nothing is
// created: an unknown agent yields a fresh unsaved mind and a missing
// archive is left disabled.
func openMindReadOnly(ctx context.Context, c *config.Config, log *zap.Logger) (*engine.Mind, *continuity.Archive, error) {
	id, err := lookupAgentID(c)
	if err != nil {
		return nil, nil, err
	}
	path := c.ArchivePath()
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			path = ""
		}
	}
	return assembleMind(ctx, c, log, id, path)
}

func assembleMind(ctx context.Context, c *config.Config, log *zap.Logger, id, archivePath string) (*engine.Mind, *continuity.Archive, error) {
	ec := c.Engine()
	ec.AgentID = id

	var opts []engine.Option
	if id != "" {
		opts = append(opts, engine.WithStore(continuity.NewFileStore(c.Storage.DataDir, id)))
	}
	var archive *continuity.Archive
	if archivePath != "" {
		var err error
		archive, err = continuity.OpenArchive(archivePath)
		if err != nil {
			return nil, nil, err
		}
		opts = append(opts, engine.WithArchive(archive))
	}

	mind := engine.New(ec, opts...)
	if err := mind.Restore(ctx); err != nil {
		log.Warn("restore failed, starting fresh", zap.Error(err))
	}
	return mind, archive, nil
}

// #endregion open

// #region run

func runAgent(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	defer logging.Bridge(logger)()

	mind, archive, err := openMind(ctx, cfg, logger)
	if err != nil {
		return err
	}
	if archive != nil {
		defer archive.Close()
	}
	if len(mind.Frames()) == 0 {
		for _, raw := range engine.SeedPhenomena {
			mind.Ingest(ctx, raw)
		}
	}

	client := transport.NewClient(cfg.PeerTimeout())
	defer client.Close()
	node := peer.NewNode(mind, client, cfg.Peers.Addrs...)

	sh := newShell(mind, cmd.InOrStdin(), cmd.OutOrStdout())
	sh.node = node
	sh.archive = archive
	sched := scheduler.New(mind, cfg.Scheduler(), logger.Named("scheduler"), sh.autoActions)
	sh.sched = sched

	g, gctx := errgroup.WithContext(ctx)
	gctx, cancel := context.WithCancel(gctx)
	defer cancel()

	if cfg.Peers.Listen != "" {
		lis, err := net.Listen("tcp", cfg.Peers.Listen)
		if err != nil {
			return fmt.Errorf("listen %s: %w", cfg.Peers.Listen, err)
		}
		srv := transport.NewServer(node.Handle)
		g.Go(func() error {
			if err := srv.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
				return fmt.Errorf("peer server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			srv.GracefulStop()
			return nil
		})
		logger.Info("peer server listening", zap.String("addr", lis.Addr().String()))
	}

	g.Go(func() error {
		if n := node.Introduce(gctx); n > 0 {
			logger.Info("introduced to peers", zap.Int("delivered", n))
		}
		return nil
	})
	g.Go(func() error { return sched.Run(gctx) })
	g.Go(func() error {
		defer cancel()
		return sh.Run(gctx)
	})

	err = g.Wait()
	if perr := mind.Persist(context.Background()); perr != nil {
		logger.Error("final persist failed", zap.Error(perr))
	}
	return err
}

// #endregion run
