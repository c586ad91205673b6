package main

import (
	"context"
	"log"
	"net"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"github.com/blockberries/minichain/app"
	chaingrpc "github.com/blockberries/minichain/grpc"
	"github.com/blockberries/minichain/httpapi"
	"github.com/blockberries/minichain/internal/config"
)

func init() {
	serveCmd.Flags().String("grpc-addr", "", "gRPC listen address (overrides MINICHAIN_GRPC_ADDR)")
	serveCmd.Flags().String("http-addr", "", "HTTP listen address (overrides MINICHAIN_HTTP_ADDR)")
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the node application over gRPC and its state over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.ParseEnv()
		if err != nil {
			return err
		}
		applyFlags(cmd, &cfg)

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return serve(ctx, cfg, log.New(cmd.ErrOrStderr(), "", log.LstdFlags))
	},
}

func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	if v, _ := cmd.Flags().GetString("grpc-addr"); v != "" {
		cfg.GRPCAddr = v
	}
	if v, _ := cmd.Flags().GetString("http-addr"); v != "" {
		cfg.HTTPAddr = v
	}
}

// serve runs the gRPC node service and the HTTP read API until ctx is
// done or either of them fails. The driver performs the genesis
// handshake over gRPC, and the chain ID it sends is what the HTTP
// status reports.
func serve(ctx context.Context, cfg config.Config, logger *log.Logger) error {
	a := app.New(app.WithLogger(logger))
	gs := chaingrpc.NewGRPCServer(a)
	gs.Server().SetLogger(logger)

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		return errors.Wrapf(err, "listen %s", cfg.GRPCAddr)
	}
	grpcServer := grpc.NewServer()
	gs.Register(grpcServer)

	logger.Printf("serving grpc on %s, http on %s", lis.Addr(), cfg.HTTPAddr)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return grpcServer.Serve(lis)
	})
	g.Go(func() error {
		<-ctx.Done()
		grpcServer.GracefulStop()
		return nil
	})
	g.Go(func() error {
		// Queries share the lifecycle guard of the gRPC server.
		return httpapi.Serve(ctx, httpapi.APIConfig{
			APIEndpoint: cfg.HTTPAddr,
			ChainID:     a.ChainID,
		}, gs.Server())
	})
	return g.Wait()
}
