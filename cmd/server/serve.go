package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/rl1809/storefront/internal/adapter/cartclient"
	"github.com/rl1809/storefront/internal/adapter/handler"
	"github.com/rl1809/storefront/internal/adapter/mail"
	"github.com/rl1809/storefront/internal/core/cartsync"
	"github.com/rl1809/storefront/internal/core/service"
	"github.com/rl1809/storefront/internal/port"
)

const shutdownTimeout = 5 * time.Second

func newServeCommand(opts *rootOptions) *cobra.Command {
	var cartAPI, seedPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the cart gRPC service",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), opts, cartAPI, seedPath)
		},
	}
	cmd.Flags().StringVar(&cartAPI, "cart-api", "", "address of a remote cart gRPC service; empty serves carts in-process")
	cmd.Flags().StringVar(&seedPath, "seed", "", "YAML seed file applied before serving, mostly useful with --memory")
	return cmd
}

func serve(parent context.Context, opts *rootOptions, cartAPI, seedPath string) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	cfg, log := opts.cfg, opts.log

	st, err := openStores(ctx, opts)
	if err != nil {
		return err
	}
	defer st.Close()

	catalog := service.NewCatalogService(st.products, log)
	cartService := service.NewCartService(st.accounts, st.products, log)
	auth := service.NewAuthService(st.accounts, st.sessions, cfg.BcryptCost, log)

	if seedPath != "" {
		seed, err := readSeedFile(seedPath)
		if err != nil {
			return err
		}
		if err := applySeed(ctx, seed, catalog, auth, log); err != nil {
			return err
		}
	}

	// The session carts talk to the Account Store through this API, either
	// in-process or over gRPC to another instance.
	var carts port.AccountCartAPI = cartService
	if cartAPI != "" {
		conn, err := grpc.NewClient(cartAPI, grpc.WithTransportCredentials(insecure.NewCredentials()))
		if err != nil {
			return fmt.Errorf("dial cart api: %w", err)
		}
		defer conn.Close()
		carts = cartclient.NewGRPCCartClient(conn)
		log.WithField("cart_api", cartAPI).Info("using remote cart api")
	}

	registry := cartsync.NewRegistry(cartsync.Backends{
		Cache:    st.cache,
		Carts:    carts,
		Products: catalog,
		Log:      log,
	}, st.sessions)

	var mailer port.Mailer = mail.NewLogMailer(log)
	if cfg.SMTPEnabled() {
		smtpMailer, err := mail.NewSMTPMailer(mail.SMTPConfig{
			Addr:     cfg.SMTPAddr,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.MailFrom,
		})
		if err != nil {
			return err
		}
		mailer = smtpMailer
	}

	var google *handler.GoogleOAuth
	if cfg.GoogleEnabled() {
		google = handler.NewGoogleOAuth(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL)
	}

	httpHandler := handler.NewHTTPHandler(handler.Services{
		Registry: registry,
		Auth:     auth,
		Catalog:  catalog,
		Checkout: service.NewCheckoutService(carts, st.orders, log),
		Media:    service.NewMediaService(st.images, cfg.MaxImageBytes, log),
		Contact:  service.NewContactService(mailer, cfg.AdminEmail, cfg.StoreName, log),
		Google:   google,
		Health:   st.health,
	}, log)
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httpHandler.NewRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	grpcServer := grpc.NewServer()
	handler.NewGRPCHandler(cartService, log).Register(grpcServer)
	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		return fmt.Errorf("listen grpc: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.WithField("addr", cfg.GRPCAddr).Info("gRPC server listening")
		if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return fmt.Errorf("grpc server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		log.WithField("addr", cfg.HTTPAddr).Info("HTTP server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return registry.Run(ctx, time.Minute, cfg.CartIdleTimeout)
	})

	g.Go(func() error {
		<-ctx.Done()
		log.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Warn("HTTP server shutdown")
		}
		log.Info("HTTP server stopped")

		grpcServer.GracefulStop()
		log.Info("gRPC server stopped")
		return nil
	})

	return g.Wait()
}
