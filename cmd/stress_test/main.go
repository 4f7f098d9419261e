package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/rl1809/storefront/internal/adapter/cartclient"
	"github.com/rl1809/storefront/internal/adapter/storage"
	"github.com/rl1809/storefront/internal/adapter/storage/memory"
	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/core/service"
	"github.com/rl1809/storefront/internal/port"
)

type options struct {
	mysqlDSN      string
	grpcAddr      string
	accountID     string
	productID     string
	initialStock  int
	totalRequests int
	retries       int
}

func main() {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "stress_test",
		Short: "Fire concurrent single-unit adds at one account cart and check nothing oversells",
		Long: "Without --grpc the cart service runs in-process on MySQL (or in memory when --mysql is empty)\n" +
			"and a fresh product and account are created. With --grpc the adds go to a running server\n" +
			"and --account, --product and --stock must describe existing records.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), opts)
		},
	}
	cmd.Flags().StringVar(&opts.mysqlDSN, "mysql", "", "MySQL DSN for the in-process run")
	cmd.Flags().StringVar(&opts.grpcAddr, "grpc", "", "cart gRPC address of a running server")
	cmd.Flags().StringVar(&opts.accountID, "account", "", "account id (with --grpc)")
	cmd.Flags().StringVar(&opts.productID, "product", "", "product id (with --grpc)")
	cmd.Flags().IntVar(&opts.initialStock, "stock", 20, "product stock")
	cmd.Flags().IntVar(&opts.totalRequests, "requests", 50, "concurrent add requests")
	cmd.Flags().IntVar(&opts.retries, "retries", 5, "retries per request on a version conflict")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context, opts *options) error {
	carts, cleanup, err := setup(ctx, opts)
	if err != nil {
		return err
	}
	defer cleanup()

	var successCount, soldOutCount, conflictCount, errorCount atomic.Int32

	var wg sync.WaitGroup
	start := time.Now()

	for i := 0; i < opts.totalRequests; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for attempt := 0; ; attempt++ {
				_, err := carts.AddItem(ctx, opts.accountID, opts.productID, 1)
				switch {
				case err == nil:
					successCount.Add(1)
				case errors.Is(err, domain.ErrInsufficientStock):
					soldOutCount.Add(1)
				case errors.Is(err, domain.ErrConflict) && attempt < opts.retries:
					continue
				case errors.Is(err, domain.ErrConflict):
					conflictCount.Add(1)
				default:
					errorCount.Add(1)
				}
				return
			}
		}()
	}

	wg.Wait()
	elapsed := time.Since(start)

	cart, err := carts.GetCart(ctx, opts.accountID)
	if err != nil {
		return fmt.Errorf("read final cart: %w", err)
	}
	final := cart.Quantity(opts.productID)
	success := int(successCount.Load())

	fmt.Println("========== STRESS TEST RESULTS ==========")
	fmt.Printf("Stock:              %d\n", opts.initialStock)
	fmt.Printf("Total Requests:     %d\n", opts.totalRequests)
	fmt.Printf("Successful:         %d\n", success)
	fmt.Printf("Insufficient Stock: %d\n", soldOutCount.Load())
	fmt.Printf("Conflicts (gave up):%d\n", conflictCount.Load())
	fmt.Printf("Other Errors:       %d\n", errorCount.Load())
	fmt.Printf("Duration:           %v\n", elapsed)
	fmt.Printf("Final Cart Qty:     %d\n", final)
	fmt.Println("==========================================")

	failed := false
	if final == success {
		fmt.Println("PASS: cart quantity matches successful adds")
	} else {
		fmt.Printf("FAIL: cart holds %d, but %d adds succeeded\n", final, success)
		failed = true
	}
	if final <= opts.initialStock {
		fmt.Println("PASS: cart never exceeds stock")
	} else {
		fmt.Printf("FAIL: cart holds %d, stock is %d\n", final, opts.initialStock)
		failed = true
	}
	if failed {
		return errors.New("stress test failed")
	}
	return nil
}

func setup(ctx context.Context, opts *options) (port.AccountCartAPI, func(), error) {
	if opts.grpcAddr != "" {
		if opts.accountID == "" || opts.productID == "" {
			return nil, nil, errors.New("--grpc needs --account and --product")
		}
		conn, err := grpc.NewClient(opts.grpcAddr, grpc.WithTransportCredentials(insecure.NewCredentials()))
		if err != nil {
			return nil, nil, err
		}
		return cartclient.NewGRPCCartClient(conn), func() { conn.Close() }, nil
	}

	log := logrus.New()
	log.SetOutput(io.Discard)

	var (
		products port.ProductRepository
		accounts port.AccountRepository
		cleanup  = func() {}
	)
	if opts.mysqlDSN != "" {
		db, err := sql.Open("mysql", opts.mysqlDSN)
		if err != nil {
			return nil, nil, err
		}
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("ping mysql: %w", err)
		}
		adapter := storage.NewMySQLAdapter(db)
		if err := adapter.Migrate(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		products, accounts, cleanup = adapter, adapter, func() { db.Close() }
	} else {
		products, accounts = memory.NewCatalog(), memory.NewAccounts()
	}

	now := time.Now().UTC().Truncate(time.Microsecond)
	opts.productID = uuid.NewString()
	opts.accountID = uuid.NewString()
	err := products.CreateProduct(ctx, domain.Product{
		ID:          opts.productID,
		Name:        "stress item",
		Description: "created by the stress test",
		Category:    domain.CategoryAccessories,
		Stock:       opts.initialStock,
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	suffix := opts.accountID[:8]
	err = accounts.CreateAccount(ctx, domain.Account{
		ID:        opts.accountID,
		Name:      "stress " + suffix,
		Email:     "stress-" + suffix + "@example.com",
		Documento: fmt.Sprintf("%d", time.Now().UnixNano()%1e12),
		Provider:  domain.ProviderCredentials,
		Role:      domain.RoleUser,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	return service.NewCartService(accounts, products, log), cleanup, nil
}
