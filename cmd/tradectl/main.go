// Command tradectl performs the explicit administrative operations on the
// trade tracker's store: add a trade, force-close it, remove pending
// entries, and the bulk variants. It shares the worker's database; the
// worker picks new records up on its next tick.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"tradeTracker/config"
	"tradeTracker/internal/adapters/logger"
	"tradeTracker/internal/adapters/sqlite"
	"tradeTracker/internal/app"
	"tradeTracker/internal/domain"
)

func main() {
	var (
		addCmd       = flag.Bool("add", false, "Add a new trade")
		closeID      = flag.Int64("close", 0, "Force-close the trade with this ID")
		removeID     = flag.Int64("remove", 0, "Remove the PENDING trade with this ID")
		closeAll     = flag.Bool("close-all", false, "Force-close all OPEN trades")
		purgePending = flag.Bool("purge-pending", false, "Remove all PENDING trades")
		list         = flag.Bool("list", false, "List all trades")

		symbol   = flag.String("symbol", "", "Base ticker, e.g. BTC")
		quote    = flag.String("quote", "", "Quote currency (default USDT)")
		side     = flag.String("side", "LONG", "LONG or SHORT")
		entry    = flag.Float64("entry", 0, "Entry price")
		tp       = flag.Float64("tp", 0, "Take-profit price")
		sl       = flag.Float64("sl", 0, "Stop-loss price")
		quantity = flag.Float64("quantity", 0, "Optional position size (informational)")
		open     = flag.Bool("open", false, "Create the trade directly OPEN instead of PENDING")
		realized = flag.Float64("realized", 0, "Realized PnL percent override for -close")
	)
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}

	appLogger := logger.NewStdLogger(cfg.LogLevel)
	repo, err := sqlite.NewRepository(sqlite.Config{DBPath: cfg.DBPath, Logger: appLogger})
	if err != nil {
		log.Fatalf("FATAL: Failed to open database: %v", err)
	}
	defer repo.Close()

	svc, err := app.NewTradeService(appLogger, repo)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize trade service: %v", err)
	}

	ctx := context.Background()

	switch {
	case *addCmd:
		status := domain.StatusPending
		if *open {
			status = domain.StatusOpen
		}
		trade := &domain.Trade{
			Symbol:     *symbol,
			Quote:      *quote,
			Side:       domain.Side(*side),
			Status:     status,
			EntryPrice: *entry,
			TakeProfit: *tp,
			StopLoss:   *sl,
			Quantity:   *quantity,
		}
		id, err := svc.AddTrade(ctx, trade)
		if err != nil {
			log.Fatalf("add failed: %v", err)
		}
		fmt.Printf("trade %d created (%s %s %s)\n", id, trade.Status, trade.Side, trade.Symbol)

	case *closeID != 0:
		var override *float64
		if isFlagSet("realized") {
			override = realized
		}
		trade, err := svc.CloseTrade(ctx, *closeID, override)
		if err != nil {
			log.Fatalf("close failed: %v", err)
		}
		fmt.Printf("trade %d closed, realized %.2f%%\n", trade.ID, trade.RealizedPct)

	case *removeID != 0:
		if err := svc.RemovePending(ctx, *removeID); err != nil {
			log.Fatalf("remove failed: %v", err)
		}
		fmt.Printf("trade %d removed\n", *removeID)

	case *closeAll:
		count, err := svc.CloseAllOpen(ctx)
		if err != nil {
			log.Fatalf("close-all failed: %v", err)
		}
		fmt.Printf("%d open trades closed\n", count)

	case *purgePending:
		count, err := svc.PurgePending(ctx)
		if err != nil {
			log.Fatalf("purge-pending failed: %v", err)
		}
		fmt.Printf("%d pending trades removed\n", count)

	case *list:
		trades, err := svc.ListTrades(ctx)
		if err != nil {
			log.Fatalf("list failed: %v", err)
		}
		for _, t := range trades {
			fmt.Printf("%-5d %-8s %-6s %-5s entry=%.4f tp=%.4f sl=%.4f unreal=%.2f%% real=%.2f%%\n",
				t.ID, t.Pair(), t.Status, t.Side, t.EntryPrice, t.TakeProfit, t.StopLoss,
				t.UnrealizedPct, t.RealizedPct)
		}

	default:
		flag.Usage()
		os.Exit(2)
	}
}

// isFlagSet reports whether the named flag was given explicitly, so a zero
// realized override can be distinguished from "no override".
func isFlagSet(name string) bool {
	set := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}
