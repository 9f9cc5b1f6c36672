package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/vitos/stock_grid/internal/infrastructure/storage"
)

func main() {
	dbPath := flag.String("db", "gridwatch.db", "sqlite database file")
	flag.Parse()

	if _, err := os.Stat(*dbPath); err != nil {
		fmt.Printf("Database %s not found: %v\n", *dbPath, err)
		os.Exit(1)
	}
	store, err := storage.NewSQLiteStore(*dbPath)
	if err != nil {
		fmt.Printf("Failed to init sqlite: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	ctx := context.Background()
	plans, err := store.ListPlans(ctx)
	if err != nil {
		fmt.Printf("Failed to list plans: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Found %d plans:\n", len(plans))
	for _, p := range plans {
		fmt.Printf("- Plan %s (user %s): %s %.2f ~ %.2f / %d grids, discount %.2f, lot %d, tp %.1f%%, sl %.1f%%, created %s\n",
			p.ID, p.UserID, p.Symbol, p.LowerBound, p.UpperBound, p.GridCount,
			p.FeeDiscount, p.LotSize, p.TakeProfitPct, p.StopLossPct, humanize.Time(p.CreatedAt))
	}

	holdings, err := store.ListHoldings(ctx)
	if err != nil {
		fmt.Printf("Failed to list holdings: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Found %d holdings:\n", len(holdings))
	for _, h := range holdings {
		fmt.Printf("- Holding %s: %s %s shares @ %.2f\n", h.ID, h.Symbol, humanize.Comma(h.Quantity), h.Cost)
	}
}
