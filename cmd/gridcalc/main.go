package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/vitos/stock_grid/internal/domain"
	"github.com/vitos/stock_grid/internal/infrastructure/quote"
	"github.com/vitos/stock_grid/internal/usecase"
)

func main() {
	var cfg domain.GridPlanConfig
	flag.StringVar(&cfg.Symbol, "symbol", "00632R", "stock code, e.g. 2330 or 00632R")
	flag.Float64Var(&cfg.UpperBound, "upper", 0, "grid upper bound (default current price +5%)")
	flag.Float64Var(&cfg.LowerBound, "lower", 0, "grid lower bound (default current price -5%)")
	flag.IntVar(&cfg.GridCount, "grids", 10, "number of grid intervals")
	flag.Float64Var(&cfg.FeeDiscount, "discount", 1, "broker fee discount, 0.6 means 60% of list")
	flag.IntVar(&cfg.LotSize, "lot", domain.DefaultLotSize, "shares per lot")
	flag.Float64Var(&cfg.TakeProfitPct, "tp", 0, "take-profit margin above the upper bound, percent")
	flag.Float64Var(&cfg.StopLossPct, "sl", 0, "stop-loss margin below the lower bound, percent")
	price := flag.Float64("price", 0, "current price (fetched from Yahoo Finance when omitted)")
	tax := flag.String("tax", "standard", "tax regime: standard or day_trade")
	flag.Parse()

	cfg = usecase.WithDefaults(cfg)

	if *price <= 0 {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		p, err := quote.NewYahooAdapter("", 10*time.Second, 2).GetCurrentPrice(ctx, cfg.Symbol)
		if err != nil {
			fmt.Printf("Failed to fetch price for %s: %v\n", cfg.Symbol, err)
			os.Exit(1)
		}
		*price = p
	}
	if cfg.UpperBound == 0 && cfg.LowerBound == 0 {
		cfg.UpperBound, cfg.LowerBound = usecase.DefaultBounds(*price)
	}

	fees, err := usecase.FeeScheduleFor(*tax)
	if err != nil {
		fmt.Printf("Invalid tax regime: %v\n", err)
		os.Exit(1)
	}
	engine, err := usecase.NewGridPlanEngine(fees)
	if err != nil {
		fmt.Printf("Failed to init engine: %v\n", err)
		os.Exit(1)
	}
	snap, err := engine.Evaluate(cfg, *price)
	if err != nil {
		fmt.Printf("Calculation failed: %v\n", err)
		os.Exit(1)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "#\tPrice\tAction\tFee\tTax\tNet (1 lot)\t")
	for _, l := range snap.Levels {
		net := "-"
		if l.Action != domain.ActionWait {
			net = humanize.Comma(l.EstimatedNet)
		}
		fmt.Fprintf(w, "%d\t%.2f\t%s\t%s\t%s\t%s\t\n", l.Index, l.Price, l.Action,
			humanize.Comma(l.Fee), humanize.Comma(l.Tax), net)
	}
	w.Flush()

	fmt.Println()
	fmt.Println(usecase.FormatSummary(snap))
}
