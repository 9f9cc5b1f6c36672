package usecase

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/vitos/stock_grid/internal/domain"
)

// FormatSummary renders the notification text for one snapshot. Amounts are
// the one-lot estimates carried by the nearest levels.
func FormatSummary(snap *domain.PlanSnapshot) string {
	cfg := snap.Config

	var b strings.Builder
	fmt.Fprintf(&b, "[Grid] %s @ %.2f (%s)\n", cfg.Symbol, snap.CurrentPrice, snap.Status)
	fmt.Fprintf(&b, "Range %.2f ~ %.2f / %d grids, step %.2f\n", cfg.LowerBound, cfg.UpperBound, cfg.GridCount, snap.Step)

	if l := snap.NearestBuy; l != nil {
		fmt.Fprintf(&b, "Buy  %.2f cost incl. fee $%s\n", l.Price, humanize.Comma(l.EstimatedNet))
	} else {
		b.WriteString("Buy  -\n")
	}
	if l := snap.NearestSell; l != nil {
		fmt.Fprintf(&b, "Sell %.2f proceeds after fee+tax $%s\n", l.Price, humanize.Comma(l.EstimatedNet))
	} else {
		b.WriteString("Sell -\n")
	}

	if snap.Safety.Message != "" {
		fmt.Fprintf(&b, "!! %s\n", snap.Safety.Message)
	}
	return strings.TrimRight(b.String(), "\n")
}
