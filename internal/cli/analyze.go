package cli

import (
	"strings"

	"github.com/spf13/cobra"

	apperrors "pairsight/internal/errors"
	"pairsight/internal/models"
)

func newAnalyzeCmd(app *App) *cobra.Command {
	var cached bool

	cmd := &cobra.Command{
		Use:   "analyze <pair>",
		Short: "Analyze one pair and print its signal",
		Long: `Analyze fetches the current price and history for a pair, computes the
technical snapshot and prints the fused signal. With --cached the stored
document is served without touching the data providers.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if app.Service == nil {
				return apperrors.Wrap(apperrors.ErrDatabaseError, "store unavailable")
			}

			symbol := strings.ToUpper(args[0])
			if !app.Config.Pairs.Contains(symbol) {
				return apperrors.Wrapf(apperrors.ErrSymbolUnsupported, "%s", symbol)
			}

			var (
				analysis *models.PairAnalysis
				err      error
			)
			if cached {
				analysis, err = app.Service.GetAnalysis(cmd.Context(), symbol)
			} else {
				analysis, err = app.Service.AnalyzePair(cmd.Context(), symbol)
			}
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(analysis)
			}
			printAnalysis(output, analysis)
			return nil
		},
	}

	cmd.Flags().BoolVar(&cached, "cached", false, "serve the stored analysis without refetching")
	return cmd
}

func printAnalysis(output *Output, a *models.PairAnalysis) {
	output.Bold("%s (%s)", a.Symbol, a.Type)
	output.Printf("  Price:      %.6g (%+.2f%% 24h)\n", a.Price, a.Change24h)
	output.Printf("  Source:     %s\n", a.Source)
	output.Println()

	sig := a.Signal
	output.Printf("  Signal:     %s  (%.1f%% confidence)\n", output.Direction(string(sig.Direction)), sig.Confidence)
	output.Printf("  Entry:      %.6g\n", sig.Entry)
	output.Printf("  Target:     %.6g\n", sig.TakeProfit)
	output.Printf("  Stop:       %.6g\n", sig.StopLoss)
	output.Printf("  R/R:        %.2f\n", sig.RiskReward)
	output.Println()

	if a.Technical == nil {
		output.Warning("  Not enough history for indicators")
		return
	}

	tech := a.Technical
	output.Bold("Technical")
	output.Printf("  RSI(14):    %.2f%s\n", tech.RSI, rsiNote(tech.RSI))
	output.Printf("  MACD:       %.6g / signal %.6g / hist %.6g (%s)\n",
		tech.MACD.MACD, tech.MACD.Signal, tech.MACD.Histogram, tech.MACD.Trend)
	output.Printf("  Bollinger:  %.6g / %.6g / %.6g (%s)\n",
		tech.Bollinger.Lower, tech.Bollinger.Middle, tech.Bollinger.Upper, tech.Bollinger.Position)
	output.Printf("  ATR(14):    %.6g\n", tech.ATR)
	output.Printf("  Support:    %.6g   Resistance: %.6g\n",
		tech.SupportResistance.Support, tech.SupportResistance.Resistance)
	output.Printf("  Trend:      %s\n", tech.Trend)
	output.Printf("  Volume:     %s (ratio %.2f)\n", tech.Volume.Status, tech.Volume.Ratio)

	if len(a.News) > 0 {
		output.Println()
		output.Bold("News")
		for _, article := range a.News {
			output.Printf("  [%.1f] %s (%s)\n", article.ImpactScore, article.Title, article.Source)
		}
	}
}

func rsiNote(rsi float64) string {
	switch {
	case rsi < 30:
		return "  (oversold)"
	case rsi > 70:
		return "  (overbought)"
	default:
		return ""
	}
}
