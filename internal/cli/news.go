package cli

import (
	"strings"

	"github.com/spf13/cobra"

	apperrors "pairsight/internal/errors"
	"pairsight/internal/models"
)

func newNewsCmd(app *App) *cobra.Command {
	var (
		refresh bool
		pair    string
		limit   int
	)

	cmd := &cobra.Command{
		Use:   "news",
		Short: "Show scored market news",
		Long: `News lists stored articles with their sentiment and impact scores.
--pair filters to articles tagged for one pair; --refresh pulls fresh
headlines first.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if app.Service == nil || app.Store == nil {
				return apperrors.Wrap(apperrors.ErrDatabaseError, "store unavailable")
			}

			if refresh {
				inserted, err := app.Service.RefreshNews(cmd.Context())
				if err != nil {
					return err
				}
				if !output.IsJSON() {
					output.Info("Stored %d new articles", inserted)
				}
			}

			var (
				articles []models.NewsArticle
				err      error
			)
			if pair != "" {
				articles, err = app.Store.GetNewsForPair(cmd.Context(), strings.ToUpper(pair), limit)
			} else {
				articles, err = app.Store.GetRecentNews(cmd.Context(), limit)
			}
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(articles)
			}

			if len(articles) == 0 {
				output.Warning("No stored articles")
				return nil
			}
			for _, a := range articles {
				output.Printf("[%4.1f] %s\n", a.ImpactScore, a.Title)
				output.Dim("       %s | sentiment %+.2f | %s", a.Source, a.Sentiment, strings.Join(a.RelevantPairs, ", "))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&refresh, "refresh", false, "fetch fresh headlines before listing")
	cmd.Flags().StringVar(&pair, "pair", "", "filter to one pair")
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum articles to list")
	return cmd
}
