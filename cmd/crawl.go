package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/arenastats/ranked-crawler/internal/crawler"
)

type crawlFlags struct {
	matchGoal         int
	accountEnrichment string
	leagueEnrichment  string
	rankedSample      bool
	divisions         []string
	pages             []int
}

// newCrawlCmd creates and configures the 'crawl' subcommand. Arguments name
// the tiers to seed from ("all" expands to every tier); flags shape the run.
func newCrawlCmd() *cobra.Command {
	flags := &crawlFlags{}
	cmd := &cobra.Command{
		Use:   "crawl [tier...]",
		Short: "Runs a full crawl over the given ladder tiers",
		Long: `Seeds players from each named tier, samples enough of them to hit the
match goal, collects and dedups their recent match ids, and streams every
match payload into storage. After all tiers finish, players without any
match link are pruned and the survivors are enriched with account identity
and league standing.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCrawlCommand(cmd, args, flags)
		},
	}

	cmd.Flags().IntVar(&flags.matchGoal, "match-goal", 100, "target number of matches to store per tier")
	cmd.Flags().StringVar(&flags.accountEnrichment, "account-enrichment", "on", "enrich stored players with display identity (on|off)")
	cmd.Flags().StringVar(&flags.leagueEnrichment, "league-enrichment", "on", "enrich stored players with league standing (on|off)")
	cmd.Flags().BoolVar(&flags.rankedSample, "ranked-sample", false, "sample seed players by league points instead of uniformly")
	cmd.Flags().StringSliceVar(&flags.divisions, "division", nil, "limit low tiers to these divisions (default all of I-IV)")
	cmd.Flags().IntSliceVar(&flags.pages, "page", nil, "limit low-tier paging to these pages (default: crawler.seed_pages from config)")
	return cmd
}

func runCrawlCommand(cmd *cobra.Command, args []string, flags *crawlFlags) error {
	appInstance, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}
	logger := appInstance.Logger()

	// Validate everything before the first network call.
	tiers, err := crawler.ParseTiers(args)
	if err != nil {
		return err
	}
	if flags.matchGoal <= 0 {
		return fmt.Errorf("--match-goal must be > 0, got %d", flags.matchGoal)
	}
	accountOn, err := parseToggle("account-enrichment", flags.accountEnrichment)
	if err != nil {
		return err
	}
	leagueOn, err := parseToggle("league-enrichment", flags.leagueEnrichment)
	if err != nil {
		return err
	}
	for _, page := range flags.pages {
		if page <= 0 {
			return fmt.Errorf("--page values must be > 0, got %d", page)
		}
	}

	cfg := appInstance.Config()
	pages := flags.pages
	if len(pages) == 0 && cfg.Crawler.SeedPages > 0 {
		pages = make([]int, cfg.Crawler.SeedPages)
		for i := range pages {
			pages[i] = i + 1
		}
	}
	engine := crawler.NewEngine(
		appInstance.API(),
		appInstance.Sink(),
		crawler.NewSampler(nil),
		appInstance.Hub(),
		logger,
		crawler.EngineConfig{
			Tiers:                tiers,
			MatchGoal:            flags.matchGoal,
			Divisions:            flags.divisions,
			Pages:                pages,
			AccountEnrichment:    accountOn,
			LeagueEnrichment:     leagueOn,
			RankedSampling:       flags.rankedSample,
			Region:               cfg.Crawler.Region,
			MatchIDsPerPlayer:    cfg.Crawler.MatchIDsPerPlayer,
			ParticipantsPerMatch: cfg.Crawler.ParticipantsPerMatch,
			PrimaryQueue:         cfg.Crawler.PrimaryQueue,
		},
	)

	summary, err := engine.Run(cmd.Context())
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("run crawl: %w", err)
	}

	logger.Info("crawl command finished",
		zap.String("run", summary.RunID.String()),
		zap.Int("seed_players", summary.SeedPlayers),
		zap.Int("sampled_players", summary.SampledPlayers),
		zap.Int("match_ids", summary.MatchIDs),
		zap.Int("matches_stored", summary.MatchesStored),
		zap.Int64("orphans_deleted", summary.OrphansDeleted),
		zap.Int("accounts_enriched", summary.AccountsEnriched),
		zap.Int("leagues_enriched", summary.LeaguesEnriched),
	)
	return nil
}

func resolveApp(ctx context.Context) (App, error) {
	appInstance, ok := ctx.Value(appKey).(App)
	if !ok || appInstance == nil {
		return nil, errors.New("application services not initialized")
	}
	return appInstance, nil
}

func parseToggle(name, value string) (bool, error) {
	switch value {
	case "on":
		return true, nil
	case "off":
		return false, nil
	default:
		return false, fmt.Errorf("--%s must be on or off, got %q", name, value)
	}
}
