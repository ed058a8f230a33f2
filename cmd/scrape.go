package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/killallgit/waskita-api/api/scrape"
	"github.com/killallgit/waskita-api/internal/services/apify"
	"github.com/killallgit/waskita-api/internal/services/mapping"
	"github.com/killallgit/waskita-api/internal/services/normalizer"
	"github.com/killallgit/waskita-api/pkg/logger"
	"github.com/spf13/cobra"
)

// scrapeCmd runs one scrape in the foreground
var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Run a scrape and stage its results",
	Long: `Start a scrape, wait for it to finish and stage the normalized results.

The detected schema is printed together with a mapping token. Pass
--content-column to commit the results into the dataset right away;
otherwise commit later with POST /api/v1/scrape/mapping while the
server shares the same pending store.

Example:
  waskita-api scrape --platform twitter --keyword radikalisme
  waskita-api scrape --platform tiktok --keyword jihad --from 2024-01-01 --to 2024-01-31 \
    --content-column text --username-column author`,
	RunE: runScrape,
}

func init() {
	rootCmd.AddCommand(scrapeCmd)

	f := scrapeCmd.Flags()
	f.String("platform", "", "twitter, facebook, instagram or tiktok")
	f.String("keyword", "", "search keyword")
	f.String("from", "", "start date (YYYY-MM-DD)")
	f.String("to", "", "end date (YYYY-MM-DD)")
	f.Int("max-results", apify.DefaultMaxResults, "maximum number of items to scrape")
	f.String("dataset", "", "target dataset name (default \"Scraper Data {Platform} - {keyword}\")")
	f.Uint("owner", 0, "owner id recorded on the dataset and records")
	f.String("content-column", "", "commit immediately using this column as the post text")
	f.String("username-column", "", "column holding the author")
	f.String("url-column", "", "column holding the post URL")
	_ = scrapeCmd.MarkFlagRequired("platform")
	_ = scrapeCmd.MarkFlagRequired("keyword")
}

type scrapeOptions struct {
	req            apify.StartRequest
	dataset        string
	owner          uint
	contentColumn  string
	usernameColumn string
	urlColumn      string
}

func scrapeOptionsFromFlags(cmd *cobra.Command) scrapeOptions {
	f := cmd.Flags()
	var o scrapeOptions
	o.req.Platform, _ = f.GetString("platform")
	o.req.Keyword, _ = f.GetString("keyword")
	o.req.DateFrom, _ = f.GetString("from")
	o.req.DateTo, _ = f.GetString("to")
	o.req.MaxResults, _ = f.GetInt("max-results")
	o.dataset, _ = f.GetString("dataset")
	o.owner, _ = f.GetUint("owner")
	o.contentColumn, _ = f.GetString("content-column")
	o.usernameColumn, _ = f.GetString("username-column")
	o.urlColumn, _ = f.GetString("url-column")
	return o
}

func runScrape(cmd *cobra.Command, args []string) error {
	opts := scrapeOptionsFromFlags(cmd)
	if err := opts.req.Normalize(); err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, err := newLogger(cmd, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	a, err := newApp(cfg, log)
	if err != nil {
		return err
	}
	defer a.close()

	return scrapeAndStage(cmd.Context(), cmd.OutOrStdout(), a, opts)
}

// scrapeAndStage runs the blocking scrape cycle, stages the items and optionally commits them
func scrapeAndStage(ctx context.Context, out io.Writer, a *app, opts scrapeOptions) error {
	req := opts.req
	name := strings.TrimSpace(opts.dataset)
	if name == "" {
		name = scrape.DefaultDatasetName(req.Platform, req.Keyword)
	}

	res, err := a.apify.Scrape(ctx, req, apifyConfig(a.cfg).Wait)
	if err != nil {
		return err
	}
	a.log.Info("Scrape finished",
		logger.String("run_id", res.Run.ID),
		logger.Int("items", len(res.Items)))

	dataset, _, err := a.datasets.FindOrCreate(ctx, name, opts.owner, "")
	if err != nil {
		return err
	}

	token, err := a.negotiator.Stage(ctx, normalizer.Normalize(res.Items, req.Platform), mapping.StageContext{
		DatasetID:   dataset.ID,
		DatasetName: dataset.Name,
		OwnerID:     opts.owner,
		Platform:    req.Platform,
		Keyword:     req.Keyword,
		DateFrom:    req.DateFrom,
		DateTo:      req.DateTo,
		RunID:       res.Run.ID,
	})
	if err != nil {
		return err
	}

	schema, err := a.negotiator.GetSchema(ctx, token)
	if err != nil {
		return err
	}
	if err := printJSON(out, schema); err != nil {
		return err
	}

	if opts.contentColumn == "" {
		fmt.Fprintf(out, "\nResults staged under token %s until %s\n", token, schema.ExpiresAt.Format("2006-01-02 15:04:05 MST"))
		return nil
	}

	commit, err := a.negotiator.Commit(ctx, token, mapping.Mapping{
		ContentColumn:  opts.contentColumn,
		UsernameColumn: opts.usernameColumn,
		URLColumn:      opts.urlColumn,
	})
	if err != nil {
		return err
	}
	return printJSON(out, commit)
}

func printJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
