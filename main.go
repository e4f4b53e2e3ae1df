package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/finneas-io/edgar/adapter/server/httpserv"
	"github.com/finneas-io/edgar/config"
	"github.com/finneas-io/edgar/domain/filing"
	"github.com/finneas-io/edgar/domain/query"
	"github.com/finneas-io/edgar/service/batch"
	"github.com/finneas-io/edgar/service/facts"
	"github.com/spf13/cobra"
)

var a *app

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if a != nil {
		a.close()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "edgar",
	Short:         "Resolve tickers and query the SEC EDGAR system",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("config")
		cfg, err := config.Load(path)
		if err != nil {
			return err
		}
		if level, _ := cmd.Flags().GetString("log-level"); len(level) > 0 {
			cfg.Log.Level = level
		}
		a, err = newApp(cfg)
		return err
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./edgar.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")

	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(factsCmd)
	rootCmd.AddCommand(submissionsCmd)
	rootCmd.AddCommand(framesCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(companiesCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(typesCmd)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

var resolveCmd = &cobra.Command{
	Use:   "resolve [ticker]",
	Short: "Resolve a ticker to its CIK",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmp, err := a.directory.Resolve(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printJSON(map[string]any{
			"cik":        cmp.Cik,
			"padded_cik": cmp.PaddedCik(),
			"ticker":     cmp.Ticker,
			"title":      cmp.Title,
		})
	},
}

var (
	queryType  = filing.DefaultType
	queryOwner = filing.OwnerInclude
)

var queryCmd = &cobra.Command{
	Use:   "query [ticker]",
	Short: "Build the EDGAR browse URL for a company",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		date, _ := cmd.Flags().GetString("date")
		count, _ := cmd.Flags().GetString("count")
		search, _ := cmd.Flags().GetString("search")
		rawCik, _ := cmd.Flags().GetBool("raw-cik")
		fetch, _ := cmd.Flags().GetBool("fetch")
		entries, _ := cmd.Flags().GetBool("entries")

		cmp, err := a.directory.Resolve(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		q := query.New(cmp).
			Type(queryType).
			Owner(queryOwner).
			DateBefore(date).
			Count(count).
			SearchText(search)
		if rawCik {
			q.CikFormat(query.CikRaw)
		}

		switch {
		case entries:
			list, err := a.filings.Entries(cmd.Context(), q)
			if err != nil {
				return err
			}
			return printJSON(list)
		case fetch:
			feed, err := a.filings.Feed(cmd.Context(), q)
			if err != nil {
				return err
			}
			fmt.Println(feed)
			return nil
		}

		u, err := q.Build()
		if err != nil {
			return err
		}
		fmt.Println(u)
		return nil
	},
}

func init() {
	queryCmd.Flags().Var(&queryType, "type", "filing type, e.g. 10-K")
	queryCmd.Flags().Var(&queryOwner, "owner", "owner filter (include, exclude, only)")
	queryCmd.Flags().String("date", time.Now().Format("20060102"), "only filings before this YYYYMMDD date")
	queryCmd.Flags().String("count", query.DefaultCount, "number of results")
	queryCmd.Flags().String("search", "", "search text")
	queryCmd.Flags().Bool("raw-cik", false, "use the unpadded CIK in the URL")
	queryCmd.Flags().Bool("fetch", false, "fetch and print the Atom feed")
	queryCmd.Flags().Bool("entries", false, "fetch the feed and print its entries as JSON")
}

var factsCmd = &cobra.Command{
	Use:   "facts [ticker]",
	Short: "Fetch the XBRL company facts of a company",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmp, err := a.directory.Resolve(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		doc, err := a.facts.CompanyFacts(cmd.Context(), cmp)
		if err != nil {
			return err
		}
		return printDocument(cmd, doc)
	},
}

var submissionsCmd = &cobra.Command{
	Use:   "submissions [ticker]",
	Short: "Fetch the submission history of a company",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmp, err := a.directory.Resolve(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		doc, err := a.facts.Submissions(cmd.Context(), cmp)
		if err != nil {
			return err
		}
		return printDocument(cmd, doc)
	},
}

var framesCmd = &cobra.Command{
	Use:   "frames [tag] [unit] [period]",
	Short: "Fetch one fact for all companies in a period, e.g. frames AccountsPayableCurrent USD CY2019Q1I",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := facts.ParsePeriod(args[2])
		if err != nil {
			return err
		}
		doc, err := a.facts.Frames(cmd.Context(), args[0], args[1], p)
		if err != nil {
			return err
		}
		return printDocument(cmd, doc)
	},
}

func init() {
	for _, cmd := range []*cobra.Command{factsCmd, submissionsCmd, framesCmd} {
		cmd.Flags().String("path", "", "print only the value at this gjson path")
	}
}

func printDocument(cmd *cobra.Command, doc *facts.Document) error {
	path, _ := cmd.Flags().GetString("path")
	if len(path) > 0 {
		res := doc.Get(path)
		if !res.Exists() {
			return fmt.Errorf("path %q not found", path)
		}
		fmt.Println(res.String())
		return nil
	}
	_, err := os.Stdout.Write(append(doc.Bytes(), '\n'))
	return err
}

var syncCmd = &cobra.Command{
	Use:   "sync [ticker...]",
	Short: "Resolve tickers and store them in the database",
	RunE: func(cmd *cobra.Command, args []string) error {
		file, _ := cmd.Flags().GetString("file")
		tickers := args
		if len(file) > 0 {
			more, err := readTickers(file)
			if err != nil {
				return err
			}
			tickers = append(tickers, more...)
		}
		if len(tickers) < 1 {
			return fmt.Errorf("no tickers given")
		}

		db, err := a.database()
		if err != nil {
			return err
		}

		s := batch.New(
			a.directory,
			db,
			a.logger.With("service", "batch"),
			batch.WithWorkers(a.cfg.Sync.Workers),
			batch.WithMetrics(a.metrics),
		)
		report, err := s.Run(cmd.Context(), tickers)
		if err != nil {
			return err
		}
		return printJSON(report)
	},
}

func init() {
	syncCmd.Flags().String("file", "", "file with one ticker per line")
}

func readTickers(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	tickers := []string{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if len(line) < 1 || strings.HasPrefix(line, "#") {
			continue
		}
		tickers = append(tickers, line)
	}
	return tickers, scanner.Err()
}

var companiesCmd = &cobra.Command{
	Use:   "companies",
	Short: "List the companies stored by sync",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := a.database()
		if err != nil {
			return err
		}
		cmps, err := db.GetCompanies()
		if err != nil {
			return err
		}
		return printJSON(cmps)
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve lookups and filing feeds over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		port, _ := cmd.Flags().GetInt("port")
		if port == 0 {
			port = a.cfg.Server.Port
		}
		srv := httpserv.New(port, a.directory, a.filings, a.metrics, a.logger.With("adapter", "httpserv"))
		return srv.Listen(cmd.Context())
	},
}

func init() {
	serveCmd.Flags().Int("port", 0, "port to listen on (default from config)")
}

var typesCmd = &cobra.Command{
	Use:   "types",
	Short: "List the accepted filing types and owner filters",
	RunE: func(cmd *cobra.Command, args []string) error {
		owners, _ := cmd.Flags().GetBool("owners")
		if owners {
			for _, o := range filing.Owners() {
				fmt.Println(o)
			}
			return nil
		}
		for _, t := range filing.Types() {
			fmt.Println(t)
		}
		return nil
	},
}

func init() {
	typesCmd.Flags().Bool("owners", false, "list owner filters instead of filing types")
}
