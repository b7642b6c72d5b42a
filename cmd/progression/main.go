package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/xraph/progression"
	"github.com/xraph/progression/bonus"
	"github.com/xraph/progression/catalog"
	"github.com/xraph/progression/entitlement"
	"github.com/xraph/progression/milestone"
	"github.com/xraph/progression/store/memory"
	"github.com/xraph/progression/types"
	"github.com/xraph/progression/unlock"
)

var rootCmd = &cobra.Command{
	Use:   "progression",
	Short: "Entitlement and progression ledger CLI",
	Long: `progression inspects catalogs and replays purchase ledgers offline.
- Catalog: packs bundle courses and courses contain lessons.
- Ledger: an append-only list of confirmed purchases keyed by transaction id.
- Milestones: a course or pack becomes complete when all of its lessons are owned,
  however they were bought. Each milestone is rewarded once.`,
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	rootCmd.AddCommand(catalogCmd(), replayCmd())
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("PROGRESSION")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("catalog", "c", "catalog.yaml", "catalog document")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	rootCmd.PersistentFlags().String("log-level", "warn", "log level (debug, info, warn, error)")
	_ = viper.BindPFlag("catalog", rootCmd.PersistentFlags().Lookup("catalog"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	_ = viper.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level"))
}

func catalogCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "catalog",
		Short: "Print the catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := catalog.File{Path: viper.GetString("catalog")}.GetCatalog(cmd.Context())
			if err != nil {
				return err
			}
			if viper.GetBool("json") {
				return printJSON(cat.Items())
			}
			tw := table.NewWriter()
			tw.SetOutputMirror(os.Stdout)
			tw.AppendHeader(table.Row{"ID", "Kind", "Title", "Parent", "Contains"})
			for _, it := range cat.Items() {
				var contains []string
				switch it.Kind {
				case catalog.KindPack:
					contains = cat.Courses(it.ID)
				case catalog.KindCourse:
					contains = cat.Lessons(it.ID)
				}
				tw.AppendRow(table.Row{it.ID, it.Kind, it.Title, it.ParentID, strings.Join(contains, ", ")})
			}
			tw.Render()
			return nil
		},
	}
}

// purchaseDoc is one entry of a ledger file.
type purchaseDoc struct {
	TransactionID string       `yaml:"transaction_id" json:"transaction_id"`
	ItemID        string       `yaml:"item_id" json:"item_id"`
	Kind          catalog.Kind `yaml:"kind" json:"kind"`
	Price         types.Money  `yaml:"price" json:"price"`
	AcquiredAt    time.Time    `yaml:"acquired_at" json:"acquired_at"`
}

type replayReport struct {
	Results    []*progression.PurchaseResult `json:"results"`
	Unlocked   []string                      `json:"unlocked"`
	Milestones []milestone.Milestone         `json:"milestones"`
	Bonuses    []bonus.Record                `json:"bonuses"`
	Spent      []types.Money                 `json:"spent"`
}

func replayCmd() *cobra.Command {
	var (
		ledgerPath string
		learnerID  string
		scope      string
	)
	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay a ledger file against the catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			docs, err := readLedger(ledgerPath)
			if err != nil {
				return err
			}

			l := progression.New(memory.New(),
				catalog.File{Path: viper.GetString("catalog")},
				progression.WithLogger(newLogger()),
				progression.WithLearner(learnerID),
				progression.WithMilestoneScope(milestone.ParseScope(scope)),
			)
			ctx := cmd.Context()
			if err := l.Start(ctx); err != nil {
				return err
			}
			defer l.Stop() //nolint:errcheck // memory store close cannot fail

			report, err := replay(ctx, l, docs)
			if err != nil {
				return err
			}
			if viper.GetBool("json") {
				return printJSON(report)
			}
			renderReport(l, report)
			return nil
		},
	}
	cmd.Flags().StringVarP(&ledgerPath, "ledger", "l", "ledger.yaml", "ledger file of confirmed purchases")
	cmd.Flags().StringVar(&learnerID, "learner", progression.DefaultLearnerID, "learner id")
	cmd.Flags().StringVar(&scope, "scope", "all", "milestone detection scope (all, ancestors)")
	return cmd
}

func readLedger(path string) ([]purchaseDoc, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	defer fh.Close()

	var docs []purchaseDoc
	if err := yaml.NewDecoder(fh).Decode(&docs); err != nil {
		return nil, fmt.Errorf("decode ledger %s: %w", path, err)
	}
	return docs, nil
}

func replay(ctx context.Context, l *progression.Ledger, docs []purchaseDoc) (*replayReport, error) {
	report := &replayReport{}
	var spent []types.Money
	for _, d := range docs {
		res, err := l.RecordPurchase(ctx, entitlement.Record{
			TransactionID: d.TransactionID,
			ItemID:        d.ItemID,
			Kind:          d.Kind,
			Price:         d.Price,
			AcquiredAt:    d.AcquiredAt,
		})
		if err != nil {
			return nil, fmt.Errorf("ledger entry for %s: %w", d.ItemID, err)
		}
		if res.Accepted {
			spent = append(spent, d.Price)
		}
		report.Results = append(report.Results, res)
	}
	if err := l.Flush(ctx); err != nil {
		return nil, err
	}

	report.Unlocked = l.Unlocked()
	report.Milestones = l.Milestones()
	report.Bonuses = l.Bonuses()
	report.Spent = types.Totals(spent...)
	return report, nil
}

func renderReport(l *progression.Ledger, r *replayReport) {
	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.SetTitle("Purchases")
	tw.AppendHeader(table.Row{"Transaction", "Item", "Kind", "Price", "Result", "Milestones"})
	for _, res := range r.Results {
		status := "recorded"
		switch {
		case res.Duplicate:
			status = "duplicate"
		case res.Unresolved:
			status = "unknown item"
		}
		tw.AppendRow(table.Row{
			res.Record.TransactionID, res.Record.ItemID, res.Record.Kind,
			res.Record.Price.String(), status, strings.Join(milestone.IDs(res.Milestones), ", "),
		})
	}
	for _, total := range r.Spent {
		tw.AppendFooter(table.Row{"", "", "", total.String(), "total", ""})
	}
	tw.Render()

	cat := l.Catalog()
	owned := unlock.Project(cat, l.Entitlements())
	pt := table.NewWriter()
	pt.SetOutputMirror(os.Stdout)
	pt.SetTitle("Courses")
	pt.AppendHeader(table.Row{"Course", "Lessons owned", "Complete"})
	for _, c := range cat.ItemsOfKind(catalog.KindCourse) {
		done, total, err := l.CourseProgress(c.ID)
		if err != nil {
			continue
		}
		pt.AppendRow(table.Row{c.ID, fmt.Sprintf("%d/%d", done, total), unlock.CourseOwned(cat, owned, c.ID)})
	}
	pt.Render()

	bt := table.NewWriter()
	bt.SetOutputMirror(os.Stdout)
	bt.SetTitle("Rewards")
	bt.AppendHeader(table.Row{"Milestone", "Kind", "Bonus", "Issued"})
	for _, b := range l.Bonuses() {
		bt.AppendRow(table.Row{b.MilestoneID, b.Kind, b.Amount, b.IssuedAt.Format(time.RFC3339)})
	}
	bt.Render()

	fmt.Printf("%d items unlocked\n", len(r.Unlocked))
}

func newLogger() *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(viper.GetString("log-level"))); err != nil {
		level = slog.LevelWarn
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
