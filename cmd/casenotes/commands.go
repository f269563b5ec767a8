package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"casenote-nlp/internal/domain"
	"casenote-nlp/internal/repository"
	"casenote-nlp/internal/service"
)

func analyzeCmd() *cobra.Command {
	var (
		subjectID string
		noteTime  string
		file      string
		persist   bool
	)

	cmd := &cobra.Command{
		Use:   "analyze [text]",
		Short: "Analyze one note (text argument, --file, or stdin)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			text, err := readNoteText(cmd.InOrStdin(), args, file)
			if err != nil {
				return err
			}
			at, err := parseTimeFlag(noteTime, time.Now().UTC())
			if err != nil {
				return err
			}

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			if !persist {
				if subjectID == "" {
					return printJSON(cmd.OutOrStdout(), a.analyzer.Analyze(ctx, text))
				}
				return printJSON(cmd.OutOrStdout(), a.analyzer.AnalyzeNote(ctx, subjectID, text, at))
			}

			note := domain.Note{ID: uuid.NewString(), SubjectID: subjectID, Text: text, CreatedAt: at}
			if strings.TrimSpace(subjectID) == "" {
				return service.ErrEmptySubject
			}
			if err := a.notes.Create(ctx, note); err != nil {
				return fmt.Errorf("store note: %w", err)
			}
			res, err := a.analyzer.AnalyzeAndPersist(ctx, note)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().StringVar(&subjectID, "subject", "", "subject the note belongs to")
	cmd.Flags().StringVar(&noteTime, "at", "", "note timestamp (RFC3339, default now)")
	cmd.Flags().StringVarP(&file, "file", "f", "", "read note text from file")
	cmd.Flags().BoolVar(&persist, "persist", false, "store the note and its analysis (requires --subject)")
	return cmd
}

func aggregateCmd() *cobra.Command {
	var (
		subjectID string
		period    string
		from      string
		to        string
	)

	cmd := &cobra.Command{
		Use:   "aggregate",
		Short: "Aggregate stored analyses of a subject over a time window",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			var metrics domain.AggregateMetrics
			switch {
			case from != "" || to != "":
				start, err := parseTimeFlag(from, time.Time{})
				if err != nil {
					return err
				}
				end, err := parseTimeFlag(to, time.Now().UTC())
				if err != nil {
					return err
				}
				metrics, err = a.progress.Aggregate(ctx, subjectID, start, end, period)
				if err != nil {
					return err
				}
			case period == domain.PeriodMonthly:
				if metrics, err = a.progress.Monthly(ctx, subjectID); err != nil {
					return err
				}
			case period == domain.PeriodWeekly:
				if metrics, err = a.progress.Weekly(ctx, subjectID); err != nil {
					return err
				}
			default:
				return fmt.Errorf("period %q needs --from/--to", period)
			}
			return printJSON(cmd.OutOrStdout(), metrics)
		},
	}
	cmd.Flags().StringVar(&subjectID, "subject", "", "subject id")
	cmd.Flags().StringVar(&period, "period", domain.PeriodWeekly, "weekly, monthly, or a label for a custom --from/--to window")
	cmd.Flags().StringVar(&from, "from", "", "window start (RFC3339, inclusive)")
	cmd.Flags().StringVar(&to, "to", "", "window end (RFC3339, exclusive, default now)")
	_ = cmd.MarkFlagRequired("subject")
	return cmd
}

func backfillCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "backfill",
		Short: "Analyze stored notes that have no analysis yet",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.close()
			a.serveMetrics(ctx)

			report, err := a.batch.Backfill(ctx, limit)
			if perr := printJSON(cmd.OutOrStdout(), report); perr != nil {
				return perr
			}
			return err
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 500, "maximum number of pending notes to analyze")
	return cmd
}

func searchCmd() *cobra.Command {
	var (
		subjectID string
		keywords  []string
		sentiment string
		domainArg string
		minScore  float64
		limit     int
		deleteID  string
	)

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Find stored analyses by keyword, sentiment or domain score",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			if deleteID != "" {
				if err := a.queries.Delete(ctx, deleteID); err != nil {
					if errors.Is(err, repository.ErrNotFound) {
						return fmt.Errorf("analysis %s not found", deleteID)
					}
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", deleteID)
				return nil
			}

			filter := repository.AnalysisFilter{
				SubjectID:      subjectID,
				Keywords:       keywords,
				Sentiment:      domain.SentimentLabel(strings.ToLower(sentiment)),
				Domain:         domain.Domain(strings.ToLower(domainArg)),
				MinDomainScore: minScore,
				Limit:          limit,
			}
			if filter.Keywords == nil && filter.Sentiment == "" && filter.Domain == "" {
				results, err := a.queries.Recent(ctx, subjectID, limit)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), results)
			}
			results, err := a.queries.Search(ctx, filter)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), results)
		},
	}
	cmd.Flags().StringVar(&subjectID, "subject", "", "subject id")
	cmd.Flags().StringSliceVar(&keywords, "keyword", nil, "keyword to match (repeatable, any match)")
	cmd.Flags().StringVar(&sentiment, "sentiment", "", "positive, neutral or negative")
	cmd.Flags().StringVar(&domainArg, "domain", "", "emotional, cognitive or social")
	cmd.Flags().Float64Var(&minScore, "min-score", 0, "minimum domain score when --domain is set")
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum results")
	cmd.Flags().StringVar(&deleteID, "delete", "", "delete the analysis with this id instead of searching")
	return cmd
}

func probeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "probe",
		Short: "Report which analysis tiers are available in this environment",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.close()
			return printJSON(cmd.OutOrStdout(), a.analyzer.Status(ctx))
		},
	}
}

func readNoteText(stdin io.Reader, args []string, file string) (string, error) {
	switch {
	case len(args) == 1:
		return args[0], nil
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("read note file: %w", err)
		}
		return string(data), nil
	default:
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
}

func parseTimeFlag(v string, def time.Time) (time.Time, error) {
	if strings.TrimSpace(v) == "" {
		return def, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", v, err)
	}
	return t.UTC(), nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
