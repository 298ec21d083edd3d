package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"sellerdesk/internal/config"
	"sellerdesk/internal/keywords"
	"sellerdesk/internal/listing"
)

// errBlockingIssues is returned by validate when error-severity issues remain.
var errBlockingIssues = errors.New("listing has blocking issues")

// NewRootCmd builds the sellerctl command tree.
func NewRootCmd(stdout, stderr io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "sellerctl",
		Short:         "Score keywords and validate listings without the server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.CompletionOptions.HiddenDefaultCmd = true

	root.AddCommand(newScoreCmd(stdout))
	root.AddCommand(newClassifyCmd(stdout))
	root.AddCommand(newValidateCmd(stdout))
	return root
}

func newScoreCmd(stdout io.Writer) *cobra.Command {
	var frequency, position float64
	cmd := &cobra.Command{
		Use:   "score <term>",
		Short: "Print the relevance score of a keyword",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			score := keywords.CalculateScore(keywords.ScoreInput{
				Term:      args[0],
				Frequency: frequency,
				Position:  position,
			})
			_, err := fmt.Fprintf(stdout, "%.4f\n", score)
			return err
		},
	}
	cmd.Flags().Float64Var(&frequency, "frequency", 1, "how often the term was observed")
	cmd.Flags().Float64Var(&position, "position", 50, "best search result position (0-100)")
	return cmd
}

type classifyOutput struct {
	Keywords  []keywords.Keyword `json:"keywords"`
	Clusters  []keywords.Cluster `json:"clusters"`
	Primary   []string           `json:"primary"`
	Secondary []string           `json:"secondary"`
	Tertiary  []string           `json:"tertiary"`
}

func newClassifyCmd(stdout io.Writer) *cobra.Command {
	var threshold float64
	cmd := &cobra.Command{
		Use:   "classify <keywords.json>",
		Short: "Normalize, score, cluster and classify a JSON list of keyword tuples",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var raw []keywords.RawKeyword
			if err := readJSON(args[0], &raw); err != nil {
				return err
			}

			cleaned := make([]keywords.RawKeyword, 0, len(raw))
			for _, r := range raw {
				r.Term = keywords.NormalizeTerm(r.Term)
				if utf8.RuneCountInString(r.Term) <= 2 {
					continue
				}
				if r.Source == "" {
					r.Source = keywords.SourceSeed
				}
				cleaned = append(cleaned, r)
			}

			clusters, kws := keywords.ClusterKeywords(keywords.ScoreRaw(keywords.MergeRaw(cleaned)), threshold)
			kws = keywords.ClassifyKeywords(kws)
			out := classifyOutput{Keywords: kws, Clusters: clusters}
			out.Primary, out.Secondary, out.Tertiary = keywords.Tiers(kws)
			return writeJSON(stdout, out)
		},
	}
	cmd.Flags().Float64Var(&threshold, "threshold", keywords.DefaultClusterThreshold, "trigram similarity needed to join a cluster")
	return cmd
}

type validateOutput struct {
	Draft     listing.Draft             `json:"draft"`
	Issues    []listing.ValidationIssue `json:"issues"`
	Fixed     bool                      `json:"fixed"`
	HasErrors bool                      `json:"has_errors"`
}

func newValidateCmd(stdout io.Writer) *cobra.Command {
	var (
		fix        bool
		templateID string
		configPath string
		disallowed []string
		kwList     []string
		noDefaults bool
	)
	cmd := &cobra.Command{
		Use:   "validate <draft.json>",
		Short: "Validate a listing draft and optionally auto-fix it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var d listing.Draft
			if err := readJSON(args[0], &d); err != nil {
				return err
			}

			yamlCfg, err := config.LoadYAMLConfigFile(configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			registry, err := listing.NewRegistry(yamlCfg.Templates...)
			if err != nil {
				return fmt.Errorf("invalid template in config: %w", err)
			}

			terms := append([]string(nil), disallowed...)
			if !noDefaults {
				terms = append(terms, yamlCfg.BannedWords...)
			}

			gen := listing.NewGenerator(nil, registry, nil, "", nil)
			res := gen.Analyze(d, registry.Get(templateID), kwList, gen.Disallowed(terms), fix)
			out := validateOutput{
				Draft:     res.Draft,
				Issues:    res.Issues,
				Fixed:     res.Fixed,
				HasErrors: listing.HasErrors(res.Issues),
			}
			if err := writeJSON(stdout, out); err != nil {
				return err
			}
			if out.HasErrors {
				return errBlockingIssues
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&fix, "fix", false, "apply auto-fix before reporting")
	cmd.Flags().StringVar(&templateID, "template", listing.DefaultTemplateID, "template whose length limits apply")
	cmd.Flags().StringVar(&configPath, "config", "sellerdesk.yaml", "YAML config with templates and banned words")
	cmd.Flags().StringSliceVar(&disallowed, "disallowed", nil, "extra disallowed terms")
	cmd.Flags().StringSliceVar(&kwList, "keywords", nil, "keywords to check for stuffing")
	cmd.Flags().BoolVar(&noDefaults, "no-default-banned", false, "skip the configured banned-word list")
	return cmd
}

func readJSON(path string, dest any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
