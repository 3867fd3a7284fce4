package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/zero-day-ai/ffplan/planner"
	"github.com/zero-day-ai/ffplan/problem"
	"github.com/zero-day-ai/ffplan/solver"
)

// Exit codes of the plan command for outcomes other than a plan.
const (
	exitUnsolvable = 2
	exitMalformed  = 3
)

// requestFlags are shared by plan and synth.
type requestFlags struct {
	observations string
	manifest     string
	problem      string
	mode         int
}

func (f *requestFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.observations, "observations", "o", "", "YAML or JSON file of observed facts, e.g. {\"clear(c1)\": true}")
	cmd.Flags().StringVarP(&f.manifest, "manifest", "m", "", "YAML or JSON file of object categories; generates the whole problem instead of patching the template")
	cmd.Flags().StringVarP(&f.problem, "problem", "p", "", "problem file name inside the work directory (default: problem.output)")
	_ = cmd.MarkFlagRequired("observations")
}

// request reads the flag files into a planner request.
func (f *requestFlags) request() (planner.Request, error) {
	var req planner.Request
	if err := readYAML(f.observations, &req.Observations); err != nil {
		return req, fmt.Errorf("observations: %w", err)
	}
	if f.manifest != "" {
		var m problem.Manifest
		if err := readYAML(f.manifest, &m); err != nil {
			return req, fmt.Errorf("manifest: %w", err)
		}
		if m == nil {
			m = problem.Manifest{}
		}
		req.Manifest = m
	}
	req.ProblemFile = f.problem
	req.Mode = f.mode
	return req, nil
}

func readYAML(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, out)
}

// planOutput is the --json form of a plan result.
type planOutput struct {
	ID         string   `json:"id"`
	Outcome    string   `json:"outcome"`
	Actions    []string `json:"actions"`
	Diagnostic string   `json:"diagnostic,omitempty"`
	Problem    string   `json:"problem,omitempty"`
	DurationMS int64    `json:"duration_ms"`
}

func (a *app) planCmd() *cobra.Command {
	var (
		flags    requestFlags
		jsonOut  bool
		modeFlag = -1
	)

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Synthesize a problem, run the planner and print the plan",
		Long: `Writes the problem file for the observed facts, runs Metric-FF once and prints
one action per line. An unsolvable problem exits with status 2 and output
that cannot be read as a plan exits with status 3.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			flags.mode = a.cfg.Solver.Mode
			if modeFlag >= 0 {
				flags.mode = modeFlag
			}
			req, err := flags.request()
			if err != nil {
				return err
			}

			p, err := a.newPlanner()
			if err != nil {
				return err
			}
			res, err := p.Plan(cmd.Context(), req)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if jsonOut {
				po := planOutput{
					ID:         res.ID,
					Outcome:    res.Outcome.String(),
					Actions:    res.Plan.Strings(),
					Diagnostic: res.Diagnostic,
					DurationMS: res.Duration.Milliseconds(),
				}
				if res.Artifact != nil {
					po.Problem = res.Artifact.Path
				}
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(po); err != nil {
					return err
				}
			} else if res.OK() {
				for _, step := range res.Plan.Strings() {
					fmt.Fprintln(out, step)
				}
			} else {
				fmt.Fprintln(cmd.ErrOrStderr(), res.Diagnostic)
			}

			switch res.Outcome {
			case solver.OutcomePlan:
				return nil
			case solver.OutcomeUnsolvable:
				return &exitError{code: exitUnsolvable}
			default:
				return &exitError{code: exitMalformed}
			}
		},
	}

	flags.register(cmd)
	cmd.Flags().IntVar(&modeFlag, "mode", -1, "solver search mode passed with -s (default: solver.mode)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "print the result as JSON")
	return cmd
}

func (a *app) synthCmd() *cobra.Command {
	var flags requestFlags

	cmd := &cobra.Command{
		Use:   "synth",
		Short: "Write the problem file without running the planner",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			req, err := flags.request()
			if err != nil {
				return err
			}

			p, err := a.newPlanner()
			if err != nil {
				return err
			}
			art, err := p.Synthesize(cmd.Context(), req)
			if err != nil {
				return err
			}

			a.logger.Info("problem written", "path", art.Path, "mode", art.Mode, "facts", art.Facts)
			fmt.Fprintln(cmd.OutOrStdout(), art.Path)
			return nil
		},
	}

	flags.register(cmd)
	return cmd
}
