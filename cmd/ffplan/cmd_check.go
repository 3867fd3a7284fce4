package main

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/zero-day-ai/ffplan/health"
	"github.com/zero-day-ai/ffplan/worker"
)

func (a *app) checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Check that the solver, PDDL files and configured services are usable",
		Long: `Verifies the solver binary, the domain file, the template and the work
directory. When a worker or registry is configured, their endpoints are
checked too. Exits with status 1 if any check is unhealthy.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			names := []string{"solver binary", "domain file", "template", "work directory"}
			checks := worker.HealthChecks(a.cfg)

			if a.cfg.Worker != nil {
				if addr, err := redisAddr(a.cfg.Worker.GetRedisURL()); err == nil {
					names = append(names, "redis "+addr)
					checks = append(checks, func(ctx context.Context) health.HealthStatus {
						return health.NetworkCheck(ctx, addr)
					})
				} else {
					names = append(names, "redis")
					checks = append(checks, health.Static(health.NewUnhealthyStatus(err.Error(), nil)))
				}
			}
			if a.cfg.Registry.Enabled() {
				for _, ep := range a.cfg.Registry.Endpoints {
					names = append(names, "etcd "+ep)
					checks = append(checks, func(ctx context.Context) health.HealthStatus {
						return health.NetworkCheck(ctx, ep)
					})
				}
			}

			overall, results := health.Run(cmd.Context(), checks...)

			out := cmd.OutOrStdout()
			for i, st := range results {
				fmt.Fprintf(out, "%-10s %s: %s\n", st.Status, names[i], st.Message)
			}
			fmt.Fprintf(out, "%-10s overall: %s\n", overall.Status, overall.Message)

			if overall.IsUnhealthy() {
				return &exitError{code: 1}
			}
			return nil
		},
	}
}

// redisAddr extracts host:port from a redis URL.
func redisAddr(raw string) (string, error) {
	opts, err := redis.ParseURL(raw)
	if err != nil {
		return "", fmt.Errorf("invalid redis URL: %w", err)
	}
	return opts.Addr, nil
}
