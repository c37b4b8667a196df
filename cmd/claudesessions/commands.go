package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

func newProjectsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "projects",
		Short: "List projects, most recently active first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := openStore(cmd)
			if err != nil {
				return err
			}
			projects, err := st.ListProjects()
			if err != nil {
				return fmt.Errorf("listing projects: %w", err)
			}
			out := cmd.OutOrStdout()
			if len(projects) == 0 {
				fmt.Fprintln(out, "No projects found.")
				return nil
			}
			for _, p := range projects {
				path := "(unknown path)"
				if p.ProjectPath != nil {
					path = *p.ProjectPath
				}
				fmt.Fprintf(out, "%-40s %4d  %s  %s\n",
					p.Hash, p.SessionCount,
					formatMillis(p.LastActive), path)
			}
			return nil
		},
	}
}

func newSessionsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sessions <project-hash>",
		Short: "List a project's sessions, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(cmd)
			if err != nil {
				return err
			}
			sessions, err := st.ListSessions(args[0])
			if err != nil {
				return fmt.Errorf("listing sessions: %w", err)
			}
			out := cmd.OutOrStdout()
			if len(sessions) == 0 {
				fmt.Fprintln(out, "No sessions found.")
				return nil
			}
			for _, s := range sessions {
				fmt.Fprintf(out, "%s  %s  %4d msgs  %9s  %s\n",
					s.ID, formatMillis(s.UpdatedAt), s.MessageCount,
					formatBytes(s.FileSize), oneLine(s.Preview, 60))
			}
			return nil
		},
	}
}

func newRmCommand() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:     "rm <project-hash> <session-id>...",
		Short:   "Delete sessions and their subagent records",
		Example: "  claudesessions rm -- -home-me-app 0b1c2d3e",
		Args:    cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(cmd)
			if err != nil {
				return err
			}
			hash, ids := args[0], args[1:]
			out := cmd.OutOrStdout()

			if !yes {
				msg := fmt.Sprintf(
					"Delete %d session(s) from %s?", len(ids), hash,
				)
				if !confirm(cmd.InOrStdin(), out, msg) {
					fmt.Fprintln(out, "Aborted.")
					return nil
				}
			}

			res, err := st.DeleteSessions(hash, ids)
			for _, id := range res.Deleted {
				fmt.Fprintf(out, "deleted  %s\n", id)
			}
			for _, id := range res.Failed {
				fmt.Fprintf(out, "missing  %s\n", id)
			}
			if err != nil {
				return fmt.Errorf("deleting sessions: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip confirmation prompt")
	return cmd
}

func newStatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show totals across all projects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := openStore(cmd)
			if err != nil {
				return err
			}
			stats, err := st.GetGlobalStats()
			if err != nil {
				return fmt.Errorf("computing stats: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Projects:            %d\n", stats.TotalProjects)
			fmt.Fprintf(out, "Sessions:            %d\n", stats.TotalSessions)
			fmt.Fprintf(out, "With CLAUDE.md:      %d\n", stats.ProjectsWithClaudeMd)
			fmt.Fprintf(out, "Size on disk:        %s\n", formatBytes(stats.TotalSizeBytes))
			return nil
		},
	}
}

func confirm(r io.Reader, w io.Writer, msg string) bool {
	fmt.Fprintf(w, "%s [y/N] ", msg)
	scanner := bufio.NewScanner(r)
	scanner.Scan()
	ans := strings.ToLower(strings.TrimSpace(scanner.Text()))
	return ans == "y" || ans == "yes"
}

func formatBytes(b int64) string {
	switch {
	case b >= 1<<30:
		return fmt.Sprintf("%.1f GB", float64(b)/(1<<30))
	case b >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(b)/(1<<20))
	case b >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(b)/(1<<10))
	default:
		return fmt.Sprintf("%d B", b)
	}
}

func formatMillis(ms int64) string {
	if ms == 0 {
		return "-               "
	}
	return time.UnixMilli(ms).Local().Format("2006-01-02 15:04")
}

// oneLine flattens s onto a single line of at most n runes.
func oneLine(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
