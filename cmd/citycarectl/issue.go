package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/citycare/issue-service/internal/domain"
	"github.com/citycare/issue-service/internal/repository"
)

func newIssueCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "issue",
		Short: "Inspect issues",
	}
	cmd.AddCommand(newIssueShowCmd(), newIssueVerifyCmd())
	return cmd
}

// loadIssue accepts either an issue id or a CC- ticket id.
func loadIssue(ctx context.Context, issues repository.IssueRepository, ref string) (*domain.Issue, error) {
	ref = strings.TrimSpace(ref)
	var (
		issue *domain.Issue
		err   error
	)
	if strings.HasPrefix(strings.ToUpper(ref), "CC-") {
		issue, err = issues.GetByTicketID(ctx, strings.ToUpper(ref))
	} else {
		issue, err = issues.Get(ctx, ref)
	}
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("issue %s not found", ref)
	}
	return issue, err
}

func newIssueShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id|ticket>",
		Short: "Print an issue and its history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd, func(ctx context.Context, env *cliEnv) error {
				issue, err := loadIssue(ctx, env.stores.Issues, args[0])
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if jsonOutput {
					return json.NewEncoder(out).Encode(issue)
				}
				fmt.Fprintf(out, "%s %s  %s\n", boldStyle.Render(issue.TicketID), issue.Title, statusStyle(issue.Status).Render(string(issue.Status)))
				fmt.Fprintf(out, "  id:        %s\n", issue.ID)
				fmt.Fprintf(out, "  category:  %s / %s (score %.2f)\n", issue.Category, issue.Severity, issue.PriorityScore)
				if issue.AssignedTo != nil {
					fmt.Fprintf(out, "  assignee:  %s\n", *issue.AssignedTo)
				}
				if issue.RejectionReason != "" {
					fmt.Fprintf(out, "  rejected:  %s\n", issue.RejectionReason)
				}
				fmt.Fprintf(out, "  revision:  %d\n", issue.Revision)
				fmt.Fprintln(out, boldStyle.Render("history"))
				for _, ev := range issue.History {
					fmt.Fprintf(out, "  %3d %s %-13s %s\n", ev.Sequence, mutedStyle.Render(ev.Timestamp.Format(time.RFC3339)), ev.Kind, describeEvent(ev))
				}
				return nil
			})
		},
	}
}

func newIssueVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify <id|ticket>",
		Short: "Replay an issue's history and compare it with the stored state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd, func(ctx context.Context, env *cliEnv) error {
				issue, err := loadIssue(ctx, env.stores.Issues, args[0])
				if err != nil {
					return err
				}
				if err := domain.VerifyProjection(issue); err != nil {
					return fmt.Errorf("issue %s is inconsistent: %w", issue.TicketID, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s: %d events replay to %s\n",
					okStyle.Render("ok"), issue.TicketID, len(issue.History), issue.Status)
				return nil
			})
		},
	}
}

func statusStyle(status domain.IssueStatus) lipgloss.Style {
	switch status {
	case domain.IssueStatusResolved:
		return okStyle
	case domain.IssueStatusRejected:
		return failStyle
	case domain.IssueStatusInProgress:
		return warnStyle
	}
	return mutedStyle
}

func describeEvent(ev domain.IssueEvent) string {
	var parts []string
	if ev.Kind != domain.EventKindComment {
		parts = append(parts, fmt.Sprintf("%s -> %s", ev.FromStatus, ev.ToStatus))
	}
	if ev.ToAssignee != nil {
		parts = append(parts, "assignee="+*ev.ToAssignee)
	}
	if ev.Reason != "" {
		parts = append(parts, fmt.Sprintf("reason=%q", ev.Reason))
	}
	if ev.Comment != "" {
		parts = append(parts, fmt.Sprintf("comment=%q", ev.Comment))
	}
	if ev.Report != nil {
		parts = append(parts, fmt.Sprintf("work_done=%q", ev.Report.WorkDone))
	}
	parts = append(parts, "by "+ev.ActorID)
	return strings.Join(parts, " ")
}
