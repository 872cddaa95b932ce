package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/citycare/issue-service/internal/domain"
	"github.com/citycare/issue-service/internal/service"
)

type officerView struct {
	ID       string             `json:"id"`
	FullName string             `json:"full_name"`
	Email    string             `json:"email"`
	Role     domain.OfficerRole `json:"role"`
	WardZone *string            `json:"ward_zone"`
	Active   bool               `json:"active"`
}

func toOfficerView(o *domain.Officer) officerView {
	return officerView{ID: o.ID, FullName: o.FullName, Email: o.Email, Role: o.Role, WardZone: o.WardZone, Active: o.Active}
}

func newOfficerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "officer",
		Short: "Manage officer accounts",
	}
	cmd.AddCommand(newOfficerCreateCmd(), newOfficerListCmd())
	return cmd
}

func newOfficerCreateCmd() *cobra.Command {
	var input service.OfficerCreateInput
	var role, ward string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an officer (used to bootstrap the first admin)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			input.Role = domain.OfficerRole(role)
			if ward != "" {
				input.WardZone = &ward
			}
			return withEnv(cmd, func(ctx context.Context, env *cliEnv) error {
				officer, err := env.officers.Provision(ctx, input)
				if err != nil {
					return err
				}
				if jsonOutput {
					return json.NewEncoder(cmd.OutOrStdout()).Encode(toOfficerView(officer))
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s (%s) %s\n",
					okStyle.Render("created"), boldStyle.Render(officer.FullName), officer.Role, mutedStyle.Render(officer.ID))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&input.FullName, "name", "", "Full name")
	cmd.Flags().StringVar(&input.Email, "email", "", "Login email")
	cmd.Flags().StringVar(&input.Password, "password", "", "Initial password")
	cmd.Flags().StringVar(&role, "role", string(domain.OfficerRoleWard), "ward_officer, field_officer or admin")
	cmd.Flags().StringVar(&ward, "ward", "", "Ward zone")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newOfficerListCmd() *cobra.Command {
	var role, ward, active string
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List officers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			filters := service.OfficerListFilters{Limit: limit}
			if role != "" {
				r := domain.OfficerRole(role)
				filters.Role = &r
			}
			if ward != "" {
				filters.WardZone = &ward
			}
			if active != "" {
				parsed, err := strconv.ParseBool(active)
				if err != nil {
					return fmt.Errorf("invalid --active value %q", active)
				}
				filters.Active = &parsed
			}
			return withEnv(cmd, func(ctx context.Context, env *cliEnv) error {
				officers, err := env.officers.List(ctx, filters)
				if err != nil {
					return err
				}
				views := make([]officerView, 0, len(officers))
				for i := range officers {
					views = append(views, toOfficerView(&officers[i]))
				}
				if jsonOutput {
					return json.NewEncoder(cmd.OutOrStdout()).Encode(views)
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tNAME\tEMAIL\tROLE\tWARD\tACTIVE")
				for _, v := range views {
					wardZone := "-"
					if v.WardZone != nil {
						wardZone = *v.WardZone
					}
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%t\n", v.ID, v.FullName, v.Email, v.Role, wardZone, v.Active)
				}
				return tw.Flush()
			})
		},
	}
	cmd.Flags().StringVar(&role, "role", "", "Filter by role")
	cmd.Flags().StringVar(&ward, "ward", "", "Filter by ward zone")
	cmd.Flags().StringVar(&active, "active", "", "Filter by active flag (true/false)")
	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum rows")
	return cmd
}
