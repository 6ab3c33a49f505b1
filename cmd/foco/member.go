package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/lawrns/foco/types"
)

var memberCmd = &cobra.Command{
	Use:   "member",
	Short: "Manage board members",
}

var (
	memberAddEmail string
	memberAddRole  string
)

var memberAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a member",
	Long: `Add a member to the board. Members can own projects and be
assigned tasks; the role defaults to editor.

Examples:
  foco member add "Ana Cruz" --email ana@example.com --role admin
  foco member add "Sam Park" --email sam@example.com`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		role, err := types.ParseRole(memberAddRole)
		if err != nil {
			return err
		}
		id, err := s.AddMember(types.MemberDraft{
			Name:  args[0],
			Email: memberAddEmail,
			Role:  role,
		})
		if err != nil {
			return fmt.Errorf("failed to add member: %w", err)
		}
		confirm(id, "Added member %s (%s)", args[0], shortID(id))
		return nil
	},
}

var memberListCmd = &cobra.Command{
	Use:   "list",
	Short: "List members",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		members, err := s.ListMembers()
		if err != nil {
			return fmt.Errorf("failed to list members: %w", err)
		}
		return emit(members, func(w io.Writer) error {
			rows := make([][]string, 0, len(members))
			for _, m := range members {
				rows = append(rows, []string{shortID(m.ID), m.Name, m.Email, string(m.Role)})
			}
			return renderTable(w, []string{"ID", "NAME", "EMAIL", "ROLE"}, rows)
		})
	},
}

var memberRemoveCmd = &cobra.Command{
	Use:   "remove <member>",
	Short: "Remove a member",
	Long: `Remove a member. Their task assignments and project ownerships
are cleared; the tasks and projects themselves stay.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		member, err := resolveMember(s, args[0])
		if err != nil {
			return err
		}
		if err := s.RemoveMember(member.ID); err != nil {
			return fmt.Errorf("failed to remove member: %w", err)
		}
		confirm(member.ID, "Removed member %s", member.Name)
		return nil
	},
}

func init() {
	memberAddCmd.Flags().StringVarP(&memberAddEmail, "email", "e", "", "Email address")
	memberAddCmd.Flags().StringVarP(&memberAddRole, "role", "r", "", "Role: owner|admin|editor|viewer")

	memberCmd.AddCommand(memberAddCmd)
	memberCmd.AddCommand(memberListCmd)
	memberCmd.AddCommand(memberRemoveCmd)
	rootCmd.AddCommand(memberCmd)
}
