package cli

import (
	"github.com/spf13/cobra"

	cliadapter "github.com/example/stakeout/internal/adapters/cli"
)

// MemberCmd returns the member command
func MemberCmd() *cobra.Command {
	memberCmd := &cobra.Command{
		Use:   "member",
		Short: "Manage an operation's roster",
	}

	run := func(fn func(cmd *cobra.Command, a *cliadapter.MembershipAdapter, args []string) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			c, ctx, err := setup(cmd)
			if err != nil {
				return err
			}
			cmd.SetContext(ctx)
			return fn(cmd, cliadapter.NewMembershipAdapter(c.Memberships, cmd.OutOrStdout()), args)
		}
	}

	listCmd := &cobra.Command{
		Use:   "list [operation-id]",
		Short: "List active members",
		Args:  cobra.ExactArgs(1),
		RunE: run(func(cmd *cobra.Command, a *cliadapter.MembershipAdapter, args []string) error {
			return a.Members(cmd.Context(), args[0])
		}),
	}

	addCmd := &cobra.Command{
		Use:   "add [operation-id] [user-id...]",
		Short: "Add users directly (case agent only)",
		Args:  cobra.MinimumNArgs(2),
		RunE: run(func(cmd *cobra.Command, a *cliadapter.MembershipAdapter, args []string) error {
			return a.Add(cmd.Context(), args[0], args[1:])
		}),
	}

	removeCmd := &cobra.Command{
		Use:   "remove [operation-id] [user-id]",
		Short: "Remove a member (case agent only)",
		Args:  cobra.ExactArgs(2),
		RunE: run(func(cmd *cobra.Command, a *cliadapter.MembershipAdapter, args []string) error {
			return a.Remove(cmd.Context(), args[0], args[1])
		}),
	}

	leaveCmd := &cobra.Command{
		Use:   "leave [operation-id]",
		Short: "Leave an operation",
		Args:  cobra.ExactArgs(1),
		RunE: run(func(cmd *cobra.Command, a *cliadapter.MembershipAdapter, args []string) error {
			return a.Leave(cmd.Context(), args[0])
		}),
	}

	transferCmd := &cobra.Command{
		Use:   "transfer [operation-id] [user-id]",
		Short: "Hand case agent status to another member",
		Args:  cobra.ExactArgs(2),
		RunE: run(func(cmd *cobra.Command, a *cliadapter.MembershipAdapter, args []string) error {
			return a.Transfer(cmd.Context(), args[0], args[1])
		}),
	}

	publishingCmd := &cobra.Command{
		Use:   "publishing [operation-id] [on|off]",
		Short: "Mark whether you are publishing location",
		Args:  cobra.ExactArgs(2),
		ValidArgsFunction: func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
			return []string{"on", "off"}, cobra.ShellCompDirectiveNoFileComp
		},
		RunE: run(func(cmd *cobra.Command, a *cliadapter.MembershipAdapter, args []string) error {
			on, err := parseOnOff(args[1])
			if err != nil {
				return err
			}
			return a.Publishing(cmd.Context(), args[0], on)
		}),
	}

	memberCmd.AddCommand(listCmd)
	memberCmd.AddCommand(addCmd)
	memberCmd.AddCommand(removeCmd)
	memberCmd.AddCommand(leaveCmd)
	memberCmd.AddCommand(transferCmd)
	memberCmd.AddCommand(publishingCmd)
	return memberCmd
}

// InviteCmd returns the invite command
func InviteCmd() *cobra.Command {
	inviteCmd := &cobra.Command{
		Use:   "invite",
		Short: "Send and answer operation invites",
	}

	sendCmd := &cobra.Command{
		Use:   "send [operation-id] [user-id]",
		Short: "Invite a user (any member may invite)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, ctx, err := setup(cmd)
			if err != nil {
				return err
			}
			ttl, _ := cmd.Flags().GetDuration("ttl")
			if ttl == 0 {
				ttl = c.Config.InviteTTL
			}
			return cliadapter.NewMembershipAdapter(c.Memberships, cmd.OutOrStdout()).Invite(ctx, args[0], args[1], ttl)
		},
	}
	sendCmd.Flags().Duration("ttl", 0, "Invite lifetime (default: invite_ttl from config)")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List invites addressed to you, or an operation's with --op",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, ctx, err := setup(cmd)
			if err != nil {
				return err
			}
			opID, _ := cmd.Flags().GetString("op")
			return cliadapter.NewMembershipAdapter(c.Memberships, cmd.OutOrStdout()).Invites(ctx, opID)
		},
	}
	listCmd.Flags().String("op", "", "List invites of this operation")

	respond := func(accept bool) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			c, ctx, err := setup(cmd)
			if err != nil {
				return err
			}
			return cliadapter.NewMembershipAdapter(c.Memberships, cmd.OutOrStdout()).Respond(ctx, args[0], accept)
		}
	}
	acceptCmd := &cobra.Command{
		Use:   "accept [invite-id]",
		Short: "Accept an invite",
		Args:  cobra.ExactArgs(1),
		RunE:  respond(true),
	}
	declineCmd := &cobra.Command{
		Use:   "decline [invite-id]",
		Short: "Decline an invite",
		Args:  cobra.ExactArgs(1),
		RunE:  respond(false),
	}

	inviteCmd.AddCommand(sendCmd)
	inviteCmd.AddCommand(listCmd)
	inviteCmd.AddCommand(acceptCmd)
	inviteCmd.AddCommand(declineCmd)
	return inviteCmd
}

// JoinCmd returns the join command
func JoinCmd() *cobra.Command {
	joinCmd := &cobra.Command{
		Use:   "join",
		Short: "Request to join operations and answer requests",
	}

	requestCmd := &cobra.Command{
		Use:   "request [operation-id]",
		Short: "Ask to join an operation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, ctx, err := setup(cmd)
			if err != nil {
				return err
			}
			return cliadapter.NewMembershipAdapter(c.Memberships, cmd.OutOrStdout()).RequestJoin(ctx, args[0])
		},
	}

	listCmd := &cobra.Command{
		Use:   "list [operation-id]",
		Short: "List join requests (case agent only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, ctx, err := setup(cmd)
			if err != nil {
				return err
			}
			return cliadapter.NewMembershipAdapter(c.Memberships, cmd.OutOrStdout()).JoinRequests(ctx, args[0])
		},
	}

	respond := func(approve bool) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			c, ctx, err := setup(cmd)
			if err != nil {
				return err
			}
			return cliadapter.NewMembershipAdapter(c.Memberships, cmd.OutOrStdout()).RespondJoin(ctx, args[0], approve)
		}
	}
	approveCmd := &cobra.Command{
		Use:   "approve [request-id]",
		Short: "Approve a join request",
		Args:  cobra.ExactArgs(1),
		RunE:  respond(true),
	}
	denyCmd := &cobra.Command{
		Use:   "deny [request-id]",
		Short: "Deny a join request",
		Args:  cobra.ExactArgs(1),
		RunE:  respond(false),
	}

	joinCmd.AddCommand(requestCmd)
	joinCmd.AddCommand(listCmd)
	joinCmd.AddCommand(approveCmd)
	joinCmd.AddCommand(denyCmd)
	return joinCmd
}
