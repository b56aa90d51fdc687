package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/quailyquaily/mucbot/internal/clifmt"
	"github.com/quailyquaily/mucbot/internal/ledger"
	"github.com/quailyquaily/mucbot/internal/logutil"
	"github.com/quailyquaily/mucbot/internal/statepaths"
	"github.com/quailyquaily/mucbot/internal/xmpp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newLedgerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Inspect the points ledger",
	}
	cmd.AddCommand(newLedgerTopCmd())
	cmd.AddCommand(newLedgerInsultsCmd())
	cmd.AddCommand(newLedgerAdminsCmd())
	return cmd
}

// openLedger loads the state file without side effects so it is safe to run
// next to a live bot.
func openLedger() (*ledger.Store, error) {
	return ledger.Open(statepaths.StateFilePath(), ledger.Options{Logger: logutil.Discard(), ReadOnly: true})
}

// roomArg accepts a bare room name and resolves it like the join commands do.
func roomArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	domain := strings.TrimSpace(viper.GetString("bot.conference_domain"))
	if domain == "" {
		if jid := strings.TrimSpace(viper.GetString("xmpp.jid")); jid != "" {
			domain = "conference." + xmpp.Domain(jid)
		}
	}
	return xmpp.ResolveRoom(args[0], domain)
}

func newLedgerTopCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "top [room]",
		Short: "Show the leaderboard of a room, or list known rooms",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openLedger()
			if err != nil {
				return err
			}
			room := roomArg(args)
			if room == "" {
				rows := []clifmt.NameDetailRow{}
				for _, r := range store.Rooms() {
					rows = append(rows, clifmt.NameDetailRow{Name: r, Detail: fmt.Sprintf("%d members", len(store.Members(r)))})
				}
				clifmt.PrintNameDetailTable(cmd.OutOrStdout(), clifmt.NameDetailTableOptions{
					Title:        "Rooms",
					Rows:         rows,
					EmptyText:    "Ledger has no rooms yet.",
					NameHeader:   "ROOM",
					DetailHeader: "MEMBERS",
				})
				return nil
			}
			limit, _ := cmd.Flags().GetInt("limit")
			top, err := store.Top(room, limit)
			if err != nil {
				return fmt.Errorf("%s: %w", room, err)
			}
			rows := make([]clifmt.NameDetailRow, 0, len(top))
			for _, s := range top {
				rows = append(rows, clifmt.NameDetailRow{Name: s.Nick, Detail: strconv.Itoa(s.Points)})
			}
			clifmt.PrintNameDetailTable(cmd.OutOrStdout(), clifmt.NameDetailTableOptions{
				Title:        "Top in " + room,
				Rows:         rows,
				Numbered:     true,
				NameHeader:   "NICK",
				DetailHeader: "POINTS",
			})
			return nil
		},
	}
	cmd.Flags().Int("limit", 5, "Number of members to show.")
	return cmd
}

func newLedgerInsultsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "insults <room>",
		Short: "Show the moderation log of a room",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openLedger()
			if err != nil {
				return err
			}
			room := roomArg(args)
			entries := store.Insults(room)
			rows := make([]clifmt.NameDetailRow, 0, len(entries))
			for _, e := range entries {
				rows = append(rows, clifmt.NameDetailRow{
					Name:   e.Nick,
					Detail: strings.TrimSpace(e.Time + "  " + e.Msg),
				})
			}
			clifmt.PrintNameDetailTable(cmd.OutOrStdout(), clifmt.NameDetailTableOptions{
				Title:        "Flagged messages in " + room,
				Rows:         rows,
				EmptyText:    "Nothing flagged.",
				NameHeader:   "NICK",
				DetailHeader: "TIME  MESSAGE",
			})
			return nil
		},
	}
}

func newLedgerAdminsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "admins",
		Short: "List granted admins",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openLedger()
			if err != nil {
				return err
			}
			rows := []clifmt.NameDetailRow{}
			if primary := strings.TrimSpace(viper.GetString("bot.primary_admin")); primary != "" {
				rows = append(rows, clifmt.NameDetailRow{Name: primary, Detail: "primary (configured)"})
			}
			for _, a := range store.Admins() {
				rows = append(rows, clifmt.NameDetailRow{Name: a, Detail: "granted"})
			}
			clifmt.PrintNameDetailTable(cmd.OutOrStdout(), clifmt.NameDetailTableOptions{
				Title:        "Admins",
				Rows:         rows,
				EmptyText:    "No admins.",
				NameHeader:   "NICK",
				DetailHeader: "SOURCE",
			})
			return nil
		},
	}
}
