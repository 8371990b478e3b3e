package command

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var reservationCmd = &cobra.Command{
	Use:     "reservations",
	Aliases: []string{"reserve"},
	Short:   "Reserve books that are out on loan",
}

var reserveAddCmd = &cobra.Command{
	Use:   "add [book_id]",
	Short: "Reserve a book with no copies available",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		bookID, err := parseID(args[0], "book ID")
		if err != nil {
			return err
		}
		httpClient, err := GetAuthenticatedClient()
		if err != nil {
			return err
		}
		res, err := httpClient.Reserve(bookID)
		if err != nil {
			return fmt.Errorf("reservation failed: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Reserved book %d (reservation ID: %d)\n", res.BookID, res.ID)
		return nil
	},
}

var reserveCancelCmd = &cobra.Command{
	Use:   "cancel [book_id]",
	Short: "Cancel your active reservation for a book",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		bookID, err := parseID(args[0], "book ID")
		if err != nil {
			return err
		}
		httpClient, err := GetAuthenticatedClient()
		if err != nil {
			return err
		}
		resp, err := httpClient.CancelReservation(bookID)
		if err != nil {
			return fmt.Errorf("cancel failed: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "✓", resp.Message)
		return nil
	},
}

var reserveListCmd = &cobra.Command{
	Use:   "list",
	Short: "List your reservations",
	RunE: func(cmd *cobra.Command, args []string) error {
		activeOnly, _ := cmd.Flags().GetBool("active")
		httpClient, err := GetAuthenticatedClient()
		if err != nil {
			return err
		}
		page, err := httpClient.ListReservations(activeOnly)
		if err != nil {
			return fmt.Errorf("failed to list reservations: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(page.Data) == 0 {
			fmt.Fprintln(out, "No reservations found.")
			return nil
		}
		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tBOOK\tRESERVED\tSTATUS")
		for _, r := range page.Data {
			status := "cancelled"
			if r.IsActive {
				status = "active"
			}
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", r.ID, r.BookTitle, r.ReservationDate, status)
		}
		return tw.Flush()
	},
}

func init() {
	reservationCmd.AddCommand(reserveAddCmd, reserveCancelCmd, reserveListCmd)

	reserveListCmd.Flags().Bool("active", false, "Only show active reservations")
}
