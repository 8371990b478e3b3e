package command

import (
	"fmt"
	"io"
	"text/tabwriter"

	"libraryhub/cmd/cli/dto"

	"github.com/spf13/cobra"
)

var borrowCmd = &cobra.Command{
	Use:   "borrow",
	Short: "Borrow and return books",
}

var borrowBookCmd = &cobra.Command{
	Use:   "book [book_id]",
	Short: "Borrow a copy of a book",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		bookID, err := parseID(args[0], "book ID")
		if err != nil {
			return err
		}
		req := dto.BorrowRequest{BookID: bookID}
		if memberID, _ := cmd.Flags().GetInt64("member"); memberID > 0 {
			req.MemberID = &memberID
		}

		httpClient, err := GetAuthenticatedClient()
		if err != nil {
			return err
		}
		borrow, err := httpClient.Borrow(req)
		if err != nil {
			return fmt.Errorf("borrow failed: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Borrowed book %d (borrow ID: %d), due back on %s\n", borrow.BookID, borrow.ID, borrow.DueDate)
		return nil
	},
}

var returnBookCmd = &cobra.Command{
	Use:   "return [book_id]",
	Short: "Return a borrowed book",
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
		resp, err := httpClient.Return(bookID)
		if err != nil {
			return fmt.Errorf("return failed: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "✓ %s (%s)\n", resp.Message, resp.BookReturned.Title)
		if resp.Late {
			fmt.Fprintf(out, "⚠ Returned %d day(s) late, fine: %d\n", resp.LateDays, resp.Fine)
		}
		if len(resp.CurrentlyBorrowedBooks) > 0 {
			fmt.Fprintln(out, "Still borrowed:")
			for _, b := range resp.CurrentlyBorrowedBooks {
				fmt.Fprintf(out, "  - %s (due %s)\n", b.Title, b.DueDate)
			}
		}
		return nil
	},
}

var borrowListCmd = &cobra.Command{
	Use:   "list",
	Short: "List your borrows (all borrows for admins)",
	RunE: func(cmd *cobra.Command, args []string) error {
		page, _ := cmd.Flags().GetInt("page")
		httpClient, err := GetAuthenticatedClient()
		if err != nil {
			return err
		}
		borrows, err := httpClient.ListBorrows(page)
		if err != nil {
			return fmt.Errorf("failed to list borrows: %w", err)
		}
		printBorrows(cmd.OutOrStdout(), borrows)
		return nil
	},
}

var overdueCmd = &cobra.Command{
	Use:   "overdue",
	Short: "List overdue borrows (admin only)",
	RunE: func(cmd *cobra.Command, args []string) error {
		page, _ := cmd.Flags().GetInt("page")
		httpClient, err := GetAuthenticatedClient()
		if err != nil {
			return err
		}
		borrows, err := httpClient.Overdue(page)
		if err != nil {
			return fmt.Errorf("failed to list overdue borrows: %w", err)
		}
		printBorrows(cmd.OutOrStdout(), borrows)
		return nil
	},
}

func printBorrows(out io.Writer, page *dto.Page[dto.Borrow]) {
	if len(page.Data) == 0 {
		fmt.Fprintln(out, "No borrows found.")
		return
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tBOOK\tMEMBER\tBORROWED\tDUE\tRETURNED\tFINE")
	for _, b := range page.Data {
		title := fmt.Sprintf("#%d", b.BookID)
		if b.BookDetail != nil {
			title = b.BookDetail.Title
		}
		returned := "-"
		if b.ReturnDate != nil {
			returned = *b.ReturnDate
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%d\n", b.ID, title, b.MemberEmail, b.BorrowDate, b.DueDate, returned, b.Fine)
	}
	tw.Flush()
	fmt.Fprintf(out, "Page %d of %d (%d borrows)\n", page.Page, page.TotalPages, page.Total)
}

func init() {
	borrowCmd.AddCommand(borrowBookCmd, returnBookCmd, borrowListCmd, overdueCmd)

	borrowBookCmd.Flags().Int64("member", 0, "Borrow on behalf of this member ID (admin only)")
	borrowListCmd.Flags().Int("page", 1, "Page number")
	overdueCmd.Flags().Int("page", 1, "Page number")
}
