package command

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"libraryhub/cmd/cli/command/client"
	"libraryhub/cmd/cli/dto"

	"github.com/spf13/cobra"
)

var bookCmd = &cobra.Command{
	Use:   "books",
	Short: "Browse the catalog",
}

var bookListCmd = &cobra.Command{
	Use:   "list",
	Short: "List books, optionally filtered",
	RunE: func(cmd *cobra.Command, args []string) error {
		var q client.BookQuery
		q.Category, _ = cmd.Flags().GetString("category")
		q.AuthorFirstName, _ = cmd.Flags().GetString("author-first-name")
		q.AuthorLastName, _ = cmd.Flags().GetString("author-last-name")
		q.Search, _ = cmd.Flags().GetString("search")
		q.Ordering, _ = cmd.Flags().GetString("ordering")
		q.Page, _ = cmd.Flags().GetInt("page")
		q.PageSize, _ = cmd.Flags().GetInt("page-size")

		page, err := client.NewHTTPClient(apiURL).ListBooks(q)
		if err != nil {
			return fmt.Errorf("failed to list books: %w", err)
		}
		printBooks(cmd.OutOrStdout(), page)
		return nil
	},
}

var bookSearchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search titles, authors and categories",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		page, err := client.NewHTTPClient(apiURL).SearchBooks(strings.Join(args, " "))
		if err != nil {
			return fmt.Errorf("search failed: %w", err)
		}
		printBooks(cmd.OutOrStdout(), page)
		return nil
	},
}

var bookShowCmd = &cobra.Command{
	Use:   "show [book_id]",
	Short: "Show one book",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0], "book ID")
		if err != nil {
			return err
		}
		book, err := client.NewHTTPClient(apiURL).GetBook(id)
		if err != nil {
			return fmt.Errorf("failed to get book: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "📖 %s (ID: %d)\n", book.Title, book.ID)
		fmt.Fprintf(out, "   ISBN:      %s\n", book.ISBN)
		fmt.Fprintf(out, "   Authors:   %s\n", authorNames(book.Authors))
		if book.Category != nil {
			fmt.Fprintf(out, "   Category:  %s\n", book.Category.Name)
		}
		fmt.Fprintf(out, "   Available: %d of %d\n", book.AvailableCopies, book.TotalCopies)
		return nil
	},
}

func printBooks(out io.Writer, page *dto.Page[dto.Book]) {
	if len(page.Data) == 0 {
		fmt.Fprintln(out, "No books found.")
		return
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tAUTHORS\tAVAILABLE")
	for _, b := range page.Data {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d/%d\n", b.ID, b.Title, authorNames(b.Authors), b.AvailableCopies, b.TotalCopies)
	}
	tw.Flush()
	fmt.Fprintf(out, "Page %d of %d (%d books)\n", page.Page, page.TotalPages, page.Total)
}

func authorNames(authors []dto.Author) string {
	names := make([]string, 0, len(authors))
	for _, a := range authors {
		names = append(names, a.FirstName+" "+a.LastName)
	}
	if len(names) == 0 {
		return "-"
	}
	return strings.Join(names, ", ")
}

func parseID(raw, what string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", what, raw)
	}
	return id, nil
}

func init() {
	bookCmd.AddCommand(bookListCmd, bookSearchCmd, bookShowCmd)

	bookListCmd.Flags().String("category", "", "Exact category name")
	bookListCmd.Flags().String("author-first-name", "", "Author first name")
	bookListCmd.Flags().String("author-last-name", "", "Author last name")
	bookListCmd.Flags().StringP("search", "s", "", "Free text search")
	bookListCmd.Flags().StringP("ordering", "o", "", "title, -title, available_copies or -available_copies")
	bookListCmd.Flags().Int("page", 1, "Page number")
	bookListCmd.Flags().Int("page-size", 20, "Results per page (max 100)")
}
