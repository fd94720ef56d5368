package cmd

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/facewatch/internal/config"
)

var peopleCmd = &cobra.Command{
	Use:   "people [query]",
	Short: "List enrolled people",
	Long: `Print the enrolled roster. An optional query filters by name,
ignoring case and diacritics.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPeople,
}

func init() {
	rootCmd.AddCommand(peopleCmd)
}

func runPeople(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	ctx := context.Background()

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}

	query := ""
	if len(args) == 1 {
		query = args[0]
	}
	people, err := store.FindPeople(ctx, query)
	if err != nil {
		return fmt.Errorf("listing people: %w", err)
	}
	if len(people) == 0 {
		fmt.Println("No people enrolled")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tCLASS\tROLL\tREGISTERED")
	for _, p := range people {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
			p.ID, p.Name, p.ClassName, p.RollNumber, p.RegisteredAt.Format("2006-01-02"))
	}
	return w.Flush()
}
