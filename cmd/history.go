package cmd

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/termin-bot/internal/history"
)

func newHistoryCmd(verbose *bool) *cobra.Command {
	var (
		dbPath string
		limit  int
	)

	c := &cobra.Command{
		Use:   "history",
		Short: "List recorded attempts and the free days they discovered",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := history.Open(dbPath)
			if err != nil {
				return err
			}
			defer store.Close()

			records, err := store.RecentAttempts(context.Background(), limit)
			if err != nil {
				return err
			}
			for _, r := range records {
				fmt.Fprintf(os.Stdout, "id=%d started=%s outcome=%s detail=%q free_days=%s\n",
					r.ID, r.StartedAt.Local().Format(time.RFC3339), r.Outcome, r.Detail, formatFreeDays(r.FreeDays))
			}
			return nil
		},
	}

	c.Flags().StringVar(&dbPath, "db", "termin.db", "history database file")
	c.Flags().IntVar(&limit, "limit", 20, "maximum number of attempts to list")
	return c
}

func formatFreeDays(days map[string]int) string {
	if len(days) == 0 {
		return "-"
	}
	keys := make([]string, 0, len(days))
	for k := range days {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s:%d", k, days[k]))
	}
	return strings.Join(parts, ",")
}
