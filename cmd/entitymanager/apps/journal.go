package apps

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/h2hsecure/entitymanager/internal/adapter"
	"github.com/h2hsecure/entitymanager/internal/domain"
)

var journalKind string

var JournalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Print the accounts created from this machine",
	Long:  AppDescription,
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := setup()

		if err := PrintJournal(cmd.Context(), cfg.DBPath, journalKind, os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "%s\n", err.Error())
			os.Exit(1)
		}
	},
}

func init() {
	JournalCmd.Flags().StringVar(&journalKind, "kind", "", "only show Applicant or Entity accounts")
}

// PrintJournal writes one JSON object per journal entry, oldest first.
func PrintJournal(ctx context.Context, dbPath, kind string, out io.Writer) error {
	if _, err := os.Stat(dbPath); err != nil {
		return fmt.Errorf("journal %s: %w", dbPath, err)
	}

	db, err := adapter.NewBoltJournal(dbPath, true)
	if err != nil {
		return err
	}

	defer func() {
		if err := db.Close(); err != nil {
			log.Warn().Err(err).Msgf("db close")
		}
	}()

	entries, err := db.List(ctx)
	if err != nil {
		return fmt.Errorf("read journal: %w", err)
	}

	if kind != "" {
		entries = lo.Filter(entries, func(item domain.JournalEntry, _ int) bool {
			return strings.EqualFold(item.Kind, kind)
		})
	}

	enc := json.NewEncoder(out)
	for _, entry := range entries {
		if err := enc.Encode(entry); err != nil {
			return fmt.Errorf("encode entry: %w", err)
		}
	}

	return nil
}
