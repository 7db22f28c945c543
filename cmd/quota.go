package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/szmania/mega-manager/internal/history"
	"github.com/szmania/mega-manager/internal/megatools"
)

var quotaHistory int

var quotaCmd = &cobra.Command{
	Use:   "quota",
	Short: "Print the space usage of every configured account.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		if quotaHistory > 0 {
			return printHistory(filepath.Join(cfg.DataDir, "history.db"), quotaHistory)
		}

		client := megatools.New(cfg.MegatoolsDir, 0, 0)
		for i := range cfg.Profiles {
			p := &cfg.Profiles[i]
			info, err := client.Space(p.Credentials())
			if err != nil {
				fmt.Printf("%s - %s: unavailable (%v)\n", p.Name, p.Username, err)
				continue
			}
			fmt.Printf("%s - %s\n", p.Name, p.Username)
			fmt.Printf("  Total: %d\n  Used:  %d\n  Free:  %d\n", info.Total, info.Used, info.Free)
		}
		return nil
	},
}

func printHistory(dbPath string, limit int) error {
	db, err := history.Open(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open run history: %w", err)
	}
	defer db.Close()

	runs, err := db.Runs(limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No recorded runs.")
		return nil
	}

	for _, run := range runs {
		features := "details only"
		if len(run.Features) > 0 {
			features = fmt.Sprintf("%v", run.Features)
		}
		fmt.Printf("%s (%s)\n", run.FinishedAt.Format("2006-01-02 15:04:05"), features)
		for _, acc := range run.Accounts {
			fmt.Printf("  %s: used %d of %d\n", acc.Profile, acc.Used, acc.Total)
		}
	}
	return nil
}

func init() {
	quotaCmd.Flags().IntVar(&quotaHistory, "history", 0, "Print the last N recorded runs instead of querying live")
}
