package main

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/spf13/cobra"

	"github.com/go-while/go-yelpcamp/internal/database"
	"github.com/go-while/go-yelpcamp/internal/seeds"
)

func newSeedCmd(a *app) *cobra.Command {
	var (
		count  int
		author string
		seed   int64
	)
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Replace all campgrounds with random ones",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := a.openDB()
			if err != nil {
				return err
			}
			defer db.Shutdown()

			user, err := db.GetUserByUsername(author)
			if errors.Is(err, database.ErrNotFound) {
				return fmt.Errorf("user '%s' not found, create it with 'yelpcamp user create'", author)
			}
			if err != nil {
				return err
			}

			ds, err := seeds.DefaultDataset()
			if err != nil {
				return err
			}
			if seed == 0 {
				seed = time.Now().UnixNano()
			}
			if err := seeds.Run(db, ds, user, count, rand.New(rand.NewSource(seed)), a.log); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✅ Seeded %d campgrounds by '%s'\n", count, user.Username)
			return nil
		},
	}
	cmd.Flags().IntVarP(&count, "count", "n", 50, "number of campgrounds")
	cmd.Flags().StringVar(&author, "author", "", "username of the author of all seeded campgrounds")
	cmd.Flags().Int64Var(&seed, "seed", 0, "random seed (default: time based)")
	_ = cmd.MarkFlagRequired("author")
	return cmd
}
