package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"go-hallnav/internal/factory"
	"go-hallnav/internal/repository"
	"go-hallnav/internal/routing"
)

var routeCmd = &cobra.Command{
	Use:   "route <start> <end>",
	Short: "Print directions between two locations",
	Long: `Prints the turn-by-turn directions between two known locations.

Example:
  hallctl route Entrance "LT3 & 4"`,
	Args: cobra.ExactArgs(2),
	RunE: runRoute,
}

func runRoute(cmd *cobra.Command, args []string) error {
	start, end := strings.TrimSpace(args[0]), strings.TrimSpace(args[1])

	router, err := loadRouter(cmd.Context())
	if err != nil {
		return err
	}

	if start == end {
		fmt.Fprintln(cmd.OutOrStdout(), routing.AlreadyThere)
		return nil
	}

	plan, err := router.Plan(start, end)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for i, step := range plan.Directions {
		fmt.Fprintf(out, "%d. %s\n", i+1, step)
	}
	return nil
}

func loadRouter(ctx context.Context) (*routing.Router, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	store, err := factory.CreateStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	ref, err := repository.LoadReferenceData(ctx, store)
	if err != nil {
		return nil, err
	}
	return routing.NewRouter(routing.LoadLocations(ref.Halls())), nil
}
