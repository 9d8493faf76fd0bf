package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"tidbyt.dev/schedule"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Checks the schedule backend and cache",
	Args:  cobra.NoArgs,
	RunE:  status,
}

func status(cmd *cobra.Command, args []string) error {
	s, err := openSchedule()
	if err != nil {
		return err
	}
	defer s.Close()

	st := s.Status(context.Background())

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(st); err != nil {
		return err
	}

	if st.Overall == schedule.StatusError {
		return fmt.Errorf("%s backend is unavailable", st.Backend)
	}
	return nil
}
