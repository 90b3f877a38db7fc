package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"phenosurvey/internal/config"
	"phenosurvey/internal/fixture"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "phenosurvey-dev",
		Short: "Phenosurvey development tools",
	}

	rootCmd.AddCommand(
		newServeCmd(),
		newLimitsCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newServeCmd() *cobra.Command {
	var port int
	var pendingPolls int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a synthetic study over the study API contract",
		RunE: func(cmd *cobra.Command, args []string) error {
			study := fixture.DefaultStudy()
			study.PendingPolls = pendingPolls
			server := fixture.NewServer(study)
			address := fmt.Sprintf(":%d", port)
			fmt.Printf("Serving study %q on %s\n", study.Name, address)
			return http.ListenAndServe(address, server.Router())
		},
	}
	cmd.Flags().IntVar(&port, "port", 8080, "Port to listen on")
	cmd.Flags().IntVar(&pendingPolls, "pending-polls", 0, "Number of pending responses before spatial metrics resolve")
	return cmd
}

func newLimitsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "limits <file>",
		Short: "Check a calibration file and print its line coefficients",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			limits, err := config.LimitsFromFile(args[0])
			if err != nil {
				return err
			}
			c0, c1 := limits.Coefficients()
			fmt.Printf("coefficients: %.6f %.6f\n", c0, c1)
			return nil
		},
	}
	return cmd
}
