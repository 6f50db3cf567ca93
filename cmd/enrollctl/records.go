package main

import (
	"encoding/json"
	"fmt"

	"github.com/python-wizard/course-enrollment/enrollment"
	"github.com/python-wizard/course-enrollment/records"
	"github.com/spf13/cobra"
)

func addDataFileFlag(cmd *cobra.Command) {
	cmd.Flags().StringP("data-file", "f", "data/user-data.json", "Path to the enrollment record document")
}

func readDocument(cmd *cobra.Command) (enrollment.Document, error) {
	path, err := cmd.Flags().GetString("data-file")
	if err != nil {
		return enrollment.Document{}, err
	}

	store := records.NewStore(records.NewFileBlob(path), newLogger(cmd))
	return store.Read(cmd.Context()), nil
}

func statsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show enrollment and payment counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := readDocument(cmd)
			if err != nil {
				return err
			}

			stats := enrollment.StatisticsOf(doc)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%-12s %d\n", "Enrollments:", stats.TotalEnrollments)
			fmt.Fprintf(out, "%-12s %d\n", "Pending:", stats.PendingEnrollments)
			fmt.Fprintf(out, "%-12s %d\n", "Payments:", stats.CompletedPayments)
			return nil
		},
	}

	addDataFileFlag(cmd)

	return cmd
}

func userDataCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user-data",
		Short: "Print the enrollment record document as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := readDocument(cmd)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(doc)
		},
	}

	addDataFileFlag(cmd)

	return cmd
}
