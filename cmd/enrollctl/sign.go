package main

import (
	"fmt"
	"os"

	"github.com/python-wizard/course-enrollment/razorpay"
	"github.com/spf13/cobra"
)

func signCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sign <order-id> <payment-id>",
		Short: "Compute the checkout signature for an order and payment",
		Long: `Compute the signature the gateway would send for a completed checkout.
Useful for exercising PUT /enroll against a local server. The key secret is
read from --secret or RAZORPAY_KEY_SECRET.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			secret, err := cmd.Flags().GetString("secret")
			if err != nil {
				return err
			}
			if secret == "" {
				secret = os.Getenv("RAZORPAY_KEY_SECRET")
			}
			if secret == "" {
				return fmt.Errorf("no key secret given")
			}

			fmt.Fprintln(cmd.OutOrStdout(), razorpay.ComputeSignature(args[0], args[1], secret))
			return nil
		},
	}

	cmd.Flags().StringP("secret", "s", "", "Gateway key secret")

	return cmd
}
