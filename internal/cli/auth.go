package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fragmede/passage/internal/api"
)

func newLoginCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login EMAIL",
		Short: "Log in against the REST auth API and print the response",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			password, _ := cmd.Flags().GetString("password")

			var d deps
			defer d.close()
			if err := d.setup(false); err != nil {
				return err
			}

			res, err := d.client.Login(cmd.Context(), args[0], password)
			return printAuthResult(cmd, res, err)
		},
	}
	cmd.Flags().StringP("password", "p", "", "account password")
	cmd.MarkFlagRequired("password")
	return cmd
}

func newRegisterCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register through the REST auth API and print the response",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			userData, err := registerPayload(cmd)
			if err != nil {
				return err
			}

			var d deps
			defer d.close()
			if err := d.setup(false); err != nil {
				return err
			}

			res, err := d.client.Register(cmd.Context(), userData)
			return printAuthResult(cmd, res, err)
		},
	}
	cmd.Flags().String("email", "", "account email")
	cmd.Flags().StringP("password", "p", "", "account password")
	cmd.Flags().String("name", "", "display name")
	cmd.Flags().String("data", "", "raw JSON payload, sent instead of the other flags")
	return cmd
}

// registerPayload builds the registration body. --data wins; it is passed
// through without validation.
func registerPayload(cmd *cobra.Command) (any, error) {
	raw, _ := cmd.Flags().GetString("data")
	if raw != "" {
		if !json.Valid([]byte(raw)) {
			return nil, fmt.Errorf("--data is not valid JSON")
		}
		return json.RawMessage(raw), nil
	}

	email, _ := cmd.Flags().GetString("email")
	password, _ := cmd.Flags().GetString("password")
	name, _ := cmd.Flags().GetString("name")
	userData := map[string]string{"email": email, "password": password}
	if name != "" {
		userData["name"] = name
	}
	return userData, nil
}

// printAuthResult writes the body to stdout, or the error payload as JSON to
// stderr.
func printAuthResult(cmd *cobra.Command, res api.AuthResult, err error) error {
	if err != nil {
		if payload, ok := api.AsErrorPayload(err); ok {
			out, _ := json.Marshal(payload)
			fmt.Fprintln(cmd.ErrOrStderr(), string(out))
		}
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(res))
	return nil
}
