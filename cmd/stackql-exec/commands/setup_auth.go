package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/systmms/stackql-exec/internal/auth"
	"github.com/systmms/stackql-exec/internal/config"
)

// NewSetupAuthCommand creates the setup-auth command.
func NewSetupAuthCommand(rt *Runtime) *cobra.Command {
	var (
		flags       settingFlags
		requireAuth bool
	)

	cmd := &cobra.Command{
		Use:   "setup-auth",
		Short: "Resolve provider auth and export it as AUTH",
		Long: `Resolve the stackql provider auth JSON and export it, masked, as AUTH.

Sources in order of precedence:
  AUTH_STR         inline JSON
  AUTH_FILE_PATH   path to a JSON file
  AUTH_SECRET_REF  store://<kind>/<path>[#field][?version=<v>]

Supported store kinds: aws-secretsmanager, aws-ssm, gcp-secretmanager,
azure-keyvault, keyring.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := rt.Settings()
			if err != nil {
				return rt.Fail(err)
			}
			flags.apply(cmd, &s)

			res, err := setupAuth(cmd.Context(), rt, s, requireAuth)
			if err != nil {
				return err
			}
			if res.Payload != nil {
				res.Payload.Destroy()
			}
			return nil
		},
	}

	flags.bindAuth(cmd.Flags())
	cmd.Flags().BoolVar(&requireAuth, "require-auth", false, "Fail when no auth source is configured")
	return cmd
}

func setupAuth(ctx context.Context, rt *Runtime, s config.Settings, require bool) (auth.Result, error) {
	setup := auth.New(rt.Reporter(), auth.WithSecretResolver(rt.Stores))
	res, err := setup.Run(ctx, auth.Sources{
		FilePath:  s.AuthFilePath,
		Str:       s.AuthStr,
		SecretRef: s.AuthSecretRef,
		Require:   require,
	})
	if err != nil {
		return auth.Result{}, rt.Fail(err)
	}
	rt.Metrics.RecordAuthSetup(res.Source)
	return res, nil
}
