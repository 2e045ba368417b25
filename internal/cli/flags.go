package cli

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes the environment variables that supply flag defaults,
// for example CRUNCH_WORKERS for --workers.
const EnvPrefix = "CRUNCH"

// newFlagEnv returns a viper instance reading CRUNCH_* variables. Each
// command gets its own instance so flag values never leak between runs.
func newFlagEnv() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

// mustBindPFlag attempts to bind a specific key to a pflag (as used by cobra) and panics
// if the binding fails with a non-nil error.
func mustBindPFlag(v *viper.Viper, key string, flag *pflag.Flag) {
	if err := v.BindPFlag(key, flag); err != nil {
		panic("failed to bind pflag: " + err.Error())
	}
}

// bindEnvFlags bridges the named flags of cmd to v. An explicitly set flag
// wins over the environment, which wins over the flag default.
func bindEnvFlags(v *viper.Viper, cmd *cobra.Command, names ...string) {
	for _, name := range names {
		mustBindPFlag(v, name, cmd.Flags().Lookup(name))
	}
}
