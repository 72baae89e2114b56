package db

import (
	"github.com/agoravoting/election-orchestra/internal/util/command"
	"github.com/spf13/cobra"
)

func New() *cobra.Command {
	return command.NewSubcommandGroup("db",
		newMigrate(),
		newPing(),
	)
}
