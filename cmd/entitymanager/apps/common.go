package apps

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/h2hsecure/entitymanager/internal/domain"
)

const (
	AppDescription = `This is the entity manager. It creates applicant and entity accounts in the
directory with their extension attributes. Commands at the prompt:
	- help: List the commands
	- list: List all users of the directory
	- add-applicant: Create an applicant account
	- add-entity: Create an entity account
	- quit: Leave the program`

	Prompt = "ready> "
)

var helpLines = []string{
	"list - list all entities",
	"add-applicant - add an applicant",
	"add-entity - add an entity",
	"quit - quit the program",
}

// setup loads settings and points the global logger at stderr.
func setup() *domain.Config {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg := domain.LoadConfig(domain.ConfigPath())

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Warn().Str("level", cfg.LogLevel).Msg("unknown log level, using info")
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	return cfg
}
