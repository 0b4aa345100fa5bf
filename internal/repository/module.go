package repository

import (
	"strings"

	"github.com/ghaggin/estate/internal/config"
	"github.com/ghaggin/estate/internal/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// MemoryDSN selects the in-process repository. Data is lost on restart.
const MemoryDSN = "memory"

type Params struct {
	fx.In

	LC     fx.Lifecycle
	Config *config.Config
	Log    *zap.Logger
}

// New is the fx constructor for the Repository and the narrower
// repositories derived from it.
func New(p Params) (Repository, error) {
	dsn := strings.TrimSpace(p.Config.Database.DSN)
	if dsn == MemoryDSN {
		p.Log.Warn("using in-memory repository, data will not survive a restart")
		return NewMemory(), nil
	}

	conn, err := db.Connect(p.LC, dsn, p.Log)
	if err != nil {
		return nil, err
	}

	return NewGorm(conn), nil
}

var Module = fx.Options(
	fx.Provide(
		New,
		func(r Repository) AdminRepository { return r },
		func(r Repository) LeadRepository { return r },
		func(r Repository) ImageRepository { return r },
		func(r Repository) FlashSessionRepository { return r },
	),
)
