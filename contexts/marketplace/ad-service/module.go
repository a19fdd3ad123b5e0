package adservice

import (
	"github.com/rs/zerolog"

	httpadapter "adboard/contexts/marketplace/ad-service/adapters/http"
	"adboard/contexts/marketplace/ad-service/adapters/memory"
	"adboard/contexts/marketplace/ad-service/application/commands"
	"adboard/contexts/marketplace/ad-service/application/publish"
	"adboard/contexts/marketplace/ad-service/application/queries"
	"adboard/contexts/marketplace/ad-service/ports"
)

type Module struct {
	Handler  httpadapter.Handler
	SubmitAd commands.SubmitAdUseCase
	EditAd   commands.EditAdUseCase
	OwnerOps commands.OwnerOpsUseCase
	Moderate commands.ModerateAdUseCase
	Queries  queries.QueriesUseCase
	Store    *memory.Store
}

type Dependencies struct {
	Repository ports.Repository
	Limiter    ports.Limiter
	Blobs      ports.PhotoBlobs
	Transport  ports.ChannelTransport
	Notifier   ports.Notifier
	Collector  ports.CollectorStarter
	ChannelID  int64
	Clock      ports.Clock
	Logger     zerolog.Logger
}

func NewModule(deps Dependencies) Module {
	publisher := &publish.Publisher{
		Repository: deps.Repository,
		Transport:  deps.Transport,
		ChannelID:  deps.ChannelID,
		Logger:     deps.Logger,
	}

	submitAd := commands.SubmitAdUseCase{
		Repository: deps.Repository,
		Limiter:    deps.Limiter,
		Blobs:      deps.Blobs,
		Publisher:  publisher,
		Notifier:   deps.Notifier,
		Collector:  deps.Collector,
		Clock:      deps.Clock,
		Logger:     deps.Logger,
	}
	editAd := commands.EditAdUseCase{
		Repository: deps.Repository,
		Clock:      deps.Clock,
		Logger:     deps.Logger,
	}
	ownerOps := commands.OwnerOpsUseCase{
		Repository: deps.Repository,
		Logger:     deps.Logger,
	}
	moderate := commands.ModerateAdUseCase{
		Repository: deps.Repository,
		Publisher:  publisher,
		Notifier:   deps.Notifier,
		Clock:      deps.Clock,
		Logger:     deps.Logger,
	}
	favorites := commands.FavoritesUseCase{
		Repository: deps.Repository,
		Logger:     deps.Logger,
	}
	queriesUC := queries.QueriesUseCase{
		Repository: deps.Repository,
		Logger:     deps.Logger,
	}

	return Module{
		Handler: httpadapter.Handler{
			SubmitAd:  submitAd,
			EditAd:    editAd,
			OwnerOps:  ownerOps,
			Moderate:  moderate,
			Favorites: favorites,
			Queries:   queriesUC,
			Logger:    deps.Logger,
		},
		SubmitAd: submitAd,
		EditAd:   editAd,
		OwnerOps: ownerOps,
		Moderate: moderate,
		Queries:  queriesUC,
	}
}

// NewInMemoryModule wires the module against the in-process store,
// which also serves as the clock. Tests adjust time via Module.Store.
func NewInMemoryModule(deps Dependencies) Module {
	store := memory.NewStore()
	deps.Repository = store
	if deps.Clock == nil {
		deps.Clock = store
	}
	if deps.Limiter == nil {
		deps.Limiter = allowAllLimiter{}
	}
	module := NewModule(deps)
	module.Store = store
	return module
}

type allowAllLimiter struct{}

func (allowAllLimiter) Check(string) (bool, string) { return false, "" }
