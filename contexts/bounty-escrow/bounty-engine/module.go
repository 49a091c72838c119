package bountyengine

import (
	"log/slog"

	httpadapter "nearshield/contexts/bounty-escrow/bounty-engine/adapters/http"
	"nearshield/contexts/bounty-escrow/bounty-engine/adapters/memory"
	"nearshield/contexts/bounty-escrow/bounty-engine/application/commands"
	"nearshield/contexts/bounty-escrow/bounty-engine/application/queries"
	"nearshield/contexts/bounty-escrow/bounty-engine/domain/entities"
	"nearshield/contexts/bounty-escrow/bounty-engine/ports"
)

type Module struct {
	Handler httpadapter.Handler
	Store   *memory.Store
}

type Dependencies struct {
	Store         ports.Store
	Clock         ports.Clock
	IDGenerator   ports.IDGenerator
	Metrics       ports.Metrics
	TrustedTokens []string
	Logger        *slog.Logger
}

func NewModule(deps Dependencies) Module {
	return Module{
		Handler: httpadapter.Handler{
			CreateCampaignNative: commands.CreateCampaignNativeUseCase{
				Store:   deps.Store,
				Clock:   deps.Clock,
				Metrics: deps.Metrics,
				Logger:  deps.Logger,
			},
			CancelCampaign: commands.CancelCampaignUseCase{
				Store:       deps.Store,
				Clock:       deps.Clock,
				IDGenerator: deps.IDGenerator,
				Metrics:     deps.Metrics,
				Logger:      deps.Logger,
			},
			SubmitBug: commands.SubmitBugUseCase{
				Store:   deps.Store,
				Clock:   deps.Clock,
				Metrics: deps.Metrics,
				Logger:  deps.Logger,
			},
			ReviewSubmission: commands.ReviewSubmissionUseCase{
				Store:       deps.Store,
				Clock:       deps.Clock,
				IDGenerator: deps.IDGenerator,
				Metrics:     deps.Metrics,
				Logger:      deps.Logger,
			},
			OnTransfer: commands.OnTransferUseCase{
				Store:         deps.Store,
				Clock:         deps.Clock,
				TrustedTokens: deps.TrustedTokens,
				Metrics:       deps.Metrics,
				Logger:        deps.Logger,
			},
			SetPaused: commands.SetPausedUseCase{
				Store:   deps.Store,
				Clock:   deps.Clock,
				Metrics: deps.Metrics,
				Logger:  deps.Logger,
			},
			SetTreasury: commands.SetTreasuryUseCase{
				Store:   deps.Store,
				Metrics: deps.Metrics,
				Logger:  deps.Logger,
			},
			SetAdmin: commands.SetAdminUseCase{
				Store:   deps.Store,
				Metrics: deps.Metrics,
				Logger:  deps.Logger,
			},
			WithdrawFees: commands.WithdrawFeesUseCase{
				Store:       deps.Store,
				Clock:       deps.Clock,
				IDGenerator: deps.IDGenerator,
				Metrics:     deps.Metrics,
				Logger:      deps.Logger,
			},
			EmergencyWithdraw: commands.EmergencyWithdrawUseCase{
				Store:       deps.Store,
				Clock:       deps.Clock,
				IDGenerator: deps.IDGenerator,
				Metrics:     deps.Metrics,
				Logger:      deps.Logger,
			},
			Views: queries.Views{
				Store:  deps.Store,
				Logger: deps.Logger,
			},
			Logger: deps.Logger,
		},
	}
}

func NewInMemoryModule(state entities.ContractState, trustedTokens []string, metrics ports.Metrics, logger *slog.Logger) Module {
	store := memory.NewStore(state)
	module := NewModule(Dependencies{
		Store:         store,
		Clock:         store,
		IDGenerator:   store,
		Metrics:       metrics,
		TrustedTokens: trustedTokens,
		Logger:        logger,
	})
	module.Store = store
	return module
}
