package web

import (
	"context"
	"embed"
	"html/template"

	"github.com/Klingon-tech/asset-minter/config"
	"github.com/Klingon-tech/asset-minter/internal/asset"
	"github.com/Klingon-tech/asset-minter/internal/history"
	"github.com/Klingon-tech/asset-minter/internal/session"
)

//go:embed templates/*.html
var templates embed.FS

var pageTemplate = template.Must(template.ParseFS(templates, "templates/index.html"))

// Limits mirrored into the form inputs.
type Limits struct {
	AssetName int
	UnitName  int
	Total     uint64
	Decimals  int
}

type pageData struct {
	session.View

	Networks    []config.NetworkType
	ChainID     int
	Limits      Limits
	Details     []asset.Field
	ExplorerURL string
	Receipts    []history.Receipt

	// Offer is set on the one render that hands the pending transaction to
	// the wallet.
	Offer   []string
	OfferID string
}

func (s *Server) page(_ context.Context, v session.View, offered *asset.Transaction) pageData {
	data := pageData{
		View:     v,
		Networks: config.Networks,
		ChainID:  config.ProfileFor(v.Network).ChainID,
		Limits: Limits{
			AssetName: asset.MaxAssetNameLen,
			UnitName:  asset.MaxUnitNameLen,
			Total:     asset.MaxSafeTotal,
			Decimals:  asset.MaxDecimals,
		},
	}
	if v.Pending != nil {
		data.Details = v.Pending.Details()
	}
	if c := v.LastConfirmation; c != nil {
		data.ExplorerURL = config.ExplorerTxURL(s.explorerHost, c.Network, c.TxID)
	}
	if offered != nil {
		data.Offer = offered.EncodeBase64()
		data.OfferID = offered.ID
	}

	receipts, err := s.receipts(v.State)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Load receipts")
	}
	data.Receipts = receipts
	return data
}
