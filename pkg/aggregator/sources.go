package aggregator

import (
	"github.com/bnf/intelscope/pkg/domain"
	"github.com/bnf/intelscope/pkg/intel"
)

// Source describes one upstream intel pipeline: where to fetch, how to dig
// the item array out of the response envelope, and which mapper normalizes
// its records. The table is fixed and total — every source key maps to
// exactly one type and one mapper.
type Source struct {
	Key         string          // unique pipeline key, used for routing and telemetry
	Label       string          // display label, may repeat across pipelines (both NHTSA pipelines show "NHTSA")
	Type        domain.ItemType // intelligence category all items of this source carry
	Path        string          // backend API path
	ExtractKeys []string        // envelope keys tried before the generic fallbacks
	SinceFilter bool            // whether the endpoint honors a since_date param
	Map         intel.Mapper
}

// Sources returns the fixed table of the nine upstream pipelines
func Sources() []Source {
	return []Source{
		{
			Key:         "fda",
			Label:       "FDA",
			Type:        domain.TypeRegulatory,
			Path:        "/fda/recalls",
			ExtractKeys: []string{"recalls"},
			SinceFilter: true,
			Map:         intel.MapFDARecall,
		},
		{
			Key:         "nhtsa-recalls",
			Label:       "NHTSA",
			Type:        domain.TypeRegulatory,
			Path:        "/nhtsa/recalls",
			ExtractKeys: []string{"recalls"},
			SinceFilter: true,
			Map:         intel.MapNHTSARecall,
		},
		{
			Key:         "nhtsa-complaints",
			Label:       "NHTSA",
			Type:        domain.TypeRegulatory,
			Path:        "/nhtsa/complaints",
			ExtractKeys: []string{"complaints"},
			SinceFilter: true,
			Map:         intel.MapNHTSAComplaint,
		},
		{
			Key:         "cfpb",
			Label:       "CFPB",
			Type:        domain.TypeRegulatory,
			Path:        "/cfpb/complaints",
			ExtractKeys: []string{"complaints"},
			Map:         intel.MapCFPBComplaint,
		},
		{
			Key:         "ftc-dnc",
			Label:       "FTC",
			Type:        domain.TypeRegulatory,
			Path:        "/ftc/dnc-complaints",
			ExtractKeys: []string{"complaints"},
			Map:         intel.MapFTCDNCComplaint,
		},
		{
			Key:         "ftc-hsr",
			Label:       "FTC",
			Type:        domain.TypeFiling,
			Path:        "/ftc/hsr-notices",
			ExtractKeys: []string{"notices"},
			Map:         intel.MapFTCHSRNotice,
		},
		{
			Key:         "sec",
			Label:       "SEC",
			Type:        domain.TypeFiling,
			Path:        "/sec-edgar/filings",
			ExtractKeys: []string{"items", "filings"},
			Map:         intel.MapSECFiling,
		},
		{
			Key:         "facebook-ads",
			Label:       "Meta",
			Type:        domain.TypeAd,
			Path:        "/facebook-ads",
			ExtractKeys: []string{"ads"},
			Map:         intel.MapFacebookAd,
		},
		{
			Key:         "linkedin-ads",
			Label:       "LinkedIn",
			Type:        domain.TypeAd,
			Path:        "/linkedin-ads",
			ExtractKeys: []string{"ads"},
			Map:         intel.MapLinkedInAd,
		},
	}
}
