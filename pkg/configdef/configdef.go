package configdef

import (
	"errors"
	"fmt"

	"github.com/tauraamui/framebridge/pkg/imagesource"
	"gopkg.in/dealancer/validate.v2"
)

type Source struct {
	Title                  string `json:"title" validate:"empty=false"`
	Type                   string `json:"type"`
	Address                string `json:"address"`
	Backend                string `json:"backend"`
	TargetWidth            int    `json:"target_width" validate:"gte=0 & lte=7680"`
	TargetHeight           int    `json:"target_height" validate:"gte=0 & lte=4320"`
	PreferableDefaultWidth int    `json:"preferable_default_width" validate:"gte=0 & lte=7680"`
	SnapshotLocation       string `json:"snapshot_location"`
	Disabled               bool   `json:"disabled"`
}

func (s Source) SourceType() imagesource.Type {
	if len(s.Type) == 0 {
		return imagesource.ARCamera
	}
	return imagesource.ParseType(s.Type)
}

type Values struct {
	Debug                   bool     `json:"debug"`
	Secret                  string   `json:"secret"`
	RPCListenAddr           string   `json:"rpc_listen_addr"`
	SnapshotIntervalSeconds int      `json:"snapshot_interval_seconds" validate:"gte=0 & lte=3600"`
	Sources                 []Source `json:"sources"`
}

// RunValidate checks struct tags then the cross field rules in Validate.
func (v Values) RunValidate() error {
	if err := validate.Validate(&v); err != nil {
		return err
	}
	return v.Validate()
}

func (v Values) Validate() error {
	const validationErrorHeader = "validation failed: %w"
	if HasDupSourceTitles(v.Sources) {
		return fmt.Errorf(validationErrorHeader, errors.New("source titles must be unique"))
	}
	for _, src := range v.Sources {
		if src.SourceType() == imagesource.Unknown {
			return fmt.Errorf(validationErrorHeader, fmt.Errorf("source [%s] has unknown type: %s", src.Title, src.Type))
		}
		if (src.TargetWidth == 0) != (src.TargetHeight == 0) {
			return fmt.Errorf(validationErrorHeader, fmt.Errorf("source [%s] target width and height must be set together", src.Title))
		}
	}
	return nil
}

func HasDupSourceTitles(sources []Source) bool {
	seen := make(map[string]struct{}, len(sources))
	for _, src := range sources {
		if _, ok := seen[src.Title]; ok {
			return true
		}
		seen[src.Title] = struct{}{}
	}
	return false
}
