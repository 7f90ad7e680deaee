package passes

import (
	"fmt"
	"strings"
)

// ModuleName is the name checked against the pause list.
const ModuleName = "passes"

// Params is the configuration context every transition reads explicitly.
// Namespace seeds every derived address and owns every record.
type Params struct {
	Namespace           string
	CollectionMaxSize   uint32
	DefaultActivityDays uint32
}

func DefaultParams() Params {
	return Params{
		Namespace:           "passes",
		CollectionMaxSize:   100,
		DefaultActivityDays: 30,
	}
}

func (p Params) Validate() error {
	if strings.TrimSpace(p.Namespace) == "" {
		return fmt.Errorf("passes: namespace required")
	}
	if p.CollectionMaxSize == 0 {
		return fmt.Errorf("passes: collection max size must be positive")
	}
	if p.DefaultActivityDays == 0 {
		return fmt.Errorf("passes: default activity days must be positive")
	}
	return nil
}
