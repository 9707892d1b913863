package eligibility

import (
	"context"
	"errors"
	"strings"

	"github.com/ternarybob/premarket/internal/interfaces"
	"github.com/ternarybob/premarket/internal/models"
)

// MergedReference asks each source in turn and fills the exchange name and
// code from the first source that supplies each. It stops once both are known.
type MergedReference struct {
	sources []interfaces.ReferenceSource
}

// MergeReferences combines reference sources; nil entries are dropped.
// It returns nil when no source remains.
func MergeReferences(sources ...interfaces.ReferenceSource) interfaces.ReferenceSource {
	var kept []interfaces.ReferenceSource
	for _, s := range sources {
		if s != nil {
			kept = append(kept, s)
		}
	}
	switch len(kept) {
	case 0:
		return nil
	case 1:
		return kept[0]
	}
	return &MergedReference{sources: kept}
}

// Name joins the source names, e.g. "polygon+eodhd".
func (m *MergedReference) Name() string {
	names := make([]string, len(m.sources))
	for i, s := range m.sources {
		names[i] = s.Name()
	}
	return strings.Join(names, "+")
}

// Exchange is found when any source contributed a name or code. The result is
// partial when another source failed on the way.
func (m *MergedReference) Exchange(ctx context.Context, symbol string) models.Lookup[models.ExchangeInfo] {
	var info models.ExchangeInfo
	var errs []error

	for _, s := range m.sources {
		if info.Name != "" && info.Code != "" {
			break
		}
		lookup := s.Exchange(ctx, symbol)
		if !lookup.OK() {
			errs = append(errs, lookup.Err)
			continue
		}
		if info.Name == "" {
			info.Name = lookup.Value.Name
		}
		if info.Code == "" {
			info.Code = lookup.Value.Code
		}
	}

	if info.Empty() {
		return models.Unavailable[models.ExchangeInfo](errors.Join(errs...))
	}
	if len(errs) > 0 {
		return models.Partial(info, errors.Join(errs...))
	}
	return models.Found(info)
}
