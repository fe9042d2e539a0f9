package availability

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"
)

// Listing is the result of a directory lookup. Providers are ordered by ID
// ascending; that order decides which examiners fill a slot's capacity and
// which support provider is attached first.
type Listing struct {
	Providers []Provider
	Excluded  []ExcludedProvider
}

// IDs returns the provider IDs in listing order.
func (l Listing) IDs() []string {
	ids := make([]string, len(l.Providers))
	for i, p := range l.Providers {
		ids[i] = p.ID
	}
	return ids
}

// Directory looks up qualifying providers and normalizes their schedules.
type Directory struct {
	repo           ProviderRepository
	fuzzySpecialty bool
	logger         zerolog.Logger
}

// NewDirectory creates a Directory. When fuzzySpecialty is set an examiner
// also qualifies if one of its specialty names contains the examination type
// name, ignoring case.
func NewDirectory(repo ProviderRepository, fuzzySpecialty bool, logger zerolog.Logger) *Directory {
	return &Directory{repo: repo, fuzzySpecialty: fuzzySpecialty, logger: logger}
}

// QualifiedExaminers returns examiners whose specialty matches examType.
func (d *Directory) QualifiedExaminers(ctx context.Context, examType ExaminationType) (Listing, error) {
	return d.list(ctx, ProviderFilter{Type: ProviderExaminer}, func(p Provider) bool {
		_, ok := QualifyingSpecialty(p, examType, d.fuzzySpecialty)
		return ok
	})
}

// Interpreters returns interpreters speaking languageID, or all interpreters
// when languageID is empty.
func (d *Directory) Interpreters(ctx context.Context, languageID string) (Listing, error) {
	return d.list(ctx, ProviderFilter{Type: ProviderInterpreter, LanguageID: languageID}, func(p Provider) bool {
		if languageID == "" {
			return true
		}
		for _, l := range p.Languages {
			if strings.EqualFold(l, languageID) {
				return true
			}
		}
		return false
	})
}

func (d *Directory) Chaperones(ctx context.Context) (Listing, error) {
	return d.list(ctx, ProviderFilter{Type: ProviderChaperone}, nil)
}

// Transporters returns transporters serving province, or all transporters
// when province is empty.
func (d *Directory) Transporters(ctx context.Context, province string) (Listing, error) {
	return d.list(ctx, ProviderFilter{Type: ProviderTransporter, Province: province}, func(p Provider) bool {
		return province == "" || strings.EqualFold(p.Province, province)
	})
}

func (d *Directory) list(ctx context.Context, filter ProviderFilter, keep func(Provider) bool) (Listing, error) {
	records, err := d.repo.ListProviders(ctx, filter)
	if err != nil {
		return Listing{}, fmt.Errorf("list %s providers: %w", strings.ToLower(filter.Type.String()), err)
	}

	var out Listing
	for _, rec := range records {
		p, err := NormalizeProvider(rec)
		if err != nil {
			var die *DataIntegrityError
			if !errors.As(err, &die) {
				return Listing{}, err
			}
			d.logger.Warn().Err(err).Str("provider_id", rec.ID).Msg("excluding provider with unreadable schedule")
			out.Excluded = append(out.Excluded, ExcludedProvider{
				ProviderID: rec.ID,
				Type:       filter.Type.String(),
				Reason:     die.Error(),
			})
			continue
		}
		if p.Type != filter.Type {
			continue
		}
		if keep != nil && !keep(p) {
			continue
		}
		out.Providers = append(out.Providers, p)
	}

	sort.SliceStable(out.Providers, func(i, j int) bool { return out.Providers[i].ID < out.Providers[j].ID })
	return out, nil
}

// QualifyingSpecialty returns the first specialty of p that qualifies it for
// examType: an exact ID match, or with fuzzy set a case-insensitive substring
// match of the type name within the specialty name. Exact matches win over
// fuzzy ones.
func QualifyingSpecialty(p Provider, examType ExaminationType, fuzzy bool) (Specialty, bool) {
	if examType.ID != "" {
		for _, s := range p.Specialties {
			if s.ID == examType.ID {
				return s, true
			}
		}
	}
	if fuzzy && strings.TrimSpace(examType.Name) != "" {
		needle := strings.ToLower(strings.TrimSpace(examType.Name))
		for _, s := range p.Specialties {
			if strings.Contains(strings.ToLower(s.Name), needle) {
				return s, true
			}
		}
	}
	return Specialty{}, false
}
