package model

// Service is a catalog entry such as "Full Detail", with priced variants.
type Service struct {
	ID                 int64            `json:"id" bson:"_id"`
	Name               string           `json:"name" bson:"name"`
	DefaultDurationMin *int             `json:"default_duration_min,omitempty" bson:"default_duration_min,omitempty"`
	Active             bool             `json:"active" bson:"active"`
	Variants           []ServiceVariant `json:"variants" bson:"variants"`
}

type ServiceVariant struct {
	ID          int64  `json:"id" bson:"id"`
	Name        string `json:"name" bson:"name"`
	PriceCents  int64  `json:"price_cents" bson:"price_cents"`
	DurationMin *int   `json:"duration_min,omitempty" bson:"duration_min,omitempty"`
}

// ResolvedVariant is a variant with its duration already resolved.
type ResolvedVariant struct {
	ServiceID   int64
	ServiceName string
	VariantID   int64
	VariantName string
	PriceCents  int64
	DurationMin int
}

// Resolve finds the variant and resolves its duration in order: the variant's
// own duration, the service default, then fallbackMin.
func (s *Service) Resolve(variantID int64, fallbackMin int) (*ResolvedVariant, bool) {
	for _, v := range s.Variants {
		if v.ID != variantID {
			continue
		}
		duration := fallbackMin
		switch {
		case v.DurationMin != nil && *v.DurationMin > 0:
			duration = *v.DurationMin
		case s.DefaultDurationMin != nil && *s.DefaultDurationMin > 0:
			duration = *s.DefaultDurationMin
		}
		return &ResolvedVariant{
			ServiceID:   s.ID,
			ServiceName: s.Name,
			VariantID:   v.ID,
			VariantName: v.Name,
			PriceCents:  v.PriceCents,
			DurationMin: duration,
		}, true
	}
	return nil, false
}
