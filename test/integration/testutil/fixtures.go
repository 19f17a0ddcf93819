//go:build integration

package testutil

import (
	"time"

	"detailbook/pkg/model"
)

const (
	VariantSedan = int64(11)
	VariantSUV   = int64(12)
)

func intPtr(v int) *int { return &v }

// StandardCatalog is one exterior detail service with two vehicle sizes.
func StandardCatalog() []model.Service {
	return []model.Service{{
		ID:                 1,
		Name:               "Exterior Detail",
		DefaultDurationMin: intPtr(90),
		Active:             true,
		Variants: []model.ServiceVariant{
			{ID: VariantSedan, Name: "Sedan", PriceCents: 20000, DurationMin: intPtr(60)},
			{ID: VariantSUV, Name: "SUV", PriceCents: 25000, DurationMin: intPtr(120)},
		},
	}}
}

// WeekdayHours opens Monday to Friday 09:00-17:00.
func WeekdayHours() []model.BusinessHours {
	hours := []model.BusinessHours{
		{Weekday: int(time.Sunday), Closed: true},
		{Weekday: int(time.Saturday), Closed: true},
	}
	for d := time.Monday; d <= time.Friday; d++ {
		hours = append(hours, model.BusinessHours{Weekday: int(d), OpenTime: "09:00", CloseTime: "17:00"})
	}
	return hours
}

// NextWeekday returns the first date after today that falls on day.
func NextWeekday(day time.Weekday) string {
	d := time.Now().AddDate(0, 0, 1)
	for d.Weekday() != day {
		d = d.AddDate(0, 0, 1)
	}
	return d.Format("2006-01-02")
}

func ValidReservation(email, date, clock string, variantID int64) map[string]any {
	return map[string]any{
		"email":            email,
		"phone":            "+14155552671",
		"first_name":       "Dana",
		"last_name":        "Levi",
		"variant_id":       variantID,
		"vehicle_year":     2021,
		"vehicle_make":     "Toyota",
		"vehicle_model":    "Camry",
		"appointment_date": date,
		"appointment_time": clock,
	}
}
