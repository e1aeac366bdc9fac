// Package availability computes the open slots for each treatment on a date.
// It is pure: callers load the catalog and the day's bookings, and the
// functions here subtract one from the other without touching any store.
package availability

import "github.com/arafat-hossain/doctors-portal/services/portal-service/internal/model"

// Remaining returns template minus taken, preserving template order.
// The result is never nil: a fully booked template yields an empty slice so
// JSON encodes it as [] and callers can tell "fully booked" from "unknown
// treatment".
func Remaining(template []string, taken []string) []string {
	used := make(map[string]struct{}, len(taken))
	for _, s := range taken {
		used[s] = struct{}{}
	}

	open := make([]string, 0, len(template))
	for _, s := range template {
		if _, ok := used[s]; ok {
			continue
		}
		open = append(open, s)
	}
	return open
}

// FilterCatalog rewrites every option's slot list to the slots still open
// given the day's bookings. Every option is returned, including fully booked
// ones. Bookings for treatments not in the catalog are ignored; payment
// status is irrelevant (an unpaid booking still holds its slot).
func FilterCatalog(options []model.TreatmentOption, bookings []model.Booking) []model.TreatmentOption {
	takenByTreatment := make(map[string][]string)
	for _, b := range bookings {
		takenByTreatment[b.Treatment] = append(takenByTreatment[b.Treatment], b.Slot)
	}

	out := make([]model.TreatmentOption, len(options))
	for i, opt := range options {
		opt.Slots = Remaining(opt.Slots, takenByTreatment[opt.Name])
		out[i] = opt
	}
	return out
}
