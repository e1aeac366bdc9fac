package availability

import (
	"reflect"
	"testing"

	"github.com/arafat-hossain/doctors-portal/services/portal-service/internal/model"
)

func TestRemaining_SubtractsPreservingOrder(t *testing.T) {
	template := []string{"9am", "10am", "11am"}
	got := Remaining(template, []string{"10am"})
	want := []string{"9am", "11am"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestRemaining_FullyBookedIsEmptyNotNil(t *testing.T) {
	got := Remaining([]string{"9am"}, []string{"9am"})
	if got == nil {
		t.Fatal("expected empty slice, got nil")
	}
	if len(got) != 0 {
		t.Fatalf("expected no open slots, got %v", got)
	}
}

func TestRemaining_IgnoresUnknownAndDuplicateTaken(t *testing.T) {
	got := Remaining([]string{"9am", "10am"}, []string{"10am", "10am", "2pm"})
	want := []string{"9am"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestFilterCatalog_Scenario(t *testing.T) {
	options := []model.TreatmentOption{
		{Name: "Cleaning", Slots: []string{"9am", "10am", "11am"}},
		{Name: "Whitening", Slots: []string{"9am", "10am"}},
	}
	bookings := []model.Booking{
		{Treatment: "Cleaning", AppointmentDate: "2024-01-01", Slot: "10am"},
	}

	got := FilterCatalog(options, bookings)
	if len(got) != 2 {
		t.Fatalf("expected 2 options, got %d", len(got))
	}
	if !reflect.DeepEqual(got[0].Slots, []string{"9am", "11am"}) {
		t.Fatalf("Cleaning slots: expected [9am 11am], got %v", got[0].Slots)
	}
	// Whitening had no bookings; its template is untouched.
	if !reflect.DeepEqual(got[1].Slots, []string{"9am", "10am"}) {
		t.Fatalf("Whitening slots: expected [9am 10am], got %v", got[1].Slots)
	}
}

func TestFilterCatalog_UnpaidBookingStillHoldsSlot(t *testing.T) {
	options := []model.TreatmentOption{{Name: "Cleaning", Slots: []string{"9am", "10am"}}}
	bookings := []model.Booking{{Treatment: "Cleaning", Slot: "9am", Paid: false}}

	got := FilterCatalog(options, bookings)
	if !reflect.DeepEqual(got[0].Slots, []string{"10am"}) {
		t.Fatalf("expected unpaid booking to consume its slot, got %v", got[0].Slots)
	}
}

func TestFilterCatalog_Idempotent(t *testing.T) {
	options := []model.TreatmentOption{{Name: "Cleaning", Slots: []string{"9am", "10am", "11am"}}}
	bookings := []model.Booking{{Treatment: "Cleaning", Slot: "11am"}}

	first := FilterCatalog(options, bookings)
	second := FilterCatalog(options, bookings)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("repeated calls differ: %v vs %v", first, second)
	}
	// The input catalog's template must not be mutated.
	if !reflect.DeepEqual(options[0].Slots, []string{"9am", "10am", "11am"}) {
		t.Fatalf("input template mutated: %v", options[0].Slots)
	}
}

func TestFilterCatalog_ReturnsFullyBookedOptions(t *testing.T) {
	options := []model.TreatmentOption{{Name: "Cleaning", Slots: []string{"9am"}}}
	bookings := []model.Booking{{Treatment: "Cleaning", Slot: "9am"}}

	got := FilterCatalog(options, bookings)
	if len(got) != 1 {
		t.Fatalf("fully booked option must still be returned, got %d options", len(got))
	}
	if got[0].Slots == nil || len(got[0].Slots) != 0 {
		t.Fatalf("expected empty slot list, got %v", got[0].Slots)
	}
}
