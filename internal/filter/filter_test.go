package filter

import (
	"testing"

	"castanet-watch/internal/scraper"
)

func testPolicy() Policy {
	return Policy{
		CostCeiling:             20000,
		MileageCeiling:          160000,
		ExcludedCategoryMarkers: []string{"Trucks", "Vintage"},
	}
}

func TestQualifiesForStorage(t *testing.T) {
	p := testPolicy()

	tests := []struct {
		name     string
		category string
		price    string
		expected bool
	}{
		{"cars under ceiling", "Vehicles > Cars", "$15,000", true},
		{"trucks excluded regardless of price", "Vehicles > Trucks", "$1,000", false},
		{"vintage excluded", "Vehicles > Vintage & Classics", "$5,000", false},
		{"over ceiling", "Vehicles > Cars", "$25,000", false},
		{"at ceiling", "Vehicles > Cars", "$20,000", false},
		{"non-numeric price", "Vehicles > Cars", "Call for Price", false},
		{"empty price", "Vehicles > Cars", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.QualifiesForStorage(tt.category, tt.price); got != tt.expected {
				t.Errorf("QualifiesForStorage(%q, %q) = %v, want %v", tt.category, tt.price, got, tt.expected)
			}
		})
	}
}

func TestQualifiesForNotification(t *testing.T) {
	p := testPolicy()

	tests := []struct {
		mileage  string
		expected bool
	}{
		{"", false},
		{"120,000 km", true},
		{"120000", true},
		{"170,000 km", false},
		{"160,000 km", false},
		{"unknown", false},
	}

	for _, tt := range tests {
		if got := p.QualifiesForNotification(tt.mileage); got != tt.expected {
			t.Errorf("QualifiesForNotification(%q) = %v, want %v", tt.mileage, got, tt.expected)
		}
	}
}

func TestNotifiableRequiresCompleteRecord(t *testing.T) {
	p := testPolicy()

	complete := &scraper.VehicleListing{Year: "2014", Make: "Honda", Mileage: "85,000 km"}
	if !p.Notifiable(complete) {
		t.Errorf("complete listing under the mileage ceiling should be notifiable")
	}

	noMake := &scraper.VehicleListing{Year: "2014", Mileage: "85,000 km"}
	if p.Notifiable(noMake) {
		t.Errorf("listing without make must not be notifiable")
	}
}
