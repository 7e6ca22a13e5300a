// Package filter решает, сохранять ли объявление и отправлять ли уведомление.
package filter

import (
	"strings"

	"castanet-watch/internal/normalize"
	"castanet-watch/internal/scraper"
)

type Policy struct {
	CostCeiling             float64
	MileageCeiling          float64
	ExcludedCategoryMarkers []string
}

// QualifiesForStorage: категория без исключённых маркеров и числовая цена ниже потолка.
// Нечисловая цена ("Call for Price") не проходит.
func (p Policy) QualifiesForStorage(category, price string) bool {
	for _, marker := range p.ExcludedCategoryMarkers {
		if marker != "" && strings.Contains(category, marker) {
			return false
		}
	}

	value, err := normalize.Currency(price)
	if err != nil {
		return false
	}
	return value < p.CostCeiling
}

// QualifiesForNotification: пробег числовой и ниже потолка. Пустой пробег не проходит.
func (p Policy) QualifiesForNotification(mileage string) bool {
	if mileage == "" {
		return false
	}

	value, err := normalize.Distance(mileage)
	if err != nil {
		return false
	}
	return value < p.MileageCeiling
}

// Notifiable проверяет и полноту записи, и пробег
func (p Policy) Notifiable(listing *scraper.VehicleListing) bool {
	return listing.IsComplete() && p.QualifiesForNotification(listing.Mileage)
}
