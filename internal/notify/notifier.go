// Package notify отправляет сообщение о новом объявлении. Доставка "выстрелил и забыл":
// ошибка отправки не влияет на уже сохранённую запись.
package notify

import (
	"context"
	"fmt"
	"strings"

	"castanet-watch/internal/scraper"
)

type Message struct {
	Headline    string // "2014 Honda Civic"
	Content     string // строка для вебхука
	Description string
	Link        string
}

type Notifier interface {
	Notify(ctx context.Context, msg Message) error
}

// NewMessage собирает сообщение в формате
// "{year} {make} {model}: {price}, {mileage} km. {image} {base}{url}"
func NewMessage(listing *scraper.VehicleListing, baseURL string) Message {
	link := strings.TrimRight(baseURL, "/") + listing.URL
	headline := strings.Join(strings.Fields(fmt.Sprintf("%s %s %s", listing.Year, listing.Make, listing.Model)), " ")

	return Message{
		Headline: headline,
		Content: fmt.Sprintf("%s: %s, %s km. %s %s",
			headline,
			listing.Price,
			strings.TrimSuffix(strings.TrimSpace(listing.Mileage), " km"),
			listing.Image,
			link,
		),
		Description: listing.Description,
		Link:        link,
	}
}
