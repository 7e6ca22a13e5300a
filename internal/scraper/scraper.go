package scraper

import (
	"bytes"
	"fmt"
	"iter"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"castanet-watch/internal/normalize"
)

type Scraper struct {
	selectors  *Selectors
	normalizer *normalize.Normalizer
	layout     DetailLayout
}

func NewScraper(selectors *Selectors, normalizer *normalize.Normalizer) (*Scraper, error) {
	layout, err := selectors.DetailOffsets.Layout()
	if err != nil {
		return nil, err
	}

	return &Scraper{
		selectors:  selectors,
		normalizer: normalizer,
		layout:     layout,
	}, nil
}

// ParseIndex разбирает страницу списка и возвращает последовательность неполных объявлений.
// Отсутствие основной колонки означает, что разметка сайта изменилась: это ErrMarkupShape.
func (s *Scraper) ParseIndex(html []byte) (iter.Seq[*VehicleListing], error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	region := doc.Find(s.selectors.ContentRegion).First()
	if region.Length() == 0 {
		return nil, fmt.Errorf("%w: content region %q not found", ErrMarkupShape, s.selectors.ContentRegion)
	}

	entries := region.Find(s.selectors.Entry)

	return func(yield func(*VehicleListing) bool) {
		for i := range entries.Length() {
			listing := s.parseEntry(entries.Eq(i))
			if listing == nil {
				continue
			}
			if !yield(listing) {
				return
			}
		}
	}, nil
}

// parseEntry обходит узлы карточки в порядке документа. Первые два inline-тега
// это описание и город, именно в таком порядке.
func (s *Scraper) parseEntry(entry *goquery.Selection) *VehicleListing {
	href := normalize.NormalizeURL(entry.AttrOr("href", ""))
	if href == "" {
		// без ссылки нет ключа для дедупликации
		return nil
	}

	listing := &VehicleListing{URL: href}
	inline := 0

	entry.Find("*").Each(func(_ int, node *goquery.Selection) {
		switch {
		case node.Is(s.selectors.Heading):
			listing.Model = s.normalizer.CleanText(node.Text())
		case node.Is(s.selectors.InlineText):
			switch inline {
			case 0:
				listing.Description = s.normalizer.CleanText(node.Text())
			case 1:
				listing.City = s.normalizer.CleanText(node.Text())
			}
			inline++
		case node.Is(s.selectors.Price):
			listing.Price = strings.TrimSpace(node.Text())
		case node.Is(s.selectors.Category):
			listing.Category = s.normalizer.CleanText(node.Text())
		case node.Is(s.selectors.Image):
			if listing.Image == "" {
				listing.Image = strings.TrimSpace(node.AttrOr("src", ""))
			}
		}
	})

	return listing
}

// ParseDetail дозаполняет объявление со страницы объявления. Нехватка ячеек или
// блока описания ошибкой не считается: поля просто остаются пустыми.
func (s *Scraper) ParseDetail(html []byte, listing *VehicleListing) error {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return fmt.Errorf("failed to parse HTML: %w", err)
	}

	cells := doc.Find(s.selectors.DetailRegion).First().Find(s.selectors.DetailCell)
	cells.Each(func(i int, cell *goquery.Selection) {
		if field, ok := s.layout[i]; ok {
			assign(listing, field, s.normalizer.CleanText(cell.Text()))
		}
	})

	description := doc.Find(s.selectors.Description).First()
	if description.Length() > 0 {
		marker := s.selectors.DescriptionMarkers.For(listing.AdType)
		if text, ok := splitDescription(description.Text(), marker); ok {
			listing.Description = text
		}
	}

	return nil
}

func assign(listing *VehicleListing, field Field, value string) {
	if value == "" {
		return
	}

	switch field {
	case FieldYear:
		listing.Year = value
	case FieldMake:
		listing.Make = value
	case FieldModel:
		listing.Model = value
	case FieldMileage:
		listing.Mileage = value
	case FieldAdType:
		listing.AdType = value
	}
}

// splitDescription возвращает текст после первого вхождения marker
func splitDescription(text, marker string) (string, bool) {
	if marker == "" {
		return "", false
	}
	_, after, found := strings.Cut(text, marker)
	if !found {
		return "", false
	}
	return strings.TrimSpace(after), true
}
