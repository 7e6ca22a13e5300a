package scraper

import (
	"errors"
	"fmt"
	"sort"
)

// ErrMarkupShape означает, что на странице нет узла, который должен быть всегда:
// разметка сайта изменилась несовместимо
var ErrMarkupShape = errors.New("unexpected markup shape")

// VehicleListing собирается в два прохода: страница списка, затем страница объявления.
// Пустая строка в детальных полях означает "поле отсутствует".
type VehicleListing struct {
	URL         string
	Model       string
	Category    string
	Price       string
	Description string
	City        string
	Image       string

	Year    string
	Make    string
	Mileage string
	AdType  string
}

// IsComplete сообщает, заполнены ли поля, без которых объявление нельзя отправлять
func (v *VehicleListing) IsComplete() bool {
	return v.Year != "" && v.Make != "" && v.Mileage != ""
}

// Field роль ячейки таблицы характеристик на странице объявления
type Field string

const (
	FieldYear    Field = "year"
	FieldMake    Field = "make"
	FieldModel   Field = "model"
	FieldMileage Field = "mileage"
	FieldAdType  Field = "ad_type"
)

// DetailOffsets сопоставляет поле и номер ячейки (с нуля) в таблице характеристик
type DetailOffsets map[Field]int

// DetailLayout обратная таблица: номер ячейки -> поле
type DetailLayout map[int]Field

// Layout строит DetailLayout и проверяет, что номера не пересекаются
func (o DetailOffsets) Layout() (DetailLayout, error) {
	layout := make(DetailLayout, len(o))
	fields := make([]string, 0, len(o))
	for f := range o {
		fields = append(fields, string(f))
	}
	sort.Strings(fields)

	for _, name := range fields {
		f := Field(name)
		switch f {
		case FieldYear, FieldMake, FieldModel, FieldMileage, FieldAdType:
		default:
			return nil, fmt.Errorf("detail_offsets: unknown field %q", name)
		}
		offset := o[f]
		if offset < 0 {
			return nil, fmt.Errorf("detail_offsets: negative offset %d for %s", offset, name)
		}
		if prev, ok := layout[offset]; ok {
			return nil, fmt.Errorf("detail_offsets: offset %d used by both %s and %s", offset, prev, name)
		}
		layout[offset] = f
	}
	return layout, nil
}

// DescriptionMarkers фраза, после которой в блоке описания начинается текст продавца.
// Фраза зависит от типа объявления.
type DescriptionMarkers struct {
	Default  string            `yaml:"default"`
	ByAdType map[string]string `yaml:"by_ad_type"`
}

// For возвращает фразу-разделитель для типа объявления
func (m DescriptionMarkers) For(adType string) string {
	if marker, ok := m.ByAdType[adType]; ok && marker != "" {
		return marker
	}
	return m.Default
}

type Selectors struct {
	ContentRegion string `yaml:"content_region"`
	Entry         string `yaml:"entry"`
	Heading       string `yaml:"heading"`
	InlineText    string `yaml:"inline_text"`
	Price         string `yaml:"price"`
	Category      string `yaml:"category"`
	Image         string `yaml:"image"`

	DetailRegion       string             `yaml:"detail_region"`
	DetailCell         string             `yaml:"detail_cell"`
	DetailOffsets      DetailOffsets      `yaml:"detail_offsets"`
	Description        string             `yaml:"description"`
	DescriptionMarkers DescriptionMarkers `yaml:"description_markers"`
}

// DefaultSelectors разметка classifieds.castanet.net
func DefaultSelectors() *Selectors {
	return &Selectors{
		ContentRegion: "#left_column",
		Entry:         ".prod_container",
		Heading:       "h2",
		InlineText:    "span",
		Price:         "div.price",
		Category:      "div.cat_path",
		Image:         "img",

		DetailRegion: ".prod_right",
		DetailCell:   "td",
		DetailOffsets: DetailOffsets{
			FieldYear:    1,
			FieldMake:    3,
			FieldModel:   5,
			FieldMileage: 7,
			FieldAdType:  15,
		},
		Description: ".description",
		DescriptionMarkers: DescriptionMarkers{
			Default: "Email Seller",
			ByAdType: map[string]string{
				"Business": "Send Message",
				// так тип пишется на самом сайте
				"Buisness": "Send Message",
			},
		},
	}
}
