package media

import "github.com/baalimago/metai/internal/models"

// Extract the generated media of an imagine card, in order. Items without an
// url are skipped. Never returns nil.
func Extract(card *models.ImagineCard) []models.MediaItem {
	ret := make([]models.MediaItem, 0)
	if card == nil || card.Session == nil {
		return ret
	}
	for _, set := range card.Session.MediaSets {
		for _, m := range set.ImagineMedia {
			if m.URI == "" {
				continue
			}
			ret = append(ret, models.MediaItem{
				URL:    m.URI,
				Type:   m.MediaType,
				Prompt: m.Prompt,
			})
		}
	}
	return ret
}

// Has reports if the card contains any media, without building the list.
func Has(card *models.ImagineCard) bool {
	if card == nil || card.Session == nil {
		return false
	}
	for _, set := range card.Session.MediaSets {
		if len(set.ImagineMedia) > 0 {
			return true
		}
	}
	return false
}

func URLs(card *models.ImagineCard) []string {
	items := Extract(card)
	ret := make([]string, 0, len(items))
	for _, m := range items {
		ret = append(ret, m.URL)
	}
	return ret
}
