package cards

import (
	"github.com/dmitrijs2005/cardkeeper/internal/common"
	"github.com/dmitrijs2005/cardkeeper/internal/models"
)

// ComputeStats summarizes cards in memory. The most common set is the one
// with the highest card count; ties go to the set seen first in cards.
func ComputeStats(cards []models.Card) models.Stats {
	st := models.Stats{MostCommonSet: common.NoSet}

	counts := make(map[string]int)
	var order []string
	for _, c := range cards {
		st.TotalCards++
		st.TotalQuantity += c.Quantity
		if c.IsFavorite {
			st.Favorites++
		}
		if _, ok := counts[c.SetName]; !ok {
			order = append(order, c.SetName)
		}
		counts[c.SetName]++
	}

	best := 0
	for _, set := range order {
		if counts[set] > best {
			best = counts[set]
			st.MostCommonSet = set
		}
	}
	st.UniqueSets = len(order)
	return st
}
