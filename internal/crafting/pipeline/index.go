package pipeline

import (
	"github.com/rsned/rocket-capacity-server/pkg/crafting"
)

// recipeIndex maps item names to their position in the item list and to
// the recipes producing them, in encounter order.
type recipeIndex struct {
	items     map[string]int
	producers map[string][]int
}

func newRecipeIndex(items []crafting.Item, recipes []crafting.Recipe) *recipeIndex {
	idx := &recipeIndex{
		items:     make(map[string]int, len(items)),
		producers: make(map[string][]int, len(items)),
	}
	for i, it := range items {
		if _, ok := idx.items[it.Name]; !ok {
			idx.items[it.Name] = i
		}
	}
	for ri, r := range recipes {
		for _, res := range r.Results {
			if resultType(res) != crafting.TypeItem {
				continue
			}
			if _, ok := idx.items[res.Name]; !ok {
				continue
			}
			p := idx.producers[res.Name]
			if len(p) > 0 && p[len(p)-1] == ri {
				continue
			}
			idx.producers[res.Name] = append(p, ri)
		}
	}
	return idx
}

func (idx *recipeIndex) item(name string) (int, bool) {
	i, ok := idx.items[name]
	return i, ok
}
