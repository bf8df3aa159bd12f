package rank

import "strings"

// foodKeywords is the static food vocabulary used to filter generic
// classifier labels down to food classes. Loaded once; never mutated.
// Multi-word terms are stored space-separated to match normalized labels.
var foodKeywords = buildKeywordSet([]string{
	// Fruits
	"apple", "banana", "orange", "strawberry", "grape", "pineapple",
	"mango", "peach", "pear", "cherry", "blueberry", "raspberry",
	"watermelon", "cantaloupe", "kiwi", "papaya", "coconut",

	// Vegetables
	"broccoli", "carrot", "tomato", "potato", "onion", "pepper",
	"cucumber", "lettuce", "spinach", "cabbage", "cauliflower",
	"zucchini", "eggplant", "asparagus", "mushroom", "corn",

	// Proteins
	"chicken", "beef", "pork", "fish", "salmon", "tuna",
	"egg", "tofu", "beans", "lentils", "nuts", "cheese",

	// Grains and starches
	"rice", "pasta", "bread", "noodle", "quinoa", "oats",
	"cereal", "bagel", "croissant", "muffin", "pancake", "waffle",

	// Fast food
	"pizza", "burger", "hamburger", "cheeseburger", "hot dog",
	"french fries", "fries", "sandwich", "burrito", "taco",
	"nachos", "wings", "fried chicken",

	// Desserts
	"ice cream", "cake", "cookie", "donut", "chocolate",
	"candy", "pie", "pudding", "brownie", "cupcake",

	// Beverages
	"coffee", "tea", "soda", "juice", "milk", "smoothie",

	// International dishes
	"sushi", "ramen", "curry", "biryani", "dosa", "naan",
	"dim sum", "gyoza", "tempura", "pad thai", "pho",

	// Snacks
	"chips", "crackers", "pretzels", "popcorn", "granola",

	// Soups and salads
	"soup", "salad", "stew", "chili", "broth",
})

func buildKeywordSet(terms []string) map[string]struct{} {
	set := make(map[string]struct{}, len(terms))
	for _, t := range terms {
		set[t] = struct{}{}
	}
	return set
}

// isFoodLabel reports whether a normalized label contains any food keyword.
// Substring containment, so "cheeseburger" matches through "burger".
func isFoodLabel(normalized string) bool {
	for kw := range foodKeywords {
		if strings.Contains(normalized, kw) {
			return true
		}
	}
	return false
}
