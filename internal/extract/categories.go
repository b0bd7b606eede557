package extract

import (
	"strings"

	"carelink/pkg/types"
)

type categoryKeywords struct {
	Category string
	Keywords []string
}

// categoryTable is scanned top to bottom; the first keyword found in a name
// decides its category.
var categoryTable = []categoryKeywords{
	{"Grains & Cereals", []string{"rice", "wheat", "flour", "atta", "dal", "lentil", "pulse", "oat", "cereal", "corn", "maize", "barley", "millet", "ragi", "jowar", "bajra", "semolina", "sooji", "rava", "poha", "noodle", "pasta", "bread", "roti", "chapati", "maida"}},
	{"Dairy Products", []string{"milk", "butter", "ghee", "cheese", "curd", "yogurt", "paneer", "cream", "buttermilk"}},
	{"Fruits & Vegetables", []string{"fruit", "vegetable", "apple", "banana", "orange", "mango", "grape", "potato", "onion", "tomato", "carrot", "spinach", "cabbage", "pea", "bean", "broccoli", "cucumber", "capsicum", "garlic", "ginger"}},
	{"Beverages", []string{"tea", "coffee", "juice", "water", "drink", "beverage", "squash", "syrup", "horlicks", "bournvita", "complan"}},
	{"Snacks & Sweets", []string{"biscuit", "cookie", "chocolate", "candy", "sweet", "chip", "namkeen", "snack", "cake", "jam", "jelly", "honey", "sugar", "jaggery", "gur"}},
	{"Hygiene & Toiletries", []string{"soap", "shampoo", "toothpaste", "toothbrush", "sanitizer", "detergent", "tissue", "napkin", "diaper", "sanitary", "handwash", "disinfectant", "comb", "oil", "lotion", "cream", "powder"}},
	{"Clothing", []string{"cloth", "shirt", "pant", "dress", "shoe", "sock", "uniform", "blanket", "bedsheet", "towel", "sweater", "jacket", "cap", "slipper", "sandal"}},
	{"Stationery & Books", []string{"pen", "pencil", "notebook", "eraser", "sharpener", "ruler", "book", "paper", "crayon", "color", "sketch", "bag", "school", "geometry"}},
	{"Medicine & Health", []string{"medicine", "tablet", "syrup", "bandage", "vitamin", "supplement", "first aid", "ointment", "drops", "thermometer", "mask", "glove"}},
}

// Categories lists the taxonomy names in classification order, followed by
// the default category.
func Categories() []string {
	out := make([]string, 0, len(categoryTable)+1)
	for _, entry := range categoryTable {
		out = append(out, entry.Category)
	}
	return append(out, types.DefaultCategoryName)
}

// Classify assigns name to a category by substring keyword match.
func Classify(name string) string {
	lower := strings.ToLower(name)
	for _, entry := range categoryTable {
		for _, keyword := range entry.Keywords {
			if strings.Contains(lower, keyword) {
				return entry.Category
			}
		}
	}
	return types.DefaultCategoryName
}
