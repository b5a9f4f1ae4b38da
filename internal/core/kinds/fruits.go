package kinds

// DefaultExcludeLargest keeps WATERMELON, MELON, PINEAPPLE, PEACH, PEAR and
// APPLE out of fresh spawns.
const DefaultExcludeLargest = 6

const (
	Cherry     = "CHERRY"
	Strawberry = "STRAWBERRY"
	Grape      = "GRAPE"
	Dekopon    = "DEKOPON"
	Kaki       = "KAKI"
	Apple      = "APPLE"
	Pear       = "PEAR"
	Peach      = "PEACH"
	Pineapple  = "PINEAPPLE"
	Melon      = "MELON"
	Watermelon = "WATERMELON"
)

// FruitDefinitions is the fruit chain, smallest first. Sizes are in dp.
func FruitDefinitions() []Definition {
	return []Definition{
		{Name: Cherry, Label: "サクランボ", Size: 24, Color: "#DF3325", TextSize: 10},
		{Name: Strawberry, Label: "イチゴ", Size: 36, Color: "#EC7355", TextSize: 14},
		{Name: Grape, Label: "ブドウ", Size: 48, Color: "#5913E5", TextSize: 20},
		{Name: Dekopon, Label: "デコポン", Size: 60, Color: "#F4BA40", TextSize: 30},
		{Name: Kaki, Label: "カキ", Size: 80, Color: "#EE8D39", TextSize: 40},
		{Name: Apple, Label: "リンゴ", Size: 100, Color: "#E2372A", TextSize: 50},
		{Name: Pear, Label: "ナシ", Size: 120, Color: "#FBF189", TextSize: 60},
		{Name: Peach, Label: "モモ", Size: 160, Color: "#F5C9C1", TextSize: 80},
		{Name: Pineapple, Label: "パイナップル", Size: 200, Color: "#F1D248", TextSize: 100},
		{Name: Melon, Label: "メロン", Size: 240, Color: "#87B83D", TextSize: 130},
		{Name: Watermelon, Label: "スイカ", Size: 280, Color: "#30671F", TextSize: 140},
	}
}

// Default returns the fruit table with the default spawn exclusion.
func Default() *Table {
	return MustTable(FruitDefinitions(), DefaultExcludeLargest)
}
