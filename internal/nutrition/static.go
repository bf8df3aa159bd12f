package nutrition

import "strings"

type staticEntry struct {
	name string
	rec  Record
}

// staticTable covers common foods for when every external source comes up
// empty. Values are per 100g. Ordered: partial matches resolve to the first
// entry, so a label touching several keys always yields the same record.
// Loaded once; never mutated.
var staticTable = []staticEntry{
	{"pizza", Record{Calories: 266, ProteinG: 11, FatG: 10, CarbsG: 33, FiberG: 2.3, SugarG: 3.6, SodiumMg: 598}},
	{"hamburger", Record{Calories: 295, ProteinG: 17, FatG: 14, CarbsG: 28, FiberG: 2.1, SugarG: 4.0, SodiumMg: 396}},
	{"burger", Record{Calories: 295, ProteinG: 17, FatG: 14, CarbsG: 28, FiberG: 2.1, SugarG: 4.0, SodiumMg: 396}},
	{"sushi", Record{Calories: 200, ProteinG: 9, FatG: 7, CarbsG: 28, FiberG: 1.0, SugarG: 2.0, SodiumMg: 400}},
	{"chocolate cake", Record{Calories: 371, ProteinG: 4, FatG: 16, CarbsG: 56, FiberG: 3.0, SugarG: 45, SodiumMg: 320}},
	{"cake", Record{Calories: 371, ProteinG: 4, FatG: 16, CarbsG: 56, FiberG: 3.0, SugarG: 45, SodiumMg: 320}},
	{"french fries", Record{Calories: 365, ProteinG: 4, FatG: 17, CarbsG: 48, FiberG: 4.0, SugarG: 0.3, SodiumMg: 400}},
	{"fries", Record{Calories: 365, ProteinG: 4, FatG: 17, CarbsG: 48, FiberG: 4.0, SugarG: 0.3, SodiumMg: 400}},
	{"chicken", Record{Calories: 239, ProteinG: 27, FatG: 14, CarbsG: 0, FiberG: 0, SugarG: 0, SodiumMg: 82}},
	{"ice cream", Record{Calories: 207, ProteinG: 4, FatG: 11, CarbsG: 24, FiberG: 0.5, SugarG: 21, SodiumMg: 80}},
	{"apple", Record{Calories: 52, ProteinG: 0.3, FatG: 0.2, CarbsG: 14, FiberG: 2.4, SugarG: 10.4, SodiumMg: 1}},
	{"banana", Record{Calories: 89, ProteinG: 1.1, FatG: 0.3, CarbsG: 23, FiberG: 2.6, SugarG: 12.2, SodiumMg: 1}},
	{"rice", Record{Calories: 130, ProteinG: 2.7, FatG: 0.3, CarbsG: 28, FiberG: 0.4, SugarG: 0.1, SodiumMg: 5}},
	{"bread", Record{Calories: 265, ProteinG: 9, FatG: 3.2, CarbsG: 49, FiberG: 2.7, SugarG: 5.7, SodiumMg: 491}},
	{"pasta", Record{Calories: 131, ProteinG: 5, FatG: 1.1, CarbsG: 25, FiberG: 1.8, SugarG: 0.8, SodiumMg: 6}},
	{"salad", Record{Calories: 15, ProteinG: 1.4, FatG: 0.1, CarbsG: 3, FiberG: 1.3, SugarG: 1.5, SodiumMg: 28}},
}

// StaticLookup consults the built-in food table: exact match first, then
// substring containment in either direction, first entry wins. Returns nil
// when nothing fits.
func StaticLookup(food string) *Record {
	name := normalizeName(food)

	for _, e := range staticTable {
		if e.name == name {
			rec := e.rec
			rec.Source = SourceStaticTable
			return &rec
		}
	}

	for _, e := range staticTable {
		if strings.Contains(name, e.name) || strings.Contains(e.name, name) {
			rec := e.rec
			rec.Source = SourceStaticTable
			return &rec
		}
	}

	return nil
}

// DefaultRecord is the last-resort answer when even the static table misses.
func DefaultRecord() *Record {
	return &Record{
		Calories: 200,
		ProteinG: 10,
		FatG:     8,
		CarbsG:   25,
		FiberG:   2,
		SugarG:   5,
		SodiumMg: 100,
		Source:   SourceDefault,
	}
}
