package region

import "slices"

// Names maps region keys to the English names Geoserver knows them by.
var Names = map[string]string{
	"bc":                          "British Columbia",
	"alberni_clayoquot":           "Alberni-Clayoquot",
	"boreal_plains":               "Boreal Plains",
	"bulkley_nechako":             "Bulkley-Nechako",
	"capital":                     "Capital",
	"cariboo":                     "Cariboo",
	"central_coast":               "Central Coast",
	"central_kootenay":            "Central Kootenay",
	"central_okanagan":            "Central Okanagan",
	"columbia_shuswap":            "Columbia-Shuswap",
	"comox_valley":                "Comox Valley",
	"cowichan_valley":             "Cowichan Valley",
	"east_kootenay":               "East Kootenay",
	"fraser_fort_george":          "Fraser-Fort George",
	"fraser_valley":               "Fraser Valley",
	"greater_vancouver":           "Greater Vancouver",
	"kitimat_stikine":             "Kitimat-Stikine",
	"kootenay_boundary":           "Kootenay Boundary",
	"mt_waddington":               "Mount Waddington",
	"nanaimo":                     "Nanaimo",
	"northern_rockies":            "Northern Rockies",
	"north_okanagan":              "North Okanagan",
	"okanagan_similkameen":        "Okanagan-Similkameen",
	"peace_river":                 "Peace River",
	"powell_river":                "Powell River",
	"skeena_queen_charlotte":      "Skeena-Queen Charlotte",
	"squamish_lillooet":           "Squamish-Lillooet",
	"stikine":                     "Stikine",
	"strathcona":                  "Strathcona",
	"sunshine_coast":              "Sunshine Coast",
	"thompson_nicola":             "Thompson-Nicola",
	"interior":                    "Interior",
	"northern":                    "Northern",
	"vancouver_coast":             "Vancouver Coast",
	"vancouver_fraser":            "Vancouver Fraser",
	"vancouver_island":            "Vancouver Island",
	"central_interior":            "Central Interior",
	"coast_and_mountains":         "Coast and Mountains",
	"georgia_depression":          "Georgia Depression",
	"northern_boreal_mountains":   "Northern Boreal Mountains",
	"southern_interior":           "Southern Interior",
	"southern_interior_mountains": "Southern Interior Mountains",
	"sub_boreal_mountains":        "Sub Boreal Mountains",
	"taiga_plains":                "Taiga Plains",
	"kootenay_/_boundary":         "Kootenay / Boundary",
	"northeast":                   "Northeast",
	"omineca":                     "Omineca",
	"skeena":                      "Skeena",
	"south_coast":                 "South Coast",
	"thompson_okanagan":           "Thompson / Okanagan",
	"west_coast":                  "West Coast",
}

// Keys returns the supported region keys in sorted order.
func Keys() []string {
	keys := make([]string, 0, len(Names))
	for k := range Names {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
