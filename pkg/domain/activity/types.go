// Package activity holds the pure derivation logic shared by the CSV
// projection: unit conversions, pace/speed classification, timestamp
// handling and the small text formats Garmin Connect uses on the wire.
package activity

// ParentTypeNames maps Garmin's numeric parentTypeId to the type key used
// in the CSV output.
var ParentTypeNames = map[int]string{
	1:   "running",
	2:   "cycling",
	3:   "hiking",
	4:   "other",
	9:   "walking",
	17:  "any",
	26:  "swimming",
	29:  "fitness_equipment",
	71:  "motorcycling",
	83:  "transition",
	144: "diving",
	149: "yoga",
	165: "winter_sports",
}

// usesPace holds the type IDs reported as pace (min/km) instead of speed
// (km/h): running, hiking, walking, swimming.
var usesPace = map[int]bool{1: true, 3: true, 9: true, 26: true}

// UsesPace reports whether an activity is in the pace category, checking
// both the type ID and the parent type ID. Unknown (nil) IDs never match.
func UsesPace(typeID, parentTypeID *int) bool {
	if typeID != nil && usesPace[*typeID] {
		return true
	}
	return parentTypeID != nil && usesPace[*parentTypeID]
}
