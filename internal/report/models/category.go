package models

// Category identifies the problem type of a report. The enumeration is closed;
// sub-categories carry their group for dashboard roll-ups.
type Category string

const (
	CategoryPothole          Category = "pothole"
	CategoryPavementDamage   Category = "pavement-damage"
	CategoryFlooding         Category = "flooding"
	CategoryBlockedDrain     Category = "blocked-drain"
	CategoryLightingOutage   Category = "lighting-outage"
	CategoryFlickeringLight  Category = "flickering-light"
	CategoryTrashAccumulated Category = "trash-accumulation"
	CategoryBrokenSign       Category = "broken-sign"
	CategoryOther            Category = "other"
)

// CategoryGroup is the top-level bucket a category belongs to.
type CategoryGroup string

const (
	GroupRoad     CategoryGroup = "road"
	GroupWater    CategoryGroup = "water"
	GroupLighting CategoryGroup = "lighting"
	GroupCleaning CategoryGroup = "cleaning"
	GroupSignage  CategoryGroup = "signage"
	GroupOther    CategoryGroup = "other"
)

var categoryGroups = map[Category]CategoryGroup{
	CategoryPothole:          GroupRoad,
	CategoryPavementDamage:   GroupRoad,
	CategoryFlooding:         GroupWater,
	CategoryBlockedDrain:     GroupWater,
	CategoryLightingOutage:   GroupLighting,
	CategoryFlickeringLight:  GroupLighting,
	CategoryTrashAccumulated: GroupCleaning,
	CategoryBrokenSign:       GroupSignage,
	CategoryOther:            GroupOther,
}

// Valid reports whether c is a member of the closed category enumeration.
func (c Category) Valid() bool {
	_, ok := categoryGroups[c]
	return ok
}

// Group returns the top-level bucket for c; GroupOther for unknown values.
func (c Category) Group() CategoryGroup {
	if g, ok := categoryGroups[c]; ok {
		return g
	}
	return GroupOther
}
