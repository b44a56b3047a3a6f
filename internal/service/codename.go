package service

import (
	"math/rand/v2"
)

// CodenameGenerator produces candidate codenames. Uniqueness is enforced by
// the repository; generators only need to make collisions unlikely.
type CodenameGenerator interface {
	Generate() string
}

// CodenameFunc adapts a function to CodenameGenerator.
type CodenameFunc func() string

func (f CodenameFunc) Generate() string { return f() }

var codenameAdjectives = []string{
	"Amber", "Arctic", "Ashen", "Azure", "Black", "Blazing", "Bold", "Brass",
	"Bright", "Broken", "Cobalt", "Cold", "Crimson", "Crystal", "Dark", "Dawn",
	"Desert", "Distant", "Dusky", "Electric", "Emerald", "Fallen", "Fierce", "Frozen",
	"Ghost", "Gilded", "Golden", "Granite", "Grey", "Hidden", "Hollow", "Iron",
	"Ivory", "Jade", "Last", "Lone", "Lunar", "Midnight", "Misty", "Nimble",
	"Obsidian", "Onyx", "Pale", "Phantom", "Quiet", "Radiant", "Red", "Restless",
	"Rogue", "Rusty", "Sable", "Scarlet", "Secret", "Shadow", "Silent", "Silver",
	"Solar", "Steel", "Stone", "Swift", "Velvet", "Violet", "Wild", "Winter",
}

var codenameNouns = []string{
	"Albatross", "Badger", "Basilisk", "Bear", "Bison", "Cobra", "Condor", "Cougar",
	"Coyote", "Crane", "Crow", "Dragon", "Eagle", "Falcon", "Ferret", "Fox",
	"Gecko", "Griffin", "Hawk", "Heron", "Hornet", "Hydra", "Ibis", "Jackal",
	"Jaguar", "Kestrel", "Kingfisher", "Kraken", "Lion", "Lynx", "Mamba", "Mantis",
	"Marlin", "Merlin", "Mongoose", "Moth", "Narwhal", "Nightingale", "Ocelot", "Orca",
	"Osprey", "Otter", "Owl", "Panther", "Pelican", "Phoenix", "Puma", "Python",
	"Raven", "Scorpion", "Shark", "Sparrow", "Sphinx", "Stallion", "Stingray", "Swan",
	"Tiger", "Viper", "Vulture", "Walrus", "Wasp", "Wolf", "Wolverine", "Wyvern",
}

// RandomCodename returns names like "The Silent Nightingale".
func RandomCodename() string {
	return "The " + codenameAdjectives[rand.IntN(len(codenameAdjectives))] +
		" " + codenameNouns[rand.IntN(len(codenameNouns))]
}
