package progression

import "disciplinebaby/models"

type PetStage struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	UnlockLevel int    `json:"unlockLevel"`
}

// PetStages is ordered by unlock level.
var PetStages = []PetStage{
	{ID: "pet1", Name: "Egg", UnlockLevel: 1},
	{ID: "pet2", Name: "Hatchling", UnlockLevel: 3},
	{ID: "pet3", Name: "Fledgling", UnlockLevel: 5},
	{ID: "pet4", Name: "Explorer", UnlockLevel: 8},
	{ID: "pet5", Name: "Guardian", UnlockLevel: 12},
}

// PetStageForLevel returns the stage with the highest unlock level not above
// level, or the first stage when none qualifies.
func PetStageForLevel(level int) string {
	style := models.DefaultPetStyle
	best := 0
	for _, stage := range PetStages {
		if stage.UnlockLevel <= level && stage.UnlockLevel > best {
			best = stage.UnlockLevel
			style = stage.ID
		}
	}
	return style
}
