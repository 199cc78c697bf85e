package services

import (
	domain "github.com/lens-advisor/api/internal/domain"
	"github.com/lens-advisor/api/internal/platform/textutil"
)

// ProfileInput is everything the profile builder needs from one questionnaire session.
type ProfileInput struct {
	Selections         []AnswerSelection
	Signals            []ProfileSignal
	Age                int
	OutdoorHours       float64
	VisionTypeOverride domain.VisionType
	Prescription       *Prescription
}

// BuildRequirementProfile folds the signals of the selected answers into a profile. For each
// dimension the highest level wins; lifestyle tags are de-duplicated and sorted.
func BuildRequirementProfile(cfg EngineConfig, input ProfileInput) RequirementProfile {
	profile := RequirementProfile{
		Age:          input.Age,
		OutdoorHours: input.OutdoorHours,
	}
	switch {
	case input.VisionTypeOverride != "":
		profile.VisionType = input.VisionTypeOverride
	case input.Prescription != nil:
		profile.VisionType = ResolveVisionType(cfg, *input.Prescription, "")
	default:
		profile.VisionType = domain.VisionSingle
	}

	selected := make(map[string]struct{})
	for _, id := range SelectedAnswerIDs(input.Selections) {
		selected[id] = struct{}{}
	}

	var tags []string
	priorityLevel := -1
	for _, signal := range input.Signals {
		if _, ok := selected[signal.AnswerID]; !ok {
			continue
		}
		switch signal.Dimension {
		case domain.DimensionScreenLoad:
			profile.ScreenLoadLevel = maxInt(profile.ScreenLoadLevel, signal.Level)
		case domain.DimensionOutdoor:
			profile.OutdoorLevel = maxInt(profile.OutdoorLevel, signal.Level)
		case domain.DimensionDriving:
			profile.DrivingLevel = maxInt(profile.DrivingLevel, signal.Level)
		case domain.DimensionBlueProtection:
			profile.BlueProtectionLevel = maxInt(profile.BlueProtectionLevel, signal.Level)
		case domain.DimensionAR:
			profile.ARLevel = maxInt(profile.ARLevel, signal.Level)
		case domain.DimensionUV:
			profile.UVLevel = maxInt(profile.UVLevel, signal.Level)
		case domain.DimensionPhotochromic:
			if signal.Level > 0 {
				profile.PhotochromicNeed = true
			}
		case domain.DimensionPriority:
			if signal.Tag != "" && signal.Level > priorityLevel {
				profile.Priority = signal.Tag
				priorityLevel = signal.Level
			}
		case domain.DimensionLifestyle:
			tags = append(tags, signal.Tag)
		}
	}
	profile.LifestyleTags = textutil.NormalizeTags(tags)
	return profile
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
