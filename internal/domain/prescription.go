package domain

import "math"

// VisionType classifies the optical design a lens product is built for.
type VisionType string

const (
	VisionSingle        VisionType = "SINGLE_VISION"
	VisionProgressive   VisionType = "PROGRESSIVE"
	VisionBifocal       VisionType = "BIFOCAL"
	VisionAntiFatigue   VisionType = "ANTI_FATIGUE"
	VisionMyopiaControl VisionType = "MYOPIA_CONTROL"
	VisionZeroPower     VisionType = "ZERO_POWER"
)

// Valid reports whether the vision type is one of the known enum values.
func (v VisionType) Valid() bool {
	switch v {
	case VisionSingle, VisionProgressive, VisionBifocal, VisionAntiFatigue, VisionMyopiaControl, VisionZeroPower:
		return true
	}
	return false
}

// LensIndex is the refractive index class of a lens material. Higher classes are thinner.
type LensIndex string

const (
	Index156 LensIndex = "INDEX_156"
	Index160 LensIndex = "INDEX_160"
	Index167 LensIndex = "INDEX_167"
	Index174 LensIndex = "INDEX_174"
)

var lensIndexTiers = []LensIndex{Index156, Index160, Index167, Index174}

// Tier returns the 1-based thickness tier (1 thickest, 4 thinnest) or 0 when unknown.
func (i LensIndex) Tier() int {
	for idx, candidate := range lensIndexTiers {
		if candidate == i {
			return idx + 1
		}
	}
	return 0
}

// Next returns the next thinner index class, or the same index when already the thinnest.
func (i LensIndex) Next() LensIndex {
	tier := i.Tier()
	if tier == 0 || tier >= len(lensIndexTiers) {
		return i
	}
	return lensIndexTiers[tier]
}

// LensIndexForTier maps a 1-based tier back to the index class.
func LensIndexForTier(tier int) LensIndex {
	if tier < 1 {
		tier = 1
	}
	if tier > len(lensIndexTiers) {
		tier = len(lensIndexTiers)
	}
	return lensIndexTiers[tier-1]
}

// FrameType describes how the frame holds the lens.
type FrameType string

const (
	FrameFullRim FrameType = "FULL_RIM"
	FrameHalfRim FrameType = "HALF_RIM"
	FrameRimless FrameType = "RIMLESS"
)

// EyeRx is the correction for a single eye, in dioptres.
type EyeRx struct {
	Sphere   float64  `json:"sphere"`
	Cylinder float64  `json:"cylinder"`
	Axis     int      `json:"axis,omitempty"`
	Add      *float64 `json:"add,omitempty"`
}

// Prescription holds both eyes' corrections.
type Prescription struct {
	Right EyeRx `json:"right"`
	Left  EyeRx `json:"left"`
}

// Eyes returns the right and left eye in a fixed order.
func (p Prescription) Eyes() [2]EyeRx {
	return [2]EyeRx{p.Right, p.Left}
}

// MaxAbsolutePower is max(|sphere|, |sphere+cylinder|) across both eyes.
func (p Prescription) MaxAbsolutePower() float64 {
	var power float64
	for _, eye := range p.Eyes() {
		power = math.Max(power, math.Abs(eye.Sphere))
		power = math.Max(power, math.Abs(eye.Sphere+eye.Cylinder))
	}
	return power
}

// MaxAdd returns the largest reading addition across both eyes, 0 when none is prescribed.
func (p Prescription) MaxAdd() float64 {
	var add float64
	for _, eye := range p.Eyes() {
		if eye.Add != nil && *eye.Add > add {
			add = *eye.Add
		}
	}
	return add
}

// IsPlano reports whether neither eye carries any correction.
func (p Prescription) IsPlano() bool {
	for _, eye := range p.Eyes() {
		if eye.Sphere != 0 || eye.Cylinder != 0 {
			return false
		}
		if eye.Add != nil && *eye.Add != 0 {
			return false
		}
	}
	return true
}
