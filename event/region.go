package event

// Region is the detector subsystem that registered a particle.
type Region int

const (
	RegionUnknown Region = -1
	RegionFT      Region = 0 // forward tagger
	RegionFD      Region = 1 // forward detector
	RegionCD      Region = 2 // central detector
)

func (r Region) String() string {
	switch r {
	case RegionFT:
		return "FT"
	case RegionFD:
		return "FD"
	case RegionCD:
		return "CD"
	}
	return "unknown"
}

// RegionOf decodes the region from the thousands digit of a status code.
func RegionOf(status int16) Region {
	s := int(status)
	if s < 0 {
		s = -s
	}
	switch {
	case s >= 1000 && s < 2000:
		return RegionFT
	case s >= 2000 && s < 3000:
		return RegionFD
	case s >= 4000 && s < 5000:
		return RegionCD
	}
	return RegionUnknown
}
