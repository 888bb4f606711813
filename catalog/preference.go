package catalog

// preference is the ranking tuple for video formats: progressive beats
// split streams, mp4 beats other containers, a direct URL beats none, then
// height, fps and bitrate break remaining ties. Compared element-wise left
// to right.
type preference struct {
	progressive bool
	mp4         bool
	direct      bool
	height      int
	fps         int
	bitrate     int
}

func preferenceOf(f *Format) preference {
	return preference{
		progressive: f.IsProgressive,
		mp4:         f.Container == "mp4",
		direct:      f.HasDirectURL,
		height:      f.Height,
		fps:         f.FPS,
		bitrate:     f.BitrateKbps,
	}
}

func boolCmp(a, b bool) int {
	switch {
	case a == b:
		return 0
	case a:
		return 1
	default:
		return -1
	}
}

func intCmp(a, b int) int {
	switch {
	case a == b:
		return 0
	case a > b:
		return 1
	default:
		return -1
	}
}

// compare returns >0 when p ranks above other, <0 when below, 0 when the
// tuples are exactly equal.
func (p preference) compare(other preference) int {
	if c := boolCmp(p.progressive, other.progressive); c != 0 {
		return c
	}
	if c := boolCmp(p.mp4, other.mp4); c != 0 {
		return c
	}
	if c := boolCmp(p.direct, other.direct); c != 0 {
		return c
	}
	if c := intCmp(p.height, other.height); c != 0 {
		return c
	}
	if c := intCmp(p.fps, other.fps); c != 0 {
		return c
	}
	return intCmp(p.bitrate, other.bitrate)
}

// dedupKey identifies video variants that are interchangeable to a caller.
// Only the entrant with the strictly greatest preference tuple survives per
// key; the first-seen entry wins exact ties.
type dedupKey struct {
	height    int
	fps       int
	container string
	bitrate   int
}

func dedupKeyOf(f *Format) dedupKey {
	return dedupKey{
		height:    f.Height,
		fps:       f.FPS,
		container: f.Container,
		bitrate:   f.BitrateKbps,
	}
}
