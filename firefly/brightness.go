package firefly

// At returns the instantaneous, unsmoothed brightness of the pattern
// at elapsed time t (milliseconds since flash start). Before the
// flash starts and after the pattern's length it returns 0. Between
// keyframes the value is a linear interpolation from the previous
// keyframe's target to the current one.
//
// All arithmetic is integer with truncating division. This is a
// deliberate fixed-point computation, not an approximation of a
// floating-point one: the flash curves are defined by exactly these
// truncated values.
func (p Pattern) At(t int) int {
	if t < 0 {
		return 0
	}
	end := 0
	prev := 0
	for _, fp := range p {
		end += fp.Duration
		if t < end {
			if fp.Duration == 0 {
				return 0
			}
			return prev + (fp.Duration-(end-t))*(fp.Target-prev)/fp.Duration
		}
		if fp.Target == 0 {
			break
		}
		prev = fp.Target
	}
	// t lies beyond the end of the pattern
	return 0
}

// Smoothed returns the box-filtered brightness of the pattern over a
// symmetric window centered at t. The window width is coerced to the
// nearest odd value not above smoothing+1 (half = smoothing/2, width
// = 2*half+1), so the result for smoothing == 1 degenerates to a
// width-1 window.
//
// Because each keyframe segment is linear, the windowed average is
// computed exactly: for every segment overlapping the window the
// trapezoid (At(t1)+At(t2))*(t2-t1) is accumulated and the doubled
// sum is divided by 2*width at the end. Truncating integer division
// throughout, matching At.
func (p Pattern) Smoothed(t, smoothing int) int {
	half := smoothing >> 1
	smoothing = (half << 1) + 1
	winStart := t - half
	winEnd := winStart + smoothing

	length := p.Length()
	if winEnd < 0 || winStart > length {
		// no flash activity inside the window
		return 0
	}

	sum := 0
	segStart := 0
	for _, fp := range p {
		segEnd := segStart + fp.Duration

		var t1 int
		switch {
		case winStart >= segStart && winStart < segEnd:
			t1 = winStart
		case winStart < segStart:
			t1 = segStart
		default:
			// segment lies entirely before the window
			segStart = segEnd
			if fp.Target == 0 {
				break
			}
			continue
		}

		t2 := min(segEnd, winEnd)
		sum += (p.At(t1) + p.At(t2)) * (t2 - t1)

		if t2 == winEnd {
			break
		}
		segStart = t2
		if fp.Target == 0 {
			break
		}
	}
	return sum / (2 * smoothing)
}
