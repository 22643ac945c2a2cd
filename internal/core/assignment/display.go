package assignment

import (
	"fmt"
	"math"
	"time"

	"github.com/dustin/go-humanize"
)

// Calculating is shown while no route is known.
const Calculating = "Calculating…"

const metersPerMile = 1609.344

// Display holds the derived, non-authoritative distance and ETA strings.
type Display struct {
	Distance string
	ETA      string
}

// DisplayFor formats distance and travel time. A nil distance or time means the
// routing oracle has not produced an answer yet.
func DisplayFor(distanceMeters *float64, travel *time.Duration) Display {
	d := Display{Distance: Calculating, ETA: Calculating}
	if distanceMeters != nil && *distanceMeters >= 0 {
		d.Distance = FormatDistance(*distanceMeters)
	}
	if travel != nil && *travel >= 0 {
		d.ETA = FormatETA(*travel)
	}
	return d
}

// FormatDistance renders meters as miles, switching to feet under a tenth of a mile.
func FormatDistance(meters float64) string {
	miles := meters / metersPerMile
	if miles < 0.1 {
		return fmt.Sprintf("%s ft", humanize.Comma(int64(math.Round(meters*3.28084))))
	}
	return humanize.FtoaWithDigits(miles, 1) + " mi"
}

// FormatETA renders a travel time rounded up to the minute.
func FormatETA(d time.Duration) string {
	minutes := int(math.Ceil(d.Minutes()))
	if minutes < 1 {
		return "< 1 min"
	}
	if minutes < 60 {
		return fmt.Sprintf("%d min", minutes)
	}
	return fmt.Sprintf("%d hr %d min", minutes/60, minutes%60)
}
