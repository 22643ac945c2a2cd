// Package routing provides RouteOracle implementations.
package routing

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/example/stakeout/internal/ports/secondary"
)

// DefaultSpeed is the assumed average travel speed in meters per second (about 30 mph).
const DefaultSpeed = 13.4

const earthRadiusMeters = 6371008.8

// Positions reports the last known position of an operation member.
type Positions interface {
	LatestPosition(operationID, userID string) (lat, lng float64, ok bool)
}

// StraightLine estimates routes as the great-circle path from the assignee's
// latest trail point to the assigned coordinate.
type StraightLine struct {
	assignments secondary.AssignmentRepository
	positions   Positions
	speed       float64
	now         func() time.Time
}

// NewStraightLine creates a StraightLine oracle. A non-positive speed uses DefaultSpeed.
func NewStraightLine(assignments secondary.AssignmentRepository, positions Positions, speed float64, now func() time.Time) *StraightLine {
	if speed <= 0 {
		speed = DefaultSpeed
	}
	if now == nil {
		now = time.Now
	}
	return &StraightLine{
		assignments: assignments,
		positions:   positions,
		speed:       speed,
		now:         now,
	}
}

// GetRoute returns nil while the assignee has no known position.
func (o *StraightLine) GetRoute(ctx context.Context, assignmentID string) (*secondary.RouteInfo, error) {
	record, err := o.assignments.GetByID(ctx, assignmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load assignment: %w", err)
	}
	lat, lng, ok := o.positions.LatestPosition(record.OperationID, record.AssignedToUserID)
	if !ok {
		return nil, nil
	}

	distance := Haversine(lat, lng, record.Lat, record.Lng)
	travel := time.Duration(distance / o.speed * float64(time.Second))
	label := record.Label
	if label == "" {
		label = "assigned location"
	}

	return &secondary.RouteInfo{
		AssignmentID:   record.ID,
		DistanceMeters: distance,
		ExpectedTravel: travel,
		Polyline: []secondary.Coordinate{
			{Lat: lat, Lng: lng},
			{Lat: record.Lat, Lng: record.Lng},
		},
		Steps: []secondary.RouteStep{{
			Instruction:    fmt.Sprintf("Head %s %s to %s", Bearing(lat, lng, record.Lat, record.Lng), humanize.SIWithDigits(distance, 1, "m"), label),
			DistanceMeters: distance,
		}},
		ComputedAt: o.now().UTC(),
	}, nil
}

// Haversine returns the great-circle distance in meters.
func Haversine(lat1, lng1, lat2, lng2 float64) float64 {
	phi1 := radians(lat1)
	phi2 := radians(lat2)
	dPhi := radians(lat2 - lat1)
	dLambda := radians(lng2 - lng1)

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	return 2 * earthRadiusMeters * math.Asin(math.Min(1, math.Sqrt(a)))
}

var compass = [...]string{"north", "northeast", "east", "southeast", "south", "southwest", "west", "northwest"}

// Bearing returns the eight-point compass direction of the initial heading.
func Bearing(lat1, lng1, lat2, lng2 float64) string {
	phi1 := radians(lat1)
	phi2 := radians(lat2)
	dLambda := radians(lng2 - lng1)

	y := math.Sin(dLambda) * math.Cos(phi2)
	x := math.Cos(phi1)*math.Sin(phi2) - math.Sin(phi1)*math.Cos(phi2)*math.Cos(dLambda)
	deg := math.Mod(math.Atan2(y, x)*180/math.Pi+360, 360)
	return compass[int(math.Round(deg/45))%len(compass)]
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}

// Ensure StraightLine implements the interface
var _ secondary.RouteOracle = (*StraightLine)(nil)
