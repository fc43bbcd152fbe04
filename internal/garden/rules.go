package garden

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// MaxPinsPerArea caps how many pins a single plant may place on one garden area.
const MaxPinsPerArea = 3

// ErrPinCapReached indicates the plant already holds the maximum number of
// pins for the targeted garden area.
var ErrPinCapReached = errors.New("garden: pin cap reached for area")

// PinsInArea counts the plant's pins placed on the given garden area.
func (p *Plant) PinsInArea(areaID string) int {
	count := 0
	for _, pin := range p.Locations {
		if pin.GardenAreaID == areaID {
			count++
		}
	}
	return count
}

// AddPin appends a location pin, enforcing the per-area cap.
func (p *Plant) AddPin(pin LocationPin) error {
	if strings.TrimSpace(pin.GardenAreaID) == "" {
		return fmt.Errorf("%w: empty", ErrInvalidEntityID)
	}
	if p.PinsInArea(pin.GardenAreaID) >= MaxPinsPerArea {
		return fmt.Errorf("%w: %s holds %d pins", ErrPinCapReached, pin.GardenAreaID, MaxPinsPerArea)
	}
	p.Locations = append(p.Locations, pin)
	return nil
}

// RemovePinsForArea drops every pin the plant placed on the given area and
// reports how many were removed.
func (p *Plant) RemovePinsForArea(areaID string) int {
	kept := p.Locations[:0]
	removed := 0
	for _, pin := range p.Locations {
		if pin.GardenAreaID == areaID {
			removed++
			continue
		}
		kept = append(kept, pin)
	}
	p.Locations = kept
	return removed
}

// NormalizedName returns the case-insensitive trimmed form used when
// disambiguating same-named plants.
func NormalizedName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// NextSequence computes the sequence number for a new plant: the count of
// existing plants sharing the same normalized name, plus one.
func NextSequence(existing []Plant, name string) int {
	target := NormalizedName(name)
	count := 0
	for _, plant := range existing {
		if NormalizedName(plant.Name) == target {
			count++
		}
	}
	return count + 1
}

// Task recurrence intervals.
const (
	RecurrenceDaily   = "daily"
	RecurrenceWeekly  = "weekly"
	RecurrenceMonthly = "monthly"
	RecurrenceYearly  = "yearly"
)

// NextOccurrence advances a task date by one recurrence interval. The second
// return is false for an empty or unknown recurrence.
func NextOccurrence(dateSeconds int64, recurrence string) (int64, bool) {
	date := time.Unix(dateSeconds, 0).UTC()
	switch recurrence {
	case RecurrenceDaily:
		return date.AddDate(0, 0, 1).Unix(), true
	case RecurrenceWeekly:
		return date.AddDate(0, 0, 7).Unix(), true
	case RecurrenceMonthly:
		return date.AddDate(0, 1, 0).Unix(), true
	case RecurrenceYearly:
		return date.AddDate(1, 0, 0).Unix(), true
	default:
		return dateSeconds, false
	}
}
