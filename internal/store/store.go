// Package store holds the in-memory single source of truth for a signed-in
// user's garden data. Collections are keyed by identity and replaced
// wholesale after every successful re-fetch; targeted upserts exist only for
// the explicitly optimistic paths. The synchronization controller is the
// sole writer; views read.
package store

import (
	"sort"
	"sync"

	"github.com/florahq/verdant/internal/garden"
)

// FeedPost is a social post hydrated with its denormalized interaction state.
type FeedPost struct {
	garden.SocialPost
	Likes    int
	IsLiked  bool
	Comments []garden.PostComment
}

// Store owns one collection per entity type plus derived/selected state.
type Store struct {
	mu sync.RWMutex

	plants   map[string]garden.Plant
	logs     map[string]garden.LogEntry
	areas    map[string]garden.GardenArea
	notebook map[string]garden.NotebookEntry
	feed     map[string]FeedPost

	selectedPlantID string
	selectedLogID   string
	selectedPostID  string

	feedCursor  int
	feedHasMore bool
}

// New returns an empty store.
func New() *Store {
	return &Store{
		plants:   map[string]garden.Plant{},
		logs:     map[string]garden.LogEntry{},
		areas:    map[string]garden.GardenArea{},
		notebook: map[string]garden.NotebookEntry{},
		feed:     map[string]FeedPost{},
	}
}

// ReplacePlants swaps in a freshly fetched plant collection.
func (s *Store) ReplacePlants(plants []garden.Plant) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.plants = make(map[string]garden.Plant, len(plants))
	for _, plant := range plants {
		s.plants[plant.PlantID] = plant
	}
}

// UpsertPlant inserts or replaces a single plant.
func (s *Store) UpsertPlant(plant garden.Plant) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.plants[plant.PlantID] = plant
}

// RemovePlant drops a plant by id.
func (s *Store) RemovePlant(plantID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.plants, plantID)
}

// Plant returns one plant by id.
func (s *Store) Plant(plantID string) (garden.Plant, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	plant, ok := s.plants[plantID]
	return plant, ok
}

// Plants returns the dashboard listing: archived plants are excluded unless
// requested. Sorted by name, then sequence number.
func (s *Store) Plants(includeArchived bool) []garden.Plant {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]garden.Plant, 0, len(s.plants))
	for _, plant := range s.plants {
		if !includeArchived && !plant.IsActive {
			continue
		}
		out = append(out, plant)
	}
	sort.Slice(out, func(i, j int) bool {
		if ni, nj := garden.NormalizedName(out[i].Name), garden.NormalizedName(out[j].Name); ni != nj {
			return ni < nj
		}
		return out[i].Sequence < out[j].Sequence
	})
	return out
}

// AllPlants returns every plant regardless of archive state, unsorted order
// not guaranteed. Used for sequence computation.
func (s *Store) AllPlants() []garden.Plant {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]garden.Plant, 0, len(s.plants))
	for _, plant := range s.plants {
		out = append(out, plant)
	}
	return out
}

// ReplaceLogs swaps in freshly fetched log entries for one owner type,
// keeping entries of the other type intact.
func (s *Store) ReplaceLogs(ownerType garden.LogOwnerType, entries []garden.LogEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, entry := range s.logs {
		if entry.OwnerType == ownerType {
			delete(s.logs, id)
		}
	}
	for _, entry := range entries {
		s.logs[entry.LogID] = entry
	}
}

// Log returns one log entry by id.
func (s *Store) Log(logID string) (garden.LogEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.logs[logID]
	return entry, ok
}

// LogsForPlant returns a plant's log entries newest first.
func (s *Store) LogsForPlant(plantID string) []garden.LogEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]garden.LogEntry, 0)
	for _, entry := range s.logs {
		if entry.OwnerType == garden.LogOwnerPlant && entry.OwnerID == plantID {
			out = append(out, entry)
		}
	}
	sortLogsNewestFirst(out)
	return out
}

// GardenLogs returns the garden-scoped log entries newest first.
func (s *Store) GardenLogs() []garden.LogEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]garden.LogEntry, 0)
	for _, entry := range s.logs {
		if entry.OwnerType == garden.LogOwnerGarden {
			out = append(out, entry)
		}
	}
	sortLogsNewestFirst(out)
	return out
}

func sortLogsNewestFirst(entries []garden.LogEntry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].DateSeconds != entries[j].DateSeconds {
			return entries[i].DateSeconds > entries[j].DateSeconds
		}
		return entries[i].CreatedAtSeconds > entries[j].CreatedAtSeconds
	})
}

// ReplaceAreas swaps in a freshly fetched garden area collection.
func (s *Store) ReplaceAreas(areas []garden.GardenArea) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.areas = make(map[string]garden.GardenArea, len(areas))
	for _, area := range areas {
		s.areas[area.AreaID] = area
	}
}

// Areas returns the garden areas in creation order.
func (s *Store) Areas() []garden.GardenArea {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]garden.GardenArea, 0, len(s.areas))
	for _, area := range s.areas {
		out = append(out, area)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAtSeconds < out[j].CreatedAtSeconds
	})
	return out
}

// Area returns one garden area by id.
func (s *Store) Area(areaID string) (garden.GardenArea, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	area, ok := s.areas[areaID]
	return area, ok
}

// ReplaceNotebook swaps in a freshly fetched notebook collection.
func (s *Store) ReplaceNotebook(entries []garden.NotebookEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notebook = make(map[string]garden.NotebookEntry, len(entries))
	for _, entry := range entries {
		s.notebook[entry.EntryID] = entry
	}
}

// NotebookEntries returns the timeline newest date first.
func (s *Store) NotebookEntries() []garden.NotebookEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]garden.NotebookEntry, 0, len(s.notebook))
	for _, entry := range s.notebook {
		out = append(out, entry)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DateSeconds != out[j].DateSeconds {
			return out[i].DateSeconds > out[j].DateSeconds
		}
		return out[i].CreatedAtSeconds > out[j].CreatedAtSeconds
	})
	return out
}

// NotebookEntry returns one entry by id.
func (s *Store) NotebookEntry(entryID string) (garden.NotebookEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.notebook[entryID]
	return entry, ok
}
