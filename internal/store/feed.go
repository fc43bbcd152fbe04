package store

import (
	"sort"

	"github.com/florahq/verdant/internal/garden"
)

// ReplaceFeed swaps in page zero of the social feed and resets the cursor.
func (s *Store) ReplaceFeed(posts []FeedPost, hasMore bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.feed = make(map[string]FeedPost, len(posts))
	for _, post := range posts {
		s.feed[post.PostID] = post
	}
	s.feedCursor = len(posts)
	s.feedHasMore = hasMore
}

// AppendFeed adds a forward page to the existing collection and advances the
// cursor.
func (s *Store) AppendFeed(posts []FeedPost, hasMore bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, post := range posts {
		s.feed[post.PostID] = post
	}
	s.feedCursor += len(posts)
	s.feedHasMore = hasMore
}

// Feed returns the loaded posts ordered by creation time descending.
func (s *Store) Feed() []FeedPost {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]FeedPost, 0, len(s.feed))
	for _, post := range s.feed {
		out = append(out, post)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAtSeconds > out[j].CreatedAtSeconds
	})
	return out
}

// FeedPost returns one loaded post by id.
func (s *Store) FeedPost(postID string) (FeedPost, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	post, ok := s.feed[postID]
	return post, ok
}

// UpsertFeedPost inserts or replaces a single post. This is the optimistic
// update hook for like/comment paths.
func (s *Store) UpsertFeedPost(post FeedPost) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.feed[post.PostID] = post
}

// RemoveFeedPost drops a post by id.
func (s *Store) RemoveFeedPost(postID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.feed, postID)
}

// FeedCursor returns the offset the next forward page starts at.
func (s *Store) FeedCursor() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.feedCursor
}

// FeedHasMore reports whether another forward page may exist.
func (s *Store) FeedHasMore() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.feedHasMore
}

// SelectPlant records the plant a detail view is entered with.
func (s *Store) SelectPlant(plantID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selectedPlantID = plantID
}

// SelectedPlant returns the currently selected plant id.
func (s *Store) SelectedPlant() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selectedPlantID
}

// SelectLog records the log a detail view is entered with.
func (s *Store) SelectLog(logID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selectedLogID = logID
}

// SelectedLog returns the currently selected log id.
func (s *Store) SelectedLog() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selectedLogID
}

// SelectPost records the post a detail view is entered with.
func (s *Store) SelectPost(postID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selectedPostID = postID
}

// SelectedPost returns the currently selected post id.
func (s *Store) SelectedPost() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selectedPostID
}

// Clear resets every collection and selection, used on sign-out.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.plants = map[string]garden.Plant{}
	s.logs = map[string]garden.LogEntry{}
	s.areas = map[string]garden.GardenArea{}
	s.notebook = map[string]garden.NotebookEntry{}
	s.feed = map[string]FeedPost{}
	s.selectedPlantID = ""
	s.selectedLogID = ""
	s.selectedPostID = ""
	s.feedCursor = 0
	s.feedHasMore = false
}
